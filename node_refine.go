package meetyai

import (
	"fmt"
	"log/slog"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/eugene-nechvoloda/meetyai/insight"
	"github.com/eugene-nechvoloda/meetyai/llm"
)

// RefineNode rewrites the raw insights with the writing model in one
// batched call. It marks the transcript compiling_insights on entry.
//
// On a parse failure the raw insights pass through unchanged (identity
// fallback): titles and descriptions carry the raw content verbatim, and
// type, evidence, speaker, timestamp, and confidence are preserved.
//
// Updates: state.Refined, state.RefineFellBack.
func RefineNode(ctx flowgraph.Context, state RunState) (RunState, error) {
	st := MustStoreFromContext(ctx)
	if err := st.UpdateStatus(ctx, state.TranscriptID, string(StatusCompilingInsights)); err != nil {
		return state, fmt.Errorf("update status to %s: %w", StatusCompilingInsights, err)
	}

	if len(state.Raw) == 0 {
		state.Refined = nil
		return state, nil
	}

	client := MustRefineClientFromContext(ctx)
	models := ModelsFromContext(ctx)

	userPrompt, err := refineUserPrompt(state.Raw)
	if err != nil {
		return state, err
	}

	resp, err := client.Complete(ctx, llm.CompletionRequest{
		Model:        models.Refine,
		SystemPrompt: refineSystemPrompt(state.CustomContext, state.InsightExamples),
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: userPrompt}},
		Temperature:  refineTemperature,
		MaxTokens:    refineMaxTokens,
	})
	if err != nil {
		return state, fmt.Errorf("refine insights for %s: %w", state.TranscriptID, err)
	}

	var parsed struct {
		Insights []insight.Refined `json:"insights"`
	}
	if err := llm.DecodeJSON(resp.Content, &parsed); err != nil {
		slog.Error("failed to parse refinement response, falling back to raw insights",
			"transcript_id", state.TranscriptID, "error", err)
		state.Refined = fallbackFromRaw(state.Raw)
		state.RefineFellBack = true
		return state, nil
	}

	state.Refined = parsed.Insights
	slog.Info("refinement complete",
		"transcript_id", state.TranscriptID, "insights", len(state.Refined))

	return state, nil
}

func fallbackFromRaw(raw []insight.RawInsight) []insight.Refined {
	refined := make([]insight.Refined, len(raw))
	for i, r := range raw {
		refined[i] = insight.FromRaw(r)
	}
	return refined
}
