package meetyai

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/eugene-nechvoloda/meetyai/insight"
	"github.com/eugene-nechvoloda/meetyai/llm"
)

// ExtractNode runs the four extraction passes as a fan-out and joins the
// results in pass order.
//
// The pass status transitions are written sequentially before the fan-out
// starts, so the activity trail always reads analyzing_pass_1 through
// analyzing_pass_4 in order regardless of goroutine scheduling. Merge
// order is pass index, then within-pass order, keeping content hashing
// reproducible.
//
// A pass whose response cannot be parsed is logged and skipped; its
// insights are lost and the run continues. A provider error from any pass
// fails the run.
//
// Updates: state.Passes, state.Raw.
func ExtractNode(ctx flowgraph.Context, state RunState) (RunState, error) {
	st := MustStoreFromContext(ctx)
	client := MustAnalysisClientFromContext(ctx)
	models := ModelsFromContext(ctx)

	for _, status := range PassStatuses {
		if err := st.UpdateStatus(ctx, state.TranscriptID, string(status)); err != nil {
			return state, fmt.Errorf("update status to %s: %w", status, err)
		}
	}

	results := make([]PassResult, len(PassTypes))
	errs := make([]error, len(PassTypes))

	var wg sync.WaitGroup
	for i, types := range PassTypes {
		wg.Add(1)
		go func(pass int, types []insight.Type) {
			defer wg.Done()
			results[pass], errs[pass] = runExtractionPass(ctx, client, models.Extract, pass, types, state)
		}(i, types)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return state, err
		}
	}

	state.Passes = results
	state.Raw = nil
	for _, r := range results {
		state.Raw = append(state.Raw, r.Insights...)
	}

	slog.Info("extraction complete",
		"transcript_id", state.TranscriptID, "raw_insights", len(state.Raw))

	return state, nil
}

func runExtractionPass(
	ctx flowgraph.Context,
	client llm.Client,
	model string,
	pass int,
	types []insight.Type,
	state RunState,
) (PassResult, error) {
	result := PassResult{Pass: pass + 1}

	resp, err := client.Complete(ctx, llm.CompletionRequest{
		Model:        model,
		SystemPrompt: extractSystemPrompt(types, state.CustomContext),
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: extractUserPrompt(state.Text)}},
		Temperature:  extractTemperature,
		MaxTokens:    extractMaxTokens,
	})
	if err != nil {
		return result, fmt.Errorf("extraction pass %d: %w", pass+1, err)
	}

	var parsed struct {
		RawInsights []insight.RawInsight `json:"raw_insights"`
	}
	if err := llm.DecodeJSON(resp.Content, &parsed); err != nil {
		// Partial-failure policy: this pass's insights are lost, the
		// run continues with the other passes.
		slog.Error("failed to parse extraction pass response, skipping pass",
			"transcript_id", state.TranscriptID, "pass", pass+1, "error", err)
		result.Skipped = true
		return result, nil
	}

	result.Insights = parsed.RawInsights
	slog.Info("extraction pass complete",
		"transcript_id", state.TranscriptID, "pass", pass+1, "insights", len(parsed.RawInsights))

	return result, nil
}
