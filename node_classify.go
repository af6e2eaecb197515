package meetyai

import (
	"fmt"
	"log/slog"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/eugene-nechvoloda/meetyai/llm"
)

// ClassifyNode labels the transcript's context from a fixed category set.
//
// A parse failure here is fatal to the run: unlike extraction passes,
// classification has no degradation policy, so the error propagates and
// the orchestrator marks the transcript failed.
//
// Updates: state.Classification; persists context_theme and
// context_confidence on the transcript.
func ClassifyNode(ctx flowgraph.Context, state RunState) (RunState, error) {
	if state.Text == "" {
		return state, ErrEmptyTranscript
	}

	client := MustAnalysisClientFromContext(ctx)
	models := ModelsFromContext(ctx)

	resp, err := client.Complete(ctx, llm.CompletionRequest{
		Model:       models.Classify,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: classifyPrompt(state.Text)}},
		Temperature: classifyTemperature,
		MaxTokens:   classifyMaxTokens,
	})
	if err != nil {
		return state, fmt.Errorf("classify transcript %s: %w", state.TranscriptID, err)
	}

	var c Classification
	if err := llm.DecodeJSON(resp.Content, &c); err != nil {
		return state, fmt.Errorf("parse classification for %s: %w", state.TranscriptID, err)
	}

	// The category set is closed; an off-enumeration answer collapses to
	// the catch-all rather than leaking arbitrary strings downstream.
	if !KnownCategory(c.Context) {
		slog.Warn("classifier returned unknown category, using other",
			"transcript_id", state.TranscriptID, "category", c.Context)
		c.Context = CategoryOther
	}
	state.Classification = &c

	st := MustStoreFromContext(ctx)
	if err := st.SetContext(ctx, state.TranscriptID, c.Context, c.Confidence); err != nil {
		return state, fmt.Errorf("persist classification: %w", err)
	}

	slog.Info("transcript classified",
		"transcript_id", state.TranscriptID,
		"context", c.Context, "confidence", c.Confidence)

	return state, nil
}
