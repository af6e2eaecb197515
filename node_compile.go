package meetyai

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/eugene-nechvoloda/meetyai/insight"
)

// CompileNode deduplicates the refined insights, persists the survivors,
// and completes the run.
//
// Insight writes are not transactional across the batch: a crash mid-loop
// leaves earlier insights committed while the transcript still reads
// compiling_insights.
//
// Updates: state.Deduplicated, state.InsightIDs; marks the transcript
// completed with a processed_at timestamp and sends best-effort
// completion notifications.
func CompileNode(ctx flowgraph.Context, state RunState) (RunState, error) {
	st := MustStoreFromContext(ctx)

	state.Deduplicated = insight.Dedupe(state.Refined)
	slog.Info("deduplication complete",
		"transcript_id", state.TranscriptID,
		"refined", len(state.Refined), "unique", len(state.Deduplicated))

	state.InsightIDs = make([]string, 0, len(state.Deduplicated))
	for _, r := range state.Deduplicated {
		id, err := st.CreateInsight(ctx, insight.Insight{
			TranscriptID: state.TranscriptID,
			Type:         r.Type,
			Title:        r.Title,
			Description:  r.Description,
			Author:       r.Speaker,
			Speaker:      r.Speaker,
			EvidenceText: r.Evidence,
			EvidenceQuotes: []insight.EvidenceQuote{
				{Quote: r.Evidence, Speaker: r.Speaker, Timestamp: r.Timestamp},
			},
			Confidence:     r.Confidence,
			TimestampStart: r.Timestamp,
			ContentHash:    insight.ContentHash(r.Title, r.Description),
			Status:         insight.StatusNew,
		})
		if err != nil {
			return state, fmt.Errorf("persist insight: %w", err)
		}
		state.InsightIDs = append(state.InsightIDs, id)
	}

	if err := st.UpdateStatus(ctx, state.TranscriptID, string(StatusCompleted)); err != nil {
		return state, fmt.Errorf("update status to %s: %w", StatusCompleted, err)
	}
	if err := st.MarkProcessed(ctx, state.TranscriptID, time.Now().UTC()); err != nil {
		return state, fmt.Errorf("mark transcript processed: %w", err)
	}

	slog.Info("transcript processing complete",
		"transcript_id", state.TranscriptID, "insights", len(state.InsightIDs))

	// Notifications are fire-and-forget; a chat outage never fails a
	// completed run.
	if n := NotifierFromContext(ctx); n != nil {
		msg := fmt.Sprintf("Analysis complete for %q!\n\nExtracted %d insights using dual-AI processing.",
			state.Title, len(state.InsightIDs))
		if err := n.PostMessage(ctx, state.UserID, msg); err != nil {
			slog.Error("failed to send completion notification", "error", err)
		}
		if err := n.RefreshHomeView(ctx, state.UserID); err != nil {
			slog.Error("failed to refresh home view", "error", err)
		}
	}

	return state, nil
}
