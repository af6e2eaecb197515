package meetyai

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/eugene-nechvoloda/meetyai/llm"
	"github.com/eugene-nechvoloda/meetyai/notify"
	"github.com/eugene-nechvoloda/meetyai/store"
)

// Processor runs the transcript-to-insight pipeline. A per-transcript
// lease rejects concurrent runs against the same transcript id; distinct
// transcripts run concurrently with no shared lock.
type Processor struct {
	store    *store.Store
	analysis llm.Client
	refine   llm.Client
	notifier notify.Notifier
	models   Models

	mu      sync.Mutex
	running map[string]struct{}
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithProcessorNotifier attaches a completion/failure notifier.
func WithProcessorNotifier(n notify.Notifier) ProcessorOption {
	return func(p *Processor) { p.notifier = n }
}

// WithProcessorModels overrides the per-stage model names.
func WithProcessorModels(m Models) ProcessorOption {
	return func(p *Processor) { p.models = m }
}

// NewProcessor creates a Processor. analysis serves classification and
// extraction; refine serves the writing stage.
func NewProcessor(st *store.Store, analysis, refine llm.Client, opts ...ProcessorOption) *Processor {
	p := &Processor{
		store:    st,
		analysis: analysis,
		refine:   refine,
		models: Models{
			Classify: string(DefaultModelMap[StageClassify]),
			Extract:  string(DefaultModelMap[StageExtract]),
			Refine:   string(DefaultModelMap[StageRefine]),
		},
		running: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// acquire takes the per-transcript lease.
func (p *Processor) acquire(transcriptID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, held := p.running[transcriptID]; held {
		return fmt.Errorf("transcript %s: %w", transcriptID, ErrRunInProgress)
	}
	p.running[transcriptID] = struct{}{}
	return nil
}

func (p *Processor) release(transcriptID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.running, transcriptID)
}

// Process runs the full pipeline for one transcript. On any pipeline
// error the transcript is marked failed with a processing_failed activity
// entry, and the error is returned.
//
// Re-analysis of an already-processed transcript archives its prior
// unexported insights first; exported insights are kept.
func (p *Processor) Process(ctx context.Context, transcriptID string) error {
	if err := p.acquire(transcriptID); err != nil {
		return err
	}
	defer p.release(transcriptID)

	slog.Info("processing transcript", "transcript_id", transcriptID)

	tr, err := p.store.GetTranscript(ctx, transcriptID)
	if err != nil {
		return fmt.Errorf("load transcript %s: %w", transcriptID, err)
	}

	archived, err := p.store.ArchiveUnexportedInsights(ctx, transcriptID)
	if err != nil {
		return fmt.Errorf("archive prior insights: %w", err)
	}
	if archived > 0 {
		slog.Info("archived prior insights for re-analysis",
			"transcript_id", transcriptID, "count", archived)
	}

	settings, err := p.store.GetUserSettings(ctx, tr.UserID)
	if err != nil {
		return fmt.Errorf("load user settings: %w", err)
	}

	state := NewRunState(transcriptID, tr.UserID, tr.Title, tr.Text).
		WithSettings(settings.CustomContext, settings.InsightExamples)

	if err := p.run(ctx, state); err != nil {
		p.recordFailure(ctx, transcriptID, tr.UserID, tr.Title, err)
		return err
	}
	return nil
}

func (p *Processor) run(ctx context.Context, state RunState) error {
	compiled, err := flowgraph.NewGraph[RunState]().
		AddNode("classify", ClassifyNode).
		AddNode("extract", ExtractNode).
		AddNode("refine", RefineNode).
		AddNode("compile", CompileNode).
		AddEdge("classify", "extract").
		AddEdge("extract", "refine").
		AddEdge("refine", "compile").
		AddEdge("compile", flowgraph.END).
		SetEntry("classify").
		Compile()
	if err != nil {
		return fmt.Errorf("compile pipeline graph: %w", err)
	}

	baseCtx := WithStore(ctx, p.store)
	baseCtx = WithAnalysisClient(baseCtx, p.analysis)
	baseCtx = WithRefineClient(baseCtx, p.refine)
	baseCtx = WithModels(baseCtx, p.models)
	if p.notifier != nil {
		baseCtx = WithNotifier(baseCtx, p.notifier)
	}

	_, err = compiled.Run(flowgraph.NewContext(baseCtx), state)
	return err
}

// recordFailure flips the transcript to failed and appends the terminal
// processing_failed entry. Both writes are best-effort: the original
// pipeline error is what the caller sees.
func (p *Processor) recordFailure(ctx context.Context, transcriptID, userID, title string, cause error) {
	slog.Error("transcript processing failed",
		"transcript_id", transcriptID, "error", cause)

	if err := p.store.UpdateStatus(ctx, transcriptID, string(StatusFailed)); err != nil {
		slog.Error("failed to mark transcript failed", "transcript_id", transcriptID, "error", err)
	}
	msg := fmt.Sprintf("Processing failed: %v", cause)
	if err := p.store.AppendActivity(ctx, transcriptID, store.ActivityProcessingFailed, msg, nil); err != nil {
		slog.Error("failed to record failure activity", "transcript_id", transcriptID, "error", err)
	}

	if p.notifier != nil {
		text := fmt.Sprintf("Analysis failed for %q. Please try again or re-upload the transcript.", title)
		if err := p.notifier.PostMessage(ctx, userID, text); err != nil {
			slog.Error("failed to send failure notification", "error", err)
		}
	}
}
