package meetyai

import (
	"context"

	"github.com/eugene-nechvoloda/meetyai/llm"
	"github.com/eugene-nechvoloda/meetyai/notify"
	"github.com/eugene-nechvoloda/meetyai/store"
)

// serviceContextKey is a private type for context keys to avoid collisions
type serviceContextKey string

// Context keys for pipeline services
const (
	storeServiceKey    serviceContextKey = "meetyai.store"
	analysisServiceKey serviceContextKey = "meetyai.llm.analysis"
	refineServiceKey   serviceContextKey = "meetyai.llm.refine"
	notifierServiceKey serviceContextKey = "meetyai.notifier"
	modelsServiceKey   serviceContextKey = "meetyai.models"
)

// Models names the model used by each pipeline stage.
type Models struct {
	Classify string
	Extract  string
	Refine   string
}

// WithStore adds the persistence store to the context.
func WithStore(ctx context.Context, s *store.Store) context.Context {
	return context.WithValue(ctx, storeServiceKey, s)
}

// StoreFromContext extracts the store from context.
func StoreFromContext(ctx context.Context) *store.Store {
	if s, ok := ctx.Value(storeServiceKey).(*store.Store); ok {
		return s
	}
	return nil
}

// MustStoreFromContext extracts the store or panics.
func MustStoreFromContext(ctx context.Context) *store.Store {
	s := StoreFromContext(ctx)
	if s == nil {
		panic("meetyai: store not found in context")
	}
	return s
}

// WithAnalysisClient adds the analysis model client (classification and
// extraction) to the context.
func WithAnalysisClient(ctx context.Context, c llm.Client) context.Context {
	return context.WithValue(ctx, analysisServiceKey, c)
}

// AnalysisClientFromContext extracts the analysis client from context.
func AnalysisClientFromContext(ctx context.Context) llm.Client {
	if c, ok := ctx.Value(analysisServiceKey).(llm.Client); ok {
		return c
	}
	return nil
}

// MustAnalysisClientFromContext extracts the analysis client or panics.
func MustAnalysisClientFromContext(ctx context.Context) llm.Client {
	c := AnalysisClientFromContext(ctx)
	if c == nil {
		panic("meetyai: analysis llm.Client not found in context")
	}
	return c
}

// WithRefineClient adds the writing model client to the context.
func WithRefineClient(ctx context.Context, c llm.Client) context.Context {
	return context.WithValue(ctx, refineServiceKey, c)
}

// RefineClientFromContext extracts the writing client from context.
func RefineClientFromContext(ctx context.Context) llm.Client {
	if c, ok := ctx.Value(refineServiceKey).(llm.Client); ok {
		return c
	}
	return nil
}

// MustRefineClientFromContext extracts the writing client or panics.
func MustRefineClientFromContext(ctx context.Context) llm.Client {
	c := RefineClientFromContext(ctx)
	if c == nil {
		panic("meetyai: refine llm.Client not found in context")
	}
	return c
}

// WithNotifier adds the completion/failure notifier to the context.
func WithNotifier(ctx context.Context, n notify.Notifier) context.Context {
	return context.WithValue(ctx, notifierServiceKey, n)
}

// NotifierFromContext extracts the notifier from context. A nil notifier
// means notifications are disabled; nodes treat that as a no-op.
func NotifierFromContext(ctx context.Context) notify.Notifier {
	if n, ok := ctx.Value(notifierServiceKey).(notify.Notifier); ok {
		return n
	}
	return nil
}

// WithModels adds the per-stage model names to the context.
func WithModels(ctx context.Context, m Models) context.Context {
	return context.WithValue(ctx, modelsServiceKey, m)
}

// ModelsFromContext extracts the per-stage model names, falling back to
// the defaults when none were injected.
func ModelsFromContext(ctx context.Context) Models {
	if m, ok := ctx.Value(modelsServiceKey).(Models); ok {
		return m
	}
	return Models{
		Classify: string(DefaultModelMap[StageClassify]),
		Extract:  string(DefaultModelMap[StageExtract]),
		Refine:   string(DefaultModelMap[StageRefine]),
	}
}
