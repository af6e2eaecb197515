package meetyai

import (
	"context"
	"strings"
	"testing"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/eugene-nechvoloda/meetyai/insight"
	"github.com/eugene-nechvoloda/meetyai/llm"
	"github.com/eugene-nechvoloda/meetyai/store"
)

// newTestStore opens an in-memory store with one uploaded transcript.
func newTestStore(t *testing.T, text string) (*store.Store, string) {
	t.Helper()
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	id, err := st.CreateTranscript(context.Background(), store.Transcript{
		UserID: "U123",
		Title:  "Acme onboarding call",
		Text:   text,
	})
	if err != nil {
		t.Fatalf("create transcript: %v", err)
	}
	return st, id
}

// passIndexFor identifies which extraction pass a request belongs to by
// its system prompt's type list.
func passIndexFor(systemPrompt string) int {
	for i, types := range PassTypes {
		names := make([]string, len(types))
		for j, typ := range types {
			names[j] = string(typ)
		}
		if strings.Contains(systemPrompt, strings.Join(names, ", ")) {
			return i
		}
	}
	return -1
}

// scriptedAnalysis builds an analysis client returning classifyResp for
// classification requests and per-pass responses for extraction requests.
// Passes without an entry return an empty insight list.
func scriptedAnalysis(classifyResp string, passResponses map[int]string) *llm.MockClient {
	return llm.NewMockClient("").WithCompleteFunc(
		func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			if req.MaxTokens == classifyMaxTokens {
				return &llm.CompletionResponse{Content: classifyResp}, nil
			}
			if resp, ok := passResponses[passIndexFor(req.SystemPrompt)]; ok {
				return &llm.CompletionResponse{Content: resp}, nil
			}
			return &llm.CompletionResponse{Content: `{"raw_insights": []}`}, nil
		})
}

func testContext(st *store.Store, analysis, refine llm.Client) flowgraph.Context {
	ctx := WithStore(context.Background(), st)
	if analysis != nil {
		ctx = WithAnalysisClient(ctx, analysis)
	}
	if refine != nil {
		ctx = WithRefineClient(ctx, refine)
	}
	return flowgraph.NewContext(ctx)
}

func TestClassifyNodePersistsContext(t *testing.T) {
	st, id := newTestStore(t, "We talked about the roadmap.")
	analysis := scriptedAnalysis(`{"context": "research_call", "confidence": 0.92, "reasoning": "interview format"}`, nil)
	ctx := testContext(st, analysis, nil)

	state, err := ClassifyNode(ctx, NewRunState(id, "U123", "t", "We talked about the roadmap."))
	if err != nil {
		t.Fatalf("ClassifyNode: %v", err)
	}
	if state.Classification == nil || state.Classification.Context != "research_call" {
		t.Fatalf("Classification = %+v", state.Classification)
	}

	tr, err := st.GetTranscript(context.Background(), id)
	if err != nil {
		t.Fatalf("GetTranscript: %v", err)
	}
	if tr.ContextTheme != "research_call" || tr.ContextConfidence != 0.92 {
		t.Errorf("persisted context = %q/%v", tr.ContextTheme, tr.ContextConfidence)
	}
}

func TestClassifyNodeCoercesUnknownCategory(t *testing.T) {
	st, id := newTestStore(t, "text")
	analysis := scriptedAnalysis(`{"context": "board_meeting", "confidence": 0.8}`, nil)
	ctx := testContext(st, analysis, nil)

	state, err := ClassifyNode(ctx, NewRunState(id, "U123", "t", "text"))
	if err != nil {
		t.Fatalf("ClassifyNode: %v", err)
	}
	if state.Classification.Context != CategoryOther {
		t.Errorf("Context = %q, want %q", state.Classification.Context, CategoryOther)
	}
}

func TestClassifyNodeParseFailurePropagates(t *testing.T) {
	st, id := newTestStore(t, "text")
	analysis := scriptedAnalysis("I cannot classify this.", nil)
	ctx := testContext(st, analysis, nil)

	if _, err := ClassifyNode(ctx, NewRunState(id, "U123", "t", "text")); err == nil {
		t.Error("ClassifyNode succeeded on unparseable response, want error")
	}
}

func TestClassifyNodeEmptyTranscript(t *testing.T) {
	st, id := newTestStore(t, "")
	ctx := testContext(st, scriptedAnalysis("{}", nil), nil)

	if _, err := ClassifyNode(ctx, NewRunState(id, "U123", "t", "")); err != ErrEmptyTranscript {
		t.Errorf("error = %v, want ErrEmptyTranscript", err)
	}
}

func TestExtractNodeWritesPassStatusesInOrder(t *testing.T) {
	st, id := newTestStore(t, "text")
	ctx := testContext(st, scriptedAnalysis("", nil), nil)

	if _, err := ExtractNode(ctx, NewRunState(id, "U123", "t", "text")); err != nil {
		t.Fatalf("ExtractNode: %v", err)
	}

	acts, err := st.Activities(context.Background(), id)
	if err != nil {
		t.Fatalf("Activities: %v", err)
	}
	if len(acts) != 4 {
		t.Fatalf("%d activities, want 4", len(acts))
	}
	for i, status := range PassStatuses {
		want := "Status updated to: " + string(status)
		if acts[i].Message != want {
			t.Errorf("activity %d = %q, want %q", i, acts[i].Message, want)
		}
	}
}

func TestExtractNodeMergesInPassOrder(t *testing.T) {
	st, id := newTestStore(t, "text")
	analysis := scriptedAnalysis("", map[int]string{
		0: `{"raw_insights": [{"type": "pain", "raw_content": "first", "confidence": 0.8}]}`,
		3: `{"raw_insights": [{"type": "objection", "raw_content": "last", "confidence": 0.7}]}`,
	})
	ctx := testContext(st, analysis, nil)

	state, err := ExtractNode(ctx, NewRunState(id, "U123", "t", "text"))
	if err != nil {
		t.Fatalf("ExtractNode: %v", err)
	}
	if len(state.Raw) != 2 {
		t.Fatalf("%d raw insights, want 2", len(state.Raw))
	}
	if state.Raw[0].RawContent != "first" || state.Raw[1].RawContent != "last" {
		t.Errorf("merge order = [%s, %s], want pass order", state.Raw[0].RawContent, state.Raw[1].RawContent)
	}
}

func TestExtractNodeSkipsMalformedPass(t *testing.T) {
	st, id := newTestStore(t, "text")
	analysis := scriptedAnalysis("", map[int]string{
		0: `{"raw_insights": [{"type": "pain", "raw_content": "a"}, {"type": "blocker", "raw_content": "b"}]}`,
		1: `this is not json at all`,
		2: `{"raw_insights": [{"type": "question", "raw_content": "c"}]}`,
		3: `{"raw_insights": [{"type": "gain", "raw_content": "d"}]}`,
	})
	ctx := testContext(st, analysis, nil)

	state, err := ExtractNode(ctx, NewRunState(id, "U123", "t", "text"))
	if err != nil {
		t.Fatalf("ExtractNode returned error on malformed pass: %v", err)
	}
	if len(state.Raw) != 4 {
		t.Errorf("%d raw insights, want sum of the three successful passes (4)", len(state.Raw))
	}
	if !state.Passes[1].Skipped {
		t.Error("malformed pass not marked skipped")
	}
	if state.Passes[0].Skipped || state.Passes[2].Skipped || state.Passes[3].Skipped {
		t.Error("successful pass marked skipped")
	}
}

func TestRefineNodeIdentityFallback(t *testing.T) {
	st, id := newTestStore(t, "text")
	refine := llm.NewMockClient("Sorry, I had trouble with that.")
	ctx := testContext(st, nil, refine)

	raw := []insight.RawInsight{
		{Type: insight.TypePain, RawContent: "Onboarding too slow", Evidence: "took 3 days", Speaker: "John", Timestamp: "00:10:00", Confidence: 0.9},
		{Type: insight.TypeIdea, RawContent: "Add a setup wizard", Evidence: "a wizard would help", Speaker: "Sarah", Confidence: 0.7},
	}
	state := NewRunState(id, "U123", "t", "text")
	state.Raw = raw

	out, err := RefineNode(ctx, state)
	if err != nil {
		t.Fatalf("RefineNode: %v", err)
	}
	if !out.RefineFellBack {
		t.Error("RefineFellBack not set")
	}
	if len(out.Refined) != len(raw) {
		t.Fatalf("%d refined, want %d", len(out.Refined), len(raw))
	}
	for i, r := range raw {
		want := insight.FromRaw(r)
		if out.Refined[i] != want {
			t.Errorf("Refined[%d] = %+v, want identity fallback %+v", i, out.Refined[i], want)
		}
	}
}

func TestRefineNodeParsesInsights(t *testing.T) {
	st, id := newTestStore(t, "text")
	refine := llm.NewMockClient(`{"insights": [{"title": "Onboarding takes 3 days for Acme", "description": "Setup is slow. It frustrates new customers. Streamline provisioning.", "type": "pain", "evidence": "took 3 days", "speaker": "John (Acme)", "timestamp": "00:10:00", "confidence": 0.9}]}`)
	ctx := testContext(st, nil, refine)

	state := NewRunState(id, "U123", "t", "text")
	state.Raw = []insight.RawInsight{{Type: insight.TypePain, RawContent: "slow onboarding", Confidence: 0.9}}

	out, err := RefineNode(ctx, state)
	if err != nil {
		t.Fatalf("RefineNode: %v", err)
	}
	if out.RefineFellBack {
		t.Error("fallback taken on valid response")
	}
	if len(out.Refined) != 1 || out.Refined[0].Title != "Onboarding takes 3 days for Acme" {
		t.Errorf("Refined = %+v", out.Refined)
	}

	tr, _ := st.GetTranscript(context.Background(), id)
	if tr.Status != string(StatusCompilingInsights) {
		t.Errorf("status = %s, want compiling_insights", tr.Status)
	}
}

func TestCompileNodeDeduplicatesAndPersists(t *testing.T) {
	st, id := newTestStore(t, "text")
	ctx := testContext(st, nil, nil)

	state := NewRunState(id, "U123", "t", "text")
	state.Refined = []insight.Refined{
		{Title: "A", Description: "d", Type: insight.TypePain, Speaker: "John", Confidence: 0.8},
		{Title: "A", Description: "d", Type: insight.TypePain, Speaker: "John", Confidence: 0.8},
		{Title: "B", Description: "e", Type: insight.TypeIdea, Speaker: "Sarah", Confidence: 0.6},
	}

	out, err := CompileNode(ctx, state)
	if err != nil {
		t.Fatalf("CompileNode: %v", err)
	}
	if len(out.Deduplicated) != 2 || len(out.InsightIDs) != 2 {
		t.Fatalf("deduplicated = %d, ids = %d, want 2", len(out.Deduplicated), len(out.InsightIDs))
	}

	stored, err := st.InsightsByTranscript(context.Background(), id, false)
	if err != nil {
		t.Fatalf("InsightsByTranscript: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("%d persisted insights, want 2", len(stored))
	}
	hashes := map[string]bool{}
	for _, ins := range stored {
		if ins.Status != insight.StatusNew {
			t.Errorf("insight status = %s, want new", ins.Status)
		}
		if ins.ContentHash == "" {
			t.Error("empty content hash")
		}
		if hashes[ins.ContentHash] {
			t.Error("two persisted insights share a content hash")
		}
		hashes[ins.ContentHash] = true
	}

	tr, _ := st.GetTranscript(context.Background(), id)
	if tr.Status != string(StatusCompleted) {
		t.Errorf("status = %s, want completed", tr.Status)
	}
	if tr.ProcessedAt == nil {
		t.Error("processed_at not set")
	}
}
