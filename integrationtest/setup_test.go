package integrationtest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugene-nechvoloda/meetyai/llm"
	"github.com/eugene-nechvoloda/meetyai/store"
)

// Classification is the only analysis-client stage with a 1024-token cap,
// which is how the scripted client tells it apart from extraction passes.
const classifyTokenCap = 1024

// setupStore opens an in-memory store seeded with one uploaded transcript.
func setupStore(t *testing.T, text string) (*store.Store, string) {
	t.Helper()

	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	id, err := st.CreateTranscript(context.Background(), store.Transcript{
		UserID: "U999",
		Title:  "Globex discovery call",
		Text:   text,
	})
	require.NoError(t, err)

	return st, id
}

// scriptedAnalysisClient answers classification with classifyResp and every
// extraction pass with the pass response, falling back to an empty insight
// list so only one pass yields content.
func scriptedAnalysisClient(classifyResp, passResp string) *llm.MockClient {
	served := false
	var mu sync.Mutex
	return llm.NewMockClient("").WithCompleteFunc(
		func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			if req.MaxTokens == classifyTokenCap {
				return &llm.CompletionResponse{Content: classifyResp}, nil
			}
			mu.Lock()
			defer mu.Unlock()
			if !served {
				served = true
				return &llm.CompletionResponse{Content: passResp}, nil
			}
			return &llm.CompletionResponse{Content: `{"raw_insights": []}`}, nil
		})
}

// airtableStub is a fake Airtable API backed by httptest. It serves a
// fixed set of existing records and captures every created record.
type airtableStub struct {
	server *httptest.Server

	mu       sync.Mutex
	existing []map[string]any
	created  []map[string]any
}

func newAirtableStub(t *testing.T, existing []map[string]any) *airtableStub {
	t.Helper()

	stub := &airtableStub{existing: existing}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-secret-key", r.Header.Get("Authorization"))

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v0/appGlobex/Insights":
			stub.mu.Lock()
			records := make([]map[string]any, 0, len(stub.existing))
			for i, fields := range stub.existing {
				records = append(records, map[string]any{
					"id":     "rec" + string(rune('A'+i)),
					"fields": fields,
				})
			}
			stub.mu.Unlock()
			json.NewEncoder(w).Encode(map[string]any{"records": records})

		case r.Method == http.MethodPost && r.URL.Path == "/v0/appGlobex/Insights":
			var body struct {
				Fields map[string]any `json:"fields"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			stub.mu.Lock()
			stub.created = append(stub.created, body.Fields)
			stub.mu.Unlock()
			json.NewEncoder(w).Encode(map[string]string{"id": "recNEW"})

		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(stub.server.Close)

	return stub
}

func (s *airtableStub) createdRecords() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.created...)
}
