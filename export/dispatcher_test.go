package export

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/eugene-nechvoloda/meetyai/insight"
	"github.com/eugene-nechvoloda/meetyai/llm"
	"github.com/eugene-nechvoloda/meetyai/secrets"
	"github.com/eugene-nechvoloda/meetyai/store"
)

// fakeProvider records calls and returns canned data.
type fakeProvider struct {
	mu sync.Mutex

	records  []Record
	fetchErr error

	createErr error
	created   []map[string]any
}

func (f *fakeProvider) TestConnection(ctx context.Context) error { return nil }

func (f *fakeProvider) FetchFields(ctx context.Context) ([]Field, error) {
	return nil, ErrNotImplemented
}

func (f *fakeProvider) FetchExistingRecords(ctx context.Context) ([]Record, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.records, nil
}

func (f *fakeProvider) CreateRecord(ctx context.Context, fields map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, fields)
	return fmt.Sprintf("rec-%d", len(f.created)), nil
}

type fixture struct {
	store      *store.Store
	dispatcher *Dispatcher
	provider   *fakeProvider
	insightID  string
	configID   string
}

func newFixture(t *testing.T, judgeResponse string, enabled bool) *fixture {
	t.Helper()

	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	transcriptID, err := st.CreateTranscript(ctx, store.Transcript{
		UserID: "u1",
		Title:  "Acme research call",
		Text:   "hello",
	})
	if err != nil {
		t.Fatalf("create transcript: %v", err)
	}

	insightID, err := st.CreateInsight(ctx, insight.Insight{
		TranscriptID: transcriptID,
		Type:         insight.TypePain,
		Title:        "Onboarding is slow",
		Description:  "Setup takes three days",
		Speaker:      "John, Acme Corp",
		EvidenceText: "Our onboarding takes 3 days",
		Confidence:   0.9,
	})
	if err != nil {
		t.Fatalf("create insight: %v", err)
	}

	box, err := secrets.NewBox("test-encryption-key")
	if err != nil {
		t.Fatalf("new box: %v", err)
	}
	encKey, err := box.Encrypt("api-key-123")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	configID, err := st.CreateExportConfig(ctx, store.ExportConfig{
		UserID:          "u1",
		Provider:        "fake",
		Label:           "Test destination",
		APIKeyEncrypted: encKey,
		FieldMapping: map[string]string{
			FieldTitle:       "Name",
			FieldDescription: "Notes",
			FieldSpeaker:     "Speaker",
			FieldSource:      "Source",
		},
		Enabled: enabled,
	})
	if err != nil {
		t.Fatalf("create export config: %v", err)
	}

	provider := &fakeProvider{}
	registry := NewRegistry()
	registry.Register("fake", func(creds Credentials, cfg store.ExportConfig) (Provider, error) {
		if creds.APIKey != "api-key-123" {
			return nil, fmt.Errorf("credential not decrypted, got %q", creds.APIKey)
		}
		return provider, nil
	})

	judge := NewJudge(llm.NewMockClient(judgeResponse), "claude-sonnet-4-20250514", nil)
	d := NewDispatcher(st, box, judge, WithRegistry(registry))

	return &fixture{store: st, dispatcher: d, provider: provider, insightID: insightID, configID: configID}
}

func TestExportCreatesRecordAndMarksInsight(t *testing.T) {
	fx := newFixture(t, `{"isDuplicate": false}`, true)
	ctx := context.Background()

	res, err := fx.dispatcher.Export(ctx, fx.insightID, fx.configID)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !res.Success || res.Skipped {
		t.Errorf("Export() = %+v, want success and not skipped", res)
	}
	if res.RecordID != "rec-1" {
		t.Errorf("RecordID = %q, want rec-1", res.RecordID)
	}

	if len(fx.provider.created) != 1 {
		t.Fatalf("created %d records, want 1", len(fx.provider.created))
	}
	payload := fx.provider.created[0]
	if payload["Name"] != "Onboarding is slow" {
		t.Errorf("payload Name = %v", payload["Name"])
	}
	if payload["Source"] != "Acme research call" {
		t.Errorf("payload Source = %v, want transcript title", payload["Source"])
	}
	if _, ok := payload["type"]; ok {
		t.Error("unmapped canonical field leaked into payload")
	}

	ins, err := fx.store.GetInsight(ctx, fx.insightID)
	if err != nil {
		t.Fatalf("GetInsight: %v", err)
	}
	if ins.Status != insight.StatusExported || !ins.Exported {
		t.Errorf("insight status = %s exported=%v, want exported", ins.Status, ins.Exported)
	}
	if dest, ok := ins.Destinations["fake"]; !ok || dest.RecordID != "rec-1" {
		t.Errorf("Destinations = %+v, want fake/rec-1", ins.Destinations)
	}

	cfg, err := fx.store.GetExportConfig(ctx, fx.configID)
	if err != nil {
		t.Fatalf("GetExportConfig: %v", err)
	}
	if cfg.TotalExported != 1 {
		t.Errorf("TotalExported = %d, want 1", cfg.TotalExported)
	}
	if cfg.LastExportAt == nil {
		t.Error("LastExportAt not set")
	}
}

func TestExportSkipsJudgedDuplicate(t *testing.T) {
	fx := newFixture(t, `{"isDuplicate": true, "matchedRecordId": "rec-existing", "explanation": "same speaker and claim"}`, true)
	fx.provider.records = []Record{
		{ID: "rec-existing", Fields: map[string]any{"Name": "Onboarding is slow", "Speaker": "John, Acme Corp"}},
	}
	ctx := context.Background()

	res, err := fx.dispatcher.Export(ctx, fx.insightID, fx.configID)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !res.Success || !res.Skipped {
		t.Errorf("Export() = %+v, want success and skipped", res)
	}
	if res.RecordID != "rec-existing" {
		t.Errorf("RecordID = %q, want matched record id", res.RecordID)
	}
	if len(fx.provider.created) != 0 {
		t.Errorf("created %d records on duplicate, want 0", len(fx.provider.created))
	}

	cfg, err := fx.store.GetExportConfig(ctx, fx.configID)
	if err != nil {
		t.Fatalf("GetExportConfig: %v", err)
	}
	if cfg.TotalExported != 0 {
		t.Errorf("TotalExported = %d after skip, want 0", cfg.TotalExported)
	}
}

func TestExportProceedsWhenFetchFails(t *testing.T) {
	fx := newFixture(t, `{"isDuplicate": true}`, true)
	fx.provider.fetchErr = errors.New("destination unavailable")

	res, err := fx.dispatcher.Export(context.Background(), fx.insightID, fx.configID)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !res.Success || res.Skipped {
		t.Errorf("Export() = %+v, want plain success despite fetch failure", res)
	}
	if len(fx.provider.created) != 1 {
		t.Errorf("created %d records, want 1", len(fx.provider.created))
	}
}

func TestExportFailsOpenOnJudgmentError(t *testing.T) {
	fx := newFixture(t, "", true)
	fx.provider.records = []Record{{ID: "r1", Fields: map[string]any{"Name": "x"}}}

	failing := llm.NewMockClient("").WithCompleteFunc(func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return nil, errors.New("model unavailable")
	})
	fx.dispatcher.judge = NewJudge(failing, "claude-sonnet-4-20250514", nil)

	res, err := fx.dispatcher.Export(context.Background(), fx.insightID, fx.configID)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !res.Success || res.Skipped {
		t.Errorf("Export() = %+v, want export to proceed when judgment fails", res)
	}
}

func TestExportDisabledConfig(t *testing.T) {
	fx := newFixture(t, `{"isDuplicate": false}`, false)

	_, err := fx.dispatcher.Export(context.Background(), fx.insightID, fx.configID)
	if !errors.Is(err, ErrConfigDisabled) {
		t.Errorf("Export() error = %v, want ErrConfigDisabled", err)
	}
}

func TestExportUnknownInsight(t *testing.T) {
	fx := newFixture(t, `{"isDuplicate": false}`, true)

	_, err := fx.dispatcher.Export(context.Background(), "missing", fx.configID)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Export() error = %v, want store.ErrNotFound", err)
	}
}

func TestExportCreateFailureMarksInsight(t *testing.T) {
	fx := newFixture(t, `{"isDuplicate": false}`, true)
	fx.provider.createErr = errors.New("rate limited")
	ctx := context.Background()

	_, err := fx.dispatcher.Export(ctx, fx.insightID, fx.configID)
	if err == nil {
		t.Fatal("Export() succeeded, want provider error")
	}

	ins, err := fx.store.GetInsight(ctx, fx.insightID)
	if err != nil {
		t.Fatalf("GetInsight: %v", err)
	}
	if ins.Status != insight.StatusExportFailed {
		t.Errorf("insight status = %s, want export_failed", ins.Status)
	}
}

func TestNotImplementedProvider(t *testing.T) {
	fx := newFixture(t, `{"isDuplicate": false}`, true)
	ctx := context.Background()

	box, _ := secrets.NewBox("test-encryption-key")
	encKey, _ := box.Encrypt("notion-key")
	configID, err := fx.store.CreateExportConfig(ctx, store.ExportConfig{
		UserID:          "u1",
		Provider:        ProviderNotion,
		APIKeyEncrypted: encKey,
		Enabled:         true,
	})
	if err != nil {
		t.Fatalf("create config: %v", err)
	}

	_, err = fx.dispatcher.Export(ctx, fx.insightID, configID)
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("Export() error = %v, want ErrNotImplemented", err)
	}
}
