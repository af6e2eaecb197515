package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eugene-nechvoloda/meetyai/insight"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTranscript_CreateGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateTranscript(ctx, Transcript{
		UserID: "U123",
		Title:  "Acme discovery call",
		Origin: OriginPaste,
		Text:   "John from Acme said onboarding took 3 days, too slow",
	})
	if err != nil {
		t.Fatalf("CreateTranscript: %v", err)
	}

	got, err := s.GetTranscript(ctx, id)
	if err != nil {
		t.Fatalf("GetTranscript: %v", err)
	}
	if got.Status != "uploaded" {
		t.Errorf("status = %q, want uploaded", got.Status)
	}
	if got.Origin != OriginPaste || got.Title != "Acme discovery call" {
		t.Errorf("unexpected transcript: %+v", got)
	}
	if got.ProcessedAt != nil {
		t.Error("processed_at should start unset")
	}
}

func TestTranscript_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetTranscript(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := s.UpdateStatus(context.Background(), "missing", "failed"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateStatus err = %v, want ErrNotFound", err)
	}
}

func TestTranscript_StatusAndActivities(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _ := s.CreateTranscript(ctx, Transcript{UserID: "U1", Title: "t"})

	stages := []string{"analyzing_pass_1", "analyzing_pass_2", "compiling_insights", "completed"}
	for _, stage := range stages {
		if err := s.UpdateStatus(ctx, id, stage); err != nil {
			t.Fatalf("UpdateStatus(%s): %v", stage, err)
		}
	}

	got, _ := s.GetTranscript(ctx, id)
	if got.Status != "completed" {
		t.Errorf("status = %q, want completed", got.Status)
	}

	acts, err := s.Activities(ctx, id)
	if err != nil {
		t.Fatalf("Activities: %v", err)
	}
	if len(acts) != len(stages) {
		t.Fatalf("len(activities) = %d, want %d", len(acts), len(stages))
	}
	for i, stage := range stages {
		if acts[i].ActivityType != ActivityStatusChange {
			t.Errorf("activity %d type = %q", i, acts[i].ActivityType)
		}
		want := "Status updated to: " + stage
		if acts[i].Message != want {
			t.Errorf("activity %d message = %q, want %q", i, acts[i].Message, want)
		}
	}
}

func TestTranscript_ContextAndProcessed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _ := s.CreateTranscript(ctx, Transcript{UserID: "U1", Title: "t"})

	if err := s.SetContext(ctx, id, "research_call", 0.92); err != nil {
		t.Fatalf("SetContext: %v", err)
	}
	now := time.Now()
	if err := s.MarkProcessed(ctx, id, now); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	got, _ := s.GetTranscript(ctx, id)
	if got.ContextTheme != "research_call" || got.ContextConfidence != 0.92 {
		t.Errorf("context = %q/%v", got.ContextTheme, got.ContextConfidence)
	}
	if got.ProcessedAt == nil {
		t.Fatal("processed_at not set")
	}
}

func TestInsight_CreateGetArchive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tid, _ := s.CreateTranscript(ctx, Transcript{UserID: "U1", Title: "t"})

	id, err := s.CreateInsight(ctx, insight.Insight{
		TranscriptID: tid,
		Type:         insight.TypePain,
		Title:        "Onboarding takes 3 days for Acme",
		Description:  "Acme reports onboarding is too slow.",
		Speaker:      "John (Acme)",
		EvidenceText: "onboarding took 3 days, too slow",
		EvidenceQuotes: []insight.EvidenceQuote{
			{Quote: "onboarding took 3 days, too slow", Speaker: "John (Acme)"},
		},
		Confidence:  0.85,
		ContentHash: insight.ContentHash("Onboarding takes 3 days for Acme", "Acme reports onboarding is too slow."),
	})
	if err != nil {
		t.Fatalf("CreateInsight: %v", err)
	}

	got, err := s.GetInsight(ctx, id)
	if err != nil {
		t.Fatalf("GetInsight: %v", err)
	}
	if got.Status != insight.StatusNew {
		t.Errorf("status = %q, want new", got.Status)
	}
	if got.Confidence < 0 || got.Confidence > 1 {
		t.Errorf("confidence out of range: %v", got.Confidence)
	}
	if got.ContentHash == "" {
		t.Error("content hash should be non-empty")
	}
	if len(got.EvidenceQuotes) != 1 || got.EvidenceQuotes[0].Speaker != "John (Acme)" {
		t.Errorf("evidence quotes = %+v", got.EvidenceQuotes)
	}

	// Archive-on-reanalysis: unexported insights drop out of active views.
	n, err := s.ArchiveUnexportedInsights(ctx, tid)
	if err != nil {
		t.Fatalf("ArchiveUnexportedInsights: %v", err)
	}
	if n != 1 {
		t.Errorf("archived %d, want 1", n)
	}
	active, _ := s.InsightsByTranscript(ctx, tid, false)
	if len(active) != 0 {
		t.Errorf("active insights = %d, want 0", len(active))
	}
	all, _ := s.InsightsByTranscript(ctx, tid, true)
	if len(all) != 1 {
		t.Errorf("all insights = %d, want 1", len(all))
	}
}

func TestInsight_MarkExportedKeepsOtherDestinations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tid, _ := s.CreateTranscript(ctx, Transcript{UserID: "U1", Title: "t"})
	id, _ := s.CreateInsight(ctx, insight.Insight{
		TranscriptID: tid, Type: insight.TypePain,
		Title: "a", Description: "b", ContentHash: insight.ContentHash("a", "b"),
	})

	first := insight.Destination{ConfigID: "cfg1", RecordID: "rec1", ExportedAt: time.Now()}
	if err := s.MarkInsightExported(ctx, id, "airtable", first); err != nil {
		t.Fatalf("MarkInsightExported: %v", err)
	}
	second := insight.Destination{ConfigID: "cfg2", RecordID: "ISSUE-7", ExportedAt: time.Now()}
	if err := s.MarkInsightExported(ctx, id, "linear", second); err != nil {
		t.Fatalf("MarkInsightExported: %v", err)
	}

	got, _ := s.GetInsight(ctx, id)
	if !got.Exported || got.Status != insight.StatusExported {
		t.Errorf("exported = %v status = %q", got.Exported, got.Status)
	}
	if len(got.Destinations) != 2 {
		t.Fatalf("destinations = %+v, want 2 entries", got.Destinations)
	}
	if got.Destinations["airtable"].RecordID != "rec1" {
		t.Errorf("airtable destination lost: %+v", got.Destinations)
	}
	// Archiving after export must not touch exported insights.
	n, _ := s.ArchiveUnexportedInsights(ctx, tid)
	if n != 0 {
		t.Errorf("archived %d exported insights, want 0", n)
	}
}

func TestExportConfig_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateExportConfig(ctx, ExportConfig{
		UserID:          "U1",
		Provider:        "airtable",
		Label:           "Research base",
		APIKeyEncrypted: "aaaa:bbbb",
		BaseID:          "appXXX",
		TableName:       "Insights",
		FieldMapping:    map[string]string{"title": "Name", "description": "Notes"},
		Enabled:         true,
	})
	if err != nil {
		t.Fatalf("CreateExportConfig: %v", err)
	}

	got, err := s.GetExportConfig(ctx, id)
	if err != nil {
		t.Fatalf("GetExportConfig: %v", err)
	}
	if !got.Enabled {
		t.Error("config created enabled should load enabled")
	}
	if got.FieldMapping["title"] != "Name" {
		t.Errorf("field mapping = %+v", got.FieldMapping)
	}
	if got.TotalExported != 0 || got.LastExportAt != nil {
		t.Error("usage counters should start zeroed")
	}

	if err := s.RecordExport(ctx, id, time.Now()); err != nil {
		t.Fatalf("RecordExport: %v", err)
	}
	got, _ = s.GetExportConfig(ctx, id)
	if got.TotalExported != 1 || got.LastExportCount != 1 || got.LastExportAt == nil {
		t.Errorf("counters after export: %+v", got)
	}

	list, _ := s.ExportConfigsByUser(ctx, "U1")
	if len(list) != 1 {
		t.Errorf("configs for user = %d, want 1", len(list))
	}

	if err := s.DeleteExportConfig(ctx, id); err != nil {
		t.Fatalf("DeleteExportConfig: %v", err)
	}
	if _, err := s.GetExportConfig(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete err = %v, want ErrNotFound", err)
	}
}

func TestExportConfig_CreatePersistsDisabled(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateExportConfig(ctx, ExportConfig{
		UserID:          "U1",
		Provider:        "linear",
		Label:           "Paused destination",
		APIKeyEncrypted: "aaaa:bbbb",
		TeamID:          "team-1",
		Enabled:         false,
	})
	if err != nil {
		t.Fatalf("CreateExportConfig: %v", err)
	}

	got, err := s.GetExportConfig(ctx, id)
	if err != nil {
		t.Fatalf("GetExportConfig: %v", err)
	}
	if got.Enabled {
		t.Error("config created disabled loaded as enabled")
	}
}

func TestUserSettings_DefaultAndUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	us, err := s.GetUserSettings(ctx, "U9")
	if err != nil {
		t.Fatalf("GetUserSettings: %v", err)
	}
	if us.CustomContext != "" || us.InsightExamples != "" {
		t.Errorf("missing settings should be zero-valued: %+v", us)
	}

	err = s.UpsertUserSettings(ctx, UserSettings{
		UserID:        "U9",
		CustomContext: "We sell onboarding software.",
	})
	if err != nil {
		t.Fatalf("UpsertUserSettings: %v", err)
	}
	err = s.UpsertUserSettings(ctx, UserSettings{
		UserID:          "U9",
		CustomContext:   "We sell onboarding software.",
		InsightExamples: "Title: Onboarding takes too long",
	})
	if err != nil {
		t.Fatalf("UpsertUserSettings (update): %v", err)
	}

	us, _ = s.GetUserSettings(ctx, "U9")
	if us.InsightExamples == "" {
		t.Error("upsert should update existing row")
	}
}
