package meetyai

import "testing"

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{
		StatusUploaded, StatusAnalyzingPass1, StatusAnalyzingPass2,
		StatusAnalyzingPass3, StatusAnalyzingPass4, StatusCompilingInsights,
		StatusCompleted, StatusFailed,
	} {
		if !s.Valid() {
			t.Errorf("%s.Valid() = false", s)
		}
	}
	if Status("Analyzing Pass 1").Valid() {
		t.Error("display label accepted as status")
	}
	if Status("").Valid() {
		t.Error("empty status accepted")
	}
}

func TestStatusTerminal(t *testing.T) {
	if !StatusCompleted.Terminal() || !StatusFailed.Terminal() {
		t.Error("completed and failed should be terminal")
	}
	if StatusCompilingInsights.Terminal() {
		t.Error("compiling_insights should not be terminal")
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusUploaded, "Uploaded"},
		{StatusAnalyzingPass2, "Analyzing Pass 2"},
		{StatusCompilingInsights, "Compiling Insights"},
		{StatusFailed, "Failed"},
	}
	for _, tt := range tests {
		if got := tt.status.Label(); got != tt.want {
			t.Errorf("%s.Label() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestPassStatusesOrder(t *testing.T) {
	want := []Status{
		StatusAnalyzingPass1, StatusAnalyzingPass2,
		StatusAnalyzingPass3, StatusAnalyzingPass4,
	}
	if len(PassStatuses) != len(want) {
		t.Fatalf("PassStatuses has %d entries, want %d", len(PassStatuses), len(want))
	}
	for i, s := range want {
		if PassStatuses[i] != s {
			t.Errorf("PassStatuses[%d] = %s, want %s", i, PassStatuses[i], s)
		}
	}
	if len(PassStatuses) != len(PassTypes) {
		t.Errorf("PassStatuses (%d) and PassTypes (%d) disagree", len(PassStatuses), len(PassTypes))
	}
}
