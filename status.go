package meetyai

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status is the transcript's pipeline stage. It is a state machine
// internal identifier; use Label for anything user-facing.
type Status string

// Pipeline stages in run order. StatusFailed is reachable from any stage.
const (
	StatusUploaded          Status = "uploaded"
	StatusAnalyzingPass1    Status = "analyzing_pass_1"
	StatusAnalyzingPass2    Status = "analyzing_pass_2"
	StatusAnalyzingPass3    Status = "analyzing_pass_3"
	StatusAnalyzingPass4    Status = "analyzing_pass_4"
	StatusCompilingInsights Status = "compiling_insights"
	StatusCompleted         Status = "completed"
	StatusFailed            Status = "failed"
)

// PassStatuses lists the four extraction-pass stages in pass order.
var PassStatuses = []Status{
	StatusAnalyzingPass1,
	StatusAnalyzingPass2,
	StatusAnalyzingPass3,
	StatusAnalyzingPass4,
}

// Valid reports whether s is a known pipeline stage.
func (s Status) Valid() bool {
	switch s {
	case StatusUploaded, StatusAnalyzingPass1, StatusAnalyzingPass2,
		StatusAnalyzingPass3, StatusAnalyzingPass4, StatusCompilingInsights,
		StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the pipeline is done with this transcript.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

var labelCaser = cases.Title(language.English)

// Label renders the stage for display, e.g. "Analyzing Pass 2". Display
// text is derived, never stored, so presentation changes cannot break the
// state machine.
func (s Status) Label() string {
	return labelCaser.String(strings.ReplaceAll(string(s), "_", " "))
}
