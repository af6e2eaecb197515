package meetyai

import (
	"time"

	"github.com/eugene-nechvoloda/meetyai/insight"
)

// Classification is the context classifier's verdict for a transcript.
type Classification struct {
	Context    string  `json:"context"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// PassResult holds one extraction pass's output, indexed by pass so the
// fan-out join can merge deterministically.
type PassResult struct {
	Pass     int                  `json:"pass"`
	Insights []insight.RawInsight `json:"insights,omitempty"`
	Skipped  bool                 `json:"skipped,omitempty"`
}

// RunState is the pipeline state threaded through the flowgraph nodes.
type RunState struct {
	// Identification
	TranscriptID string `json:"transcriptId"`
	UserID       string `json:"userId"`

	// Input
	Title string `json:"title"`
	Text  string `json:"text"`

	// Per-user prompt material
	CustomContext   string `json:"customContext,omitempty"`
	InsightExamples string `json:"insightExamples,omitempty"`

	// Stage outputs
	Classification *Classification      `json:"classification,omitempty"`
	Passes         []PassResult         `json:"passes,omitempty"`
	Raw            []insight.RawInsight `json:"raw,omitempty"`
	Refined        []insight.Refined    `json:"refined,omitempty"`
	RefineFellBack bool                 `json:"refineFellBack,omitempty"`
	Deduplicated   []insight.Refined    `json:"deduplicated,omitempty"`
	InsightIDs     []string             `json:"insightIds,omitempty"`

	StartTime time.Time `json:"startTime"`
}

// NewRunState creates the initial state for one transcript run.
func NewRunState(transcriptID, userID, title, text string) RunState {
	return RunState{
		TranscriptID: transcriptID,
		UserID:       userID,
		Title:        title,
		Text:         text,
		StartTime:    time.Now(),
	}
}

// WithSettings attaches the per-user prompt material.
func (s RunState) WithSettings(customContext, insightExamples string) RunState {
	s.CustomContext = customContext
	s.InsightExamples = insightExamples
	return s
}
