// Package insight defines the insight domain model: typed claims extracted
// from meeting transcripts, their dedup identity, and export bookkeeping.
package insight

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Type categorizes an insight by what kind of claim it makes.
type Type string

// Insight types, grouped by extraction pass.
const (
	TypePain        Type = "pain"
	TypeBlocker     Type = "blocker"
	TypeOpportunity Type = "opportunity"

	TypeFeatureRequest Type = "feature_request"
	TypeIdea           Type = "idea"
	TypeOutcome        Type = "outcome"

	TypeQuestion  Type = "question"
	TypeFeedback  Type = "feedback"
	TypeConfusion Type = "confusion"

	TypeGain         Type = "gain"
	TypeBuyingSignal Type = "buying_signal"
	TypeObjection    Type = "objection"
	TypeInsight      Type = "insight"
)

// AllTypes lists every known insight type in pass order.
var AllTypes = []Type{
	TypePain, TypeBlocker, TypeOpportunity,
	TypeFeatureRequest, TypeIdea, TypeOutcome,
	TypeQuestion, TypeFeedback, TypeConfusion,
	TypeGain, TypeBuyingSignal, TypeObjection, TypeInsight,
}

// Valid reports whether t is a known insight type.
func (t Type) Valid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Status represents the export lifecycle of a persisted insight.
type Status string

// Insight statuses.
const (
	StatusNew          Status = "new"
	StatusExported     Status = "exported"
	StatusExportFailed Status = "export_failed"
	StatusArchived     Status = "archived"
)

// RawInsight is the unrefined output of one extraction pass. It is never
// persisted; the refiner rewrites it into an Insight.
type RawInsight struct {
	Type       Type    `json:"type"`
	RawContent string  `json:"raw_content"`
	Evidence   string  `json:"evidence"`
	Speaker    string  `json:"speaker"`
	Timestamp  string  `json:"timestamp"`
	Context    string  `json:"context,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Refined is a polished insight as produced by the writing pass: a short
// action-oriented title plus a 2-3 sentence description, with the original
// extraction fields carried through unchanged.
type Refined struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Type        Type    `json:"type"`
	Evidence    string  `json:"evidence"`
	Speaker     string  `json:"speaker"`
	Timestamp   string  `json:"timestamp"`
	Confidence  float64 `json:"confidence"`
}

// FromRaw converts an unrefined insight into a Refined without rewriting it.
// Used as the degradation path when the writing pass cannot be parsed: the
// raw content stands in for both title and description.
func FromRaw(raw RawInsight) Refined {
	return Refined{
		Title:       raw.RawContent,
		Description: raw.RawContent,
		Type:        raw.Type,
		Evidence:    raw.Evidence,
		Speaker:     raw.Speaker,
		Timestamp:   raw.Timestamp,
		Confidence:  raw.Confidence,
	}
}

// EvidenceQuote is one supporting quote attached to a persisted insight.
type EvidenceQuote struct {
	Quote     string `json:"quote"`
	Speaker   string `json:"speaker"`
	Timestamp string `json:"timestamp"`
}

// Destination records a completed export of an insight to one provider.
type Destination struct {
	ConfigID   string    `json:"configId"`
	RecordID   string    `json:"recordId"`
	ExportedAt time.Time `json:"exportedAt"`
}

// Insight is a persisted, typed claim extracted from a transcript.
type Insight struct {
	ID             string                 `json:"id"`
	TranscriptID   string                 `json:"transcript_id"`
	Type           Type                   `json:"type"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Author         string                 `json:"author"`
	Speaker        string                 `json:"speaker"`
	EvidenceText   string                 `json:"evidence_text"`
	EvidenceQuotes []EvidenceQuote        `json:"evidence_quotes"`
	Confidence     float64                `json:"confidence"`
	TimestampStart string                 `json:"timestamp_start"`
	ContentHash    string                 `json:"content_hash"`
	Status         Status                 `json:"status"`
	Exported       bool                   `json:"exported"`
	Destinations   map[string]Destination `json:"export_destinations,omitempty"`
	Archived       bool                   `json:"archived"`
	CreatedAt      time.Time              `json:"created_at"`
}

// ContentHash computes the dedup identity of an insight: the hex SHA-256
// digest of its title concatenated with its description.
func ContentHash(title, description string) string {
	sum := sha256.Sum256([]byte(title + description))
	return hex.EncodeToString(sum[:])
}
