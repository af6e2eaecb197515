// Package export sends insights to third-party destinations through
// pluggable provider adapters, with a model-driven duplicate judgment
// against records already present at the destination.
package export

import "context"

// Provider names as stored on ExportConfig.Provider.
const (
	ProviderAirtable     = "airtable"
	ProviderLinear       = "linear"
	ProviderGitHub       = "github"
	ProviderGitLab       = "gitlab"
	ProviderGoogleSheets = "google_sheets"
	ProviderNotion       = "notion"
	ProviderJira         = "jira"
)

// Credentials is decrypted credential material for one export call.
// It is never cached beyond the call that decrypted it.
type Credentials struct {
	APIKey    string
	APISecret string
}

// Field describes a destination field available for mapping.
type Field struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Record is an existing destination record, used as duplicate-judgment
// context.
type Record struct {
	ID     string
	Fields map[string]any
}

// Result is the structured outcome of one export attempt. Failures are
// carried in the dispatcher's error return; Result reports the success
// shape, including the duplicate-skip case where no record is created.
type Result struct {
	Success     bool
	Skipped     bool
	RecordID    string
	Explanation string
}

// Provider is the capability set a destination adapter implements.
type Provider interface {
	// TestConnection verifies the credential and destination identifiers.
	TestConnection(ctx context.Context) error

	// FetchFields lists the destination's fields for mapping setup.
	// Providers with a fixed schema return ErrNotImplemented.
	FetchFields(ctx context.Context) ([]Field, error)

	// FetchExistingRecords returns recent destination records for
	// duplicate judgment. Callers treat failure as non-fatal.
	FetchExistingRecords(ctx context.Context) ([]Record, error)

	// CreateRecord writes the mapped payload and returns the new
	// record's destination id.
	CreateRecord(ctx context.Context, fields map[string]any) (string, error)
}
