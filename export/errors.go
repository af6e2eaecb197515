package export

import "errors"

// Sentinel errors for export dispatch.
var (
	// ErrConfigDisabled indicates the export configuration exists but is
	// switched off.
	ErrConfigDisabled = errors.New("export configuration is disabled")

	// ErrNotImplemented indicates the provider has no adapter yet.
	ErrNotImplemented = errors.New("provider not yet implemented")

	// ErrUnknownProvider indicates the provider name is not registered.
	ErrUnknownProvider = errors.New("unknown export provider")
)
