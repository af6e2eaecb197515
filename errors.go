package meetyai

import "errors"

// Pipeline sentinel errors.
var (
	// ErrRunInProgress indicates another pipeline run holds the lease on
	// this transcript. The caller retries after the running analysis
	// finishes; concurrent runs against one transcript are never allowed.
	ErrRunInProgress = errors.New("a run is already in progress for this transcript")

	// ErrEmptyTranscript indicates the transcript has no text to analyze.
	ErrEmptyTranscript = errors.New("transcript has no text")
)

// IsRunInProgress reports whether err is a rejected concurrent run.
func IsRunInProgress(err error) bool {
	return errors.Is(err, ErrRunInProgress)
}
