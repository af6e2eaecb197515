// Package notify delivers pipeline notifications to the chat platform.
//
// The pipeline treats delivery as fire-and-forget: implementations return
// errors, callers log them at warn level and continue. A notification
// failure is never fatal to a processing run.
package notify

import "context"

// Notifier sends user-facing notices and refreshes cached chat-platform UI.
type Notifier interface {
	// PostMessage sends text to a recipient (user or channel id).
	PostMessage(ctx context.Context, recipient, text string) error

	// RefreshHomeView re-renders the cached home view for a user after a
	// state change.
	RefreshHomeView(ctx context.Context, userID string) error
}
