package notify

import (
	"context"
	"log/slog"
)

// LogNotifier logs notifications using slog (for testing/debugging).
type LogNotifier struct {
	Logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs instead of sending.
// If logger is nil, uses the default slog logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{Logger: logger}
}

// PostMessage implements Notifier.
func (n *LogNotifier) PostMessage(ctx context.Context, recipient, text string) error {
	n.Logger.Info("notification", "recipient", recipient, "text", text)
	return nil
}

// RefreshHomeView implements Notifier.
func (n *LogNotifier) RefreshHomeView(ctx context.Context, userID string) error {
	n.Logger.Debug("home view refresh", "user", userID)
	return nil
}
