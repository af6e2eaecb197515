package notify

import (
	"context"
	"errors"
)

// MultiNotifier fans a notification out to several notifiers. Every
// notifier is attempted; errors are joined rather than short-circuiting.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that delivers to all of the given
// notifiers.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// PostMessage implements Notifier.
func (m *MultiNotifier) PostMessage(ctx context.Context, recipient, text string) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.PostMessage(ctx, recipient, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RefreshHomeView implements Notifier.
func (m *MultiNotifier) RefreshHomeView(ctx context.Context, userID string) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.RefreshHomeView(ctx, userID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
