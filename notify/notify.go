// Package notify delivers short text alerts to staff: an SMS per new intake
// and a scheduled digest of outstanding work.
package notify

import (
	"context"
	"log/slog"
)

// Notifier sends a short text message to staff.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, text string) error

func (f NotifierFunc) Notify(ctx context.Context, text string) error {
	return f(ctx, text)
}

// LogNotifier writes notifications to the log. It is used when no SMS
// provider is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, text string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "staff notification", "text", text)
	return nil
}

// Send delivers text through n. Failures are logged, not returned.
func Send(ctx context.Context, n Notifier, text string) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, text); err != nil {
		slog.ErrorContext(ctx, "staff notification failed", "error", err)
	}
}
