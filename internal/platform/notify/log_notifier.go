// Package notify provides notification delivery implementations. Actual
// email/in-app delivery is an external collaborator; the implementations
// here satisfy the schedule.Notifier contract for deployments without a
// delivery backend.
package notify

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNilLogger is returned when a LogNotifier is constructed without a logger.
var ErrNilLogger = errors.New("logger cannot be nil")

// LogNotifier records notifications as structured log entries. It never
// fails delivery, which makes it a safe default wherever notification
// failure must stay non-fatal.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier writing through the given logger.
func NewLogNotifier(logger *slog.Logger) (*LogNotifier, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}
	return &LogNotifier{logger: logger.With("component", "log_notifier")}, nil
}

// Notify logs the notification at info level.
func (n *LogNotifier) Notify(ctx context.Context, userID, message string) error {
	n.logger.InfoContext(ctx, "notification",
		"user_id", userID,
		"message", message)
	return nil
}
