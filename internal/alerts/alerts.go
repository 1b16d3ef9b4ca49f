// Package alerts notifies operators of rate-cap threshold crossings. Alerts
// are side effects, never errors; a failed delivery must not fail a request.
package alerts

import (
	"context"
	"log/slog"
)

const (
	// KindRequestLimitWarning marks an hourly or daily cap reaching 50%.
	KindRequestLimitWarning = "request_limit_warning"
	// KindRequestLimitReached marks an hourly or daily cap hit in full.
	KindRequestLimitReached = "request_limit_reached"
)

// Alert describes a threshold-crossing notification.
type Alert struct {
	Kind string
	Body string
}

// Notifier delivers alerts to the configured recipients.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// LoggerNotifier writes alerts to the structured logger together with the
// configured recipient list.
type LoggerNotifier struct {
	logger     *slog.Logger
	recipients []string
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger, recipients []string) *LoggerNotifier {
	return &LoggerNotifier{logger: logger, recipients: recipients}
}

// Notify writes the alert to the structured logger.
func (n *LoggerNotifier) Notify(_ context.Context, alert Alert) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Warn("alert", "kind", alert.Kind, "body", alert.Body, "recipients", n.recipients)
	return nil
}
