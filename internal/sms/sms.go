// Package sms abstracts the SMS and voice-call delivery gateway.
package sms

import (
	"context"
	"errors"
	"log/slog"
)

// ErrDeliveryRejected indicates the upstream provider refused the send.
var ErrDeliveryRejected = errors.New("gateway rejected delivery")

// Gateway delivers registration codes out-of-band. Implementations report
// failure through the returned error; the core never retries sends.
type Gateway interface {
	SendSMS(ctx context.Context, telephoneNumber, text string) error
	Call(ctx context.Context, telephoneNumber, spokenText string) error
}

// LoggerGateway is a stub gateway that writes deliveries to the logger.
// Used in development mode and as the default when no provider is configured.
type LoggerGateway struct {
	logger *slog.Logger
}

// NewLoggerGateway constructs a logging gateway stub.
func NewLoggerGateway(logger *slog.Logger) *LoggerGateway {
	return &LoggerGateway{logger: logger}
}

// SendSMS writes the message to the structured logger.
func (g *LoggerGateway) SendSMS(_ context.Context, telephoneNumber, text string) error {
	if g == nil || g.logger == nil {
		return nil
	}
	g.logger.Info("sms send", "telephone_number", telephoneNumber, "text", text)
	return nil
}

// Call writes the call request to the structured logger.
func (g *LoggerGateway) Call(_ context.Context, telephoneNumber, spokenText string) error {
	if g == nil || g.logger == nil {
		return nil
	}
	g.logger.Info("voice call", "telephone_number", telephoneNumber, "spoken_text", spokenText)
	return nil
}
