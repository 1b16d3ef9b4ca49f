package sms

import (
	"context"

	"golang.org/x/time/rate"
)

// ThrottledGateway paces outbound sends with a token bucket so traffic that
// passes the ledger caps still cannot flood the upstream provider.
type ThrottledGateway struct {
	next    Gateway
	limiter *rate.Limiter
}

// NewThrottled wraps a gateway with a token-bucket limiter. A rate of zero or
// less disables the throttle.
func NewThrottled(next Gateway, perSecond float64, burst int) *ThrottledGateway {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
		burst = 0
	}
	return &ThrottledGateway{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// SendSMS waits for a token, then delegates.
func (g *ThrottledGateway) SendSMS(ctx context.Context, telephoneNumber, text string) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	return g.next.SendSMS(ctx, telephoneNumber, text)
}

// Call waits for a token, then delegates.
func (g *ThrottledGateway) Call(ctx context.Context, telephoneNumber, spokenText string) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	return g.next.Call(ctx, telephoneNumber, spokenText)
}
