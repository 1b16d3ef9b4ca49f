package sms

import (
	"context"
	"testing"
	"time"

	"github.com/simlar/simlar-server-sub000/internal/logging"
)

func TestThrottledGatewayPacesSends(t *testing.T) {
	gw := NewThrottled(NewLoggerGateway(logging.Discard()), 10, 1)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := gw.SendSMS(ctx, "+4915112345678", "code"); err != nil {
			t.Fatalf("send %d: %v", i+1, err)
		}
	}
	// Burst of 1 at 10/s means roughly 100ms per additional send.
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Fatalf("three sends finished in %s, expected pacing", elapsed)
	}
}

func TestThrottledGatewayRespectsContext(t *testing.T) {
	gw := NewThrottled(NewLoggerGateway(logging.Discard()), 0.001, 1)
	ctx := context.Background()

	if err := gw.SendSMS(ctx, "+4915112345678", "first"); err != nil {
		t.Fatalf("first send: %v", err)
	}

	cancelled, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := gw.Call(cancelled, "+4915112345678", "second"); err == nil {
		t.Fatal("expected context error while throttled")
	}
}

func TestZeroRateDisablesThrottle(t *testing.T) {
	gw := NewThrottled(NewLoggerGateway(logging.Discard()), 0, 0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 10; i++ {
		if err := gw.SendSMS(ctx, "+4915112345678", "code"); err != nil {
			t.Fatalf("send %d: %v", i+1, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("unthrottled sends took %s", elapsed)
	}
}
