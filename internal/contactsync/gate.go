package contactsync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/simlar/simlar-server-sub000/internal/identity"
)

const (
	// delayCeiling is the hard limit above which the caller is rejected
	// immediately instead of being made to wait.
	delayCeiling = 8 * time.Second

	// delayFloor avoids a busy immediate-reschedule path for zero delays.
	delayFloor = 10 * time.Millisecond
)

// ErrTooManyContactsRequested occurs when the computed delay exceeds the gate
// ceiling; the requester is treated as blocked.
var ErrTooManyContactsRequested = errors.New("too many contacts requested")

// ContactStatus is the presence answer for a single contact.
type ContactStatus struct {
	SimlarID   identity.SimlarID
	Registered bool
}

// LookupFunc performs the actual contact-status lookup once the gate opens.
type LookupFunc func(ctx context.Context) ([]ContactStatus, error)

// Gate schedules contact-status responses after their computed delay.
type Gate struct {
	logger *slog.Logger
}

// NewGate constructs a deferred execution gate.
func NewGate(logger *slog.Logger) *Gate {
	return &Gate{logger: logger}
}

// Schedule runs lookup after max(delayFloor, delaySeconds). Delays beyond the
// ceiling are rejected immediately. The returned completion fires exactly
// once; a second fire is logged, never fatal.
func (g *Gate) Schedule(ctx context.Context, delaySeconds int64, lookup LookupFunc) (*Completion, error) {
	if delaySeconds > int64(delayCeiling/time.Second) {
		return nil, ErrTooManyContactsRequested
	}

	delay := time.Duration(delaySeconds) * time.Second
	if delay < delayFloor {
		delay = delayFloor
	}

	completion := newCompletion(g.logger)
	time.AfterFunc(delay, func() {
		statuses, err := lookup(ctx)
		completion.complete(statuses, err)
	})
	return completion, nil
}

// Completion is a single-fire handle delivering one scheduled result.
type Completion struct {
	logger *slog.Logger

	mu    sync.Mutex
	fired bool

	done     chan struct{}
	statuses []ContactStatus
	err      error
}

func newCompletion(logger *slog.Logger) *Completion {
	return &Completion{logger: logger, done: make(chan struct{})}
}

// Wait blocks until the completion fires or ctx expires. An expired wait
// completes the handle with the context error so a late fire is a recorded
// no-op instead of a lost result.
func (c *Completion) Wait(ctx context.Context) ([]ContactStatus, error) {
	select {
	case <-c.done:
		return c.statuses, c.err
	case <-ctx.Done():
		c.complete(nil, ctx.Err())
		// The timer may have won the race; return whatever is recorded.
		<-c.done
		return c.statuses, c.err
	}
}

func (c *Completion) complete(statuses []ContactStatus, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fired {
		if c.logger != nil {
			c.logger.Warn("completion fired more than once", "error", err)
		}
		return
	}
	c.fired = true
	c.statuses = statuses
	c.err = err
	close(c.done)
}
