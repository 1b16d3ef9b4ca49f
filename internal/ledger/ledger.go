// Package ledger holds the persisted per-identity counter rows used for
// abuse-rate accounting. Every mutation runs as an atomic read-modify-write
// under a pessimistic per-identity lock so concurrent requests for the same
// identity serialize strictly.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/simlar/simlar-server-sub000/internal/identity"
)

// ErrNoEntry occurs when a read-only lookup finds no row for the identity.
var ErrNoEntry = errors.New("no ledger entry")

// AccountEntry is one row per identity attempting account creation. The
// identity is immutable once the row exists; rows are never deleted here.
type AccountEntry struct {
	SimlarID                  identity.SimlarID
	Password                  string
	RegistrationCode          string
	RequestTries              int
	ConfirmTries              int
	Calls                     int
	Timestamp                 time.Time
	RegistrationCodeTimestamp time.Time
	CallTimestamp             time.Time
	IP                        string
}

// ContactEntry is one row per identity requesting contact status. Count is the
// accumulated request weight, Hash the digest of the last normalized contact set.
type ContactEntry struct {
	SimlarID  identity.SimlarID
	Timestamp time.Time
	Hash      string
	Count     int64
}

// AccountUpdateFunc receives the current row (nil if absent) and returns the
// row to persist. Returning an error aborts the transaction; nothing commits.
type AccountUpdateFunc func(entry *AccountEntry) (*AccountEntry, error)

// ContactUpdateFunc is the contact-row counterpart of AccountUpdateFunc.
type ContactUpdateFunc func(entry *ContactEntry) (*ContactEntry, error)

// AccountRepository persists account-creation counter rows.
//
// Update acquires a pessimistic write lock on the identity's row for the
// duration of the call, applies fn and persists its result atomically. The
// Sum* methods aggregate RequestTries over a sliding window anchored at now;
// they take no locks and the caller decides whether to reject.
type AccountRepository interface {
	Update(ctx context.Context, id identity.SimlarID, fn AccountUpdateFunc) (*AccountEntry, error)
	Find(ctx context.Context, id identity.SimlarID) (*AccountEntry, error)
	SumRequestTries(ctx context.Context, since time.Time) (int, error)
	SumRequestTriesForIP(ctx context.Context, ip string, since time.Time) (int, error)
	SumRequestTriesForRegion(ctx context.Context, prefix string, since time.Time) (int, error)
}

// ContactRepository persists contact-sync accumulator rows with the same
// locking contract as AccountRepository.
type ContactRepository interface {
	Update(ctx context.Context, id identity.SimlarID, fn ContactUpdateFunc) (*ContactEntry, error)
	Find(ctx context.Context, id identity.SimlarID) (*ContactEntry, error)
}
