package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/simlar/simlar-server-sub000/internal/identity"
)

// memoryAccountRepository keeps account rows in a map guarded by per-identity
// mutexes, mirroring the row-lock semantics of the Postgres backend. Used for
// tests and for running without a database.
type memoryAccountRepository struct {
	mu    sync.Mutex
	rows  map[identity.SimlarID]AccountEntry
	locks map[identity.SimlarID]*sync.Mutex
}

// NewMemoryAccountRepository builds an in-memory account repository.
func NewMemoryAccountRepository() AccountRepository {
	return &memoryAccountRepository{
		rows:  make(map[identity.SimlarID]AccountEntry),
		locks: make(map[identity.SimlarID]*sync.Mutex),
	}
}

func (r *memoryAccountRepository) rowLock(id identity.SimlarID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	return lock
}

func (r *memoryAccountRepository) Update(_ context.Context, id identity.SimlarID, fn AccountUpdateFunc) (*AccountEntry, error) {
	lock := r.rowLock(id)
	lock.Lock()
	defer lock.Unlock()

	var current *AccountEntry
	r.mu.Lock()
	if row, ok := r.rows[id]; ok {
		copied := row
		current = &copied
	}
	r.mu.Unlock()

	updated, err := fn(current)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("account update for %s returned no entry", id)
	}
	updated.SimlarID = id

	r.mu.Lock()
	r.rows[id] = *updated
	r.mu.Unlock()

	result := *updated
	return &result, nil
}

func (r *memoryAccountRepository) Find(_ context.Context, id identity.SimlarID) (*AccountEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, ErrNoEntry
	}
	copied := row
	return &copied, nil
}

func (r *memoryAccountRepository) SumRequestTries(_ context.Context, since time.Time) (int, error) {
	return r.sum(func(AccountEntry) bool { return true }, since), nil
}

func (r *memoryAccountRepository) SumRequestTriesForIP(_ context.Context, ip string, since time.Time) (int, error) {
	return r.sum(func(e AccountEntry) bool { return e.IP == ip }, since), nil
}

func (r *memoryAccountRepository) SumRequestTriesForRegion(_ context.Context, prefix string, since time.Time) (int, error) {
	return r.sum(func(e AccountEntry) bool { return e.SimlarID.HasRegionPrefix(prefix) }, since), nil
}

func (r *memoryAccountRepository) sum(match func(AccountEntry) bool, since time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, row := range r.rows {
		if !row.Timestamp.Before(since) && match(row) {
			total += row.RequestTries
		}
	}
	return total
}

type memoryContactRepository struct {
	mu    sync.Mutex
	rows  map[identity.SimlarID]ContactEntry
	locks map[identity.SimlarID]*sync.Mutex
}

// NewMemoryContactRepository builds an in-memory contact repository.
func NewMemoryContactRepository() ContactRepository {
	return &memoryContactRepository{
		rows:  make(map[identity.SimlarID]ContactEntry),
		locks: make(map[identity.SimlarID]*sync.Mutex),
	}
}

func (r *memoryContactRepository) rowLock(id identity.SimlarID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	return lock
}

func (r *memoryContactRepository) Update(_ context.Context, id identity.SimlarID, fn ContactUpdateFunc) (*ContactEntry, error) {
	lock := r.rowLock(id)
	lock.Lock()
	defer lock.Unlock()

	var current *ContactEntry
	r.mu.Lock()
	if row, ok := r.rows[id]; ok {
		copied := row
		current = &copied
	}
	r.mu.Unlock()

	updated, err := fn(current)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("contact update for %s returned no entry", id)
	}
	updated.SimlarID = id

	r.mu.Lock()
	r.rows[id] = *updated
	r.mu.Unlock()

	result := *updated
	return &result, nil
}

func (r *memoryContactRepository) Find(_ context.Context, id identity.SimlarID) (*ContactEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, ErrNoEntry
	}
	copied := row
	return &copied, nil
}
