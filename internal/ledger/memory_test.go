package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/simlar/simlar-server-sub000/internal/identity"
)

func TestAccountUpdateCreatesAndMutates(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()
	id := identity.SimlarID("*4915112345678*")

	entry, err := repo.Update(ctx, id, func(entry *AccountEntry) (*AccountEntry, error) {
		if entry != nil {
			t.Fatal("expected no existing entry")
		}
		return &AccountEntry{RequestTries: 1, Timestamp: time.Now(), IP: "10.0.0.1"}, nil
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if entry.SimlarID != id || entry.RequestTries != 1 {
		t.Fatalf("unexpected entry %+v", entry)
	}

	entry, err = repo.Update(ctx, id, func(entry *AccountEntry) (*AccountEntry, error) {
		entry.RequestTries++
		return entry, nil
	})
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if entry.RequestTries != 2 {
		t.Fatalf("expected 2 tries, got %d", entry.RequestTries)
	}
}

func TestAccountUpdateErrorDoesNotPersist(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()
	id := identity.SimlarID("*4915112345678*")

	boom := errors.New("boom")
	if _, err := repo.Update(ctx, id, func(*AccountEntry) (*AccountEntry, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, err := repo.Find(ctx, id); !errors.Is(err, ErrNoEntry) {
		t.Fatalf("expected ErrNoEntry, got %v", err)
	}
}

func TestAccountUpdateSerializesPerIdentity(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()
	id := identity.SimlarID("*4915112345678*")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, id, func(entry *AccountEntry) (*AccountEntry, error) {
				if entry == nil {
					return &AccountEntry{RequestTries: 1, Timestamp: time.Now()}, nil
				}
				entry.RequestTries++
				return entry, nil
			})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	entry, err := repo.Find(ctx, id)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if entry.RequestTries != 50 {
		t.Fatalf("expected 50 tries after concurrent updates, got %d", entry.RequestTries)
	}
}

func TestSumRequestTries(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()
	now := time.Now()

	seed := []AccountEntry{
		{SimlarID: "*4915112345678*", RequestTries: 3, Timestamp: now, IP: "10.0.0.1"},
		{SimlarID: "*4915187654321*", RequestTries: 2, Timestamp: now, IP: "10.0.0.2"},
		{SimlarID: "*14155552671*", RequestTries: 4, Timestamp: now, IP: "10.0.0.1"},
		{SimlarID: "*4915100000000*", RequestTries: 7, Timestamp: now.Add(-2 * time.Hour), IP: "10.0.0.1"},
	}
	for _, e := range seed {
		e := e
		if _, err := repo.Update(ctx, e.SimlarID, func(*AccountEntry) (*AccountEntry, error) {
			return &e, nil
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	since := now.Add(-time.Hour)

	total, err := repo.SumRequestTries(ctx, since)
	if err != nil || total != 9 {
		t.Fatalf("SumRequestTries = %d, %v; want 9", total, err)
	}

	byIP, err := repo.SumRequestTriesForIP(ctx, "10.0.0.1", since)
	if err != nil || byIP != 7 {
		t.Fatalf("SumRequestTriesForIP = %d, %v; want 7", byIP, err)
	}

	byRegion, err := repo.SumRequestTriesForRegion(ctx, "49", since)
	if err != nil || byRegion != 5 {
		t.Fatalf("SumRequestTriesForRegion = %d, %v; want 5", byRegion, err)
	}
}

func TestContactUpdateRoundTrip(t *testing.T) {
	repo := NewMemoryContactRepository()
	ctx := context.Background()
	id := identity.SimlarID("*4915112345678*")

	if _, err := repo.Find(ctx, id); !errors.Is(err, ErrNoEntry) {
		t.Fatalf("expected ErrNoEntry, got %v", err)
	}

	now := time.Now()
	entry, err := repo.Update(ctx, id, func(entry *ContactEntry) (*ContactEntry, error) {
		if entry != nil {
			t.Fatal("expected no existing entry")
		}
		return &ContactEntry{Timestamp: now, Hash: "abc", Count: 100}, nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if entry.Count != 100 || entry.Hash != "abc" {
		t.Fatalf("unexpected entry %+v", entry)
	}

	found, err := repo.Find(ctx, id)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Count != 100 || found.SimlarID != id {
		t.Fatalf("unexpected found entry %+v", found)
	}
}
