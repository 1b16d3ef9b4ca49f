// Package subscriber persists confirmed account credentials for the VoIP
// backend. Passwords are stored as bcrypt hashes.
package subscriber

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/simlar/simlar-server-sub000/internal/identity"
)

// Store holds hashed subscriber credentials.
type Store interface {
	Save(ctx context.Context, id identity.SimlarID, password string) error
	Exists(ctx context.Context, id identity.SimlarID) (bool, error)
}

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed subscriber store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the subscribers table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS subscribers (
        simlar_id TEXT PRIMARY KEY,
        password_hash BYTEA NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`)
	if err != nil {
		return fmt.Errorf("ensure subscribers schema: %w", err)
	}
	return nil
}

// Save upserts the subscriber's credential hash.
func (s *PostgresStore) Save(ctx context.Context, id identity.SimlarID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO subscribers (simlar_id, password_hash, updated_at)
        VALUES ($1, $2, now())
        ON CONFLICT (simlar_id) DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = now()`,
		string(id), hash)
	return err
}

// Exists reports whether a subscriber row is present for the identity.
func (s *PostgresStore) Exists(ctx context.Context, id identity.SimlarID) (bool, error) {
	var one int
	err := s.db.QueryRow(ctx, `SELECT 1 FROM subscribers WHERE simlar_id = $1`, string(id)).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type memoryStore struct {
	mu     sync.RWMutex
	hashes map[identity.SimlarID][]byte
}

// NewMemoryStore builds an in-memory subscriber store for tests and dev mode.
func NewMemoryStore() Store {
	return &memoryStore{hashes: make(map[identity.SimlarID][]byte)}
}

func (s *memoryStore) Save(_ context.Context, id identity.SimlarID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[id] = hash
	return nil
}

func (s *memoryStore) Exists(_ context.Context, id identity.SimlarID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.hashes[id]
	return ok, nil
}
