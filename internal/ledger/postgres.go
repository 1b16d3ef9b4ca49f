package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simlar/simlar-server-sub000/internal/identity"
)

// PostgresAccountRepository persists account rows in PostgreSQL. Update locks
// the single row with SELECT ... FOR UPDATE inside a transaction, so two
// concurrent mutations for the same identity serialize on the database.
type PostgresAccountRepository struct {
	db *pgxpool.Pool
}

// NewPostgresAccountRepository constructs a Postgres-backed account repository.
func NewPostgresAccountRepository(db *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

// EnsureSchema creates the account-requests table when it does not exist yet.
func (r *PostgresAccountRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS account_requests (
        simlar_id TEXT PRIMARY KEY,
        password TEXT NOT NULL DEFAULT '',
        registration_code TEXT NOT NULL DEFAULT '',
        request_tries INT NOT NULL DEFAULT 0,
        confirm_tries INT NOT NULL DEFAULT 0,
        calls INT NOT NULL DEFAULT 0,
        request_timestamp TIMESTAMPTZ,
        registration_code_timestamp TIMESTAMPTZ,
        call_timestamp TIMESTAMPTZ,
        ip TEXT NOT NULL DEFAULT ''
    )`)
	if err != nil {
		return fmt.Errorf("ensure account_requests schema: %w", err)
	}
	return nil
}

const accountColumns = `simlar_id, password, registration_code, request_tries, confirm_tries, calls,
    request_timestamp, registration_code_timestamp, call_timestamp, ip`

// Update runs fn against the locked row (nil if absent) and upserts its result.
func (r *PostgresAccountRepository) Update(ctx context.Context, id identity.SimlarID, fn AccountUpdateFunc) (*AccountEntry, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	row := tx.QueryRow(ctx, `SELECT `+accountColumns+`
        FROM account_requests WHERE simlar_id = $1 FOR UPDATE`, string(id))

	entry, err := scanAccountEntry(row)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		entry = nil
	}

	updated, err := fn(entry)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("account update for %s returned no entry", id)
	}
	updated.SimlarID = id

	_, err = tx.Exec(ctx, `INSERT INTO account_requests (`+accountColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (simlar_id) DO UPDATE SET
            password = EXCLUDED.password,
            registration_code = EXCLUDED.registration_code,
            request_tries = EXCLUDED.request_tries,
            confirm_tries = EXCLUDED.confirm_tries,
            calls = EXCLUDED.calls,
            request_timestamp = EXCLUDED.request_timestamp,
            registration_code_timestamp = EXCLUDED.registration_code_timestamp,
            call_timestamp = EXCLUDED.call_timestamp,
            ip = EXCLUDED.ip`,
		string(updated.SimlarID), updated.Password, updated.RegistrationCode,
		updated.RequestTries, updated.ConfirmTries, updated.Calls,
		nullableTime(updated.Timestamp), nullableTime(updated.RegistrationCodeTimestamp),
		nullableTime(updated.CallTimestamp), updated.IP)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// Find loads a row without locking it.
func (r *PostgresAccountRepository) Find(ctx context.Context, id identity.SimlarID) (*AccountEntry, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+`
        FROM account_requests WHERE simlar_id = $1`, string(id))
	entry, err := scanAccountEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoEntry
		}
		return nil, err
	}
	return entry, nil
}

// SumRequestTries aggregates request tries across all identities since the cutoff.
func (r *PostgresAccountRepository) SumRequestTries(ctx context.Context, since time.Time) (int, error) {
	return r.sum(ctx, `SELECT COALESCE(SUM(request_tries), 0) FROM account_requests
        WHERE request_timestamp >= $1`, since)
}

// SumRequestTriesForIP aggregates request tries for one origin IP since the cutoff.
func (r *PostgresAccountRepository) SumRequestTriesForIP(ctx context.Context, ip string, since time.Time) (int, error) {
	return r.sum(ctx, `SELECT COALESCE(SUM(request_tries), 0) FROM account_requests
        WHERE request_timestamp >= $1 AND ip = $2`, since, ip)
}

// SumRequestTriesForRegion aggregates request tries for identities whose digits
// start with the region prefix.
func (r *PostgresAccountRepository) SumRequestTriesForRegion(ctx context.Context, prefix string, since time.Time) (int, error) {
	return r.sum(ctx, `SELECT COALESCE(SUM(request_tries), 0) FROM account_requests
        WHERE request_timestamp >= $1 AND simlar_id LIKE '*' || $2 || '%'`, since, prefix)
}

func (r *PostgresAccountRepository) sum(ctx context.Context, query string, args ...any) (int, error) {
	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func scanAccountEntry(row pgx.Row) (*AccountEntry, error) {
	var (
		entry  AccountEntry
		id     string
		ts     *time.Time
		codeTs *time.Time
		callTs *time.Time
	)
	if err := row.Scan(&id, &entry.Password, &entry.RegistrationCode,
		&entry.RequestTries, &entry.ConfirmTries, &entry.Calls,
		&ts, &codeTs, &callTs, &entry.IP); err != nil {
		return nil, err
	}
	entry.SimlarID = identity.SimlarID(id)
	entry.Timestamp = timeOrZero(ts)
	entry.RegistrationCodeTimestamp = timeOrZero(codeTs)
	entry.CallTimestamp = timeOrZero(callTs)
	return &entry, nil
}

// PostgresContactRepository persists contact-sync accumulator rows with the
// same single-row FOR UPDATE locking as the account repository.
type PostgresContactRepository struct {
	db *pgxpool.Pool
}

// NewPostgresContactRepository constructs a Postgres-backed contact repository.
func NewPostgresContactRepository(db *pgxpool.Pool) *PostgresContactRepository {
	return &PostgresContactRepository{db: db}
}

// EnsureSchema creates the contact-requests table when it does not exist yet.
func (r *PostgresContactRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS contact_requests (
        simlar_id TEXT PRIMARY KEY,
        request_timestamp TIMESTAMPTZ,
        hash TEXT NOT NULL DEFAULT '',
        count BIGINT NOT NULL DEFAULT 0
    )`)
	if err != nil {
		return fmt.Errorf("ensure contact_requests schema: %w", err)
	}
	return nil
}

// Update runs fn against the locked row (nil if absent) and upserts its result.
func (r *PostgresContactRepository) Update(ctx context.Context, id identity.SimlarID, fn ContactUpdateFunc) (*ContactEntry, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	row := tx.QueryRow(ctx, `SELECT simlar_id, request_timestamp, hash, count
        FROM contact_requests WHERE simlar_id = $1 FOR UPDATE`, string(id))

	entry, err := scanContactEntry(row)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		entry = nil
	}

	updated, err := fn(entry)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("contact update for %s returned no entry", id)
	}
	updated.SimlarID = id

	_, err = tx.Exec(ctx, `INSERT INTO contact_requests (simlar_id, request_timestamp, hash, count)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (simlar_id) DO UPDATE SET
            request_timestamp = EXCLUDED.request_timestamp,
            hash = EXCLUDED.hash,
            count = EXCLUDED.count`,
		string(updated.SimlarID), nullableTime(updated.Timestamp), updated.Hash, updated.Count)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// Find loads a row without locking it.
func (r *PostgresContactRepository) Find(ctx context.Context, id identity.SimlarID) (*ContactEntry, error) {
	row := r.db.QueryRow(ctx, `SELECT simlar_id, request_timestamp, hash, count
        FROM contact_requests WHERE simlar_id = $1`, string(id))
	entry, err := scanContactEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoEntry
		}
		return nil, err
	}
	return entry, nil
}

func scanContactEntry(row pgx.Row) (*ContactEntry, error) {
	var (
		entry ContactEntry
		id    string
		ts    *time.Time
	)
	if err := row.Scan(&id, &ts, &entry.Hash, &entry.Count); err != nil {
		return nil, err
	}
	entry.SimlarID = identity.SimlarID(id)
	entry.Timestamp = timeOrZero(ts)
	return &entry, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
