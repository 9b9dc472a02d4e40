package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const revocationTable = "revocation_entries"

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements the revocation store contract on PostgreSQL. Records live
// in a single table keyed by the engine's namespaced keys; expiry is an
// absolute timestamp column filtered at read time and swept opportunistically.
type Store struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

// NewStore constructs a store backed by any executor that satisfies pgExecutor.
func NewStore(exec pgExecutor) *Store {
	store := &Store{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now:     time.Now,
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		store.pool = pool
	}
	return store
}

// WithClock overrides the clock, primarily for deterministic testing.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

// Write upserts the record, replacing both the value and the expiry of any
// existing row. A zero ttl stores a NULL expiry (no expiration).
func (s *Store) Write(ctx context.Context, key, value string, ttl time.Duration) error {
	if key == "" {
		return errors.New("key must not be empty")
	}

	var expiresAt *time.Time
	if ttl > 0 {
		deadline := s.now().UTC().Add(ttl)
		expiresAt = &deadline
	}

	query, args, err := s.builder.
		Insert(revocationTable).
		Columns("key", "value", "expires_at").
		Values(key, value, expiresAt).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build revocation upsert: %w", err)
	}

	if _, err := s.exec.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert revocation record: %w", err)
	}

	return nil
}

// BatchRead selects all live rows for the requested keys. Expired rows are
// filtered out by the query itself, so a stale row reads as absent even
// before the sweeper removes it.
func (s *Store) BatchRead(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	query, args, err := s.builder.
		Select("key", "value").
		From(revocationTable).
		Where(squirrel.Eq{"key": keys}).
		Where(squirrel.Or{
			squirrel.Eq{"expires_at": nil},
			squirrel.Gt{"expires_at": s.now().UTC()},
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build revocation select: %w", err)
	}

	rows, err := s.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select revocation records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan revocation record: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revocation records: %w", err)
	}

	return out, nil
}

// SweepExpired deletes rows whose expiry has passed and reports how many
// were removed. Intended to run periodically from the application loop;
// reads stay correct without it.
func (s *Store) SweepExpired(ctx context.Context) (int64, error) {
	query, args, err := s.builder.
		Delete(revocationTable).
		Where(squirrel.LtOrEq{"expires_at": s.now().UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build revocation sweep: %w", err)
	}

	tag, err := s.exec.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("sweep expired revocation records: %w", err)
	}

	return tag.RowsAffected(), nil
}
