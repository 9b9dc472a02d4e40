package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestStore_WriteUpsertsWithExpiry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	now := time.Date(2025, 11, 2, 12, 0, 0, 0, time.UTC)
	store := NewStore(mock).WithClock(fixedClock(now))
	deadline := now.Add(time.Minute)

	mock.ExpectExec(`INSERT INTO revocation_entries \(key,value,expires_at\) VALUES \(\$1,\$2,\$3\) ON CONFLICT \(key\) DO UPDATE SET value = EXCLUDED\.value, expires_at = EXCLUDED\.expires_at`).
		WithArgs("jwt-blacklist:U1:1000", "", &deadline).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := store.Write(context.Background(), "jwt-blacklist:U1:1000", "", time.Minute); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStore_WriteWithoutTTLStoresNullExpiry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	store := NewStore(mock)

	mock.ExpectExec(`INSERT INTO revocation_entries`).
		WithArgs("jwt-blacklist:U1", "1761999999", (*time.Time)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := store.Write(context.Background(), "jwt-blacklist:U1", "1761999999", 0); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStore_BatchReadFiltersExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	now := time.Date(2025, 11, 2, 12, 0, 0, 0, time.UTC)
	store := NewStore(mock).WithClock(fixedClock(now))

	rows := pgxmock.NewRows([]string{"key", "value"}).
		AddRow("jwt-blacklist:U1", "1000").
		AddRow("jwt-blacklist:U1:1000", "")

	mock.ExpectQuery(`SELECT key, value FROM revocation_entries WHERE key IN \(\$1,\$2,\$3\) AND \(expires_at IS NULL OR expires_at > \$4\)`).
		WithArgs("jwt-blacklist:U1", "jwt-blacklist:U1:1000", "jwt-blacklist:U2", now).
		WillReturnRows(rows)

	values, err := store.BatchRead(context.Background(), []string{"jwt-blacklist:U1", "jwt-blacklist:U1:1000", "jwt-blacklist:U2"})
	if err != nil {
		t.Fatalf("BatchRead returned error: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("expected 2 present keys, got %d", len(values))
	}
	if value, ok := values["jwt-blacklist:U1:1000"]; !ok || value != "" {
		t.Fatalf("expected present empty sentinel, got %q, %v", value, ok)
	}
	if _, ok := values["jwt-blacklist:U2"]; ok {
		t.Fatalf("expected absent key to be omitted")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStore_BatchReadPropagatesErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	store := NewStore(mock)

	mock.ExpectQuery(`SELECT key, value FROM revocation_entries`).
		WithArgs("k", pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	if _, err := store.BatchRead(context.Background(), []string{"k"}); err == nil {
		t.Fatalf("expected backend error to propagate")
	}
}

func TestStore_SweepExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	now := time.Date(2025, 11, 2, 12, 0, 0, 0, time.UTC)
	store := NewStore(mock).WithClock(fixedClock(now))

	mock.ExpectExec(`DELETE FROM revocation_entries WHERE expires_at <= \$1`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	removed, err := store.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("SweepExpired returned error: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 rows swept, got %d", removed)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
