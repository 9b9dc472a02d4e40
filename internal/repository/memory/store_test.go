package memory

import (
	"context"
	"testing"
	"time"
)

func TestStore_WriteAndBatchRead(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.Write(ctx, "jwt-blacklist:U1", "1000", 0); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := store.Write(ctx, "jwt-blacklist:U1:1000", "", time.Minute); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	values, err := store.BatchRead(ctx, []string{"jwt-blacklist:U1", "jwt-blacklist:U1:1000", "jwt-blacklist:U2"})
	if err != nil {
		t.Fatalf("BatchRead returned error: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("expected 2 present keys, got %d", len(values))
	}
	if values["jwt-blacklist:U1"] != "1000" {
		t.Fatalf("unexpected watermark value: %q", values["jwt-blacklist:U1"])
	}
	// The empty sentinel must be distinguishable from absence.
	if value, ok := values["jwt-blacklist:U1:1000"]; !ok || value != "" {
		t.Fatalf("expected present empty sentinel, got %q, %v", value, ok)
	}
	if _, ok := values["jwt-blacklist:U2"]; ok {
		t.Fatalf("expected absent key to be omitted")
	}
}

func TestStore_ExpiryEvictsLazily(t *testing.T) {
	current := time.Date(2025, 11, 2, 12, 0, 0, 0, time.UTC)
	store := NewStore().WithClock(func() time.Time { return current })
	ctx := context.Background()

	if err := store.Write(ctx, "k1", "v", 30*time.Second); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := store.Write(ctx, "k2", "v", 0); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	current = current.Add(29 * time.Second)
	values, err := store.BatchRead(ctx, []string{"k1", "k2"})
	if err != nil {
		t.Fatalf("BatchRead returned error: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("expected both keys live, got %d", len(values))
	}

	current = current.Add(2 * time.Second)
	values, err = store.BatchRead(ctx, []string{"k1", "k2"})
	if err != nil {
		t.Fatalf("BatchRead returned error: %v", err)
	}
	if _, ok := values["k1"]; ok {
		t.Fatalf("expected k1 to have expired")
	}
	if _, ok := values["k2"]; !ok {
		t.Fatalf("expected indefinite k2 to survive")
	}
	if store.Len() != 1 {
		t.Fatalf("expected expired entry to be evicted, have %d", store.Len())
	}
}

func TestStore_OverwriteReplacesExpiry(t *testing.T) {
	current := time.Date(2025, 11, 2, 12, 0, 0, 0, time.UTC)
	store := NewStore().WithClock(func() time.Time { return current })
	ctx := context.Background()

	if err := store.Write(ctx, "k", "old", time.Second); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := store.Write(ctx, "k", "new", time.Hour); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	current = current.Add(time.Minute)
	values, err := store.BatchRead(ctx, []string{"k"})
	if err != nil {
		t.Fatalf("BatchRead returned error: %v", err)
	}
	if values["k"] != "new" {
		t.Fatalf("expected overwrite to replace value and expiry, got %q", values["k"])
	}

	// And the other direction: an overwrite with a shorter ttl shortens it.
	if err := store.Write(ctx, "k", "short", time.Second); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	current = current.Add(2 * time.Second)
	values, err = store.BatchRead(ctx, []string{"k"})
	if err != nil {
		t.Fatalf("BatchRead returned error: %v", err)
	}
	if _, ok := values["k"]; ok {
		t.Fatalf("expected shortened ttl to apply")
	}
}

func TestStore_EmptyKeyRejected(t *testing.T) {
	store := NewStore()
	if err := store.Write(context.Background(), "", "v", 0); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
