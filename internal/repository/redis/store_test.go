package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return NewStore(client), server
}

func TestStore_WriteSetsTTL(t *testing.T) {
	store, server := newTestStore(t)
	ctx := context.Background()
	ttl := 2 * time.Minute

	if err := store.Write(ctx, "jwt-blacklist:U1:1000", "", ttl); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	remaining := server.TTL("jwt-blacklist:U1:1000")
	if remaining <= 0 || remaining > ttl {
		t.Fatalf("expected ttl within (0, %v], got %v", ttl, remaining)
	}

	if err := store.Write(ctx, "jwt-blacklist:U1", "1761999999", 0); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if server.TTL("jwt-blacklist:U1") != 0 {
		t.Fatalf("expected no expiry for zero ttl")
	}
}

func TestStore_OverwriteReplacesValueAndTTL(t *testing.T) {
	store, server := newTestStore(t)
	ctx := context.Background()

	if err := store.Write(ctx, "k", "old", time.Minute); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := store.Write(ctx, "k", "new", time.Hour); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	remaining := server.TTL("k")
	if remaining <= time.Minute {
		t.Fatalf("expected overwrite to replace ttl, got %v", remaining)
	}

	values, err := store.BatchRead(ctx, []string{"k"})
	if err != nil {
		t.Fatalf("BatchRead returned error: %v", err)
	}
	if values["k"] != "new" {
		t.Fatalf("expected overwritten value, got %q", values["k"])
	}
}

func TestStore_BatchReadMixedPresence(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Write(ctx, "jwt-blacklist:U1", "1000", 0); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := store.Write(ctx, "jwt-blacklist:U1:1000", "", 0); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	values, err := store.BatchRead(ctx, []string{"jwt-blacklist:U1", "jwt-blacklist:U1:1000", "jwt-blacklist:U2"})
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
}

func TestStore_ExpiredKeysBecomeAbsent(t *testing.T) {
	store, server := newTestStore(t)
	ctx := context.Background()

	if err := store.Write(ctx, "k", "", 30*time.Second); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	server.FastForward(31 * time.Second)

	values, err := store.BatchRead(ctx, []string{"k"})
	if err != nil {
		t.Fatalf("BatchRead returned error: %v", err)
	}
	if _, ok := values["k"]; ok {
		t.Fatalf("expected expired key to read as absent")
	}
}

func TestStore_ErrorsPropagate(t *testing.T) {
	store, server := newTestStore(t)
	ctx := context.Background()

	if err := store.Write(ctx, "", "v", 0); err == nil {
		t.Fatalf("expected error for empty key")
	}

	server.SetError("LOADING Redis is loading the dataset in memory")

	if err := store.Write(ctx, "k", "v", 0); err == nil {
		t.Fatalf("expected backend error to propagate from Write")
	}
	if _, err := store.BatchRead(ctx, []string{"k"}); err == nil {
		t.Fatalf("expected backend error to propagate from BatchRead")
	}
}

func TestStore_BatchReadEmptyKeys(t *testing.T) {
	store, _ := newTestStore(t)

	values, err := store.BatchRead(context.Background(), nil)
	if err != nil {
		t.Fatalf("BatchRead returned error: %v", err)
	}
	if len(values) != 0 {
		t.Fatalf("expected empty result, got %v", values)
	}
}
