package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	red "github.com/redis/go-redis/v9"
)

// Store adapts a Redis client to the revocation store contract. Keys arrive
// fully namespaced from the engine; expiry is delegated to Redis itself.
type Store struct {
	client *red.Client
}

// NewStore wires a Redis client into a revocation store.
func NewStore(client *red.Client) *Store {
	return &Store{client: client}
}

// Write stores the value with SET, which replaces both the previous value
// and any previous expiry. A zero ttl stores the key without expiration.
func (s *Store) Write(ctx context.Context, key, value string, ttl time.Duration) error {
	if key == "" {
		return errors.New("key must not be empty")
	}

	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set revocation record: %w", err)
	}

	return nil
}

// BatchRead fetches all keys in a single MGET. Absent keys come back as nil
// slots and are omitted from the result; any transport error fails the call.
func (s *Store) BatchRead(ctx context.Context, keys []string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}

	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget revocation records: %w", err)
	}

	out := make(map[string]string, len(keys))
	for i, raw := range results {
		if raw == nil {
			continue
		}
		value, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("redis mget returned unexpected type %T for key %s", raw, keys[i])
		}
		out[keys[i]] = value
	}

	return out, nil
}
