package port

import (
	"context"
	"time"
)

// RevocationStore is the key-value capability the revocation engine consumes.
// Implementations exist for an in-process map, Redis and PostgreSQL; any
// backend satisfying this contract can be plugged in.
//
// Write stores value at key. A ttl greater than zero makes the key unreadable
// once that duration elapses; writing an existing key replaces both the value
// and any previous expiry with exactly the new call's ttl. A ttl of zero
// stores the value without expiry.
//
// BatchRead returns the current value for every requested key that exists.
// Absent keys are simply missing from the returned map; absence is a valid
// state, never an error. A failure reading any key fails the whole call.
type RevocationStore interface {
	Write(ctx context.Context, key string, value string, ttl time.Duration) error
	BatchRead(ctx context.Context, keys []string) (map[string]string, error)
}
