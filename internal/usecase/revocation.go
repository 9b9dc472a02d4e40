package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/token-gate/internal/core/domain"
	"github.com/arklim/token-gate/internal/core/port"
	applogger "github.com/arklim/token-gate/internal/infra/logger"
)

var (
	// ErrStoreRequired indicates the engine was constructed without a backing store.
	ErrStoreRequired = errors.New("revocation store is required")
	// ErrTokenIDClaimMissing indicates the configured token id claim is absent or empty.
	ErrTokenIDClaimMissing = errors.New("token id claim is required")
	// ErrIndexClaimMissing indicates the configured index claim is absent or empty.
	ErrIndexClaimMissing = errors.New("index claim is required")
	// ErrLifetimeUnresolvable indicates no explicit lifetime was given and the
	// iat claim needed to derive one is absent.
	ErrLifetimeUnresolvable = errors.New("iat claim is required when no lifetime is given")
	// ErrNegativeLifetime indicates a negative lifetime argument.
	ErrNegativeLifetime = errors.New("lifetime must not be negative")
)

const (
	defaultTokenIDClaim = "sub"
	defaultIndexByClaim = "iat"
	defaultKeyPrefix    = "jwt-blacklist"

	// revokedSentinel marks an individual token instance as revoked. The
	// record's presence carries the signal; the value is deliberately empty.
	revokedSentinel = ""
)

// EngineMetrics captures telemetry hooks for revocation decisions.
type EngineMetrics interface {
	IncCheckAllowed()
	IncCheckRevoked()
	IncStoreError()
	IncRevoke()
	IncPurge()
}

// EngineOptions configures a revocation engine instance.
type EngineOptions struct {
	// TokenIDClaim names the claim identifying the principal. Defaults to "sub".
	TokenIDClaim string
	// IndexByClaim names the claim identifying the issuance instance. Defaults to "iat".
	IndexByClaim string
	// KeyPrefix namespaces every generated key. A trailing colon is trimmed
	// so keys always render as prefix:id and prefix:id:index. Defaults to
	// "jwt-blacklist".
	KeyPrefix string
	// StrictOnError is the verdict returned when a check cannot read the
	// store: true fails closed (treat as revoked), false fails open.
	StrictOnError bool
}

// RevocationEngine decides whether a verified token has been revoked. It is
// stateless between calls; all revocation state lives in the store under two
// key families: prefix:id holds a subject-wide purge watermark, and
// prefix:id:index marks one token instance as revoked.
type RevocationEngine struct {
	store         port.RevocationStore
	events        port.EventPublisher
	metrics       EngineMetrics
	logger        *zap.Logger
	now           func() time.Time
	tokenIDClaim  string
	indexByClaim  string
	keyPrefix     string
	strictOnError bool
}

// NewRevocationEngine constructs an engine over the supplied store.
func NewRevocationEngine(store port.RevocationStore, opts EngineOptions) (*RevocationEngine, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	tokenIDClaim := strings.TrimSpace(opts.TokenIDClaim)
	if tokenIDClaim == "" {
		tokenIDClaim = defaultTokenIDClaim
	}

	indexByClaim := strings.TrimSpace(opts.IndexByClaim)
	if indexByClaim == "" {
		indexByClaim = defaultIndexByClaim
	}

	keyPrefix := strings.TrimSuffix(strings.TrimSpace(opts.KeyPrefix), ":")
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}

	return &RevocationEngine{
		store:         store,
		logger:        zap.NewNop(),
		now:           time.Now,
		tokenIDClaim:  tokenIDClaim,
		indexByClaim:  indexByClaim,
		keyPrefix:     keyPrefix,
		strictOnError: opts.StrictOnError,
	}, nil
}

// WithLogger attaches a structured logger to the engine.
func (e *RevocationEngine) WithLogger(logger *zap.Logger) *RevocationEngine {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// WithClock overrides the clock, primarily for deterministic testing.
func (e *RevocationEngine) WithClock(now func() time.Time) *RevocationEngine {
	if now != nil {
		e.now = now
	}
	return e
}

// WithMetrics wires telemetry observers for engine operations.
func (e *RevocationEngine) WithMetrics(metrics EngineMetrics) *RevocationEngine {
	if metrics != nil {
		e.metrics = metrics
	}
	return e
}

// WithEvents attaches an audit event publisher. Publishing is best effort:
// a failed publish never fails the revocation itself.
func (e *RevocationEngine) WithEvents(events port.EventPublisher) *RevocationEngine {
	if events != nil {
		e.events = events
	}
	return e
}

// IsRevoked reports whether the token described by claims has been revoked,
// either individually or through a subject-wide purge. A store read failure
// is not surfaced: the configured strict-mode verdict is returned instead so
// a transient outage degrades to a fixed operator-chosen policy. Missing
// required claims are a usage error and are surfaced.
func (e *RevocationEngine) IsRevoked(ctx context.Context, claims domain.Claims) (bool, error) {
	id, ok := claims.StringValue(e.tokenIDClaim)
	if !ok {
		return false, ErrTokenIDClaimMissing
	}
	index, ok := claims.StringValue(e.indexByClaim)
	if !ok {
		return false, ErrIndexClaimMissing
	}

	purgeKey := e.purgeKey(id)
	revokeKey := e.revokeKey(id, index)

	values, err := e.store.BatchRead(ctx, []string{purgeKey, revokeKey})
	if err != nil {
		if e.metrics != nil {
			e.metrics.IncStoreError()
		}
		e.logger.Warn("revocation store read failed, applying strict-mode verdict",
			zap.Bool("strict", e.strictOnError),
			zap.Error(err),
		)
		return e.strictOnError, nil
	}

	revoked := e.decide(claims, purgeKey, revokeKey, values)
	if e.metrics != nil {
		if revoked {
			e.metrics.IncCheckRevoked()
		} else {
			e.metrics.IncCheckAllowed()
		}
	}
	return revoked, nil
}

// decide applies the read-time rules: a purge watermark at or above the
// token's iat dominates; otherwise the individual revoke marker decides.
func (e *RevocationEngine) decide(claims domain.Claims, purgeKey, revokeKey string, values map[string]string) bool {
	if raw, ok := values[purgeKey]; ok {
		watermark, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			e.logger.Warn("ignoring malformed purge watermark",
				zap.String("key", purgeKey),
				zap.String("value", raw),
			)
		} else if iat, ok := claims.Int64Value(domain.ClaimIssuedAt); ok && watermark >= iat {
			return true
		}
	}

	value, ok := values[revokeKey]
	return ok && value == revokedSentinel
}

// Revoke marks the single token instance described by claims as revoked.
// The record's TTL is the explicit lifetime when given, else exp-iat when
// both claims are present, else the record is stored without expiry. A store
// write failure is surfaced directly: an unpersisted revocation must be
// treated as an operational event by the caller.
func (e *RevocationEngine) Revoke(ctx context.Context, claims domain.Claims, lifetime time.Duration) error {
	id, ok := claims.StringValue(e.tokenIDClaim)
	if !ok {
		return ErrTokenIDClaimMissing
	}
	index, ok := claims.StringValue(e.indexByClaim)
	if !ok {
		return ErrIndexClaimMissing
	}

	ttl, err := e.recordTTL(claims, lifetime)
	if err != nil {
		return err
	}

	key := e.revokeKey(id, index)
	if err := e.store.Write(ctx, key, revokedSentinel, ttl); err != nil {
		if e.metrics != nil {
			e.metrics.IncStoreError()
		}
		return fmt.Errorf("write revoke record: %w", err)
	}

	if e.metrics != nil {
		e.metrics.IncRevoke()
	}
	e.logger.Info("token revoked",
		zap.String("subject", applogger.MaskString(id)),
		zap.String("index", index),
		zap.Duration("ttl", ttl),
	)

	if e.events != nil {
		event := domain.TokenRevokedEvent{
			SubjectID:  id,
			IndexValue: index,
			RevokedAt:  e.now().UTC(),
			TTLSeconds: int64(ttl / time.Second),
		}
		if err := e.events.PublishTokenRevoked(ctx, event); err != nil {
			e.logger.Warn("publish token revoked event failed", zap.Error(err))
		}
	}

	return nil
}

// Purge invalidates every token of the subject issued strictly before now.
// The stored watermark is the current wall-clock second minus one, so tokens
// issued in the purge's own instant escape it; revocation targets historical
// tokens, not concurrent issuance.
func (e *RevocationEngine) Purge(ctx context.Context, claims domain.Claims, lifetime time.Duration) error {
	id, ok := claims.StringValue(e.tokenIDClaim)
	if !ok {
		return ErrTokenIDClaimMissing
	}

	ttl, err := e.recordTTL(claims, lifetime)
	if err != nil {
		return err
	}

	now := e.now().UTC()
	watermark := now.Unix() - 1

	key := e.purgeKey(id)
	if err := e.store.Write(ctx, key, strconv.FormatInt(watermark, 10), ttl); err != nil {
		if e.metrics != nil {
			e.metrics.IncStoreError()
		}
		return fmt.Errorf("write purge record: %w", err)
	}

	if e.metrics != nil {
		e.metrics.IncPurge()
	}
	e.logger.Info("subject purged",
		zap.String("subject", applogger.MaskString(id)),
		zap.Int64("watermark", watermark),
		zap.Duration("ttl", ttl),
	)

	if e.events != nil {
		event := domain.SubjectPurgedEvent{
			SubjectID:  id,
			Watermark:  watermark,
			PurgedAt:   now,
			TTLSeconds: int64(ttl / time.Second),
		}
		if err := e.events.PublishSubjectPurged(ctx, event); err != nil {
			e.logger.Warn("publish subject purged event failed", zap.Error(err))
		}
	}

	return nil
}

// recordTTL resolves the storage lifetime for a revocation record: an
// explicit lifetime wins, else exp-iat when both are present and ordered,
// else zero (no expiry). Zero lifetime means "not supplied".
func (e *RevocationEngine) recordTTL(claims domain.Claims, lifetime time.Duration) (time.Duration, error) {
	if lifetime < 0 {
		return 0, ErrNegativeLifetime
	}
	if lifetime > 0 {
		return lifetime, nil
	}

	iat, ok := claims.Int64Value(domain.ClaimIssuedAt)
	if !ok {
		return 0, ErrLifetimeUnresolvable
	}
	if exp, ok := claims.Int64Value(domain.ClaimExpiry); ok && exp > iat {
		return time.Duration(exp-iat) * time.Second, nil
	}

	return 0, nil
}

func (e *RevocationEngine) purgeKey(id string) string {
	return fmt.Sprintf("%s:%s", e.keyPrefix, id)
}

func (e *RevocationEngine) revokeKey(id, index string) string {
	return fmt.Sprintf("%s:%s:%s", e.keyPrefix, id, index)
}
