package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/token-gate/internal/core/domain"
	"github.com/arklim/token-gate/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, subjectID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("subject_id", subjectID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishTokenRevoked logs revocation.token.revoked events.
func (p *StubPublisher) PublishTokenRevoked(_ context.Context, event domain.TokenRevokedEvent) error {
	payload := map[string]any{
		"index_value": event.IndexValue,
		"ttl_seconds": event.TTLSeconds,
	}
	p.logEvent(eventTypeTokenRevoked, event.SubjectID, event.RevokedAt, payload)
	return nil
}

// PublishSubjectPurged logs revocation.subject.purged events.
func (p *StubPublisher) PublishSubjectPurged(_ context.Context, event domain.SubjectPurgedEvent) error {
	payload := map[string]any{
		"watermark":   event.Watermark,
		"ttl_seconds": event.TTLSeconds,
	}
	p.logEvent(eventTypeSubjectPurged, event.SubjectID, event.PurgedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
