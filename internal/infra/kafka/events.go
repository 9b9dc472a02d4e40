package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/arklim/token-gate/internal/core/domain"
	"github.com/arklim/token-gate/internal/core/port"
	"github.com/arklim/token-gate/internal/infra/config"
)

const schemaVersion = "1.0"

// Event types emitted on the bus.
const (
	eventTypeTokenRevoked  = "token.revoked"
	eventTypeSubjectPurged = "subject.purged"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	SubjectID string           `json:"subject_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, subjectID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		SubjectID: subjectID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Key:   sarama.StringEncoder(subjectID),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishTokenRevoked publishes revocation.token.revoked events.
func (p *EventPublisher) PublishTokenRevoked(ctx context.Context, event domain.TokenRevokedEvent) error {
	payload := struct {
		SubjectID  string    `json:"subject_id"`
		IndexValue string    `json:"index_value"`
		RevokedAt  time.Time `json:"revoked_at"`
		TTLSeconds int64     `json:"ttl_seconds"`
	}{
		SubjectID:  event.SubjectID,
		IndexValue: event.IndexValue,
		RevokedAt:  event.RevokedAt.UTC(),
		TTLSeconds: event.TTLSeconds,
	}

	return p.publish(ctx, event.EventID, eventTypeTokenRevoked, event.SubjectID, event.RevokedAt, payload)
}

// PublishSubjectPurged publishes revocation.subject.purged events.
func (p *EventPublisher) PublishSubjectPurged(ctx context.Context, event domain.SubjectPurgedEvent) error {
	payload := struct {
		SubjectID  string    `json:"subject_id"`
		Watermark  int64     `json:"watermark"`
		PurgedAt   time.Time `json:"purged_at"`
		TTLSeconds int64     `json:"ttl_seconds"`
	}{
		SubjectID:  event.SubjectID,
		Watermark:  event.Watermark,
		PurgedAt:   event.PurgedAt.UTC(),
		TTLSeconds: event.TTLSeconds,
	}

	return p.publish(ctx, event.EventID, eventTypeSubjectPurged, event.SubjectID, event.PurgedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
