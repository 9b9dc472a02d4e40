package port

import (
	"context"

	"github.com/arklim/token-gate/internal/core/domain"
)

// EventPublisher emits revocation audit events to the message bus.
type EventPublisher interface {
	PublishTokenRevoked(ctx context.Context, event domain.TokenRevokedEvent) error
	PublishSubjectPurged(ctx context.Context, event domain.SubjectPurgedEvent) error
}
