package domain

import "time"

// TokenRevokedEvent represents the payload for revocation.token.revoked messages.
type TokenRevokedEvent struct {
	EventID    string
	SubjectID  string
	IndexValue string
	RevokedAt  time.Time
	TTLSeconds int64
}

// SubjectPurgedEvent represents the payload for revocation.subject.purged
// messages. Every token of the subject issued at or before Watermark is
// invalid from PurgedAt onwards.
type SubjectPurgedEvent struct {
	EventID    string
	SubjectID  string
	Watermark  int64
	PurgedAt   time.Time
	TTLSeconds int64
}
