package handlers

import "time"

// ErrorResponse describes an error payload returned to API clients.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse describes the readiness payload with per-dependency detail.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// RevocationRequest carries the claims of the token to revoke or the subject
// to purge, plus an optional explicit record lifetime.
type RevocationRequest struct {
	Claims          map[string]any `json:"claims" binding:"required"`
	LifetimeSeconds *int64         `json:"lifetime_seconds,omitempty"`
}

// CheckRequest carries the claims of the token to test.
type CheckRequest struct {
	Claims map[string]any `json:"claims" binding:"required"`
}

// CheckResponse carries the revocation verdict for a check request.
type CheckResponse struct {
	Revoked bool `json:"revoked"`
}

// StatusResponse acknowledges a successful write operation.
type StatusResponse struct {
	Status string `json:"status"`
}
