package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/token-gate/internal/core/domain"
	"github.com/arklim/token-gate/internal/transport/http/middleware"
	"github.com/arklim/token-gate/internal/usecase"
)

// RevocationHandler exposes the revoke, purge and check operations.
type RevocationHandler struct {
	engine *usecase.RevocationEngine
}

// NewRevocationHandler builds a handler over the revocation engine.
func NewRevocationHandler(engine *usecase.RevocationEngine) *RevocationHandler {
	return &RevocationHandler{engine: engine}
}

// RegisterRoutes wires the revocation endpoints onto the group.
func (h *RevocationHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/token", h.RevokeToken)
	group.POST("/subject", h.PurgeSubject)
	group.POST("/check", h.Check)
}

// RevokeToken marks a single token instance as revoked.
func (h *RevocationHandler) RevokeToken(c *gin.Context) {
	var req RevocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(c, "invalid request body"))
		return
	}

	lifetime, ok := lifetimeFromRequest(c, req.LifetimeSeconds)
	if !ok {
		return
	}

	if err := h.engine.Revoke(c.Request.Context(), domain.Claims(req.Claims), lifetime); err != nil {
		writeEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Status: "revoked"})
}

// PurgeSubject invalidates all of a subject's tokens issued before now.
func (h *RevocationHandler) PurgeSubject(c *gin.Context) {
	var req RevocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(c, "invalid request body"))
		return
	}

	lifetime, ok := lifetimeFromRequest(c, req.LifetimeSeconds)
	if !ok {
		return
	}

	if err := h.engine.Purge(c.Request.Context(), domain.Claims(req.Claims), lifetime); err != nil {
		writeEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Status: "purged"})
}

// Check returns the revocation verdict for the supplied claims.
func (h *RevocationHandler) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(c, "invalid request body"))
		return
	}

	revoked, err := h.engine.IsRevoked(c.Request.Context(), domain.Claims(req.Claims))
	if err != nil {
		writeEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, CheckResponse{Revoked: revoked})
}

func lifetimeFromRequest(c *gin.Context, seconds *int64) (time.Duration, bool) {
	if seconds == nil {
		return 0, true
	}
	if *seconds <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse(c, "lifetime_seconds must be positive"))
		return 0, false
	}
	return time.Duration(*seconds) * time.Second, true
}

func writeEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrTokenIDClaimMissing),
		errors.Is(err, usecase.ErrIndexClaimMissing),
		errors.Is(err, usecase.ErrLifetimeUnresolvable),
		errors.Is(err, usecase.ErrNegativeLifetime):
		c.JSON(http.StatusBadRequest, errorResponse(c, err.Error()))
	default:
		// Store write failures: the revocation was NOT persisted.
		c.JSON(http.StatusBadGateway, errorResponse(c, "revocation store unavailable"))
	}
}

func errorResponse(c *gin.Context, msg string) ErrorResponse {
	return ErrorResponse{
		Error:   msg,
		TraceID: middleware.GetTraceID(c),
	}
}
