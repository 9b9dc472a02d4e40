package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/arklim/token-gate/internal/core/domain"
	"github.com/arklim/token-gate/internal/usecase"
)

// ErrorResponse matches the handlers.ErrorResponse structure.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// newErrorResponse creates an error response with trace ID.
func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// RevocationGate validates the Authorization header, verifies the HS256
// signature and rejects revoked tokens. Signature verification stays in
// this layer; the engine only ever sees verified claims.
func RevocationGate(secret []byte, engine *usecase.RevocationEngine, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "invalid authorization format: expected 'Bearer <token>'"))
			return
		}

		raw := strings.TrimSpace(parts[1])
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing access token"))
			return
		}

		mapClaims := jwt.MapClaims{}
		if _, err := parser.ParseWithClaims(raw, mapClaims, func(*jwt.Token) (any, error) {
			return secret, nil
		}); err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "access token expired"))
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "invalid access token"))
			return
		}

		claims := domain.Claims(mapClaims)

		revoked, err := engine.IsRevoked(c.Request.Context(), claims)
		if err != nil {
			// Only claim validation errors reach here; store failures
			// resolve to the strict-mode verdict inside the engine.
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "token claims unsuitable for revocation check"))
			return
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "token has been revoked"))
			return
		}

		if subject, ok := claims.StringValue("sub"); ok {
			c.Set(SubjectKey, subject)
		}
		c.Set(ClaimsKey, claims)

		c.Next()
	}
}

// GetSubject retrieves the authenticated token subject from the context.
func GetSubject(c *gin.Context) (string, bool) {
	subject, exists := c.Get(SubjectKey)
	if !exists {
		return "", false
	}

	if id, ok := subject.(string); ok {
		return id, true
	}

	return "", false
}
