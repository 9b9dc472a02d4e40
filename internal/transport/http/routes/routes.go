package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arklim/token-gate/internal/infra/config"
	"github.com/arklim/token-gate/internal/transport/http/handlers"
	"github.com/arklim/token-gate/internal/transport/http/middleware"
	"github.com/arklim/token-gate/internal/usecase"
)

// StoreChecker exposes readiness behaviour for the revocation store backend.
type StoreChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config  *config.AppConfig
	Logger  *zap.Logger
	Engine  *usecase.RevocationEngine
	Store   StoreChecker
	Metrics *middleware.HTTPMetrics
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	healthOptions := make([]handlers.HealthOption, 0, 1)
	if deps.Store != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("store", deps.Store.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		revocationHandler := handlers.NewRevocationHandler(deps.Engine)
		revocationGroup := api.Group("/revocations")
		revocationHandler.RegisterRoutes(revocationGroup)

		// Reference protected endpoint demonstrating the middleware gate:
		// returns the caller's subject when the token is valid and not
		// revoked.
		if secret := deps.Config.JWT.Secret; secret != "" {
			gate := middleware.RevocationGate([]byte(secret), deps.Engine, deps.Logger)
			api.GET("/whoami", gate, func(c *gin.Context) {
				subject, _ := middleware.GetSubject(c)
				c.JSON(200, gin.H{"subject": subject})
			})
		}
	}

	return r
}
