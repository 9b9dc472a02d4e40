package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arklim/token-gate/internal/core/port"
	"github.com/arklim/token-gate/internal/infra/config"
	"github.com/arklim/token-gate/internal/infra/database"
	kafkainfra "github.com/arklim/token-gate/internal/infra/kafka"
	"github.com/arklim/token-gate/internal/infra/logger"
	redisinfra "github.com/arklim/token-gate/internal/infra/redis"
	"github.com/arklim/token-gate/internal/infra/telemetry"
	memoryrepo "github.com/arklim/token-gate/internal/repository/memory"
	postgresrepo "github.com/arklim/token-gate/internal/repository/postgres"
	redisrepo "github.com/arklim/token-gate/internal/repository/redis"
	"github.com/arklim/token-gate/internal/transport/http/middleware"
	"github.com/arklim/token-gate/internal/transport/http/routes"
	"github.com/arklim/token-gate/internal/usecase"
)

type Application struct {
	cfg           *config.AppConfig
	engine        *gin.Engine
	logger        *zap.Logger
	pool          *pgxpool.Pool
	redis         *redisinfra.Client
	tracer        *telemetry.TracerProvider
	sweeper       *postgresrepo.Store
	sweepInterval time.Duration
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app := &Application{cfg: cfg, logger: log}

	if cfg.Telemetry.OTLPEndpoint != "" {
		tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		app.tracer = tracer
	}

	store, checker, err := app.initStore(ctx)
	if err != nil {
		return nil, err
	}

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	revocationEngine, err := usecase.NewRevocationEngine(store, usecase.EngineOptions{
		TokenIDClaim:  cfg.Engine.TokenIDClaim,
		IndexByClaim:  cfg.Engine.IndexByClaim,
		KeyPrefix:     cfg.Engine.KeyPrefix,
		StrictOnError: cfg.Engine.StrictOnError,
	})
	if err != nil {
		app.closeBackends()
		return nil, fmt.Errorf("init revocation engine: %w", err)
	}
	revocationEngine.
		WithLogger(log).
		WithMetrics(telemetry.NewMetrics()).
		WithEvents(eventPublisher)

	app.engine = routes.Register(routes.Dependencies{
		Config:  cfg,
		Logger:  log,
		Engine:  revocationEngine,
		Store:   checker,
		Metrics: middleware.NewHTTPMetrics(),
	})

	return app, nil
}

// initStore builds the configured revocation store backend and, when the
// backend supports it, a readiness checker for /readyz.
func (a *Application) initStore(ctx context.Context) (port.RevocationStore, routes.StoreChecker, error) {
	cfg := a.cfg

	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		redisClient, err := redisinfra.NewClient(cfg.Redis, a.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init redis: %w", err)
		}
		a.redis = redisClient
		return redisrepo.NewStore(redisClient.Client()), redisClient, nil

	case config.StoreBackendPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres, a.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres: %w", err)
		}
		a.pool = pool
		store := postgresrepo.NewStore(pool)
		a.sweeper = store
		a.sweepInterval = cfg.Store.SweepInterval
		return store, poolChecker{pool}, nil

	default:
		a.logger.Info("using in-memory revocation store")
		return memoryrepo.NewStore(), nil, nil
	}
}

type poolChecker struct {
	pool *pgxpool.Pool
}

func (c poolChecker) HealthCheck(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (a *Application) closeBackends() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.closeBackends()
	defer func() {
		if a.tracer != nil {
			_ = a.tracer.Shutdown(context.Background())
		}
	}()

	if a.sweeper != nil && a.sweepInterval > 0 {
		go a.runSweeper(ctx)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting revocation gate",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
		zap.String("store_backend", a.cfg.Store.Backend),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}

// runSweeper periodically removes expired rows from the postgres backend.
func (a *Application) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(a.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := a.sweeper.SweepExpired(ctx)
			if err != nil {
				a.logger.Warn("revocation sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				a.logger.Info("swept expired revocation records", zap.Int64("removed", removed))
			}
		}
	}
}
