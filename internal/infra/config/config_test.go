package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.App.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.App.Port)
	}
	if cfg.Engine.TokenIDClaim != "sub" {
		t.Errorf("expected default token id claim 'sub', got %q", cfg.Engine.TokenIDClaim)
	}
	if cfg.Engine.IndexByClaim != "iat" {
		t.Errorf("expected default index claim 'iat', got %q", cfg.Engine.IndexByClaim)
	}
	if cfg.Engine.KeyPrefix != "jwt-blacklist" {
		t.Errorf("expected default key prefix 'jwt-blacklist', got %q", cfg.Engine.KeyPrefix)
	}
	if cfg.Engine.StrictOnError {
		t.Errorf("expected strict mode disabled by default")
	}
	if cfg.Store.Backend != StoreBackendMemory {
		t.Errorf("expected default store backend %q, got %q", StoreBackendMemory, cfg.Store.Backend)
	}
	if cfg.Store.SweepInterval != 10*time.Minute {
		t.Errorf("expected default sweep interval 10m, got %s", cfg.Store.SweepInterval)
	}
	if cfg.Kafka.TopicPrefix != "revocation" {
		t.Errorf("expected default kafka topic prefix 'revocation', got %q", cfg.Kafka.TopicPrefix)
	}
	if cfg.Telemetry.SamplingRate != 1.0 {
		t.Errorf("expected default sampling rate 1.0, got %f", cfg.Telemetry.SamplingRate)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TOKENGATE_ENGINE_KEY_PREFIX", "sessions")
	t.Setenv("TOKENGATE_ENGINE_STRICT_ON_ERROR", "true")
	t.Setenv("TOKENGATE_STORE_BACKEND", "redis")
	t.Setenv("TOKENGATE_REDIS_HOST", "cache.internal")
	t.Setenv("TOKENGATE_APP_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Engine.KeyPrefix != "sessions" {
		t.Errorf("expected key prefix 'sessions', got %q", cfg.Engine.KeyPrefix)
	}
	if !cfg.Engine.StrictOnError {
		t.Errorf("expected strict mode enabled")
	}
	if cfg.Store.Backend != StoreBackendRedis {
		t.Errorf("expected redis backend, got %q", cfg.Store.Backend)
	}
	if cfg.Redis.Host != "cache.internal" {
		t.Errorf("expected redis host 'cache.internal', got %q", cfg.Redis.Host)
	}
	if cfg.App.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.App.Port)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("TOKENGATE_STORE_BACKEND", "etcd")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown store backend")
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv("TOKENGATE_APP_PORT", "70000")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestLoadRejectsInvalidSamplingRate(t *testing.T) {
	t.Setenv("TOKENGATE_TELEMETRY_SAMPLING_RATE", "1.5")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for sampling rate above 1")
	}
}
