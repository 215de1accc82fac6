package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.HTTPAddr != ":3000" || cfg.GRPCAddr() != "0.0.0.0:50051" {
		t.Fatalf("addrs = %q %q", cfg.HTTPAddr, cfg.GRPCAddr())
	}
	if cfg.DatabaseDriver != "sqlite" || !cfg.DatabaseMigrate {
		t.Fatalf("database = %q migrate=%v", cfg.DatabaseDriver, cfg.DatabaseMigrate)
	}
	if cfg.ShutdownTimeout != 10*time.Second || cfg.RateLimitWindow != time.Minute {
		t.Fatalf("durations = %v %v", cfg.ShutdownTimeout, cfg.RateLimitWindow)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("kafka brokers = %v, want none", cfg.KafkaBrokers)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AGENDA_DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/agenda")
	t.Setenv("AGENDA_GRPC_ADDR", "127.0.0.1:6000")
	t.Setenv("AGENDA_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("AGENDA_CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	t.Setenv("AGENDA_RATELIMIT_BACKEND", "redis")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.DatabaseDriver != "postgres" || cfg.DatabaseURL != "postgres://u:p@db:5432/agenda" {
		t.Fatalf("database = %q %q", cfg.DatabaseDriver, cfg.DatabaseURL)
	}
	if cfg.GRPCAddr() != "127.0.0.1:6000" {
		t.Fatalf("grpc addr = %q", cfg.GRPCAddr())
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("kafka brokers = %v", cfg.KafkaBrokers)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.RateLimitBackend != "redis" {
		t.Fatalf("cors = %v ratelimit = %q", cfg.CORSAllowedOrigins, cfg.RateLimitBackend)
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AGENDA_DATABASE_DRIVER", "mongo")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestLoad_BadDuration(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AGENDA_SHUTDOWN_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for bad duration")
	}
}
