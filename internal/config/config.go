package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr           string
	HTTPRequestTimeout time.Duration
	HTTPBodyLimitBytes int64
	GRPCHost           string
	GRPCPort           int
	GRPCRequestTimeout time.Duration
	ShutdownTimeout    time.Duration
	LogLevel           string

	DatabaseDriver    string
	DatabaseURL       string
	DatabaseMigrate   bool
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration

	CORSAllowedOrigins []string

	RateLimitBackend string
	RateLimitRPS     float64
	RateLimitBurst   int
	RateLimitWindow  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string

	SentryDSN         string
	SentryEnvironment string

	OTelEnabled     bool
	OTelEndpoint    string
	OTelSampleRatio float64
}

func (c Config) GRPCAddr() string {
	return net.JoinHostPort(c.GRPCHost, strconv.Itoa(c.GRPCPort))
}

// Load reads an optional .env file, then AGENDA_* environment variables.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("AGENDA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.addr", ":3000")
	v.SetDefault("http.request_timeout", "10s")
	v.SetDefault("http.body_limit_bytes", 1<<20)
	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50051)
	v.SetDefault("grpc.addr", "")
	v.SetDefault("grpc.request_timeout", "10s")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "file:agenda.db")
	v.SetDefault("database.migrate", true)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.conn_max_idle_time", "5m")
	v.SetDefault("shutdown.timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("cors.allowed_origins", "*")
	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.rps", 20)
	v.SetDefault("ratelimit.burst", 40)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "agenda.appointments")
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.endpoint", "localhost:4317")
	v.SetDefault("otel.sample_ratio", 1.0)

	_ = v.BindEnv("http.addr", "AGENDA_HTTP_ADDR", "HTTP_ADDR")
	_ = v.BindEnv("grpc.port", "AGENDA_GRPC_PORT", "GRPC_PORT")
	_ = v.BindEnv("grpc.addr", "AGENDA_GRPC_ADDR", "GRPC_ADDR")
	_ = v.BindEnv("database.url", "AGENDA_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("shutdown.timeout", "AGENDA_SHUTDOWN_TIMEOUT", "SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("log.level", "AGENDA_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("kafka.brokers", "AGENDA_KAFKA_BROKERS", "KAFKA_BROKERS")
	_ = v.BindEnv("sentry.dsn", "AGENDA_SENTRY_DSN", "SENTRY_DSN")
	_ = v.BindEnv("otel.endpoint", "AGENDA_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")

	durations := map[string]*time.Duration{}
	var cfg Config
	durations["http.request_timeout"] = &cfg.HTTPRequestTimeout
	durations["grpc.request_timeout"] = &cfg.GRPCRequestTimeout
	durations["shutdown.timeout"] = &cfg.ShutdownTimeout
	durations["database.conn_max_lifetime"] = &cfg.DBConnMaxLifetime
	durations["database.conn_max_idle_time"] = &cfg.DBConnMaxIdleTime
	durations["ratelimit.window"] = &cfg.RateLimitWindow
	for key, dst := range durations {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	if addr := strings.TrimSpace(v.GetString("grpc.addr")); addr != "" {
		host, portStr, err := net.SplitHostPort(addr)
		if err == nil {
			if host != "" {
				v.Set("grpc.host", host)
			}
			if port, err := strconv.Atoi(portStr); err == nil {
				v.Set("grpc.port", port)
			}
		}
	}

	cfg.HTTPAddr = strings.TrimSpace(v.GetString("http.addr"))
	cfg.HTTPBodyLimitBytes = v.GetInt64("http.body_limit_bytes")
	cfg.GRPCHost = strings.TrimSpace(v.GetString("grpc.host"))
	cfg.GRPCPort = v.GetInt("grpc.port")
	cfg.LogLevel = v.GetString("log.level")

	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(v.GetString("database.driver")))
	cfg.DatabaseURL = v.GetString("database.url")
	cfg.DatabaseMigrate = v.GetBool("database.migrate")
	cfg.DBMaxOpenConns = v.GetInt("database.max_open_conns")
	cfg.DBMaxIdleConns = v.GetInt("database.max_idle_conns")

	cfg.CORSAllowedOrigins = splitList(v.GetString("cors.allowed_origins"))

	cfg.RateLimitBackend = strings.ToLower(strings.TrimSpace(v.GetString("ratelimit.backend")))
	cfg.RateLimitRPS = v.GetFloat64("ratelimit.rps")
	cfg.RateLimitBurst = v.GetInt("ratelimit.burst")

	cfg.RedisAddr = v.GetString("redis.addr")
	cfg.RedisPassword = v.GetString("redis.password")
	cfg.RedisDB = v.GetInt("redis.db")

	cfg.KafkaBrokers = splitList(v.GetString("kafka.brokers"))
	cfg.KafkaTopic = strings.TrimSpace(v.GetString("kafka.topic"))

	cfg.SentryDSN = strings.TrimSpace(v.GetString("sentry.dsn"))
	cfg.SentryEnvironment = v.GetString("sentry.environment")

	cfg.OTelEnabled = v.GetBool("otel.enabled")
	cfg.OTelEndpoint = v.GetString("otel.endpoint")
	cfg.OTelSampleRatio = v.GetFloat64("otel.sample_ratio")

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("database.driver: unsupported value %q", c.DatabaseDriver)
	}
	switch c.RateLimitBackend {
	case "memory", "redis", "off":
	default:
		return fmt.Errorf("ratelimit.backend: unsupported value %q", c.RateLimitBackend)
	}
	if c.OTelSampleRatio < 0 || c.OTelSampleRatio > 1 {
		return fmt.Errorf("otel.sample_ratio: must be within [0, 1]")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
