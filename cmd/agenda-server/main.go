package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"

	"agenda/backend/internal/config"
	"agenda/backend/internal/events"
	"agenda/backend/internal/health"
	"agenda/backend/internal/ratelimit"
	"agenda/backend/internal/service/appointments"
	"agenda/backend/internal/service/catalog"
	"agenda/backend/internal/service/clients"
	"agenda/backend/internal/service/staff"
	"agenda/backend/internal/store"
	"agenda/backend/internal/store/memory"
	"agenda/backend/internal/store/sqlstore"
	"agenda/backend/internal/telemetry"
	grpcTransport "agenda/backend/internal/transport/grpc"
	"agenda/backend/internal/transport/httpapi"
)

const serviceName = "agenda-server"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	log := telemetry.NewLogger(os.Stdout, serviceName, "info")
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = telemetry.NewLogger(os.Stdout, serviceName, cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting",
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("grpc_addr", cfg.GRPCAddr()),
		slog.String("log_level", cfg.LogLevel),
		slog.String("version", version),
	)

	if err := run(log, cfg); err != nil {
		log.Error("server stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(log *slog.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flushSentry, err := telemetry.InitSentry(cfg.SentryDSN, cfg.SentryEnvironment, version)
	if err != nil {
		log.Warn("sentry init failed", slog.Any("err", err))
	} else {
		defer flushSentry()
	}

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  serviceName,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing shutdown failed", slog.Any("err", err))
		}
	}()

	st, err := openStore(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn("store close failed", slog.Any("err", err))
		}
	}()

	checks := []health.Check{{Name: "store", Fn: st.Ping}}
	metrics := telemetry.NewMetrics()

	publisher, err := newPublisher(log, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("event publisher close failed", slog.Any("err", err))
		}
	}()
	if len(cfg.KafkaBrokers) > 0 {
		checks = append(checks, health.Check{Name: "kafka", Fn: events.ReadyCheck(cfg.KafkaBrokers)})
	}
	publisher = events.Observed(publisher, func(t events.Type, err error) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.EventsPublished.WithLabelValues(string(t), outcome).Inc()
	})

	limiter, redisClient := newLimiter(log, cfg)
	if redisClient != nil {
		defer redisClient.Close()
		checks = append(checks, health.Check{Name: "redis", Fn: ratelimit.PingCheck(redisClient)})
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Appointments: appointments.NewService(st,
			appointments.WithPublisher(publisher),
			appointments.WithLogger(log),
		),
		Clients: clients.NewService(st),
		Catalog: catalog.NewService(st),
		Staff:   staff.NewService(st),

		Log:            log,
		Metrics:        metrics,
		Limiter:        limiter,
		ReadyChecks:    checks,
		CORS:           httpapi.CORSPolicy{AllowedOrigins: cfg.CORSAllowedOrigins},
		BodyLimitBytes: cfg.HTTPBodyLimitBytes,
		RequestTimeout: cfg.HTTPRequestTimeout,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(router, "http.server"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	hs := grpcTransport.NewHealthServer(checks, 2*time.Second, log)
	grpcServer := grpcTransport.NewServer(hs, cfg.GRPCRequestTimeout)

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr()))
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	log.Info("servers started", slog.String("http_addr", cfg.HTTPAddr), slog.String("grpc_addr", cfg.GRPCAddr()))

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	hs.Shutdown()
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	log.Info("shutting down http server", slog.Duration("timeout", cfg.ShutdownTimeout))
	if err := httpServer.Shutdown(sctx); err != nil {
		log.Warn("http graceful shutdown failed", slog.Any("err", err))
	}
	grpcTransport.Shutdown(log, grpcServer, cfg.ShutdownTimeout)
	return runErr
}

func openStore(ctx context.Context, log *slog.Logger, cfg config.Config) (store.Store, error) {
	if cfg.DatabaseDriver == "memory" {
		log.Warn("using in-memory store; data is lost on restart")
		return memory.New(), nil
	}

	log.Info("connecting to database", telemetry.DatabaseLogArgs(cfg.DatabaseDriver, cfg.DatabaseURL)...)
	db, err := sqlstore.Open(cfg.DatabaseDriver, cfg.DatabaseURL, sqlstore.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, telemetry.DatabaseLogArgs(cfg.DatabaseDriver, cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		return nil, err
	}

	if cfg.DatabaseMigrate {
		if err := sqlstore.Migrate(ctx, db, cfg.DatabaseDriver); err != nil {
			_ = sqlstore.Close(db)
			log.Error("database migration failed", slog.Any("err", err))
			return nil, err
		}
		log.Info("database migrations applied")
	}
	return sqlstore.New(db), nil
}

func newPublisher(log *slog.Logger, cfg config.Config) (events.Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info("kafka not configured; appointment events disabled")
		return events.NopPublisher{}, nil
	}
	p, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, err
	}
	log.Info("publishing appointment events", slog.String("topic", cfg.KafkaTopic))
	return p, nil
}

func newLimiter(log *slog.Logger, cfg config.Config) (ratelimit.Limiter, *redis.Client) {
	switch cfg.RateLimitBackend {
	case "off":
		return ratelimit.Off{}, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		limit := int(cfg.RateLimitRPS * cfg.RateLimitWindow.Seconds())
		log.Info("rate limiting with redis", slog.String("redis_addr", cfg.RedisAddr), slog.Int("limit", limit))
		return ratelimit.NewRedis(rdb, limit, cfg.RateLimitWindow, "agenda:rl"), rdb
	default:
		return ratelimit.NewLocal(cfg.RateLimitRPS, cfg.RateLimitBurst), nil
	}
}
