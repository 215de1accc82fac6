// Package telemetry sets up logging, metrics, tracing and error reporting.
package telemetry

import (
	"io"
	"log/slog"
	"net/url"
	"strings"
)

// NewLogger returns a JSON logger tagged with the service name.
func NewLogger(w io.Writer, service, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})).With(
		slog.String("service", service),
	)
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DatabaseLogArgs describes a database URL without leaking credentials.
func DatabaseLogArgs(driver, databaseURL string) []any {
	args := []any{slog.String("db_driver", driver)}
	if driver != "postgres" {
		return append(args, slog.String("db_path", strings.SplitN(databaseURL, "?", 2)[0]))
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return append(args, slog.String("db_url", "invalid"))
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return append(args,
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	)
}
