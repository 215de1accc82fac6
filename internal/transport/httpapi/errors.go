package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"agenda/backend/internal/store"
	"agenda/backend/internal/telemetry"
	"agenda/backend/internal/validation"
)

type fieldErrorResponse struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type errorResponse struct {
	Error  string               `json:"error"`
	Fields []fieldErrorResponse `json:"fields,omitempty"`
}

// writeError maps a service error to its HTTP status. Unclassified errors are logged and reported.
func writeError(c *gin.Context, log *slog.Logger, err error) {
	var vErr *validation.Error
	var nf *store.NotFoundError
	switch {
	case errors.As(err, &vErr):
		resp := errorResponse{Error: vErr.Error()}
		for _, f := range vErr.Fields {
			resp.Fields = append(resp.Fields, fieldErrorResponse{Field: f.Field, Reason: f.Reason})
		}
		log.Warn("invalid request", slog.Any("err", err))
		c.AbortWithStatusJSON(http.StatusBadRequest, resp)

	case errors.As(err, &nf):
		log.Info("not found", slog.String("kind", string(nf.Kind)), slog.Int64("id", nf.ID))
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: nf.Error()})

	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: "not found"})

	case errors.Is(err, store.ErrConflict):
		log.Info("conflict", slog.Any("err", err))
		c.AbortWithStatusJSON(http.StatusConflict, errorResponse{Error: err.Error()})

	default:
		log.Error("request failed", slog.Any("err", err))
		telemetry.CaptureError(sentry.GetHubFromContext(c.Request.Context()), err, map[string]any{
			"endpoint": c.FullPath(),
			"method":   c.Request.Method,
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
