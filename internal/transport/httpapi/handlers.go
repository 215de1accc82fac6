package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"agenda/backend/internal/domain"
	"agenda/backend/internal/validation"
)

type appointmentService interface {
	List(ctx context.Context) ([]domain.Appointment, error)
	Get(ctx context.Context, id int64) (domain.Appointment, error)
	Create(ctx context.Context, raw validation.Payload) (domain.Appointment, error)
	Update(ctx context.Context, id int64, raw validation.Payload) (domain.Appointment, error)
	Remove(ctx context.Context, id int64) error
}

type clientService interface {
	List(ctx context.Context) ([]domain.Client, error)
	Get(ctx context.Context, id int64) (domain.Client, error)
	Create(ctx context.Context, raw validation.Payload) (domain.Client, error)
	Update(ctx context.Context, id int64, raw validation.Payload) (domain.Client, error)
	Remove(ctx context.Context, id int64) error
}

type catalogService interface {
	List(ctx context.Context) ([]domain.Service, error)
	Get(ctx context.Context, id int64) (domain.Service, error)
	Create(ctx context.Context, raw validation.Payload) (domain.Service, error)
	Update(ctx context.Context, id int64, raw validation.Payload) (domain.Service, error)
	Remove(ctx context.Context, id int64) error
}

type staffService interface {
	List(ctx context.Context) ([]domain.StaffUser, error)
	Get(ctx context.Context, id int64) (domain.StaffUser, error)
	Create(ctx context.Context, raw validation.Payload) (domain.StaffUser, error)
	Remove(ctx context.Context, id int64) error
}

// resource binds one entity's service calls to JSON handlers.
type resource[T, R any] struct {
	log     *slog.Logger
	noun    string
	convert func(T) R
	list    func(ctx context.Context) ([]T, error)
	get     func(ctx context.Context, id int64) (T, error)
	create  func(ctx context.Context, raw validation.Payload) (T, error)
	update  func(ctx context.Context, id int64, raw validation.Payload) (T, error)
	remove  func(ctx context.Context, id int64) error
}

func (r resource[T, R]) handleList(c *gin.Context) {
	items, err := r.list(c.Request.Context())
	if err != nil {
		writeError(c, r.log, err)
		return
	}
	out := make([]R, 0, len(items))
	for _, it := range items {
		out = append(out, r.convert(it))
	}
	c.JSON(http.StatusOK, out)
}

func (r resource[T, R]) handleGet(c *gin.Context) {
	id, err := validation.ParseID(c.Param("id"))
	if err != nil {
		writeError(c, r.log, err)
		return
	}
	item, err := r.get(c.Request.Context(), id)
	if err != nil {
		writeError(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, r.convert(item))
}

func (r resource[T, R]) handleCreate(c *gin.Context) {
	raw, ok := decodePayload(c, r.log)
	if !ok {
		return
	}
	item, err := r.create(c.Request.Context(), raw)
	if err != nil {
		writeError(c, r.log, err)
		return
	}
	r.log.Info(r.noun+" created", slog.String("request_id", c.GetString(requestIDKey)))
	c.JSON(http.StatusCreated, r.convert(item))
}

func (r resource[T, R]) handleUpdate(c *gin.Context) {
	id, err := validation.ParseID(c.Param("id"))
	if err != nil {
		writeError(c, r.log, err)
		return
	}
	raw, ok := decodePayload(c, r.log)
	if !ok {
		return
	}
	item, err := r.update(c.Request.Context(), id, raw)
	if err != nil {
		writeError(c, r.log, err)
		return
	}
	r.log.Info(r.noun+" updated", slog.Int64("id", id))
	c.JSON(http.StatusOK, r.convert(item))
}

func (r resource[T, R]) handleDelete(c *gin.Context) {
	id, err := validation.ParseID(c.Param("id"))
	if err != nil {
		writeError(c, r.log, err)
		return
	}
	if err := r.remove(c.Request.Context(), id); err != nil {
		writeError(c, r.log, err)
		return
	}
	r.log.Info(r.noun+" deleted", slog.Int64("id", id))
	c.JSON(http.StatusOK, gin.H{"message": r.noun + " removed"})
}

// decodePayload reads a JSON object body, keeping numbers exact.
func decodePayload(c *gin.Context, log *slog.Logger) (validation.Payload, bool) {
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()

	var raw validation.Payload
	if err := dec.Decode(&raw); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
		case errors.Is(err, io.EOF):
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "request body is required"})
		default:
			log.Warn("invalid request", slog.String("reason", "malformed_json"), slog.Any("err", err))
			c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "request body must be a JSON object"})
		}
		return nil, false
	}
	if raw == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "request body must be a JSON object"})
		return nil, false
	}
	var trailing json.RawMessage
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		log.Warn("invalid request", slog.String("reason", "trailing_data"))
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "request body must contain a single JSON object"})
		return nil, false
	}
	return raw, true
}
