// Package httpapi exposes the booking API over REST.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"agenda/backend/internal/domain"
	"agenda/backend/internal/health"
	"agenda/backend/internal/ratelimit"
	"agenda/backend/internal/telemetry"
)

type Deps struct {
	Appointments appointmentService
	Clients      clientService
	Catalog      catalogService
	Staff        staffService

	Log            *slog.Logger
	Metrics        *telemetry.Metrics
	Limiter        ratelimit.Limiter
	ReadyChecks    []health.Check
	CORS           CORSPolicy
	BodyLimitBytes int64
	RequestTimeout time.Duration
}

func NewRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "http"))
	if d.Metrics == nil {
		d.Metrics = telemetry.NewMetrics()
	}
	if d.Limiter == nil {
		d.Limiter = ratelimit.Off{}
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(
		requestID(),
		sentryHub(),
		recovery(log),
		accessLog(log),
		metrics(d.Metrics),
		cors(d.CORS),
	)

	r.GET("/", index)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/readyz", ready(d.ReadyChecks))
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	api := r.Group("/", bodyLimit(d.BodyLimitBytes), requestTimeout(d.RequestTimeout), rateLimit(d.Limiter, log))

	appts := resource[domain.Appointment, appointmentResponse]{
		log:     log.With(slog.String("resource", "appointments")),
		noun:    "appointment",
		convert: toAppointmentResponse,
		list:    d.Appointments.List,
		get:     d.Appointments.Get,
		create:  d.Appointments.Create,
		update:  d.Appointments.Update,
		remove:  d.Appointments.Remove,
	}
	mount(api, "/agendamentos", appts)

	clients := resource[domain.Client, clientResponse]{
		log:     log.With(slog.String("resource", "clients")),
		noun:    "client",
		convert: toClientResponse,
		list:    d.Clients.List,
		get:     d.Clients.Get,
		create:  d.Clients.Create,
		update:  d.Clients.Update,
		remove:  d.Clients.Remove,
	}
	mount(api, "/clientes", clients)

	services := resource[domain.Service, serviceResponse]{
		log:     log.With(slog.String("resource", "services")),
		noun:    "service",
		convert: toServiceResponse,
		list:    d.Catalog.List,
		get:     d.Catalog.Get,
		create:  d.Catalog.Create,
		update:  d.Catalog.Update,
		remove:  d.Catalog.Remove,
	}
	mount(api, "/servicos", services)

	staff := resource[domain.StaffUser, staffUserResponse]{
		log:     log.With(slog.String("resource", "staff_users")),
		noun:    "staff user",
		convert: toStaffUserResponse,
		list:    d.Staff.List,
		get:     d.Staff.Get,
		create:  d.Staff.Create,
		remove:  d.Staff.Remove,
	}
	mount(api, "/usuarios", staff)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})
	return r
}

func mount[T, R any](g *gin.RouterGroup, path string, res resource[T, R]) {
	g.GET(path, res.handleList)
	g.GET(path+"/:id", res.handleGet)
	g.POST(path, res.handleCreate)
	if res.update != nil {
		g.PUT(path+"/:id", res.handleUpdate)
		g.PATCH(path+"/:id", res.handleUpdate)
	}
	g.DELETE(path+"/:id", res.handleDelete)
}

func index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "agenda API is running",
		"endpoints": gin.H{
			"agendamentos": "/agendamentos",
			"clientes":     "/clientes",
			"servicos":     "/servicos",
			"usuarios":     "/usuarios",
		},
	})
}

func ready(checks []health.Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		failures := health.Run(c.Request.Context(), 2*time.Second, checks)
		if len(failures) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failures": failures})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
