package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"agenda/backend/internal/health"
	"agenda/backend/internal/service/appointments"
	"agenda/backend/internal/service/catalog"
	"agenda/backend/internal/service/clients"
	"agenda/backend/internal/service/staff"
	"agenda/backend/internal/store/memory"
)

type fakeLimiter struct {
	allowFn func(ctx context.Context, key string) (bool, error)
}

func (f *fakeLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if f.allowFn == nil {
		panic("Allow not configured")
	}
	return f.allowFn(ctx, key)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, mutate func(*Deps)) http.Handler {
	t.Helper()
	st := memory.New()
	d := Deps{
		Appointments:   appointments.NewService(st),
		Clients:        clients.NewService(st),
		Catalog:        catalog.NewService(st),
		Staff:          staff.NewService(st, staff.WithBcryptCost(bcrypt.MinCost)),
		Log:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		BodyLimitBytes: 1 << 16,
	}
	if mutate != nil {
		mutate(&d)
	}
	return NewRouter(d)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

// seed creates client "Ana", service "Cut" and one staff user through the API.
func seed(t *testing.T, h http.Handler) {
	t.Helper()
	steps := []struct{ path, body string }{
		{"/clientes", `{"nome":"Ana","telefone":"111"}`},
		{"/servicos", `{"nome":"Cut","preco":30,"duracao":30}`},
		{"/usuarios", `{"nome":"Bia","email":"Bia@Example.com","senha":"secret"}`},
	}
	for _, s := range steps {
		if rec := do(t, h, http.MethodPost, s.path, s.body); rec.Code != http.StatusCreated {
			t.Fatalf("POST %s: status=%d body=%s", s.path, rec.Code, rec.Body.String())
		}
	}
}

func TestAppointmentLifecycle(t *testing.T) {
	h := newTestRouter(t, nil)
	seed(t, h)

	rec := do(t, h, http.MethodPost, "/agendamentos",
		`{"data":"2024-12-20T10:00:00Z","clienteId":1,"servicoId":"1","usuarioId":1}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rec.Code, rec.Body.String())
	}
	created := decode[appointmentResponse](t, rec)
	if created.Status != "pending" {
		t.Fatalf("status=%q, want pending", created.Status)
	}
	if created.Client == nil || created.Client.Name != "Ana" || created.Service == nil || created.Service.Name != "Cut" {
		t.Fatalf("relations not expanded: %+v", created)
	}
	if created.StaffUser == nil || created.StaffUser.Email != "bia@example.com" {
		t.Fatalf("staff user=%+v", created.StaffUser)
	}

	rec = do(t, h, http.MethodPatch, "/agendamentos/1", `{"status":"confirmed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rec.Code, rec.Body.String())
	}
	updated := decode[appointmentResponse](t, rec)
	if updated.Status != "confirmed" || !updated.ScheduledAt.Equal(created.ScheduledAt) {
		t.Fatalf("updated=%+v", updated)
	}

	rec = do(t, h, http.MethodGet, "/agendamentos", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status=%d", rec.Code)
	}
	if list := decode[[]appointmentResponse](t, rec); len(list) != 1 || list[0].Client == nil {
		t.Fatalf("list=%+v", list)
	}

	rec = do(t, h, http.MethodDelete, "/agendamentos/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status=%d body=%s", rec.Code, rec.Body.String())
	}
	if msg := decode[map[string]string](t, rec)["message"]; msg == "" {
		t.Fatalf("delete body=%s", rec.Body.String())
	}

	if rec = do(t, h, http.MethodGet, "/agendamentos/1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d", rec.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	h := newTestRouter(t, nil)
	seed(t, h)
	if rec := do(t, h, http.MethodPost, "/agendamentos",
		`{"scheduledAt":"2024-12-20T10:00:00Z","clientId":1,"serviceId":1,"staffUserId":1}`); rec.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rec.Code, rec.Body.String())
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"missing fields", http.MethodPost, "/agendamentos", `{}`, http.StatusBadRequest},
		{"unknown client", http.MethodPost, "/agendamentos", `{"scheduledAt":"2024-12-20T10:00:00Z","clientId":9,"serviceId":1,"staffUserId":1}`, http.StatusNotFound},
		{"bad status", http.MethodPut, "/agendamentos/1", `{"status":"maybe"}`, http.StatusBadRequest},
		{"update missing id", http.MethodPut, "/agendamentos/99", `{"status":"bogus"}`, http.StatusNotFound},
		{"non numeric id", http.MethodGet, "/agendamentos/abc", "", http.StatusBadRequest},
		{"array body", http.MethodPost, "/clientes", `[1,2]`, http.StatusBadRequest},
		{"null body", http.MethodPost, "/clientes", `null`, http.StatusBadRequest},
		{"empty body", http.MethodPost, "/clientes", "", http.StatusBadRequest},
		{"trailing data", http.MethodPatch, "/agendamentos/1", `{"status":"confirmed"} junk`, http.StatusBadRequest},
		{"two objects", http.MethodPatch, "/agendamentos/1", `{"status":"confirmed"}{"status":"cancelled"}`, http.StatusBadRequest},
		{"referenced client", http.MethodDelete, "/clientes/1", "", http.StatusConflict},
		{"referenced service", http.MethodDelete, "/servicos/1", "", http.StatusConflict},
		{"duplicate email", http.MethodPost, "/usuarios", `{"name":"Other","email":"bia@example.com","password":"x"}`, http.StatusConflict},
		{"staff cannot be updated", http.MethodPut, "/usuarios/1", `{"name":"X"}`, http.StatusMethodNotAllowed},
		{"unknown route", http.MethodGet, "/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status=%d, want %d, body=%s", rec.Code, tt.want, rec.Body.String())
			}
			if resp := decode[errorResponse](t, rec); resp.Error == "" {
				t.Fatalf("missing error message: %s", rec.Body.String())
			}
		})
	}

	if rec := do(t, h, http.MethodGet, "/clientes/1", ""); rec.Code != http.StatusOK {
		t.Fatalf("client should survive rejected delete, status=%d", rec.Code)
	}
}

func TestValidationFieldsInBody(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, http.MethodPost, "/agendamentos", `{"status":"pending"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	resp := decode[errorResponse](t, rec)
	var fields []string
	for _, f := range resp.Fields {
		fields = append(fields, f.Field)
	}
	want := []string{"scheduledAt", "clientId", "serviceId", "staffUserId"}
	if strings.Join(fields, ",") != strings.Join(want, ",") {
		t.Fatalf("fields=%v, want %v", fields, want)
	}
}

func TestStaffUserResponseOmitsPassword(t *testing.T) {
	h := newTestRouter(t, nil)
	seed(t, h)

	rec := do(t, h, http.MethodGet, "/usuarios/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "secret") || strings.Contains(strings.ToLower(body), "password") {
		t.Fatalf("response leaks credentials: %s", body)
	}
}

func TestServicePriceRendering(t *testing.T) {
	h := newTestRouter(t, nil)
	rec := do(t, h, http.MethodPost, "/servicos", `{"name":"Color","price":"45,5","duration":60}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"price":45.50`)) {
		t.Fatalf("body=%s", rec.Body.String())
	}
}

func TestBodyLimit(t *testing.T) {
	h := newTestRouter(t, func(d *Deps) { d.BodyLimitBytes = 16 })
	rec := do(t, h, http.MethodPost, "/clientes", `{"name":"`+strings.Repeat("a", 64)+`","phone":"1"}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name  string
		allow func(ctx context.Context, key string) (bool, error)
		want  int
	}{
		{"allowed", func(context.Context, string) (bool, error) { return true, nil }, http.StatusOK},
		{"denied", func(context.Context, string) (bool, error) { return false, nil }, http.StatusTooManyRequests},
		{"backend error fails open", func(context.Context, string) (bool, error) { return false, errors.New("redis down") }, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, func(d *Deps) { d.Limiter = &fakeLimiter{allowFn: tt.allow} })
			if rec := do(t, h, http.MethodGet, "/clientes", ""); rec.Code != tt.want {
				t.Fatalf("status=%d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestOperationalEndpoints(t *testing.T) {
	failing := health.Check{Name: "database", Fn: func(context.Context) error { return errors.New("down") }}

	h := newTestRouter(t, nil)
	if rec := do(t, h, http.MethodGet, "/", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/agendamentos") {
		t.Fatalf("index status=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("readyz status=%d", rec.Code)
	}

	do(t, h, http.MethodGet, "/clientes", "")
	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `route="/clientes"`) {
		t.Fatalf("metrics status=%d", rec.Code)
	}

	h = newTestRouter(t, func(d *Deps) { d.ReadyChecks = []health.Check{failing} })
	rec = do(t, h, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "database") {
		t.Fatalf("readyz status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRequestIDAndCORS(t *testing.T) {
	h := newTestRouter(t, func(d *Deps) {
		d.CORS = CORSPolicy{AllowedOrigins: []string{"http://localhost:5173"}}
	})

	req := httptest.NewRequest(http.MethodOptions, "/clientes", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status=%d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow origin=%q", got)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("request id=%q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/clientes", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unexpected CORS header for unlisted origin")
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatal("missing generated request id")
	}
}
