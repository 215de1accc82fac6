// Package memory is an in-process Store used for local runs and tests.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"agenda/backend/internal/domain"
	"agenda/backend/internal/projection"
	"agenda/backend/internal/store"
)

type state struct {
	clients      map[int64]domain.Client
	services     map[int64]domain.Service
	staffUsers   map[int64]domain.StaffUser
	appointments map[int64]domain.Appointment
	nextID       map[store.Kind]int64
}

func newState() state {
	return state{
		clients:      map[int64]domain.Client{},
		services:     map[int64]domain.Service{},
		staffUsers:   map[int64]domain.StaffUser{},
		appointments: map[int64]domain.Appointment{},
		nextID:       map[store.Kind]int64{},
	}
}

// Records hold no shared pointers except Client.Email, which is never mutated in place.
func (s state) clone() state {
	return state{
		clients:      maps.Clone(s.clients),
		services:     maps.Clone(s.services),
		staffUsers:   maps.Clone(s.staffUsers),
		appointments: maps.Clone(s.appointments),
		nextID:       maps.Clone(s.nextID),
	}
}

// Store serializes units of work behind one mutex. A failed unit leaves no trace.
type Store struct {
	mu    sync.Mutex
	state state
	now   func() time.Time
}

type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{state: newState(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{state: s.state.clone(), now: domain.NormalizeTime(s.now())}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

type memTx struct {
	state state
	now   time.Time
}

func (t *memTx) next(kind store.Kind) int64 {
	t.state.nextID[kind]++
	return t.state.nextID[kind]
}

func (t *memTx) Exists(ctx context.Context, kind store.Kind, id int64) (bool, error) {
	var ok bool
	switch kind {
	case store.KindClient:
		_, ok = t.state.clients[id]
	case store.KindService:
		_, ok = t.state.services[id]
	case store.KindStaffUser:
		_, ok = t.state.staffUsers[id]
	case store.KindAppointment:
		_, ok = t.state.appointments[id]
	}
	return ok, nil
}

func (t *memTx) CountAppointmentsReferencing(ctx context.Context, kind store.Kind, id int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	for _, a := range t.state.appointments {
		switch {
		case kind == store.KindClient && a.ClientID == id,
			kind == store.KindService && a.ServiceID == id,
			kind == store.KindStaffUser && a.StaffUserID == id:
			n++
		}
	}
	return n, nil
}

func (t *memTx) ListClients(ctx context.Context) ([]domain.Client, error) {
	out := make([]domain.Client, 0, len(t.state.clients))
	for _, c := range t.state.clients {
		out = append(out, c)
	}
	projection.SortClients(out)
	return out, nil
}

func (t *memTx) GetClient(ctx context.Context, id int64) (domain.Client, error) {
	c, ok := t.state.clients[id]
	if !ok {
		return domain.Client{}, store.NotFound(store.KindClient, id)
	}
	return c, nil
}

func (t *memTx) InsertClient(ctx context.Context, c domain.Client) (domain.Client, error) {
	c.ID = t.next(store.KindClient)
	c.CreatedAt, c.UpdatedAt = t.now, t.now
	t.state.clients[c.ID] = c
	return c, nil
}

func (t *memTx) UpdateClient(ctx context.Context, c domain.Client) (domain.Client, error) {
	prev, ok := t.state.clients[c.ID]
	if !ok {
		return domain.Client{}, store.NotFound(store.KindClient, c.ID)
	}
	c.CreatedAt, c.UpdatedAt = prev.CreatedAt, t.now
	t.state.clients[c.ID] = c
	return c, nil
}

func (t *memTx) DeleteClient(ctx context.Context, id int64) error {
	if _, ok := t.state.clients[id]; !ok {
		return store.NotFound(store.KindClient, id)
	}
	if err := t.restrict(ctx, store.KindClient, id); err != nil {
		return err
	}
	delete(t.state.clients, id)
	return nil
}

// restrict fails when appointments still reference the record.
func (t *memTx) restrict(ctx context.Context, kind store.Kind, id int64) error {
	n, err := t.CountAppointmentsReferencing(ctx, kind, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return &store.ReferencedError{Kind: kind, ID: id, Count: n}
	}
	return nil
}

func (t *memTx) ListServices(ctx context.Context) ([]domain.Service, error) {
	out := make([]domain.Service, 0, len(t.state.services))
	for _, s := range t.state.services {
		out = append(out, s)
	}
	projection.SortServices(out)
	return out, nil
}

func (t *memTx) GetService(ctx context.Context, id int64) (domain.Service, error) {
	s, ok := t.state.services[id]
	if !ok {
		return domain.Service{}, store.NotFound(store.KindService, id)
	}
	return s, nil
}

func (t *memTx) InsertService(ctx context.Context, s domain.Service) (domain.Service, error) {
	s.ID = t.next(store.KindService)
	s.CreatedAt, s.UpdatedAt = t.now, t.now
	t.state.services[s.ID] = s
	return s, nil
}

func (t *memTx) UpdateService(ctx context.Context, s domain.Service) (domain.Service, error) {
	prev, ok := t.state.services[s.ID]
	if !ok {
		return domain.Service{}, store.NotFound(store.KindService, s.ID)
	}
	s.CreatedAt, s.UpdatedAt = prev.CreatedAt, t.now
	t.state.services[s.ID] = s
	return s, nil
}

func (t *memTx) DeleteService(ctx context.Context, id int64) error {
	if _, ok := t.state.services[id]; !ok {
		return store.NotFound(store.KindService, id)
	}
	if err := t.restrict(ctx, store.KindService, id); err != nil {
		return err
	}
	delete(t.state.services, id)
	return nil
}

func (t *memTx) ListStaffUsers(ctx context.Context) ([]domain.StaffUser, error) {
	out := make([]domain.StaffUser, 0, len(t.state.staffUsers))
	for _, u := range t.state.staffUsers {
		out = append(out, u)
	}
	projection.SortStaffUsers(out)
	return out, nil
}

func (t *memTx) GetStaffUser(ctx context.Context, id int64) (domain.StaffUser, error) {
	u, ok := t.state.staffUsers[id]
	if !ok {
		return domain.StaffUser{}, store.NotFound(store.KindStaffUser, id)
	}
	return u, nil
}

func (t *memTx) InsertStaffUser(ctx context.Context, u domain.StaffUser) (domain.StaffUser, error) {
	for _, existing := range t.state.staffUsers {
		if existing.Email == u.Email {
			return domain.StaffUser{}, &store.DuplicateError{Kind: store.KindStaffUser, Field: "email"}
		}
	}
	u.ID = t.next(store.KindStaffUser)
	u.CreatedAt, u.UpdatedAt = t.now, t.now
	t.state.staffUsers[u.ID] = u
	return u, nil
}

func (t *memTx) DeleteStaffUser(ctx context.Context, id int64) error {
	if _, ok := t.state.staffUsers[id]; !ok {
		return store.NotFound(store.KindStaffUser, id)
	}
	if err := t.restrict(ctx, store.KindStaffUser, id); err != nil {
		return err
	}
	delete(t.state.staffUsers, id)
	return nil
}

func (t *memTx) GetAppointment(ctx context.Context, id int64) (domain.Appointment, error) {
	a, ok := t.state.appointments[id]
	if !ok {
		return domain.Appointment{}, store.NotFound(store.KindAppointment, id)
	}
	return a, nil
}

func (t *memTx) InsertAppointment(ctx context.Context, a domain.Appointment) (domain.Appointment, error) {
	a = a.Row()
	if err := t.checkRefs(a); err != nil {
		return domain.Appointment{}, err
	}
	a.ID = t.next(store.KindAppointment)
	a.ScheduledAt = domain.NormalizeTime(a.ScheduledAt)
	a.CreatedAt, a.UpdatedAt = t.now, t.now
	t.state.appointments[a.ID] = a
	return a, nil
}

func (t *memTx) UpdateAppointment(ctx context.Context, a domain.Appointment) (domain.Appointment, error) {
	a = a.Row()
	prev, ok := t.state.appointments[a.ID]
	if !ok {
		return domain.Appointment{}, store.NotFound(store.KindAppointment, a.ID)
	}
	if err := t.checkRefs(a); err != nil {
		return domain.Appointment{}, err
	}
	a.ScheduledAt = domain.NormalizeTime(a.ScheduledAt)
	a.CreatedAt, a.UpdatedAt = prev.CreatedAt, t.now
	t.state.appointments[a.ID] = a
	return a, nil
}

// checkRefs plays the role of the foreign keys a relational store enforces.
func (t *memTx) checkRefs(a domain.Appointment) error {
	if _, ok := t.state.clients[a.ClientID]; !ok {
		return store.ErrConflict
	}
	if _, ok := t.state.services[a.ServiceID]; !ok {
		return store.ErrConflict
	}
	if _, ok := t.state.staffUsers[a.StaffUserID]; !ok {
		return store.ErrConflict
	}
	return nil
}

func (t *memTx) DeleteAppointment(ctx context.Context, id int64) error {
	if _, ok := t.state.appointments[id]; !ok {
		return store.NotFound(store.KindAppointment, id)
	}
	delete(t.state.appointments, id)
	return nil
}

func (t *memTx) GetAppointmentDetail(ctx context.Context, id int64) (domain.Appointment, error) {
	a, ok := t.state.appointments[id]
	if !ok {
		return domain.Appointment{}, store.NotFound(store.KindAppointment, id)
	}
	return t.expand(a), nil
}

func (t *memTx) ListAppointmentDetails(ctx context.Context) ([]domain.Appointment, error) {
	out := make([]domain.Appointment, 0, len(t.state.appointments))
	for _, a := range t.state.appointments {
		out = append(out, t.expand(a))
	}
	projection.SortAppointments(out)
	return out, nil
}

func (t *memTx) expand(a domain.Appointment) domain.Appointment {
	return projection.Expand(a, t.state.clients[a.ClientID], t.state.services[a.ServiceID], t.state.staffUsers[a.StaffUserID])
}
