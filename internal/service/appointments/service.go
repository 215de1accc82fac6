// Package appointments is the only write path for appointment records.
package appointments

import (
	"context"
	"log/slog"
	"time"

	"agenda/backend/internal/domain"
	"agenda/backend/internal/events"
	"agenda/backend/internal/store"
	"agenda/backend/internal/validation"
)

// TransitionGuard may veto a status change. Returning a *validation.Error rejects the update.
type TransitionGuard func(from, to domain.Status) error

type Service struct {
	store     store.Store
	publisher events.Publisher
	log       *slog.Logger
	guard     TransitionGuard
	now       func() time.Time
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithTransitionGuard(g TransitionGuard) Option {
	return func(s *Service) { s.guard = g }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:     st,
		publisher: events.NopPublisher{},
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(slog.String("component", "service.appointments"))
	return s
}

// Create validates raw, checks that the client, service and staff user exist, then inserts.
func (s *Service) Create(ctx context.Context, raw validation.Payload) (domain.Appointment, error) {
	in, err := validation.ValidateAppointmentInput(raw)
	if err != nil {
		return domain.Appointment{}, err
	}

	out, err := store.View(ctx, s.store, func(ctx context.Context, tx store.Tx) (domain.Appointment, error) {
		if err := resolve(ctx, tx, store.KindClient, in.ClientID); err != nil {
			return domain.Appointment{}, err
		}
		if err := resolve(ctx, tx, store.KindService, in.ServiceID); err != nil {
			return domain.Appointment{}, err
		}
		if err := resolve(ctx, tx, store.KindStaffUser, in.StaffUserID); err != nil {
			return domain.Appointment{}, err
		}

		row, err := tx.InsertAppointment(ctx, domain.Appointment{
			ScheduledAt: in.ScheduledAt,
			Status:      in.Status,
			ClientID:    in.ClientID,
			ServiceID:   in.ServiceID,
			StaffUserID: in.StaffUserID,
		})
		if err != nil {
			return domain.Appointment{}, err
		}
		return tx.GetAppointmentDetail(ctx, row.ID)
	})
	if err != nil {
		return domain.Appointment{}, err
	}

	s.publish(ctx, events.AppointmentCreated, out)
	return out, nil
}

// Update applies the fields present in raw. Absent fields keep their stored values.
func (s *Service) Update(ctx context.Context, id int64, raw validation.Payload) (domain.Appointment, error) {
	changed := false
	out, err := store.View(ctx, s.store, func(ctx context.Context, tx store.Tx) (domain.Appointment, error) {
		cur, err := tx.GetAppointment(ctx, id)
		if err != nil {
			return domain.Appointment{}, err
		}

		patch, err := validation.ValidateAppointmentPatch(raw)
		if err != nil {
			return domain.Appointment{}, err
		}
		if patch.StaffUserID != nil && *patch.StaffUserID != cur.StaffUserID {
			return domain.Appointment{}, validation.Immutable("staffUserId")
		}

		next := cur
		if patch.ScheduledAt != nil {
			next.ScheduledAt = *patch.ScheduledAt
		}
		if patch.Status != nil {
			if s.guard != nil && *patch.Status != cur.Status {
				if err := s.guard(cur.Status, *patch.Status); err != nil {
					return domain.Appointment{}, err
				}
			}
			next.Status = *patch.Status
		}
		if patch.ClientID != nil {
			if err := resolve(ctx, tx, store.KindClient, *patch.ClientID); err != nil {
				return domain.Appointment{}, err
			}
			next.ClientID = *patch.ClientID
		}
		if patch.ServiceID != nil {
			if err := resolve(ctx, tx, store.KindService, *patch.ServiceID); err != nil {
				return domain.Appointment{}, err
			}
			next.ServiceID = *patch.ServiceID
		}

		if sameRow(cur, next) {
			return tx.GetAppointmentDetail(ctx, id)
		}
		if _, err := tx.UpdateAppointment(ctx, next); err != nil {
			return domain.Appointment{}, err
		}
		changed = true
		return tx.GetAppointmentDetail(ctx, id)
	})
	if err != nil {
		return domain.Appointment{}, err
	}

	if changed {
		s.publish(ctx, events.AppointmentUpdated, out)
	}
	return out, nil
}

// Remove deletes the appointment. Related records are untouched.
func (s *Service) Remove(ctx context.Context, id int64) error {
	var removed domain.Appointment
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		cur, err := tx.GetAppointment(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteAppointment(ctx, id); err != nil {
			return err
		}
		removed = cur
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.AppointmentDeleted, removed)
	return nil
}

// List returns every appointment expanded, ordered by scheduled time then id.
func (s *Service) List(ctx context.Context) ([]domain.Appointment, error) {
	return store.View(ctx, s.store, func(ctx context.Context, tx store.Tx) ([]domain.Appointment, error) {
		return tx.ListAppointmentDetails(ctx)
	})
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Appointment, error) {
	return store.View(ctx, s.store, func(ctx context.Context, tx store.Tx) (domain.Appointment, error) {
		return tx.GetAppointmentDetail(ctx, id)
	})
}

func resolve(ctx context.Context, tx store.Tx, kind store.Kind, id int64) error {
	ok, err := tx.Exists(ctx, kind, id)
	if err != nil {
		return err
	}
	if !ok {
		return store.NotFound(kind, id)
	}
	return nil
}

func sameRow(a, b domain.Appointment) bool {
	return a.ScheduledAt.Equal(b.ScheduledAt) &&
		a.Status == b.Status &&
		a.ClientID == b.ClientID &&
		a.ServiceID == b.ServiceID &&
		a.StaffUserID == b.StaffUserID
}

// publish runs after commit. A failed publish never undoes the write.
func (s *Service) publish(ctx context.Context, t events.Type, a domain.Appointment) {
	ev := events.NewAppointmentEvent(t, a, s.now())
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("publish appointment event failed",
			slog.String("type", string(t)),
			slog.Int64("appointment_id", a.ID),
			slog.Any("err", err),
		)
	}
}

// ForwardOnly rejects moving a completed or cancelled appointment back to an open status.
func ForwardOnly(from, to domain.Status) error {
	closed := from == domain.StatusCompleted || from == domain.StatusCancelled
	open := to == domain.StatusPending || to == domain.StatusConfirmed
	if closed && open {
		return &validation.Error{Fields: []validation.FieldError{{
			Field:  "status",
			Reason: "cannot move from " + from.String() + " to " + to.String(),
		}}}
	}
	return nil
}
