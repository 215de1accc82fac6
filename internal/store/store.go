package store

import (
	"context"

	"agenda/backend/internal/domain"
)

// Tx is the set of operations available inside one unit of work.
// Get, Update and Delete return a *NotFoundError when the row is absent.
type Tx interface {
	Exists(ctx context.Context, kind Kind, id int64) (bool, error)
	// CountAppointmentsReferencing counts appointments pointing at a client, service or staff user.
	CountAppointmentsReferencing(ctx context.Context, kind Kind, id int64) (int, error)

	ListClients(ctx context.Context) ([]domain.Client, error)
	GetClient(ctx context.Context, id int64) (domain.Client, error)
	InsertClient(ctx context.Context, c domain.Client) (domain.Client, error)
	UpdateClient(ctx context.Context, c domain.Client) (domain.Client, error)
	DeleteClient(ctx context.Context, id int64) error

	ListServices(ctx context.Context) ([]domain.Service, error)
	GetService(ctx context.Context, id int64) (domain.Service, error)
	InsertService(ctx context.Context, s domain.Service) (domain.Service, error)
	UpdateService(ctx context.Context, s domain.Service) (domain.Service, error)
	DeleteService(ctx context.Context, id int64) error

	ListStaffUsers(ctx context.Context) ([]domain.StaffUser, error)
	GetStaffUser(ctx context.Context, id int64) (domain.StaffUser, error)
	InsertStaffUser(ctx context.Context, u domain.StaffUser) (domain.StaffUser, error)
	DeleteStaffUser(ctx context.Context, id int64) error

	GetAppointment(ctx context.Context, id int64) (domain.Appointment, error)
	InsertAppointment(ctx context.Context, a domain.Appointment) (domain.Appointment, error)
	UpdateAppointment(ctx context.Context, a domain.Appointment) (domain.Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) error

	// GetAppointmentDetail returns the appointment with client, service and staff user attached.
	GetAppointmentDetail(ctx context.Context, id int64) (domain.Appointment, error)
	// ListAppointmentDetails returns every expanded appointment ordered by scheduled time, then id.
	ListAppointmentDetails(ctx context.Context) ([]domain.Appointment, error)
}

// Store runs units of work. fn's changes are committed only when it returns nil.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}

// View runs fn in a transaction and returns its result.
func View[T any](ctx context.Context, s Store, fn func(ctx context.Context, tx Tx) (T, error)) (T, error) {
	var out T
	err := s.InTx(ctx, func(ctx context.Context, tx Tx) error {
		v, err := fn(ctx, tx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
