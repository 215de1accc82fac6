// Package staff manages the staff users appointments are booked with.
package staff

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"agenda/backend/internal/domain"
	"agenda/backend/internal/store"
	"agenda/backend/internal/validation"
)

type Service struct {
	store store.Store
	cost  int
}

type Option func(*Service)

// WithBcryptCost lowers the hashing cost, mainly for tests.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{store: st, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context) ([]domain.StaffUser, error) {
	return store.View(ctx, s.store, func(ctx context.Context, tx store.Tx) ([]domain.StaffUser, error) {
		return tx.ListStaffUsers(ctx)
	})
}

func (s *Service) Get(ctx context.Context, id int64) (domain.StaffUser, error) {
	return store.View(ctx, s.store, func(ctx context.Context, tx store.Tx) (domain.StaffUser, error) {
		return tx.GetStaffUser(ctx, id)
	})
}

// Create stores a bcrypt hash of the password, never the password itself.
func (s *Service) Create(ctx context.Context, raw validation.Payload) (domain.StaffUser, error) {
	in, err := validation.ValidateStaffUserInput(raw)
	if err != nil {
		return domain.StaffUser{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return domain.StaffUser{}, &validation.Error{Fields: []validation.FieldError{{Field: "password", Reason: err.Error()}}}
	}
	return store.View(ctx, s.store, func(ctx context.Context, tx store.Tx) (domain.StaffUser, error) {
		return tx.InsertStaffUser(ctx, domain.StaffUser{Name: in.Name, Email: in.Email, PasswordHash: string(hash)})
	})
}

func (s *Service) Remove(ctx context.Context, id int64) error {
	return s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.DeleteStaffUser(ctx, id)
	})
}

// CheckPassword reports whether password matches u's stored hash.
func CheckPassword(u domain.StaffUser, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
