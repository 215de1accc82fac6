// Package catalog manages the bookable services.
package catalog

import (
	"context"

	"agenda/backend/internal/domain"
	"agenda/backend/internal/store"
	"agenda/backend/internal/validation"
)

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

func (s *Service) List(ctx context.Context) ([]domain.Service, error) {
	return store.View(ctx, s.store, func(ctx context.Context, tx store.Tx) ([]domain.Service, error) {
		return tx.ListServices(ctx)
	})
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Service, error) {
	return store.View(ctx, s.store, func(ctx context.Context, tx store.Tx) (domain.Service, error) {
		return tx.GetService(ctx, id)
	})
}

func (s *Service) Create(ctx context.Context, raw validation.Payload) (domain.Service, error) {
	in, err := validation.ValidateServiceInput(raw)
	if err != nil {
		return domain.Service{}, err
	}
	return store.View(ctx, s.store, func(ctx context.Context, tx store.Tx) (domain.Service, error) {
		return tx.InsertService(ctx, domain.Service{Name: in.Name, Price: in.Price, DurationMinutes: in.DurationMinutes})
	})
}

func (s *Service) Update(ctx context.Context, id int64, raw validation.Payload) (domain.Service, error) {
	return store.View(ctx, s.store, func(ctx context.Context, tx store.Tx) (domain.Service, error) {
		cur, err := tx.GetService(ctx, id)
		if err != nil {
			return domain.Service{}, err
		}
		patch, err := validation.ValidateServicePatch(raw)
		if err != nil {
			return domain.Service{}, err
		}
		if patch.Name != nil {
			cur.Name = *patch.Name
		}
		if patch.Price != nil {
			cur.Price = *patch.Price
		}
		if patch.DurationMinutes != nil {
			cur.DurationMinutes = *patch.DurationMinutes
		}
		return tx.UpdateService(ctx, cur)
	})
}

func (s *Service) Remove(ctx context.Context, id int64) error {
	return s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.DeleteService(ctx, id)
	})
}
