// Package clients manages client records.
package clients

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

// List returns clients ordered by name, then id.
func (s *Service) List(ctx context.Context) ([]domain.Client, error) {
	return store.View(ctx, s.store, func(ctx context.Context, tx store.Tx) ([]domain.Client, error) {
		return tx.ListClients(ctx)
	})
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Client, error) {
	return store.View(ctx, s.store, func(ctx context.Context, tx store.Tx) (domain.Client, error) {
		return tx.GetClient(ctx, id)
	})
}

func (s *Service) Create(ctx context.Context, raw validation.Payload) (domain.Client, error) {
	in, err := validation.ValidateClientInput(raw)
	if err != nil {
		return domain.Client{}, err
	}
	return store.View(ctx, s.store, func(ctx context.Context, tx store.Tx) (domain.Client, error) {
		return tx.InsertClient(ctx, domain.Client{Name: in.Name, Phone: in.Phone, Email: in.Email})
	})
}

// Update applies the present fields. An empty email clears it.
func (s *Service) Update(ctx context.Context, id int64, raw validation.Payload) (domain.Client, error) {
	return store.View(ctx, s.store, func(ctx context.Context, tx store.Tx) (domain.Client, error) {
		cur, err := tx.GetClient(ctx, id)
		if err != nil {
			return domain.Client{}, err
		}
		patch, err := validation.ValidateClientPatch(raw)
		if err != nil {
			return domain.Client{}, err
		}
		if patch.Name != nil {
			cur.Name = *patch.Name
		}
		if patch.Phone != nil {
			cur.Phone = *patch.Phone
		}
		if patch.Email != nil {
			if *patch.Email == "" {
				cur.Email = nil
			} else {
				email := *patch.Email
				cur.Email = &email
			}
		}
		return tx.UpdateClient(ctx, cur)
	})
}

// Remove refuses with a *store.ReferencedError while appointments point at the client.
func (s *Service) Remove(ctx context.Context, id int64) error {
	return s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.DeleteClient(ctx, id)
	})
}
