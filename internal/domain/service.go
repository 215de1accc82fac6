package domain

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Service is a bookable offering, e.g. a haircut.
type Service struct {
	bun.BaseModel `bun:"table:services,alias:service"`

	ID              int64     `bun:"id,pk,autoincrement"`
	Name            string    `bun:"name,notnull"`
	Price           Money     `bun:"price_cents,notnull"`
	DurationMinutes int       `bun:"duration_minutes,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}

func (s *Service) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	stampTimes(query, &s.CreatedAt, &s.UpdatedAt)
	return nil
}
