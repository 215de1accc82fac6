package domain

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type StaffUser struct {
	bun.BaseModel `bun:"table:staff_users,alias:staff_user"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Name         string    `bun:"name,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

func (u *StaffUser) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	stampTimes(query, &u.CreatedAt, &u.UpdatedAt)
	return nil
}
