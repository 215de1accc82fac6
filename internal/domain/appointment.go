package domain

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type Appointment struct {
	bun.BaseModel `bun:"table:appointments,alias:appointment"`

	ID          int64     `bun:"id,pk,autoincrement"`
	ScheduledAt time.Time `bun:"scheduled_at,notnull"`
	Status      Status    `bun:"status,notnull"`
	ClientID    int64     `bun:"client_id,notnull"`
	ServiceID   int64     `bun:"service_id,notnull"`
	StaffUserID int64     `bun:"staff_user_id,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`

	// Populated only on expanded reads.
	Client    *Client    `bun:"rel:belongs-to,join:client_id=id"`
	Service   *Service   `bun:"rel:belongs-to,join:service_id=id"`
	StaffUser *StaffUser `bun:"rel:belongs-to,join:staff_user_id=id"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	stampTimes(query, &a.CreatedAt, &a.UpdatedAt)
	return nil
}

// Expanded reports whether all three related records are attached.
func (a Appointment) Expanded() bool {
	return a.Client != nil && a.Service != nil && a.StaffUser != nil
}

// Row returns a copy without the related records.
func (a Appointment) Row() Appointment {
	a.Client = nil
	a.Service = nil
	a.StaffUser = nil
	return a
}

// NormalizeTime converts t to the precision and zone every store keeps.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func stampTimes(query bun.Query, createdAt, updatedAt *time.Time) {
	now := NormalizeTime(time.Now())
	switch query.(type) {
	case *bun.InsertQuery:
		if createdAt.IsZero() {
			*createdAt = now
		}
		if updatedAt.IsZero() {
			*updatedAt = now
		}
	case *bun.UpdateQuery:
		*updatedAt = now
	}
}
