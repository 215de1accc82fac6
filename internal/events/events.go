// Package events publishes appointment lifecycle notifications.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"agenda/backend/internal/domain"
)

type Type string

const (
	AppointmentCreated Type = "appointment.created"
	AppointmentUpdated Type = "appointment.updated"
	AppointmentDeleted Type = "appointment.deleted"
)

type Event struct {
	ID            uuid.UUID     `json:"id"`
	Type          Type          `json:"type"`
	AppointmentID int64         `json:"appointmentId"`
	Status        domain.Status `json:"status"`
	ScheduledAt   time.Time     `json:"scheduledAt"`
	ClientID      int64         `json:"clientId"`
	ServiceID     int64         `json:"serviceId"`
	StaffUserID   int64         `json:"staffUserId"`
	OccurredAt    time.Time     `json:"occurredAt"`
}

// NewAppointmentEvent snapshots a for an event of type t.
func NewAppointmentEvent(t Type, a domain.Appointment, now time.Time) Event {
	return Event{
		ID:            uuid.New(),
		Type:          t,
		AppointmentID: a.ID,
		Status:        a.Status,
		ScheduledAt:   a.ScheduledAt,
		ClientID:      a.ClientID,
		ServiceID:     a.ServiceID,
		StaffUserID:   a.StaffUserID,
		OccurredAt:    now.UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }

// Observed calls observe after every publish attempt on p.
func Observed(p Publisher, observe func(t Type, err error)) Publisher {
	return observedPublisher{Publisher: p, observe: observe}
}

type observedPublisher struct {
	Publisher
	observe func(t Type, err error)
}

func (o observedPublisher) Publish(ctx context.Context, ev Event) error {
	err := o.Publisher.Publish(ctx, ev)
	o.observe(ev.Type, err)
	return err
}
