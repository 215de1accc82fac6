package httpapi

import (
	"encoding/json"
	"time"

	"agenda/backend/internal/domain"
)

type clientResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type serviceResponse struct {
	ID              int64       `json:"id"`
	Name            string      `json:"name"`
	Price           json.Number `json:"price"`
	DurationMinutes int         `json:"duration"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// staffUserResponse never carries the password hash.
type staffUserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type appointmentResponse struct {
	ID          int64              `json:"id"`
	ScheduledAt time.Time          `json:"scheduledAt"`
	Status      domain.Status      `json:"status"`
	ClientID    int64              `json:"clientId"`
	ServiceID   int64              `json:"serviceId"`
	StaffUserID int64              `json:"staffUserId"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	Client      *clientResponse    `json:"client,omitempty"`
	Service     *serviceResponse   `json:"service,omitempty"`
	StaffUser   *staffUserResponse `json:"staffUser,omitempty"`
}

func toClientResponse(c domain.Client) clientResponse {
	return clientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
}

func toServiceResponse(s domain.Service) serviceResponse {
	return serviceResponse{
		ID:              s.ID,
		Name:            s.Name,
		Price:           json.Number(s.Price.String()),
		DurationMinutes: s.DurationMinutes,
		CreatedAt:       s.CreatedAt.UTC(),
		UpdatedAt:       s.UpdatedAt.UTC(),
	}
}

func toStaffUserResponse(u domain.StaffUser) staffUserResponse {
	return staffUserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
}

func toAppointmentResponse(a domain.Appointment) appointmentResponse {
	out := appointmentResponse{
		ID:          a.ID,
		ScheduledAt: a.ScheduledAt.UTC(),
		Status:      a.Status,
		ClientID:    a.ClientID,
		ServiceID:   a.ServiceID,
		StaffUserID: a.StaffUserID,
		CreatedAt:   a.CreatedAt.UTC(),
		UpdatedAt:   a.UpdatedAt.UTC(),
	}
	if a.Client != nil {
		c := toClientResponse(*a.Client)
		out.Client = &c
	}
	if a.Service != nil {
		s := toServiceResponse(*a.Service)
		out.Service = &s
	}
	if a.StaffUser != nil {
		u := toStaffUserResponse(*a.StaffUser)
		out.StaffUser = &u
	}
	return out
}
