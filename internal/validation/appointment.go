package validation

import (
	"time"

	"agenda/backend/internal/domain"
)

// Canonical field names followed by the keys the original UI sends.
var (
	keysScheduledAt = []string{"scheduledAt", "data"}
	keysStatus      = []string{"status"}
	keysClientID    = []string{"clientId", "clienteId"}
	keysServiceID   = []string{"serviceId", "servicoId"}
	keysStaffUserID = []string{"staffUserId", "usuarioId"}
)

const reasonUnknownStatus = "must be one of pending, confirmed, cancelled, completed"

type AppointmentInput struct {
	ScheduledAt time.Time
	Status      domain.Status
	ClientID    int64
	ServiceID   int64
	StaffUserID int64
}

// AppointmentPatch holds only the fields present in an update request.
type AppointmentPatch struct {
	ScheduledAt *time.Time
	Status      *domain.Status
	ClientID    *int64
	ServiceID   *int64
	StaffUserID *int64
}

func (p AppointmentPatch) Empty() bool {
	return p.ScheduledAt == nil && p.Status == nil && p.ClientID == nil && p.ServiceID == nil && p.StaffUserID == nil
}

// ValidateAppointmentInput checks a creation request. Status defaults to pending when omitted.
func ValidateAppointmentInput(raw Payload) (AppointmentInput, error) {
	var c collector
	in := AppointmentInput{Status: domain.StatusPending}

	if v, ok := raw.lookup(keysScheduledAt...); !ok || v == "" {
		c.missing(keysScheduledAt[0])
	} else if t, err := toTime(v); err != nil {
		c.invalid(keysScheduledAt[0], err.Error())
	} else {
		in.ScheduledAt = t
	}

	if v, ok := raw.lookup(keysStatus...); ok && v != "" {
		s, err := parseStatus(v)
		if err != nil {
			c.invalid(keysStatus[0], err.Error())
		} else {
			in.Status = s
		}
	}

	in.ClientID = requiredID(&c, raw, keysClientID)
	in.ServiceID = requiredID(&c, raw, keysServiceID)
	in.StaffUserID = requiredID(&c, raw, keysStaffUserID)

	if err := c.err(); err != nil {
		return AppointmentInput{}, err
	}
	return in, nil
}

// ValidateAppointmentPatch checks an update request. Empty strings count as absent.
func ValidateAppointmentPatch(raw Payload) (AppointmentPatch, error) {
	var c collector
	var p AppointmentPatch

	if v, ok := raw.lookup(keysScheduledAt...); ok && v != "" {
		if t, err := toTime(v); err != nil {
			c.invalid(keysScheduledAt[0], err.Error())
		} else {
			p.ScheduledAt = &t
		}
	}
	if v, ok := raw.lookup(keysStatus...); ok && v != "" {
		if s, err := parseStatus(v); err != nil {
			c.invalid(keysStatus[0], err.Error())
		} else {
			p.Status = &s
		}
	}
	p.ClientID = optionalID(&c, raw, keysClientID)
	p.ServiceID = optionalID(&c, raw, keysServiceID)
	p.StaffUserID = optionalID(&c, raw, keysStaffUserID)

	if err := c.err(); err != nil {
		return AppointmentPatch{}, err
	}
	return p, nil
}

func parseStatus(v any) (domain.Status, error) {
	s, ok := v.(string)
	if !ok {
		return "", errNotString
	}
	st, ok := domain.ParseStatus(s)
	if !ok {
		return "", statusError{}
	}
	return st, nil
}

type statusError struct{}

func (statusError) Error() string { return reasonUnknownStatus }

func requiredID(c *collector, raw Payload, keys []string) int64 {
	v, ok := raw.lookup(keys...)
	if !ok || v == "" {
		c.missing(keys[0])
		return 0
	}
	id, err := toID(v)
	if err != nil {
		c.invalid(keys[0], err.Error())
		return 0
	}
	return id
}

func optionalID(c *collector, raw Payload, keys []string) *int64 {
	v, ok := raw.lookup(keys...)
	if !ok || v == "" {
		return nil
	}
	id, err := toID(v)
	if err != nil {
		c.invalid(keys[0], err.Error())
		return nil
	}
	return &id
}
