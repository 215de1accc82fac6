// Package projection assembles and orders the read views returned by the API.
package projection

import (
	"cmp"
	"slices"
	"strings"

	"agenda/backend/internal/domain"
)

// Expand attaches copies of the related records to a.
func Expand(a domain.Appointment, c domain.Client, s domain.Service, u domain.StaffUser) domain.Appointment {
	a.Client = &c
	a.Service = &s
	a.StaffUser = &u
	return a
}

// SortAppointments orders by scheduled time ascending, ties by id.
func SortAppointments(items []domain.Appointment) {
	slices.SortStableFunc(items, func(a, b domain.Appointment) int {
		if c := a.ScheduledAt.Compare(b.ScheduledAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortClients orders by name using byte-wise comparison, ties by id.
func SortClients(items []domain.Client) {
	slices.SortStableFunc(items, func(a, b domain.Client) int {
		return byName(a.Name, a.ID, b.Name, b.ID)
	})
}

func SortServices(items []domain.Service) {
	slices.SortStableFunc(items, func(a, b domain.Service) int {
		return byName(a.Name, a.ID, b.Name, b.ID)
	})
}

func SortStaffUsers(items []domain.StaffUser) {
	slices.SortStableFunc(items, func(a, b domain.StaffUser) int {
		return byName(a.Name, a.ID, b.Name, b.ID)
	})
}

func byName(an string, aid int64, bn string, bid int64) int {
	if c := strings.Compare(an, bn); c != 0 {
		return c
	}
	return cmp.Compare(aid, bid)
}
