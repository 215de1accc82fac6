package domain

import "strings"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Statuses lists every accepted appointment status.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

// Words the browser UI has always sent.
var statusAliases = map[string]Status{
	"pendente":   StatusPending,
	"confirmado": StatusConfirmed,
	"cancelado":  StatusCancelled,
	"concluido":  StatusCompleted,
	"concluído":  StatusCompleted,
	"canceled":   StatusCancelled,
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus maps a raw status word to its canonical value.
func ParseStatus(raw string) (Status, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if s := Status(v); s.Valid() {
		return s, true
	}
	s, ok := statusAliases[v]
	return s, ok
}
