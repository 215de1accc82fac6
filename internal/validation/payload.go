package validation

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"agenda/backend/internal/domain"
)

// Payload is a decoded JSON object as received from a client.
type Payload map[string]any

// lookup returns the first non-null value among keys. A key holding null counts as absent.
func (p Payload) lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := p[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

var (
	errNotInteger  = errors.New("must be a positive integer")
	errNotString   = errors.New("must be a string")
	errNotDateTime = errors.New("must be an ISO-8601 date-time")
	errNotNumber   = errors.New("must be a number")
)

const maxSafeInteger = 1<<53 - 1

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseID parses a path identifier.
func ParseID(raw string) (int64, error) {
	id, err := toInt64(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, &Error{Fields: []FieldError{{Field: "id", Reason: errNotInteger.Error()}}}
	}
	return id, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) || math.Abs(n) > maxSafeInteger {
			return 0, errNotInteger
		}
		return int64(n), nil
	case json.Number:
		return toInt64(n.String())
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, errNotInteger
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, errNotInteger
		}
		return i, nil
	default:
		return 0, errNotInteger
	}
}

func toID(v any) (int64, error) {
	id, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, errNotInteger
	}
	return id, nil
}

func toString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errNotString
	}
	return strings.TrimSpace(s), nil
}

func toTime(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, errNotDateTime
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.NormalizeTime(t), nil
		}
	}
	return time.Time{}, errNotDateTime
}

func toMoney(v any) (domain.Money, error) {
	switch n := v.(type) {
	case float64:
		return domain.MoneyFromFloat(n)
	case json.Number:
		return domain.ParseMoney(n.String())
	case int:
		return domain.Money(int64(n) * 100), nil
	case string:
		return domain.ParseMoney(strings.TrimSpace(n))
	default:
		return 0, errNotNumber
	}
}
