package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in cents.
type Money int64

var ErrInvalidMoney = errors.New("invalid money amount")

// MoneyFromFloat rounds f to two decimal places.
func MoneyFromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidMoney
	}
	cents := math.Round(f * 100)
	if math.Abs(cents) > math.MaxInt64/2 {
		return 0, ErrInvalidMoney
	}
	return Money(cents), nil
}

// ParseMoney accepts "30", "30.5", "30.50" and the decimal comma form "30,50".
func ParseMoney(s string) (Money, error) {
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, ErrInvalidMoney
	}
	return MoneyFromFloat(f)
}

// String renders the amount with exactly two decimals.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (m Money) Value() (driver.Value, error) {
	return int64(m), nil
}

func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*m = Money(v)
	case int32:
		*m = Money(v)
	case float64:
		*m = Money(math.Round(v))
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return err
		}
		*m = Money(n)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		*m = Money(n)
	case nil:
		*m = 0
	default:
		return fmt.Errorf("money: unsupported scan type %T", src)
	}
	return nil
}
