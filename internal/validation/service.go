package validation

import "agenda/backend/internal/domain"

var (
	keysPrice    = []string{"price", "preco"}
	keysDuration = []string{"duration", "duracao", "durationMinutes"}
)

const (
	reasonNegativePrice = "must be zero or greater"
	reasonDuration      = "must be a positive whole number of minutes"
)

type ServiceInput struct {
	Name            string
	Price           domain.Money
	DurationMinutes int
}

type ServicePatch struct {
	Name            *string
	Price           *domain.Money
	DurationMinutes *int
}

func ValidateServiceInput(raw Payload) (ServiceInput, error) {
	var c collector
	var in ServiceInput

	in.Name = requiredString(&c, raw, keysName)
	if v, ok := raw.lookup(keysPrice...); !ok || v == "" {
		c.missing(keysPrice[0])
	} else if m, ok := price(&c, v); ok {
		in.Price = m
	}
	if v, ok := raw.lookup(keysDuration...); !ok || v == "" {
		c.missing(keysDuration[0])
	} else if d, ok := duration(&c, v); ok {
		in.DurationMinutes = d
	}

	if err := c.err(); err != nil {
		return ServiceInput{}, err
	}
	return in, nil
}

func ValidateServicePatch(raw Payload) (ServicePatch, error) {
	var c collector
	var p ServicePatch

	p.Name = nonEmptyString(&c, raw, keysName)
	if v, ok := raw.lookup(keysPrice...); ok && v != "" {
		if m, ok := price(&c, v); ok {
			p.Price = &m
		}
	}
	if v, ok := raw.lookup(keysDuration...); ok && v != "" {
		if d, ok := duration(&c, v); ok {
			p.DurationMinutes = &d
		}
	}

	if err := c.err(); err != nil {
		return ServicePatch{}, err
	}
	return p, nil
}

func price(c *collector, v any) (domain.Money, bool) {
	m, err := toMoney(v)
	if err != nil {
		c.invalid(keysPrice[0], errNotNumber.Error())
		return 0, false
	}
	if m < 0 {
		c.invalid(keysPrice[0], reasonNegativePrice)
		return 0, false
	}
	return m, true
}

func duration(c *collector, v any) (int, bool) {
	n, err := toInt64(v)
	if err != nil || n <= 0 || n > 24*60*365 {
		c.invalid(keysDuration[0], reasonDuration)
		return 0, false
	}
	return int(n), true
}
