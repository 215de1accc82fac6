package validation

var (
	keysName  = []string{"name", "nome"}
	keysPhone = []string{"phone", "telefone"}
	keysEmail = []string{"email"}
)

type ClientInput struct {
	Name  string
	Phone string
	Email *string
}

// ClientPatch carries present fields only. A non-nil empty Email clears it.
type ClientPatch struct {
	Name  *string
	Phone *string
	Email *string
}

func ValidateClientInput(raw Payload) (ClientInput, error) {
	var c collector
	var in ClientInput

	in.Name = requiredString(&c, raw, keysName)
	in.Phone = requiredString(&c, raw, keysPhone)
	if v, ok := raw.lookup(keysEmail...); ok {
		s, err := toString(v)
		if err != nil {
			c.invalid(keysEmail[0], err.Error())
		} else if s != "" {
			in.Email = &s
		}
	}

	if err := c.err(); err != nil {
		return ClientInput{}, err
	}
	return in, nil
}

func ValidateClientPatch(raw Payload) (ClientPatch, error) {
	var c collector
	var p ClientPatch

	p.Name = nonEmptyString(&c, raw, keysName)
	p.Phone = nonEmptyString(&c, raw, keysPhone)
	if _, present := raw[keysEmail[0]]; present {
		v := raw[keysEmail[0]]
		empty := ""
		if v == nil {
			p.Email = &empty
		} else if s, err := toString(v); err != nil {
			c.invalid(keysEmail[0], err.Error())
		} else {
			p.Email = &s
		}
	}

	if err := c.err(); err != nil {
		return ClientPatch{}, err
	}
	return p, nil
}

func requiredString(c *collector, raw Payload, keys []string) string {
	v, ok := raw.lookup(keys...)
	if !ok {
		c.missing(keys[0])
		return ""
	}
	s, err := toString(v)
	if err != nil {
		c.invalid(keys[0], err.Error())
		return ""
	}
	if s == "" {
		c.missing(keys[0])
	}
	return s
}

// nonEmptyString validates an optional string that may not be blanked once set.
func nonEmptyString(c *collector, raw Payload, keys []string) *string {
	v, ok := raw.lookup(keys...)
	if !ok {
		return nil
	}
	s, err := toString(v)
	if err != nil {
		c.invalid(keys[0], err.Error())
		return nil
	}
	if s == "" {
		c.invalid(keys[0], "must not be empty")
		return nil
	}
	return &s
}
