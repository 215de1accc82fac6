package validation

import "strings"

var keysPassword = []string{"password", "senha"}

type StaffUserInput struct {
	Name     string
	Email    string
	Password string
}

// ValidateStaffUserInput requires name, email and password. Emails are lower-cased.
func ValidateStaffUserInput(raw Payload) (StaffUserInput, error) {
	var c collector
	var in StaffUserInput

	in.Name = requiredString(&c, raw, keysName)
	in.Email = strings.ToLower(requiredString(&c, raw, keysEmail))
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		c.invalid(keysEmail[0], "must be an email address")
	}
	if v, ok := raw.lookup(keysPassword...); !ok {
		c.missing(keysPassword[0])
	} else if s, ok := v.(string); !ok {
		c.invalid(keysPassword[0], errNotString.Error())
	} else if s == "" {
		c.missing(keysPassword[0])
	} else {
		in.Password = s
	}

	if err := c.err(); err != nil {
		return StaffUserInput{}, err
	}
	return in, nil
}
