package validate

import (
	"fmt"
	"regexp"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Name validates a project name: non-empty, at most 100 bytes.
func Name(v string) error {
	if v == "" {
		return fmt.Errorf("name is required")
	}
	if len(v) > 100 {
		return fmt.Errorf("name exceeds 100 characters")
	}
	return nil
}

// Email validates a collaborator identity.
func Email(v string) error {
	if v == "" {
		return fmt.Errorf("email is required")
	}
	if len(v) > 320 || !emailRx.MatchString(v) {
		return fmt.Errorf("invalid email")
	}
	return nil
}

// NonEmpty checks a required field.
func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}
