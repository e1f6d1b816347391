package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	MaxUsernameLength = 64
	MaxPasswordLength = 128

	// wire format of a birthday
	birthdayLayout = "2006-01-02"
)

var birthdayRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateUsername checks a username supplied at creation or update.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if len(username) > MaxUsernameLength {
		return fmt.Errorf("username cannot exceed %d characters", MaxUsernameLength)
	}
	return nil
}

func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password cannot exceed %d characters", MaxPasswordLength)
	}
	return nil
}

// isBirthdayFormat reports whether s looks like YYYY-MM-DD.
func isBirthdayFormat(s string) bool {
	return birthdayRegex.MatchString(s)
}

// ParseBirthday checks the YYYY-MM-DD shape and that the date exists.
func ParseBirthday(s string) (time.Time, error) {
	if !isBirthdayFormat(s) {
		return time.Time{}, fmt.Errorf("birthday %q does not match YYYY-MM-DD", s)
	}
	t, err := time.Parse(birthdayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("birthday %q is not a calendar date", s)
	}
	return t, nil
}
