package auth

import (
	"fmt"
	"regexp"
	"strings"
)

const maxEmailLength = 254

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,50}$`)
	emailPattern    = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9\-]+(\.[a-z0-9\-]+)*\.[a-z]{2,}$`)
)

// Username is a validated login name: 3 to 50 letters, digits or underscores.
type Username string

// Email is a trimmed, lower-cased address that matches the accepted shape.
type Email string

// ParseUsername validates raw as a username.
func ParseUsername(raw string) (Username, error) {
	raw = strings.TrimSpace(raw)
	if !usernamePattern.MatchString(raw) {
		return "", fmt.Errorf("%w: username must be 3-50 letters, digits or underscores", ErrInvalidInput)
	}
	return Username(raw), nil
}

// ParseEmail normalizes and validates raw as an email address.
func ParseEmail(raw string) (Email, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if len(raw) > maxEmailLength || !emailPattern.MatchString(raw) {
		return "", fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	return Email(raw), nil
}

func (u Username) String() string { return string(u) }
func (e Email) String() string    { return string(e) }
