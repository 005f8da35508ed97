package validator

import (
	"errors"
	"net/mail"
	"strings"
)

// ValidEmail checks the address parses and is a bare address (no display
// name), which is what the unique email column expects.
func ValidEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return errors.New("invalid email format")
	}
	if addr.Address != email || strings.ContainsAny(email, " <>") {
		return errors.New("invalid email format")
	}
	return nil
}
