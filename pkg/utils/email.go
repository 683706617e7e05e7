package utils

import (
	"net/mail"
	"strings"
)

// NormalizeEmail trims whitespace. Case is preserved: records are keyed by the exact
// string the identity provider issued.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// IsValidEmail reports whether email is a bare RFC 5322 address (no display name).
func IsValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// EmailLocalPart returns the part before '@', used as a greeting name.
// "priya.k@example.com" -> "priya.k"; input without '@' is returned unchanged.
func EmailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}
