package auth

import (
	"regexp"
	"strings"
)

var phoneRe = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// normalizePhone strips formatting characters so that "+55 11 98888-0000" and
// "+5511988880000" resolve to the same account.
func normalizePhone(raw string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// validPhone reports whether the normalized number looks like a dialable
// phone number.
func validPhone(normalized string) bool {
	return phoneRe.MatchString(normalized)
}
