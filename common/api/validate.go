package api

import (
	"fmt"
	"strings"
)

// ValidationError reports input rejected before any request is made.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
}

// ValidateIPv4 accepts a dotted quad: four non-empty decimal segments each
// in 0..255. Signs, whitespace, hex and more than three digits per segment
// are rejected.
func ValidateIPv4(s string) error {
	fail := func(msg string) error {
		return &ValidationError{Field: "ip address", Value: s, Message: msg}
	}
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return fail("expected four dot-separated segments")
	}
	for _, p := range parts {
		if p == "" {
			return fail("empty segment")
		}
		if len(p) > 3 {
			return fail("segment too long")
		}
		n := 0
		for _, r := range p {
			if r < '0' || r > '9' {
				return fail("segment is not a decimal number")
			}
			n = n*10 + int(r-'0')
		}
		if n > 255 {
			return fail("segment out of range 0-255")
		}
	}
	return nil
}
