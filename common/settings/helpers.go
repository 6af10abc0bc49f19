package settings

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Sanitize fills blank text fields and unknown SNMP versions with their
// defaults. ScanInterval is stored as given; Interval applies the minimum.
func Sanitize(s *Settings) {
	if s == nil {
		return
	}
	def := DefaultSettings()
	s.NetworkRange = strings.TrimSpace(s.NetworkRange)
	if s.NetworkRange == "" {
		s.NetworkRange = def.NetworkRange
	}
	s.SNMPCommunity = strings.TrimSpace(s.SNMPCommunity)
	if s.SNMPCommunity == "" {
		s.SNMPCommunity = def.SNMPCommunity
	}
	if !ValidSNMPVersion(s.SNMPVersion) {
		s.SNMPVersion = def.SNMPVersion
	}
}

// ValidSNMPVersion reports whether v is 1, 2 (v2c) or 3.
func ValidSNMPVersion(v int) bool {
	return v >= 1 && v <= 3
}

// FromForm applies string form values on top of base. Keys are the JSON
// names; keys absent from form keep base's value. Integers follow parseInt
// rules: a leading integer prefix is accepted ("60s" is 60), anything else
// is an error.
func FromForm(base Settings, form map[string]string) (Settings, error) {
	out := base
	for key, raw := range form {
		field, ok := Lookup(key)
		if !ok {
			return base, fmt.Errorf("unknown setting %q", key)
		}
		switch field.Type {
		case FieldTypeNumber:
			n, err := ParseIntPrefix(raw)
			if err != nil {
				return base, fmt.Errorf("%s: %w", key, err)
			}
			field.setInt(&out, n)
		case FieldTypeBool:
			b, err := parseBool(raw)
			if err != nil {
				return base, fmt.Errorf("%s: %w", key, err)
			}
			field.setBool(&out, b)
		default:
			field.setText(&out, raw)
		}
	}
	return out, nil
}

// ParseIntPrefix parses the leading (optionally signed) decimal integer of
// s after skipping leading whitespace. Trailing characters are ignored.
func ParseIntPrefix(s string) (int, error) {
	t := strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(t) && (t[end] == '+' || t[end] == '-') {
		end++
	}
	digits := end
	for end < len(t) && t[end] >= '0' && t[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	n, err := strconv.Atoi(t[:end])
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", s, err)
	}
	return n, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on", "checked":
		return true, nil
	case "0", "false", "no", "off", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// ComputeSettingsVersion hashes the payload to produce a change token.
func ComputeSettingsVersion(cfg Settings) (string, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:8]), nil
}
