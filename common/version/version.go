// Package version holds build metadata and the server/console protocol
// compatibility check.
package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Set at build time via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// ProtocolVersion is the version of the /api contract. Consoles accept any
// server whose protocol shares the same major version.
const ProtocolVersion = "1.0.0"

// Parse parses a version with or without a leading "v".
func Parse(raw string) (*semver.Version, error) {
	v, err := semver.NewVersion(strings.TrimPrefix(strings.TrimSpace(raw), "v"))
	if err != nil {
		return nil, fmt.Errorf("parse version %q: %w", raw, err)
	}
	return v, nil
}

// CheckProtocol reports an error when the server protocol is incompatible
// with ProtocolVersion. An empty server value predates versioning and is
// accepted.
func CheckProtocol(server string) error {
	if strings.TrimSpace(server) == "" {
		return nil
	}
	remote, err := Parse(server)
	if err != nil {
		return err
	}
	local, err := Parse(ProtocolVersion)
	if err != nil {
		return err
	}
	constraint, err := semver.NewConstraint(fmt.Sprintf("^%d.0.0", local.Major()))
	if err != nil {
		return fmt.Errorf("build constraint: %w", err)
	}
	if !constraint.Check(remote) {
		return fmt.Errorf("server protocol %s is not compatible with console protocol %s", remote, local)
	}
	return nil
}

// Newer reports whether candidate is a strictly newer release than current.
// Unparseable versions (such as "dev") never compare as newer.
func Newer(current, candidate string) bool {
	cur, err := Parse(current)
	if err != nil {
		return false
	}
	cand, err := Parse(candidate)
	if err != nil {
		return false
	}
	return cand.GreaterThan(cur)
}
