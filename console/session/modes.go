package session

import (
	"fmt"
	"strings"
)

// ScanMode selects what the scan control does.
type ScanMode string

const (
	// ScanModeNetwork sweeps the configured network range.
	ScanModeNetwork ScanMode = "network"
	// ScanModeSingleIP scans the address given with the event.
	ScanModeSingleIP ScanMode = "single-ip"
)

// ParseScanMode parses a scan mode name. Empty means ScanModeNetwork.
func ParseScanMode(s string) (ScanMode, error) {
	switch ScanMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScanModeNetwork:
		return ScanModeNetwork, nil
	case ScanModeSingleIP:
		return ScanModeSingleIP, nil
	}
	return "", fmt.Errorf("unknown scan mode %q (want network or single-ip)", s)
}
