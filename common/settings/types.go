// Package settings defines the console's persisted scan settings and the
// coercion rules applied when they arrive from a form.
package settings

import "time"

// Settings captures the options a console operator can change. JSON names
// are the ones stored under StorageKey.
type Settings struct {
	NetworkRange  string `json:"networkRange" toml:"network_range"`
	ScanInterval  int    `json:"scanInterval" toml:"scan_interval"` // seconds
	SNMPCommunity string `json:"snmpCommunity" toml:"snmp_community"`
	SNMPVersion   int    `json:"snmpVersion" toml:"snmp_version"`
	AutoScan      bool   `json:"autoScan" toml:"auto_scan"`
}

// Interval returns ScanInterval as a duration, raised to MinScanInterval.
func (s Settings) Interval() time.Duration {
	return time.Duration(max(s.ScanInterval, MinScanInterval)) * time.Second
}

// BelowMinInterval reports whether ScanInterval is shorter than the timer
// will actually run.
func (s Settings) BelowMinInterval() bool {
	return s.ScanInterval < MinScanInterval
}
