// Package api defines the JSON contract shared by the scanner server and the
// device console.
package api

import (
	"strings"
)

// Status is the reported health of a device.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
	StatusWarning Status = "warning"
)

// Placeholder is shown for text fields the device did not report.
const Placeholder = "unknown"

// NormalizeStatus lower-cases s. Anything other than offline or warning is
// treated as online.
func NormalizeStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusOffline:
		return StatusOffline
	case StatusWarning:
		return StatusWarning
	default:
		return StatusOnline
	}
}

// TonerChannel names one colorant.
type TonerChannel string

const (
	Black   TonerChannel = "black"
	Cyan    TonerChannel = "cyan"
	Magenta TonerChannel = "magenta"
	Yellow  TonerChannel = "yellow"
)

// Channels lists the toner channels in supply-index order (1..4).
var Channels = []TonerChannel{Black, Cyan, Magenta, Yellow}

// TonerLevel is one supply reading.
type TonerLevel struct {
	Level   int `json:"level"`
	Max     int `json:"max"`
	Percent int `json:"percent"`
}

// NewTonerLevel builds a reading and derives its percentage.
func NewTonerLevel(level, max int) TonerLevel {
	return TonerLevel{Level: level, Max: max, Percent: ComputePercent(level, max)}
}

// DefaultTonerLevel is used when a supply cannot be read.
func DefaultTonerLevel() TonerLevel {
	return TonerLevel{Level: 0, Max: 100, Percent: 0}
}

// ComputePercent returns level/max as a truncated percentage in [0,100].
// A non-positive max yields 0.
func ComputePercent(level, max int) int {
	if max <= 0 {
		return 0
	}
	return clampPercent(level * 100 / max)
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Device is one printer as reported by the backend. Text fields are
// display strings and may be empty.
type Device struct {
	IP         string                      `json:"ip"`
	Name       string                      `json:"name"`
	Model      string                      `json:"model"`
	Serial     string                      `json:"serial"`
	Location   string                      `json:"location,omitempty"`
	Contact    string                      `json:"contact,omitempty"`
	Uptime     string                      `json:"uptime,omitempty"`
	LastUpdate string                      `json:"last_update"`
	Status     string                      `json:"status"`
	PageCount  int                         `json:"page_count"`
	Toner      map[TonerChannel]TonerLevel `json:"toner"`
}

// NormalizedStatus returns the device status folded to a known value.
func (d Device) NormalizedStatus() Status {
	return NormalizeStatus(d.Status)
}

// TonerPercent returns the clamped percentage for channel, 0 when missing.
func (d Device) TonerPercent(ch TonerChannel) int {
	if d.Toner == nil {
		return 0
	}
	t, ok := d.Toner[ch]
	if !ok {
		return 0
	}
	return clampPercent(t.Percent)
}

// Display returns s, or Placeholder when s is blank.
func Display(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

// Clone returns a deep copy of the device.
func (d Device) Clone() Device {
	if d.Toner != nil {
		toner := make(map[TonerChannel]TonerLevel, len(d.Toner))
		for k, v := range d.Toner {
			toner[k] = v
		}
		d.Toner = toner
	}
	return d
}

// CloneDevices deep-copies a device list.
func CloneDevices(in []Device) []Device {
	if in == nil {
		return nil
	}
	out := make([]Device, len(in))
	for i, d := range in {
		out[i] = d.Clone()
	}
	return out
}
