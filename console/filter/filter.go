// Package filter narrows a device list by the console's search and filter
// controls.
package filter

import (
	"fmt"
	"strings"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
)

// Mode selects which criteria are honoured.
type Mode string

const (
	// MultiField applies every criterion.
	MultiField Mode = "multi-field"
	// SearchOnly applies only the free-text search.
	SearchOnly Mode = "search-only"
)

// ParseMode parses a mode name. Empty means MultiField.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MultiField:
		return MultiField, nil
	case SearchOnly:
		return SearchOnly, nil
	}
	return "", fmt.Errorf("unknown filter mode %q", s)
}

// TonerBucket groups devices by black toner percentage.
type TonerBucket string

const (
	TonerAny    TonerBucket = ""
	TonerLow    TonerBucket = "low"    // <= 20
	TonerMedium TonerBucket = "medium" // 21..50
	TonerHigh   TonerBucket = "high"   // > 50
)

// ParseTonerBucket parses "", "all", low, medium or high.
func ParseTonerBucket(s string) (TonerBucket, error) {
	switch b := TonerBucket(strings.ToLower(strings.TrimSpace(s))); b {
	case TonerAny, TonerLow, TonerMedium, TonerHigh:
		return b, nil
	case "all":
		return TonerAny, nil
	}
	return "", fmt.Errorf("unknown toner filter %q (want low, medium or high)", s)
}

// BucketFor returns the bucket a black toner percentage falls in.
func BucketFor(percent int) TonerBucket {
	switch {
	case percent <= 20:
		return TonerLow
	case percent <= 50:
		return TonerMedium
	default:
		return TonerHigh
	}
}

// Criteria is the state of the filter controls.
type Criteria struct {
	Mode        Mode
	Search      string
	Location    string
	IP          string
	Toner       TonerBucket
	ShowOffline bool
	ShowWarning bool
}

// Default shows every device.
func Default() Criteria {
	return Criteria{Mode: MultiField, ShowOffline: true, ShowWarning: true}
}

// Apply returns the devices matching c, in input order. The input slice is
// never modified.
func Apply(devices []api.Device, c Criteria) []api.Device {
	search := strings.ToLower(strings.TrimSpace(c.Search))
	location := strings.ToLower(strings.TrimSpace(c.Location))
	ip := strings.ToLower(strings.TrimSpace(c.IP))

	out := make([]api.Device, 0, len(devices))
	for _, d := range devices {
		if search != "" && !containsAny(search, d.Name, d.Model, d.IP) {
			continue
		}
		if c.Mode == SearchOnly {
			out = append(out, d)
			continue
		}
		if location != "" && !containsAny(location, locationOf(d)) {
			continue
		}
		if ip != "" && !containsAny(ip, d.IP) {
			continue
		}
		switch d.NormalizedStatus() {
		case api.StatusOffline:
			if !c.ShowOffline {
				continue
			}
		case api.StatusWarning:
			if !c.ShowWarning {
				continue
			}
		}
		if c.Toner != TonerAny && BucketFor(d.TonerPercent(api.Black)) != c.Toner {
			continue
		}
		out = append(out, d)
	}
	return out
}

// locationOf falls back to the device name when no location was reported.
func locationOf(d api.Device) string {
	if strings.TrimSpace(d.Location) != "" {
		return d.Location
	}
	return d.Name
}

func containsAny(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
