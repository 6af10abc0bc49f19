// Package session owns the Device Console's state and the actions the
// operator (or the auto-scan timer) triggers against the backend.
package session

import (
	"sync"
	"sync/atomic"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
	pmsettings "github.com/ParkChongsam/network-printer-scanner/common/settings"
	"github.com/ParkChongsam/network-printer-scanner/console/filter"
)

// State is the console's session state. The device list is replaced
// wholesale and never mutated in place.
type State struct {
	devices atomic.Pointer[[]api.Device]
	scans   atomic.Int32

	mu       sync.RWMutex
	settings pmsettings.Settings
	criteria filter.Criteria
}

// NewState returns a State with an empty device list, default settings and
// criteria that show every device.
func NewState() *State {
	s := &State{settings: pmsettings.DefaultSettings(), criteria: filter.Default()}
	empty := []api.Device{}
	s.devices.Store(&empty)
	return s
}

// Devices returns the current list. Callers must not modify it.
func (s *State) Devices() []api.Device {
	return *s.devices.Load()
}

// ReplaceDevices swaps in a copy of list, discarding the previous list.
func (s *State) ReplaceDevices(list []api.Device) {
	next := api.CloneDevices(list)
	if next == nil {
		next = []api.Device{}
	}
	s.devices.Store(&next)
}

// Settings returns the active settings.
func (s *State) Settings() pmsettings.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetSettings replaces the active settings.
func (s *State) SetSettings(cfg pmsettings.Settings) {
	s.mu.Lock()
	s.settings = cfg
	s.mu.Unlock()
}

// Criteria returns the current filter control values.
func (s *State) Criteria() filter.Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.criteria
}

// UpdateCriteria applies fn to the filter control values.
func (s *State) UpdateCriteria(fn func(*filter.Criteria)) filter.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.criteria)
	return s.criteria
}

// ScanInProgress reports whether the scan control is disabled.
func (s *State) ScanInProgress() bool {
	return s.scans.Load() > 0
}

func (s *State) beginScan() func() {
	s.scans.Add(1)
	return func() { s.scans.Add(-1) }
}
