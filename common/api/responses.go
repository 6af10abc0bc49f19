package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ScanRequest is the body of POST /api/scan. Exactly one field is expected;
// an empty request scans the server's configured range.
type ScanRequest struct {
	NetworkRange string `json:"network_range,omitempty"`
	IPAddress    string `json:"ip_address,omitempty"`
}

// ScanResponse answers POST /api/scan. A range scan always fills Devices;
// a single-address scan answers with a MessageResponse instead, so clients
// decoding into ScanResponse see a nil Devices slice.
type ScanResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Devices []Device `json:"devices"`
}

// DevicesResponse answers GET /api/devices.
type DevicesResponse struct {
	Devices []Device `json:"devices"`
}

// UnmarshalJSON accepts both {"devices":[...]} and a bare array.
func (r *DevicesResponse) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []Device
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		r.Devices = list
		return nil
	}
	var wrapped struct {
		Devices []Device `json:"devices"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return err
	}
	r.Devices = wrapped.Devices
	return nil
}

// DeviceResponse answers GET /api/device/{ip}.
type DeviceResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	Device  *Device `json:"device,omitempty"`
}

// MessageResponse answers DELETE /api/device/{ip} and reports errors.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// VersionInfo answers GET /api/version.
type VersionInfo struct {
	Version         string `json:"version"`
	ProtocolVersion string `json:"protocol_version"`
	BuildTime       string `json:"build_time,omitempty"`
	GitCommit       string `json:"git_commit,omitempty"`
}

// ScanFoundMessage is the success message of a range scan.
func ScanFoundMessage(n int) string {
	return fmt.Sprintf("%d devices found", n)
}

// MessageAdded is returned when a single address was scanned and stored.
const MessageAdded = "Added"
