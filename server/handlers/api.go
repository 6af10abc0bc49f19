package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
	wscommon "github.com/ParkChongsam/network-printer-scanner/common/ws"
	"github.com/ParkChongsam/network-printer-scanner/server/scanner"
	"github.com/ParkChongsam/network-printer-scanner/server/storage"
	"github.com/gorilla/mux"
)

const maxRequestBody = 64 << 10

// DeviceAPI serves the scan and device endpoints.
type DeviceAPI struct {
	service      *ScanService
	store        storage.Store
	events       Broadcaster
	log          Logger
	defaultRange func() string
	scanTimeout  time.Duration
}

// DeviceAPIOptions configures DeviceAPI.
type DeviceAPIOptions struct {
	Service *ScanService
	Store   storage.Store
	Events  Broadcaster
	Logger  Logger

	// DefaultRange supplies the network range used when a scan request
	// names neither a range nor an address.
	DefaultRange func() string

	// ScanTimeout bounds one scan request. Zero means no limit beyond the
	// request context.
	ScanTimeout time.Duration
}

// NewDeviceAPI creates a DeviceAPI.
func NewDeviceAPI(opts DeviceAPIOptions) *DeviceAPI {
	a := &DeviceAPI{
		service:      opts.Service,
		store:        opts.Store,
		events:       opts.Events,
		log:          opts.Logger,
		defaultRange: opts.DefaultRange,
		scanTimeout:  opts.ScanTimeout,
	}
	if a.events == nil {
		a.events = nopBroadcaster{}
	}
	if a.log == nil {
		a.log = nopLogger{}
	}
	if a.defaultRange == nil {
		a.defaultRange = func() string { return "" }
	}
	return a
}

// RegisterRoutes registers the device routes on r.
func (a *DeviceAPI) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/scan", a.HandleScan).Methods(http.MethodPost)
	r.HandleFunc("/api/scans", a.HandleScans).Methods(http.MethodGet)
	r.HandleFunc("/api/devices", a.HandleDevices).Methods(http.MethodGet)
	r.HandleFunc("/api/device/{ip}", a.HandleDevice).Methods(http.MethodGet)
	r.HandleFunc("/api/device/{ip}", a.HandleDeleteDevice).Methods(http.MethodDelete)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.MessageResponse{Success: false, Message: msg})
}

func (a *DeviceAPI) scanContext(r *http.Request) (context.Context, context.CancelFunc) {
	if a.scanTimeout > 0 {
		return context.WithTimeout(r.Context(), a.scanTimeout)
	}
	return context.WithCancel(r.Context())
}

// HandleScan handles POST /api/scan. A body naming ip_address scans that
// single host; otherwise network_range (or the configured default) is swept.
func (a *DeviceAPI) HandleScan(w http.ResponseWriter, r *http.Request) {
	var req api.ScanRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeFailure(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	ctx, cancel := a.scanContext(r)
	defer cancel()

	if ip := strings.TrimSpace(req.IPAddress); ip != "" {
		a.scanIP(ctx, w, ip)
		return
	}

	rangeText := strings.TrimSpace(req.NetworkRange)
	if rangeText == "" {
		rangeText = a.defaultRange()
	}
	devices, err := a.service.ScanRange(ctx, rangeText)
	switch {
	case errors.Is(err, scanner.ErrInvalidRange):
		writeFailure(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeFailure(w, http.StatusInternalServerError, "scan failed: "+err.Error())
	default:
		writeJSON(w, http.StatusOK, api.ScanResponse{
			Success: true,
			Message: api.ScanFoundMessage(len(devices)),
			Devices: devices,
		})
	}
}

func (a *DeviceAPI) scanIP(ctx context.Context, w http.ResponseWriter, ip string) {
	if err := api.ValidateIPv4(ip); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	_, err := a.service.ScanIP(ctx, ip)
	switch {
	case errors.Is(err, scanner.ErrNoPrinter):
		writeFailure(w, http.StatusNotFound, fmt.Sprintf("no printer found at %s", ip))
	case err != nil:
		writeFailure(w, http.StatusInternalServerError, "scan failed: "+err.Error())
	default:
		writeJSON(w, http.StatusOK, api.MessageResponse{Success: true, Message: api.MessageAdded})
	}
}

// HandleDevices handles GET /api/devices.
func (a *DeviceAPI) HandleDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := a.store.List(r.Context())
	if err != nil {
		a.log.Error("Failed to list devices", "error", err)
		writeFailure(w, http.StatusInternalServerError, "failed to list devices")
		return
	}
	writeJSON(w, http.StatusOK, api.DevicesResponse{Devices: devices})
}

// HandleDevice handles GET /api/device/{ip}. The stored record is refreshed
// over SNMP when the printer answers.
func (a *DeviceAPI) HandleDevice(w http.ResponseWriter, r *http.Request) {
	ip := mux.Vars(r)["ip"]
	if err := api.ValidateIPv4(ip); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := a.scanContext(r)
	defer cancel()

	d, err := a.service.Refresh(ctx, ip)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeFailure(w, http.StatusNotFound, fmt.Sprintf("no device with IP %s", ip))
	case err != nil:
		writeFailure(w, http.StatusInternalServerError, "failed to read device details: "+err.Error())
	default:
		writeJSON(w, http.StatusOK, api.DeviceResponse{Success: true, Device: d})
	}
}

// HandleDeleteDevice handles DELETE /api/device/{ip}.
func (a *DeviceAPI) HandleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	ip := mux.Vars(r)["ip"]
	if err := api.ValidateIPv4(ip); err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	err := a.store.Delete(r.Context(), ip)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeFailure(w, http.StatusNotFound, fmt.Sprintf("no device with IP %s", ip))
		return
	case err != nil:
		a.log.Error("Failed to delete device", "ip", ip, "error", err)
		writeFailure(w, http.StatusInternalServerError, "failed to delete device")
		return
	}

	a.log.Info("Device deleted", "ip", ip)
	a.events.Broadcast(wscommon.NewMessage(wscommon.MessageTypeDeviceDeleted, map[string]interface{}{"ip": ip}))
	writeJSON(w, http.StatusOK, api.MessageResponse{Success: true, Message: fmt.Sprintf("Device %s deleted", ip)})
}

type scanRecordJSON struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Target     string    `json:"target"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Found      int       `json:"found"`
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
}

// HandleScans handles GET /api/scans?limit=n and lists recent scans.
func (a *DeviceAPI) HandleScans(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			writeFailure(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	recs, err := a.service.RecentScans(r.Context(), limit)
	if err != nil {
		a.log.Error("Failed to list scans", "error", err)
		writeFailure(w, http.StatusInternalServerError, "failed to list scans")
		return
	}
	out := make([]scanRecordJSON, 0, len(recs))
	for _, rec := range recs {
		out = append(out, scanRecordJSON{
			ID:         rec.ID,
			Kind:       string(rec.Kind),
			Target:     rec.Target,
			StartedAt:  rec.StartedAt,
			FinishedAt: rec.FinishedAt,
			Found:      rec.Found,
			Success:    rec.Success,
			Message:    rec.Message,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "scans": out})
}
