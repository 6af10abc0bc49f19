package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
	"github.com/gorilla/mux"
)

// HealthAPI provides HTTP handlers for health checks and version information.
type HealthAPI struct {
	version         string
	buildTime       string
	gitCommit       string
	protocolVersion string
	processStart    time.Time
	subscribers     func() int
}

// HealthAPIOptions configures the health API.
type HealthAPIOptions struct {
	Version         string
	BuildTime       string
	GitCommit       string
	ProtocolVersion string
	ProcessStart    time.Time

	// Subscribers optionally reports the number of connected event watchers.
	Subscribers func() int
}

// NewHealthAPI creates a new health API instance.
func NewHealthAPI(opts HealthAPIOptions) *HealthAPI {
	if opts.ProcessStart.IsZero() {
		opts.ProcessStart = time.Now()
	}
	return &HealthAPI{
		version:         opts.Version,
		buildTime:       opts.BuildTime,
		gitCommit:       opts.GitCommit,
		protocolVersion: opts.ProtocolVersion,
		processStart:    opts.ProcessStart,
		subscribers:     opts.Subscribers,
	}
}

// RegisterRoutes registers the health and version routes.
func (h *HealthAPI) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/version", h.HandleVersion).Methods(http.MethodGet)
}

// HandleHealth handles GET /health.
func (h *HealthAPI) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

type versionResponse struct {
	api.VersionInfo
	GoVersion   string `json:"go_version"`
	OS          string `json:"os"`
	Arch        string `json:"arch"`
	Uptime      string `json:"uptime"`
	Subscribers *int   `json:"subscribers,omitempty"`
}

// HandleVersion handles GET /api/version.
func (h *HealthAPI) HandleVersion(w http.ResponseWriter, r *http.Request) {
	resp := versionResponse{
		VersionInfo: api.VersionInfo{
			Version:         h.version,
			ProtocolVersion: h.protocolVersion,
			BuildTime:       h.buildTime,
			GitCommit:       h.gitCommit,
		},
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Uptime:    time.Since(h.processStart).Round(time.Second).String(),
	}
	if h.subscribers != nil {
		n := h.subscribers()
		resp.Subscribers = &n
	}
	writeJSON(w, http.StatusOK, resp)
}

// RunHealthCheck probes the /health endpoint of a server listening on port
// of the local host. It backs the -health-check flag used by containers.
func RunHealthCheck(port int) error {
	return probeHealthEndpoint(fmt.Sprintf("http://127.0.0.1:%d/health", port))
}

func probeHealthEndpoint(endpoint string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if payload.Status != "healthy" {
		return fmt.Errorf("unhealthy status: %s", payload.Status)
	}
	return nil
}
