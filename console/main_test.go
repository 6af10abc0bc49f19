package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
	pmsettings "github.com/ParkChongsam/network-printer-scanner/common/settings"
	"github.com/ParkChongsam/network-printer-scanner/common/version"
)

// fakeServer answers the backend endpoints the console commands use and
// records every scan request.
type fakeServer struct {
	mu      sync.Mutex
	scans   []api.ScanRequest
	devices []api.Device
}

func (f *fakeServer) handler() http.Handler {
	writeJSON := func(w http.ResponseWriter, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, api.VersionInfo{Version: "test", ProtocolVersion: version.ProtocolVersion})
	})
	mux.HandleFunc("/api/scan", func(w http.ResponseWriter, r *http.Request) {
		var req api.ScanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(w, api.MessageResponse{Success: false, Message: err.Error()})
			return
		}
		f.mu.Lock()
		f.scans = append(f.scans, req)
		devices := f.devices
		f.mu.Unlock()
		if req.IPAddress != "" {
			writeJSON(w, api.MessageResponse{Success: true, Message: api.MessageAdded})
			return
		}
		writeJSON(w, api.ScanResponse{Success: true, Message: api.ScanFoundMessage(len(devices)), Devices: devices})
	})
	mux.HandleFunc("/api/devices", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, api.DevicesResponse{Devices: f.devices})
	})
	return mux
}

func (f *fakeServer) scanRequests() []api.ScanRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.ScanRequest(nil), f.scans...)
}

func newTestApp(t *testing.T, scanMode string) (*app, *fakeServer, *bytes.Buffer) {
	t.Helper()

	fake := &fakeServer{devices: []api.Device{{IP: "10.0.0.5", Name: "lobby", Status: "online"}}}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.Server.URL = srv.URL
	cfg.Console.ScanMode = scanMode
	cfg.Console.DataDir = t.TempDir()
	cfg.Console.Color = false
	cfg.Logging.Level = "error"
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	a, err := newApp(cfg, &out)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(a.close)
	return a, fake, &out
}

func TestScanCommandSingleIPMode(t *testing.T) {
	t.Parallel()

	a, fake, out := newTestApp(t, "single-ip")
	if err := a.run(context.Background(), "scan", []string{"10.0.0.5"}); err != nil {
		t.Fatalf("scan: %v", err)
	}

	scans := fake.scanRequests()
	if len(scans) != 1 {
		t.Fatalf("scan requests = %d, want 1", len(scans))
	}
	if scans[0].IPAddress != "10.0.0.5" || scans[0].NetworkRange != "" {
		t.Errorf("request = %+v, want a single-address scan", scans[0])
	}
	if !strings.Contains(out.String(), "10.0.0.5") {
		t.Errorf("reloaded list not printed:\n%s", out.String())
	}
}

func TestScanCommandSingleIPModeNeedsAddress(t *testing.T) {
	t.Parallel()

	a, fake, _ := newTestApp(t, "single-ip")
	if err := a.run(context.Background(), "scan", nil); !errors.Is(err, errUsage) {
		t.Errorf("err = %v, want usage error", err)
	}
	if n := len(fake.scanRequests()); n != 0 {
		t.Errorf("scan requests = %d, want none", n)
	}
}

func TestScanCommandNetworkModeRange(t *testing.T) {
	t.Parallel()

	a, fake, _ := newTestApp(t, "network")
	if err := a.run(context.Background(), "scan", []string{"192.168.5.0/24"}); err != nil {
		t.Fatalf("scan: %v", err)
	}

	scans := fake.scanRequests()
	if len(scans) != 1 || scans[0].NetworkRange != "192.168.5.0/24" || scans[0].IPAddress != "" {
		t.Fatalf("requests = %+v, want one range scan", scans)
	}
	saved, err := a.store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if saved.NetworkRange != pmsettings.DefaultSettings().NetworkRange {
		t.Errorf("one-off range was persisted: %q", saved.NetworkRange)
	}
}

func TestListCommandRejectsTonerBucket(t *testing.T) {
	t.Parallel()

	a, _, out := newTestApp(t, "network")
	if err := a.run(context.Background(), "list", []string{"-toner", "empty"}); err == nil {
		t.Fatal("expected an error for an unknown toner bucket")
	}
	if !strings.Contains(out.String(), "unknown toner filter") {
		t.Errorf("error not shown:\n%s", out.String())
	}
}

func TestRenderShowsLatestNotification(t *testing.T) {
	t.Parallel()

	a, _, out := newTestApp(t, "single-ip")
	if err := a.run(context.Background(), "scan-ip", []string{"10.0.0.5"}); err != nil {
		t.Fatal(err)
	}
	out.Reset()

	a.render(a.ctrl.State().Devices())
	if !strings.Contains(out.String(), "[success] Added") {
		t.Errorf("latest notification missing from the screen:\n%s", out.String())
	}
}
