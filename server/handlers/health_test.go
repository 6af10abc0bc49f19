package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestHealthAPI_HandleHealth(t *testing.T) {
	t.Parallel()

	h := NewHealthAPI(HealthAPIOptions{Version: "1.0.0"})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status, ok := resp["status"].(string); !ok || status != "healthy" {
		t.Errorf("expected status=healthy, got %v", resp["status"])
	}
	if _, ok := resp["timestamp"]; !ok {
		t.Error("expected timestamp in response")
	}
}

func TestHealthAPI_HandleVersion(t *testing.T) {
	t.Parallel()

	h := NewHealthAPI(HealthAPIOptions{
		Version:         "1.4.2",
		BuildTime:       "2025-11-01",
		GitCommit:       "abc123",
		ProtocolVersion: "1.0.0",
		ProcessStart:    time.Now().Add(-time.Minute),
		Subscribers:     func() int { return 3 },
	})

	r := mux.NewRouter()
	h.RegisterRoutes(r)
	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	want := map[string]string{
		"version":          "1.4.2",
		"protocol_version": "1.0.0",
		"build_time":       "2025-11-01",
		"git_commit":       "abc123",
	}
	for k, v := range want {
		if resp[k] != v {
			t.Errorf("%s = %v, want %q", k, resp[k], v)
		}
	}
	if resp["subscribers"] != float64(3) {
		t.Errorf("subscribers = %v", resp["subscribers"])
	}
	if _, ok := resp["go_version"]; !ok {
		t.Error("expected go_version in response")
	}
}

func TestRunHealthCheck(t *testing.T) {
	t.Parallel()

	h := NewHealthAPI(HealthAPIOptions{})
	srv := httptest.NewServer(http.HandlerFunc(h.HandleHealth))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	port, _ := strconv.Atoi(u.Port())
	if err := RunHealthCheck(port); err != nil {
		t.Errorf("RunHealthCheck: %v", err)
	}

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"degraded"}`))
	}))
	defer bad.Close()
	if err := probeHealthEndpoint(bad.URL + "/health"); err == nil {
		t.Error("expected error for unhealthy status")
	}
}
