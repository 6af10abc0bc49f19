package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

// RouterOptions lists the APIs mounted by NewRouter. Nil APIs are skipped.
type RouterOptions struct {
	Devices *DeviceAPI
	Health  *HealthAPI
	Events  *EventsAPI
	Logger  Logger

	// AllowedOrigin is sent as Access-Control-Allow-Origin. Empty means "*".
	AllowedOrigin string
}

// NewRouter builds the server's HTTP handler.
func NewRouter(opts RouterOptions) http.Handler {
	log := opts.Logger
	if log == nil {
		log = nopLogger{}
	}

	r := mux.NewRouter()
	if opts.Health != nil {
		opts.Health.RegisterRoutes(r)
	}
	if opts.Devices != nil {
		opts.Devices.RegisterRoutes(r)
	}
	if opts.Events != nil {
		opts.Events.RegisterRoutes(r)
	}
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.Use(requestLogger(log))

	origin := opts.AllowedOrigin
	if origin == "" {
		origin = "*"
	}
	return withCORS(origin, r)
}

// withCORS answers preflight requests before routing, since mux only runs
// middleware for matched routes.
func withCORS(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", strings.Join([]string{
			http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions,
		}, ", "))
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(log Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// The websocket upgrade needs the original writer's Hijacker.
			if r.URL.Path == "/api/events" {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Debug("HTTP request", "method", r.Method, "path", r.URL.Path,
				"status", rec.status, "duration", time.Since(start).Round(time.Millisecond))
		})
	}
}
