package handlers

import (
	"net/http"
	"time"

	wscommon "github.com/ParkChongsam/network-printer-scanner/common/ws"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	eventsWriteTimeout = 10 * time.Second
	eventsPongWait     = 60 * time.Second
	eventsPingPeriod   = 30 * time.Second
	eventsBuffer       = 32
)

// EventsAPI streams hub messages to websocket watchers on /api/events.
type EventsAPI struct {
	hub *wscommon.Hub
	log Logger
}

// NewEventsAPI creates an EventsAPI publishing hub's messages.
func NewEventsAPI(hub *wscommon.Hub, log Logger) *EventsAPI {
	if log == nil {
		log = nopLogger{}
	}
	return &EventsAPI{hub: hub, log: log}
}

// RegisterRoutes registers the events route.
func (e *EventsAPI) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/events", e.HandleEvents).Methods(http.MethodGet)
}

// HandleEvents upgrades the request and forwards every broadcast to the
// client until either side closes. Clients may send {"type":"ping"} and get
// a pong message back.
func (e *EventsAPI) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := wscommon.UpgradeHTTP(w, r)
	if err != nil {
		e.log.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	clientID := uuid.NewString()
	ch := make(chan wscommon.Message, eventsBuffer)
	e.hub.Register(clientID, ch)
	e.log.Debug("Event watcher connected", "client_id", clientID, "remote", conn.RemoteAddr())

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.readLoop(conn, clientID)
	}()

	ticker := time.NewTicker(eventsPingPeriod)
	defer ticker.Stop()
	defer e.hub.Unregister(clientID)

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				conn.WriteClose(time.Second)
				return
			}
			if err := conn.WriteMessage(&msg, eventsWriteTimeout); err != nil {
				e.log.Debug("Event write failed", "client_id", clientID, "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WritePing(eventsWriteTimeout); err != nil {
				e.log.Debug("Event ping failed", "client_id", clientID, "error", err)
				return
			}
		case <-done:
			e.log.Debug("Event watcher disconnected", "client_id", clientID)
			return
		}
	}
}

func (e *EventsAPI) readLoop(conn *wscommon.Conn, clientID string) {
	conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	})
	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			if wscommon.IsUnexpectedCloseError(err) {
				e.log.Debug("Event watcher read error", "client_id", clientID, "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(eventsPongWait))
		msg, err := wscommon.ParseMessage(raw)
		if err != nil {
			continue
		}
		if msg.Type == "ping" {
			pong := wscommon.NewMessage(wscommon.MessageTypePong, nil)
			if err := conn.WriteMessage(&pong, eventsWriteTimeout); err != nil {
				return
			}
		}
	}
}
