package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	wscommon "github.com/ParkChongsam/network-printer-scanner/common/ws"
)

func waitForClients(t *testing.T, hub *wscommon.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("hub has %d clients, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEventsStreamBroadcasts(t *testing.T) {
	t.Parallel()

	hub := wscommon.NewHub()
	defer hub.Stop()

	srv := httptest.NewServer(NewRouter(RouterOptions{Events: NewEventsAPI(hub, nil)}))
	defer srv.Close()

	wsURL, err := wscommon.EventsURL(srv.URL, "/api/events")
	if err != nil {
		t.Fatal(err)
	}
	conn, _, err := wscommon.Dial(wsURL, nil, 2*time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, 1)

	hub.Broadcast(wscommon.NewMessage(wscommon.MessageTypeScanCompleted, map[string]interface{}{"found": 3}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msg, err := conn.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent: %v", err)
	}
	if msg.Type != wscommon.MessageTypeScanCompleted || msg.Int("found") != 3 {
		t.Errorf("unexpected message: %+v", msg)
	}

	ping := wscommon.NewMessage("ping", nil)
	if err := conn.WriteMessage(&ping, time.Second); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	msg, err = conn.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent pong: %v", err)
	}
	if msg.Type != wscommon.MessageTypePong {
		t.Errorf("expected pong, got %q", msg.Type)
	}

	conn.WriteClose(time.Second)
	conn.Close()
	waitForClients(t, hub, 0)
}
