package ws

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestConnNilSafety(t *testing.T) {
	t.Parallel()

	var conn *Conn
	if _, err := conn.ReadMessage(); err == nil {
		t.Error("ReadMessage on nil Conn should return error")
	}
	if err := conn.WriteMessage(&Message{Type: "x"}, time.Second); err == nil {
		t.Error("WriteMessage on nil Conn should return error")
	}
	if err := conn.WritePing(time.Second); err == nil {
		t.Error("WritePing on nil Conn should return error")
	}
	if err := conn.SetReadDeadline(time.Now()); err == nil {
		t.Error("SetReadDeadline on nil Conn should return error")
	}
	if err := conn.Close(); err != nil {
		t.Errorf("Close on nil Conn should return nil, got %v", err)
	}
	if addr := conn.RemoteAddr(); addr != "" {
		t.Errorf("RemoteAddr on nil Conn = %q", addr)
	}
	conn.SetPongHandler(func(string) error { return nil })
}

func TestEventsURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base    string
		want    string
		wantErr bool
	}{
		{"http://localhost:5000", "ws://localhost:5000/api/events", false},
		{"https://scanner.lan/", "wss://scanner.lan/api/events", false},
		{"ftp://x", "", true},
	}
	for _, tt := range tests {
		got, err := EventsURL(tt.base, "/api/events")
		if (err != nil) != tt.wantErr {
			t.Errorf("EventsURL(%q) err = %v", tt.base, err)
			continue
		}
		if got != tt.want {
			t.Errorf("EventsURL(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestDialRejectsHTTPScheme(t *testing.T) {
	t.Parallel()

	if _, _, err := Dial("http://localhost/api/events", nil, time.Second); err == nil {
		t.Fatal("expected scheme error")
	}
}

func TestConnRoundTrip(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := UpgradeHTTP(w, r)
		if err != nil {
			return
		}
		defer c.Close()
		msg := NewMessage(MessageTypeScanCompleted, map[string]interface{}{"count": 4})
		c.WriteMessage(&msg, time.Second)
		c.ReadMessage()
	}))
	defer srv.Close()

	url, err := EventsURL(srv.URL, "/")
	if err != nil {
		t.Fatal(err)
	}
	conn, _, err := Dial(url, nil, time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msg, err := conn.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent: %v", err)
	}
	if msg.Type != MessageTypeScanCompleted || msg.Int("count") != 4 {
		t.Errorf("unexpected message: %+v", msg)
	}
	if err := conn.WriteClose(time.Second); err != nil {
		t.Errorf("WriteClose: %v", err)
	}
}
