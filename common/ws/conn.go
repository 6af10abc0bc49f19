package ws

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errClosed = errors.New("websocket: connection is closed")

// Conn wraps *websocket.Conn and serializes writes, since gorilla panics on
// concurrent writers.
type Conn struct {
	c       *websocket.Conn
	writeMu sync.Mutex
}

// Dial connects to a ws:// or wss:// URL.
func Dial(urlStr string, reqHeader http.Header, handshakeTimeout time.Duration) (*Conn, *http.Response, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return nil, nil, fmt.Errorf("URL scheme must be ws or wss, got %q", parsed.Scheme)
	}

	dialer := &websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	c, resp, err := dialer.Dial(parsed.String(), reqHeader)
	if err != nil {
		return nil, resp, err
	}
	return &Conn{c: c}, resp, nil
}

// EventsURL converts an http(s) base URL into the ws(s) URL of path.
func EventsURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = path
	return u.String(), nil
}

// UpgradeHTTP upgrades an incoming HTTP request to a websocket Conn.
func UpgradeHTTP(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &Conn{c: c}, nil
}

// ReadMessage reads the next frame and returns the raw bytes.
func (cw *Conn) ReadMessage() ([]byte, error) {
	if cw == nil || cw.c == nil {
		return nil, errClosed
	}
	_, msg, err := cw.c.ReadMessage()
	return msg, err
}

// ReadEvent reads and decodes the next Message.
func (cw *Conn) ReadEvent() (Message, error) {
	raw, err := cw.ReadMessage()
	if err != nil {
		return Message{}, err
	}
	return ParseMessage(raw)
}

// WriteMessage writes msg as JSON with a write deadline.
func (cw *Conn) WriteMessage(msg *Message, timeout time.Duration) error {
	if cw == nil || cw.c == nil {
		return errClosed
	}
	cw.writeMu.Lock()
	defer cw.writeMu.Unlock()

	if timeout > 0 {
		cw.c.SetWriteDeadline(time.Now().Add(timeout))
	}
	return cw.c.WriteJSON(msg)
}

// WritePing sends a ping control message.
func (cw *Conn) WritePing(timeout time.Duration) error {
	if cw == nil || cw.c == nil {
		return errClosed
	}
	cw.writeMu.Lock()
	defer cw.writeMu.Unlock()

	if timeout > 0 {
		cw.c.SetWriteDeadline(time.Now().Add(timeout))
	}
	return cw.c.WriteMessage(websocket.PingMessage, nil)
}

// WriteClose sends a normal-closure control frame.
func (cw *Conn) WriteClose(timeout time.Duration) error {
	if cw == nil || cw.c == nil {
		return errClosed
	}
	cw.writeMu.Lock()
	defer cw.writeMu.Unlock()
	return cw.c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(timeout))
}

// Close closes the underlying websocket connection.
func (cw *Conn) Close() error {
	if cw == nil || cw.c == nil {
		return nil
	}
	return cw.c.Close()
}

// SetReadDeadline sets read deadline on underlying conn.
func (cw *Conn) SetReadDeadline(t time.Time) error {
	if cw == nil || cw.c == nil {
		return errClosed
	}
	return cw.c.SetReadDeadline(t)
}

// SetPongHandler sets the pong handler.
func (cw *Conn) SetPongHandler(h func(string) error) {
	if cw == nil || cw.c == nil {
		return
	}
	cw.c.SetPongHandler(h)
}

// RemoteAddr returns the remote address if available.
func (cw *Conn) RemoteAddr() string {
	if cw == nil || cw.c == nil || cw.c.RemoteAddr() == nil {
		return ""
	}
	return cw.c.RemoteAddr().String()
}

// IsUnexpectedCloseError reports whether err is a close other than a normal
// or going-away closure.
func IsUnexpectedCloseError(err error) bool {
	return websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
