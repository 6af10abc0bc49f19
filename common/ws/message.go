package ws

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message is the event envelope pushed from the server to console watchers.
type Message struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp,omitempty"`
}

// Event types published on /api/events.
const (
	MessageTypeScanStarted   = "scan_started"
	MessageTypeScanCompleted = "scan_completed"
	MessageTypeScanFailed    = "scan_failed"
	MessageTypeDeviceUpdated = "device_updated"
	MessageTypeDeviceDeleted = "device_deleted"
	MessageTypeLog           = "log"
	MessageTypePong          = "pong"
)

// NewMessage builds a message stamped with the current time.
func NewMessage(msgType string, data map[string]interface{}) Message {
	return Message{Type: msgType, Data: data, Timestamp: time.Now()}
}

// Marshal marshals the message to JSON bytes.
func (m *Message) Marshal() ([]byte, error) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	return json.Marshal(m)
}

// ParseMessage decodes a raw frame into a Message.
func ParseMessage(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, fmt.Errorf("decode ws message: %w", err)
	}
	if m.Type == "" {
		return Message{}, fmt.Errorf("decode ws message: missing type")
	}
	return m, nil
}

// String returns a data field as a string, or "" when absent.
func (m Message) String(key string) string {
	if m.Data == nil {
		return ""
	}
	switch v := m.Data[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Int returns a numeric data field. JSON numbers decode as float64.
func (m Message) Int(key string) int {
	if m.Data == nil {
		return 0
	}
	switch v := m.Data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
