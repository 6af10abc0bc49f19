// Package notify holds transient, auto-dismissing user notifications.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 5 * time.Second

// Level is the severity shown with a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is one message for the operator.
type Notification struct {
	Level   Level
	Message string
	Created time.Time
	Expires time.Time
}

// Expired reports whether n should no longer be shown at now.
func (n Notification) Expired(now time.Time) bool {
	return !n.Expires.IsZero() && !now.Before(n.Expires)
}

// Notifier receives notifications.
type Notifier interface {
	Notify(Notification)
}

// Func adapts a function to Notifier.
type Func func(Notification)

// Notify calls f(n).
func (f Func) Notify(n Notification) { f(n) }

// Tee fans a notification out to several notifiers.
func Tee(ns ...Notifier) Notifier {
	return Func(func(n Notification) {
		for _, x := range ns {
			if x != nil {
				x.Notify(n)
			}
		}
	})
}

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})

// Board keeps notifications until they expire. Expired entries are dropped
// on read.
type Board struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items []Notification
}

// NewBoard creates a Board. A non-positive ttl uses DefaultTTL.
func NewBoard(ttl time.Duration) *Board {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Board{ttl: ttl, now: time.Now}
}

// Notify adds n, stamping Created and Expires when unset.
func (b *Board) Notify(n Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if n.Created.IsZero() {
		n.Created = now
	}
	if n.Expires.IsZero() {
		n.Expires = n.Created.Add(b.ttl)
	}
	b.items = append(b.items, n)
}

// Active returns the notifications that have not expired, oldest first.
func (b *Board) Active() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	kept := b.items[:0]
	for _, n := range b.items {
		if !n.Expired(now) {
			kept = append(kept, n)
		}
	}
	b.items = kept

	out := make([]Notification, len(kept))
	copy(out, kept)
	return out
}

// Latest returns the newest active notification.
func (b *Board) Latest() (Notification, bool) {
	active := b.Active()
	if len(active) == 0 {
		return Notification{}, false
	}
	return active[len(active)-1], true
}

// Writer prints each notification as one line.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a Writer notifier on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Notify writes "<mark> message".
func (p *Writer) Notify(n Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "  %s %s\n", mark(n.Level), n.Message)
}

func mark(l Level) string {
	switch l {
	case LevelSuccess:
		return "✓"
	case LevelWarning:
		return "⚠"
	case LevelError:
		return "✗"
	default:
		return "•"
	}
}
