package notify

import (
	"bytes"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestBoardExpires(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	b := NewBoard(0)
	b.now = clock.Now

	b.Notify(Notification{Level: LevelSuccess, Message: "Added"})
	clock.Advance(3 * time.Second)
	b.Notify(Notification{Level: LevelError, Message: "scan failed"})

	if got := len(b.Active()); got != 2 {
		t.Fatalf("Active = %d, want 2", got)
	}

	clock.Advance(2 * time.Second)
	active := b.Active()
	if len(active) != 1 || active[0].Message != "scan failed" {
		t.Fatalf("after 5s Active = %+v", active)
	}

	latest, ok := b.Latest()
	if !ok || latest.Level != LevelError {
		t.Errorf("Latest = %+v, %v", latest, ok)
	}

	clock.Advance(3 * time.Second)
	if _, ok := b.Latest(); ok {
		t.Error("all notifications should have expired")
	}
}

func TestBoardKeepsExplicitExpiry(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Unix(1000, 0)}
	b := NewBoard(time.Second)
	b.now = clock.Now

	b.Notify(Notification{Message: "sticky", Expires: clock.Now().Add(time.Minute)})
	clock.Advance(30 * time.Second)
	if len(b.Active()) != 1 {
		t.Error("explicit Expires was overridden")
	}
}

func TestTeeAndWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	board := NewBoard(time.Minute)
	n := Tee(board, NewWriter(&buf), nil)
	n.Notify(Notification{Level: LevelSuccess, Message: "3 devices found"})
	n.Notify(Notification{Level: LevelError, Message: "boom"})

	if buf.String() != "  ✓ 3 devices found\n  ✗ boom\n" {
		t.Errorf("writer output = %q", buf.String())
	}
	if len(board.Active()) != 2 {
		t.Error("board did not receive notifications")
	}
	Discard.Notify(Notification{Message: "ignored"})
}
