package session

import (
	"sync"
	"time"
)

// AutoScanTimer runs a function periodically. At most one schedule is
// active: Start always stops the previous one first.
type AutoScanTimer struct {
	mu       sync.Mutex
	stop     chan struct{}
	interval time.Duration
}

// Start runs fn every interval until Stop or the next Start. A
// non-positive interval only stops the current schedule.
func (t *AutoScanTimer) Start(interval time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	if interval <= 0 {
		return
	}

	stop := make(chan struct{})
	t.stop = stop
	t.interval = interval

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				// A tick racing with Stop must not fire.
				select {
				case <-stop:
					return
				default:
				}
				fn()
			}
		}
	}()
}

// Stop cancels the active schedule. A scan already running finishes.
func (t *AutoScanTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *AutoScanTimer) stopLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
		t.interval = 0
	}
}

// Active reports whether a schedule is running.
func (t *AutoScanTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

// Interval returns the active interval, or zero.
func (t *AutoScanTimer) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}
