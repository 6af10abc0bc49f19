// Package schedule runs the recurring network scan.
package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
	"github.com/ParkChongsam/network-printer-scanner/common/logger"
)

// RangeScanner performs one sweep and stores its result.
type RangeScanner interface {
	ScanRange(ctx context.Context, rangeText string) ([]api.Device, error)
}

// Options configures a Scheduler.
type Options struct {
	// Interval between sweeps. Zero or negative disables the schedule.
	Interval time.Duration

	// Range returns the network range to sweep. It is read before every
	// sweep so config reloads take effect.
	Range func() string

	// RunOnStart sweeps once immediately after Start.
	RunOnStart bool

	// Timeout bounds one sweep. Zero means Interval.
	Timeout time.Duration
}

// Scheduler sweeps the configured range every Interval until stopped.
type Scheduler struct {
	scanner RangeScanner
	opts    Options
	logger  *logger.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	runs    int
}

// New creates a Scheduler. A nil log discards messages.
func New(sc RangeScanner, opts Options, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Discard()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = opts.Interval
	}
	return &Scheduler{scanner: sc, opts: opts, logger: log}
}

// Enabled reports whether the schedule has a positive interval.
func (s *Scheduler) Enabled() bool {
	return s.opts.Interval > 0
}

// Start begins the background loop. It is a no-op when the schedule is
// disabled or already running. Cancelling ctx stops the loop like Stop.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.Enabled() {
		s.logger.Info("Scan schedule disabled")
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Scan schedule started", "interval", s.opts.Interval)
}

// Stop cancels any running sweep and waits for the loop to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Scan schedule stopped")
}

// Runs returns how many sweeps have been attempted.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	if s.opts.RunOnStart {
		s.runOnce(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(parent context.Context) {
	rangeText := ""
	if s.opts.Range != nil {
		rangeText = s.opts.Range()
	}

	s.mu.Lock()
	s.runs++
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(parent, s.opts.Timeout)
	defer cancel()

	devices, err := s.scanner.ScanRange(ctx, rangeText)
	if err != nil {
		if parent.Err() == nil {
			s.logger.Warn("Scheduled scan failed", "range", rangeText, "error", err)
		}
		return
	}
	s.logger.Info("Scheduled scan finished", "range", rangeText, "found", len(devices))
}
