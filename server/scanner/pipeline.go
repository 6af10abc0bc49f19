package scanner

import (
	"context"
	"math/rand/v2"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
)

// PrinterPorts are the TCP ports probed for liveness: raw/JetDirect, LPD,
// IPP, HTTP and HTTPS.
var PrinterPorts = []int{9100, 515, 631, 80, 443}

// ScanJob describes a single address to scan.
type ScanJob struct {
	IP     string
	Source string
}

// LivenessResult carries the outcome of a liveness probe.
type LivenessResult struct {
	Job       ScanJob
	Alive     bool
	OpenPorts []int
	Err       error
}

// DetectionResult carries the outcome of the detection stage. Device is set
// when IsPrinter is true.
type DetectionResult struct {
	Job       ScanJob
	IsPrinter bool
	Device    *api.Device
	Err       error
}

// DetectFunc decides whether a live host is a printer and, if so, reads it.
type DetectFunc func(ctx context.Context, job ScanJob, openPorts []int) (*api.Device, bool, error)

// ProbeFunc returns the subset of ports accepting TCP connections.
type ProbeFunc func(ctx context.Context, ip string, ports []int, timeout time.Duration) ([]int, error)

// PoolConfig controls worker counts and timeouts.
type PoolConfig struct {
	LivenessWorkers  int
	LivenessTimeout  time.Duration
	LivenessPorts    []int
	DetectionWorkers int
	DetectFunc       DetectFunc
	ProbeFunc        ProbeFunc
	// StartJitter staggers worker startup; zero disables it.
	StartJitter time.Duration
}

func (c PoolConfig) withDefaults() PoolConfig {
	if c.LivenessWorkers <= 0 {
		c.LivenessWorkers = 64
	}
	if c.LivenessTimeout <= 0 {
		c.LivenessTimeout = 500 * time.Millisecond
	}
	if len(c.LivenessPorts) == 0 {
		c.LivenessPorts = PrinterPorts
	}
	if c.DetectionWorkers <= 0 {
		c.DetectionWorkers = 8
	}
	if c.ProbeFunc == nil {
		c.ProbeFunc = tcpProbe
	}
	return c
}

func jitter(ctx context.Context, max time.Duration) bool {
	if max <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(time.Duration(rand.Int64N(int64(max)))):
		return true
	}
}

// StartLivenessPool consumes jobs and emits one LivenessResult per job. The
// returned channel is closed once jobs is drained or ctx is done.
func StartLivenessPool(ctx context.Context, cfg PoolConfig, jobs <-chan ScanJob) <-chan LivenessResult {
	cfg = cfg.withDefaults()
	out := make(chan LivenessResult)

	var wg sync.WaitGroup
	wg.Add(cfg.LivenessWorkers)
	for i := 0; i < cfg.LivenessWorkers; i++ {
		go func() {
			defer wg.Done()
			if !jitter(ctx, cfg.StartJitter) {
				return
			}
			for {
				select {
				case <-ctx.Done():
					return
				case j, ok := <-jobs:
					if !ok {
						return
					}
					open, err := cfg.ProbeFunc(ctx, j.IP, cfg.LivenessPorts, cfg.LivenessTimeout)
					res := LivenessResult{Job: j, Err: err}
					if err == nil && len(open) > 0 {
						res.Alive = true
						res.OpenPorts = open
					}
					select {
					case <-ctx.Done():
						return
					case out <- res:
					}
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func tcpProbe(ctx context.Context, ip string, ports []int, timeout time.Duration) ([]int, error) {
	dialer := net.Dialer{Timeout: timeout}
	open := []int{}
	for _, p := range ports {
		if ctx.Err() != nil {
			return open, ctx.Err()
		}
		conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(ip, strconv.Itoa(p)))
		if err != nil {
			continue
		}
		conn.Close()
		open = append(open, p)
	}
	return open, nil
}

// StartDetectionPool runs cfg.DetectFunc on every live host from in. Dead
// hosts are dropped. The returned channel is closed once in is drained or
// ctx is done.
func StartDetectionPool(ctx context.Context, cfg PoolConfig, in <-chan LivenessResult) <-chan DetectionResult {
	cfg = cfg.withDefaults()
	out := make(chan DetectionResult)

	var wg sync.WaitGroup
	wg.Add(cfg.DetectionWorkers)
	for i := 0; i < cfg.DetectionWorkers; i++ {
		go func() {
			defer wg.Done()
			if !jitter(ctx, cfg.StartJitter) {
				return
			}
			for {
				select {
				case <-ctx.Done():
					return
				case lr, ok := <-in:
					if !ok {
						return
					}
					if !lr.Alive {
						continue
					}
					dr := DetectionResult{Job: lr.Job}
					if cfg.DetectFunc != nil {
						dr.Device, dr.IsPrinter, dr.Err = cfg.DetectFunc(ctx, lr.Job, lr.OpenPorts)
					}
					select {
					case <-ctx.Done():
						return
					case out <- dr:
					}
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
