// Package scanner discovers network printers and reads their status over
// SNMP.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
	"github.com/ParkChongsam/network-printer-scanner/common/logger"
)

// ErrNoPrinter is returned by ScanHost when the address does not look like a
// printer.
var ErrNoPrinter = errors.New("no printer found at address")

// ErrInvalidRange wraps every range-parsing failure returned by Scan.
var ErrInvalidRange = errors.New("invalid network range")

const (
	SourceRange = "range"
	SourceMDNS  = "mdns"
)

// Config controls a NetworkScanner.
type Config struct {
	SNMP         SNMPConfig
	Pool         PoolConfig
	MaxAddresses int
	WebTimeout   time.Duration
	// MDNSWindow > 0 enables an mDNS browse of that length before each
	// range scan.
	MDNSWindow time.Duration
}

// NetworkScanner runs range scans, single-host scans and detail queries.
type NetworkScanner struct {
	cfg    Config
	logger *logger.Logger
	fetch  WebFetchFunc
	browse BrowseFunc
	now    func() time.Time
}

// Option customizes a NetworkScanner.
type Option func(*NetworkScanner)

// WithWebFetch replaces the landing-page fetcher.
func WithWebFetch(f WebFetchFunc) Option {
	return func(s *NetworkScanner) { s.fetch = f }
}

// WithBrowser replaces the mDNS browser.
func WithBrowser(b BrowseFunc) Option {
	return func(s *NetworkScanner) { s.browse = b }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *NetworkScanner) { s.now = now }
}

// New creates a scanner. A nil logger discards output.
func New(cfg Config, log *logger.Logger, opts ...Option) *NetworkScanner {
	if log == nil {
		log = logger.Discard()
	}
	if cfg.MaxAddresses <= 0 {
		cfg.MaxAddresses = DefaultMaxAddresses
	}
	if cfg.WebTimeout <= 0 {
		cfg.WebTimeout = 2 * time.Second
	}
	if cfg.SNMP.Community == "" {
		cfg.SNMP.Community = "public"
	}
	if cfg.SNMP.Version == 0 {
		cfg.SNMP.Version = 2
	}
	s := &NetworkScanner{
		cfg:    cfg,
		logger: log,
		fetch:  newWebFetcher(cfg.WebTimeout),
		now:    time.Now,
	}
	if cfg.MDNSWindow > 0 {
		s.browse = NewMDNSBrowser(log)
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// IsPrinter applies the discovery heuristic to a live host: a known
// manufacturer in sysDescr, or printer keywords on its web landing page.
func (s *NetworkScanner) IsPrinter(ctx context.Context, ip string, openPorts []int) bool {
	if len(openPorts) == 0 {
		return false
	}

	descr, err := SysDescr(ctx, s.cfg.SNMP, ip)
	if err != nil {
		s.logger.Trace("sysDescr query failed", "ip", ip, "error", err)
	}
	if m, ok := MatchManufacturer(descr); ok {
		s.logger.Debug("Printer matched by manufacturer", "ip", ip, "manufacturer", m)
		return true
	}

	if url, ok := webURL(ip, openPorts); ok && s.fetch != nil {
		page, err := s.fetch(ctx, url)
		if err != nil {
			s.logger.Trace("web check failed", "ip", ip, "error", err)
			return false
		}
		if ContainsWebKeyword(page) {
			s.logger.Debug("Printer matched by web page", "ip", ip, "url", url)
			return true
		}
	}
	return false
}

func (s *NetworkScanner) detect(ctx context.Context, job ScanJob, openPorts []int) (*api.Device, bool, error) {
	if job.Source != SourceMDNS && !s.IsPrinter(ctx, job.IP, openPorts) {
		return nil, false, nil
	}
	d, err := QueryDevice(ctx, s.cfg.SNMP, job.IP, false, s.now())
	if err != nil {
		// Identified without SNMP data: report it with placeholders.
		s.logger.Debug("SNMP read failed for printer", "ip", job.IP, "error", err)
		d = placeholderDevice(job.IP, s.now())
	}
	return d, true, nil
}

func placeholderDevice(ip string, now time.Time) *api.Device {
	d := buildDevice(ip, nil, now)
	return &d
}

// Scan probes every address in rangeText and returns the printers found,
// ordered by address.
func (s *NetworkScanner) Scan(ctx context.Context, rangeText string) ([]api.Device, error) {
	parsed, err := ParseRangeText(rangeText, s.cfg.MaxAddresses)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	if len(parsed.IPs) == 0 {
		if len(parsed.Errors) > 0 {
			return nil, fmt.Errorf("%w: %s: %s", ErrInvalidRange, parsed.Errors[0].Text, parsed.Errors[0].Msg)
		}
		return nil, fmt.Errorf("%w: no addresses in %q", ErrInvalidRange, rangeText)
	}
	for _, pe := range parsed.Errors {
		s.logger.Warn("Skipping range entry", "entry", pe.Text, "reason", pe.Msg)
	}

	advertised := map[string]struct{}{}
	if s.browse != nil && s.cfg.MDNSWindow > 0 {
		for _, ip := range s.browse(ctx, s.cfg.MDNSWindow) {
			advertised[ip] = struct{}{}
		}
	}

	start := time.Now()
	s.logger.Info("Scan started", "range", rangeText, "addresses", len(parsed.IPs), "mdns", len(advertised))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan ScanJob)
	go func() {
		defer close(jobs)
		for _, ip := range parsed.IPs {
			job := ScanJob{IP: ip, Source: SourceRange}
			if _, ok := advertised[ip]; ok {
				job.Source = SourceMDNS
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- job:
			}
		}
	}()

	pool := s.cfg.Pool
	pool.DetectFunc = s.detect
	live := StartLivenessPool(ctx, pool, jobs)
	detected := StartDetectionPool(ctx, pool, live)

	var devices []api.Device
	for dr := range detected {
		if dr.Err != nil {
			s.logger.Debug("Detection error", "ip", dr.Job.IP, "error", dr.Err)
		}
		if dr.IsPrinter && dr.Device != nil {
			devices = append(devices, *dr.Device)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	SortByIP(devices)
	s.logger.Info("Scan finished", "range", rangeText, "found", len(devices), "duration", time.Since(start).Round(time.Millisecond))
	return devices, nil
}

// ScanHost scans a single address. It returns ErrNoPrinter when the host is
// unreachable on printer ports or fails the printer heuristic.
func (s *NetworkScanner) ScanHost(ctx context.Context, ip string) (*api.Device, error) {
	if err := api.ValidateIPv4(ip); err != nil {
		return nil, err
	}
	pool := s.cfg.Pool.withDefaults()
	open, err := pool.ProbeFunc(ctx, ip, pool.LivenessPorts, pool.LivenessTimeout)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", ip, err)
	}
	d, ok, err := s.detect(ctx, ScanJob{IP: ip, Source: SourceRange}, open)
	if err != nil {
		return nil, err
	}
	if !ok || d == nil {
		return nil, ErrNoPrinter
	}
	return d, nil
}

// Details reads the full record of a printer, including location, contact
// and uptime.
func (s *NetworkScanner) Details(ctx context.Context, ip string) (*api.Device, error) {
	return QueryDevice(ctx, s.cfg.SNMP, ip, true, s.now())
}

// SortByIP orders devices by numeric IPv4 address; non-IPv4 keys sort last
// by string.
func SortByIP(devices []api.Device) {
	sort.SliceStable(devices, func(i, j int) bool {
		a, b := net.ParseIP(devices[i].IP).To4(), net.ParseIP(devices[j].IP).To4()
		switch {
		case a != nil && b != nil:
			return ipToUint32(a) < ipToUint32(b)
		case a != nil:
			return true
		case b != nil:
			return false
		default:
			return strings.Compare(devices[i].IP, devices[j].IP) < 0
		}
	})
}
