package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
	wscommon "github.com/ParkChongsam/network-printer-scanner/common/ws"
	"github.com/ParkChongsam/network-printer-scanner/server/storage"
	"github.com/google/uuid"
)

// ScanService runs scans one at a time and applies their results to the
// store. The HTTP handlers and the recurring schedule share one instance, so
// a request that arrives during a sweep waits for it to finish.
type ScanService struct {
	mu      sync.Mutex
	scanner Scanner
	store   storage.Store
	events  Broadcaster
	log     Logger
	now     func() time.Time
	newID   func() string
}

// NewScanService wires a ScanService. events and log may be nil.
func NewScanService(sc Scanner, store storage.Store, events Broadcaster, log Logger) *ScanService {
	if events == nil {
		events = nopBroadcaster{}
	}
	if log == nil {
		log = nopLogger{}
	}
	return &ScanService{
		scanner: sc,
		store:   store,
		events:  events,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// ScanRange sweeps rangeText and replaces the stored device list with the
// result. The previous list is kept when the sweep fails.
func (s *ScanService) ScanRange(ctx context.Context, rangeText string) ([]api.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := storage.ScanRecord{ID: s.newID(), Kind: storage.ScanKindRange, Target: rangeText, StartedAt: s.now()}
	s.events.Broadcast(wscommon.NewMessage(wscommon.MessageTypeScanStarted, map[string]interface{}{
		"scan_id": rec.ID,
		"kind":    string(rec.Kind),
		"target":  rangeText,
	}))

	devices, err := s.scanner.Scan(ctx, rangeText)
	if err == nil {
		if devices == nil {
			devices = []api.Device{}
		}
		err = s.store.ReplaceAll(ctx, devices)
	}
	if err != nil {
		s.finish(ctx, rec, 0, err)
		return nil, err
	}

	s.finish(ctx, rec, len(devices), nil)
	return devices, nil
}

// ScanIP scans one address and upserts the printer found there. It returns
// scanner.ErrNoPrinter when the host is not a printer.
func (s *ScanService) ScanIP(ctx context.Context, ip string) (*api.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := storage.ScanRecord{ID: s.newID(), Kind: storage.ScanKindHost, Target: ip, StartedAt: s.now()}
	s.events.Broadcast(wscommon.NewMessage(wscommon.MessageTypeScanStarted, map[string]interface{}{
		"scan_id": rec.ID,
		"kind":    string(rec.Kind),
		"target":  ip,
	}))

	d, err := s.scanner.ScanHost(ctx, ip)
	if err == nil {
		err = s.store.Upsert(ctx, *d)
	}
	if err != nil {
		s.finish(ctx, rec, 0, err)
		return nil, err
	}

	s.finish(ctx, rec, 1, nil)
	s.events.Broadcast(wscommon.NewMessage(wscommon.MessageTypeDeviceUpdated, map[string]interface{}{
		"ip":     d.IP,
		"status": d.Status,
	}))
	return d, nil
}

// Refresh re-reads the details of a stored device. When the device does not
// answer, the stored record is returned unchanged.
func (s *ScanService) Refresh(ctx context.Context, ip string) (*api.Device, error) {
	stored, err := s.store.Get(ctx, ip)
	if err != nil {
		return nil, err
	}
	fresh, err := s.scanner.Details(ctx, ip)
	if err != nil {
		s.log.Debug("Details query failed, using stored record", "ip", ip, "error", err)
		return stored, nil
	}
	if err := s.store.Upsert(ctx, *fresh); err != nil {
		s.log.Warn("Failed to store refreshed device", "ip", ip, "error", err)
	}
	return fresh, nil
}

// RecentScans exposes the scan history.
func (s *ScanService) RecentScans(ctx context.Context, n int) ([]storage.ScanRecord, error) {
	return s.store.RecentScans(ctx, n)
}

func (s *ScanService) finish(ctx context.Context, rec storage.ScanRecord, found int, scanErr error) {
	rec.FinishedAt = s.now()
	rec.Found = found
	rec.Success = scanErr == nil

	data := map[string]interface{}{
		"scan_id": rec.ID,
		"kind":    string(rec.Kind),
		"target":  rec.Target,
	}
	msgType := wscommon.MessageTypeScanCompleted
	if scanErr != nil {
		rec.Message = scanErr.Error()
		data["error"] = rec.Message
		msgType = wscommon.MessageTypeScanFailed
		if !errors.Is(scanErr, context.Canceled) {
			s.log.Warn("Scan failed", "scan_id", rec.ID, "target", rec.Target, "error", scanErr)
		}
	} else {
		rec.Message = api.ScanFoundMessage(found)
		data["found"] = found
		s.log.Info("Scan completed", "scan_id", rec.ID, "target", rec.Target, "found", found,
			"duration", rec.Duration().Round(time.Millisecond))
	}
	s.events.Broadcast(wscommon.NewMessage(msgType, data))

	// History must be written even if the request context was cancelled.
	if err := s.store.RecordScan(context.WithoutCancel(ctx), rec); err != nil {
		s.log.Warn("Failed to record scan", "scan_id", rec.ID, "error", err)
	}
}
