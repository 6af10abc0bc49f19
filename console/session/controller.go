package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
	"github.com/ParkChongsam/network-printer-scanner/common/logger"
	pmsettings "github.com/ParkChongsam/network-printer-scanner/common/settings"
	"github.com/ParkChongsam/network-printer-scanner/console/client"
	"github.com/ParkChongsam/network-printer-scanner/console/export"
	"github.com/ParkChongsam/network-printer-scanner/console/filter"
	"github.com/ParkChongsam/network-printer-scanner/console/notify"
	"github.com/ParkChongsam/network-printer-scanner/console/settings"
)

// Backend is the subset of the backend client the controller uses.
type Backend interface {
	ScanNetwork(ctx context.Context, networkRange string) (*api.ScanResponse, error)
	ScanIP(ctx context.Context, ip string) (*api.ScanResponse, error)
	Devices(ctx context.Context) ([]api.Device, error)
	Device(ctx context.Context, ip string) (*api.Device, error)
	DeleteDevice(ctx context.Context, ip string) (*api.MessageResponse, error)
}

var _ Backend = (*client.Client)(nil)

// Options configures a Controller.
type Options struct {
	Backend  Backend
	Settings settings.Store
	Notifier notify.Notifier
	Logger   *logger.Logger

	ScanMode   ScanMode
	FilterMode filter.Mode

	// OnChange is called after every replacement of the device list.
	OnChange func(devices []api.Device)

	// Actions overrides DefaultActionTable.
	Actions ActionTable
}

// Controller runs console actions against the backend and keeps the
// session state. Scans are not deduplicated: the last response to arrive
// wins the device list.
type Controller struct {
	backend  Backend
	store    settings.Store
	notifier notify.Notifier
	logger   *logger.Logger
	onChange func([]api.Device)
	actions  ActionTable

	scanMode   ScanMode
	filterMode filter.Mode

	state *State
	timer AutoScanTimer

	// runCtx is the context auto-scans run under, set by Start.
	runCtx context.Context
}

// New creates a Controller.
func New(opts Options) *Controller {
	c := &Controller{
		backend:    opts.Backend,
		store:      opts.Settings,
		notifier:   opts.Notifier,
		logger:     opts.Logger,
		onChange:   opts.OnChange,
		actions:    opts.Actions,
		scanMode:   opts.ScanMode,
		filterMode: opts.FilterMode,
		state:      NewState(),
		runCtx:     context.Background(),
	}
	if c.notifier == nil {
		c.notifier = notify.Discard
	}
	if c.logger == nil {
		c.logger = logger.Discard()
	}
	if c.actions == nil {
		c.actions = DefaultActionTable()
	}
	if c.scanMode == "" {
		c.scanMode = ScanModeNetwork
	}
	if c.filterMode == "" {
		c.filterMode = filter.MultiField
	}
	return c
}

// State exposes the session state.
func (c *Controller) State() *State { return c.state }

// Timer exposes the auto-scan timer.
func (c *Controller) Timer() *AutoScanTimer { return &c.timer }

// Start loads settings, starts auto-scan when enabled and runs the initial
// network scan.
func (c *Controller) Start(ctx context.Context) error {
	c.runCtx = ctx
	c.LoadSettings()
	c.applyAutoScan()
	return c.ScanNetwork(ctx)
}

// Close stops the auto-scan timer.
func (c *Controller) Close() {
	c.timer.Stop()
}

// ScanNetwork sweeps the configured range and replaces the device list
// with the result. The previous list is kept on failure.
func (c *Controller) ScanNetwork(ctx context.Context) error {
	done := c.state.beginScan()
	defer done()

	cfg := c.state.Settings()
	c.logger.Info("Network scan requested", "range", cfg.NetworkRange)
	resp, err := c.backend.ScanNetwork(ctx, cfg.NetworkRange)
	if err != nil {
		c.fail("Network scan", err)
		return err
	}

	// A success without a device list ("Scan queued") leaves the stored
	// list as the source of truth.
	var reloadErr error
	if resp.Devices != nil {
		c.replace(resp.Devices)
	} else {
		reloadErr = c.Reload(ctx)
	}
	if resp.Message != "" {
		c.success(resp.Message)
	}
	return reloadErr
}

// ScanIP scans one address. Malformed input is rejected locally. When the
// answer carries no device list the list is reloaded from the backend.
func (c *Controller) ScanIP(ctx context.Context, ip string) error {
	if err := api.ValidateIPv4(ip); err != nil {
		c.fail("IP scan", err)
		return err
	}

	done := c.state.beginScan()
	defer done()

	c.logger.Info("IP scan requested", "ip", ip)
	resp, err := c.backend.ScanIP(ctx, ip)
	if err != nil {
		c.fail("IP scan", err)
		return err
	}

	var reloadErr error
	if resp.Devices != nil {
		c.replace(resp.Devices)
	} else {
		reloadErr = c.Reload(ctx)
	}
	if resp.Message != "" {
		c.success(resp.Message)
	}
	return reloadErr
}

// Reload replaces the device list with the backend's stored list.
func (c *Controller) Reload(ctx context.Context) error {
	devices, err := c.backend.Devices(ctx)
	if err != nil {
		c.fail("Device list", err)
		return err
	}
	c.replace(devices)
	return nil
}

// Detail fetches one device's detailed record.
func (c *Controller) Detail(ctx context.Context, ip string) (*api.Device, error) {
	if err := api.ValidateIPv4(ip); err != nil {
		c.fail("Device details", err)
		return nil, err
	}
	d, err := c.backend.Device(ctx, ip)
	if err != nil {
		c.fail("Device details", err)
		return nil, err
	}
	return d, nil
}

// Delete removes a device on the backend, then reloads the list.
func (c *Controller) Delete(ctx context.Context, ip string) error {
	resp, err := c.backend.DeleteDevice(ctx, ip)
	if err != nil {
		c.fail("Delete", err)
		return err
	}
	if resp.Message != "" {
		c.success(resp.Message)
	}
	return c.Reload(ctx)
}

// Filter applies criteria to the held list without touching the network.
func (c *Controller) Filter(criteria filter.Criteria) []api.Device {
	criteria.Mode = c.filterMode
	return filter.Apply(c.state.Devices(), criteria)
}

// Export writes the held, unfiltered list as CSV.
func (c *Controller) Export(w io.Writer) (int, error) {
	rows, err := export.WriteCSV(w, c.state.Devices())
	if err != nil {
		if errors.Is(err, export.ErrNothingToExport) {
			c.notify(notify.LevelWarning, "No devices to export")
		} else {
			c.notify(notify.LevelError, fmt.Sprintf("Export failed: %v", err))
		}
		return rows, err
	}
	c.success(fmt.Sprintf("Exported %d devices", rows-1))
	return rows, nil
}

// LoadSettings reads the persisted settings into the session. Read errors
// fall back to defaults.
func (c *Controller) LoadSettings() pmsettings.Settings {
	cfg := pmsettings.DefaultSettings()
	if c.store != nil {
		loaded, err := c.store.Load()
		if err != nil {
			c.logger.Warn("Failed to load settings, using defaults", "error", err)
			c.notify(notify.LevelWarning, "Saved settings could not be read; using defaults")
		} else {
			cfg = loaded
		}
	}
	c.state.SetSettings(cfg)
	return cfg
}

// SaveSettings persists cfg, restarts or stops auto-scan to match it and
// then scans the (possibly new) range.
func (c *Controller) SaveSettings(ctx context.Context, cfg pmsettings.Settings) error {
	pmsettings.Sanitize(&cfg)
	if c.store != nil {
		if err := c.store.Save(cfg); err != nil {
			c.logger.Error("Failed to save settings", "error", err)
			c.notify(notify.LevelError, fmt.Sprintf("Failed to save settings: %v", err))
			return err
		}
	}
	c.state.SetSettings(cfg)
	c.applyAutoScan()
	if cfg.AutoScan && cfg.BelowMinInterval() {
		c.notify(notify.LevelWarning, fmt.Sprintf("Scan interval %ds is below the %ds minimum; auto-scan runs every %ds",
			cfg.ScanInterval, pmsettings.MinScanInterval, pmsettings.MinScanInterval))
	}
	settingsVersion, _ := pmsettings.ComputeSettingsVersion(cfg)
	c.logger.Info("Settings saved", "version", settingsVersion, "range", cfg.NetworkRange,
		"auto_scan", cfg.AutoScan, "interval", cfg.ScanInterval, "snmp_version", cfg.SNMPVersion)
	return c.ScanNetwork(ctx)
}

func (c *Controller) applyAutoScan() {
	cfg := c.state.Settings()
	if !cfg.AutoScan {
		c.timer.Stop()
		return
	}
	ctx := c.runCtx
	c.timer.Start(cfg.Interval(), func() {
		if ctx.Err() != nil {
			return
		}
		c.ScanNetwork(ctx)
	})
}

func (c *Controller) replace(devices []api.Device) {
	c.state.ReplaceDevices(devices)
	if c.onChange != nil {
		c.onChange(c.state.Devices())
	}
}

func (c *Controller) success(msg string) {
	c.notify(notify.LevelSuccess, msg)
}

// fail reports err: validation and backend messages verbatim, transport
// failures with the generic network error text.
func (c *Controller) fail(op string, err error) {
	switch {
	case client.IsValidation(err):
		c.logger.Debug(op+" rejected", "error", err)
	case client.IsApplication(err):
		c.logger.Warn(op+" failed", "error", err)
	default:
		c.logger.Error(op+" failed", "error", err)
	}
	c.notify(notify.LevelError, err.Error())
}

func (c *Controller) notify(level notify.Level, msg string) {
	c.notifier.Notify(notify.Notification{Level: level, Message: msg})
}
