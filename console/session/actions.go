package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
	pmsettings "github.com/ParkChongsam/network-printer-scanner/common/settings"
	"github.com/ParkChongsam/network-printer-scanner/console/filter"
)

// ErrUnknownEvent is returned by Dispatch for an unmapped event name.
var ErrUnknownEvent = errors.New("unknown UI event")

// Action is something the controller can do.
type Action string

const (
	ActionScan         Action = "scan"
	ActionRefresh      Action = "refresh"
	ActionScanIP       Action = "scan-ip"
	ActionReload       Action = "reload"
	ActionDetail       Action = "detail"
	ActionDelete       Action = "delete"
	ActionFilter       Action = "filter"
	ActionExport       Action = "export"
	ActionSaveSettings Action = "save-settings"
	ActionLoadSettings Action = "load-settings"
)

// ActionTable maps UI event names ("<control>.<event>") to actions.
type ActionTable map[string]Action

// DefaultActionTable returns the console's standard bindings.
func DefaultActionTable() ActionTable {
	return ActionTable{
		"scan-btn.click":        ActionScan,
		"refresh-btn.click":     ActionRefresh,
		"scan-ip-btn.click":     ActionScanIP,
		"save-settings.click":   ActionSaveSettings,
		"export-btn.click":      ActionExport,
		"search-input.input":    ActionFilter,
		"location-filter.input": ActionFilter,
		"ip-filter.input":       ActionFilter,
		"toner-filter.change":   ActionFilter,
		"show-offline.change":   ActionFilter,
		"show-warning.change":   ActionFilter,
		"row.click":             ActionDetail,
		"delete-btn.click":      ActionDelete,
		"settings-modal.open":   ActionLoadSettings,
		"devices.reload":        ActionReload,
	}
}

// Events returns the bound event names, sorted.
func (t ActionTable) Events() []string {
	out := make([]string, 0, len(t))
	for name := range t {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Event carries the payload of a UI event.
type Event struct {
	// IP is the address for scan-ip, detail and delete, and for scan in
	// single-ip mode.
	IP string

	// Value is the new control value for filter inputs.
	Value string
	// Checked is the new state of checkbox controls.
	Checked bool

	// Form holds settings form values keyed by their JSON names.
	Form map[string]string

	// Writer receives export output.
	Writer io.Writer
}

// Result is what a dispatched action produced.
type Result struct {
	Action  Action
	Devices []api.Device
	Device  *api.Device
	Rows    int
}

// Dispatch runs the action mapped to event.
func (c *Controller) Dispatch(ctx context.Context, event string, ev Event) (Result, error) {
	action, ok := c.actions[event]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	res := Result{Action: action}

	var err error
	switch action {
	case ActionScan, ActionRefresh:
		if c.scanMode == ScanModeSingleIP && action == ActionScan {
			err = c.ScanIP(ctx, ev.IP)
		} else {
			err = c.ScanNetwork(ctx)
		}
		res.Devices = c.state.Devices()
	case ActionScanIP:
		err = c.ScanIP(ctx, ev.IP)
		res.Devices = c.state.Devices()
	case ActionReload:
		err = c.Reload(ctx)
		res.Devices = c.state.Devices()
	case ActionDetail:
		res.Device, err = c.Detail(ctx, ev.IP)
	case ActionDelete:
		err = c.Delete(ctx, ev.IP)
		res.Devices = c.state.Devices()
	case ActionFilter:
		var criteria filter.Criteria
		criteria, err = c.updateCriteria(event, ev)
		if err == nil {
			res.Devices = c.Filter(criteria)
		}
	case ActionExport:
		if ev.Writer == nil {
			return res, errors.New("export needs a writer")
		}
		res.Rows, err = c.Export(ev.Writer)
	case ActionSaveSettings:
		var cfg pmsettings.Settings
		cfg, err = pmsettings.FromForm(c.state.Settings(), ev.Form)
		if err != nil {
			c.fail("Settings", err)
			break
		}
		err = c.SaveSettings(ctx, cfg)
		res.Devices = c.state.Devices()
	case ActionLoadSettings:
		c.LoadSettings()
	default:
		return res, fmt.Errorf("%w: action %q", ErrUnknownEvent, action)
	}
	return res, err
}

// updateCriteria records the control change carried by ev.
func (c *Controller) updateCriteria(event string, ev Event) (filter.Criteria, error) {
	var bucket filter.TonerBucket
	if event == "toner-filter.change" {
		b, err := filter.ParseTonerBucket(ev.Value)
		if err != nil {
			c.fail("Toner filter", err)
			return filter.Criteria{}, err
		}
		bucket = b
	}
	return c.state.UpdateCriteria(func(cr *filter.Criteria) {
		switch event {
		case "search-input.input":
			cr.Search = ev.Value
		case "location-filter.input":
			cr.Location = ev.Value
		case "ip-filter.input":
			cr.IP = ev.Value
		case "toner-filter.change":
			cr.Toner = bucket
		case "show-offline.change":
			cr.ShowOffline = ev.Checked
		case "show-warning.change":
			cr.ShowWarning = ev.Checked
		}
	}), nil
}
