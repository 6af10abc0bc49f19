// Printer Scanner Console - terminal front end for the printer scanner
// backend: scan, list, inspect, delete and export network printers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
	"github.com/ParkChongsam/network-printer-scanner/common/config"
	"github.com/ParkChongsam/network-printer-scanner/common/logger"
	"github.com/ParkChongsam/network-printer-scanner/common/util"
	"github.com/ParkChongsam/network-printer-scanner/common/version"
	wscommon "github.com/ParkChongsam/network-printer-scanner/common/ws"
	"github.com/ParkChongsam/network-printer-scanner/console/client"
	"github.com/ParkChongsam/network-printer-scanner/console/export"
	"github.com/ParkChongsam/network-printer-scanner/console/filter"
	"github.com/ParkChongsam/network-printer-scanner/console/notify"
	"github.com/ParkChongsam/network-printer-scanner/console/session"
	"github.com/ParkChongsam/network-printer-scanner/console/settings"
)

const usage = `Usage: printscan-console [flags] <command> [args]

Commands:
  scan [range]             sweep the network range (default: saved setting)
  scan-ip <ip>             scan one address and add it to the list
  list [filter flags]      show stored devices (-search, -location, -ip, -toner, -hide-offline, -hide-warning)
  show <ip>                show one device's details
  delete <ip>              remove a device
  export [file]            write the device list as CSV
  settings [show]          print the saved settings
  settings set k=v ...     change settings (networkRange, scanInterval, snmpCommunity, snmpVersion, autoScan)
  watch                    auto-scan and follow live server events
  version                  print console and server versions

Flags:
`

// app bundles what every command needs.
type app struct {
	cfg    *Config
	log    *logger.Logger
	term   *util.Terminal
	view   *renderer
	client *client.Client
	store  *settings.ConfigStore
	board  *notify.Board
	ctrl   *session.Controller
	mode   session.ScanMode

	// watching switches device list changes to full-screen redraws.
	watching atomic.Bool
}

func main() {
	configPath := flag.String("config", "", "Path to console.toml (default: search standard locations)")
	serverURL := flag.String("server", "", "Backend base URL (overrides config)")
	dataDir := flag.String("data-dir", "", "Directory for local settings (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: error, warn, info, debug, trace (overrides config)")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	generateConfig := flag.String("generate-config", "", "Write a default config file to the given path and exit")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *generateConfig != "" {
		if err := WriteDefaultConfig(*generateConfig); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default configuration to %s\n", *generateConfig)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if *configPath == "" {
		if found, _, err := config.FindConfigFile("console.toml", "console"); err == nil {
			*configPath = found
		}
	}
	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.Server.URL = *serverURL
	}
	if *dataDir != "" {
		cfg.Console.DataDir = *dataDir
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *noColor {
		cfg.Console.Color = false
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	err = a.run(ctx, args[0], args[1:])
	a.close()
	if errors.Is(err, errUsage) {
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

// newApp wires the client, settings store and controller. Command output
// goes to out.
func newApp(cfg *Config, out io.Writer) (*app, error) {
	dataDir := cfg.Console.DataDir
	if dataDir == "" {
		dir, err := config.GetDataDirectory("console", false)
		if err != nil {
			return nil, err
		}
		dataDir = dir
	}

	logDir := ""
	if cfg.Logging.ToFile {
		logDir = filepath.Join(dataDir, "logs")
	}
	level := logger.LevelFromString(cfg.Logging.Level)
	log := logger.New("console", level, logDir, 500)
	log.SetConsoleOutput(level >= logger.DEBUG)

	term := util.NewTerminal(out, cfg.Console.Color)

	store, err := settings.Open(filepath.Join(dataDir, "console.db"))
	if err != nil {
		return nil, err
	}

	scanMode, _ := session.ParseScanMode(cfg.Console.ScanMode)
	filterMode, _ := filter.ParseMode(cfg.Console.FilterMode)

	c := client.New(cfg.Server.URL,
		client.WithLogger(log),
		client.WithTimeout(time.Duration(cfg.Server.TimeoutSeconds)*time.Second))

	board := notify.NewBoard(time.Duration(cfg.Console.NotificationSeconds) * time.Second)
	notifier := notify.Tee(board, notify.Func(func(n notify.Notification) {
		switch n.Level {
		case notify.LevelSuccess:
			term.Success(n.Message)
		case notify.LevelError:
			term.Error(n.Message)
		case notify.LevelWarning:
			term.Warning(n.Message)
		default:
			term.Info(n.Message)
		}
	}))

	a := &app{
		cfg:    cfg,
		log:    log,
		term:   term,
		view:   &renderer{term: term},
		client: c,
		store:  store,
		board:  board,
		mode:   scanMode,
	}
	a.ctrl = session.New(session.Options{
		Backend:    c,
		Settings:   store,
		Notifier:   notifier,
		Logger:     log,
		ScanMode:   scanMode,
		FilterMode: filterMode,
		OnChange: func(devices []api.Device) {
			if a.watching.Load() {
				a.render(devices)
			}
		},
	})
	return a, nil
}

func (a *app) close() {
	a.ctrl.Close()
	a.store.Close()
	a.log.Close()
}

// checkServer warns when the backend speaks an incompatible protocol.
func (a *app) checkServer(ctx context.Context) {
	info, err := a.client.CheckCompatibility(ctx)
	switch {
	case err == nil:
		a.log.Debug("Server compatible", "version", info.Version, "protocol", info.ProtocolVersion)
	case client.IsTransport(err):
		// The command itself reports connection problems.
	default:
		a.term.Warning(err.Error())
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	if cmd != "version" && cmd != "settings" {
		a.checkServer(ctx)
	}

	switch cmd {
	case "scan":
		return a.cmdScan(ctx, args)
	case "scan-ip":
		if len(args) != 1 {
			return errUsage
		}
		a.ctrl.LoadSettings()
		res, err := a.dispatch(ctx, "scan-ip-btn.click", session.Event{IP: args[0]})
		if err != nil {
			return err
		}
		a.view.Table(res.Devices)
	case "list":
		return a.cmdList(ctx, args)
	case "show":
		if len(args) != 1 {
			return errUsage
		}
		res, err := a.dispatch(ctx, "row.click", session.Event{IP: args[0]})
		if err != nil {
			return err
		}
		a.view.Detail(*res.Device)
	case "delete":
		if len(args) != 1 {
			return errUsage
		}
		_, err := a.dispatch(ctx, "delete-btn.click", session.Event{IP: args[0]})
		return err
	case "export":
		return a.cmdExport(ctx, args)
	case "settings":
		return a.cmdSettings(ctx, args)
	case "watch":
		return a.cmdWatch(ctx)
	case "version":
		return a.cmdVersion(ctx)
	default:
		a.term.Error(fmt.Sprintf("unknown command %q", cmd))
		return errUsage
	}
	return nil
}

// dispatch sends a UI event to the controller.
func (a *app) dispatch(ctx context.Context, event string, ev session.Event) (session.Result, error) {
	a.log.Debug("Dispatching event", "event", event)
	return a.ctrl.Dispatch(ctx, event, ev)
}

// cmdScan presses the scan button. In single-ip mode the argument is the
// address to scan; otherwise it is a one-off range and the saved setting
// is left alone.
func (a *app) cmdScan(ctx context.Context, args []string) error {
	cfg := a.ctrl.LoadSettings()
	if len(args) > 1 {
		return errUsage
	}

	var ev session.Event
	if a.mode == session.ScanModeSingleIP {
		if len(args) != 1 {
			return errUsage
		}
		ev.IP = args[0]
		a.term.Info(fmt.Sprintf("Scanning %s ...", ev.IP))
	} else {
		if len(args) == 1 {
			cfg.NetworkRange = args[0]
			a.ctrl.State().SetSettings(cfg)
		}
		a.term.Info(fmt.Sprintf("Scanning %s ...", cfg.NetworkRange))
	}

	res, err := a.dispatch(ctx, "scan-btn.click", ev)
	if err != nil {
		return err
	}
	a.view.Table(res.Devices)
	return nil
}

// cmdList reloads the list and applies each filter flag as the matching
// control change.
func (a *app) cmdList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	search := fs.String("search", "", "match name, model or IP")
	location := fs.String("location", "", "match location")
	ip := fs.String("ip", "", "match IP")
	toner := fs.String("toner", "", "black toner bucket: low, medium or high")
	hideOffline := fs.Bool("hide-offline", false, "hide offline devices")
	hideWarning := fs.Bool("hide-warning", false, "hide devices with warnings")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	res, err := a.dispatch(ctx, "devices.reload", session.Event{})
	if err != nil {
		return err
	}
	changes := []struct {
		event string
		ev    session.Event
	}{
		{"search-input.input", session.Event{Value: *search}},
		{"location-filter.input", session.Event{Value: *location}},
		{"ip-filter.input", session.Event{Value: *ip}},
		{"toner-filter.change", session.Event{Value: *toner}},
		{"show-offline.change", session.Event{Checked: !*hideOffline}},
		{"show-warning.change", session.Event{Checked: !*hideWarning}},
	}
	for _, ch := range changes {
		if res, err = a.dispatch(ctx, ch.event, ch.ev); err != nil {
			return err
		}
	}
	a.view.Table(res.Devices)
	return nil
}

func (a *app) cmdExport(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	path := export.FileName(time.Now())
	if len(args) == 1 {
		path = args[0]
	}
	res, err := a.dispatch(ctx, "devices.reload", session.Event{})
	if err != nil {
		return err
	}
	if len(res.Devices) == 0 {
		// Reports "No devices to export" without creating the file.
		_, err := a.dispatch(ctx, "export-btn.click", session.Event{Writer: io.Discard})
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		a.term.Error(fmt.Sprintf("Cannot create %s: %v", path, err))
		return err
	}
	if _, err := a.dispatch(ctx, "export-btn.click", session.Event{Writer: f}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		a.term.Error(fmt.Sprintf("Cannot write %s: %v", path, err))
		return err
	}
	a.term.Info("Wrote " + path)
	return nil
}

func (a *app) cmdSettings(ctx context.Context, args []string) error {
	if _, err := a.dispatch(ctx, "settings-modal.open", session.Event{}); err != nil {
		return err
	}
	if len(args) == 0 || args[0] == "show" {
		a.view.Settings(a.ctrl.State().Settings())
		return nil
	}
	if args[0] != "set" || len(args) < 2 {
		return errUsage
	}

	form := make(map[string]string, len(args)-1)
	for _, kv := range args[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			a.term.Error(fmt.Sprintf("expected key=value, got %q", kv))
			return errUsage
		}
		form[strings.TrimSpace(k)] = v
	}

	a.checkServer(ctx)
	_, err := a.dispatch(ctx, "save-settings.click", session.Event{Form: form})
	a.view.Settings(a.ctrl.State().Settings())
	return err
}

func (a *app) cmdVersion(ctx context.Context) error {
	out := a.term.Writer()
	fmt.Fprintf(out, "console  %s (protocol %s, commit %s)\n", version.Version, version.ProtocolVersion, version.GitCommit)
	info, err := a.client.Version(ctx)
	if err != nil {
		a.term.Warning("server unreachable: " + err.Error())
		return nil
	}
	fmt.Fprintf(out, "server   %s (protocol %s)\n", info.Version, info.ProtocolVersion)
	if err := version.CheckProtocol(info.ProtocolVersion); err != nil {
		a.term.Warning(err.Error())
	}
	return nil
}

func (a *app) render(devices []api.Device) {
	a.term.ClearScreen()
	a.term.Banner("Printer Scanner Console", version.Version, version.GitCommit, version.BuildTime)
	cfg := a.ctrl.State().Settings()
	if cfg.AutoScan {
		fmt.Fprintf(a.term.Writer(), "Range %s, auto-scan every %ds\n\n", cfg.NetworkRange, cfg.ScanInterval)
	} else {
		fmt.Fprintf(a.term.Writer(), "Range %s, auto-scan off\n\n", cfg.NetworkRange)
	}
	if n, ok := a.board.Latest(); ok {
		fmt.Fprintf(a.term.Writer(), "[%s] %s\n\n", n.Level, n.Message)
	}
	a.view.Table(devices)
}

// cmdWatch runs the interactive session: the initial scan, auto-scan per
// the saved settings and live server events until interrupted.
func (a *app) cmdWatch(ctx context.Context) error {
	a.watching.Store(true)
	if err := a.ctrl.Start(ctx); err != nil && !client.IsApplication(err) {
		a.log.Warn("Initial scan failed", "error", err)
	}

	backoff := time.Second
	for ctx.Err() == nil {
		err := a.followEvents(ctx)
		if ctx.Err() != nil {
			break
		}
		a.log.Debug("Event stream closed", "error", err)
		select {
		case <-ctx.Done():
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
	fmt.Fprintln(a.term.Writer())
	a.term.Info("Stopped watching")
	return nil
}

// followEvents subscribes to the server's event stream and reacts to
// device changes until the connection drops or ctx ends.
func (a *app) followEvents(ctx context.Context) error {
	wsURL, err := wscommon.EventsURL(a.cfg.Server.URL, "/api/events")
	if err != nil {
		return err
	}
	conn, _, err := wscommon.Dial(wsURL, nil, 10*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.WriteClose(time.Second)
		conn.Close()
	})
	defer stop()

	a.log.Debug("Subscribed to server events", "url", wsURL)
	for {
		msg, err := conn.ReadEvent()
		if err != nil {
			return err
		}
		a.handleEvent(ctx, msg)
	}
}

func (a *app) handleEvent(ctx context.Context, msg wscommon.Message) {
	switch msg.Type {
	case wscommon.MessageTypeScanStarted:
		a.term.Info("Server scan started: " + msg.String("target"))
	case wscommon.MessageTypeScanCompleted,
		wscommon.MessageTypeDeviceUpdated,
		wscommon.MessageTypeDeviceDeleted:
		if a.ctrl.State().ScanInProgress() {
			// Our own scan result replaces the list on its own.
			return
		}
		a.ctrl.Reload(ctx)
	case wscommon.MessageTypeScanFailed:
		a.term.Warning("Server scan failed: " + msg.String("error"))
	case wscommon.MessageTypeLog:
		text := msg.String("message")
		if msg.String("level") == "ERROR" {
			a.term.Error(text)
		} else {
			a.term.Warning(text)
		}
	}
}
