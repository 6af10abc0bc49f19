// Printer Scanner Server - discovers network printers over SNMP and serves
// the device list, scan endpoints and a live event stream to the console.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/kardianos/service"

	"github.com/ParkChongsam/network-printer-scanner/common/config"
	"github.com/ParkChongsam/network-printer-scanner/common/logger"
	"github.com/ParkChongsam/network-printer-scanner/common/version"
	wscommon "github.com/ParkChongsam/network-printer-scanner/common/ws"
	"github.com/ParkChongsam/network-printer-scanner/server/handlers"
	"github.com/ParkChongsam/network-printer-scanner/server/scanner"
	"github.com/ParkChongsam/network-printer-scanner/server/schedule"
	"github.com/ParkChongsam/network-printer-scanner/server/storage"
)

// flagOverrides carries command line values that win over the config file.
type flagOverrides struct {
	Port     int
	DBPath   string
	LogLevel string
}

func main() {
	configPath := flag.String("config", "", "Path to server.toml (default: search standard locations)")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: error, warn, info, debug, trace (overrides config)")
	serviceCmd := flag.String("service", "", "Service command: install, uninstall, start, stop, restart, status, run")
	healthCheck := flag.Bool("health-check", false, "Probe /health on the local server and exit")
	generateConfig := flag.String("generate-config", "", "Write a default config file to the given path and exit")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("printscan-server %s (protocol %s, commit %s, built %s, %s/%s)\n",
			version.Version, version.ProtocolVersion, version.GitCommit, version.BuildTime, runtime.GOOS, runtime.GOARCH)
		return
	}

	if *generateConfig != "" {
		if err := WriteDefaultConfig(*generateConfig); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Wrote default configuration to %s\n", *generateConfig)
		return
	}

	overrides := flagOverrides{Port: *port, DBPath: *dbPath, LogLevel: *logLevel}

	if *healthCheck {
		cfg, err := loadServerConfig(*configPath, overrides)
		if err != nil {
			log.Fatal(err)
		}
		if err := handlers.RunHealthCheck(cfg.Server.Port); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("healthy")
		return
	}

	prg := &program{configPath: *configPath, overrides: overrides}

	if *serviceCmd != "" {
		if err := handleServiceCommand(*serviceCmd, prg); err != nil {
			log.Fatal(err)
		}
		return
	}

	// Started by the service manager without explicit flags.
	if !service.Interactive() {
		if err := handleServiceCommand("run", prg); err != nil {
			log.Fatal(err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runServer(ctx, *configPath, overrides, false); err != nil {
		log.Fatal(err)
	}
}

// loadServerConfig finds and loads the config, then applies flag overrides.
func loadServerConfig(configPath string, overrides flagOverrides) (*Config, error) {
	if configPath == "" {
		if found, _, err := config.FindConfigFile("server.toml", "server"); err == nil {
			configPath = found
		}
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	overrides.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o flagOverrides) apply(cfg *Config) {
	if o.Port > 0 {
		cfg.Server.Port = o.Port
	}
	if o.DBPath != "" {
		cfg.Database.Path = o.DBPath
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
}

// runServer wires the scanner, store, event hub and HTTP API and serves
// until ctx is cancelled.
func runServer(ctx context.Context, configPath string, overrides flagOverrides, isService bool) error {
	cfg, err := loadServerConfig(configPath, overrides)
	if err != nil {
		return err
	}

	dataDir, err := config.GetDataDirectory("server", isService)
	if err != nil {
		return err
	}

	logDir := ""
	if cfg.Logging.ToFile || isService {
		logDir = filepath.Join(dataDir, "logs")
	}
	appLogger := logger.New("server", logger.LevelFromString(cfg.Logging.Level), logDir, 1000)
	defer appLogger.Close()

	appLogger.Info("Server starting",
		"version", version.Version,
		"protocol", version.ProtocolVersion,
		"commit", version.GitCommit,
		"go", runtime.Version())

	hub := wscommon.NewHub()
	defer hub.Stop()

	// Warnings and errors reach watching consoles as live notices.
	appLogger.SetOnLogCallback(func(entry logger.LogEntry) {
		if entry.Level > logger.WARN {
			return
		}
		data := map[string]interface{}{
			"level":   logger.LevelToString(entry.Level),
			"message": entry.Message,
		}
		for k, v := range entry.Context {
			data[k] = v
		}
		hub.Broadcast(wscommon.NewMessage(wscommon.MessageTypeLog, data))
	})

	storage.SetLogger(appLogger)
	if cfg.Database.Path == "" && (cfg.Database.Driver == "" || cfg.Database.Driver == "sqlite") {
		cfg.Database.Path = storage.GetDefaultDBPath()
		if isService {
			cfg.Database.Path = filepath.Join(dataDir, "server.db")
		}
	}
	store, err := storage.NewStore(cfg.Database)
	if err != nil {
		appLogger.Error("Failed to initialize database", "error", err)
		return err
	}
	defer store.Close()
	appLogger.Info("Database initialized", "driver", cfg.Database.Driver)

	netScanner := scanner.New(cfg.ScannerConfig(), appLogger)
	scans := handlers.NewScanService(netScanner, store, hub, appLogger)

	defaultRange := func() string { return cfg.Scan.NetworkRange }
	scanTimeout := time.Duration(cfg.Scan.TimeoutSeconds) * time.Second

	router := handlers.NewRouter(handlers.RouterOptions{
		Devices: handlers.NewDeviceAPI(handlers.DeviceAPIOptions{
			Service:      scans,
			Store:        store,
			Events:       hub,
			Logger:       appLogger,
			DefaultRange: defaultRange,
			ScanTimeout:  scanTimeout,
		}),
		Health: handlers.NewHealthAPI(handlers.HealthAPIOptions{
			Version:         version.Version,
			BuildTime:       version.BuildTime,
			GitCommit:       version.GitCommit,
			ProtocolVersion: version.ProtocolVersion,
			ProcessStart:    time.Now(),
			Subscribers:     hub.ClientCount,
		}),
		Events:        handlers.NewEventsAPI(hub, appLogger),
		Logger:        appLogger,
		AllowedOrigin: cfg.Server.AllowedOrigin,
	})

	sched := schedule.New(scans, schedule.Options{
		Interval:   time.Duration(cfg.Scan.IntervalSeconds) * time.Second,
		Range:      defaultRange,
		RunOnStart: cfg.Scan.RunOnStart,
		Timeout:    scanTimeout,
	}, appLogger)
	sched.Start(ctx)
	defer sched.Stop()

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			appLogger.Error("HTTP server failed", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("HTTP shutdown did not complete", "error", err)
	}
	return nil
}
