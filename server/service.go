package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/kardianos/service"
)

// program implements service.Interface
type program struct {
	configPath string
	overrides  flagOverrides

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	svcLogger service.Logger
}

func (p *program) Start(s service.Service) error {
	p.svcLogger, _ = s.Logger(nil)
	if p.svcLogger != nil {
		p.svcLogger.Info("Printer Scanner service starting")
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.done = make(chan struct{})

	go p.run()
	return nil
}

func (p *program) run() {
	defer close(p.done)

	if err := runServer(p.ctx, p.configPath, p.overrides, true); err != nil && p.svcLogger != nil {
		p.svcLogger.Error(fmt.Sprintf("Printer Scanner service failed: %v", err))
	}
}

func (p *program) Stop(s service.Service) error {
	if p.svcLogger != nil {
		p.svcLogger.Info("Printer Scanner service stop requested")
	}
	if p.cancel != nil {
		p.cancel()
	}

	select {
	case <-p.done:
		if p.svcLogger != nil {
			p.svcLogger.Info("Printer Scanner service stopped gracefully")
		}
	case <-time.After(30 * time.Second):
		if p.svcLogger != nil {
			p.svcLogger.Warning("Printer Scanner service stopped with timeout")
		}
	}
	return nil
}

// serviceWorkingDir returns the platform directory the service runs in.
func serviceWorkingDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "printscan", "server")
	case "darwin":
		return "/Library/Application Support/printscan/server"
	default:
		return "/var/lib/printscan/server"
	}
}

// serviceConfigPath is where the installed service reads its config.
func serviceConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(serviceWorkingDir(), "server.toml")
	case "darwin":
		return filepath.Join(serviceWorkingDir(), "server.toml")
	default:
		return "/etc/printscan/server/server.toml"
	}
}

// getServiceConfig returns the service configuration for the current platform
func getServiceConfig() *service.Config {
	return &service.Config{
		Name:             "PrinterScannerServer",
		DisplayName:      "Printer Scanner Server",
		Description:      "Discovers network printers over SNMP and serves their status to the device console.",
		WorkingDirectory: serviceWorkingDir(),
		Arguments:        []string{"-service", "run", "-config", serviceConfigPath()},
		Option: service.KeyValue{
			// Windows
			"StartType":              "automatic",
			"OnFailure":              "restart",
			"OnFailureDelayDuration": "5s",
			"OnFailureResetPeriod":   30,

			// systemd
			"Restart":           "on-failure",
			"RestartSec":        5,
			"SuccessExitStatus": "0 SIGTERM",
			"KillSignal":        "SIGTERM",

			// launchd
			"RunAtLoad": true,
			"KeepAlive": true,
		},
	}
}

// setupServiceDirectories creates the working directory and a default
// config file for an installed service.
func setupServiceDirectories() error {
	dirs := []string{serviceWorkingDir(), filepath.Join(serviceWorkingDir(), "logs"), filepath.Dir(serviceConfigPath())}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	path := serviceConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := WriteDefaultConfig(path); err != nil {
			return fmt.Errorf("failed to generate default config at %s: %w", path, err)
		}
		fmt.Printf("Generated default configuration at: %s\n", path)
	} else {
		fmt.Printf("Configuration already exists at: %s\n", path)
	}
	return nil
}

// handleServiceCommand runs install/uninstall/start/stop/restart/status/run.
func handleServiceCommand(cmd string, prg *program) error {
	s, err := service.New(prg, getServiceConfig())
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	switch cmd {
	case "install":
		if err := setupServiceDirectories(); err != nil {
			return err
		}
		if err := s.Install(); err != nil {
			return fmt.Errorf("failed to install service: %w", err)
		}
		fmt.Println("Service installed. Use '-service start' to start it.")
	case "uninstall":
		if err := s.Uninstall(); err != nil {
			return fmt.Errorf("failed to uninstall service: %w", err)
		}
		fmt.Println("Service uninstalled")
	case "start":
		if err := s.Start(); err != nil {
			return fmt.Errorf("failed to start service: %w", err)
		}
		fmt.Println("Service started")
	case "stop":
		if err := s.Stop(); err != nil {
			return fmt.Errorf("failed to stop service: %w", err)
		}
		fmt.Println("Service stopped")
	case "restart":
		if err := s.Restart(); err != nil {
			return fmt.Errorf("failed to restart service: %w", err)
		}
		fmt.Println("Service restarted")
	case "status":
		status, err := s.Status()
		if err != nil {
			return fmt.Errorf("failed to query service: %w", err)
		}
		fmt.Println(serviceStatusText(status))
	case "run":
		return s.Run()
	default:
		return fmt.Errorf("unknown service command %q (valid: install, uninstall, start, stop, restart, status, run)", cmd)
	}
	return nil
}

func serviceStatusText(status service.Status) string {
	switch status {
	case service.StatusRunning:
		return "running"
	case service.StatusStopped:
		return "stopped"
	default:
		return "not installed"
	}
}
