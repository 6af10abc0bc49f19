// Package handlers provides the HTTP API of the printer scanner server.
// Dependencies are injected through the small interfaces below so tests can
// drive the handlers with fakes.
package handlers

import (
	"context"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
	wscommon "github.com/ParkChongsam/network-printer-scanner/common/ws"
)

// Scanner discovers printers and reads their details.
type Scanner interface {
	Scan(ctx context.Context, rangeText string) ([]api.Device, error)
	ScanHost(ctx context.Context, ip string) (*api.Device, error)
	Details(ctx context.Context, ip string) (*api.Device, error)
}

// Broadcaster publishes events to websocket subscribers.
type Broadcaster interface {
	Broadcast(msg wscommon.Message)
}

// Logger provides logging capabilities.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(wscommon.Message) {}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
