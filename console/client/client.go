// Package client talks to the printer scanner backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
	"github.com/ParkChongsam/network-printer-scanner/common/logger"
	"github.com/ParkChongsam/network-printer-scanner/common/version"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 8 << 20

// Client is the console's backend client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	logger     *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.HTTPClient.Timeout = d }
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
		logger:     logger.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ScanNetwork sweeps networkRange. An empty range lets the backend use
// its configured default.
func (c *Client) ScanNetwork(ctx context.Context, networkRange string) (*api.ScanResponse, error) {
	var resp api.ScanResponse
	req := api.ScanRequest{NetworkRange: networkRange}
	if err := c.do(ctx, "network scan", http.MethodPost, "/api/scan", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ScanIP scans a single address. Malformed addresses fail with an
// *api.ValidationError without contacting the backend.
func (c *Client) ScanIP(ctx context.Context, ip string) (*api.ScanResponse, error) {
	if err := api.ValidateIPv4(ip); err != nil {
		return nil, err
	}
	var resp api.ScanResponse
	req := api.ScanRequest{IPAddress: ip}
	if err := c.do(ctx, "IP scan", http.MethodPost, "/api/scan", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Devices lists every stored device.
func (c *Client) Devices(ctx context.Context) ([]api.Device, error) {
	var resp api.DevicesResponse
	if err := c.do(ctx, "device list", http.MethodGet, "/api/devices", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Devices == nil {
		resp.Devices = []api.Device{}
	}
	return resp.Devices, nil
}

// Device fetches the detailed record of one device.
func (c *Client) Device(ctx context.Context, ip string) (*api.Device, error) {
	var resp api.DeviceResponse
	if err := c.do(ctx, "device details", http.MethodGet, "/api/device/"+url.PathEscape(ip), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Device == nil {
		return nil, &AppError{Op: "device details", Message: fmt.Sprintf("no device with IP %s", ip)}
	}
	return resp.Device, nil
}

// DeleteDevice removes a device from the backend.
func (c *Client) DeleteDevice(ctx context.Context, ip string) (*api.MessageResponse, error) {
	var resp api.MessageResponse
	if err := c.do(ctx, "device delete", http.MethodDelete, "/api/device/"+url.PathEscape(ip), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Version fetches the backend build and protocol versions.
func (c *Client) Version(ctx context.Context) (*api.VersionInfo, error) {
	var resp api.VersionInfo
	if err := c.do(ctx, "version check", http.MethodGet, "/api/version", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckCompatibility fails when the backend speaks an incompatible protocol.
func (c *Client) CheckCompatibility(ctx context.Context) (*api.VersionInfo, error) {
	info, err := c.Version(ctx)
	if err != nil {
		return nil, err
	}
	if err := version.CheckProtocol(info.ProtocolVersion); err != nil {
		return info, err
	}
	return info, nil
}

// envelope is the success/message pair every non-list answer carries.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// do performs a JSON request. Any status is accepted as long as the body
// decodes: {success:false} becomes an *AppError, an undecodable body or
// failed request a *TransportError.
func (c *Client) do(ctx context.Context, op, method, path string, reqBody, respBody interface{}) error {
	var bodyReader io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "PrinterScanner-Console/"+version.Version)

	c.logger.Debug("HTTP request", "method", method, "path", path)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.logger.Warn("HTTP request failed", "op", op, "error", err)
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	c.logger.Trace("HTTP response", "status", resp.StatusCode, "bytes", len(data))

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return &TransportError{Op: op, Err: fmt.Errorf("unexpected non-JSON response (HTTP %d)", resp.StatusCode)}
	}

	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return &TransportError{Op: op, Err: err}
		}
		failed := env.Success != nil && !*env.Success
		if failed || (env.Success == nil && resp.StatusCode >= 400) {
			msg := env.Message
			if msg == "" {
				msg = fmt.Sprintf("%s failed: %s", op, http.StatusText(resp.StatusCode))
			}
			return &AppError{Op: op, StatusCode: resp.StatusCode, Message: msg}
		}
	} else if resp.StatusCode >= 400 {
		return &AppError{Op: op, StatusCode: resp.StatusCode, Message: fmt.Sprintf("%s failed: %s", op, http.StatusText(resp.StatusCode))}
	}

	if respBody == nil {
		return nil
	}
	if err := json.Unmarshal(trimmed, respBody); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
