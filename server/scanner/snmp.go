package scanner

import (
	"fmt"
	"time"

	"github.com/gosnmp/gosnmp"
)

// SNMPConfig holds SNMP connection parameters.
type SNMPConfig struct {
	Community string
	// Version is 1 or 2 (v2c).
	Version int
	Port    uint16
	Timeout time.Duration
	Retries int
}

// DefaultSNMPConfig mirrors the server defaults: community "public", v2c,
// UDP 161, 2s timeout, one retry.
func DefaultSNMPConfig() SNMPConfig {
	return SNMPConfig{
		Community: "public",
		Version:   2,
		Port:      161,
		Timeout:   2 * time.Second,
		Retries:   1,
	}
}

// SNMPVersion maps the numeric setting onto a gosnmp version.
func SNMPVersion(v int) (gosnmp.SnmpVersion, error) {
	switch v {
	case 1:
		return gosnmp.Version1, nil
	case 2:
		return gosnmp.Version2c, nil
	default:
		return 0, fmt.Errorf("unsupported SNMP version: %d", v)
	}
}

// SNMPClient defines the interface for SNMP operations.
type SNMPClient interface {
	Connect() error
	Get(oids []string) (*gosnmp.SnmpPacket, error)
	Close() error
}

type gosnmpClient struct {
	conn *gosnmp.GoSNMP
}

func (c *gosnmpClient) Connect() error {
	return c.conn.Connect()
}

func (c *gosnmpClient) Get(oids []string) (*gosnmp.SnmpPacket, error) {
	return c.conn.Get(oids)
}

func (c *gosnmpClient) Close() error {
	if c.conn.Conn == nil {
		return nil
	}
	return c.conn.Conn.Close()
}

func newSNMPClientImpl(cfg SNMPConfig, target string) (SNMPClient, error) {
	if target == "" {
		return nil, fmt.Errorf("target IP required")
	}
	version, err := SNMPVersion(cfg.Version)
	if err != nil {
		return nil, err
	}
	port := cfg.Port
	if port == 0 {
		port = 161
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	client := &gosnmpClient{conn: &gosnmp.GoSNMP{
		Target:    target,
		Port:      port,
		Community: cfg.Community,
		Version:   version,
		Timeout:   timeout,
		Retries:   cfg.Retries,
	}}
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	return client, nil
}

// NewSNMPClientFunc creates SNMP clients. Tests replace it with a fake.
var NewSNMPClientFunc = newSNMPClientImpl
