package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
	"github.com/ParkChongsam/network-printer-scanner/common/snmp/oids"
	"github.com/gosnmp/gosnmp"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func hpAgent() map[string]gosnmp.SnmpPDU {
	return map[string]gosnmp.SnmpPDU{
		oids.SysDescr:               octet("HP ETHERNET MULTI-ENVIRONMENT"),
		oids.SysName:                octet("NPI1A2B3C"),
		oids.HrDeviceDescr:          octet("HP LaserJet Pro M428fdw"),
		oids.PrtGeneralSerialNumber: octet("PHB1234567"),
		oids.PrtMarkerLifeCount:     counter(48213),
		oids.TonerLevelOID(1):       integer(1500),
		oids.TonerMaxOID(1):         integer(3000),
		oids.SysLocation:            octet("2F Finance"),
		oids.SysContact:             octet("it@example.com"),
		oids.SysUpTime:              ticks(9015000),
	}
}

func TestBuildDevice(t *testing.T) {
	t.Parallel()

	d := buildDevice("10.0.0.5", hpAgent(), fixedNow)
	if d.Name != "NPI1A2B3C" || d.Model != "HP LaserJet Pro M428fdw" || d.Serial != "PHB1234567" {
		t.Errorf("unexpected identity: %+v", d)
	}
	if d.PageCount != 48213 {
		t.Errorf("PageCount = %d", d.PageCount)
	}
	if got := d.Toner[api.Black]; got.Level != 1500 || got.Max != 3000 || got.Percent != 50 {
		t.Errorf("black toner = %+v", got)
	}
	if got := d.Toner[api.Cyan]; got != api.DefaultTonerLevel() {
		t.Errorf("unreported cyan should use default, got %+v", got)
	}
	if d.Status != "online" {
		t.Errorf("Status = %q", d.Status)
	}
	if d.LastUpdate != "2024-03-01 09:30:00" {
		t.Errorf("LastUpdate = %q", d.LastUpdate)
	}
}

func TestBuildDevicePlaceholdersAndWarnings(t *testing.T) {
	t.Parallel()

	empty := buildDevice("10.0.0.9", nil, fixedNow)
	if empty.Name != api.Placeholder || empty.Model != api.Placeholder || empty.Serial != api.Placeholder {
		t.Errorf("expected placeholders, got %+v", empty)
	}
	if empty.Status != "online" {
		t.Error("unknown toner must not raise a warning")
	}

	low := hpAgent()
	low[oids.TonerLevelOID(1)] = integer(150)
	if d := buildDevice("10.0.0.5", low, fixedNow); d.Status != "warning" {
		t.Errorf("5%% black should warn, got %q", d.Status)
	}

	unknownLevel := hpAgent()
	unknownLevel[oids.TonerLevelOID(1)] = integer(-3)
	if d := buildDevice("10.0.0.5", unknownLevel, fixedNow); d.Toner[api.Black] != api.DefaultTonerLevel() || d.Status != "online" {
		t.Errorf("negative level should be ignored: %+v", d)
	}

	fault := hpAgent()
	fault[oids.HrPrinterDetectedErrorState] = gosnmp.SnmpPDU{Type: gosnmp.OctetString, Value: []byte{0x40, 0x00}}
	if d := buildDevice("10.0.0.5", fault, fixedNow); d.Status != "warning" {
		t.Errorf("error state should warn, got %q", d.Status)
	}
}

func TestFormatUptime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{42 * time.Second, "42s"},
		{5*time.Minute + 6*time.Second, "5m 6s"},
		{4*time.Hour + 5*time.Minute + 59*time.Second, "4h 5m"},
		{3*24*time.Hour + 4*time.Hour + 5*time.Minute, "3d 4h 5m"},
	}
	for _, tt := range tests {
		if got := FormatUptime(tt.d); got != tt.want {
			t.Errorf("FormatUptime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestQueryDeviceDetails(t *testing.T) {
	useFakeSNMP(t, fakeAgents{"10.0.0.5": hpAgent()})

	d, err := QueryDevice(context.Background(), DefaultSNMPConfig(), "10.0.0.5", true, fixedNow)
	if err != nil {
		t.Fatalf("QueryDevice: %v", err)
	}
	if d.Location != "2F Finance" || d.Contact != "it@example.com" {
		t.Errorf("unexpected details: %+v", d)
	}
	// 9015000 ticks = 90150s = 1d 1h 2m
	if d.Uptime != "1d 1h 2m" {
		t.Errorf("Uptime = %q", d.Uptime)
	}
}

func TestQueryDeviceNoResponse(t *testing.T) {
	useFakeSNMP(t, fakeAgents{"10.0.0.6": {}})

	if _, err := QueryDevice(context.Background(), DefaultSNMPConfig(), "10.0.0.6", false, fixedNow); err == nil {
		t.Fatal("expected error when agent answers nothing")
	}
	if _, err := QueryDevice(context.Background(), DefaultSNMPConfig(), "10.0.0.7", false, fixedNow); err == nil {
		t.Fatal("expected error for unreachable agent")
	}
}

func TestPDUConversions(t *testing.T) {
	t.Parallel()

	if s := pduString(octet("  Room\x00 12 ")); s != "Room 12" {
		t.Errorf("pduString = %q", s)
	}
	if s := pduString(gosnmp.SnmpPDU{Type: gosnmp.OctetString, Value: []byte{0x53, 0xe9}}); s != "Sé" {
		t.Errorf("latin-1 fallback = %q", s)
	}
	if n, ok := pduInt(octet("1234")); !ok || n != 1234 {
		t.Errorf("numeric string = %d, %v", n, ok)
	}
	if _, ok := pduInt(octet("n/a")); ok {
		t.Error("non-numeric string should fail")
	}
	if n, ok := pduInt(counter(7)); !ok || n != 7 {
		t.Errorf("counter = %d, %v", n, ok)
	}
}

func TestClusterOIDs(t *testing.T) {
	t.Parallel()

	batches := clusterOIDs([]string{"a", "b", "c", "d", "e"}, 2)
	if len(batches) != 3 || len(batches[2]) != 1 || batches[2][0] != "e" {
		t.Errorf("unexpected batches: %v", batches)
	}
	if clusterOIDs(nil, 2) != nil {
		t.Error("empty input should produce no batches")
	}
}

func TestSNMPVersion(t *testing.T) {
	t.Parallel()

	if v, err := SNMPVersion(1); err != nil || v != gosnmp.Version1 {
		t.Errorf("v1 = %v, %v", v, err)
	}
	if v, err := SNMPVersion(2); err != nil || v != gosnmp.Version2c {
		t.Errorf("v2 = %v, %v", v, err)
	}
	if _, err := SNMPVersion(3); err == nil {
		t.Error("v3 should be rejected")
	}
}
