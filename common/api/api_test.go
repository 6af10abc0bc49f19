package api

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidateIPv4(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		valid bool
	}{
		{"10.0.0.5", true},
		{"0.0.0.0", true},
		{"255.255.255.255", true},
		{"192.168.001.010", true},
		{"256.1.1.1", false},
		{"1.2.3", false},
		{"1.2.3.4.5", false},
		{"1..2.3", false},
		{"", false},
		{" 1.2.3.4", false},
		{"1.2.3.-4", false},
		{"1.2.3.+4", false},
		{"a.b.c.d", false},
		{"1.2.3.0004", false},
		{"192.168.0.0/24", false},
	}
	for _, tt := range tests {
		err := ValidateIPv4(tt.in)
		if (err == nil) != tt.valid {
			t.Errorf("ValidateIPv4(%q) err = %v, want valid=%v", tt.in, err, tt.valid)
		}
		if err != nil {
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("ValidateIPv4(%q) returned %T, want *ValidationError", tt.in, err)
			}
		}
	}
}

func TestNormalizeStatus(t *testing.T) {
	t.Parallel()

	tests := map[string]Status{
		"online":  StatusOnline,
		"OFFLINE": StatusOffline,
		"Warning": StatusWarning,
		"":        StatusOnline,
		"jammed":  StatusOnline,
	}
	for in, want := range tests {
		if got := NormalizeStatus(in); got != want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestComputePercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level, max, want int
	}{
		{50, 100, 50},
		{1, 3, 33},
		{2, 3, 66},
		{10, 0, 0},
		{10, -5, 0},
		{150, 100, 100},
		{-3, 100, 0},
	}
	for _, tt := range tests {
		if got := ComputePercent(tt.level, tt.max); got != tt.want {
			t.Errorf("ComputePercent(%d,%d) = %d, want %d", tt.level, tt.max, got, tt.want)
		}
	}
	if d := DefaultTonerLevel(); d.Max != 100 || d.Percent != 0 {
		t.Errorf("DefaultTonerLevel = %+v", d)
	}
}

func TestDeviceTonerPercentAndClone(t *testing.T) {
	t.Parallel()

	d := Device{IP: "10.0.0.5", Toner: map[TonerChannel]TonerLevel{Black: {Percent: 140}}}
	if d.TonerPercent(Black) != 100 {
		t.Errorf("black percent should clamp to 100, got %d", d.TonerPercent(Black))
	}
	if d.TonerPercent(Cyan) != 0 {
		t.Error("missing channel should be 0")
	}

	c := d.Clone()
	c.Toner[Black] = TonerLevel{Percent: 5}
	if d.Toner[Black].Percent != 140 {
		t.Error("Clone must not share the toner map")
	}
	if Display("  ") != Placeholder || Display("HP") != "HP" {
		t.Error("Display placeholder mismatch")
	}
}

func TestDevicesResponseAcceptsBothShapes(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		`{"devices":[{"ip":"10.0.0.1"},{"ip":"10.0.0.2"}]}`,
		`[{"ip":"10.0.0.1"},{"ip":"10.0.0.2"}]`,
	} {
		var r DevicesResponse
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
		if len(r.Devices) != 2 || r.Devices[1].IP != "10.0.0.2" {
			t.Errorf("decode %s: got %+v", raw, r.Devices)
		}
	}
}

func TestDeviceJSONFieldNames(t *testing.T) {
	t.Parallel()

	raw := `{"ip":"10.0.0.5","name":"Front desk","model":"HP M428","serial":"X1","status":"Warning",
	"page_count":1200,"last_update":"2024-01-01 10:00:00",
	"toner":{"black":{"level":10,"max":100,"percent":10}}}`
	var d Device
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatal(err)
	}
	if d.PageCount != 1200 || d.NormalizedStatus() != StatusWarning || d.TonerPercent(Black) != 10 {
		t.Errorf("unexpected device: %+v", d)
	}
	if ScanFoundMessage(3) != "3 devices found" {
		t.Error("unexpected scan message")
	}
}
