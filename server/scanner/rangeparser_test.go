package scanner

import (
	"strings"
	"testing"
)

func TestParseRangeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		wantCount int
		wantFirst string
		wantLast  string
		wantErrs  int
	}{
		{"single", "10.2.106.72", 1, "10.2.106.72", "10.2.106.72", 0},
		{"cidr", "192.168.10.0/30", 4, "192.168.10.0", "192.168.10.3", 0},
		{"default range", "192.168.0.0/24", 256, "192.168.0.0", "192.168.0.255", 0},
		{"full dash", "10.0.0.250-10.0.1.2", 9, "10.0.0.250", "10.0.1.2", 0},
		{"shorthand dash", "10.0.0.10-20", 11, "10.0.0.10", "10.0.0.20", 0},
		{"wildcard", "192.168.100.x", 256, "192.168.100.0", "192.168.100.255", 0},
		{"comma list dedup", "10.0.0.1, 10.0.0.2,10.0.0.1", 2, "10.0.0.1", "10.0.0.2", 0},
		{"comments and lines", "# office\n10.0.0.1\n\n10.0.0.3", 2, "10.0.0.1", "10.0.0.3", 0},
		{"invalid kept separately", "not-an-ip,10.0.0.1", 1, "10.0.0.1", "10.0.0.1", 1},
		{"reversed range", "10.0.0.20-10.0.0.10", 0, "", "", 1},
		{"ipv6", "fe80::/120", 0, "", "", 1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := ParseRangeText(tt.text, 1024)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Count() != tt.wantCount {
				t.Fatalf("count = %d, want %d (%v)", res.Count(), tt.wantCount, res.IPs)
			}
			if len(res.Errors) != tt.wantErrs {
				t.Errorf("errors = %v, want %d", res.Errors, tt.wantErrs)
			}
			if tt.wantCount > 0 {
				if res.IPs[0] != tt.wantFirst || res.IPs[len(res.IPs)-1] != tt.wantLast {
					t.Errorf("range = %s..%s, want %s..%s", res.IPs[0], res.IPs[len(res.IPs)-1], tt.wantFirst, tt.wantLast)
				}
			}
		})
	}
}

func TestParseRangeTextMaxAddresses(t *testing.T) {
	t.Parallel()

	if _, err := ParseRangeText("10.0.0.0/16", 1024); err == nil || !strings.Contains(err.Error(), "over max") {
		t.Fatalf("expected cap error, got %v", err)
	}
	if _, err := ParseRangeText("10.0.0.0/8", 1024); err == nil {
		t.Fatal("expected cap error for /8")
	}
	if _, err := ParseRangeText("10.0.0.1,10.0.0.2,10.0.0.3", 2); err == nil {
		t.Fatal("expected cap error for list")
	}
}
