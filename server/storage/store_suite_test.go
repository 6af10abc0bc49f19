package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
)

func testDevice(ip, name string, black int) api.Device {
	return api.Device{
		IP:         ip,
		Name:       name,
		Model:      "HP LaserJet M404",
		Serial:     "SN-" + ip,
		LastUpdate: "2025-11-01 12:00:00",
		Status:     string(api.StatusOnline),
		PageCount:  1200,
		Toner: map[api.TonerChannel]api.TonerLevel{
			api.Black: api.NewTonerLevel(black, 100),
			api.Cyan:  api.DefaultTonerLevel(),
		},
	}
}

func ips(devices []api.Device) []string {
	out := make([]string, len(devices))
	for i, d := range devices {
		out[i] = d.IP
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// runStoreSuite exercises the Store contract. It is shared by the sqlite
// unit tests and the postgres integration test.
func runStoreSuite(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("EmptyList", func(t *testing.T) {
		if err := store.ReplaceAll(ctx, nil); err != nil {
			t.Fatalf("ReplaceAll(nil): %v", err)
		}
		got, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("List on empty store = %v, want empty non-nil slice", got)
		}
	})

	t.Run("ReplaceAllKeepsOrder", func(t *testing.T) {
		devices := []api.Device{
			testDevice("10.0.0.20", "b", 80),
			testDevice("10.0.0.3", "a", 5),
			testDevice("10.0.0.100", "c", 40),
		}
		if err := store.ReplaceAll(ctx, devices); err != nil {
			t.Fatalf("ReplaceAll: %v", err)
		}
		got, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if want := ips(devices); !equalStrings(ips(got), want) {
			t.Errorf("List order = %v, want %v", ips(got), want)
		}

		if err := store.ReplaceAll(ctx, devices[:1]); err != nil {
			t.Fatalf("ReplaceAll second: %v", err)
		}
		got, _ = store.List(ctx)
		if !equalStrings(ips(got), []string{"10.0.0.20"}) {
			t.Errorf("second ReplaceAll should drop old rows, got %v", ips(got))
		}
	})

	t.Run("GetRoundTripsToner", func(t *testing.T) {
		d := testDevice("10.0.0.7", "office", 9)
		d.Location = "2F"
		d.Contact = "it@example.com"
		d.Uptime = "1d 2h 3m"
		d.Status = string(api.StatusWarning)
		if err := store.Upsert(ctx, d); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		got, err := store.Get(ctx, "10.0.0.7")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Location != "2F" || got.Contact != "it@example.com" || got.Uptime != "1d 2h 3m" {
			t.Errorf("details not stored: %+v", got)
		}
		if got.Status != "warning" || got.PageCount != 1200 {
			t.Errorf("status/pages = %q/%d", got.Status, got.PageCount)
		}
		if got.TonerPercent(api.Black) != 9 {
			t.Errorf("black toner = %d, want 9", got.TonerPercent(api.Black))
		}
		if lvl := got.Toner[api.Cyan]; lvl != api.DefaultTonerLevel() {
			t.Errorf("cyan toner = %+v", lvl)
		}
	})

	t.Run("UpsertAppendsNewAndKeepsPosition", func(t *testing.T) {
		if err := store.ReplaceAll(ctx, []api.Device{
			testDevice("10.0.0.1", "first", 50),
			testDevice("10.0.0.2", "second", 50),
		}); err != nil {
			t.Fatalf("ReplaceAll: %v", err)
		}
		if err := store.Upsert(ctx, testDevice("10.0.0.9", "added", 50)); err != nil {
			t.Fatalf("Upsert new: %v", err)
		}
		if err := store.Upsert(ctx, testDevice("10.0.0.1", "renamed", 30)); err != nil {
			t.Fatalf("Upsert existing: %v", err)
		}
		got, _ := store.List(ctx)
		if want := []string{"10.0.0.1", "10.0.0.2", "10.0.0.9"}; !equalStrings(ips(got), want) {
			t.Fatalf("List order = %v, want %v", ips(got), want)
		}
		if got[0].Name != "renamed" || got[0].TonerPercent(api.Black) != 30 {
			t.Errorf("existing device not updated: %+v", got[0])
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		if _, err := store.Get(ctx, "192.0.2.1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get unknown = %v, want ErrNotFound", err)
		}
		if err := store.Delete(ctx, "192.0.2.1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Delete unknown = %v, want ErrNotFound", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Upsert(ctx, testDevice("10.0.0.50", "gone", 50)); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		if err := store.Delete(ctx, "10.0.0.50"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := store.Get(ctx, "10.0.0.50"); !errors.Is(err, ErrNotFound) {
			t.Errorf("device still present after delete: %v", err)
		}
	})

	t.Run("ScanHistory", func(t *testing.T) {
		base := time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)
		for i, id := range []string{"scan-a", "scan-b", "scan-c"} {
			rec := ScanRecord{
				ID:         id,
				Kind:       ScanKindRange,
				Target:     "10.0.0.0/24",
				StartedAt:  base.Add(time.Duration(i) * time.Minute),
				FinishedAt: base.Add(time.Duration(i)*time.Minute + 5*time.Second),
				Found:      i,
				Success:    i != 1,
				Message:    api.ScanFoundMessage(i),
			}
			if err := store.RecordScan(ctx, rec); err != nil {
				t.Fatalf("RecordScan(%s): %v", id, err)
			}
		}

		recent, err := store.RecentScans(ctx, 2)
		if err != nil {
			t.Fatalf("RecentScans: %v", err)
		}
		if len(recent) != 2 || recent[0].ID != "scan-c" || recent[1].ID != "scan-b" {
			t.Fatalf("RecentScans = %+v", recent)
		}
		if recent[1].Success || !recent[0].Success {
			t.Errorf("success flags not preserved: %+v", recent)
		}
		if recent[0].Duration() != 5*time.Second {
			t.Errorf("Duration = %v", recent[0].Duration())
		}
		if recent[0].Kind != ScanKindRange || recent[0].Found != 2 {
			t.Errorf("unexpected record: %+v", recent[0])
		}

		if err := store.RecordScan(ctx, ScanRecord{}); err == nil {
			t.Error("RecordScan without id should fail")
		}
	})
}
