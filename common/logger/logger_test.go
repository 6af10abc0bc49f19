package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func quiet(l *Logger) *Logger {
	l.SetConsoleOutput(false)
	return l
}

func TestLoggerLevels(t *testing.T) {
	t.Parallel()

	logger := quiet(New("test", INFO, "", 100))
	defer logger.Close()

	logger.Error("error message")
	logger.Warn("warn message")
	logger.Info("info message")
	logger.Debug("debug message")
	logger.Trace("trace message")

	buffer := logger.GetBuffer()
	if len(buffer) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(buffer))
	}
	if buffer[0].Level != ERROR || buffer[1].Level != WARN || buffer[2].Level != INFO {
		t.Errorf("unexpected level order: %v %v %v", buffer[0].Level, buffer[1].Level, buffer[2].Level)
	}
}

func TestLoggerContext(t *testing.T) {
	t.Parallel()

	logger := quiet(New("test", INFO, "", 100))
	logger.Info("test message", "key1", "value1", "key2", 42, "dangling")

	buffer := logger.GetBuffer()
	if len(buffer) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(buffer))
	}
	entry := buffer[0]
	if entry.Context["key1"] != "value1" {
		t.Errorf("expected key1=value1, got %v", entry.Context["key1"])
	}
	if entry.Context["key2"] != 42 {
		t.Errorf("expected key2=42, got %v", entry.Context["key2"])
	}
	if _, ok := entry.Context["dangling"]; ok {
		t.Error("odd trailing key should be ignored")
	}
}

func TestLoggerCircularBuffer(t *testing.T) {
	t.Parallel()

	logger := quiet(New("test", INFO, "", 5))
	for i := 0; i < 10; i++ {
		logger.Info("message", "num", i)
	}

	buffer := logger.GetBuffer()
	if len(buffer) != 5 {
		t.Fatalf("expected buffer size 5, got %d", len(buffer))
	}
	if buffer[0].Context["num"] != 5 || buffer[4].Context["num"] != 9 {
		t.Errorf("expected entries 5..9, got %v..%v", buffer[0].Context["num"], buffer[4].Context["num"])
	}
}

func TestLoggerFileOutput(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	logger := quiet(New("server", INFO, tmpDir, 100))
	logger.Info("test message", "key", "value")
	logger.Close()

	content, err := os.ReadFile(filepath.Join(tmpDir, "server.log"))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	s := string(content)
	for _, want := range []string{"[INFO]", "test message", "key=value"} {
		if !strings.Contains(s, want) {
			t.Errorf("log file missing %q: %s", want, s)
		}
	}
}

func TestLoggerConsoleWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New("console", DEBUG, "", 10)
	logger.SetConsoleWriter(&buf)
	logger.Debug("scan finished", "found", 3)

	if !strings.Contains(buf.String(), "[DEBUG] scan finished found=3") {
		t.Errorf("unexpected console output: %q", buf.String())
	}
}

func TestLoggerRateLimiting(t *testing.T) {
	t.Parallel()

	logger := quiet(New("test", WARN, "", 100))
	for i := 0; i < 5; i++ {
		logger.WarnRateLimited("k", time.Hour, "rate limited", "count", i)
	}
	if got := len(logger.GetBuffer()); got != 1 {
		t.Errorf("expected 1 entry due to rate limiting, got %d", got)
	}

	logger.WarnRateLimited("other", time.Hour, "different key")
	if got := len(logger.GetBuffer()); got != 2 {
		t.Errorf("expected separate key to log, got %d entries", got)
	}
}

func TestLoggerFilteredBuffer(t *testing.T) {
	t.Parallel()

	logger := quiet(New("test", TRACE, "", 100))
	logger.Error("error")
	logger.Warn("warn")
	logger.Info("info")
	logger.Debug("debug")
	logger.Trace("trace")

	tests := []struct {
		level LogLevel
		want  int
	}{
		{ERROR, 1},
		{WARN, 2},
		{INFO, 3},
		{TRACE, 5},
	}
	for _, tt := range tests {
		if got := len(logger.GetBufferFiltered(tt.level)); got != tt.want {
			t.Errorf("GetBufferFiltered(%s) = %d entries, want %d", LevelToString(tt.level), got, tt.want)
		}
	}
}

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"ERROR", ERROR},
		{"warn", WARN},
		{"Warning", WARN},
		{"INFO", INFO},
		{" debug ", DEBUG},
		{"TRACE", TRACE},
		{"invalid", INFO},
	}
	for _, tt := range tests {
		if got := LevelFromString(tt.input); got != tt.expected {
			t.Errorf("LevelFromString(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestLoggerRotation(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	logger := quiet(New("server", INFO, tmpDir, 100))
	logger.SetRotation(Rotation{MaxBytes: 1, Keep: 2})

	logger.Info("first message")
	logger.Info("second message")
	logger.Info("third message")
	logger.Info("fourth message")
	logger.Close()

	base := filepath.Join(tmpDir, "server.log")
	if _, err := os.Stat(base + ".3"); !os.IsNotExist(err) {
		t.Errorf("backups beyond Keep should be removed, stat err = %v", err)
	}
	newest, err := os.ReadFile(base + ".1")
	if err != nil {
		t.Fatalf("read newest backup: %v", err)
	}
	if !strings.Contains(string(newest), "fourth message") {
		t.Errorf("server.log.1 = %q, want the last entry", newest)
	}
	older, err := os.ReadFile(base + ".2")
	if err != nil {
		t.Fatalf("read older backup: %v", err)
	}
	if !strings.Contains(string(older), "third message") {
		t.Errorf("server.log.2 = %q", older)
	}
}

func TestLoggerAppendsToExistingFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	first := quiet(New("console", INFO, tmpDir, 10))
	first.Info("from the first run")
	first.Close()

	second := quiet(New("console", INFO, tmpDir, 10))
	second.Info("from the second run")
	second.Close()

	content, err := os.ReadFile(filepath.Join(tmpDir, "console.log"))
	if err != nil {
		t.Fatal(err)
	}
	s := string(content)
	if !strings.Contains(s, "first run") || !strings.Contains(s, "second run") {
		t.Errorf("log file = %q", s)
	}
}

func TestLoggerCallbackMayLog(t *testing.T) {
	t.Parallel()

	logger := quiet(New("test", INFO, "", 10))
	var mu sync.Mutex
	var seen []string
	logger.SetOnLogCallback(func(e LogEntry) {
		mu.Lock()
		seen = append(seen, e.Message)
		mu.Unlock()
		// Reading the buffer inside the callback must not deadlock.
		_ = logger.GetBuffer()
	})
	logger.Warn("toner low")

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != "toner low" {
		t.Errorf("callback saw %v", seen)
	}
}

func TestLoggerConcurrency(t *testing.T) {
	t.Parallel()

	logger := quiet(New("test", INFO, "", 1000))
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				logger.Info("concurrent message", "goroutine", id, "iteration", j)
			}
		}(i)
	}
	wg.Wait()

	if got := len(logger.GetBuffer()); got != 1000 {
		t.Errorf("expected 1000 entries in buffer, got %d", got)
	}
}

func TestFormatLogEntrySortsKeys(t *testing.T) {
	t.Parallel()

	entry := LogEntry{
		Timestamp: time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC),
		Level:     INFO,
		Message:   "test message",
		Context:   map[string]interface{}{"zeta": 1, "alpha": "a"},
	}
	want := "2025-11-01T12:00:00+00:00 [INFO] test message alpha=a zeta=1"
	if got := formatLogEntry(entry); got != want {
		t.Errorf("formatLogEntry = %q, want %q", got, want)
	}
}
