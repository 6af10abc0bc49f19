package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	ERROR LogLevel = iota
	WARN
	INFO
	DEBUG
	TRACE
)

var levelNames = map[LogLevel]string{
	ERROR: "ERROR",
	WARN:  "WARN",
	INFO:  "INFO",
	DEBUG: "DEBUG",
	TRACE: "TRACE",
}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Message   string
	Context   map[string]interface{}
}

// Logger provides structured logging with levels. Entries are kept in a
// bounded in-memory buffer, echoed to the console writer and appended to
// <component>.log inside logDir when logDir is set.
type Logger struct {
	mu              sync.RWMutex
	component       string
	level           LogLevel
	logDir          string
	file            *os.File
	fileSize        int64
	buffer          []LogEntry
	maxBufferSize   int
	rotation        Rotation
	rateLimiters    map[string]*rateLimiter
	consoleOutput   bool
	console         io.Writer
	onLogCallback   func(LogEntry)
}

// Rotation bounds the on-disk log. When <component>.log reaches MaxBytes it
// becomes <component>.log.1, older backups shift up and anything past Keep
// is removed. MaxBytes <= 0 disables rotation.
type Rotation struct {
	MaxBytes int64
	Keep     int
}

// DefaultRotation keeps five 10 MiB files.
var DefaultRotation = Rotation{MaxBytes: 10 << 20, Keep: 5}

type rateLimiter struct {
	lastLog  time.Time
	interval time.Duration
}

// New creates a new Logger for the named component. An empty logDir keeps
// logs in memory and on the console only.
func New(component string, level LogLevel, logDir string, maxBufferSize int) *Logger {
	if component == "" {
		component = "printscan"
	}
	if maxBufferSize <= 0 {
		maxBufferSize = 1
	}
	return &Logger{
		component:     component,
		level:         level,
		logDir:        logDir,
		buffer:        make([]LogEntry, 0, maxBufferSize),
		maxBufferSize: maxBufferSize,
		rateLimiters:  make(map[string]*rateLimiter),
		consoleOutput: true,
		console:       os.Stderr,
		rotation:      DefaultRotation,
	}
}

// Discard returns a logger that only buffers entries. Used by tests and by
// code paths that receive a nil logger.
func Discard() *Logger {
	l := New("discard", ERROR, "", 16)
	l.consoleOutput = false
	return l
}

// SetConsoleOutput enables or disables console output
func (l *Logger) SetConsoleOutput(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.consoleOutput = enabled
}

// SetConsoleWriter redirects console output (stderr by default).
func (l *Logger) SetConsoleWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console = w
}

// SetOnLogCallback registers a function invoked for every accepted entry.
// The server uses it to forward warnings to websocket subscribers.
func (l *Logger) SetOnLogCallback(callback func(LogEntry)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onLogCallback = callback
}

// SetRotation replaces DefaultRotation.
func (l *Logger) SetRotation(r Rotation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rotation = r
}

// Error logs an error level message
func (l *Logger) Error(msg string, context ...interface{}) {
	l.log(ERROR, msg, context...)
}

// Warn logs a warning level message
func (l *Logger) Warn(msg string, context ...interface{}) {
	l.log(WARN, msg, context...)
}

// WarnRateLimited logs a warning at most once per interval for the given key
func (l *Logger) WarnRateLimited(key string, interval time.Duration, msg string, context ...interface{}) {
	l.mu.Lock()
	limiter, exists := l.rateLimiters[key]
	if !exists {
		limiter = &rateLimiter{interval: interval}
		l.rateLimiters[key] = limiter
	}
	now := time.Now()
	if now.Sub(limiter.lastLog) < limiter.interval {
		l.mu.Unlock()
		return
	}
	limiter.lastLog = now
	l.mu.Unlock()

	l.log(WARN, msg, context...)
}

// Info logs an info level message
func (l *Logger) Info(msg string, context ...interface{}) {
	l.log(INFO, msg, context...)
}

// Debug logs a debug level message
func (l *Logger) Debug(msg string, context ...interface{}) {
	l.log(DEBUG, msg, context...)
}

// Trace logs a trace level message
func (l *Logger) Trace(msg string, context ...interface{}) {
	l.log(TRACE, msg, context...)
}

func (l *Logger) log(level LogLevel, msg string, context ...interface{}) {
	l.mu.Lock()

	if level > l.level {
		l.mu.Unlock()
		return
	}

	ctx := make(map[string]interface{})
	for i := 0; i < len(context)-1; i += 2 {
		if key, ok := context[i].(string); ok {
			ctx[key] = context[i+1]
		}
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
		Context:   ctx,
	}

	if len(l.buffer) >= l.maxBufferSize {
		l.buffer = l.buffer[1:]
	}
	l.buffer = append(l.buffer, entry)

	if l.consoleOutput && l.console != nil {
		fmt.Fprintln(l.console, formatLogEntry(entry))
	}

	if l.logDir != "" {
		l.writeToFile(entry)
	}

	// Callback runs outside the lock so it may log or read the buffer.
	callback := l.onLogCallback
	l.mu.Unlock()
	if callback != nil {
		callback(entry)
	}
}

func (l *Logger) writeToFile(entry LogEntry) {
	if l.file == nil && !l.openFile() {
		return
	}
	n, _ := l.file.WriteString(formatLogEntry(entry) + "\n")
	l.fileSize += int64(n)
	if l.rotation.MaxBytes > 0 && l.fileSize >= l.rotation.MaxBytes {
		l.rotate()
	}
}

func (l *Logger) path() string {
	return filepath.Join(l.logDir, l.component+".log")
}

func (l *Logger) openFile() bool {
	if err := os.MkdirAll(l.logDir, 0755); err != nil {
		return false
	}
	f, err := os.OpenFile(l.path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return false
	}
	l.file = f
	l.fileSize = 0
	if info, err := f.Stat(); err == nil {
		l.fileSize = info.Size()
	}
	return true
}

// rotate closes the current file and shifts the numbered backups. The next
// write reopens a fresh file. Caller holds l.mu.
func (l *Logger) rotate() {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	keep := l.rotation.Keep
	if keep < 1 {
		keep = 1
	}
	base := l.path()
	os.Remove(fmt.Sprintf("%s.%d", base, keep))
	for i := keep - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", base, i), fmt.Sprintf("%s.%d", base, i+1))
	}
	os.Rename(base, base+".1")
}

// formatLogEntry renders "<ts> [LEVEL] msg k=v ..." with keys sorted.
func formatLogEntry(entry LogEntry) string {
	var b strings.Builder
	b.WriteString(entry.Timestamp.Format("2006-01-02T15:04:05-07:00"))
	b.WriteString(" [")
	b.WriteString(levelNames[entry.Level])
	b.WriteString("] ")
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Context))
	for k := range entry.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Context[k])
	}
	return b.String()
}

// GetBuffer returns a copy of the in-memory log buffer
func (l *Logger) GetBuffer() []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	buffer := make([]LogEntry, len(l.buffer))
	copy(buffer, l.buffer)
	return buffer
}

// GetBufferFiltered returns buffered entries at or above the given severity
func (l *Logger) GetBufferFiltered(minLevel LogLevel) []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	filtered := []LogEntry{}
	for _, entry := range l.buffer {
		if entry.Level <= minLevel {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// Close closes the current log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// LevelFromString converts a string to a LogLevel. Unknown names map to INFO.
func LevelFromString(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return ERROR
	case "WARN", "WARNING":
		return WARN
	case "DEBUG":
		return DEBUG
	case "TRACE":
		return TRACE
	default:
		return INFO
	}
}

// LevelToString converts a LogLevel to a string
func LevelToString(level LogLevel) string {
	return levelNames[level]
}
