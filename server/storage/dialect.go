package storage

import (
	"strconv"
	"strings"
)

// dialect captures the few places where SQLite and PostgreSQL disagree.
// Queries in BaseStore are written once with ? placeholders.
type dialect struct {
	name      string
	timestamp string // column type for time values
	boolean   string // column type for flags
	numbered  bool   // $1, $2 ... placeholders
}

var (
	sqliteDialect   = dialect{name: "sqlite", timestamp: "DATETIME", boolean: "INTEGER"}
	postgresDialect = dialect{name: "postgres", timestamp: "TIMESTAMPTZ", boolean: "BOOLEAN", numbered: true}
)

// rebind rewrites ? placeholders for dialects that number their
// parameters. A ? inside a quoted literal is left alone.
func (d dialect) rebind(query string) string {
	if !d.numbered || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	arg := 0
	quoted := false
	for _, r := range query {
		switch {
		case r == '\'':
			quoted = !quoted
		case r == '?' && !quoted:
			arg++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(arg))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// onConflictUpdate opens an upsert clause keyed on cols.
func (d dialect) onConflictUpdate(cols ...string) string {
	return "ON CONFLICT (" + strings.Join(cols, ", ") + ") DO UPDATE SET"
}

// limit renders a LIMIT clause; n <= 0 means no limit.
func limit(n int) string {
	if n <= 0 {
		return ""
	}
	return "LIMIT " + strconv.Itoa(n)
}
