package storage

import "github.com/ParkChongsam/network-printer-scanner/common/logger"

// log receives storage diagnostics. It discards until SetLogger is called.
var log = logger.Discard()

// SetLogger routes storage diagnostics to l. A nil l silences them.
func SetLogger(l *logger.Logger) {
	if l == nil {
		l = logger.Discard()
	}
	log = l
}
