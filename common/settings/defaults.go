package settings

// StorageKey is the fixed key the settings are persisted under.
const StorageKey = "printerScannerSettings"

// MinScanInterval is the shortest auto-scan interval, in seconds.
const MinScanInterval = 10

// DefaultSettings returns the values used when nothing has been saved yet.
func DefaultSettings() Settings {
	return Settings{
		NetworkRange:  "192.168.0.0/24",
		ScanInterval:  300,
		SNMPCommunity: "public",
		SNMPVersion:   2,
		AutoScan:      true,
	}
}
