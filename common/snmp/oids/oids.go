// Package oids centralizes the SNMP object identifiers read from printers so
// callers avoid scattering raw dotted strings.
package oids

import "strconv"

const (
	// --- MIB-II system group (RFC 1213) ---

	SysDescr    = "1.3.6.1.2.1.1.1.0"
	SysObjectID = "1.3.6.1.2.1.1.2.0"
	// SysUpTime is in hundredths of a second.
	SysUpTime   = "1.3.6.1.2.1.1.3.0"
	SysContact  = "1.3.6.1.2.1.1.4.0"
	SysName     = "1.3.6.1.2.1.1.5.0"
	SysLocation = "1.3.6.1.2.1.1.6.0"
)

const (
	// --- Host Resources MIB (RFC 2790) ---

	// HrDeviceDescr is hrDeviceDescr.1, the model string on most printers.
	HrDeviceDescr = "1.3.6.1.2.1.25.3.2.1.3.1"
	// HrPrinterStatus is hrPrinterStatus.1: other(1) unknown(2) idle(3) printing(4) warmup(5).
	HrPrinterStatus = "1.3.6.1.2.1.25.3.5.1.1.1"
	// HrPrinterDetectedErrorState is a bit string; any set bit is a fault.
	HrPrinterDetectedErrorState = "1.3.6.1.2.1.25.3.5.1.2.1"
)

const (
	// --- Printer MIB (RFC 3805) ---

	PrtGeneralSerialNumber = "1.3.6.1.2.1.43.5.1.1.17.1"
	// PrtMarkerLifeCount is prtMarkerLifeCount.1.1, the total page counter.
	PrtMarkerLifeCount = "1.3.6.1.2.1.43.10.2.1.4.1.1"

	PrtMarkerSuppliesLevel  = "1.3.6.1.2.1.43.11.1.1.9.1"
	PrtMarkerSuppliesMaxCap = "1.3.6.1.2.1.43.11.1.1.8.1"
)

// TonerLevelOID returns prtMarkerSuppliesLevel for supply index n (1-based).
func TonerLevelOID(n int) string {
	return PrtMarkerSuppliesLevel + "." + strconv.Itoa(n)
}

// TonerMaxOID returns prtMarkerSuppliesMaxCapacity for supply index n (1-based).
func TonerMaxOID(n int) string {
	return PrtMarkerSuppliesMaxCap + "." + strconv.Itoa(n)
}
