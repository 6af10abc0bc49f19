package oids

import (
	"strings"
	"testing"
)

func TestOIDsAreDottedDecimal(t *testing.T) {
	t.Parallel()

	all := map[string]string{
		"SysDescr":                    SysDescr,
		"SysObjectID":                 SysObjectID,
		"SysUpTime":                   SysUpTime,
		"SysContact":                  SysContact,
		"SysName":                     SysName,
		"SysLocation":                 SysLocation,
		"HrDeviceDescr":               HrDeviceDescr,
		"HrPrinterStatus":             HrPrinterStatus,
		"HrPrinterDetectedErrorState": HrPrinterDetectedErrorState,
		"PrtGeneralSerialNumber":      PrtGeneralSerialNumber,
		"PrtMarkerLifeCount":          PrtMarkerLifeCount,
		"TonerLevelOID(1)":            TonerLevelOID(1),
		"TonerMaxOID(4)":              TonerMaxOID(4),
	}
	for name, oid := range all {
		if !strings.HasPrefix(oid, "1.3.6.1.") {
			t.Errorf("%s = %q should start with 1.3.6.1.", name, oid)
		}
		for _, part := range strings.Split(oid, ".") {
			if part == "" {
				t.Errorf("%s = %q has an empty arc", name, oid)
				continue
			}
			for _, r := range part {
				if r < '0' || r > '9' {
					t.Errorf("%s = %q has non-numeric arc %q", name, oid, part)
				}
			}
		}
	}
}

func TestTonerOIDs(t *testing.T) {
	t.Parallel()

	if got := TonerLevelOID(3); got != "1.3.6.1.2.1.43.11.1.1.9.1.3" {
		t.Errorf("TonerLevelOID(3) = %q", got)
	}
	if got := TonerMaxOID(1); got != "1.3.6.1.2.1.43.11.1.1.8.1.1" {
		t.Errorf("TonerMaxOID(1) = %q", got)
	}
}
