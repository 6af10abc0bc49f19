package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/ParkChongsam/network-printer-scanner/common/api"
	"github.com/ParkChongsam/network-printer-scanner/common/snmp/oids"
	"github.com/gosnmp/gosnmp"
)

// LastUpdateLayout formats Device.LastUpdate.
const LastUpdateLayout = "2006-01-02 15:04:05"

// LowTonerPercent marks a device as warning when its black toner reading is
// at or below this level.
const LowTonerPercent = 10

func basicOIDs() []string {
	list := []string{
		oids.SysName,
		oids.HrDeviceDescr,
		oids.PrtGeneralSerialNumber,
		oids.PrtMarkerLifeCount,
		oids.HrPrinterDetectedErrorState,
	}
	for i := range api.Channels {
		list = append(list, oids.TonerLevelOID(i+1), oids.TonerMaxOID(i+1))
	}
	return list
}

func detailOIDs() []string {
	return append(basicOIDs(), oids.SysLocation, oids.SysContact, oids.SysUpTime)
}

func textOrPlaceholder(vals map[string]gosnmp.SnmpPDU, oid string) string {
	if pdu, ok := vals[oid]; ok {
		if s := pduString(pdu); s != "" {
			return s
		}
	}
	return api.Placeholder
}

// buildDevice maps SNMP answers onto a device record.
func buildDevice(ip string, vals map[string]gosnmp.SnmpPDU, now time.Time) api.Device {
	d := api.Device{
		IP:         ip,
		Name:       textOrPlaceholder(vals, oids.SysName),
		Model:      textOrPlaceholder(vals, oids.HrDeviceDescr),
		Serial:     textOrPlaceholder(vals, oids.PrtGeneralSerialNumber),
		LastUpdate: now.Format(LastUpdateLayout),
		Status:     string(api.StatusOnline),
		Toner:      make(map[api.TonerChannel]api.TonerLevel, len(api.Channels)),
	}

	if pdu, ok := vals[oids.PrtMarkerLifeCount]; ok {
		if n, ok := pduInt(pdu); ok && n >= 0 {
			d.PageCount = int(n)
		}
	}

	blackKnown := false
	for i, ch := range api.Channels {
		d.Toner[ch] = api.DefaultTonerLevel()
		lp, lok := vals[oids.TonerLevelOID(i+1)]
		mp, mok := vals[oids.TonerMaxOID(i+1)]
		if !lok || !mok {
			continue
		}
		level, lok := pduInt(lp)
		max, mok := pduInt(mp)
		// Negative levels are the Printer-MIB "other/unknown/some remaining" codes.
		if !lok || !mok || level < 0 || max <= 0 {
			continue
		}
		d.Toner[ch] = api.NewTonerLevel(int(level), int(max))
		if ch == api.Black {
			blackKnown = true
		}
	}

	if blackKnown && d.Toner[api.Black].Percent <= LowTonerPercent {
		d.Status = string(api.StatusWarning)
	}
	if pdu, ok := vals[oids.HrPrinterDetectedErrorState]; ok {
		if b, ok := pdu.Value.([]byte); ok {
			for _, x := range b {
				if x != 0 {
					d.Status = string(api.StatusWarning)
					break
				}
			}
		}
	}
	return d
}

// applyDetails fills the fields only shown in the detail view.
func applyDetails(d *api.Device, vals map[string]gosnmp.SnmpPDU) {
	d.Location = textOrPlaceholder(vals, oids.SysLocation)
	d.Contact = textOrPlaceholder(vals, oids.SysContact)
	d.Uptime = api.Placeholder
	if pdu, ok := vals[oids.SysUpTime]; ok {
		if ticks, ok := pduInt(pdu); ok && ticks >= 0 {
			d.Uptime = FormatUptime(time.Duration(ticks) * 10 * time.Millisecond)
		}
	}
}

// FormatUptime renders an uptime at the coarsest useful precision:
// "3d 4h 5m", "4h 5m", "5m 6s" or "6s".
func FormatUptime(d time.Duration) string {
	total := int64(d / time.Second)
	days := total / 86400
	total %= 86400
	hours := total / 3600
	total %= 3600
	minutes := total / 60
	seconds := total % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// QueryDevice reads the list-view fields of a printer. With details set it
// also reads location, contact and uptime.
func QueryDevice(ctx context.Context, cfg SNMPConfig, ip string, details bool, now time.Time) (*api.Device, error) {
	if ip == "" {
		return nil, fmt.Errorf("ip address required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := NewSNMPClientFunc(cfg, ip)
	if err != nil {
		return nil, fmt.Errorf("failed to create SNMP client: %w", err)
	}
	defer client.Close()

	list := basicOIDs()
	if details {
		list = detailOIDs()
	}
	vals, err := batchedGet(ctx, client, list, defaultOIDBatchSize)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%s: no SNMP response", ip)
	}

	d := buildDevice(ip, vals, now)
	if details {
		applyDetails(&d, vals)
	}
	return &d, nil
}

// SysDescr reads sysDescr.0, returning "" when the agent does not answer.
func SysDescr(ctx context.Context, cfg SNMPConfig, ip string) (string, error) {
	client, err := NewSNMPClientFunc(cfg, ip)
	if err != nil {
		return "", err
	}
	defer client.Close()

	vals, err := batchedGet(ctx, client, []string{oids.SysDescr}, 1)
	if err != nil {
		return "", err
	}
	pdu, ok := vals[oids.SysDescr]
	if !ok {
		return "", nil
	}
	return pduString(pdu), nil
}
