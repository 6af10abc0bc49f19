package scanner

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/gosnmp/gosnmp"
)

const defaultOIDBatchSize = 8

// clusterOIDs splits the OID list into fixed-size batches, preserving order.
func clusterOIDs(oids []string, batchSize int) [][]string {
	if batchSize <= 0 {
		batchSize = defaultOIDBatchSize
	}
	if len(oids) == 0 {
		return nil
	}
	batches := make([][]string, 0, (len(oids)+batchSize-1)/batchSize)
	for i := 0; i < len(oids); i += batchSize {
		end := i + batchSize
		if end > len(oids) {
			end = len(oids)
		}
		chunk := make([]string, end-i)
		copy(chunk, oids[i:end])
		batches = append(batches, chunk)
	}
	return batches
}

// batchedGet fetches OIDs in batches and indexes the answers by OID without
// the leading dot. Absent values (noSuchObject, noSuchInstance, null) are
// left out of the map.
func batchedGet(ctx context.Context, client SNMPClient, oids []string, batchSize int) (map[string]gosnmp.SnmpPDU, error) {
	out := make(map[string]gosnmp.SnmpPDU, len(oids))
	for _, batch := range clusterOIDs(oids, batchSize) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		packet, err := client.Get(batch)
		if err != nil {
			return nil, fmt.Errorf("SNMP GET failed for batch (first oid %s): %w", batch[0], err)
		}
		if packet == nil {
			continue
		}
		for _, pdu := range packet.Variables {
			switch pdu.Type {
			case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView, gosnmp.Null:
				continue
			}
			out[strings.TrimPrefix(pdu.Name, ".")] = pdu
		}
	}
	return out, nil
}

// pduString renders a PDU value as text. Octet strings are decoded as UTF-8
// when valid, otherwise byte-per-rune, and control characters are dropped.
func pduString(pdu gosnmp.SnmpPDU) string {
	switch v := pdu.Value.(type) {
	case nil:
		return ""
	case []byte:
		return decodeOctetString(v)
	case string:
		return sanitize(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// pduInt returns the numeric value of a PDU and whether it had one.
func pduInt(pdu gosnmp.SnmpPDU) (int64, bool) {
	switch pdu.Type {
	case gosnmp.Integer, gosnmp.Counter32, gosnmp.Gauge32, gosnmp.TimeTicks, gosnmp.Counter64, gosnmp.Uinteger32:
		n := gosnmp.ToBigInt(pdu.Value)
		if n == nil || !n.IsInt64() {
			return 0, false
		}
		return n.Int64(), true
	case gosnmp.OctetString:
		// Some firmwares report counters as strings.
		b, ok := pdu.Value.([]byte)
		if !ok {
			return 0, false
		}
		n, ok := new(big.Int).SetString(strings.TrimSpace(string(b)), 10)
		if !ok || !n.IsInt64() {
			return 0, false
		}
		return n.Int64(), true
	default:
		return 0, false
	}
}

func decodeOctetString(b []byte) string {
	if utf8.Valid(b) {
		return sanitize(string(b))
	}
	runes := make([]rune, 0, len(b))
	for _, by := range b {
		runes = append(runes, rune(by))
	}
	return sanitize(string(runes))
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x20 && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
