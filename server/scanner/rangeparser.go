package scanner

import (
	"fmt"
	"net"
	"strings"
)

// DefaultMaxAddresses caps how many hosts one scan request may expand to.
const DefaultMaxAddresses = 4096

// ParseError reports an entry that could not be parsed.
type ParseError struct {
	Entry int    `json:"entry"`
	Text  string `json:"text"`
	Msg   string `json:"msg"`
}

// ParseResult is the expansion of a range expression.
type ParseResult struct {
	IPs    []string     `json:"ips"`
	Errors []ParseError `json:"errors"`
}

// Count returns the number of expanded addresses.
func (r *ParseResult) Count() int {
	return len(r.IPs)
}

func ipToUint32(ip net.IP) uint32 {
	ip = ip.To4()
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}

func uint32ToIP(n uint32) net.IP {
	return net.IPv4(byte(n>>24), byte(n>>16), byte(n>>8), byte(n)).To4()
}

// ParseRangeText expands a range expression into IPv4 addresses. Entries are
// separated by commas, whitespace or newlines; "#" starts a comment line.
// Supported forms: single address, CIDR, start-end (full or shorthand end
// such as 10.0.0.10-20) and a last-octet wildcard (10.0.0.x or 10.0.0.*).
// Expansion beyond maxAddrs is an error; malformed entries are collected in
// ParseResult.Errors.
func ParseRangeText(text string, maxAddrs int) (*ParseResult, error) {
	if maxAddrs <= 0 {
		maxAddrs = DefaultMaxAddresses
	}
	res := &ParseResult{}
	seen := map[string]struct{}{}

	add := func(ip string) {
		if _, ok := seen[ip]; ok {
			return
		}
		seen[ip] = struct{}{}
		res.IPs = append(res.IPs, ip)
	}
	over := func(entry, extra int) error {
		return fmt.Errorf("entry %d: expansion would produce %d addresses (over max %d)", entry, len(res.IPs)+extra, maxAddrs)
	}

	entries := splitEntries(text)
	for i, s := range entries {
		n := i + 1
		bad := func(msg string) {
			res.Errors = append(res.Errors, ParseError{Entry: n, Text: s, Msg: msg})
		}

		switch {
		case strings.Contains(s, "/"):
			_, ipnet, err := net.ParseCIDR(s)
			if err != nil {
				bad("invalid CIDR")
				continue
			}
			if ipnet.IP.To4() == nil {
				bad("IPv6 not supported")
				continue
			}
			ones, bits := ipnet.Mask.Size()
			if bits-ones > 24 {
				return res, over(n, 1<<24)
			}
			total := 1 << uint(bits-ones)
			if len(res.IPs)+total > maxAddrs {
				return res, over(n, total)
			}
			start := ipToUint32(ipnet.IP.Mask(ipnet.Mask))
			for j := 0; j < total; j++ {
				add(uint32ToIP(start + uint32(j)).String())
			}

		case strings.Contains(s, "-"):
			parts := strings.SplitN(s, "-", 2)
			left, right := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
			lip := net.ParseIP(left).To4()
			if lip == nil {
				bad("left side must be a full IPv4 address")
				continue
			}
			end := net.ParseIP(right).To4()
			if end == nil {
				lparts := strings.Split(left, ".")
				rparts := strings.Split(right, ".")
				if len(rparts) < 1 || len(rparts) > 3 {
					bad("invalid shorthand range")
					continue
				}
				full := append(append([]string{}, lparts[:4-len(rparts)]...), rparts...)
				end = net.ParseIP(strings.Join(full, ".")).To4()
				if end == nil {
					bad("invalid end address")
					continue
				}
			}
			startVal, endVal := ipToUint32(lip), ipToUint32(end)
			if endVal < startVal {
				bad("end address is before start address")
				continue
			}
			cnt := int(endVal - startVal + 1)
			if len(res.IPs)+cnt > maxAddrs {
				return res, over(n, cnt)
			}
			for v := startVal; ; v++ {
				add(uint32ToIP(v).String())
				if v == endVal {
					break
				}
			}

		case strings.HasSuffix(s, ".x") || strings.HasSuffix(s, ".*"):
			base := s[:len(s)-2]
			if ip := net.ParseIP(base + ".0").To4(); ip == nil || len(strings.Split(base, ".")) != 3 {
				bad("wildcard allowed only on last octet like 192.168.1.x")
				continue
			}
			if len(res.IPs)+256 > maxAddrs {
				return res, over(n, 256)
			}
			for j := 0; j < 256; j++ {
				add(fmt.Sprintf("%s.%d", base, j))
			}

		default:
			ip := net.ParseIP(s).To4()
			if ip == nil {
				bad("unrecognized format or invalid IPv4")
				continue
			}
			if _, ok := seen[ip.String()]; !ok && len(res.IPs)+1 > maxAddrs {
				return res, over(n, 1)
			}
			add(ip.String())
		}
	}
	return res, nil
}

func splitEntries(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, f := range strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == ';'
		}) {
			out = append(out, f)
		}
	}
	return out
}
