package scanner

import (
	"errors"
	"sync"
	"testing"

	"github.com/gosnmp/gosnmp"
)

// fakeAgents maps target IP to the OIDs that agent answers.
type fakeAgents map[string]map[string]gosnmp.SnmpPDU

type fakeSNMPClient struct {
	values map[string]gosnmp.SnmpPDU
	mu     *sync.Mutex
	gets   *int
}

func (c *fakeSNMPClient) Connect() error { return nil }
func (c *fakeSNMPClient) Close() error   { return nil }

func (c *fakeSNMPClient) Get(oids []string) (*gosnmp.SnmpPacket, error) {
	c.mu.Lock()
	*c.gets++
	c.mu.Unlock()
	pkt := &gosnmp.SnmpPacket{}
	for _, oid := range oids {
		if pdu, ok := c.values[oid]; ok {
			pdu.Name = "." + oid
			pkt.Variables = append(pkt.Variables, pdu)
			continue
		}
		pkt.Variables = append(pkt.Variables, gosnmp.SnmpPDU{Name: "." + oid, Type: gosnmp.NoSuchObject})
	}
	return pkt, nil
}

// useFakeSNMP swaps NewSNMPClientFunc for the duration of the test. Tests
// calling it must not run in parallel.
func useFakeSNMP(t *testing.T, agents fakeAgents) *int {
	t.Helper()
	var mu sync.Mutex
	gets := 0
	orig := NewSNMPClientFunc
	NewSNMPClientFunc = func(cfg SNMPConfig, target string) (SNMPClient, error) {
		vals, ok := agents[target]
		if !ok {
			return nil, errors.New("request timeout")
		}
		return &fakeSNMPClient{values: vals, mu: &mu, gets: &gets}, nil
	}
	t.Cleanup(func() { NewSNMPClientFunc = orig })
	return &gets
}

func octet(s string) gosnmp.SnmpPDU {
	return gosnmp.SnmpPDU{Type: gosnmp.OctetString, Value: []byte(s)}
}

func integer(n int) gosnmp.SnmpPDU {
	return gosnmp.SnmpPDU{Type: gosnmp.Integer, Value: n}
}

func counter(n uint) gosnmp.SnmpPDU {
	return gosnmp.SnmpPDU{Type: gosnmp.Counter32, Value: n}
}

func ticks(n uint32) gosnmp.SnmpPDU {
	return gosnmp.SnmpPDU{Type: gosnmp.TimeTicks, Value: n}
}
