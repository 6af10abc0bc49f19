package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ParkChongsam/network-printer-scanner/common/logger"
	"github.com/grandcat/zeroconf"
)

// MDNSServiceTypes are the DNS-SD services printers advertise.
var MDNSServiceTypes = []string{"_ipp._tcp", "_ipps._tcp", "_printer._tcp"}

// BrowseFunc returns addresses advertised over mDNS within window.
type BrowseFunc func(ctx context.Context, window time.Duration) []string

// NewMDNSBrowser returns a BrowseFunc backed by zeroconf.
func NewMDNSBrowser(log *logger.Logger) BrowseFunc {
	return func(ctx context.Context, window time.Duration) []string {
		ctx, cancel := context.WithTimeout(ctx, window)
		defer cancel()

		var mu sync.Mutex
		found := map[string]struct{}{}
		var wg sync.WaitGroup
		for _, st := range MDNSServiceTypes {
			wg.Add(1)
			go func(service string) {
				defer wg.Done()
				resolver, err := zeroconf.NewResolver(nil)
				if err != nil {
					log.WarnRateLimited("mdns_resolver", time.Minute, "mDNS resolver error", "error", err)
					return
				}
				entries := make(chan *zeroconf.ServiceEntry)
				done := make(chan struct{})
				go func() {
					defer close(done)
					for {
						select {
						case <-ctx.Done():
							return
						case e, ok := <-entries:
							if !ok {
								return
							}
							mu.Lock()
							for _, ip := range e.AddrIPv4 {
								found[ip.String()] = struct{}{}
							}
							mu.Unlock()
						}
					}
				}()
				if err := resolver.Browse(ctx, service, "local.", entries); err != nil {
					log.Debug("mDNS browse error", "service", service, "error", err)
				}
				<-done
			}(st)
		}
		wg.Wait()

		out := make([]string, 0, len(found))
		for ip := range found {
			out = append(out, ip)
		}
		sort.Strings(out)
		return out
	}
}
