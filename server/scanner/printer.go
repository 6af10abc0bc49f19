package scanner

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Manufacturers are matched case-insensitively against sysDescr.
var Manufacturers = []string{
	"brother", "canon", "epson", "hp", "konica", "kyocera",
	"lexmark", "minolta", "oki", "ricoh", "samsung", "sharp",
	"xerox", "zebra",
}

// WebKeywords identify a printer's embedded web interface.
var WebKeywords = []string{"printer", "copier", "scanner", "mfp", "multifunction"}

// MatchManufacturer returns the first known manufacturer named in sysDescr.
func MatchManufacturer(sysDescr string) (string, bool) {
	d := strings.ToLower(sysDescr)
	for _, m := range Manufacturers {
		if strings.Contains(d, m) {
			return m, true
		}
	}
	return "", false
}

// ContainsWebKeyword reports whether page text mentions a printer keyword.
func ContainsWebKeyword(page string) bool {
	p := strings.ToLower(page)
	for _, k := range WebKeywords {
		if strings.Contains(p, k) {
			return true
		}
	}
	return false
}

// WebFetchFunc fetches a device's landing page body.
type WebFetchFunc func(ctx context.Context, url string) (string, error)

const maxWebBody = 256 << 10

// newWebFetcher returns a fetcher that tolerates the self-signed
// certificates printers ship with.
func newWebFetcher(timeout time.Duration) WebFetchFunc {
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // device web UIs use self-signed certs
		},
	}
	return func(ctx context.Context, url string) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", err
		}
		resp, err := client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxWebBody))
		if err != nil {
			return "", fmt.Errorf("read %s: %w", url, err)
		}
		return string(body), nil
	}
}

func hasPort(ports []int, p int) bool {
	for _, x := range ports {
		if x == p {
			return true
		}
	}
	return false
}

// webURL picks the landing page to inspect. HTTPS wins when both are open.
func webURL(ip string, openPorts []int) (string, bool) {
	switch {
	case hasPort(openPorts, 443):
		return "https://" + ip, true
	case hasPort(openPorts, 80):
		return "http://" + ip, true
	default:
		return "", false
	}
}
