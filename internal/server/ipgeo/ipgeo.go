// Package ipgeo resolves client IPs to countries using a MaxMind MMDB file.
package ipgeo

import (
	"fmt"
	"net/netip"

	"github.com/oschwald/maxminddb-golang/v2"
)

const (
	// Local is returned for loopback, private, link-local and unspecified IPs.
	Local = "local"
	// Tailscale is returned for the Tailscale CGNAT range 100.64.0.0/10.
	Tailscale = "tailscale"
)

var tailscalePrefix = netip.MustParsePrefix("100.64.0.0/10")

// Checker resolves IP addresses to ISO 3166-1 alpha-2 country codes.
//
// A nil *Checker still classifies local and Tailscale addresses.
type Checker struct {
	reader *maxminddb.Reader
}

// Open opens an MMDB file (GeoLite2-Country or compatible).
func Open(path string) (*Checker, error) {
	r, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &Checker{reader: r}, nil
}

// Close releases the MMDB reader.
func (c *Checker) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// CountryCode returns the country code of ip, Local, Tailscale, or "" when
// unknown.
func (c *Checker) CountryCode(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ""
	}
	addr = addr.Unmap()
	switch {
	case addr.IsLoopback(), addr.IsPrivate(), addr.IsUnspecified(), addr.IsLinkLocalUnicast():
		return Local
	case tailscalePrefix.Contains(addr):
		return Tailscale
	case c == nil || c.reader == nil:
		return ""
	}
	var rec countryRecord
	if err := c.reader.Lookup(addr).Decode(&rec); err != nil {
		return ""
	}
	return rec.Country.ISOCode
}
