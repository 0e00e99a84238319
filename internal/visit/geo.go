package visit

import (
	"net/netip"

	"github.com/phuslu/iploc"
)

// IplocResolver resolves countries from iploc's embedded database, so no
// external database file and no network lookups are needed.
type IplocResolver struct{}

func (IplocResolver) Country(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ""
	}

	code := iploc.Country(addr.AsSlice())
	// iploc reports private and unassigned ranges as ZZ.
	if code == "ZZ" {
		return ""
	}
	return code
}

// NoopResolver never resolves a country. Useful in tests and as an explicit
// opt-out of geo lookups.
type NoopResolver struct{}

func (NoopResolver) Country(string) string { return "" }

var (
	_ CountryResolver = IplocResolver{}
	_ CountryResolver = NoopResolver{}
)
