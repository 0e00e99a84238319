// Package visit derives per-redirect analytics from the incoming request:
// client address, coarse geography and user-agent classification. Everything
// here is best-effort; a failed lookup produces an absent field, never an
// error on the redirect path.
package visit

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/mileusna/useragent"

	"github.com/abdusco/shortr/internal"
	"github.com/abdusco/shortr/internal/repo"
)

// DeviceDesktop is the fallback device class when the user agent gives no
// better signal.
const DeviceDesktop = "desktop"

// CountryResolver maps a client address to an ISO country code, or "" when
// the origin cannot be determined.
type CountryResolver interface {
	Country(ip string) string
}

// Recorder assembles and appends one analytics record per redirect.
type Recorder struct {
	visits *repo.VisitsRepo
	geo    CountryResolver
}

func NewRecorder(visits *repo.VisitsRepo, geo CountryResolver) *Recorder {
	return &Recorder{visits: visits, geo: geo}
}

// Record derives the visit fields from req and appends the record. Callers on
// the redirect path log the returned error instead of propagating it.
func (r *Recorder) Record(ctx context.Context, shortID string, req *http.Request) error {
	ip := ClientIP(req)

	var country *string
	if c := r.geo.Country(ip); c != "" {
		country = &c
	}

	rawUA := req.UserAgent()
	device, browser := ClassifyUserAgent(rawUA)

	var referrer *string
	if ref := req.Referer(); ref != "" {
		referrer = &ref
	}

	return r.visits.Create(ctx, internal.Visit{
		ShortID:   shortID,
		IP:        ip,
		Country:   country,
		UserAgent: rawUA,
		Device:    device,
		Browser:   browser,
		Referrer:  referrer,
	})
}

// ClientIP extracts the client address: first X-Forwarded-For entry, then
// X-Real-IP, then the connection's peer address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		first = strings.TrimSpace(first)
		if ip := net.ParseIP(first); ip != nil {
			return first
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return xri
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// ClassifyUserAgent buckets the user agent into a coarse device class and a
// browser name. Device defaults to desktop, browser may be empty.
func ClassifyUserAgent(raw string) (device, browser string) {
	ua := useragent.Parse(raw)

	device = DeviceDesktop
	switch {
	case ua.Mobile:
		device = "mobile"
	case ua.Tablet:
		device = "tablet"
	case ua.Bot:
		device = "bot"
	}

	return device, ua.Name
}
