package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"possessher/internal/i18n"
)

type countryContextKey struct{}

var CountryKey = countryContextKey{}

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// countryHeaders are set by CDNs and proxies in front of the web process,
// most specific first.
var countryHeaders = []string{"X-Country-Code", "X-IP-Country", "CF-IPCountry", "X-Appengine-Country"}

// I18N picks the page locale and stores it, with a best-effort country code,
// on the request context.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			locale := detectLocale(r, defaultLocale, country)
			ctx := i18n.WithLocale(r.Context(), locale)
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, country)
			}
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// detectLocale applies, in order: ?lang=, X-Locale, Accept-Language, the
// country hint, then the configured default.
func detectLocale(r *http.Request, fallback, country string) string {
	for _, explicit := range []string{r.URL.Query().Get("lang"), r.Header.Get("X-Locale"), r.Header.Get("Accept-Language")} {
		if strings.TrimSpace(explicit) != "" {
			return i18n.Normalize(explicit)
		}
	}
	switch {
	case strings.EqualFold(country, "ID"):
		return "id"
	case country != "":
		return "en"
	case fallback != "":
		return i18n.Normalize(fallback)
	default:
		return "en"
	}
}

// ClientIP returns the first valid address in X-Forwarded-For, or the remote
// address of the connection.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := strings.TrimSpace(part); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}

// ResolveCountry returns an upper-case ISO country code from proxy headers,
// the region of the preferred language, or an IP lookup, in that order.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, key := range countryHeaders {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	for _, pref := range []string{r.Header.Get("X-Locale"), r.Header.Get("Accept-Language")} {
		if region := preferredRegion(pref); region != "" {
			return region
		}
	}
	if lookup == nil {
		return ""
	}
	ip := ClientIP(r)
	if ip == "" {
		return ""
	}
	country, err := lookup(ip)
	if err != nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(country))
}

// preferredRegion reads the region of the first language preference. An
// explicit subtag wins; Indonesian without one implies Indonesia.
func preferredRegion(pref string) string {
	if strings.TrimSpace(pref) == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(pref)
	if err != nil || len(tags) == 0 {
		return ""
	}
	tag := tags[0]
	if region, conf := tag.Region(); conf == language.Exact {
		return region.String()
	}
	if base, _ := tag.Base(); base.String() == "id" {
		return "ID"
	}
	return ""
}
