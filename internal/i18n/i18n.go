// Package i18n carries the request locale and the UI message catalog.
package i18n

import (
	"context"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type localeContextKey struct{}

// Supported lists the locales with a full catalog. The first entry is the
// fallback.
var Supported = []language.Tag{language.English, language.Indonesian}

var matcher = language.NewMatcher(Supported)

// WithLocale stores the locale code on ctx.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeContextKey{}, Normalize(locale))
}

// FromContext returns the locale stored on ctx, defaulting to "en".
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return "en"
	}
	if v, ok := ctx.Value(localeContextKey{}).(string); ok && v != "" {
		return v
	}
	return "en"
}

// Normalize maps any BCP 47 tag or Accept-Language value onto a supported
// locale code.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "en"
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return "en"
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return "en"
	}
	base, _ := Supported[idx].Base()
	return base.String()
}

// Printer returns a message printer bound to the catalog for locale.
func Printer(locale string) *message.Printer {
	tag := language.English
	if Normalize(locale) == "id" {
		tag = language.Indonesian
	}
	return message.NewPrinter(tag, message.Catalog(uiCatalog))
}

// T translates key for locale.
func T(locale string, key Key, args ...any) string {
	return Printer(locale).Sprintf(string(key), args...)
}

// Ctx translates key using the locale stored on ctx.
func Ctx(ctx context.Context, key Key, args ...any) string {
	return T(FromContext(ctx), key, args...)
}
