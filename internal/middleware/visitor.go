package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

// VisitorCookie names the signed cookie identifying a browser profile.
const VisitorCookie = "ph_vid"

const visitorCookieMaxAge = 400 * 24 * time.Hour

type visitorKey struct{}

func visitorCodec(secret string) *securecookie.SecureCookie {
	return securecookie.New([]byte(secret), nil).
		MaxAge(int(visitorCookieMaxAge.Seconds())).
		SetSerializer(securecookie.JSONEncoder{})
}

// SignVisitorID returns the cookie value for id.
func SignVisitorID(secret, id string) (string, error) {
	return visitorCodec(secret).Encode(VisitorCookie, id)
}

// VerifyVisitorID checks a cookie value and returns the embedded id.
func VerifyVisitorID(secret, value string) (string, bool) {
	return verifyVisitorID(visitorCodec(secret), value)
}

func verifyVisitorID(codec *securecookie.SecureCookie, value string) (string, bool) {
	var id string
	if err := codec.Decode(VisitorCookie, value, &id); err != nil {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// Visitor resolves the browser profile from the signed cookie, issuing a new
// one when it is missing or tampered with.
func Visitor(secret string) func(http.Handler) http.Handler {
	codec := visitorCodec(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(VisitorCookie); err == nil {
				id, _ = verifyVisitorID(codec, c.Value)
			}
			if id == "" {
				id = uuid.NewString()
				value, err := codec.Encode(VisitorCookie, id)
				if err != nil {
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     VisitorCookie,
					Value:    value,
					Path:     "/",
					MaxAge:   int(visitorCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   isHTTPS(r),
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(ContextWithVisitorID(r.Context(), id)))
		})
	}
}

// VisitorIDFromContext returns the browser profile id, or "" outside the
// Visitor middleware.
func VisitorIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(visitorKey{}).(string); ok {
		return v
	}
	return ""
}

func ContextWithVisitorID(ctx context.Context, id string) context.Context {
	if strings.TrimSpace(id) == "" {
		return ctx
	}
	return context.WithValue(ctx, visitorKey{}, id)
}

func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
