package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when a key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// Store is a browser-profile scoped key/value store holding short strings:
// the referral tag, the age gate acknowledgement and the auth session.
type Store interface {
	Get(ctx context.Context, profile, key string) (string, error)
	Set(ctx context.Context, profile, key, value string) error
	Delete(ctx context.Context, profile, key string) error
}

// Well-known keys.
const (
	KeyReferrerID  = "referrer_id"
	KeyAgeVerified = "age_verified"
	KeyAuthSession = "auth_session"
)

func validateScope(profile, key string) error {
	if strings.TrimSpace(profile) == "" {
		return errors.New("storage: profile is required")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("storage: key is required")
	}
	return nil
}
