package storage

import (
	"context"
	"errors"
	"strings"
)

// Prefs gives typed access to the values one browser profile persists.
type Prefs struct {
	store   Store
	profile string
}

// NewPrefs scopes a store to a single browser profile.
func NewPrefs(store Store, profile string) *Prefs {
	return &Prefs{store: store, profile: profile}
}

// Profile returns the browser profile id the prefs are scoped to.
func (p *Prefs) Profile() string {
	return p.profile
}

// ReferrerID returns the cached referral tag, or "" when none was captured.
func (p *Prefs) ReferrerID(ctx context.Context) (string, error) {
	return p.optional(ctx, KeyReferrerID)
}

// CaptureReferrerID stores ref only when no referral tag is cached yet. It
// reports whether the value was stored; the first-seen tag always wins.
func (p *Prefs) CaptureReferrerID(ctx context.Context, ref string) (bool, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return false, nil
	}
	existing, err := p.ReferrerID(ctx)
	if err != nil {
		return false, err
	}
	if existing != "" {
		return false, nil
	}
	if err := p.store.Set(ctx, p.profile, KeyReferrerID, ref); err != nil {
		return false, err
	}
	return true, nil
}

// AgeVerified reports whether the age gate was acknowledged.
func (p *Prefs) AgeVerified(ctx context.Context) (bool, error) {
	v, err := p.optional(ctx, KeyAgeVerified)
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

// AcknowledgeAge permanently suppresses the age gate for this profile.
func (p *Prefs) AcknowledgeAge(ctx context.Context) error {
	return p.store.Set(ctx, p.profile, KeyAgeVerified, "true")
}

// AuthSession returns the raw persisted auth session, or "" when none.
func (p *Prefs) AuthSession(ctx context.Context) (string, error) {
	return p.optional(ctx, KeyAuthSession)
}

// SetAuthSession persists the raw auth session.
func (p *Prefs) SetAuthSession(ctx context.Context, raw string) error {
	return p.store.Set(ctx, p.profile, KeyAuthSession, raw)
}

// ClearAuthSession removes the persisted auth session.
func (p *Prefs) ClearAuthSession(ctx context.Context) error {
	return p.store.Delete(ctx, p.profile, KeyAuthSession)
}

func (p *Prefs) optional(ctx context.Context, key string) (string, error) {
	v, err := p.store.Get(ctx, p.profile, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return v, nil
}
