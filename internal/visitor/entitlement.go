package visitor

import (
	"context"
	"strings"
	"time"
)

// entitlementRecheck is the minimum spacing of page-load lookups.
const entitlementRecheck = 30 * time.Second

// resolveEntitlement looks up the pro flag for email. An empty email means
// the identity is not known yet and leaves the flag false. The lookup only
// re-runs when the email changes; failures leave the flag false.
func (v *Visitor) resolveEntitlement(ctx context.Context, email string) {
	v.lookupEntitlement(ctx, email, false)
}

// RefreshEntitlement repeats the lookup for the current identity. A full page
// load calls it so a grant made in the profile store shows up without a new
// session. Lookups closer together than entitlementRecheck are skipped, so
// the redirect after every form post does not hit the profile store.
func (v *Visitor) RefreshEntitlement(ctx context.Context) {
	v.mu.Lock()
	email := ""
	if v.identity != nil {
		email = v.identity.Email
	}
	recent := !v.entitlementCheckedAt.IsZero() && v.now().Sub(v.entitlementCheckedAt) < entitlementRecheck
	v.mu.Unlock()
	if recent {
		return
	}
	v.lookupEntitlement(ctx, email, true)
}

func (v *Visitor) lookupEntitlement(ctx context.Context, email string, force bool) {
	email = strings.ToLower(strings.TrimSpace(email))

	v.mu.Lock()
	if email == v.proEmail && !force {
		v.mu.Unlock()
		return
	}
	if email != v.proEmail {
		v.isPro = false
	}
	v.proEmail = email
	if email == "" || v.profiles == nil {
		v.isPro = false
		v.entitlementLoading = false
		v.mu.Unlock()
		return
	}
	v.entitlementLoading = true
	v.entitlementCheckedAt = v.now()
	v.mu.Unlock()

	isPro, err := v.profiles.IsPro(ctx, email)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.proEmail != email {
		return
	}
	v.entitlementLoading = false
	if err != nil {
		v.logger.Warn().Err(err).Str("profile", v.prefs.Profile()).Msg("visitor: entitlement lookup failed")
		v.isPro = false
		return
	}
	v.isPro = isPro
}
