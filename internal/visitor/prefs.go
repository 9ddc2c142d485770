package visitor

import (
	"context"
	"fmt"
)

// AgeVerified reports whether the age gate was acknowledged.
func (v *Visitor) AgeVerified() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ageVerified
}

// AcceptAge persists the age acknowledgement for the browser profile.
func (v *Visitor) AcceptAge(ctx context.Context) error {
	if err := v.prefs.AcknowledgeAge(ctx); err != nil {
		return fmt.Errorf("visitor: acknowledge age: %w", err)
	}
	v.mu.Lock()
	v.ageVerified = true
	v.mu.Unlock()
	return nil
}

// CaptureReferral records ref as the referral tag unless one is already cached.
func (v *Visitor) CaptureReferral(ctx context.Context, ref string) error {
	stored, err := v.prefs.CaptureReferrerID(ctx, ref)
	if err != nil {
		return fmt.Errorf("visitor: capture referral: %w", err)
	}
	if !stored {
		return nil
	}
	current, err := v.prefs.ReferrerID(ctx)
	if err != nil {
		return fmt.Errorf("visitor: capture referral: %w", err)
	}
	v.mu.Lock()
	v.referrerID = current
	v.mu.Unlock()
	v.logger.Info().Str("profile", v.prefs.Profile()).Str("referrer_id", current).Msg("visitor: referral captured")
	return nil
}
