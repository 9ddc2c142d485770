package domain

import "context"

// ProfileRepository reads and updates entitlement records keyed by email.
type ProfileRepository interface {
	IsPro(ctx context.Context, email string) (bool, error)
	SetPro(ctx context.Context, email string, isPro bool) (*Profile, error)
}

// Profile is the subset of the profile record the front end relies on.
type Profile struct {
	ID    string
	Email string
	IsPro bool
}
