package domain

import "strings"

// UserPlan enumerates entitlement plans derived from the profile store.
type UserPlan string

const (
	UserPlanFree UserPlan = "free"
	UserPlanPro  UserPlan = "pro"
)

// Identity is the authenticated visitor. A nil *Identity means an anonymous visitor.
type Identity struct {
	ID    string
	Email string
}

// Valid reports whether the identity carries both of the attributes the
// backend requires for quota accounting.
func (i *Identity) Valid() bool {
	return i != nil && strings.TrimSpace(i.ID) != "" && strings.TrimSpace(i.Email) != ""
}

// SameAs reports whether two identities refer to the same account.
func (i *Identity) SameAs(other *Identity) bool {
	if i == nil || other == nil {
		return i == nil && other == nil
	}
	return i.ID == other.ID && strings.EqualFold(i.Email, other.Email)
}

// PlanFor maps the entitlement flag to a plan label.
func PlanFor(isPro bool) UserPlan {
	if isPro {
		return UserPlanPro
	}
	return UserPlanFree
}
