package visitor

import (
	"time"

	"possessher/internal/domain"
)

// ImageState describes the displayed image without its bytes.
type ImageState struct {
	Version   int       `json:"version"`
	MIME      string    `json:"mime"`
	CreatedAt time.Time `json:"created_at"`
}

// State is a point-in-time copy of the view state, safe to render without
// holding the visitor lock.
type State struct {
	Profile            string               `json:"-"`
	SessionLoading     bool                 `json:"session_loading"`
	SignedIn           bool                 `json:"signed_in"`
	UserID             string               `json:"user_id,omitempty"`
	Email              string               `json:"email,omitempty"`
	IsPro              bool                 `json:"is_pro"`
	EntitlementLoading bool                 `json:"entitlement_loading"`
	Quota              *domain.Quota        `json:"quota"`
	Image              *ImageState          `json:"image,omitempty"`
	Generating         bool                 `json:"generating"`
	GenerationError    string               `json:"generation_error,omitempty"`
	ChatOpen           bool                 `json:"chat_open"`
	Transcript         []domain.ChatMessage `json:"transcript"`
	Revision           int                  `json:"revision"`
	Draft              string               `json:"draft,omitempty"`
	Chatting           bool                 `json:"chatting"`
	Modal              domain.Modal         `json:"modal"`
	AuthMode           domain.AuthMode      `json:"auth_mode"`
	AuthMessage        string               `json:"auth_message,omitempty"`
	AgeVerified        bool                 `json:"age_verified"`
	ReferrerID         string               `json:"referrer_id,omitempty"`
	Upsell             domain.UpsellMode    `json:"upsell"`
	UpgradeURL         string               `json:"upgrade_url,omitempty"`
}

// Loading reports whether identity or entitlement is still being resolved.
func (s State) Loading() bool {
	return s.SessionLoading || s.EntitlementLoading
}

// ShowQuota reports whether the remaining-counter line is shown.
func (s State) ShowQuota() bool {
	return s.SignedIn && !s.IsPro && s.Quota != nil
}

// ShowUpgrade reports whether the upgrade call to action is shown.
func (s State) ShowUpgrade() bool {
	return s.SignedIn && !s.IsPro
}

// ShowProBadge reports whether the pro badge is shown.
func (s State) ShowProBadge() bool {
	return !s.Loading() && s.SignedIn && s.IsPro
}

// Snapshot copies the current view state.
func (v *Visitor) Snapshot() State {
	v.touch()
	v.mu.Lock()
	defer v.mu.Unlock()

	st := State{
		Profile:            v.prefs.Profile(),
		SessionLoading:     v.sessionLoading,
		SignedIn:           v.identity != nil,
		IsPro:              v.isPro,
		EntitlementLoading: v.entitlementLoading,
		Generating:         v.generating,
		GenerationError:    v.generationErr,
		ChatOpen:           v.chatOpen,
		Transcript:         append([]domain.ChatMessage(nil), v.transcript...),
		Revision:           v.revision,
		Draft:              v.draft,
		Chatting:           v.chatting,
		Modal:              v.modal,
		AuthMode:           v.authMode,
		AuthMessage:        v.authMessage,
		AgeVerified:        v.ageVerified,
		ReferrerID:         v.referrerID,
		Upsell:             v.variant.Upsell,
		UpgradeURL:         v.variant.UpgradeURL,
	}
	if v.identity != nil {
		st.UserID = v.identity.ID
		st.Email = v.identity.Email
	}
	if v.quota != nil {
		q := *v.quota
		st.Quota = &q
	}
	if v.image != nil {
		st.Image = &ImageState{Version: v.image.Version, MIME: v.image.MIME, CreatedAt: v.image.CreatedAt}
	}
	return st
}
