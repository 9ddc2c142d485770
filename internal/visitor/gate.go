package visitor

import (
	"possessher/internal/domain"
)

// RequireAuth reports whether an identity is present. Without one it opens
// the login modal.
func (v *Visitor) RequireAuth() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.requireAuthLocked()
}

func (v *Visitor) requireAuthLocked() bool {
	if v.identity != nil {
		return true
	}
	v.openLoginLocked()
	return false
}

// allowLocked applies the free-tier gate. Pro identities always pass and the
// quota is not read for them. An unknown quota counts as exhausted.
func (v *Visitor) allowLocked(left func(*domain.Quota) int) bool {
	if v.isPro {
		return true
	}
	if left(v.quota) <= 0 {
		v.modal = domain.ModalUpgrade
		return false
	}
	return true
}

func (v *Visitor) openLoginLocked() {
	if v.modal != domain.ModalLogin {
		v.authMode = domain.AuthModeLogin
		v.authMessage = ""
	}
	v.modal = domain.ModalLogin
}

// OpenLogin shows the login modal, replacing any other modal.
func (v *Visitor) OpenLogin() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.openLoginLocked()
}

// OpenPricing shows the QR pricing modal. In external-link mode it leaves the
// modal state alone and returns the upgrade URL the caller should send the
// visitor to.
func (v *Visitor) OpenPricing() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.requireAuthLocked() {
		return "", domain.ErrLoginRequired
	}
	if v.variant.Upsell == domain.UpsellExternalLink {
		v.modal = domain.ModalNone
		return v.variant.UpgradeURL, nil
	}
	v.modal = domain.ModalPricing
	return "", nil
}

// CloseModal hides whatever modal is visible. It never opens another one.
func (v *Visitor) CloseModal() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.modal = domain.ModalNone
	v.authMessage = ""
}

// ToggleChat shows or hides the chat window. Anonymous visitors get the
// login modal instead.
func (v *Visitor) ToggleChat() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.requireAuthLocked() {
		return domain.ErrLoginRequired
	}
	v.chatOpen = !v.chatOpen
	return nil
}
