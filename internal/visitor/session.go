package visitor

import (
	"context"
	"errors"

	"possessher/internal/domain"
	"possessher/internal/i18n"
	"possessher/internal/providers/supabase"
	"possessher/internal/session"
)

// onAuthEvent reacts to the session stream. It runs on the goroutine that
// caused the change, never with mu held.
func (v *Visitor) onAuthEvent(ev session.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), v.eventTimeout)
	defer cancel()

	switch ev.Type {
	case session.SignedIn, session.TokenRefreshed:
		if ev.Identity == nil {
			return
		}
		v.mu.Lock()
		if v.closed {
			v.mu.Unlock()
			return
		}
		if !ev.Identity.SameAs(v.identity) {
			v.endSessionLocked()
		}
		v.identity = ev.Identity
		v.sessionLoading = false
		if ev.Type == session.SignedIn && v.modal == domain.ModalLogin {
			v.modal = domain.ModalNone
		}
		v.mu.Unlock()

		v.resolveEntitlement(ctx, ev.Identity.Email)
		if ev.Type == session.SignedIn {
			v.refreshQuota(ctx)
		}
	case session.SignedOut:
		v.mu.Lock()
		if v.identity != nil {
			v.endSessionLocked()
		}
		v.identity = nil
		v.quota = nil
		v.isPro = false
		v.proEmail = ""
		v.entitlementLoading = false
		v.mu.Unlock()
	}
}

// SetAuthMode switches the login modal between sign-in and sign-up forms.
func (v *Visitor) SetAuthMode(mode domain.AuthMode) {
	if mode != domain.AuthModeSignUp {
		mode = domain.AuthModeLogin
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.authMode = mode
	v.authMessage = ""
	v.modal = domain.ModalLogin
}

// SignIn submits the login form. The provider's message is kept for the
// form on failure.
func (v *Visitor) SignIn(ctx context.Context, email, password string) error {
	v.touch()
	err := v.sessions.SignInWithPassword(ctx, email, password)
	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.authMessage = authFailureMessage(ctx, err)
		return err
	}
	v.authMessage = i18n.Ctx(ctx, i18n.AuthLoggedIn)
	return nil
}

// SignUp submits the sign-up form.
func (v *Visitor) SignUp(ctx context.Context, email, password string) error {
	v.touch()
	err := v.sessions.SignUp(ctx, email, password)
	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.authMessage = authFailureMessage(ctx, err)
		return err
	}
	v.authMessage = i18n.Ctx(ctx, i18n.AuthCheckEmail)
	return nil
}

// SignOut ends the session and resets the page as a reload would.
func (v *Visitor) SignOut(ctx context.Context) error {
	v.touch()
	err := v.sessions.SignOut(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.endSessionLocked()
	v.identity = nil
	v.quota = nil
	v.isPro = false
	v.proEmail = ""
	v.image = nil
	v.generationErr = ""
	v.chatOpen = false
	v.transcript = nil
	v.revision++
	v.draft = ""
	v.modal = domain.ModalNone
	v.authMode = domain.AuthModeLogin
	v.authMessage = ""
	return err
}

// endSessionLocked retires requests started under the current identity.
// Their results are dropped when they return and the busy flags free up for
// the next session.
func (v *Visitor) endSessionLocked() {
	v.sessionGen++
	v.generating = false
	v.chatting = false
}

func authFailureMessage(ctx context.Context, err error) string {
	var authErr *supabase.AuthError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}
	return i18n.Ctx(ctx, i18n.AuthFailed)
}
