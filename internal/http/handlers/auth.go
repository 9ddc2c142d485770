package handlers

import (
	"net/http"
	"strings"

	"possessher/internal/domain"
)

// Login submits the sign-in form. Failures stay on the form as a message.
func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	v := a.action(w, r)
	if v == nil {
		return
	}
	email, password := credentials(r)
	if err := v.SignIn(r.Context(), email, password); err != nil {
		a.logger.Info().Err(err).Str("profile", v.Profile()).Msg("auth: sign in rejected")
	}
	a.done(w, r, v, "")
}

func (a *App) SignUp(w http.ResponseWriter, r *http.Request) {
	v := a.action(w, r)
	if v == nil {
		return
	}
	email, password := credentials(r)
	if err := v.SignUp(r.Context(), email, password); err != nil {
		a.logger.Info().Err(err).Str("profile", v.Profile()).Msg("auth: sign up rejected")
	}
	a.done(w, r, v, "")
}

func (a *App) AuthMode(w http.ResponseWriter, r *http.Request) {
	v := a.action(w, r)
	if v == nil {
		return
	}
	v.SetAuthMode(domain.AuthMode(r.PostFormValue("mode")))
	a.done(w, r, v, "")
}

func (a *App) Logout(w http.ResponseWriter, r *http.Request) {
	v := a.action(w, r)
	if v == nil {
		return
	}
	if err := v.SignOut(r.Context()); err != nil {
		a.logger.Warn().Err(err).Str("profile", v.Profile()).Msg("auth: remote sign out failed")
	}
	a.done(w, r, v, "")
}

func credentials(r *http.Request) (string, string) {
	return strings.TrimSpace(r.PostFormValue("email")), r.PostFormValue("password")
}
