package handlers

import (
	"errors"
	"net/http"

	"possessher/internal/domain"
)

// AcceptAge records the age acknowledgement for the browser profile.
func (a *App) AcceptAge(w http.ResponseWriter, r *http.Request) {
	v, ok := a.visitor(r)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "missing visitor")
		return
	}
	if err := v.AcceptAge(r.Context()); err != nil {
		a.logger.Error().Err(err).Str("profile", v.Profile()).Msg("age: persist acknowledgement")
		a.error(w, http.StatusInternalServerError, "internal", "could not save acknowledgement")
		return
	}
	a.done(w, r, v, "")
}

// Generate runs the image flow. Gated outcomes surface as modals in the
// redirected page, so only transport problems reach the JSON error path.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	v := a.action(w, r)
	if v == nil {
		return
	}
	if err := v.GenerateImage(r.Context()); errors.Is(err, domain.ErrBusy) && wantsJSON(r) {
		a.error(w, http.StatusConflict, "busy", err.Error())
		return
	}
	a.done(w, r, v, "image")
}

// RetryGenerate backs the retry affordance shown after a failed generation.
func (a *App) RetryGenerate(w http.ResponseWriter, r *http.Request) {
	a.Generate(w, r)
}

// Chat sends the composer text to the backend.
func (a *App) Chat(w http.ResponseWriter, r *http.Request) {
	v := a.action(w, r)
	if v == nil {
		return
	}
	err := v.SendChatMessage(r.Context(), r.PostFormValue("message"))
	if errors.Is(err, domain.ErrBusy) && wantsJSON(r) {
		a.error(w, http.StatusConflict, "busy", err.Error())
		return
	}
	if err != nil && !isGated(err) && !errors.Is(err, domain.ErrEmptyMessage) && !errors.Is(err, domain.ErrBusy) {
		a.logger.Warn().Err(err).Str("profile", v.Profile()).Msg("chat: exchange failed")
	}
	a.done(w, r, v, "chat-end")
}

func (a *App) ToggleChat(w http.ResponseWriter, r *http.Request) {
	v := a.action(w, r)
	if v == nil {
		return
	}
	_ = v.ToggleChat()
	a.done(w, r, v, "chat-end")
}

func (a *App) OpenLogin(w http.ResponseWriter, r *http.Request) {
	v := a.action(w, r)
	if v == nil {
		return
	}
	v.OpenLogin()
	a.done(w, r, v, "")
}

// OpenPricing shows the pricing modal, or sends the visitor to the external
// upgrade page when that variant is configured.
func (a *App) OpenPricing(w http.ResponseWriter, r *http.Request) {
	v := a.action(w, r)
	if v == nil {
		return
	}
	target, err := v.OpenPricing()
	if err == nil && target != "" && !wantsJSON(r) {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	a.done(w, r, v, "")
}

func (a *App) CloseModal(w http.ResponseWriter, r *http.Request) {
	v := a.action(w, r)
	if v == nil {
		return
	}
	v.CloseModal()
	a.done(w, r, v, "")
}

func isGated(err error) bool {
	return errors.Is(err, domain.ErrLoginRequired) || errors.Is(err, domain.ErrUpgradeRequired)
}
