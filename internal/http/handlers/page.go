package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/text/message"

	"possessher/internal/domain"
	"possessher/internal/i18n"
	"possessher/internal/visitor"
)

type pageData struct {
	Locale       string
	State        visitor.State
	Plans        []domain.PricingPlan
	ImageURL     string
	ReferralLink string
	ShareX       string
	ShareReddit  string

	printer *message.Printer
}

// T translates a catalog key for the page locale.
func (p pageData) T(key string, args ...any) string {
	return p.printer.Sprintf(key, args...)
}

// SafeImage marks a transcript image reference as safe for an img src. Only
// inline images and http(s) URLs pass; anything else renders nothing.
func (p pageData) SafeImage(ref string) template.URL {
	switch {
	case strings.HasPrefix(ref, "data:image/"):
		return template.URL(ref)
	case strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "http://"):
		return template.URL(ref)
	default:
		return ""
	}
}

// Home renders the page, or the age gate when it has not been acknowledged.
func (a *App) Home(w http.ResponseWriter, r *http.Request) {
	v, ok := a.visitor(r)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "missing visitor")
		return
	}
	ctx := r.Context()
	if ref := r.URL.Query().Get("ref"); ref != "" {
		if err := v.CaptureReferral(ctx, ref); err != nil {
			a.logger.Error().Err(err).Str("profile", v.Profile()).Msg("home: capture referral")
		}
	}

	locale := i18n.FromContext(ctx)
	data := pageData{Locale: locale, printer: i18n.Printer(locale), Plans: a.Pricing}
	if !v.AgeVerified() {
		data.State = v.Snapshot()
		a.render(w, "age.html", data)
		return
	}

	v.RefreshEntitlement(ctx)
	data.State = v.Snapshot()
	if data.State.Image != nil {
		data.ImageURL = fmt.Sprintf("/image/current?v=%d", data.State.Image.Version)
	}
	a.fillShareLinks(&data)
	a.render(w, "home.html", data)
}

func (a *App) fillShareLinks(data *pageData) {
	who := data.State.UserID
	if who == "" {
		who = "you"
	}
	data.ReferralLink = a.PublicURL + "?ref=" + url.QueryEscape(who)

	x := url.Values{"text": []string{data.T(string(i18n.ShareXText), a.PublicURL)}}
	data.ShareX = "https://twitter.com/intent/tweet?" + x.Encode()

	reddit := url.Values{
		"title": []string{data.T(string(i18n.ShareRedditTitle))},
		"text":  []string{data.T(string(i18n.ShareRedditText), a.PublicURL)},
	}
	data.ShareReddit = "https://www.reddit.com/submit?" + reddit.Encode()
}

func (a *App) render(w http.ResponseWriter, name string, data pageData) {
	var buf bytes.Buffer
	if err := a.pages.ExecuteTemplate(&buf, name, data); err != nil {
		a.logger.Error().Err(err).Str("template", name).Msg("render failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}
