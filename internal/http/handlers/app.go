package handlers

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"possessher/internal/domain"
	"possessher/internal/infra"
	"possessher/internal/middleware"
	"possessher/internal/visitor"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxFormBytes = 64 << 10

// Pinger reports database health. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the handler container.
type Options struct {
	Registry  *visitor.Registry
	PublicURL string
	Pricing   []domain.PricingPlan
	DB        Pinger
	Logger    *infra.Logger
	Now       func() time.Time
}

type App struct {
	Registry  *visitor.Registry
	PublicURL string
	Pricing   []domain.PricingPlan
	DB        Pinger

	logger *infra.Logger
	now    func() time.Time
	pages  *template.Template
}

func NewApp(opts Options) (*App, error) {
	if opts.Registry == nil {
		return nil, errors.New("handlers: registry is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	pricing := opts.Pricing
	if len(pricing) == 0 {
		pricing = domain.DefaultPricingPlans
	}
	pages, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &App{
		Registry:  opts.Registry,
		PublicURL: strings.TrimRight(opts.PublicURL, "/"),
		Pricing:   pricing,
		DB:        opts.DB,
		logger:    logger,
		now:       now,
		pages:     pages,
	}, nil
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{"code": kind, "message": message},
	})
}

// visitor returns the view state owner for the request's browser profile.
func (a *App) visitor(r *http.Request) (*visitor.Visitor, bool) {
	profile := middleware.VisitorIDFromContext(r.Context())
	if profile == "" {
		return nil, false
	}
	v, _ := a.Registry.Get(r.Context(), profile)
	return v, true
}

// action resolves the visitor for a state-changing request and enforces the
// age gate. It writes the response itself when it returns nil.
func (a *App) action(w http.ResponseWriter, r *http.Request) *visitor.Visitor {
	v, ok := a.visitor(r)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "missing visitor")
		return nil
	}
	if !v.AgeVerified() {
		if wantsJSON(r) {
			a.error(w, http.StatusForbidden, "age_gate", domain.ErrAgeGate.Error())
		} else {
			http.Redirect(w, r, "/", http.StatusSeeOther)
		}
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid form")
		return nil
	}
	return v
}

// done finishes an action: JSON callers get the new state, browsers are sent
// back to the page.
func (a *App) done(w http.ResponseWriter, r *http.Request, v *visitor.Visitor, anchor string) {
	if wantsJSON(r) {
		a.json(w, http.StatusOK, v.Snapshot())
		return
	}
	target := "/"
	if anchor != "" {
		target += "#" + anchor
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func (a *App) publicHost() string {
	u, err := url.Parse(a.PublicURL)
	if err != nil || u.Host == "" {
		return "possessher-ai.vercel.app"
	}
	return u.Host
}
