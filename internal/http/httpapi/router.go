package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"possessher/internal/http/handlers"
	"possessher/internal/infra"
	"possessher/internal/middleware"
)

// Options configures the router's middleware and static assets.
type Options struct {
	Logger          *infra.Logger
	CookieSecret    string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
	StaticDir       string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Visitor(opts.CookieSecret),
		middleware.Logger(*logger),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	// Health
	r.Get("/v1/healthz", app.Health)

	if opts.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Get("/", app.Home)
		r.Get("/image/current", app.CurrentImage)
		r.Get("/image/download", app.Download)
		r.Get("/export", app.Export)
		r.Get("/api/state", app.State)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))

			r.Post("/age/accept", app.AcceptAge)
			r.Post("/generate", app.Generate)
			r.Post("/retry-generate", app.RetryGenerate)
			r.Post("/chat", app.Chat)
			r.Post("/chat/toggle", app.ToggleChat)

			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", app.Login)
				r.Post("/signup", app.SignUp)
				r.Post("/mode", app.AuthMode)
				r.Post("/logout", app.Logout)
			})

			r.Route("/modal", func(r chi.Router) {
				r.Post("/login", app.OpenLogin)
				r.Post("/pricing", app.OpenPricing)
				r.Post("/close", app.CloseModal)
			})
		})
	})

	return r
}
