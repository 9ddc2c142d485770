package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"possessher/internal/adapter/repo"
	"possessher/internal/http/handlers"
	httpapi "possessher/internal/http/httpapi"
	"possessher/internal/infra"
	"possessher/internal/infra/geoip"
	"possessher/internal/providers/backend"
	"possessher/internal/providers/supabase"
	"possessher/internal/session"
	"possessher/internal/storage"
	"possessher/internal/visitor"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backendClient, err := backend.NewClient(backend.Options{
		BaseURL:        cfg.BackendBaseURL,
		Logger:         &logger,
		RequestTimeout: cfg.BackendTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build backend client")
	}
	supabaseOpts := supabase.Options{
		BaseURL:        cfg.SupabaseURL,
		AnonKey:        cfg.SupabaseAnonKey,
		Logger:         &logger,
		RequestTimeout: cfg.AuthTimeout,
	}
	authClient, err := supabase.NewAuthClient(supabaseOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build auth client")
	}

	// Profile lookup: direct SQL when a database is configured, REST otherwise.
	var profiles visitor.ProfileLookup
	var pinger handlers.Pinger
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	if dbpool != nil {
		defer dbpool.Close()
		profiles = repo.NewProfileRepository(infra.NewSQLRunner(dbpool, logger))
		pinger = dbpool
		logger.Info().Msg("profile lookup via database")
	} else {
		rest, err := supabase.NewProfileClient(supabaseOpts)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build profile client")
		}
		profiles = rest
	}

	var store storage.Store = storage.NewMemoryStore()
	if cfg.StateDir != "" {
		fileStore, err := storage.NewFileStore(cfg.StateDir)
		if err != nil {
			logger.Fatal().Err(err).Str("dir", cfg.StateDir).Msg("failed to open state dir")
		}
		store = fileStore
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()

	registry := visitor.NewRegistry(func(profile string) *visitor.Visitor {
		prefs := storage.NewPrefs(store, profile)
		return visitor.New(visitor.Deps{
			Backend: backendClient,
			Sessions: session.NewManager(authClient, prefs, session.Options{
				JWTSecret: cfg.SupabaseJWTSecret,
				Logger:    &logger,
			}),
			Profiles:     profiles,
			Prefs:        prefs,
			Variant:      cfg.Variant,
			ImageHosts:   cfg.ImageHostAllowlist,
			Logger:       &logger,
			EventTimeout: cfg.BackendTimeout,
		})
	}, cfg.VisitorIdleTTL, &logger)
	defer registry.Close()
	go registry.Run(ctx, time.Minute)

	app, err := handlers.NewApp(handlers.Options{
		Registry:  registry,
		PublicURL: cfg.PublicURL,
		DB:        pinger,
		Logger:    &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build handlers")
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          &logger,
		CookieSecret:    cfg.CookieSecret,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   resolver.Lookup(),
		RateLimitPerMin: cfg.RateLimitPerMin,
		StaticDir:       cfg.StaticDir,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("web listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
