// Package main is the entry point for the Starling CMS server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"starling/internal/cache"
	"starling/internal/config"
	"starling/internal/database"
	"starling/internal/engine"
	"starling/internal/handlers"
	"starling/internal/i18n"
	"starling/internal/middleware"
	"starling/internal/render"
	"starling/internal/router"
	"starling/internal/routing"
	"starling/internal/session"
	"starling/internal/storage"
	"starling/internal/store"
	"starling/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(os.Stdout, cfg.LogLevel))

	if err := run(cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped gracefully")
}

// newLogger writes text to a terminal and JSON everywhere else. Unknown
// levels fall back to info.
func newLogger(w *os.File, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd()) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEnabled, cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			return err
		}
	}

	valkeyClient, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		return err
	}
	defer valkeyClient.Close()

	// Session cookies are Secure outside development.
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		return err
	}

	catalog, err := i18n.Load()
	if err != nil {
		return err
	}

	storageClient, err := storage.New(storage.Options{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		return err
	}
	if storageClient != nil {
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, social image uploads disabled")
	}

	stores := handlers.Stores{
		Pages:      store.NewPageStore(db),
		Categories: store.NewCategoryStore(db),
		Locales:    store.NewLocaleStore(db),
		Sites:      store.NewSiteStore(db),
		Analytics:  store.NewAnalyticsStore(db),
		Settings:   store.NewSiteSettingStore(db),
		Users:      store.NewUserStore(db),
	}

	eng := engine.New(engine.Options{
		Dir:       cfg.TemplateDir,
		Catalog:   catalog,
		Analytics: stores.Analytics,
	})
	pageCache := cache.NewPageCache(valkeyClient, cache.DefaultPageTTL)

	h := router.Handlers{
		Admin: handlers.NewAdmin(renderer, stores, storageClient, pageCache, cfg.ArticlesPerPage),
		Auth:  handlers.NewAuth(renderer, sessionStore, stores.Users),
		Public: handlers.NewPublic(handlers.PublicDeps{
			Engine:    eng,
			Resolver:  routing.NewResolver(store.Catalog{Pages: stores.Pages, Categories: stores.Categories}),
			Sites:     stores.Sites,
			Locales:   stores.Locales,
			Pages:     stores.Pages,
			Settings:  stores.Settings,
			Storage:   storageClient,
			PageCache: pageCache,
			PerPage:   cfg.ArticlesPerPage,
		}),
	}

	// Five login attempts per minute per client.
	loginLimiter := middleware.NewRateLimiter(5, time.Minute)
	defer loginLimiter.Stop()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.New(sessionStore, h, loginLimiter, secureCookies),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// SIGHUP drops compiled template overrides and cached pages; SIGINT
	// and SIGTERM drain connections and stop.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for {
		select {
		case err := <-serveErr:
			return err
		case sig := <-signals:
			if sig == syscall.SIGHUP {
				eng.Reload()
				pageCache.InvalidateAll(ctx)
				slog.Info("templates reloaded")
				continue
			}
			slog.Info("shutdown signal received", "signal", sig)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	}
}
