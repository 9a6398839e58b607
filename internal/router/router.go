// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for
// Starling. Routes are split into the public site, which is compressed and
// timed, and the admin panel, which runs behind sessions and CSRF checks.
package router

import (
	"io/fs"
	"net/http"

	"github.com/NYTimes/gziphandler"
	"github.com/go-chi/chi/v5"
	servertiming "github.com/mitchellh/go-server-timing"

	"starling/internal/handlers"
	"starling/internal/middleware"
	"starling/internal/session"
	"starling/web"
)

// Handlers groups the handler sets mounted by the router.
type Handlers struct {
	Admin  *handlers.Admin
	Auth   *handlers.Auth
	Public *handlers.Public
}

// New creates the configured Chi router. loginLimiter throttles sign-in
// attempts per client IP; secure marks admin cookies HTTPS-only.
func New(sessionStore *session.Store, h Handlers, loginLimiter *middleware.RateLimiter, secure bool) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthHandler)

	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(static)))

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(middleware.LoadSession(sessionStore))
		r.Use(middleware.NewCSRF(secure))

		// Auth pages, reachable without a session.
		r.Get("/login", h.Auth.LoginPage)
		r.With(loginLimiter.Middleware).Post("/login", h.Auth.LoginSubmit)
		r.Post("/logout", h.Auth.Logout)

		// 2FA: needs a session but not a completed second factor.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", h.Auth.TwoFASetupPage)
			r.Get("/2fa/verify", h.Auth.TwoFAVerifyPage)
			r.With(loginLimiter.Middleware).Post("/2fa/verify", h.Auth.TwoFAVerifySubmit)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Get("/", h.Admin.Dashboard)
			r.Get("/dashboard", h.Admin.Dashboard)

			r.Route("/pages", func(r chi.Router) {
				r.Get("/", h.Admin.PagesList)
				r.Get("/new", h.Admin.PageNew)
				r.Post("/", h.Admin.PageCreate)
				r.Get("/{id}", h.Admin.PageEdit)
				r.Post("/{id}", h.Admin.PageUpdate)
				r.Post("/{id}/delete", h.Admin.PageDelete)
				r.Post("/{id}/image", h.Admin.PageImageUpload)
				r.Post("/{id}/image/delete", h.Admin.PageImageDelete)
				r.Get("/{id}/translations", h.Admin.PageTranslations)
				r.Post("/{id}/translations", h.Admin.PageTranslate)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.Admin.CategoriesList)
				r.Get("/new", h.Admin.CategoryNew)
				r.Post("/", h.Admin.CategoryCreate)
				r.Get("/{id}", h.Admin.CategoryEdit)
				r.Post("/{id}", h.Admin.CategoryUpdate)
				r.Post("/{id}/delete", h.Admin.CategoryDelete)
				r.Get("/{id}/translations", h.Admin.CategoryTranslations)
				r.Post("/{id}/translations", h.Admin.CategoryTranslate)
			})

			// Site-wide settings are admin only.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/analytics", h.Admin.AnalyticsPage)
				r.Post("/analytics", h.Admin.AnalyticsSave)
				r.Get("/settings", h.Admin.SettingsPage)
				r.Post("/settings", h.Admin.SettingsSave)
			})
		})
	})

	// Public site: every other GET is resolved against the page trees.
	r.Group(func(r chi.Router) {
		r.Use(serverTiming)
		r.Use(gziphandler.GzipHandler)
		r.Get("/sitemap.xml", h.Public.Sitemap)
		r.Get("/*", h.Public.Page)
	})

	return r
}

// serverTiming exposes the per-request timing metrics started by the
// public handlers as a Server-Timing header.
func serverTiming(next http.Handler) http.Handler {
	return servertiming.Middleware(next, nil)
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
