// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for Starling. Handlers are
// grouped by concern (admin, public, auth) and receive their dependencies
// through the handler struct.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"starling/internal/cache"
	"starling/internal/models"
	"starling/internal/render"
	"starling/internal/storage"
	"starling/internal/store"
)

// Stores bundles the stores the admin panel writes through.
type Stores struct {
	Pages      *store.PageStore
	Categories *store.CategoryStore
	Locales    *store.LocaleStore
	Sites      *store.SiteStore
	Analytics  *store.AnalyticsStore
	Settings   *store.SiteSettingStore
	Users      *store.UserStore
}

// Admin groups all admin panel HTTP handlers and their dependencies.
type Admin struct {
	renderer      *render.Renderer
	stores        Stores
	storageClient *storage.Client
	pageCache     *cache.PageCache
	perPage       int
}

// NewAdmin creates a new Admin handler group. storageClient may be nil if
// S3 is not configured; pageCache may be nil when caching is off.
func NewAdmin(renderer *render.Renderer, stores Stores, storageClient *storage.Client, pageCache *cache.PageCache, perPage int) *Admin {
	return &Admin{
		renderer:      renderer,
		stores:        stores,
		storageClient: storageClient,
		pageCache:     pageCache,
		perPage:       perPage,
	}
}

// Dashboard renders the admin dashboard with content counts.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	counts := map[string]int{}
	for _, t := range []models.PageType{models.PageTypeArticle, models.PageTypeIndex, models.PageTypeBasic, models.PageTypeHome} {
		n, err := a.stores.Pages.CountByType(ctx, t)
		if err != nil {
			slog.Error("count pages failed", "error", err, "type", t)
		}
		counts[string(t)] = n
	}
	categoryCount, err := a.stores.Categories.Count(ctx)
	if err != nil {
		slog.Error("count categories failed", "error", err)
	}
	locales, err := a.stores.Locales.List(ctx)
	if err != nil {
		slog.Error("list locales failed", "error", err)
	}

	a.renderer.Page(w, r, "dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Data: map[string]any{
			"ArticleCount":  counts[string(models.PageTypeArticle)],
			"IndexCount":    counts[string(models.PageTypeIndex)],
			"PageCount":     counts[string(models.PageTypeBasic)] + counts[string(models.PageTypeHome)],
			"CategoryCount": categoryCount,
			"Locales":       locales,
			"StorageOn":     a.storageClient != nil,
		},
	})
}

// --- Settings ---

// SettingsPage renders the global site settings form.
func (a *Admin) SettingsPage(w http.ResponseWriter, r *http.Request) {
	settings, err := a.stores.Settings.All(r.Context())
	if err != nil {
		slog.Error("load settings failed", "error", err)
	}
	a.renderSettings(w, r, settings.PositiveInt(models.SettingArticlesPerPage, a.perPage), "", "")
}

// SettingsSave stores the settings form.
func (a *Admin) SettingsSave(w http.ResponseWriter, r *http.Request) {
	raw := r.FormValue("articles_per_page")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxArticlesPerPage {
		a.renderSettings(w, r, a.perPage, "Articles per page must be a number between 1 and 100.", "")
		return
	}

	if err := a.stores.Settings.SetMany(r.Context(), map[string]string{
		models.SettingArticlesPerPage: strconv.Itoa(n),
	}); err != nil {
		slog.Error("save settings failed", "error", err)
		a.renderSettings(w, r, n, "Failed to save settings.", "")
		return
	}

	a.invalidatePages(r.Context(), "settings", uuid.Nil)
	a.renderSettings(w, r, n, "", "Settings saved.")
}

func (a *Admin) renderSettings(w http.ResponseWriter, r *http.Request, perPage int, errMsg, success string) {
	data := &render.PageData{
		Title:   "Settings",
		Section: "settings",
		Data: map[string]any{
			"ArticlesPerPage": perPage,
			"Error":           errMsg,
		},
	}
	if success != "" {
		data.Flashes = []render.Flash{{Type: "success", Message: success}}
	}
	a.renderer.Page(w, r, "settings", data)
}

// --- shared helpers ---

// invalidatePages clears the whole public page cache. Any content write
// can change the URLs or listings of other pages.
func (a *Admin) invalidatePages(ctx context.Context, what string, id uuid.UUID) {
	a.pageCache.InvalidateAll(ctx)
	slog.Info("page cache invalidated", "reason", what, "id", id)
}

// urlID parses the {id} URL parameter.
func urlID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// selectedLocale returns the locale named by the ?locale= query parameter,
// or the default locale.
func selectedLocale(r *http.Request, locales models.Locales) models.Locale {
	if l, ok := locales.Find(r.URL.Query().Get("locale")); ok {
		return l
	}
	return locales.Default()
}

// optional returns nil for an empty string.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// optionalID parses a form value as a UUID, returning nil when it is empty
// or malformed.
func optionalID(s string) *uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
