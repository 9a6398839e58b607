package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"starling/internal/models"
	"starling/internal/render"
)

// analyticsLocale groups the pages of one locale for the page
// multi-select.
type analyticsLocale struct {
	Locale models.Locale
	Rows   []pageRow
}

// AnalyticsPage renders the tracking code settings of one site, chosen
// with ?site=; the default site is used otherwise.
func (a *Admin) AnalyticsPage(w http.ResponseWriter, r *http.Request) {
	site, sites, ok := a.analyticsSite(w, r, r.URL.Query().Get("site"))
	if !ok {
		return
	}
	settings, err := a.stores.Analytics.Get(r.Context(), site.ID)
	if err != nil {
		slog.Error("load analytics settings failed", "error", err, "site_id", site.ID)
	}
	if settings == nil {
		settings = models.DefaultAnalyticsSettings(site.ID)
	}
	a.renderAnalytics(w, r, site, sites, settings, "", "")
}

// AnalyticsSave stores the tracking code settings of a site.
func (a *Admin) AnalyticsSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	site, sites, ok := a.analyticsSite(w, r, r.FormValue("site_id"))
	if !ok {
		return
	}

	settings := &models.AnalyticsSettings{
		SiteID:        site.ID,
		Enabled:       r.FormValue("enabled") == "on",
		HeadCode:      r.FormValue("head_code"),
		BodyCode:      r.FormValue("body_code"),
		InclusionMode: models.InclusionMode(r.FormValue("inclusion_mode")),
	}
	for _, raw := range r.Form["pages"] {
		if id, err := uuid.Parse(raw); err == nil {
			settings.PageIDs = append(settings.PageIDs, id)
		}
	}

	if !settings.InclusionMode.Valid() {
		a.renderAnalytics(w, r, site, sites, settings, "Please choose which pages get the tracking code.", "")
		return
	}
	if msg := validateAnalytics(settings.HeadCode, settings.BodyCode); msg != "" {
		a.renderAnalytics(w, r, site, sites, settings, msg, "")
		return
	}

	if err := a.stores.Analytics.Save(ctx, settings); err != nil {
		slog.Error("save analytics settings failed", "error", err, "site_id", site.ID)
		a.renderAnalytics(w, r, site, sites, settings, "Failed to save analytics settings.", "")
		return
	}

	a.invalidatePages(ctx, "analytics updated", site.ID)
	slog.Info("analytics settings saved", "site_id", site.ID, "enabled", settings.Enabled, "mode", settings.InclusionMode)
	a.renderAnalytics(w, r, site, sites, settings, "", "Analytics settings saved.")
}

// analyticsSite picks the site by id, falling back to the default site.
func (a *Admin) analyticsSite(w http.ResponseWriter, r *http.Request, rawID string) (*models.Site, []*models.Site, bool) {
	sites, err := a.stores.Sites.List(r.Context())
	if err != nil {
		slog.Error("list sites failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, nil, false
	}
	if len(sites) == 0 {
		http.Error(w, "No site configured", http.StatusNotFound)
		return nil, nil, false
	}

	id, _ := uuid.Parse(rawID)
	site := sites[0]
	for _, s := range sites {
		if s.ID == id {
			return s, sites, true
		}
		if s.IsDefault {
			site = s
		}
	}
	return site, sites, true
}

func (a *Admin) renderAnalytics(w http.ResponseWriter, r *http.Request, site *models.Site, sites []*models.Site, settings *models.AnalyticsSettings, errMsg, success string) {
	ctx := r.Context()
	locales, err := a.stores.Locales.List(ctx)
	if err != nil {
		slog.Error("list locales failed", "error", err)
	}
	var groups []analyticsLocale
	for _, l := range locales {
		pages, err := a.stores.Pages.ListByLocale(ctx, l.Code)
		if err != nil {
			slog.Error("list pages failed", "error", err, "locale", l.Code)
			continue
		}
		groups = append(groups, analyticsLocale{Locale: l, Rows: treeRows(l, pages)})
	}

	data := &render.PageData{
		Title:   "Analytics",
		Section: "analytics",
		Data: map[string]any{
			"Site":     site,
			"Sites":    sites,
			"Settings": settings,
			"Modes":    models.InclusionModes,
			"Groups":   groups,
			"Error":    errMsg,
		},
	}
	if success != "" {
		data.Flashes = []render.Flash{{Type: "success", Message: success}}
	}
	a.renderer.Page(w, r, "analytics_form", data)
}
