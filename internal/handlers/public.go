// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	servertiming "github.com/mitchellh/go-server-timing"

	"starling/internal/cache"
	"starling/internal/engine"
	"starling/internal/models"
	"starling/internal/pagetree"
	"starling/internal/routing"
	"starling/internal/storage"
)

// SiteSource resolves the site serving a hostname.
type SiteSource interface {
	ForHost(ctx context.Context, host string) (*models.Site, error)
}

// LocaleSource lists the enabled locales.
type LocaleSource interface {
	List(ctx context.Context) (models.Locales, error)
}

// PageSource is the page reads the public site needs.
type PageSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Page, error)
	FindTranslation(ctx context.Context, translationKey uuid.UUID, locale string) (*models.Page, error)
	ListStructural(ctx context.Context, locale string, liveOnly bool) ([]*models.Page, error)
	ListLive(ctx context.Context, locale string) ([]*models.Page, error)
}

// SettingSource returns the global site settings.
type SettingSource interface {
	All(ctx context.Context) (models.SiteSettings, error)
}

// PublicDeps are the dependencies of the public site handlers. Storage and
// PageCache may be nil.
type PublicDeps struct {
	Engine    *engine.Engine
	Resolver  *routing.Resolver
	Sites     SiteSource
	Locales   LocaleSource
	Pages     PageSource
	Settings  SettingSource
	Storage   *storage.Client
	PageCache *cache.PageCache
	PerPage   int // articles per page when no site setting overrides it
}

// Public serves the page trees of every site. Rendered responses are kept
// in the Valkey page cache; a hit skips routing and rendering entirely.
type Public struct {
	PublicDeps
}

// NewPublic creates the public handler group.
func NewPublic(deps PublicDeps) *Public {
	if deps.PerPage < 1 {
		deps.PerPage = routing.DefaultPerPage
	}
	return &Public{PublicDeps: deps}
}

// siteContext is a site resolved for one locale.
type siteContext struct {
	site    *models.Site
	locales models.Locales
	locale  models.Locale
	tree    *pagetree.Tree // nil when the locale has no live root
}

// Page serves every public URL that is not handled by another route.
func (p *Public) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	urlPath := r.URL.Path

	// Directory-style URLs are canonical; file-like paths are left alone.
	if !strings.HasSuffix(urlPath, "/") && path.Ext(urlPath) == "" {
		target := urlPath + "/"
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		return
	}

	pageParam := r.URL.Query().Get("page")
	key := cache.Key(r.Host, urlPath, pageParam)
	if cached, ok := p.PageCache.Get(ctx, key); ok {
		w.Header().Set("X-Cache", "HIT")
		writeHTML(w, http.StatusOK, cached)
		return
	}

	stopDB := startTiming(ctx, "db")
	sc, rest, err := p.resolveSite(ctx, r.Host, splitPath(urlPath))
	if err != nil {
		stopDB()
		p.serverError(w, r, "resolve site", err)
		return
	}
	if sc == nil || sc.tree == nil {
		stopDB()
		p.notFound(w, r, sc)
		return
	}

	node, remaining := sc.tree.Walk(rest)
	if node == nil {
		stopDB()
		p.notFound(w, r, sc)
		return
	}

	v := p.baseView(sc)
	var render func(context.Context, *engine.View) ([]byte, error)

	if node.Page.IsIndex() {
		result, err := p.Resolver.Route(ctx, routing.Request{
			Index:      node.Page,
			Components: remaining,
			PageParam:  pageParam,
			PerPage:    p.perPage(ctx),
		})
		stopDB()
		if errors.Is(err, routing.ErrNotFound) {
			p.notFound(w, r, sc)
			return
		}
		if err != nil {
			p.serverError(w, r, "route index", err)
			return
		}

		v.Index = node.Page
		if result.Article != nil {
			a := result.Article
			v.Page = a
			v.Category = result.Category
			v.MetaTitle = a.MetaTitle()
			v.MetaDescription = engine.Summary(a)
			v.CanonicalURL = absoluteURL(r, routing.ArticlePath(sc.tree, a))
			if a.SocialImageKey != nil {
				v.OGImage = p.Storage.FileURL(*a.SocialImageKey)
			}
			render = p.Engine.RenderArticle
		} else {
			v.Page = node.Page
			v.Listing = result.Listing
			v.MetaTitle = node.Page.MetaTitle()
			if cat := result.Listing.Category; cat != nil {
				v.MetaTitle = cat.Name + " | " + v.MetaTitle
				v.MetaDescription = cat.Description
			} else {
				v.MetaDescription = node.Page.MetaDescription()
			}
			v.CanonicalURL = absoluteURL(r, routing.ListingPath(node.Path, result.Listing.Category))
			render = p.Engine.RenderListing
		}
	} else {
		stopDB()
		v.Page = node.Page
		v.MetaTitle = node.Page.MetaTitle()
		v.MetaDescription = engine.Summary(node.Page)
		v.CanonicalURL = absoluteURL(r, node.Path)
		if node.Page.SocialImageKey != nil {
			v.OGImage = p.Storage.FileURL(*node.Page.SocialImageKey)
		}
		render = p.Engine.RenderPage
	}

	stopRender := startTiming(ctx, "render")
	out, err := render(ctx, v)
	stopRender()
	if err != nil {
		p.serverError(w, r, "render page", err)
		return
	}

	p.PageCache.Set(ctx, key, out)
	w.Header().Set("X-Cache", "MISS")
	writeHTML(w, http.StatusOK, out)
}

// resolveSite finds the site for host, splits a locale prefix off the path
// components and builds that locale's live page tree. It returns a nil
// context when no site exists.
func (p *Public) resolveSite(ctx context.Context, host string, components []string) (*siteContext, []string, error) {
	site, err := p.Sites.ForHost(ctx, cache.Hostname(host))
	if err != nil {
		return nil, nil, err
	}
	if site == nil {
		return nil, nil, nil
	}
	locales, err := p.Locales.List(ctx)
	if err != nil {
		return nil, nil, err
	}

	locale, rest := locales.Split(components)
	sc := &siteContext{site: site, locales: locales, locale: locale}

	root, err := p.localeRoot(ctx, site, locale)
	if err != nil {
		return nil, nil, err
	}
	if root == nil || !root.Live {
		return sc, rest, nil
	}

	pages, err := p.Pages.ListStructural(ctx, locale.Code, true)
	if err != nil {
		return nil, nil, err
	}
	sc.tree = pagetree.Build(root, locale, pages)
	return sc, rest, nil
}

// localeRoot returns the root page of a site in locale: the site root
// itself, or its translation.
func (p *Public) localeRoot(ctx context.Context, site *models.Site, locale models.Locale) (*models.Page, error) {
	if site.RootPageID == nil {
		return nil, nil
	}
	root, err := p.Pages.FindByID(ctx, *site.RootPageID)
	if err != nil || root == nil {
		return nil, err
	}
	if root.Locale == locale.Code {
		return root, nil
	}
	return p.Pages.FindTranslation(ctx, root.TranslationKey, locale.Code)
}

// perPage returns the listing page size, preferring the site setting.
func (p *Public) perPage(ctx context.Context) int {
	if p.Settings == nil {
		return p.PerPage
	}
	settings, err := p.Settings.All(ctx)
	if err != nil {
		slog.Warn("load site settings failed", "error", err)
		return p.PerPage
	}
	return settings.PositiveInt(models.SettingArticlesPerPage, p.PerPage)
}

func (p *Public) baseView(sc *siteContext) *engine.View {
	v := &engine.View{
		Site:   sc.site,
		Locale: sc.locale,
		Tree:   sc.tree,
	}
	for _, l := range sc.locales {
		v.Alternates = append(v.Alternates, engine.Alternate{Locale: l, URL: l.Prefix() + "/"})
	}
	return v
}

// notFound renders the not-found template with a 404 status. sc may be nil
// when no site matched the host.
func (p *Public) notFound(w http.ResponseWriter, r *http.Request, sc *siteContext) {
	v := &engine.View{}
	if sc != nil {
		v = p.baseView(sc)
	}
	out, err := p.Engine.RenderNotFound(r.Context(), v)
	if err != nil {
		slog.Error("render not found page failed", "error", err)
		http.NotFound(w, r)
		return
	}
	writeHTML(w, http.StatusNotFound, out)
}

func (p *Public) serverError(w http.ResponseWriter, r *http.Request, what string, err error) {
	slog.Error(what+" failed", "error", err, "host", r.Host, "path", r.URL.Path)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// splitPath turns "/a/b/" into ["a", "b"].
func splitPath(p string) []string {
	var out []string
	for _, c := range strings.Split(p, "/") {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// absoluteURL joins the request's scheme and host with an absolute path.
func absoluteURL(r *http.Request, p string) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + p
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

// startTiming starts a Server-Timing metric when the request carries a
// timing header, and returns the function that stops it.
func startTiming(ctx context.Context, name string) func() {
	h := servertiming.FromContext(ctx)
	if h == nil {
		return func() {}
	}
	m := h.NewMetric(name).Start()
	return func() { m.Stop() }
}
