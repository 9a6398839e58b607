// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package engine renders public pages. Each page type has an embedded
// default template that an operator can replace by dropping a file with
// the same name into TEMPLATE_DIR. Every template is parsed together with
// "base", which provides the layout, and must define "content".
package engine

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"starling/internal/i18n"
	"starling/internal/markdown"
	"starling/internal/models"
	"starling/internal/pagetree"
	"starling/internal/routing"
)

//go:embed templates/*.html
var defaults embed.FS

// Template names.
const (
	TemplateBase          = "base"
	TemplateHome          = "home"
	TemplatePage          = "page"
	TemplateArticleIndex  = "article_index"
	TemplateCategoryIndex = "category_index"
	TemplateArticle       = "article"
	TemplateNotFound      = "not_found"
)

// ErrNoTemplate is returned when none of the candidate names exist.
var ErrNoTemplate = errors.New("no template found")

// summaryLength is the rune limit for descriptions derived from a body.
const summaryLength = 160

// AnalyticsSource loads the analytics settings of a site. A nil result
// means the site has none.
type AnalyticsSource interface {
	Get(ctx context.Context, siteID uuid.UUID) (*models.AnalyticsSettings, error)
}

// Alternate is an entry of the language switcher: the root URL of one
// locale of the site.
type Alternate struct {
	Locale models.Locale
	URL    string
}

// View is the data passed to every public template.
type View struct {
	Site       *models.Site
	Locale     models.Locale
	Alternates []Alternate
	Tree       *pagetree.Tree

	// Page is the page being rendered: the article on detail views and
	// the index on listings. Nil on not-found.
	Page     *models.Page
	Index    *models.Page
	Category *models.Category
	Listing  *routing.Listing
	// Data holds the listing context (articles, paginator, categories,
	// category) on listing views.
	Data map[string]any

	CanonicalURL    string
	MetaTitle       string
	MetaDescription string
	OGImage         string

	Analytics *models.AnalyticsSettings
	Year      int
}

// Options configures an Engine.
type Options struct {
	Dir       string // TEMPLATE_DIR; empty disables overrides
	Catalog   *i18n.Catalog
	Analytics AnalyticsSource
}

// Engine compiles and renders public templates. Compiled templates are
// kept in an in-memory cache keyed by name and source modification time.
type Engine struct {
	dir       string
	catalog   *i18n.Catalog
	analytics AnalyticsSource
	cache     *templateCache
}

// New creates a rendering engine.
func New(opts Options) *Engine {
	return &Engine{
		dir:       opts.Dir,
		catalog:   opts.Catalog,
		analytics: opts.Analytics,
		cache:     newTemplateCache(),
	}
}

// Reload drops every compiled template.
func (e *Engine) Reload() {
	e.cache.invalidateAll()
}

// RenderPage renders a structural page with the template named after its
// type, falling back to "page".
func (e *Engine) RenderPage(ctx context.Context, v *View) ([]byte, error) {
	return e.Render(ctx, v, string(v.Page.Type), TemplatePage)
}

// RenderListing renders an article index listing. Filtered listings try
// "category_index" first.
func (e *Engine) RenderListing(ctx context.Context, v *View) ([]byte, error) {
	if v.Listing != nil {
		v.Data = v.Listing.Context()
		v.Category = v.Listing.Category
	}
	if v.Category != nil {
		return e.Render(ctx, v, TemplateCategoryIndex, TemplateArticleIndex)
	}
	return e.Render(ctx, v, TemplateArticleIndex)
}

// RenderArticle renders an article detail page.
func (e *Engine) RenderArticle(ctx context.Context, v *View) ([]byte, error) {
	return e.Render(ctx, v, TemplateArticle, TemplatePage)
}

// RenderNotFound renders the not-found page. It never carries analytics.
func (e *Engine) RenderNotFound(ctx context.Context, v *View) ([]byte, error) {
	v.Page = nil
	v.Analytics = nil
	if v.MetaTitle == "" {
		v.MetaTitle = e.t(v.Locale.Code, "Page not found")
	}
	return e.Render(ctx, v, TemplateNotFound)
}

// Render executes the first of names that exists, either as an override
// in the template directory or as an embedded default.
func (e *Engine) Render(ctx context.Context, v *View, names ...string) ([]byte, error) {
	e.loadAnalytics(ctx, v)
	if v.Year == 0 {
		v.Year = time.Now().Year()
	}

	for _, name := range names {
		tmpl, err := e.lookup(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}

		var buf bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buf, TemplateBase, v); err != nil {
			return nil, fmt.Errorf("execute template %s: %w", name, err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrNoTemplate, names)
}

// loadAnalytics fills v.Analytics once per render. Lookup failures are
// logged and leave the page without tracking code.
func (e *Engine) loadAnalytics(ctx context.Context, v *View) {
	if v.Analytics != nil || v.Page == nil || v.Site == nil || e.analytics == nil {
		return
	}
	settings, err := e.analytics.Get(ctx, v.Site.ID)
	if err != nil {
		slog.Warn("analytics settings lookup failed", "site", v.Site.ID, "error", err)
		return
	}
	v.Analytics = settings
}

// lookup returns the compiled template set for name, compiling it on a
// cache miss.
func (e *Engine) lookup(name string) (*template.Template, error) {
	src, mod, err := e.source(name)
	if err != nil {
		return nil, err
	}
	baseSrc, baseMod, err := e.source(TemplateBase)
	if err != nil {
		return nil, fmt.Errorf("load base template: %w", err)
	}
	version := mod.UnixNano() ^ baseMod.UnixNano()<<1

	if tmpl := e.cache.get(name, version); tmpl != nil {
		return tmpl, nil
	}

	tmpl, err := template.New(TemplateBase).Funcs(e.funcs()).Parse(baseSrc)
	if err != nil {
		return nil, fmt.Errorf("compile base template: %w", err)
	}
	if _, err := tmpl.New(name).Parse(src); err != nil {
		return nil, fmt.Errorf("compile template %s: %w", name, err)
	}
	e.cache.put(name, version, tmpl)
	return tmpl, nil
}

// source reads a template, preferring the override directory. Embedded
// defaults report a zero modification time.
func (e *Engine) source(name string) (string, time.Time, error) {
	file := name + ".html"
	if e.dir != "" {
		p := filepath.Join(e.dir, file)
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			b, err := os.ReadFile(p)
			if err != nil {
				return "", time.Time{}, fmt.Errorf("read template %s: %w", p, err)
			}
			return string(b), info.ModTime(), nil
		}
	}
	b, err := fs.ReadFile(defaults, "templates/"+file)
	if err != nil {
		return "", time.Time{}, err
	}
	return string(b), time.Time{}, nil
}

func (e *Engine) funcs() template.FuncMap {
	return template.FuncMap{
		"analyticsHead": analyticsHead,
		"analyticsBody": analyticsBody,
		"t":             e.t,
		"pageURL":       pageURL,
		"articleURL":    articleURL,
		"listingURL":    routing.ListingPath,
		"pageLink":      pageLink,
		"markdown":      Body,
		"summary":       Summary,
	}
}

// analyticsHead emits the site's head tracking code when it applies to
// the page being rendered.
func analyticsHead(v *View) template.HTML {
	if v == nil || v.Page == nil || !v.Analytics.ShouldInclude(v.Page.ID) {
		return ""
	}
	return template.HTML(v.Analytics.HeadCode)
}

// analyticsBody emits the site's body tracking code when it applies to
// the page being rendered.
func analyticsBody(v *View) template.HTML {
	if v == nil || v.Page == nil || !v.Analytics.ShouldInclude(v.Page.ID) {
		return ""
	}
	return template.HTML(v.Analytics.BodyCode)
}

func (e *Engine) t(locale, msg string, args ...any) string {
	if e.catalog == nil {
		if len(args) > 0 {
			return fmt.Sprintf(msg, args...)
		}
		return msg
	}
	return e.catalog.T(locale, msg, args...)
}

// pageURL returns the path of a structural page, or "" when the page is
// not in the tree.
func pageURL(tree *pagetree.Tree, p *models.Page) string {
	if tree == nil || p == nil {
		return ""
	}
	path, _ := tree.Path(p.ID)
	return path
}

func articleURL(tree *pagetree.Tree, a *models.Page) string {
	if tree == nil || a == nil {
		return ""
	}
	return routing.ArticlePath(tree, a)
}

// pageLink returns path with a page query parameter. Page 1 has none.
func pageLink(path string, n int) string {
	if n <= 1 {
		return path
	}
	return path + "?page=" + strconv.Itoa(n)
}

// Body returns the rendered HTML body of a page. Markdown that fails to
// convert is shown escaped.
func Body(p *models.Page) template.HTML {
	if p == nil {
		return ""
	}
	out, err := markdown.Render(p.Body, p.BodyFormat)
	if err != nil {
		slog.Warn("markdown conversion failed", "page", p.ID, "error", err)
		return template.HTML(template.HTMLEscapeString(p.Body))
	}
	return template.HTML(out)
}

// Summary returns a short plain-text description of a page: its search
// description, then its intro, then the first paragraph of its body.
func Summary(p *models.Page) string {
	if p == nil {
		return ""
	}
	if d := p.MetaDescription(); d != "" {
		return d
	}
	if p.Intro != nil && *p.Intro != "" {
		return *p.Intro
	}
	return markdown.Excerpt(string(Body(p)), summaryLength)
}
