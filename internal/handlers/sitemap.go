package handlers

import (
	"encoding/xml"
	"log/slog"
	"net/http"

	"starling/internal/cache"
	"starling/internal/pagetree"
	"starling/internal/routing"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Sitemap lists every reachable live page of the requesting site in all
// locales: the structural pages of each locale tree and the articles
// beneath them.
func (p *Public) Sitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	site, err := p.Sites.ForHost(ctx, cache.Hostname(r.Host))
	if err != nil {
		p.serverError(w, r, "sitemap site lookup", err)
		return
	}
	if site == nil {
		http.NotFound(w, r)
		return
	}
	locales, err := p.Locales.List(ctx)
	if err != nil {
		p.serverError(w, r, "sitemap locales", err)
		return
	}

	set := sitemapURLSet{XMLNS: sitemapNS}
	for _, locale := range locales {
		root, err := p.localeRoot(ctx, site, locale)
		if err != nil {
			p.serverError(w, r, "sitemap locale root", err)
			return
		}
		if root == nil || !root.Live {
			continue
		}
		live, err := p.Pages.ListLive(ctx, locale.Code)
		if err != nil {
			p.serverError(w, r, "sitemap pages", err)
			return
		}

		tree := pagetree.Build(root, locale, live)
		for _, n := range tree.Nodes() {
			set.URLs = append(set.URLs, sitemapURL{
				Loc:     absoluteURL(r, n.Path),
				LastMod: n.Page.UpdatedAt.Format("2006-01-02"),
			})
		}
		for _, a := range live {
			// Only articles under a live index are routable.
			if !a.IsArticle() || a.ParentID == nil {
				continue
			}
			if parent := tree.Find(*a.ParentID); parent == nil || !parent.Page.IsIndex() {
				continue
			}
			set.URLs = append(set.URLs, sitemapURL{
				Loc:     absoluteURL(r, routing.ArticlePath(tree, a)),
				LastMod: a.UpdatedAt.Format("2006-01-02"),
			})
		}
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		p.serverError(w, r, "sitemap encode", err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Write([]byte(xml.Header))
	w.Write(out)
	slog.Debug("sitemap served", "site", site.Hostname, "urls", len(set.URLs))
}
