package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"starling/internal/models"
	"starling/internal/pagetree"
	"starling/internal/render"
	"starling/internal/slug"
	"starling/internal/storage"
	"starling/internal/store"
)

// pageRow is one line of the page list.
type pageRow struct {
	Page  *models.Page
	Depth int
}

// pageTypes are the types offered by the page form, in display order.
var pageTypes = []models.PageType{
	models.PageTypeBasic,
	models.PageTypeArticle,
	models.PageTypeIndex,
	models.PageTypeHome,
}

// PagesList shows the pages of one locale in tree order. Articles follow
// their parent page.
func (a *Admin) PagesList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locales, err := a.stores.Locales.List(ctx)
	if err != nil {
		slog.Error("list locales failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	locale := selectedLocale(r, locales)

	pages, err := a.stores.Pages.ListByLocale(ctx, locale.Code)
	if err != nil {
		slog.Error("list pages failed", "error", err, "locale", locale.Code)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "pages_list", &render.PageData{
		Title:   "Pages",
		Section: "pages",
		Data: map[string]any{
			"Rows":    treeRows(locale, pages),
			"Locale":  locale,
			"Locales": locales,
		},
	})
}

// treeRows orders pages depth-first from every parentless page. Pages not
// reachable from a root are appended at the end.
func treeRows(locale models.Locale, pages []*models.Page) []pageRow {
	children := make(map[uuid.UUID][]*models.Page)
	for _, p := range pages {
		if p.IsArticle() && p.ParentID != nil {
			children[*p.ParentID] = append(children[*p.ParentID], p)
		}
	}

	var rows []pageRow
	seen := make(map[uuid.UUID]bool)
	for _, root := range pages {
		if root.ParentID != nil {
			continue
		}
		tree := pagetree.Build(root, locale, pages)
		for _, n := range tree.Nodes() {
			rows = append(rows, pageRow{Page: n.Page, Depth: n.Depth})
			seen[n.Page.ID] = true
			for _, art := range children[n.Page.ID] {
				rows = append(rows, pageRow{Page: art, Depth: n.Depth + 1})
				seen[art.ID] = true
			}
		}
	}
	for _, p := range pages {
		if !seen[p.ID] {
			rows = append(rows, pageRow{Page: p})
		}
	}
	return rows
}

// PageNew renders the empty page form. The ?parent= and ?type= query
// parameters preselect the parent page and the page type.
func (a *Admin) PageNew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := &models.Page{
		Type:       models.PageType(r.URL.Query().Get("type")),
		BodyFormat: models.BodyFormatMarkdown,
		ParentID:   optionalID(r.URL.Query().Get("parent")),
	}
	if !p.Type.Valid() {
		p.Type = models.PageTypeBasic
	}

	locales, err := a.stores.Locales.List(ctx)
	if err != nil {
		slog.Error("list locales failed", "error", err)
	}
	p.Locale = selectedLocale(r, locales).Code
	if p.ParentID != nil {
		if parent, err := a.stores.Pages.FindByID(ctx, *p.ParentID); err == nil && parent != nil {
			p.Locale = parent.Locale
		}
	}

	a.renderPageForm(w, r, p, true, "content", "")
}

// PageCreate handles the page creation form submission.
func (a *Admin) PageCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := &models.Page{
		Type:     models.PageType(r.FormValue("type")),
		ParentID: optionalID(r.FormValue("parent_id")),
		Locale:   r.FormValue("locale"),
	}
	applyPageForm(r, p)

	if msg := a.checkPage(ctx, p); msg != "" {
		a.renderPageForm(w, r, p, true, "content", msg)
		return
	}

	created, err := a.stores.Pages.Create(ctx, p)
	if err != nil {
		if msg := pageConflict(err); msg != "" {
			a.renderPageForm(w, r, p, true, "content", msg)
			return
		}
		slog.Error("create page failed", "error", err)
		a.renderPageForm(w, r, p, true, "content", "Failed to create page. Please try again.")
		return
	}

	a.invalidatePages(ctx, "page created", created.ID)
	slog.Info("page created", "page_id", created.ID, "type", created.Type, "locale", created.Locale)
	http.Redirect(w, r, "/admin/pages/"+created.ID.String(), http.StatusSeeOther)
}

// PageEdit renders the edit form for an existing page. The ?tab= query
// parameter selects the Content or Promote tab.
func (a *Admin) PageEdit(w http.ResponseWriter, r *http.Request) {
	p, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	tab := r.URL.Query().Get("tab")
	if tab != "promote" {
		tab = "content"
	}
	a.renderPageForm(w, r, p, false, tab, "")
}

// PageUpdate handles the page edit form submission. Type, parent and
// locale are fixed after creation.
func (a *Admin) PageUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	tab := r.FormValue("tab")
	if tab != "promote" {
		tab = "content"
	}
	applyPageForm(r, p)

	if msg := a.checkPage(ctx, p); msg != "" {
		a.renderPageForm(w, r, p, false, tab, msg)
		return
	}

	if err := a.stores.Pages.Update(ctx, p); err != nil {
		if msg := pageConflict(err); msg != "" {
			a.renderPageForm(w, r, p, false, tab, msg)
			return
		}
		slog.Error("update page failed", "error", err, "page_id", p.ID)
		a.renderPageForm(w, r, p, false, tab, "Failed to save page. Please try again.")
		return
	}

	a.invalidatePages(ctx, "page updated", p.ID)
	slog.Info("page updated", "page_id", p.ID, "live", p.Live)
	http.Redirect(w, r, "/admin/pages/"+p.ID.String()+"?tab="+tab, http.StatusSeeOther)
}

// PageDelete removes a page and its descendants.
func (a *Admin) PageDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	if err := a.stores.Pages.Delete(ctx, p.ID); err != nil {
		slog.Error("delete page failed", "error", err, "page_id", p.ID)
		http.Error(w, "Failed to delete page", http.StatusInternalServerError)
		return
	}
	if p.SocialImageKey != nil && a.storageClient != nil {
		if err := a.storageClient.Delete(ctx, *p.SocialImageKey); err != nil {
			slog.Warn("delete social image failed", "error", err, "key", *p.SocialImageKey)
		}
	}

	a.invalidatePages(ctx, "page deleted", p.ID)
	slog.Info("page deleted", "page_id", p.ID)
	http.Redirect(w, r, "/admin/pages?locale="+p.Locale, http.StatusSeeOther)
}

// PageImageUpload stores a social sharing image for the page in S3 and
// replaces any previous one.
func (a *Admin) PageImageUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	if a.storageClient == nil {
		a.renderPageForm(w, r, p, false, "promote", "Image uploads are disabled: object storage is not configured.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageSize+1<<20)
	file, header, err := r.FormFile("image")
	if err != nil {
		a.renderPageForm(w, r, p, false, "promote", "Please choose an image up to 5 MB.")
		return
	}
	defer file.Close()

	if header.Size > storage.MaxImageSize {
		a.renderPageForm(w, r, p, false, "promote", "Image is too large (max 5 MB).")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, storage.MaxImageSize+1))
	if err != nil || int64(len(data)) > storage.MaxImageSize {
		a.renderPageForm(w, r, p, false, "promote", "Image is too large (max 5 MB).")
		return
	}
	contentType, ext, err := storage.SniffImage(data)
	if err != nil {
		a.renderPageForm(w, r, p, false, "promote", "Unsupported image type. Use JPEG, PNG, GIF or WebP.")
		return
	}

	key := storage.SocialImageKey(p.ID, ext)
	if err := a.storageClient.Upload(ctx, key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		slog.Error("upload social image failed", "error", err, "page_id", p.ID)
		a.renderPageForm(w, r, p, false, "promote", "Failed to upload image. Please try again.")
		return
	}
	if err := a.stores.Pages.SetSocialImage(ctx, p.ID, &key); err != nil {
		slog.Error("save social image failed", "error", err, "page_id", p.ID)
		a.renderPageForm(w, r, p, false, "promote", "Failed to save image. Please try again.")
		return
	}
	if p.SocialImageKey != nil {
		if err := a.storageClient.Delete(ctx, *p.SocialImageKey); err != nil {
			slog.Warn("delete old social image failed", "error", err, "key", *p.SocialImageKey)
		}
	}

	a.invalidatePages(ctx, "social image uploaded", p.ID)
	slog.Info("social image uploaded", "page_id", p.ID, "key", key, "size", len(data))
	http.Redirect(w, r, "/admin/pages/"+p.ID.String()+"?tab=promote", http.StatusSeeOther)
}

// PageImageDelete clears the page's social image.
func (a *Admin) PageImageDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	if p.SocialImageKey != nil {
		if err := a.stores.Pages.SetSocialImage(ctx, p.ID, nil); err != nil {
			slog.Error("clear social image failed", "error", err, "page_id", p.ID)
			http.Error(w, "Failed to remove image", http.StatusInternalServerError)
			return
		}
		if a.storageClient != nil {
			if err := a.storageClient.Delete(ctx, *p.SocialImageKey); err != nil {
				slog.Warn("delete social image failed", "error", err, "key", *p.SocialImageKey)
			}
		}
		a.invalidatePages(ctx, "social image removed", p.ID)
	}
	http.Redirect(w, r, "/admin/pages/"+p.ID.String()+"?tab=promote", http.StatusSeeOther)
}

// loadPage fetches the page named by the {id} URL parameter, writing a 404
// when it does not exist.
func (a *Admin) loadPage(w http.ResponseWriter, r *http.Request) (*models.Page, bool) {
	id, ok := urlID(r)
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	p, err := a.stores.Pages.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find page failed", "error", err, "page_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if p == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return p, true
}

// applyPageForm copies the editable form fields onto p. Fields of the tab
// that was not submitted keep their current values.
func applyPageForm(r *http.Request, p *models.Page) {
	if r.FormValue("tab") == "promote" {
		p.Intro = optional(strings.TrimSpace(r.FormValue("intro")))
		p.SEOTitle = optional(strings.TrimSpace(r.FormValue("seo_title")))
		p.SearchDescription = optional(strings.TrimSpace(r.FormValue("search_description")))
		return
	}

	p.Title = strings.TrimSpace(r.FormValue("title"))
	p.Slug = strings.TrimSpace(r.FormValue("slug"))
	p.Body = r.FormValue("body")
	p.BodyFormat = models.BodyFormat(r.FormValue("body_format"))
	if p.BodyFormat != models.BodyFormatHTML {
		p.BodyFormat = models.BodyFormatMarkdown
	}
	p.Live = r.FormValue("live") == "on"
	p.CategoryID = nil
	if p.IsArticle() {
		p.CategoryID = optionalID(r.FormValue("category_id"))
	}
}

// checkPage validates p and fills in a generated slug. It returns a form
// error message, or "" when p can be saved.
func (a *Admin) checkPage(ctx context.Context, p *models.Page) string {
	if !p.Type.Valid() {
		return "Please choose a page type."
	}
	if msg := validatePage(p.Title, p.Slug, p.Body); msg != "" {
		return msg
	}
	if msg := validatePromote(deref(p.Intro), deref(p.SEOTitle), deref(p.SearchDescription)); msg != "" {
		return msg
	}
	if p.Slug == "" {
		p.Slug = slug.Generate(p.Title)
		if p.Slug == "" {
			return "Could not generate a slug from the title; please enter one."
		}
	}

	if p.ParentID == nil {
		if p.IsArticle() {
			return "Articles need a parent page."
		}
	} else {
		parent, err := a.stores.Pages.FindByID(ctx, *p.ParentID)
		if err != nil {
			slog.Error("find parent page failed", "error", err)
			return "Failed to load the parent page."
		}
		if parent == nil || parent.IsArticle() {
			return "Please choose a valid parent page."
		}
		if parent.ID == p.ID {
			return "A page cannot be its own parent."
		}
		// Articles are routed by their index; the tree never descends
		// into one.
		if p.IsArticle() && !parent.IsIndex() {
			return "Articles must be placed directly under an article index."
		}
		if !p.IsArticle() && parent.IsIndex() {
			return "Only articles can be placed under an article index."
		}
		p.Locale = parent.Locale
	}

	if p.CategoryID != nil {
		cat, err := a.stores.Categories.FindByID(ctx, *p.CategoryID)
		if err != nil {
			slog.Error("find category failed", "error", err)
			return "Failed to load the category."
		}
		if cat == nil || cat.Locale != p.Locale {
			return "Please choose a category in the page's language."
		}
	}
	if p.Locale == "" {
		return "Please choose a language."
	}

	if p.IsArticle() && p.CategoryID == nil {
		cat, err := a.stores.Categories.FindBySlug(ctx, p.Locale, p.Slug)
		if err != nil {
			slog.Error("find category by slug failed", "error", err)
			return "Failed to check the slug against categories."
		}
		if cat != nil {
			return fmt.Sprintf("The category %q uses this slug. Choose another slug or assign a category.", cat.Name)
		}
	}
	return ""
}

// pageConflict maps unique violations onto form errors.
func pageConflict(err error) string {
	switch {
	case store.IsUniqueViolation(err, store.PageParentSlugKey):
		return "A page with this slug already exists under the same parent."
	case store.IsUniqueViolation(err, store.PageTranslationKey):
		return "This page already has a translation in that language."
	case store.IsUniqueViolation(err, ""):
		return "This page conflicts with an existing page."
	}
	return ""
}

// renderPageForm renders the page form with its select options.
func (a *Admin) renderPageForm(w http.ResponseWriter, r *http.Request, p *models.Page, isNew bool, tab, errMsg string) {
	ctx := r.Context()

	locales, err := a.stores.Locales.List(ctx)
	if err != nil {
		slog.Error("list locales failed", "error", err)
	}
	parents, err := a.stores.Pages.ListStructural(ctx, p.Locale, false)
	if err != nil {
		slog.Error("list parent pages failed", "error", err)
	}
	categories, err := a.stores.Categories.ListByLocale(ctx, p.Locale)
	if err != nil {
		slog.Error("list categories failed", "error", err)
	}

	title := "Edit Page"
	if isNew {
		title = "New Page"
	}
	var imageURL string
	if p.SocialImageKey != nil {
		imageURL = a.storageClient.FileURL(*p.SocialImageKey)
	}

	a.renderer.Page(w, r, "page_form", &render.PageData{
		Title:   title,
		Section: "pages",
		Data: map[string]any{
			"Page":       p,
			"IsNew":      isNew,
			"Tab":        tab,
			"Types":      pageTypes,
			"Parents":    parents,
			"Categories": categories,
			"Locales":    locales,
			"ImageURL":   imageURL,
			"StorageOn":  a.storageClient != nil,
			"Error":      errMsg,
		},
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
