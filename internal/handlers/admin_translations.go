package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"starling/internal/models"
	"starling/internal/render"
)

var (
	errTranslationExists   = errors.New("translation already exists")
	errParentNotTranslated = errors.New("parent page has no translation in the target locale")
	errSameLocale          = errors.New("source is already in the target locale")
)

// pageTranslator is the part of the page store that translatePage uses.
type pageTranslator interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Page, error)
	FindTranslation(ctx context.Context, translationKey uuid.UUID, locale string) (*models.Page, error)
	Create(ctx context.Context, p *models.Page) (*models.Page, error)
}

// categoryTranslator is the part of the category store that the
// translation helpers use.
type categoryTranslator interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindTranslation(ctx context.Context, translationKey uuid.UUID, locale string) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
}

// translatePage creates a draft copy of src in locale, placed under the
// translation of src's parent. A locale root (no parent) stays a root.
// An article's category is replaced by its translation in locale, or
// cleared when there is none.
func translatePage(ctx context.Context, pages pageTranslator, cats categoryTranslator, src *models.Page, locale string) (*models.Page, error) {
	if src.Locale == locale {
		return nil, errSameLocale
	}
	existing, err := pages.FindTranslation(ctx, src.TranslationKey, locale)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errTranslationExists
	}

	var parentID *uuid.UUID
	if src.ParentID != nil {
		parent, err := pages.FindByID(ctx, *src.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, errParentNotTranslated
		}
		target, err := pages.FindTranslation(ctx, parent.TranslationKey, locale)
		if err != nil {
			return nil, err
		}
		if target == nil {
			return nil, errParentNotTranslated
		}
		parentID = &target.ID
	}

	var categoryID *uuid.UUID
	if src.IsArticle() && src.CategoryID != nil {
		cat := src.Category
		if cat == nil {
			if cat, err = cats.FindByID(ctx, *src.CategoryID); err != nil {
				return nil, err
			}
		}
		if cat != nil {
			target, err := cats.FindTranslation(ctx, cat.TranslationKey, locale)
			if err != nil {
				return nil, err
			}
			if target != nil {
				categoryID = &target.ID
			}
		}
	}

	created, err := pages.Create(ctx, src.TranslationCopy(locale, parentID, categoryID))
	if err != nil {
		return nil, fmt.Errorf("translate page: %w", err)
	}
	return created, nil
}

// translateCategory copies src into locale, keeping its slug and
// translation key.
func translateCategory(ctx context.Context, cats categoryTranslator, src *models.Category, locale string) (*models.Category, error) {
	if src.Locale == locale {
		return nil, errSameLocale
	}
	existing, err := cats.FindTranslation(ctx, src.TranslationKey, locale)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errTranslationExists
	}
	created, err := cats.Create(ctx, &models.Category{
		Locale:         locale,
		TranslationKey: src.TranslationKey,
		Name:           src.Name,
		Slug:           src.Slug,
		Description:    src.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("translate category: %w", err)
	}
	return created, nil
}

// translationRow is one locale on a translations tab. Link is empty when
// the locale has no translation yet.
type translationRow struct {
	Locale models.Locale
	Title  string
	Link   string
	Live   bool
}

// PageTranslations renders the translations tab of a page.
func (a *Admin) PageTranslations(w http.ResponseWriter, r *http.Request) {
	p, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	a.renderPageTranslations(w, r, p, "")
}

// PageTranslate creates a translation of a page in the posted locale and
// opens it in the editor.
func (a *Admin) PageTranslate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := a.loadPage(w, r)
	if !ok {
		return
	}
	locale, ok := a.postedLocale(r)
	if !ok {
		a.renderPageTranslations(w, r, p, "Please choose a language.")
		return
	}

	created, err := translatePage(ctx, a.stores.Pages, a.stores.Categories, p, locale)
	if err != nil {
		a.renderPageTranslations(w, r, p, translationError(err, "page"))
		return
	}

	a.invalidatePages(ctx, "page translated", created.ID)
	slog.Info("page translated", "source_id", p.ID, "page_id", created.ID, "locale", locale)
	http.Redirect(w, r, "/admin/pages/"+created.ID.String(), http.StatusSeeOther)
}

func (a *Admin) renderPageTranslations(w http.ResponseWriter, r *http.Request, p *models.Page, errMsg string) {
	ctx := r.Context()
	existing, err := a.stores.Pages.ListTranslations(ctx, p.TranslationKey)
	if err != nil {
		slog.Error("list page translations failed", "error", err, "page_id", p.ID)
	}
	byLocale := make(map[string]*models.Page, len(existing))
	for _, t := range existing {
		byLocale[t.Locale] = t
	}

	rows, err := a.translationRows(ctx, p.Locale, func(code string) (string, string, bool) {
		t, ok := byLocale[code]
		if !ok {
			return "", "", false
		}
		return t.Title, "/admin/pages/" + t.ID.String(), t.Live
	})
	if err != nil {
		slog.Error("list locales failed", "error", err)
	}

	a.renderer.Page(w, r, "translations", &render.PageData{
		Title:   "Translations",
		Section: "pages",
		Data: map[string]any{
			"Kind":      "page",
			"Name":      p.Title,
			"Source":    p.Locale,
			"BackURL":   "/admin/pages/" + p.ID.String(),
			"ActionURL": "/admin/pages/" + p.ID.String() + "/translations",
			"Rows":      rows,
			"Error":     errMsg,
		},
	})
}

// CategoryTranslations renders the translations tab of a category.
func (a *Admin) CategoryTranslations(w http.ResponseWriter, r *http.Request) {
	c, ok := a.loadCategory(w, r)
	if !ok {
		return
	}
	a.renderCategoryTranslations(w, r, c, "")
}

// CategoryTranslate creates a translation of a category in the posted
// locale.
func (a *Admin) CategoryTranslate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, ok := a.loadCategory(w, r)
	if !ok {
		return
	}
	locale, ok := a.postedLocale(r)
	if !ok {
		a.renderCategoryTranslations(w, r, c, "Please choose a language.")
		return
	}

	if msg := a.categorySlugClash(ctx, locale, c.Slug); msg != "" {
		a.renderCategoryTranslations(w, r, c, msg)
		return
	}

	created, err := translateCategory(ctx, a.stores.Categories, c, locale)
	if err != nil {
		a.renderCategoryTranslations(w, r, c, translationError(err, "category"))
		return
	}

	a.invalidatePages(ctx, "category translated", created.ID)
	slog.Info("category translated", "source_id", c.ID, "category_id", created.ID, "locale", locale)
	http.Redirect(w, r, "/admin/categories/"+created.ID.String(), http.StatusSeeOther)
}

func (a *Admin) renderCategoryTranslations(w http.ResponseWriter, r *http.Request, c *models.Category, errMsg string) {
	ctx := r.Context()
	existing, err := a.stores.Categories.ListTranslations(ctx, c.TranslationKey)
	if err != nil {
		slog.Error("list category translations failed", "error", err, "category_id", c.ID)
	}
	byLocale := make(map[string]*models.Category, len(existing))
	for _, t := range existing {
		byLocale[t.Locale] = t
	}

	rows, err := a.translationRows(ctx, c.Locale, func(code string) (string, string, bool) {
		t, ok := byLocale[code]
		if !ok {
			return "", "", false
		}
		return t.Name, "/admin/categories/" + t.ID.String(), true
	})
	if err != nil {
		slog.Error("list locales failed", "error", err)
	}

	a.renderer.Page(w, r, "translations", &render.PageData{
		Title:   "Translations",
		Section: "categories",
		Data: map[string]any{
			"Kind":      "category",
			"Name":      c.Name,
			"Source":    c.Locale,
			"BackURL":   "/admin/categories/" + c.ID.String(),
			"ActionURL": "/admin/categories/" + c.ID.String() + "/translations",
			"Rows":      rows,
			"Error":     errMsg,
		},
	})
}

// translationRows lists every locale except source. lookup returns the
// title, edit link and live flag of the translation in a locale.
func (a *Admin) translationRows(ctx context.Context, source string, lookup func(code string) (string, string, bool)) ([]translationRow, error) {
	locales, err := a.stores.Locales.List(ctx)
	if err != nil {
		return nil, err
	}
	var rows []translationRow
	for _, l := range locales {
		if l.Code == source {
			continue
		}
		title, link, live := lookup(l.Code)
		rows = append(rows, translationRow{Locale: l, Title: title, Link: link, Live: live})
	}
	return rows, nil
}

// postedLocale returns the enabled locale named by the "locale" form value.
func (a *Admin) postedLocale(r *http.Request) (string, bool) {
	locales, err := a.stores.Locales.List(r.Context())
	if err != nil {
		slog.Error("list locales failed", "error", err)
		return "", false
	}
	l, ok := locales.Find(r.FormValue("locale"))
	return l.Code, ok
}

// translationError turns a translation failure into a form message.
func translationError(err error, kind string) string {
	switch {
	case errors.Is(err, errSameLocale):
		return "The " + kind + " is already in that language."
	case errors.Is(err, errTranslationExists):
		return "A translation in that language already exists."
	case errors.Is(err, errParentNotTranslated):
		return "Translate the parent page into that language first."
	}
	if kind == "page" {
		if msg := pageConflict(err); msg != "" {
			return msg
		}
	} else if msg := categoryConflict(err); msg != "" {
		return msg
	}
	slog.Error("create translation failed", "error", err, "kind", kind)
	return "Failed to create the translation. Please try again."
}
