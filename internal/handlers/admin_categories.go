package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"starling/internal/models"
	"starling/internal/render"
	"starling/internal/slug"
	"starling/internal/store"
)

// CategoriesList shows the categories of one locale with their article
// counts.
func (a *Admin) CategoriesList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locales, err := a.stores.Locales.List(ctx)
	if err != nil {
		slog.Error("list locales failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	locale := selectedLocale(r, locales)

	categories, err := a.stores.Categories.ListByLocale(ctx, locale.Code)
	if err != nil {
		slog.Error("list categories failed", "error", err, "locale", locale.Code)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "categories_list", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Data: map[string]any{
			"Categories": categories,
			"Locale":     locale,
			"Locales":    locales,
		},
	})
}

// CategoryNew renders the empty category form.
func (a *Admin) CategoryNew(w http.ResponseWriter, r *http.Request) {
	locales, err := a.stores.Locales.List(r.Context())
	if err != nil {
		slog.Error("list locales failed", "error", err)
	}
	c := &models.Category{Locale: selectedLocale(r, locales).Code}
	a.renderCategoryForm(w, r, c, true, "")
}

// CategoryCreate handles the category creation form submission.
func (a *Admin) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c := &models.Category{Locale: r.FormValue("locale")}
	applyCategoryForm(r, c)

	locales, err := a.stores.Locales.List(ctx)
	if err != nil {
		slog.Error("list locales failed", "error", err)
	}
	if _, ok := locales.Find(c.Locale); !ok {
		a.renderCategoryForm(w, r, c, true, "Please choose a language.")
		return
	}
	if msg := checkCategory(c); msg != "" {
		a.renderCategoryForm(w, r, c, true, msg)
		return
	}
	if msg := a.categorySlugClash(ctx, c.Locale, c.Slug); msg != "" {
		a.renderCategoryForm(w, r, c, true, msg)
		return
	}

	created, err := a.stores.Categories.Create(ctx, c)
	if err != nil {
		if msg := categoryConflict(err); msg != "" {
			a.renderCategoryForm(w, r, c, true, msg)
			return
		}
		slog.Error("create category failed", "error", err)
		a.renderCategoryForm(w, r, c, true, "Failed to create category. Please try again.")
		return
	}

	a.invalidatePages(ctx, "category created", created.ID)
	slog.Info("category created", "category_id", created.ID, "locale", created.Locale)
	http.Redirect(w, r, "/admin/categories?locale="+created.Locale, http.StatusSeeOther)
}

// CategoryEdit renders the edit form for an existing category.
func (a *Admin) CategoryEdit(w http.ResponseWriter, r *http.Request) {
	c, ok := a.loadCategory(w, r)
	if !ok {
		return
	}
	a.renderCategoryForm(w, r, c, false, "")
}

// CategoryUpdate handles the category edit form submission. Articles use
// the new slug in their URLs immediately.
func (a *Admin) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, ok := a.loadCategory(w, r)
	if !ok {
		return
	}
	applyCategoryForm(r, c)
	if msg := checkCategory(c); msg != "" {
		a.renderCategoryForm(w, r, c, false, msg)
		return
	}
	if msg := a.categorySlugClash(ctx, c.Locale, c.Slug); msg != "" {
		a.renderCategoryForm(w, r, c, false, msg)
		return
	}

	if err := a.stores.Categories.Update(ctx, c); err != nil {
		if msg := categoryConflict(err); msg != "" {
			a.renderCategoryForm(w, r, c, false, msg)
			return
		}
		slog.Error("update category failed", "error", err, "category_id", c.ID)
		a.renderCategoryForm(w, r, c, false, "Failed to save category. Please try again.")
		return
	}

	a.invalidatePages(ctx, "category updated", c.ID)
	slog.Info("category updated", "category_id", c.ID)
	http.Redirect(w, r, "/admin/categories?locale="+c.Locale, http.StatusSeeOther)
}

// CategoryDelete removes a category. Its articles become uncategorized.
func (a *Admin) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, ok := a.loadCategory(w, r)
	if !ok {
		return
	}
	if err := a.stores.Categories.Delete(ctx, c.ID); err != nil {
		slog.Error("delete category failed", "error", err, "category_id", c.ID)
		http.Error(w, "Failed to delete category", http.StatusInternalServerError)
		return
	}

	a.invalidatePages(ctx, "category deleted", c.ID)
	slog.Info("category deleted", "category_id", c.ID)
	http.Redirect(w, r, "/admin/categories?locale="+c.Locale, http.StatusSeeOther)
}

func (a *Admin) loadCategory(w http.ResponseWriter, r *http.Request) (*models.Category, bool) {
	id, ok := urlID(r)
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	c, err := a.stores.Categories.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find category failed", "error", err, "category_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if c == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return c, true
}

func applyCategoryForm(r *http.Request, c *models.Category) {
	c.Name = strings.TrimSpace(r.FormValue("name"))
	c.Slug = strings.TrimSpace(r.FormValue("slug"))
	c.Description = strings.TrimSpace(r.FormValue("description"))
}

// checkCategory validates c and generates its slug from the name when
// the slug was left empty.
func checkCategory(c *models.Category) string {
	if msg := validateCategory(c.Name, c.Slug, c.Description); msg != "" {
		return msg
	}
	if c.Slug == "" {
		c.Slug = slug.Generate(c.Name)
		if c.Slug == "" {
			return "Could not generate a slug from the name; please enter one."
		}
	}
	return ""
}

// categorySlugClash returns a form error when an uncategorized article
// beneath an index of locale already answers to slug.
func (a *Admin) categorySlugClash(ctx context.Context, locale, catSlug string) string {
	inUse, err := a.stores.Pages.UncategorizedArticleSlugInUse(ctx, locale, catSlug)
	if err != nil {
		slog.Error("check category slug failed", "error", err, "slug", catSlug)
		return "Failed to check the slug against articles."
	}
	if inUse {
		return "An uncategorized article already uses this slug. Choose another slug."
	}
	return ""
}

// categoryConflict maps unique violations onto form errors.
func categoryConflict(err error) string {
	switch {
	case store.IsUniqueViolation(err, store.CategoryLocaleSlugKey):
		return "A category with this slug already exists."
	case store.IsUniqueViolation(err, store.CategoryLocaleNameKey):
		return "A category with this name already exists."
	case store.IsUniqueViolation(err, store.CategoryTranslationKey):
		return "This category already has a translation in that language."
	case store.IsUniqueViolation(err, ""):
		return "This category conflicts with an existing one."
	}
	return ""
}

func (a *Admin) renderCategoryForm(w http.ResponseWriter, r *http.Request, c *models.Category, isNew bool, errMsg string) {
	locales, err := a.stores.Locales.List(r.Context())
	if err != nil {
		slog.Error("list locales failed", "error", err)
	}
	title := "Edit Category"
	if isNew {
		title = "New Category"
	}
	a.renderer.Page(w, r, "category_form", &render.PageData{
		Title:   title,
		Section: "categories",
		Data: map[string]any{
			"Category": c,
			"IsNew":    isNew,
			"Locales":  locales,
			"Error":    errMsg,
		},
	})
}
