package store

import (
	"context"

	"github.com/google/uuid"

	"starling/internal/models"
)

// Catalog exposes the page and category stores as the read model used to
// route paths beneath article indexes.
type Catalog struct {
	Pages      *PageStore
	Categories *CategoryStore
}

func (c Catalog) FindCategoryBySlug(ctx context.Context, locale, slug string) (*models.Category, error) {
	return c.Categories.FindBySlug(ctx, locale, slug)
}

func (c Catalog) FindLiveArticle(ctx context.Context, indexID uuid.UUID, slug string, categorySlug *string) (*models.Page, error) {
	return c.Pages.FindLiveArticle(ctx, indexID, slug, categorySlug)
}

func (c Catalog) CountLiveArticles(ctx context.Context, indexID uuid.UUID, categoryID *uuid.UUID) (int, error) {
	return c.Pages.CountLiveArticles(ctx, indexID, categoryID)
}

func (c Catalog) ListLiveArticles(ctx context.Context, indexID uuid.UUID, categoryID *uuid.UUID, limit, offset int) ([]*models.Page, error) {
	return c.Pages.ListLiveArticles(ctx, indexID, categoryID, limit, offset)
}

func (c Catalog) CategoriesInUse(ctx context.Context, indexID uuid.UUID) ([]*models.Category, error) {
	return c.Categories.ListInUse(ctx, indexID)
}
