// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package routing resolves the URL paths beneath an article index into a
// listing (optionally filtered by category) or a single article, and
// computes the canonical path of every article.
//
// Paths beneath an index have one of these shapes:
//
//	/<index>/                     listing of every live article
//	/<index>/<category>/          listing filtered to a category
//	/<index>/<article>/           uncategorized article
//	/<index>/<category>/<article>/ categorized article
//
// A single component is tried as a category first, so a category slug
// shadows an uncategorized article with the same slug.
package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"starling/internal/models"
	"starling/internal/pagetree"
	"starling/internal/paginate"
)

// ErrNotFound is returned when a path beneath an index does not resolve.
var ErrNotFound = errors.New("not found")

// DefaultPerPage is used when the request carries no positive page size.
const DefaultPerPage = 10

var tracer = otel.Tracer("starling/routing")

// Catalog is the read side of the content store the resolver needs. All
// article lookups only consider live articles that are direct children of
// the index.
type Catalog interface {
	// FindCategoryBySlug returns the category with slug in locale, or nil.
	FindCategoryBySlug(ctx context.Context, locale, slug string) (*models.Category, error)
	// FindLiveArticle returns the article with slug under indexID. A nil
	// categorySlug matches only uncategorized articles; otherwise the
	// article's category must have that slug. Returns nil when none match.
	FindLiveArticle(ctx context.Context, indexID uuid.UUID, slug string, categorySlug *string) (*models.Page, error)
	// CountLiveArticles counts articles under indexID, optionally filtered
	// to one category.
	CountLiveArticles(ctx context.Context, indexID uuid.UUID, categoryID *uuid.UUID) (int, error)
	// ListLiveArticles returns one page of articles newest first.
	ListLiveArticles(ctx context.Context, indexID uuid.UUID, categoryID *uuid.UUID, limit, offset int) ([]*models.Page, error)
	// CategoriesInUse returns the categories of at least one live article
	// under indexID, ordered by name.
	CategoriesInUse(ctx context.Context, indexID uuid.UUID) ([]*models.Category, error)
}

// Request is a path beneath an article index.
type Request struct {
	Index      *models.Page
	Components []string
	PageParam  string // raw "page" query value
	PerPage    int
}

// Listing is the context of a paginated article listing.
type Listing struct {
	Index      *models.Page
	Articles   []*models.Page
	Paginator  *paginate.Paginator
	Categories []*models.Category
	Category   *models.Category // nil when unfiltered
}

// Context returns the listing as template context values.
func (l *Listing) Context() map[string]any {
	return map[string]any{
		"articles":   l.Articles,
		"paginator":  l.Paginator,
		"categories": l.Categories,
		"category":   l.Category,
	}
}

// Result holds exactly one of Article or Listing.
type Result struct {
	Article  *models.Page
	Listing  *Listing
	Category *models.Category // the article's category on detail results
}

// Resolver routes paths beneath article indexes.
type Resolver struct {
	catalog Catalog
}

// NewResolver creates a resolver reading from catalog.
func NewResolver(catalog Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Route resolves req. It returns ErrNotFound for unknown paths and for
// invalid page numbers; any other error comes from the catalog.
func (r *Resolver) Route(ctx context.Context, req Request) (_ *Result, err error) {
	ctx, span := tracer.Start(ctx, "routing.Route")
	span.SetAttributes(
		attribute.String("index.slug", req.Index.Slug),
		attribute.Int("components", len(req.Components)),
	)
	defer func() {
		if err != nil && !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	switch len(req.Components) {
	case 0:
		return r.listing(ctx, req, nil)

	case 1:
		s := req.Components[0]
		cat, err := r.catalog.FindCategoryBySlug(ctx, req.Index.Locale, s)
		if err != nil {
			return nil, fmt.Errorf("route category %q: %w", s, err)
		}
		if cat != nil {
			return r.listing(ctx, req, cat)
		}
		return r.article(ctx, req.Index, s, nil)

	case 2:
		c := req.Components[0]
		return r.article(ctx, req.Index, req.Components[1], &c)
	}
	return nil, ErrNotFound
}

func (r *Resolver) article(ctx context.Context, index *models.Page, slug string, categorySlug *string) (*Result, error) {
	a, err := r.catalog.FindLiveArticle(ctx, index.ID, slug, categorySlug)
	if err != nil {
		return nil, fmt.Errorf("route article %q: %w", slug, err)
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return &Result{Article: a, Category: a.Category}, nil
}

func (r *Resolver) listing(ctx context.Context, req Request, cat *models.Category) (*Result, error) {
	number, err := paginate.ParseNumber(req.PageParam)
	if err != nil {
		return nil, ErrNotFound
	}
	perPage := req.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	var catID *uuid.UUID
	if cat != nil {
		catID = &cat.ID
	}

	var (
		total      int
		categories []*models.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.catalog.CountLiveArticles(gctx, req.Index.ID, catID)
		if err != nil {
			return fmt.Errorf("count articles: %w", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		cs, err := r.catalog.CategoriesInUse(gctx, req.Index.ID)
		if err != nil {
			return fmt.Errorf("categories in use: %w", err)
		}
		categories = cs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pager, err := paginate.New(total, perPage, number)
	if err != nil {
		return nil, ErrNotFound
	}

	var articles []*models.Page
	if total > 0 {
		articles, err = r.catalog.ListLiveArticles(ctx, req.Index.ID, catID, perPage, pager.Offset())
		if err != nil {
			return nil, fmt.Errorf("list articles: %w", err)
		}
	}

	return &Result{Listing: &Listing{
		Index:      req.Index,
		Articles:   articles,
		Paginator:  pager,
		Categories: categories,
		Category:   cat,
	}}, nil
}

// ArticlePath returns the URL path of an article. Under an article index
// the category slug, when set, sits between the index path and the
// article slug. Articles outside an index use the plain tree path.
func ArticlePath(tree *pagetree.Tree, a *models.Page) string {
	var parent *pagetree.Node
	if a.ParentID != nil {
		parent = tree.Find(*a.ParentID)
	}
	if parent == nil {
		return tree.Prefix() + "/" + a.Slug + "/"
	}
	if parent.Page.IsIndex() && a.CategorySlug() != "" {
		return parent.Path + a.CategorySlug() + "/" + a.Slug + "/"
	}
	return parent.Path + a.Slug + "/"
}

// ListingPath returns the URL path of an index listing, filtered to cat
// when it is not nil.
func ListingPath(indexPath string, cat *models.Category) string {
	if cat == nil {
		return indexPath
	}
	return indexPath + cat.Slug + "/"
}
