// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"starling/internal/models"
)

// PageStore handles page queries. Every page read joins its category so
// models.Page.CategorySlug is always available for URL computation.
type PageStore struct {
	db *sql.DB
}

// NewPageStore creates a new PageStore with the given database connection.
func NewPageStore(db *sql.DB) *PageStore {
	return &PageStore{db: db}
}

const pageSelect = `
	SELECT p.id, p.parent_id, p.locale, p.translation_key, p.type, p.title, p.slug,
	       p.live, p.seo_title, p.search_description, p.intro, p.body, p.body_format,
	       p.category_id, p.social_image_key, p.first_published_at, p.created_at, p.updated_at,
	       c.id, c.locale, c.translation_key, c.name, c.slug, c.description, c.created_at, c.updated_at
	FROM pages p
	LEFT JOIN categories c ON c.id = p.category_id`

// articleOrder is the listing order: newest first, undated last.
const articleOrder = `ORDER BY p.first_published_at DESC NULLS LAST, p.id DESC`

// scanPage scans a row produced by pageSelect.
func scanPage(scanner interface{ Scan(...any) error }) (*models.Page, error) {
	var (
		p                            models.Page
		cID, cKey                    *uuid.UUID
		cLocale, cName, cSlug, cDesc *string
		cCreated, cUpdated           *time.Time
	)
	err := scanner.Scan(
		&p.ID, &p.ParentID, &p.Locale, &p.TranslationKey, &p.Type, &p.Title, &p.Slug,
		&p.Live, &p.SEOTitle, &p.SearchDescription, &p.Intro, &p.Body, &p.BodyFormat,
		&p.CategoryID, &p.SocialImageKey, &p.FirstPublishedAt, &p.CreatedAt, &p.UpdatedAt,
		&cID, &cLocale, &cKey, &cName, &cSlug, &cDesc, &cCreated, &cUpdated,
	)
	if err != nil {
		return nil, err
	}
	if cID != nil {
		p.Category = &models.Category{
			ID:             *cID,
			Locale:         *cLocale,
			TranslationKey: *cKey,
			Name:           *cName,
			Slug:           *cSlug,
			Description:    *cDesc,
			CreatedAt:      *cCreated,
			UpdatedAt:      *cUpdated,
		}
	}
	return &p, nil
}

func (s *PageStore) queryPages(ctx context.Context, what, query string, args ...any) ([]*models.Page, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	var pages []*models.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (s *PageStore) queryPage(ctx context.Context, what, query string, args ...any) (*models.Page, error) {
	p, err := scanPage(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return p, nil
}

// FindByID retrieves a page by its UUID. Returns nil if not found.
func (s *PageStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Page, error) {
	return s.queryPage(ctx, "find page by id", pageSelect+` WHERE p.id = $1`, id)
}

// FindTranslation returns the page with translationKey in locale, or nil.
func (s *PageStore) FindTranslation(ctx context.Context, translationKey uuid.UUID, locale string) (*models.Page, error) {
	return s.queryPage(ctx, "find page translation",
		pageSelect+` WHERE p.translation_key = $1 AND p.locale = $2`, translationKey, locale)
}

// ListTranslations returns every page sharing translationKey, in locale
// sort order.
func (s *PageStore) ListTranslations(ctx context.Context, translationKey uuid.UUID) ([]*models.Page, error) {
	return s.queryPages(ctx, "list page translations", pageSelect+`
		JOIN locales l ON l.code = p.locale
		WHERE p.translation_key = $1
		ORDER BY l.sort_order, l.code`, translationKey)
}

// ListByLocale returns every page in a locale, structural pages first.
func (s *PageStore) ListByLocale(ctx context.Context, locale string) ([]*models.Page, error) {
	return s.queryPages(ctx, "list pages", pageSelect+`
		WHERE p.locale = $1
		ORDER BY (p.type = 'article'), p.title, p.id`, locale)
}

// ListStructural returns the non-article pages of a locale. With liveOnly
// set, drafts are left out.
func (s *PageStore) ListStructural(ctx context.Context, locale string, liveOnly bool) ([]*models.Page, error) {
	return s.queryPages(ctx, "list structural pages", pageSelect+`
		WHERE p.locale = $1 AND p.type <> 'article' AND (p.live OR NOT $2)
		ORDER BY p.title, p.id`, locale, liveOnly)
}

// ListLive returns every live page of a locale, articles included.
func (s *PageStore) ListLive(ctx context.Context, locale string) ([]*models.Page, error) {
	return s.queryPages(ctx, "list live pages", pageSelect+`
		WHERE p.locale = $1 AND p.live
		ORDER BY (p.type = 'article'), p.title, p.id`, locale)
}

// ListArticles returns every article beneath an index, drafts included.
func (s *PageStore) ListArticles(ctx context.Context, indexID uuid.UUID) ([]*models.Page, error) {
	return s.queryPages(ctx, "list articles", pageSelect+`
		WHERE p.parent_id = $1 AND p.type = 'article'
		`+articleOrder, indexID)
}

// FindLiveArticle returns the live article with slug beneath indexID. A
// nil categorySlug matches only uncategorized articles; otherwise the
// article's category must carry that slug.
func (s *PageStore) FindLiveArticle(ctx context.Context, indexID uuid.UUID, slug string, categorySlug *string) (*models.Page, error) {
	q := pageSelect + `
		WHERE p.parent_id = $1 AND p.slug = $2 AND p.type = 'article' AND p.live`
	if categorySlug == nil {
		return s.queryPage(ctx, "find live article", q+` AND p.category_id IS NULL`, indexID, slug)
	}
	return s.queryPage(ctx, "find live article", q+` AND c.slug = $3`, indexID, slug, *categorySlug)
}

// UncategorizedArticleSlugInUse reports whether an uncategorized article
// directly beneath an article index in locale uses slug. Such an article
// and a category with that slug would share one URL.
func (s *PageStore) UncategorizedArticleSlugInUse(ctx context.Context, locale, slug string) (bool, error) {
	var inUse bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pages p
			JOIN pages idx ON idx.id = p.parent_id AND idx.type = 'article_index'
			WHERE p.locale = $1 AND p.slug = $2
			  AND p.type = 'article' AND p.category_id IS NULL
		)`, locale, slug).Scan(&inUse)
	if err != nil {
		return false, fmt.Errorf("check article slug %q: %w", slug, err)
	}
	return inUse, nil
}

// liveArticleFilter builds the WHERE clause shared by count and list.
func liveArticleFilter(indexID uuid.UUID, categoryID *uuid.UUID) (string, []any) {
	var b strings.Builder
	args := []any{indexID}
	b.WriteString(` WHERE p.parent_id = $1 AND p.type = 'article' AND p.live`)
	if categoryID != nil {
		args = append(args, *categoryID)
		b.WriteString(` AND p.category_id = $` + strconv.Itoa(len(args)))
	}
	return b.String(), args
}

// CountLiveArticles counts live articles beneath indexID, optionally
// limited to one category.
func (s *PageStore) CountLiveArticles(ctx context.Context, indexID uuid.UUID, categoryID *uuid.UUID) (int, error) {
	where, args := liveArticleFilter(indexID, categoryID)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages p`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count live articles: %w", err)
	}
	return n, nil
}

// ListLiveArticles returns one page of live articles beneath indexID.
func (s *PageStore) ListLiveArticles(ctx context.Context, indexID uuid.UUID, categoryID *uuid.UUID, limit, offset int) ([]*models.Page, error) {
	where, args := liveArticleFilter(indexID, categoryID)
	n := len(args)
	args = append(args, limit, offset)
	q := pageSelect + where + ` ` + articleOrder +
		` LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	return s.queryPages(ctx, "list live articles", q, args...)
}

// CountByType returns the number of pages of a type across all locales.
func (s *PageStore) CountByType(ctx context.Context, t models.PageType) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages WHERE type = $1`, t).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}

// Create inserts a page and returns it. A live page without a publication
// date gets the current time. A zero TranslationKey starts a new
// translation group.
func (s *PageStore) Create(ctx context.Context, p *models.Page) (*models.Page, error) {
	if p.Live && p.FirstPublishedAt == nil {
		now := time.Now()
		p.FirstPublishedAt = &now
	}
	if p.TranslationKey == uuid.Nil {
		p.TranslationKey = uuid.New()
	}
	if p.BodyFormat == "" {
		p.BodyFormat = models.BodyFormatMarkdown
	}

	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO pages (parent_id, locale, translation_key, type, title, slug, live,
		                   seo_title, search_description, intro, body, body_format,
		                   category_id, social_image_key, first_published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`,
		p.ParentID, p.Locale, p.TranslationKey, p.Type, p.Title, p.Slug, p.Live,
		p.SEOTitle, p.SearchDescription, p.Intro, p.Body, p.BodyFormat,
		p.CategoryID, p.SocialImageKey, p.FirstPublishedAt,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return s.FindByID(ctx, id)
}

// Update writes the editable fields of a page. Publishing for the first
// time stamps first_published_at.
func (s *PageStore) Update(ctx context.Context, p *models.Page) error {
	if p.Live && p.FirstPublishedAt == nil {
		now := time.Now()
		p.FirstPublishedAt = &now
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE pages SET
			title = $1, slug = $2, live = $3, seo_title = $4, search_description = $5,
			intro = $6, body = $7, body_format = $8, category_id = $9,
			first_published_at = $10, updated_at = NOW()
		WHERE id = $11`,
		p.Title, p.Slug, p.Live, p.SEOTitle, p.SearchDescription,
		p.Intro, p.Body, p.BodyFormat, p.CategoryID,
		p.FirstPublishedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	return nil
}

// SetSocialImage stores or clears the object key of a page's social image.
func (s *PageStore) SetSocialImage(ctx context.Context, id uuid.UUID, key *string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE pages SET social_image_key = $1, updated_at = NOW() WHERE id = $2`, key, id)
	if err != nil {
		return fmt.Errorf("set social image: %w", err)
	}
	return nil
}

// Delete removes a page and, through the foreign key, its descendants.
func (s *PageStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	return nil
}
