// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"starling/internal/models"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, locale, translation_key, name, slug, description, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.Locale, &c.TranslationKey, &c.Name, &c.Slug, &c.Description,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CategoryStore) queryOne(ctx context.Context, what, query string, args ...any) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return c, nil
}

// ListByLocale returns the categories of a locale ordered by name, with
// the number of articles (live or not) assigned to each.
func (s *CategoryStore) ListByLocale(ctx context.Context, locale string) ([]*models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.locale, c.translation_key, c.name, c.slug, c.description,
		       c.created_at, c.updated_at,
		       COUNT(p.id) AS article_count
		FROM categories c
		LEFT JOIN pages p ON p.category_id = c.id
		WHERE c.locale = $1
		GROUP BY c.id
		ORDER BY c.name`, locale)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []*models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(
			&c.ID, &c.Locale, &c.TranslationKey, &c.Name, &c.Slug, &c.Description,
			&c.CreatedAt, &c.UpdatedAt, &c.ArticleCount,
		); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, &c)
	}
	return items, rows.Err()
}

// ListInUse returns the categories that have at least one live article
// beneath indexID, ordered by name.
func (s *CategoryStore) ListInUse(ctx context.Context, indexID uuid.UUID) ([]*models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories c
		WHERE EXISTS (
			SELECT 1 FROM pages p
			WHERE p.category_id = c.id AND p.parent_id = $1
			  AND p.type = 'article' AND p.live
		)
		ORDER BY c.name`, indexID)
	if err != nil {
		return nil, fmt.Errorf("list categories in use: %w", err)
	}
	defer rows.Close()

	var items []*models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return s.queryOne(ctx, "find category by id",
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
}

// FindBySlug retrieves a category by slug within a locale.
func (s *CategoryStore) FindBySlug(ctx context.Context, locale, slug string) (*models.Category, error) {
	return s.queryOne(ctx, "find category by slug",
		`SELECT `+categoryColumns+` FROM categories WHERE locale = $1 AND slug = $2`, locale, slug)
}

// FindTranslation returns the translation of a category in locale, or nil.
func (s *CategoryStore) FindTranslation(ctx context.Context, translationKey uuid.UUID, locale string) (*models.Category, error) {
	return s.queryOne(ctx, "find category translation",
		`SELECT `+categoryColumns+` FROM categories WHERE translation_key = $1 AND locale = $2`,
		translationKey, locale)
}

// ListTranslations returns every category sharing translationKey.
func (s *CategoryStore) ListTranslations(ctx context.Context, translationKey uuid.UUID) ([]*models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.locale, c.translation_key, c.name, c.slug, c.description, c.created_at, c.updated_at
		FROM categories c
		JOIN locales l ON l.code = c.locale
		WHERE c.translation_key = $1
		ORDER BY l.sort_order, l.code`, translationKey)
	if err != nil {
		return nil, fmt.Errorf("list category translations: %w", err)
	}
	defer rows.Close()

	var items []*models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// Count returns the number of categories across all locales.
func (s *CategoryStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

// Create inserts a new category and returns it. A zero TranslationKey
// starts a new translation group.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	if c.TranslationKey == uuid.Nil {
		c.TranslationKey = uuid.New()
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (locale, translation_key, name, slug, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+categoryColumns,
		c.Locale, c.TranslationKey, c.Name, c.Slug, c.Description,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// Update modifies an existing category.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE categories SET
			name = $1, slug = $2, description = $3, updated_at = NOW()
		WHERE id = $4
	`, c.Name, c.Slug, c.Description, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes a category by ID. Its articles become uncategorized
// (ON DELETE SET NULL).
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
