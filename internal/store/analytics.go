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

// AnalyticsStore persists the per-site analytics snippet settings and the
// page list their inclusion mode refers to.
type AnalyticsStore struct {
	db *sql.DB
}

// NewAnalyticsStore creates a new AnalyticsStore.
func NewAnalyticsStore(db *sql.DB) *AnalyticsStore {
	return &AnalyticsStore{db: db}
}

// Get returns the settings of a site, or nil when none were saved.
func (s *AnalyticsStore) Get(ctx context.Context, siteID uuid.UUID) (*models.AnalyticsSettings, error) {
	a := &models.AnalyticsSettings{}
	err := s.db.QueryRowContext(ctx, `
		SELECT site_id, enabled, head_code, body_code, inclusion_mode, updated_at
		FROM analytics_settings WHERE site_id = $1`, siteID,
	).Scan(&a.SiteID, &a.Enabled, &a.HeadCode, &a.BodyCode, &a.InclusionMode, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get analytics settings: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT page_id FROM analytics_pages WHERE site_id = $1`, siteID)
	if err != nil {
		return nil, fmt.Errorf("list analytics pages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan analytics page: %w", err)
		}
		a.PageIDs = append(a.PageIDs, id)
	}
	return a, rows.Err()
}

// Save upserts the settings and replaces the page list in one transaction.
func (s *AnalyticsStore) Save(ctx context.Context, a *models.AnalyticsSettings) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analytics_settings (site_id, enabled, head_code, body_code, inclusion_mode, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (site_id) DO UPDATE SET
			enabled = EXCLUDED.enabled, head_code = EXCLUDED.head_code,
			body_code = EXCLUDED.body_code, inclusion_mode = EXCLUDED.inclusion_mode,
			updated_at = EXCLUDED.updated_at`,
		a.SiteID, a.Enabled, a.HeadCode, a.BodyCode, a.InclusionMode)
	if err != nil {
		return fmt.Errorf("save analytics settings: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM analytics_pages WHERE site_id = $1`, a.SiteID); err != nil {
		return fmt.Errorf("clear analytics pages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO analytics_pages (site_id, page_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare analytics pages: %w", err)
	}
	defer stmt.Close()

	for _, id := range a.PageIDs {
		if _, err := stmt.ExecContext(ctx, a.SiteID, id); err != nil {
			return fmt.Errorf("add analytics page %s: %w", id, err)
		}
	}
	return tx.Commit()
}
