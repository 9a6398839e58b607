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

// SiteStore manages the sites served by this instance.
type SiteStore struct {
	db *sql.DB
}

// NewSiteStore creates a new SiteStore.
func NewSiteStore(db *sql.DB) *SiteStore {
	return &SiteStore{db: db}
}

const siteColumns = `id, hostname, site_name, root_page_id, is_default, created_at`

func scanSite(scanner interface{ Scan(...any) error }) (*models.Site, error) {
	var s models.Site
	if err := scanner.Scan(&s.ID, &s.Hostname, &s.SiteName, &s.RootPageID, &s.IsDefault, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *SiteStore) queryOne(ctx context.Context, what, query string, args ...any) (*models.Site, error) {
	site, err := scanSite(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return site, nil
}

// ForHost returns the site whose hostname matches host, falling back to
// the default site. Returns nil when neither exists.
func (s *SiteStore) ForHost(ctx context.Context, host string) (*models.Site, error) {
	return s.queryOne(ctx, "find site for host", `
		SELECT `+siteColumns+` FROM sites
		WHERE hostname = $1 OR is_default
		ORDER BY (hostname = $1) DESC
		LIMIT 1`, host)
}

// FindByID retrieves a site by ID. Returns nil if not found.
func (s *SiteStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Site, error) {
	return s.queryOne(ctx, "find site by id", `SELECT `+siteColumns+` FROM sites WHERE id = $1`, id)
}

// List returns every site, the default first.
func (s *SiteStore) List(ctx context.Context) ([]*models.Site, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+siteColumns+` FROM sites ORDER BY is_default DESC, hostname`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var sites []*models.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// Create inserts a site and returns it.
func (s *SiteStore) Create(ctx context.Context, site *models.Site) (*models.Site, error) {
	created, err := scanSite(s.db.QueryRowContext(ctx, `
		INSERT INTO sites (hostname, site_name, root_page_id, is_default)
		VALUES ($1, $2, $3, $4)
		RETURNING `+siteColumns,
		site.Hostname, site.SiteName, site.RootPageID, site.IsDefault))
	if err != nil {
		return nil, fmt.Errorf("create site: %w", err)
	}
	return created, nil
}

// Update modifies the hostname, name and root page of a site.
func (s *SiteStore) Update(ctx context.Context, site *models.Site) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sites SET hostname = $1, site_name = $2, root_page_id = $3 WHERE id = $4`,
		site.Hostname, site.SiteName, site.RootPageID, site.ID)
	if err != nil {
		return fmt.Errorf("update site: %w", err)
	}
	return nil
}
