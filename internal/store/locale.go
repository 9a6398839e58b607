package store

import (
	"context"
	"database/sql"
	"fmt"

	"starling/internal/models"
)

// LocaleStore reads and writes the enabled locales.
type LocaleStore struct {
	db *sql.DB
}

func NewLocaleStore(db *sql.DB) *LocaleStore {
	return &LocaleStore{db: db}
}

// List returns every locale in display order.
func (s *LocaleStore) List(ctx context.Context) (models.Locales, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, is_default, sort_order FROM locales ORDER BY sort_order, code`)
	if err != nil {
		return nil, fmt.Errorf("list locales: %w", err)
	}
	defer rows.Close()

	var locales models.Locales
	for rows.Next() {
		var l models.Locale
		if err := rows.Scan(&l.Code, &l.IsDefault, &l.SortOrder); err != nil {
			return nil, fmt.Errorf("scan locale: %w", err)
		}
		locales = append(locales, l)
	}
	return locales, rows.Err()
}

// Upsert creates a locale or updates its flags.
func (s *LocaleStore) Upsert(ctx context.Context, l models.Locale) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO locales (code, is_default, sort_order) VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET is_default = EXCLUDED.is_default, sort_order = EXCLUDED.sort_order`,
		l.Code, l.IsDefault, l.SortOrder)
	if err != nil {
		return fmt.Errorf("upsert locale %s: %w", l.Code, err)
	}
	return nil
}
