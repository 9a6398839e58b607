package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Unique constraint names, for mapping violations onto form errors.
const (
	PageParentSlugKey      = "pages_parent_slug_key"
	PageTranslationKey     = "pages_translation_key"
	CategoryLocaleSlugKey  = "categories_locale_slug_key"
	CategoryLocaleNameKey  = "categories_locale_name_key"
	CategoryTranslationKey = "categories_translation_key"
)

// IsUniqueViolation reports whether err came from a unique constraint.
// When constraint is not empty it must also match the violated
// constraint name.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
