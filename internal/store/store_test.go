package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"

	"starling/internal/database"
	"starling/internal/models"
)

// postgresDSN honours the POSTGRES_* variables and falls back to the
// docker-compose defaults.
func postgresDSN() string {
	get := func(key, def string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		return def
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		get("POSTGRES_USER", "starling"),
		get("POSTGRES_PASSWORD", "changeme"),
		get("POSTGRES_HOST", "localhost"),
		get("POSTGRES_PORT", "5432"),
		get("POSTGRES_DB", "starling"),
	)
}

// testDB returns a migrated database or skips the test.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.Connect(ctx, postgresDSN())
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// testLocale registers a throwaway locale. Pages and categories created in
// it are removed with it by the cascading foreign keys.
func testLocale(t *testing.T, db *sql.DB) string {
	t.Helper()
	code := "zz-" + uuid.NewString()[:8]
	if err := NewLocaleStore(db).Upsert(context.Background(), models.Locale{Code: code, SortOrder: 99}); err != nil {
		t.Fatalf("create locale %s: %v", code, err)
	}
	t.Cleanup(func() { db.Exec(`DELETE FROM locales WHERE code = $1`, code) })
	return code
}

func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	if _, err := db.Exec(`DELETE FROM users WHERE email = ANY($1)`, emails); err != nil {
		t.Logf("remove test users: %v", err)
	}
}

func mustCreatePage(t *testing.T, s *PageStore, p *models.Page) *models.Page {
	t.Helper()
	created, err := s.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("create page %q: %v", p.Slug, err)
	}
	return created
}

func mustCreateCategory(t *testing.T, s *CategoryStore, c *models.Category) *models.Category {
	t.Helper()
	created, err := s.Create(context.Background(), c)
	if err != nil {
		t.Fatalf("create category %q: %v", c.Slug, err)
	}
	return created
}
