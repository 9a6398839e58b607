package database

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFixture struct {
	Admin struct {
		Email       string `yaml:"email"`
		Password    string `yaml:"password"`
		DisplayName string `yaml:"display_name"`
	} `yaml:"admin"`
	Site struct {
		Hostname string `yaml:"hostname"`
		Name     string `yaml:"name"`
	} `yaml:"site"`
	Locales []struct {
		Code    string `yaml:"code"`
		Default bool   `yaml:"default"`
	} `yaml:"locales"`
	Settings   map[string]string `yaml:"settings"`
	Categories []seedCategory    `yaml:"categories"`
	Root       seedPage          `yaml:"root"`
}

type seedCategory struct {
	Slug        string            `yaml:"slug"`
	Names       map[string]string `yaml:"names"`
	Description string            `yaml:"description"`
}

type seedPage struct {
	Type     string            `yaml:"type"`
	Slug     string            `yaml:"slug"`
	Titles   map[string]string `yaml:"titles"`
	Body     string            `yaml:"body"`
	Children []seedPage        `yaml:"children"`
	Articles []seedArticle     `yaml:"articles"`
}

type seedArticle struct {
	Slug      string `yaml:"slug"`
	Title     string `yaml:"title"`
	Category  string `yaml:"category"`
	Published string `yaml:"published"`
	Intro     string `yaml:"intro"`
	Body      string `yaml:"body"`
	Draft     bool   `yaml:"draft"`
}

func loadFixture() (*seedFixture, error) {
	var f seedFixture
	if err := yaml.Unmarshal(seedYAML, &f); err != nil {
		return nil, fmt.Errorf("parse seed fixture: %w", err)
	}
	return &f, nil
}

func (f *seedFixture) defaultLocale() string {
	for _, l := range f.Locales {
		if l.Default {
			return l.Code
		}
	}
	return "en"
}

// Seed populates an empty database with development data: an admin user
// (who must set up 2FA on first login), the locales, a site with a page
// tree translated into every locale, categories and articles.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	f, err := loadFixture()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	hash, err := bcrypt.GenerateFromPassword([]byte(f.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
		VALUES ($1, $2, $3, 'admin', FALSE)`,
		f.Admin.Email, string(hash), f.Admin.DisplayName); err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	for i, l := range f.Locales {
		if _, err := tx.Exec(`
			INSERT INTO locales (code, is_default, sort_order) VALUES ($1, $2, $3)
			ON CONFLICT (code) DO NOTHING`, l.Code, l.Default, i); err != nil {
			return fmt.Errorf("seed locale %s: %w", l.Code, err)
		}
	}

	// categories[slug][locale] = id
	categories := make(map[string]map[string]uuid.UUID)
	for _, c := range f.Categories {
		key := uuid.New()
		categories[c.Slug] = make(map[string]uuid.UUID)
		for locale, name := range c.Names {
			var id uuid.UUID
			if err := tx.QueryRow(`
				INSERT INTO categories (locale, translation_key, name, slug, description)
				VALUES ($1, $2, $3, $4, $5) RETURNING id`,
				locale, key, name, c.Slug, c.Description).Scan(&id); err != nil {
				return fmt.Errorf("seed category %s/%s: %w", locale, c.Slug, err)
			}
			categories[c.Slug][locale] = id
		}
	}

	s := &seeder{tx: tx, categories: categories, defaultLocale: f.defaultLocale()}
	roots, err := s.page(f.Root, nil)
	if err != nil {
		return err
	}

	root := roots[s.defaultLocale]
	if _, err := tx.Exec(`
		INSERT INTO sites (hostname, site_name, root_page_id, is_default)
		VALUES ($1, $2, $3, TRUE)`, f.Site.Hostname, f.Site.Name, root); err != nil {
		return fmt.Errorf("seed site: %w", err)
	}

	for k, v := range f.Settings {
		if _, err := tx.Exec(`
			INSERT INTO site_settings (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO NOTHING`, k, v); err != nil {
			return fmt.Errorf("seed setting %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded",
		"email", f.Admin.Email,
		"password", f.Admin.Password,
		"site", f.Site.Hostname,
	)
	return nil
}

type seeder struct {
	tx            *sql.Tx
	categories    map[string]map[string]uuid.UUID
	defaultLocale string
}

// page inserts p in every locale it has a title for, beneath the parent
// of the same locale, and returns the ids per locale.
func (s *seeder) page(p seedPage, parents map[string]uuid.UUID) (map[string]uuid.UUID, error) {
	key := uuid.New()
	ids := make(map[string]uuid.UUID)

	for locale, title := range p.Titles {
		var parent *uuid.UUID
		if parents != nil {
			id, ok := parents[locale]
			if !ok {
				continue
			}
			parent = &id
		}
		var id uuid.UUID
		if err := s.tx.QueryRow(`
			INSERT INTO pages (parent_id, locale, translation_key, type, title, slug, live, body, first_published_at)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, NOW()) RETURNING id`,
			parent, locale, key, p.Type, title, p.Slug, p.Body).Scan(&id); err != nil {
			return nil, fmt.Errorf("seed page %s/%s: %w", locale, p.Slug, err)
		}
		ids[locale] = id
	}

	for _, child := range p.Children {
		if _, err := s.page(child, ids); err != nil {
			return nil, err
		}
	}

	if index, ok := ids[s.defaultLocale]; ok {
		for _, a := range p.Articles {
			if err := s.article(a, index); err != nil {
				return nil, err
			}
		}
	}
	return ids, nil
}

func (s *seeder) article(a seedArticle, index uuid.UUID) error {
	var category *uuid.UUID
	if a.Category != "" {
		id, ok := s.categories[a.Category][s.defaultLocale]
		if !ok {
			return fmt.Errorf("seed article %s: unknown category %q", a.Slug, a.Category)
		}
		category = &id
	}

	var published *time.Time
	if a.Published != "" && !a.Draft {
		t, err := time.Parse("2006-01-02", a.Published)
		if err != nil {
			return fmt.Errorf("seed article %s: %w", a.Slug, err)
		}
		published = &t
	}

	var intro *string
	if a.Intro != "" {
		intro = &a.Intro
	}

	_, err := s.tx.Exec(`
		INSERT INTO pages (parent_id, locale, type, title, slug, live, intro, body, category_id, first_published_at)
		VALUES ($1, $2, 'article', $3, $4, $5, $6, $7, $8, $9)`,
		index, s.defaultLocale, a.Title, a.Slug, !a.Draft, intro, a.Body, category, published)
	if err != nil {
		return fmt.Errorf("seed article %s: %w", a.Slug, err)
	}
	return nil
}
