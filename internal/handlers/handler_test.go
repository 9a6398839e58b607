// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"starling/internal/cache"
	"starling/internal/config"
	"starling/internal/database"
	"starling/internal/engine"
	"starling/internal/i18n"
	"starling/internal/middleware"
	"starling/internal/models"
	"starling/internal/render"
	"starling/internal/routing"
	"starling/internal/session"
	"starling/internal/store"
)

// testConfig reads the service settings the same way the binary does.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	vars := make(map[string]string)
	for _, key := range []string{
		"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
		"VALKEY_HOST", "VALKEY_PORT", "VALKEY_PASSWORD",
	} {
		if v := os.Getenv(key); v != "" {
			vars[key] = v
		}
	}
	cfg, err := config.LoadFrom(vars)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

// testDB connects to PostgreSQL and applies the migrations. The test is
// skipped when the database cannot be reached.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.Connect(ctx, testConfig(t).DSN())
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// testValkeyClient uses logical database 15 so that flushing it never
// touches a developer's sessions.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	cfg := testConfig(t)
	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.ValkeyHost, cfg.ValkeyPort),
		Password: cfg.ValkeyPassword,
		DB:       15,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("valkey unavailable: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

// testEnv wires the handlers against real services.
type testEnv struct {
	DB        *sql.DB
	Valkey    *redis.Client
	Renderer  *render.Renderer
	Sessions  *session.Store
	Stores    Stores
	UserStore *store.UserStore
	Engine    *engine.Engine
	PageCache *cache.PageCache
	Admin     *Admin
	Auth      *Auth
	Public    *Public
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	renderer, err := render.New(true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	catalog, err := i18n.Load()
	if err != nil {
		t.Fatalf("i18n.Load: %v", err)
	}

	stores := Stores{
		Pages:      store.NewPageStore(db),
		Categories: store.NewCategoryStore(db),
		Locales:    store.NewLocaleStore(db),
		Sites:      store.NewSiteStore(db),
		Analytics:  store.NewAnalyticsStore(db),
		Settings:   store.NewSiteSettingStore(db),
		Users:      store.NewUserStore(db),
	}
	sessions := session.NewStore(vk, false)
	eng := engine.New(engine.Options{Catalog: catalog, Analytics: stores.Analytics})
	pageCache := cache.NewPageCache(vk, time.Minute)

	public := NewPublic(PublicDeps{
		Engine:    eng,
		Resolver:  routing.NewResolver(store.Catalog{Pages: stores.Pages, Categories: stores.Categories}),
		Sites:     stores.Sites,
		Locales:   stores.Locales,
		Pages:     stores.Pages,
		Settings:  stores.Settings,
		PageCache: pageCache,
	})

	return &testEnv{
		DB:        db,
		Valkey:    vk,
		Renderer:  renderer,
		Sessions:  sessions,
		Stores:    stores,
		UserStore: stores.Users,
		Engine:    eng,
		PageCache: pageCache,
		Admin:     NewAdmin(renderer, stores, nil, pageCache, routing.DefaultPerPage),
		Auth:      NewAuth(renderer, sessions, stores.Users),
		Public:    public,
	}
}

func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

func testSession(userID uuid.UUID, email, role string, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       email,
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   twoFADone,
	}
}

// withChiURLParam sets a route parameter the way chi does for a matched
// pattern such as /pages/{id}.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rc := chi.RouteContext(r.Context())
	if rc == nil {
		rc = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
	}
	rc.URLParams.Add(key, value)
	return r
}

func resetTOTP(t *testing.T, db *sql.DB, userID uuid.UUID) {
	t.Helper()
	const q = `UPDATE users SET totp_secret = NULL, totp_enabled = FALSE WHERE id = $1`
	if _, err := db.Exec(q, userID); err != nil {
		t.Fatalf("reset 2fa for %s: %v", userID, err)
	}
}

// testLocale creates a throwaway locale. Deleting it on cleanup cascades
// to every page and category created in it.
func testLocale(t *testing.T, db *sql.DB) models.Locale {
	t.Helper()
	l := models.Locale{Code: "zz-" + uuid.NewString()[:8], SortOrder: 99}
	if err := store.NewLocaleStore(db).Upsert(context.Background(), l); err != nil {
		t.Fatalf("create locale: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM locales WHERE code = $1", l.Code) })
	return l
}
