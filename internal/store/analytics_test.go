package store

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"starling/internal/models"
)

func testSite(t *testing.T, s *SiteStore, root *uuid.UUID) *models.Site {
	t.Helper()
	site, err := s.Create(context.Background(), &models.Site{
		Hostname:   "test-" + uuid.NewString()[:8] + ".local",
		SiteName:   "Test",
		RootPageID: root,
	})
	if err != nil {
		t.Fatalf("create site: %v", err)
	}
	t.Cleanup(func() { s.db.Exec("DELETE FROM sites WHERE id = $1", site.ID) })
	return site
}

func TestAnalyticsStoreRoundTrip(t *testing.T) {
	f := newPageFixture(t)
	db := testDB(t)
	s := NewAnalyticsStore(db)
	ctx := context.Background()
	site := testSite(t, NewSiteStore(db), &f.home.ID)

	missing, err := s.Get(ctx, site.ID)
	if err != nil || missing != nil {
		t.Fatalf("Get (unsaved) = %v, %v; want nil, nil", missing, err)
	}

	a := models.DefaultAnalyticsSettings(site.ID)
	a.Enabled = true
	a.HeadCode = `<script src="https://stats.example/a.js"></script>`
	a.InclusionMode = models.InclusionOnly
	a.PageIDs = []uuid.UUID{f.home.ID, f.blog.ID}
	if err := s.Save(ctx, a); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, site.ID)
	if err != nil || got == nil {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if !got.Enabled || got.HeadCode != a.HeadCode || got.InclusionMode != models.InclusionOnly {
		t.Errorf("settings not persisted: %+v", got)
	}
	if len(got.PageIDs) != 2 || !got.ShouldInclude(f.blog.ID) {
		t.Errorf("page list not persisted: %v", got.PageIDs)
	}

	// Saving again replaces the page list.
	a.InclusionMode = models.InclusionExcept
	a.PageIDs = []uuid.UUID{f.blog.ID}
	if err := s.Save(ctx, a); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Get(ctx, site.ID)
	if len(got.PageIDs) != 1 || got.ShouldInclude(f.blog.ID) || !got.ShouldInclude(f.home.ID) {
		t.Errorf("after resave: mode=%s pages=%v", got.InclusionMode, got.PageIDs)
	}
}

func TestSiteStoreForHost(t *testing.T) {
	db := testDB(t)
	s := NewSiteStore(db)
	ctx := context.Background()
	site := testSite(t, s, nil)

	got, err := s.ForHost(ctx, site.Hostname)
	if err != nil || got == nil || got.ID != site.ID {
		t.Fatalf("ForHost(%q) = %v, %v", site.Hostname, got, err)
	}

	// Unknown hosts fall back to the default site when one exists.
	fallback, err := s.ForHost(ctx, "unknown-"+uuid.NewString()+".local")
	if err != nil {
		t.Fatal(err)
	}
	if fallback != nil && !fallback.IsDefault {
		t.Errorf("fallback site %q is not the default", fallback.Hostname)
	}
}
