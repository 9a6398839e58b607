package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"starling/internal/models"
)

type pageFixture struct {
	locale     string
	pages      *PageStore
	categories *CategoryStore
	home, blog *models.Page
	news       *models.Category
}

func newPageFixture(t *testing.T) *pageFixture {
	t.Helper()
	db := testDB(t)
	f := &pageFixture{
		locale:     testLocale(t, db),
		pages:      NewPageStore(db),
		categories: NewCategoryStore(db),
	}
	f.home = mustCreatePage(t, f.pages, &models.Page{
		Locale: f.locale, Type: models.PageTypeHome, Title: "Home", Slug: "home", Live: true,
	})
	f.blog = mustCreatePage(t, f.pages, &models.Page{
		ParentID: &f.home.ID, Locale: f.locale, Type: models.PageTypeIndex, Title: "Blog", Slug: "blog", Live: true,
	})
	f.news = mustCreateCategory(t, f.categories, &models.Category{Locale: f.locale, Name: "News", Slug: "news"})
	return f
}

func (f *pageFixture) article(t *testing.T, slug string, cat *models.Category, live bool, published *time.Time) *models.Page {
	t.Helper()
	p := &models.Page{
		ParentID:         &f.blog.ID,
		Locale:           f.locale,
		Type:             models.PageTypeArticle,
		Title:            slug,
		Slug:             slug,
		Live:             live,
		FirstPublishedAt: published,
	}
	if cat != nil {
		p.CategoryID = &cat.ID
	}
	return mustCreatePage(t, f.pages, p)
}

func at(day int) *time.Time {
	ts := time.Date(2026, 3, day, 12, 0, 0, 0, time.UTC)
	return &ts
}

func TestPageStoreCreateJoinsCategory(t *testing.T) {
	f := newPageFixture(t)

	a := f.article(t, "launch", f.news, true, nil)
	if a.Category == nil || a.CategorySlug() != "news" {
		t.Fatalf("created article should carry its category, got %+v", a.Category)
	}
	if a.FirstPublishedAt == nil {
		t.Error("live article should get a first publication date")
	}
	if a.TranslationKey == uuid.Nil {
		t.Error("a translation key should be assigned")
	}

	draft := f.article(t, "draft", nil, false, nil)
	if draft.FirstPublishedAt != nil || draft.Category != nil {
		t.Error("draft should have no publication date and no category")
	}
}

func TestPageStoreFindLiveArticle(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()
	plain := f.article(t, "hello", nil, true, at(1))
	tagged := f.article(t, "launch", f.news, true, at(2))
	f.article(t, "hidden", nil, false, nil)

	news := "news"
	other := "other"
	tests := []struct {
		name     string
		slug     string
		category *string
		want     *models.Page
	}{
		{name: "uncategorized", slug: "hello", want: plain},
		{name: "categorized", slug: "launch", category: &news, want: tagged},
		{name: "categorized without category", slug: "launch"},
		{name: "uncategorized with category", slug: "hello", category: &news},
		{name: "wrong category", slug: "launch", category: &other},
		{name: "draft", slug: "hidden"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.pages.FindLiveArticle(ctx, f.blog.ID, tt.slug, tt.category)
			if err != nil {
				t.Fatal(err)
			}
			if tt.want == nil {
				if got != nil {
					t.Fatalf("got %q, want nil", got.Slug)
				}
				return
			}
			if got == nil || got.ID != tt.want.ID {
				t.Fatalf("got %v, want %q", got, tt.want.Slug)
			}
		})
	}
}

func TestPageStoreLiveListing(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()
	sport := mustCreateCategory(t, f.categories, &models.Category{Locale: f.locale, Name: "Sport", Slug: "sport"})
	unused := mustCreateCategory(t, f.categories, &models.Category{Locale: f.locale, Name: "Archive", Slug: "archive"})
	_ = unused

	a1 := f.article(t, "one", nil, true, at(1))
	a2 := f.article(t, "two", f.news, true, at(2))
	a3 := f.article(t, "three", f.news, true, at(3))
	f.article(t, "draft", sport, false, nil)

	n, err := f.pages.CountLiveArticles(ctx, f.blog.ID, nil)
	if err != nil || n != 3 {
		t.Fatalf("CountLiveArticles = %d, %v; want 3", n, err)
	}
	n, err = f.pages.CountLiveArticles(ctx, f.blog.ID, &f.news.ID)
	if err != nil || n != 2 {
		t.Fatalf("CountLiveArticles(news) = %d, %v; want 2", n, err)
	}

	got, err := f.pages.ListLiveArticles(ctx, f.blog.ID, nil, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != a3.ID || got[1].ID != a2.ID {
		t.Fatalf("first page order wrong: %v", got)
	}
	got, err = f.pages.ListLiveArticles(ctx, f.blog.ID, nil, 2, 2)
	if err != nil || len(got) != 1 || got[0].ID != a1.ID {
		t.Fatalf("second page = %v, %v", got, err)
	}

	inUse, err := f.categories.ListInUse(ctx, f.blog.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(inUse) != 1 || inUse[0].ID != f.news.ID {
		t.Errorf("ListInUse = %v, want only news (drafts and empty categories excluded)", inUse)
	}
}

func TestPageStoreCategoryDeleteClearsArticles(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()
	a := f.article(t, "launch", f.news, true, at(1))

	if err := f.categories.Delete(ctx, f.news.ID); err != nil {
		t.Fatal(err)
	}
	got, err := f.pages.FindByID(ctx, a.ID)
	if err != nil || got == nil {
		t.Fatalf("FindByID = %v, %v", got, err)
	}
	if got.CategoryID != nil || got.Category != nil {
		t.Error("deleting a category should leave its articles uncategorized")
	}
}

func TestPageStoreUniqueSlug(t *testing.T) {
	f := newPageFixture(t)
	f.article(t, "same", nil, true, nil)

	_, err := f.pages.Create(context.Background(), &models.Page{
		ParentID: &f.blog.ID, Locale: f.locale, Type: models.PageTypeArticle, Title: "Same", Slug: "same",
	})
	if !IsUniqueViolation(err, PageParentSlugKey) {
		t.Errorf("duplicate slug err = %v, want unique violation", err)
	}
}

func TestPageStoreUpdate(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()
	a := f.article(t, "draft", nil, false, nil)

	seo := "SEO title"
	a.Live = true
	a.SEOTitle = &seo
	a.CategoryID = &f.news.ID
	if err := f.pages.Update(ctx, a); err != nil {
		t.Fatal(err)
	}
	got, _ := f.pages.FindByID(ctx, a.ID)
	if !got.Live || got.FirstPublishedAt == nil || got.MetaTitle() != "SEO title" || got.CategorySlug() != "news" {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestPageStoreTranslations(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()

	other := testLocale(t, testDB(t))
	copyHome := f.home.TranslationCopy(other, nil, nil)
	translated := mustCreatePage(t, f.pages, copyHome)

	found, err := f.pages.FindTranslation(ctx, f.home.TranslationKey, other)
	if err != nil || found == nil || found.ID != translated.ID {
		t.Fatalf("FindTranslation = %v, %v", found, err)
	}
	all, err := f.pages.ListTranslations(ctx, f.home.TranslationKey)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListTranslations = %d, %v; want 2", len(all), err)
	}

	_, err = f.pages.Create(ctx, f.home.TranslationCopy(other, nil, nil))
	if !IsUniqueViolation(err, PageTranslationKey) {
		t.Errorf("second translation in the same locale err = %v, want unique violation", err)
	}
}

func TestPageStoreStructural(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()
	f.article(t, "post", nil, true, nil)
	mustCreatePage(t, f.pages, &models.Page{
		ParentID: &f.home.ID, Locale: f.locale, Type: models.PageTypeBasic, Title: "Draft page", Slug: "wip",
	})

	live, err := f.pages.ListStructural(ctx, f.locale, true)
	if err != nil || len(live) != 2 {
		t.Fatalf("ListStructural(live) = %d, %v; want home and blog", len(live), err)
	}
	all, err := f.pages.ListStructural(ctx, f.locale, false)
	if err != nil || len(all) != 3 {
		t.Fatalf("ListStructural(all) = %d, %v; want 3", len(all), err)
	}
	everything, err := f.pages.ListLive(ctx, f.locale)
	if err != nil || len(everything) != 3 {
		t.Fatalf("ListLive = %d, %v; want home, blog and the article", len(everything), err)
	}
}
