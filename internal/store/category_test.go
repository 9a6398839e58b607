package store

import (
	"context"
	"testing"

	"starling/internal/models"
)

func TestCategoryStoreUniquePerLocale(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	en := testLocale(t, db)
	de := testLocale(t, db)

	news := mustCreateCategory(t, s, &models.Category{Locale: en, Name: "News", Slug: "news"})

	_, err := s.Create(context.Background(), &models.Category{Locale: en, Name: "Other", Slug: "news"})
	if !IsUniqueViolation(err, CategoryLocaleSlugKey) {
		t.Errorf("duplicate slug err = %v", err)
	}
	_, err = s.Create(context.Background(), &models.Category{Locale: en, Name: "News", Slug: "other"})
	if !IsUniqueViolation(err, CategoryLocaleNameKey) {
		t.Errorf("duplicate name err = %v", err)
	}

	// Same slug in another locale is fine, and that is how translations work.
	deNews := mustCreateCategory(t, s, &models.Category{
		Locale: de, TranslationKey: news.TranslationKey, Name: "Neuigkeiten", Slug: "news",
	})

	found, err := s.FindTranslation(context.Background(), news.TranslationKey, de)
	if err != nil || found == nil || found.ID != deNews.ID {
		t.Fatalf("FindTranslation = %v, %v", found, err)
	}
	bySlug, err := s.FindBySlug(context.Background(), de, "news")
	if err != nil || bySlug == nil || bySlug.Name != "Neuigkeiten" {
		t.Fatalf("FindBySlug = %v, %v", bySlug, err)
	}
	all, err := s.ListTranslations(context.Background(), news.TranslationKey)
	if err != nil || len(all) != 2 {
		t.Errorf("ListTranslations = %d, %v; want 2", len(all), err)
	}
}

func TestCategoryStoreListByLocaleCounts(t *testing.T) {
	f := newPageFixture(t)
	ctx := context.Background()
	f.article(t, "a", f.news, true, nil)
	f.article(t, "b", f.news, false, nil)
	mustCreateCategory(t, f.categories, &models.Category{Locale: f.locale, Name: "Empty", Slug: "empty"})

	cats, err := f.categories.ListByLocale(ctx, f.locale)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 2 || cats[0].Name != "Empty" || cats[1].Name != "News" {
		t.Fatalf("ListByLocale = %v, want [Empty News]", cats)
	}
	if cats[0].ArticleCount != 0 || cats[1].ArticleCount != 2 {
		t.Errorf("counts = %d/%d, want 0/2", cats[0].ArticleCount, cats[1].ArticleCount)
	}

	f.news.Name = "Updates"
	if err := f.categories.Update(ctx, f.news); err != nil {
		t.Fatal(err)
	}
	got, _ := f.categories.FindByID(ctx, f.news.ID)
	if got.Name != "Updates" {
		t.Errorf("name after update = %q", got.Name)
	}
}
