package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

func TestPageMetaTitle(t *testing.T) {
	tests := []struct {
		name     string
		seoTitle *string
		want     string
	}{
		{name: "no seo title", seoTitle: nil, want: "Launch"},
		{name: "empty seo title", seoTitle: strPtr(""), want: "Launch"},
		{name: "seo title set", seoTitle: strPtr("We launched"), want: "We launched"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Page{Title: "Launch", SEOTitle: tt.seoTitle}
			if got := p.MetaTitle(); got != tt.want {
				t.Errorf("MetaTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPageCategorySlug(t *testing.T) {
	p := &Page{Type: PageTypeArticle}
	if p.HasCategory() || p.CategorySlug() != "" {
		t.Fatal("uncategorized page should report no category")
	}

	catID := uuid.New()
	p.CategoryID = &catID
	p.Category = &Category{ID: catID, Slug: "news"}
	if !p.HasCategory() {
		t.Error("HasCategory() = false, want true")
	}
	if got := p.CategorySlug(); got != "news" {
		t.Errorf("CategorySlug() = %q, want %q", got, "news")
	}
}

func TestPageTypeValid(t *testing.T) {
	for _, pt := range []PageType{PageTypeHome, PageTypeIndex, PageTypeArticle, PageTypeBasic} {
		if !pt.Valid() {
			t.Errorf("%q should be valid", pt)
		}
	}
	if PageType("blog").Valid() {
		t.Error(`"blog" should be invalid`)
	}
}

func TestPageTranslationCopy(t *testing.T) {
	now := time.Now()
	catID := uuid.New()
	src := &Page{
		ID:               uuid.New(),
		Locale:           "en",
		TranslationKey:   uuid.New(),
		Type:             PageTypeArticle,
		Title:            "Launch",
		Slug:             "launch",
		Live:             true,
		CategoryID:       &catID,
		Category:         &Category{ID: catID, Slug: "news"},
		FirstPublishedAt: &now,
	}
	parent := uuid.New()
	deCat := uuid.New()

	cp := src.TranslationCopy("de", &parent, &deCat)

	if cp.ID != uuid.Nil {
		t.Error("copy must not keep the source id")
	}
	if cp.Locale != "de" || cp.Slug != "launch" || cp.TranslationKey != src.TranslationKey {
		t.Errorf("copy identity: got locale=%q slug=%q", cp.Locale, cp.Slug)
	}
	if cp.Live || cp.FirstPublishedAt != nil {
		t.Error("copy must be an unpublished draft")
	}
	if cp.ParentID == nil || *cp.ParentID != parent {
		t.Error("copy must use the target parent")
	}
	if cp.CategoryID == nil || *cp.CategoryID != deCat || cp.Category != nil {
		t.Error("copy must use the target category id and drop the joined source category")
	}
	if !src.Live || src.Locale != "en" {
		t.Error("source page must not be modified")
	}

	idx := &Page{Type: PageTypeIndex, CategoryID: &catID}
	if idx.TranslationCopy("de", &parent, &deCat).CategoryID != nil {
		t.Error("non-article copies never carry a category")
	}
}
