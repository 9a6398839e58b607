// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models holds the rows Starling stores and the small amount of
// behaviour that depends on nothing but their fields.
package models

import (
	"time"

	"github.com/google/uuid"
)

// PageType selects how a page is rendered and whether it routes sub-paths.
type PageType string

const (
	PageTypeHome    PageType = "home"
	PageTypeIndex   PageType = "article_index"
	PageTypeArticle PageType = "article"
	PageTypeBasic   PageType = "basic"
)

// Valid reports whether t is one of the known page types.
func (t PageType) Valid() bool {
	switch t {
	case PageTypeHome, PageTypeIndex, PageTypeArticle, PageTypeBasic:
		return true
	}
	return false
}

// BodyFormat indicates how a page body is stored.
type BodyFormat string

const (
	BodyFormatMarkdown BodyFormat = "markdown"
	BodyFormatHTML     BodyFormat = "html"
)

// Page is a node in a site's page tree. Every locale has its own tree;
// pages that represent the same content in different locales share a
// TranslationKey.
type Page struct {
	ID                uuid.UUID  `json:"id"`
	ParentID          *uuid.UUID `json:"parent_id,omitempty"`
	Locale            string     `json:"locale"`
	TranslationKey    uuid.UUID  `json:"translation_key"`
	Type              PageType   `json:"type"`
	Title             string     `json:"title"`
	Slug              string     `json:"slug"`
	Live              bool       `json:"live"`
	SEOTitle          *string    `json:"seo_title,omitempty"`
	SearchDescription *string    `json:"search_description,omitempty"`
	Intro             *string    `json:"intro,omitempty"`
	Body              string     `json:"body"`
	BodyFormat        BodyFormat `json:"body_format"`
	CategoryID        *uuid.UUID `json:"category_id,omitempty"`
	SocialImageKey    *string    `json:"social_image_key,omitempty"`
	FirstPublishedAt  *time.Time `json:"first_published_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Category is populated by store queries that join the category row.
	Category *Category `json:"category,omitempty"`
}

// IsIndex reports whether the page lists articles and routes the paths
// beneath it.
func (p *Page) IsIndex() bool {
	return p.Type == PageTypeIndex
}

// IsArticle reports whether the page is an article.
func (p *Page) IsArticle() bool {
	return p.Type == PageTypeArticle
}

// HasCategory reports whether a category is assigned.
func (p *Page) HasCategory() bool {
	return p.CategoryID != nil
}

// CategorySlug returns the slug of the joined category, or "" when the page
// has no category or the category was not loaded.
func (p *Page) CategorySlug() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Slug
}

// MetaTitle returns the SEO title, falling back to the page title.
func (p *Page) MetaTitle() string {
	if p.SEOTitle != nil && *p.SEOTitle != "" {
		return *p.SEOTitle
	}
	return p.Title
}

// MetaDescription returns the search description or "".
func (p *Page) MetaDescription() string {
	if p.SearchDescription != nil {
		return *p.SearchDescription
	}
	return ""
}

// PublishedOn returns the first publication date formatted for display.
func (p *Page) PublishedOn() string {
	if p.FirstPublishedAt == nil {
		return ""
	}
	return p.FirstPublishedAt.Format("January 2, 2006")
}

// TranslationCopy returns a draft copy of p for another locale. The copy
// keeps the slug and translation key; parentID and categoryID must already
// point at rows in the target locale.
func (p *Page) TranslationCopy(locale string, parentID, categoryID *uuid.UUID) *Page {
	cp := *p
	cp.ID = uuid.Nil
	cp.Locale = locale
	cp.ParentID = parentID
	cp.CategoryID = categoryID
	cp.Category = nil
	cp.SocialImageKey = nil
	cp.Live = false
	cp.FirstPublishedAt = nil
	cp.CreatedAt = time.Time{}
	cp.UpdatedAt = time.Time{}
	if !p.IsArticle() {
		cp.CategoryID = nil
	}
	return &cp
}
