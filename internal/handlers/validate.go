package handlers

import (
	"strings"
	"unicode/utf8"

	"starling/internal/slug"
)

// Validation limits for page and category fields.
const (
	maxTitleLen        = 255
	maxSlugLen         = 255
	maxBodyLen         = 100_000
	maxIntroLen        = 1_000
	maxSEOTitleLen     = 255
	maxSearchDescLen   = 500
	maxCategoryDesc    = 2_000
	maxCategoryName    = 100
	maxCategorySlug    = 100
	maxTrackingCode    = 20_000
	maxArticlesPerPage = 100
)

// validatePage checks the content fields of the page form and returns the
// first error found. An empty slug is allowed; it is generated from the
// title.
func validatePage(title, pageSlug, body string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 255 characters)."
	}
	if utf8.RuneCountInString(pageSlug) > maxSlugLen {
		return "Slug is too long (max 255 characters)."
	}
	if pageSlug != "" && !slug.Valid(pageSlug) {
		return "Slug may only contain lowercase letters, digits, hyphens and underscores."
	}
	if utf8.RuneCountInString(body) > maxBodyLen {
		return "Body is too long (max 100,000 characters)."
	}
	return ""
}

// validatePromote checks the optional SEO fields of the page form.
func validatePromote(intro, seoTitle, searchDesc string) string {
	if utf8.RuneCountInString(intro) > maxIntroLen {
		return "Intro is too long (max 1,000 characters)."
	}
	if utf8.RuneCountInString(seoTitle) > maxSEOTitleLen {
		return "SEO title is too long (max 255 characters)."
	}
	if utf8.RuneCountInString(searchDesc) > maxSearchDescLen {
		return "Search description is too long (max 500 characters)."
	}
	return ""
}

// validateCategory checks the category form. An empty slug is allowed; it
// is generated from the name.
func validateCategory(name, catSlug, description string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(name) > maxCategoryName {
		return "Name is too long (max 100 characters)."
	}
	if utf8.RuneCountInString(catSlug) > maxCategorySlug {
		return "Slug is too long (max 100 characters)."
	}
	if catSlug != "" && !slug.Valid(catSlug) {
		return "Slug may only contain lowercase letters, digits, hyphens and underscores."
	}
	if utf8.RuneCountInString(description) > maxCategoryDesc {
		return "Description is too long (max 2,000 characters)."
	}
	return ""
}

// validateAnalytics checks the tracking code sizes.
func validateAnalytics(headCode, bodyCode string) string {
	if len(headCode) > maxTrackingCode || len(bodyCode) > maxTrackingCode {
		return "Tracking code is too long (max 20,000 bytes per field)."
	}
	return ""
}
