// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// InclusionMode selects which pages receive the tracking code.
type InclusionMode string

const (
	InclusionAll    InclusionMode = "all"
	InclusionOnly   InclusionMode = "only"
	InclusionExcept InclusionMode = "except"
)

// InclusionModes lists the modes in the order the admin form shows them.
var InclusionModes = []InclusionMode{InclusionAll, InclusionOnly, InclusionExcept}

// Label returns a human-readable description of the mode.
func (m InclusionMode) Label() string {
	switch m {
	case InclusionAll:
		return "All pages"
	case InclusionOnly:
		return "Only the selected pages"
	case InclusionExcept:
		return "All pages except the selected ones"
	}
	return string(m)
}

// Valid reports whether m is a known mode.
func (m InclusionMode) Valid() bool {
	return m == InclusionAll || m == InclusionOnly || m == InclusionExcept
}

// AnalyticsSettings holds the tracking markup for one site. The markup is
// emitted verbatim; it is never escaped or validated.
type AnalyticsSettings struct {
	SiteID        uuid.UUID     `json:"site_id"`
	Enabled       bool          `json:"enabled"`
	HeadCode      string        `json:"head_code"`
	BodyCode      string        `json:"body_code"`
	InclusionMode InclusionMode `json:"inclusion_mode"`
	PageIDs       []uuid.UUID   `json:"page_ids"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// DefaultAnalyticsSettings returns the settings a site has before anyone
// saves the analytics form: disabled, empty markup, all pages.
func DefaultAnalyticsSettings(siteID uuid.UUID) *AnalyticsSettings {
	return &AnalyticsSettings{
		SiteID:        siteID,
		InclusionMode: InclusionAll,
	}
}

// HasPage reports whether id is in the page list.
func (a *AnalyticsSettings) HasPage(id uuid.UUID) bool {
	for _, p := range a.PageIDs {
		if p == id {
			return true
		}
	}
	return false
}

// ShouldInclude decides whether tracking code is emitted for the page.
// The page list means "only these" or "all but these" depending on the mode.
func (a *AnalyticsSettings) ShouldInclude(pageID uuid.UUID) bool {
	if a == nil || !a.Enabled {
		return false
	}
	switch a.InclusionMode {
	case InclusionAll:
		return true
	case InclusionOnly:
		return a.HasPage(pageID)
	case InclusionExcept:
		return !a.HasPage(pageID)
	}
	return false
}
