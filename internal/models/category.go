// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups articles. Each locale holds its own categories; the
// translations of one category share a TranslationKey and a slug.
type Category struct {
	ID             uuid.UUID `json:"id"`
	Locale         string    `json:"locale"`
	TranslationKey uuid.UUID `json:"translation_key"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Virtual field populated by store list methods.
	ArticleCount int `json:"article_count"`
}

// String returns the category name.
func (c *Category) String() string {
	return c.Name
}
