package models

import (
	"time"

	"github.com/google/uuid"
)

// Site binds a hostname to a page tree. RootPageID is the root page in the
// default locale; roots for other locales are its translations.
type Site struct {
	ID         uuid.UUID  `json:"id"`
	Hostname   string     `json:"hostname"`
	SiteName   string     `json:"site_name"`
	RootPageID *uuid.UUID `json:"root_page_id,omitempty"`
	IsDefault  bool       `json:"is_default"`
	CreatedAt  time.Time  `json:"created_at"`
}
