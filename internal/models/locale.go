package models

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Locale is a language the site publishes content in.
type Locale struct {
	Code      string `json:"code"`
	IsDefault bool   `json:"is_default"`
	SortOrder int    `json:"sort_order"`
}

// Tag parses the locale code as a BCP 47 tag. Invalid codes yield und.
func (l Locale) Tag() language.Tag {
	t, err := language.Parse(l.Code)
	if err != nil {
		return language.Und
	}
	return t
}

// DisplayName returns the language name in its own language, e.g. "Deutsch".
func (l Locale) DisplayName() string {
	t := l.Tag()
	if t == language.Und {
		return l.Code
	}
	if name := display.Self.Name(t); name != "" {
		return name
	}
	return l.Code
}

// Prefix returns the URL path prefix for the locale: "" for the default
// locale and "/<code>" otherwise.
func (l Locale) Prefix() string {
	if l.IsDefault {
		return ""
	}
	return "/" + l.Code
}

// Locales is an ordered list of enabled locales.
type Locales []Locale

// Default returns the default locale, or the first one when none is marked.
func (ls Locales) Default() Locale {
	for _, l := range ls {
		if l.IsDefault {
			return l
		}
	}
	if len(ls) > 0 {
		return ls[0]
	}
	return Locale{Code: "en", IsDefault: true}
}

// Find returns the locale with the given code.
func (ls Locales) Find(code string) (Locale, bool) {
	for _, l := range ls {
		if l.Code == code {
			return l, true
		}
	}
	return Locale{}, false
}

// Split separates a leading non-default locale code from path components.
// Components that do not start with a known locale code belong to the
// default locale.
func (ls Locales) Split(components []string) (Locale, []string) {
	if len(components) > 0 {
		if l, ok := ls.Find(components[0]); ok && !l.IsDefault {
			return l, components[1:]
		}
	}
	return ls.Default(), components
}
