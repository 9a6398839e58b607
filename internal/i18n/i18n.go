// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package i18n translates the user interface strings of public templates.
// Catalogs are gettext .po files embedded in the binary, one per language:
//
//	po/<lang>.po
//
// English is the source language and needs no catalog entry for a string
// to render.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

//go:embed po/*.po
var poFS embed.FS

const domain = "starling"

// Base is the source language of every msgid.
var Base = language.English

// Catalog holds the loaded translations and a matcher over them.
type Catalog struct {
	locales map[string]*gotext.Locale
	tags    []language.Tag
	matcher language.Matcher
}

// Load reads every embedded catalog.
func Load() (*Catalog, error) {
	return load(poFS)
}

func load(fsys fs.FS) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, "po")
	if err != nil {
		return nil, fmt.Errorf("read po directory: %w", err)
	}

	c := &Catalog{locales: make(map[string]*gotext.Locale)}
	var loaded []language.Tag

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".po") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".po")
		tag, err := language.Parse(strings.ReplaceAll(name, "_", "-"))
		if err != nil {
			slog.Warn("skipping invalid catalog", "file", entry.Name(), "error", err)
			continue
		}

		po := gotext.NewPoFS(fsys)
		po.ParseFile(path.Join("po", entry.Name()))

		loc := gotext.NewLocale("", tag.String())
		loc.AddTranslator(domain, po)
		c.locales[tag.String()] = loc
		loaded = append(loaded, tag)
	}

	sort.Slice(loaded, func(i, j int) bool { return loaded[i].String() < loaded[j].String() })

	// The base language goes first so it is the matcher's fallback.
	c.tags = []language.Tag{Base}
	for _, t := range loaded {
		if t != Base {
			c.tags = append(c.tags, t)
		}
	}
	c.matcher = language.NewMatcher(c.tags)

	slog.Debug("i18n catalogs loaded", "languages", len(c.locales))
	return c, nil
}

// Languages returns the supported languages, base first.
func (c *Catalog) Languages() []language.Tag {
	return append([]language.Tag(nil), c.tags...)
}

// Match returns the supported language closest to a locale code such as
// "de" or "pt-BR". Unknown or invalid codes match the base language.
func (c *Catalog) Match(code string) language.Tag {
	tag, err := language.Parse(code)
	if err != nil {
		return Base
	}
	_, idx, conf := c.matcher.Match(tag)
	if conf == language.No {
		return Base
	}
	return c.tags[idx]
}

// T translates msg into the language matching locale. Extra arguments are
// applied as fmt verbs. Missing translations return msg itself.
func (c *Catalog) T(locale, msg string, args ...any) string {
	if loc := c.locales[c.Match(locale).String()]; loc != nil {
		return loc.GetD(domain, msg, args...)
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}
