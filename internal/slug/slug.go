// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonWord matches anything that isn't a word character, whitespace or hyphen.
	nonWord = regexp.MustCompile(`[^\w\s-]`)
	// separators collapses runs of hyphens and whitespace into one hyphen.
	separators = regexp.MustCompile(`[-\s]+`)
	// valid matches a slug accepted from user input.
	valid = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)
)

// asciiFold decomposes accented characters and drops everything outside
// ASCII, so "Crème Brûlée" becomes "Creme Brulee".
var asciiFold = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	folded, _, err := transform.String(asciiFold, s)
	if err != nil {
		folded = s
	}
	result := nonWord.ReplaceAllString(strings.ToLower(folded), "")
	result = separators.ReplaceAllString(result, "-")
	return strings.Trim(result, "-_")
}

// Valid reports whether s is already a well-formed slug.
func Valid(s string) bool {
	return valid.MatchString(s)
}
