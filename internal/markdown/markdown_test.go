package markdown

import (
	"strings"
	"testing"
	"unicode/utf8"

	"starling/internal/models"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{name: "paragraph", source: "Hello *world*", want: "<p>Hello <em>world</em></p>"},
		{name: "heading id", source: "## Getting started", want: `<h2 id="getting-started">`},
		{name: "raw html kept", source: "<div class=\"note\">hi</div>", want: `<div class="note">hi</div>`},
		{name: "gfm table", source: "| a | b |\n|---|---|\n| 1 | 2 |", want: "<table>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToHTML(tt.source)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("ToHTML(%q) = %q, want it to contain %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	raw := "<p>*not markdown*</p>"
	got, err := Render(raw, models.BodyFormatHTML)
	if err != nil || got != raw {
		t.Errorf("Render(html) = %q, %v; want the body unchanged", got, err)
	}

	got, err = Render("*x*", models.BodyFormatMarkdown)
	if err != nil || !strings.Contains(got, "<em>x</em>") {
		t.Errorf("Render(markdown) = %q, %v", got, err)
	}
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		limit    int
		want     string
	}{
		{name: "first paragraph", fragment: "<h1>Title</h1><p>First.</p><p>Second.</p>", limit: 160, want: "First."},
		{name: "skips empty paragraphs", fragment: "<p>  </p><p>Real text</p>", limit: 160, want: "Real text"},
		{name: "strips inline markup", fragment: "<p>Go <strong>fast</strong> and <a href=\"/\">link</a></p>", limit: 160, want: "Go fast and link"},
		{name: "collapses whitespace", fragment: "<p>a\n\n   b\tc</p>", limit: 160, want: "a b c"},
		{name: "no paragraph", fragment: "<ul><li>item</li></ul>", limit: 160, want: ""},
		{name: "empty", fragment: "", limit: 160, want: ""},
		{name: "truncated", fragment: "<p>one two three four</p>", limit: 9, want: "one two…"},
		{name: "exact limit", fragment: "<p>12345</p>", limit: 5, want: "12345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Excerpt(tt.fragment, tt.limit); got != tt.want {
				t.Errorf("Excerpt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExcerptRuneLimit(t *testing.T) {
	got := Excerpt("<p>"+strings.Repeat("ü", 300)+"</p>", 160)
	if n := utf8.RuneCountInString(got); n != 160 {
		t.Errorf("excerpt has %d runes, want 160", n)
	}
}
