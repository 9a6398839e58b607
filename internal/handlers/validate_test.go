package handlers

import (
	"strings"
	"testing"
)

func TestFormValidation(t *testing.T) {
	long := func(n int) string { return strings.Repeat("ä", n) }

	tests := []struct {
		name string
		msg  string
		want string // substring of the message, "" for valid input
	}{
		{"page ok", validatePage("Launch day", "launch-day", "Body"), ""},
		{"page generated slug", validatePage("Launch day", "", ""), ""},
		{"page underscore slug", validatePage("Launch day", "launch_day", ""), ""},
		{"page blank title", validatePage(" \t", "x", ""), "Title is required"},
		{"page title at limit", validatePage(long(maxTitleLen), "", ""), ""},
		{"page title over limit", validatePage(long(maxTitleLen+1), "", ""), "Title is too long"},
		{"page slug over limit", validatePage("t", strings.Repeat("s", maxSlugLen+1), ""), "Slug is too long"},
		{"page slug with space", validatePage("t", "launch day", ""), "Slug may only"},
		{"page slug uppercase", validatePage("t", "Launch", ""), "Slug may only"},
		{"page body over limit", validatePage("t", "", strings.Repeat("b", maxBodyLen+1)), "Body is too long"},

		{"promote empty", validatePromote("", "", ""), ""},
		{"promote intro", validatePromote(long(maxIntroLen+1), "", ""), "Intro"},
		{"promote seo title", validatePromote("", long(maxSEOTitleLen+1), ""), "SEO title"},
		{"promote description", validatePromote("", "", long(maxSearchDescLen+1)), "Search description"},

		{"category ok", validateCategory("Nachrichten", "nachrichten", ""), ""},
		{"category generated slug", validateCategory("Nachrichten", "", ""), ""},
		{"category blank name", validateCategory("  ", "news", ""), "Name is required"},
		{"category long name", validateCategory(long(maxCategoryName+1), "", ""), "Name is too long"},
		{"category bad slug", validateCategory("News", "news!", ""), "Slug may only"},
		{"category long description", validateCategory("News", "", long(maxCategoryDesc+1)), "Description"},

		{"analytics ok", validateAnalytics("<script async></script>", "<noscript></noscript>"), ""},
		{"analytics head too big", validateAnalytics(strings.Repeat("x", maxTrackingCode+1), ""), "Tracking code"},
		{"analytics body too big", validateAnalytics("", strings.Repeat("x", maxTrackingCode+1)), "Tracking code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			switch {
			case tt.want == "" && tt.msg != "":
				t.Errorf("unexpected error %q", tt.msg)
			case tt.want != "" && !strings.Contains(tt.msg, tt.want):
				t.Errorf("message = %q, want it to contain %q", tt.msg, tt.want)
			}
		})
	}
}
