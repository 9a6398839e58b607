package models

import "testing"

func TestSiteSettingsPositiveInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		set   bool
		want  int
	}{
		{name: "missing", set: false, want: 10},
		{name: "valid", value: "25", set: true, want: 25},
		{name: "padded", value: " 7 ", set: true, want: 7},
		{name: "zero", value: "0", set: true, want: 10},
		{name: "negative", value: "-3", set: true, want: 10},
		{name: "malformed", value: "ten", set: true, want: 10},
		{name: "empty", value: "", set: true, want: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := SiteSettings{}
			if tt.set {
				s[SettingArticlesPerPage] = tt.value
			}
			if got := s.PositiveInt(SettingArticlesPerPage, 10); got != tt.want {
				t.Errorf("PositiveInt() = %d, want %d", got, tt.want)
			}
		})
	}
}
