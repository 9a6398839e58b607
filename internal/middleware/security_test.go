// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSecureHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecureHeaders(http.NotFoundHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, kv := range securityHeaders {
		if got := w.Header().Get(kv[0]); got != kv[1] {
			t.Errorf("%s = %q, want %q", kv[0], got, kv[1])
		}
	}
	if got := w.Header().Get("Content-Security-Policy"); got != "" {
		t.Errorf("unexpected CSP %q", got)
	}
}

func TestNoStore(t *testing.T) {
	w := httptest.NewRecorder()
	NoStore(http.NotFoundHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/", nil))

	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
}
