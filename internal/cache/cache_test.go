// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

func valkeyAddr() (string, string) {
	host, port := os.Getenv("VALKEY_HOST"), os.Getenv("VALKEY_PORT")
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}
	return host, port
}

// testPageCache connects to Valkey and skips the test when it is not
// reachable. Keys are namespaced per test and removed on cleanup.
func testPageCache(t *testing.T, ttl time.Duration) *PageCache {
	t.Helper()

	host, port := valkeyAddr()
	client, err := ConnectValkey(context.Background(), host, port, os.Getenv("VALKEY_PASSWORD"))
	if err != nil {
		t.Skipf("valkey unavailable: %v", err)
	}

	pc := NewPageCache(client, ttl)
	t.Cleanup(func() {
		pc.InvalidateAll(context.Background())
		client.Close()
	})
	return pc
}

func TestPageCacheRoundTrip(t *testing.T) {
	pc := testPageCache(t, time.Minute)
	ctx := context.Background()
	key := Key("example.com", "/blog/"+t.Name()+"/", "")

	if body, ok := pc.Get(ctx, key); ok || body != nil {
		t.Fatalf("Get before Set = %q, %v", body, ok)
	}

	want := "<html><body>Launch day</body></html>"
	pc.Set(ctx, key, []byte(want))

	body, ok := pc.Get(ctx, key)
	if !ok || string(body) != want {
		t.Fatalf("Get = %q, %v; want %q", body, ok, want)
	}

	ttl, err := pc.client.TTL(ctx, pagePrefix+key).Result()
	if err != nil {
		t.Fatal(err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want within (0, 1m]", ttl)
	}
}

func TestPageCacheInvalidateAll(t *testing.T) {
	pc := testPageCache(t, time.Minute)
	ctx := context.Background()

	// More keys than one scan batch.
	keys := make([]string, scanBatch+25)
	for i := range keys {
		keys[i] = Key("example.com", fmt.Sprintf("/blog/a-%d/", i), "")
		pc.Set(ctx, keys[i], []byte("x"))
	}
	other := "session:" + t.Name()
	if err := pc.client.Set(ctx, other, "keep", time.Minute).Err(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { pc.client.Del(context.Background(), other) })

	pc.InvalidateAll(ctx)

	for _, k := range keys {
		if _, ok := pc.Get(ctx, k); ok {
			t.Fatalf("%s survived InvalidateAll", k)
		}
	}
	if n, _ := pc.client.Exists(ctx, other).Result(); n != 1 {
		t.Error("InvalidateAll removed a non-page key")
	}
}

func TestHostname(t *testing.T) {
	tests := map[string]string{
		"example.com":      "example.com",
		"Example.COM:8080": "example.com",
		"[::1]":            "[::1]",
		"[::1]:8080":       "[::1]",
		"127.0.0.1:80":     "127.0.0.1",
	}
	for in, want := range tests {
		if got := Hostname(in); got != want {
			t.Errorf("Hostname(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		host, path, page string
		want             string
	}{
		{"example.com", "/blog/", "", "example.com|/blog/|1"},
		{"Example.COM:8080", "/blog/", "2", "example.com|/blog/|2"},
		{"[::1]:8080", "/de/", "1", "[::1]|/de/|1"},
	}
	for _, tt := range tests {
		if got := Key(tt.host, tt.path, tt.page); got != tt.want {
			t.Errorf("Key(%q, %q, %q) = %q, want %q", tt.host, tt.path, tt.page, got, tt.want)
		}
	}
}

func TestNilPageCache(t *testing.T) {
	var pc *PageCache
	ctx := context.Background()

	pc.Set(ctx, "k", []byte("v"))
	if _, ok := pc.Get(ctx, "k"); ok {
		t.Error("nil cache hit")
	}
	pc.InvalidateAll(ctx)
}

func TestNewPageCacheTTL(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Second} {
		if got := NewPageCache(nil, ttl).ttl; got != DefaultPageTTL {
			t.Errorf("NewPageCache(ttl=%v).ttl = %v", ttl, got)
		}
	}
	if got := NewPageCache(nil, time.Second).ttl; got != time.Second {
		t.Errorf("explicit ttl not kept: %v", got)
	}
}

func TestConnectValkeyRefused(t *testing.T) {
	if _, err := ConnectValkey(context.Background(), "127.0.0.1", "1", ""); err == nil {
		t.Fatal("expected an error for a closed port")
	}
}
