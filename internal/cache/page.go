// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPageTTL bounds how long a rendered public page is served from cache.
const DefaultPageTTL = 5 * time.Minute

const (
	pagePrefix = "page:"
	scanBatch  = 100
)

// PageCache stores rendered public HTML in Valkey, keyed by Key. The nil
// *PageCache never hits, so callers need no separate "cache disabled" path.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache returns a cache on client. A zero ttl means DefaultPageTTL.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Hostname reduces a Host header to the lowercase name used for site lookup.
func Hostname(host string) string {
	host = strings.ToLower(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		if strings.Contains(h, ":") {
			return "[" + h + "]"
		}
		return h
	}
	return host
}

// Key identifies one rendered response. "page=" and no page parameter both
// address page 1.
func Key(host, path, page string) string {
	if page == "" {
		page = "1"
	}
	return strings.Join([]string{Hostname(host), path, page}, "|")
}

// Get returns the cached body for key. Errors count as misses.
func (pc *PageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if pc == nil {
		return nil, false
	}
	body, err := pc.client.Get(ctx, pagePrefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false
	case err != nil:
		slog.Warn("page cache read", "key", key, "error", err)
		return nil, false
	}
	return body, true
}

// Set stores body under key.
func (pc *PageCache) Set(ctx context.Context, key string, body []byte) {
	if pc == nil {
		return
	}
	if err := pc.client.Set(ctx, pagePrefix+key, body, pc.ttl).Err(); err != nil {
		slog.Warn("page cache write", "key", key, "error", err)
	}
}

// InvalidateAll drops every cached page. A category rename or a slug change
// moves URLs of pages other than the edited one, so admin writes never try
// to work out which entries are affected.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	if pc == nil {
		return
	}

	var (
		batch   = make([]string, 0, scanBatch)
		removed int64
	)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		n, err := pc.client.Unlink(ctx, batch...).Result()
		if err != nil {
			slog.Warn("page cache unlink", "keys", len(batch), "error", err)
		}
		removed += n
		batch = batch[:0]
	}

	iter := pc.client.Scan(ctx, 0, pagePrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			flush()
		}
	}
	flush()
	if err := iter.Err(); err != nil {
		slog.Warn("page cache scan", "error", err)
	}

	slog.Debug("page cache cleared", "removed", removed)
}
