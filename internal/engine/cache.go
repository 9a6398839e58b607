package engine

import (
	"html/template"
	"log/slog"
	"sync"
)

// cacheKey identifies one compiled template set. The version is derived
// from the modification times of its source files, so editing an override
// in TEMPLATE_DIR produces a miss.
type cacheKey struct {
	name    string
	version int64
}

// templateCache is a concurrency-safe in-memory cache of compiled templates.
// It keeps at most one version per name.
type templateCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*template.Template
}

func newTemplateCache() *templateCache {
	return &templateCache{
		entries: make(map[cacheKey]*template.Template),
	}
}

// get retrieves a compiled template from cache. Returns nil on miss.
func (c *templateCache) get(name string, version int64) *template.Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[cacheKey{name: name, version: version}]
}

// put stores a compiled template, replacing any other version of name.
func (c *templateCache) put(name string, version int64, tmpl *template.Template) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.name == name {
			delete(c.entries, k)
		}
	}
	c.entries[cacheKey{name: name, version: version}] = tmpl
	slog.Debug("template cached", "name", name, "version", version, "size", len(c.entries))
}

// invalidateAll clears the entire cache.
func (c *templateCache) invalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]*template.Template)
	slog.Debug("template cache cleared")
}

func (c *templateCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
