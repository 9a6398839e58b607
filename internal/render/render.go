// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render executes the embedded admin templates. Boosted HTMX
// navigation receives only the "content" block; everything else gets the
// full layout.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/google/uuid"

	"starling/internal/middleware"
	"starling/internal/session"
)

//go:embed templates/admin/*.html
var adminFS embed.FS

const (
	templateDir  = "templates/admin"
	layoutFile   = templateDir + "/base.html"
	layoutRoot   = "base.html"
	fragmentRoot = "content"
)

// PageData is the value every admin template executes against.
type PageData struct {
	Title     string
	Section   string // sidebar entry to highlight
	Session   *session.Data
	CSRFToken string
	Data      map[string]any
	Flashes   []Flash
}

// Flash is a notice shown above the page content. Type is one of
// success, error, warning or info.
type Flash struct {
	Type    string
	Message string
}

// Renderer holds one compiled template set per admin screen.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// standaloneTemplates carry their own document and skip the layout.
var standaloneTemplates = map[string]bool{
	"login":      true,
	"2fa_setup":  true,
	"2fa_verify": true,
}

func funcs(devMode bool) template.FuncMap {
	return template.FuncMap{
		"activeClass": func(current, target string) string {
			if current != target {
				return ""
			}
			return "active"
		},
		"deref": func(s *string) string {
			if s != nil {
				return *s
			}
			return ""
		},
		"isDev": func() bool { return devMode },
		// indent pads option labels of the parent and page pickers.
		"indent": func(depth int, name string) string {
			if depth < 1 {
				return name
			}
			return strings.Repeat("\u00a0", 3*depth) + name
		},
		"uuidEq": func(ptr *uuid.UUID, val uuid.UUID) bool {
			return ptr != nil && *ptr == val
		},
		"pageIDIn": func(ids []uuid.UUID, id uuid.UUID) bool {
			return slices.Contains(ids, id)
		},
	}
}

// New compiles every screen under templates/admin. Screens other than the
// standalone ones are parsed together with the base layout.
func New(devMode bool) (*Renderer, error) {
	rn := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap:   funcs(devMode),
	}

	files, err := fs.Glob(adminFS, templateDir+"/*.html")
	if err != nil {
		return nil, fmt.Errorf("list admin templates: %w", err)
	}

	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".html")

		set := []string{layoutFile, file}
		if standaloneTemplates[name] {
			set = set[1:]
		}
		tmpl, err := template.New(name).Funcs(rn.funcMap).ParseFS(adminFS, set...)
		if err != nil {
			return nil, fmt.Errorf("parse admin template %s: %w", name, err)
		}
		rn.templates[name] = tmpl
	}

	return rn, nil
}

// Page writes the named screen. The CSRF token and, when unset, the session
// are taken from the request context. Output is buffered so a failing
// template never leaves a half-written page behind.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		slog.Error("admin template missing", "template", name)
		http.Error(w, fmt.Sprintf("admin template %q not found", name), http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	data.CSRFToken = middleware.CSRFTokenFromCtx(ctx)
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(ctx)
	}

	root := layoutRoot
	switch {
	case standaloneTemplates[name]:
		root = name + ".html"
	case isHTMX(r):
		root = fragmentRoot
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, root, data); err != nil {
		slog.Error("execute admin template", "template", name, "root", root, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("write admin page", "template", name, "error", err)
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
