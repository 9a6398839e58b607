// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pagetree holds the structural pages of one site locale (home,
// article indexes and basic pages) as an in-memory tree and maps URL path
// components onto it.
package pagetree

import (
	"sort"

	"github.com/google/uuid"

	"starling/internal/models"
)

// Node is a page in the tree together with its computed URL path.
type Node struct {
	Page     *models.Page
	Parent   *Node
	Children []*Node
	Path     string // always starts and ends with "/"
	Depth    int    // 0 for the locale root
}

// Tree is the structural page tree for one locale of a site.
type Tree struct {
	root   *Node
	prefix string
	byID   map[uuid.UUID]*Node
}

// Build assembles a tree from root and the candidate pages. Pages whose
// parent chain does not reach root are ignored, as are articles and
// anything below an article index, since the index routes everything
// beneath it. Children keep the order of pages.
func Build(root *models.Page, locale models.Locale, pages []*models.Page) *Tree {
	t := &Tree{
		prefix: locale.Prefix(),
		byID:   make(map[uuid.UUID]*Node),
	}
	t.root = &Node{Page: root, Path: t.prefix + "/"}
	t.byID[root.ID] = t.root

	children := make(map[uuid.UUID][]*models.Page)
	for _, p := range pages {
		if p.ParentID == nil || p.ID == root.ID || p.IsArticle() {
			continue
		}
		children[*p.ParentID] = append(children[*p.ParentID], p)
	}

	queue := []*Node{t.root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.Page.IsIndex() && n != t.root {
			continue
		}
		for _, p := range children[n.Page.ID] {
			if _, seen := t.byID[p.ID]; seen {
				continue
			}
			c := &Node{
				Page:   p,
				Parent: n,
				Path:   n.Path + p.Slug + "/",
				Depth:  n.Depth + 1,
			}
			n.Children = append(n.Children, c)
			t.byID[p.ID] = c
			queue = append(queue, c)
		}
	}
	return t
}

// Root returns the locale root node.
func (t *Tree) Root() *Node { return t.root }

// Prefix returns the locale URL prefix ("" for the default locale).
func (t *Tree) Prefix() string { return t.prefix }

// Find returns the node for a page id, or nil.
func (t *Tree) Find(id uuid.UUID) *Node {
	return t.byID[id]
}

// Path returns the URL path of a structural page.
func (t *Tree) Path(id uuid.UUID) (string, bool) {
	n := t.byID[id]
	if n == nil {
		return "", false
	}
	return n.Path, true
}

// Walk follows components from the root by exact slug. It stops early at
// the first article index and returns the components left over for the
// index to route. A component with no matching child yields a nil node.
func (t *Tree) Walk(components []string) (*Node, []string) {
	n := t.root
	for i, c := range components {
		if n.Page.IsIndex() {
			return n, components[i:]
		}
		n = n.child(c)
		if n == nil {
			return nil, nil
		}
	}
	return n, nil
}

func (n *Node) child(slug string) *Node {
	for _, c := range n.Children {
		if c.Page.Slug == slug {
			return c
		}
	}
	return nil
}

// Nodes returns every node in depth-first order, children sorted by title.
func (t *Tree) Nodes() []*Node {
	var out []*Node
	var visit func(n *Node)
	visit = func(n *Node) {
		out = append(out, n)
		kids := append([]*Node(nil), n.Children...)
		sort.SliceStable(kids, func(i, j int) bool {
			return kids[i].Page.Title < kids[j].Page.Title
		})
		for _, c := range kids {
			visit(c)
		}
	}
	visit(t.root)
	return out
}

// Indexes returns the article index nodes of the tree.
func (t *Tree) Indexes() []*Node {
	var out []*Node
	for _, n := range t.Nodes() {
		if n.Page.IsIndex() {
			out = append(out, n)
		}
	}
	return out
}
