// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package paginate splits an ordered result set into numbered pages.
package paginate

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidPage is returned for page numbers that are not integers, are
// below one, or lie past the last page.
var ErrInvalidPage = errors.New("invalid page")

// windowRadius is how many page links are shown on each side of the
// current page.
const windowRadius = 2

// Paginator describes one page of a result set.
type Paginator struct {
	Number   int // current page, 1-based
	PerPage  int
	Total    int // items across all pages
	NumPages int
}

// ParseNumber converts a raw query value into a page number. An empty
// value means the first page.
func ParseNumber(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ErrInvalidPage
	}
	return n, nil
}

// New builds a paginator for total items. An empty result set still has a
// first page; any other number past the last page is invalid.
func New(total, perPage, number int) (*Paginator, error) {
	if perPage < 1 {
		perPage = 1
	}
	numPages := (total + perPage - 1) / perPage
	if numPages == 0 {
		numPages = 1
	}
	if number < 1 || number > numPages {
		return nil, ErrInvalidPage
	}
	return &Paginator{
		Number:   number,
		PerPage:  perPage,
		Total:    total,
		NumPages: numPages,
	}, nil
}

// Offset returns the index of the first item on the current page.
func (p *Paginator) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// StartIndex returns the 1-based position of the first item on the page,
// or 0 for an empty result set.
func (p *Paginator) StartIndex() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndIndex returns the 1-based position of the last item on the page.
func (p *Paginator) EndIndex() int {
	return min(p.Offset()+p.PerPage, p.Total)
}

func (p *Paginator) HasNext() bool     { return p.Number < p.NumPages }
func (p *Paginator) HasPrevious() bool { return p.Number > 1 }
func (p *Paginator) HasOtherPages() bool {
	return p.HasNext() || p.HasPrevious()
}

func (p *Paginator) NextNumber() int     { return p.Number + 1 }
func (p *Paginator) PreviousNumber() int { return p.Number - 1 }

// Window returns the page numbers to link to around the current page.
func (p *Paginator) Window() []int {
	first := max(1, p.Number-windowRadius)
	last := min(p.NumPages, p.Number+windowRadius)
	pages := make([]int, 0, last-first+1)
	for n := first; n <= last; n++ {
		pages = append(pages, n)
	}
	return pages
}
