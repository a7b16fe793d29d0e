package paging

import (
	"net/url"
	"strconv"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Request is a 1-based page selection.
type Request struct {
	Page    int
	PerPage int
}

// Normalize clamps the request into usable bounds.
func (r Request) Normalize(defaultPerPage, maxPerPage int) Request {
	if defaultPerPage <= 0 {
		defaultPerPage = DefaultPerPage
	}
	if maxPerPage <= 0 {
		maxPerPage = MaxPerPage
	}
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PerPage <= 0 {
		r.PerPage = defaultPerPage
	}
	if r.PerPage > maxPerPage {
		r.PerPage = maxPerPage
	}
	return r
}

func (r Request) Offset() int {
	if r.Page < 1 {
		return 0
	}
	return (r.Page - 1) * r.PerPage
}

// FromQuery reads page and per_page. Unparsable values fall back to defaults.
func FromQuery(q url.Values) Request {
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return Request{Page: page, PerPage: perPage}
}

// Page is one slice of a listing.
type Page[T any] struct {
	Items   []T `json:"items"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
	Page    int `json:"current_page"`
	PerPage int `json:"per_page"`
}

// NewPage builds a page for items fetched with req out of total rows.
func NewPage[T any](items []T, total int, req Request) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if req.PerPage > 0 {
		pages = (total + req.PerPage - 1) / req.PerPage
	}
	return Page[T]{Items: items, Total: total, Pages: pages, Page: req.Page, PerPage: req.PerPage}
}

// Slice cuts an in-memory result set down to req.
func Slice[T any](all []T, req Request) []T {
	start := req.Offset()
	if start >= len(all) {
		return []T{}
	}
	end := start + req.PerPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
