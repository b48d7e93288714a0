// Package pagination builds length-aware page payloads for list endpoints.
package pagination

import (
	"net/url"
	"strconv"
)

// onEachSide is how many numbered links surround the current page before
// the link set collapses into "..." gaps.
const onEachSide = 3

// MaxPage is the largest page number a request can ask for.
const MaxPage = 1_000_000

// Params are the coerced page and page size of a request.
type Params struct {
	Page    int
	PerPage int
}

// ParseParams reads "page" and "per_page" from a query string. Missing or
// invalid values fall back to page 1 and defaultPerPage (at least 1); page
// is capped at MaxPage and per_page at maxPerPage when maxPerPage > 0.
func ParseParams(q url.Values, defaultPerPage, maxPerPage int) Params {
	if defaultPerPage < 1 {
		defaultPerPage = 1
	}
	p := Params{
		Page:    positiveInt(q.Get("page"), 1),
		PerPage: positiveInt(q.Get("per_page"), defaultPerPage),
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if maxPerPage > 0 && p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	return p
}

func positiveInt(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Link is one entry of a page navigation control.
type Link struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Active bool    `json:"active"`
}

// Page is one page of a listing plus everything needed to navigate it.
type Page[T any] struct {
	CurrentPage  int     `json:"current_page"`
	Data         []T     `json:"data"`
	FirstPageURL string  `json:"first_page_url"`
	From         *int    `json:"from"`
	LastPage     int     `json:"last_page"`
	LastPageURL  string  `json:"last_page_url"`
	Links        []Link  `json:"links"`
	NextPageURL  *string `json:"next_page_url"`
	Path         string  `json:"path"`
	PerPage      int     `json:"per_page"`
	PrevPageURL  *string `json:"prev_page_url"`
	To           *int    `json:"to"`
	Total        int64   `json:"total"`
}

// New assembles a Page. base is the request URL; its query string is kept
// on every generated link with "page" replaced. A page past the last one
// has no data.
func New[T any](items []T, total int64, p Params, base *url.URL) Page[T] {
	if p.PerPage < 1 {
		p.PerPage = 1
	}
	if p.Page < 1 {
		p.Page = 1
	}
	lastPage := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if lastPage < 1 {
		lastPage = 1
	}
	if items == nil || p.Page > lastPage {
		items = []T{}
	}

	b := builder{base: base}
	page := Page[T]{
		CurrentPage:  p.Page,
		Data:         items,
		FirstPageURL: b.url(1),
		LastPage:     lastPage,
		LastPageURL:  b.url(lastPage),
		Path:         b.path(),
		PerPage:      p.PerPage,
		Total:        total,
	}

	if len(items) > 0 {
		from := (p.Page-1)*p.PerPage + 1
		to := from + len(items) - 1
		page.From, page.To = &from, &to
	}
	if p.Page > 1 {
		prev := b.url(p.Page - 1)
		page.PrevPageURL = &prev
	}
	if p.Page < lastPage {
		next := b.url(p.Page + 1)
		page.NextPageURL = &next
	}

	page.Links = append(page.Links, Link{URL: page.PrevPageURL, Label: "&laquo; Previous"})
	for _, n := range Window(p.Page, lastPage) {
		if n == 0 {
			page.Links = append(page.Links, Link{Label: "..."})
			continue
		}
		u := b.url(n)
		page.Links = append(page.Links, Link{URL: &u, Label: strconv.Itoa(n), Active: n == p.Page})
	}
	page.Links = append(page.Links, Link{URL: page.NextPageURL, Label: "Next &raquo;"})

	return page
}

// Window returns the page numbers to link for the given position. A zero
// marks a gap.
func Window(current, last int) []int {
	window := onEachSide * 2
	if last < window+8 {
		return span(1, last)
	}

	var out []int
	switch {
	case current <= window:
		out = append(span(1, window+2), 0)
		out = append(out, last-1, last)
	case current > last-window:
		out = []int{1, 2, 0}
		out = append(out, span(last-(window+2)+1, last)...)
	default:
		out = []int{1, 2, 0}
		out = append(out, span(current-onEachSide, current+onEachSide)...)
		out = append(out, 0, last-1, last)
	}
	return out
}

func span(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

type builder struct {
	base *url.URL
}

func (b builder) path() string {
	if b.base == nil {
		return ""
	}
	u := *b.base
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func (b builder) url(page int) string {
	var u url.URL
	if b.base != nil {
		u = *b.base
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String()
}
