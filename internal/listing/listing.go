// Package listing implements the filter-then-paginate pattern used by every
// list screen: a case-insensitive substring filter over a few text fields,
// then fixed-size pages.
package listing

import (
	"net/url"
	"strconv"
	"strings"
)

// Page sizes per screen.
const (
	MoviesPageSize     = 10
	AdminFilmsPageSize = 10
	AdminUsersPageSize = 10
	NewsPageSize       = 20
)

// Page - страница отфильтрованной коллекции
type Page[T any] struct {
	Items      []T    `json:"items"`
	Query      string `json:"query,omitempty"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalItems int    `json:"total_items"`
	TotalPages int    `json:"total_pages"`
}

// State is the filter text and the current page of one list screen.
type State struct {
	Query string
	Page  int
}

// SetQuery changes the filter text. A different text resets to page 1.
func (s *State) SetQuery(q string) {
	q = strings.TrimSpace(q)
	if q != s.Query {
		s.Query = q
		s.Page = 1
	}
}

func (s *State) SetPage(p int) {
	if p < 1 {
		p = 1
	}
	s.Page = p
}

// ParseState builds the state of a request. prevQuery is the filter the
// client paginated with; when q differs from it the page resets to 1.
func ParseState(q, prevQuery, page string) State {
	st := State{Query: strings.TrimSpace(prevQuery), Page: 1}
	if p, err := strconv.Atoi(page); err == nil {
		st.SetPage(p)
	}
	st.SetQuery(q)
	return st
}

// StateFromQuery reads q, prev_q and page from v. A request without prev_q
// keeps its page, as if the filter did not change.
func StateFromQuery(v url.Values) State {
	q := v.Get("q")
	prev := q
	if _, ok := v["prev_q"]; ok {
		prev = v.Get("prev_q")
	}
	return ParseState(q, prev, v.Get("page"))
}

// Filter keeps items where any of fields(item) contains query, ignoring case.
// An empty query keeps everything.
func Filter[T any](items []T, query string, fields func(T) []string) []T {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}

	result := make([]T, 0, len(items))
	for _, item := range items {
		for _, f := range fields(item) {
			if strings.Contains(strings.ToLower(f), query) {
				result = append(result, item)
				break
			}
		}
	}
	return result
}

// Paginate slices items into pages of pageSize. The page is clamped into
// [1, TotalPages]; an empty collection has one empty page.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = 1
	}

	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}

	pageItems := make([]T, 0, end-start)
	pageItems = append(pageItems, items[start:end]...)

	return Page[T]{
		Items:      pageItems,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

// Apply filters items by the state query and returns the state page.
func Apply[T any](items []T, st State, pageSize int, fields func(T) []string) Page[T] {
	p := Paginate(Filter(items, st.Query, fields), st.Page, pageSize)
	p.Query = st.Query
	return p
}
