package dto

import (
	"net/url"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListParams are the limit/offset query parameters. A nil Limit means the
// whole collection is returned as a bare array.
type ListParams struct {
	Limit  *int
	Offset int
	Search string
}

// Paginated reports whether the caller asked for an envelope.
func (p ListParams) Paginated() bool {
	return p.Limit != nil
}

// PageParams are the page-number query parameters used by title lists.
type PageParams struct {
	Page     int
	PageSize int
}

func (p PageParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page is the list envelope shared by both pagination styles.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewLimitOffsetPage builds the envelope for a limit/offset request whose
// absolute URL is base.
func NewLimitOffsetPage[T any](base *url.URL, results []T, count int64, limit, offset int) Page[T] {
	page := Page[T]{Count: count, Results: results}
	if int64(offset+limit) < count {
		page.Next = withQuery(base, map[string]string{
			"limit":  strconv.Itoa(limit),
			"offset": strconv.Itoa(offset + limit),
		})
	}
	if offset > 0 {
		if offset-limit <= 0 {
			page.Previous = withQuery(base, map[string]string{"limit": strconv.Itoa(limit), "offset": ""})
		} else {
			page.Previous = withQuery(base, map[string]string{
				"limit":  strconv.Itoa(limit),
				"offset": strconv.Itoa(offset - limit),
			})
		}
	}
	return page
}

// NewPageNumberPage builds the envelope for a page/page_size request.
func NewPageNumberPage[T any](base *url.URL, results []T, count int64, p PageParams) Page[T] {
	page := Page[T]{Count: count, Results: results}
	if int64(p.Page*p.PageSize) < count {
		page.Next = withQuery(base, map[string]string{"page": strconv.Itoa(p.Page + 1)})
	}
	if p.Page > 1 {
		prev := ""
		if p.Page > 2 {
			prev = strconv.Itoa(p.Page - 1)
		}
		page.Previous = withQuery(base, map[string]string{"page": prev})
	}
	return page
}

// withQuery returns base with the given params set; an empty value removes the param.
func withQuery(base *url.URL, params map[string]string) *string {
	u := *base
	q := u.Query()
	for k, v := range params {
		if v == "" {
			q.Del(k)
			continue
		}
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}
