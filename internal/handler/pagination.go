package handler

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/repository"
)

// Paginator reads ?page and ?page_size.  page_size above Max is clamped.
type Paginator struct {
	Default int
	Max     int
}

type pageRequest struct {
	Page int
	Size int
}

func (r pageRequest) Offset() int { return (r.Page - 1) * r.Size }

// Page is the paginated list envelope.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func (p Paginator) parse(c echo.Context) (pageRequest, error) {
	req := pageRequest{Page: 1, Size: p.Default}
	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return req, repository.NewValidationError("page", "invalid page.")
		}
		req.Page = n
	}
	if raw := c.QueryParam("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return req, repository.NewValidationError("page_size", "a positive integer is required.")
		}
		req.Size = n
	}
	if p.Max > 0 && req.Size > p.Max {
		req.Size = p.Max
	}
	return req, nil
}

// build wraps one page of results.  A page past the end is a 404 like
// any other missing resource.
func build[T any](c echo.Context, req pageRequest, count int, results []T) (Page[T], error) {
	if req.Page > 1 && req.Offset() >= count {
		return Page[T]{}, fmt.Errorf("page %d: %w", req.Page, repository.ErrNotFound)
	}
	out := Page[T]{Count: count, Results: results}
	if req.Offset()+len(results) < count {
		out.Next = pageLink(c, req.Page+1)
	}
	if req.Page > 1 {
		out.Previous = pageLink(c, req.Page-1)
	}
	if out.Results == nil {
		out.Results = []T{}
	}
	return out, nil
}

func pageLink(c echo.Context, page int) *string {
	u := url.URL{Scheme: c.Scheme(), Host: c.Request().Host, Path: c.Request().URL.Path}
	q := c.Request().URL.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}
