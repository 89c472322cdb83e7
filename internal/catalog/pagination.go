package catalog

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"stockfeed/internal/model"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

var ErrInvalidPage = errors.New("catalog: invalid pagination")

// PageRequest is a 1-based page number and a page size.
type PageRequest struct {
	Page     int
	PageSize int
}

// ParsePageRequest reads page and pageSize values; blanks take the defaults.
func ParsePageRequest(page, pageSize string) (PageRequest, error) {
	p, err := parsePositive("page", page, DefaultPage)
	if err != nil {
		return PageRequest{}, err
	}
	size, err := parsePositive("pageSize", pageSize, DefaultPageSize)
	if err != nil {
		return PageRequest{}, err
	}
	req := PageRequest{Page: p, PageSize: size}
	return req, req.validate()
}

func parsePositive(name, raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidPage, name)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: %s must be greater than zero", ErrInvalidPage, name)
	}
	return v, nil
}

func (r PageRequest) normalized() PageRequest {
	if r.Page <= 0 {
		r.Page = DefaultPage
	}
	if r.PageSize <= 0 {
		r.PageSize = DefaultPageSize
	}
	return r
}

func (r PageRequest) validate() error {
	r = r.normalized()
	if r.Page-1 > math.MaxInt32/r.PageSize {
		return fmt.Errorf("%w: page out of range", ErrInvalidPage)
	}
	return nil
}

// Window converts the request into the store's skip/take window.
func (r PageRequest) Window() model.Page {
	r = r.normalized()
	return model.Page{Offset: (r.Page - 1) * r.PageSize, Limit: r.PageSize}
}

// TotalPages is the number of pages needed for total rows.
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
