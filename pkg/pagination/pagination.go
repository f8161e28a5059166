package pagination

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/JaimeStill/smart-ocr/pkg/query"
)

var (
	ErrInvalidPage = errors.New("invalid page parameter")
	ErrInvalidSort = errors.New("invalid sort field")
)

// PageRequest selects one page of a listing.
type PageRequest struct {
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Search   *string           `json:"search,omitempty"`
	Sort     []query.SortField `json:"sort,omitempty"`
}

// Normalize fills zero values from cfg and clamps the page size to
// cfg.MaxPageSize. Requests built in code go through here; requests read
// from a URL are checked by Parser first.
func (r *PageRequest) Normalize(cfg Config) {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = cfg.DefaultPageSize
	}
	if r.PageSize > cfg.MaxPageSize {
		r.PageSize = cfg.MaxPageSize
	}
}

// Parser reads page requests for a single listing. Only the fields the
// listing declares sortable may appear in sort.
type Parser struct {
	cfg         Config
	sortable    map[string]struct{}
	defaultSort []query.SortField
}

func NewParser(cfg Config, defaultSort []query.SortField, sortable ...string) *Parser {
	p := &Parser{
		cfg:         cfg,
		sortable:    make(map[string]struct{}, len(sortable)),
		defaultSort: defaultSort,
	}
	for _, f := range sortable {
		p.sortable[f] = struct{}{}
	}
	return p
}

// Parse reads page, page_size, search and sort from values. Malformed
// numbers and unknown sort fields are rejected; an oversized page_size is
// clamped. Without a sort parameter the listing's default order applies.
func (p *Parser) Parse(values url.Values) (PageRequest, error) {
	page, err := positive(values, "page")
	if err != nil {
		return PageRequest{}, err
	}
	size, err := positive(values, "page_size")
	if err != nil {
		return PageRequest{}, err
	}

	req := PageRequest{Page: page, PageSize: size}

	if s := strings.TrimSpace(values.Get("search")); s != "" {
		req.Search = &s
	}

	req.Sort = query.ParseSortFields(values.Get("sort"))
	for _, f := range req.Sort {
		if _, ok := p.sortable[f.Field]; !ok {
			return PageRequest{}, fmt.Errorf("%w: %s", ErrInvalidSort, f.Field)
		}
	}
	if len(req.Sort) == 0 {
		req.Sort = p.defaultSort
	}

	req.Normalize(p.cfg)
	return req, nil
}

// positive returns 0 when key is absent.
func positive(values url.Values, key string) (int, error) {
	raw := values.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidPage, key, raw)
	}
	return n, nil
}

// PageResult holds a page of data along with pagination metadata.
type PageResult[T any] struct {
	Data        []T  `json:"data"`
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// NewPageResult wraps one page of data for req. An empty listing still
// reports a single page.
func NewPageResult[T any](data []T, total int, req PageRequest) PageResult[T] {
	totalPages := 1
	if req.PageSize > 0 && total > 0 {
		totalPages = (total + req.PageSize - 1) / req.PageSize
	}

	if data == nil {
		data = []T{}
	}

	return PageResult[T]{
		Data:        data,
		Total:       total,
		Page:        req.Page,
		PageSize:    req.PageSize,
		TotalPages:  totalPages,
		HasNext:     req.Page < totalPages,
		HasPrevious: req.Page > 1,
	}
}
