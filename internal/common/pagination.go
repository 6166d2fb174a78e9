package common

import (
	"net/http"
	"strconv"
)

// Pagination is the metadata block returned alongside paged lists such
// as the inventory and operational-cost endpoints.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// NewPagination builds the metadata for one page of a list of total items.
func NewPagination(page, perPage, total int) Pagination {
	return Pagination{Page: page, PerPage: perPage, TotalItems: total}
}

// ParsePagination reads the page and limit query parameters. Anything
// missing or non-positive falls back to page 1 and defaultPerPage, so
// plain GET /api/v1/inventory always returns the first page.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		perPage = l
	}
	return
}
