package pagination

import "strconv"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Meta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

type Page[T any] struct {
	Data []T `json:"data"`
	Meta Meta `json:"meta"`
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func Calculate(page, size int) (offset int, limit int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return (page - 1) * size, size
}

func NewMeta(page, size int, total int64) Meta {
	offset, limit := Calculate(page, size)
	if page < 1 {
		page = 1
	}
	return Meta{
		Page:       page,
		Size:       limit,
		Total:      total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
		HasPrev:    page > 1,
		HasNext:    int64(offset+limit) < total,
	}
}

func New[T any](items []T, page, size int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Data: items, Meta: NewMeta(page, size, total)}
}
