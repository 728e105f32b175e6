package pagination

import "math"

const (
	// DefaultPageSize applies when a caller passes a non-positive size.
	DefaultPageSize = 10
	// MaxPageSize caps how many rows any page query can request.
	MaxPageSize = 100
)

// Params holds 1-indexed page inputs from controllers or services.
type Params struct {
	Page     int
	PageSize int
}

// Normalize clamps size to [1, MaxPageSize] and page to [1, MaxPage(size)].
func Normalize(page, size int) Params {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if limit := MaxPage(size); page > limit {
		page = limit
	}
	return Params{Page: page, PageSize: size}
}

// MaxPage is the largest page whose offset still fits in an int. Clamped
// pages lie far past any real row count, so they stay empty.
func MaxPage(size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	return math.MaxInt / size
}

// Offset returns the number of rows to skip for the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TotalPages is ceil(total/size); zero rows means zero pages.
func TotalPages(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// HasPrev reports whether a previous page exists.
func HasPrev(page int) bool {
	return page > 1
}

// HasNext reports whether a page follows the given one.
func HasNext(page, totalPages int) bool {
	return page < totalPages
}
