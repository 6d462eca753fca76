// Package page holds limit/skip pagination.
package page

import (
	"fmt"

	"github.com/kailas-cloud/minicompass/internal/domain"
)

// Defaults applied when a request leaves pagination unset.
const (
	DefaultLimit = 50
	DefaultSkip  = 0
)

// Page selects a window of results: skip documents first, then keep at most limit.
type Page struct {
	limit int
	skip  int
}

// New validates limit and skip. A limit of zero means DefaultLimit;
// limits above maxLimit are capped (maxLimit <= 0 disables the cap).
func New(limit, skip, maxLimit int) (Page, error) {
	if limit < 0 {
		return Page{}, fmt.Errorf("limit must not be negative: %w", domain.ErrInvalidArgument)
	}
	if skip < 0 {
		return Page{}, fmt.Errorf("skip must not be negative: %w", domain.ErrInvalidArgument)
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return Page{limit: limit, skip: skip}, nil
}

// Default returns the default page.
func Default() Page { return Page{limit: DefaultLimit, skip: DefaultSkip} }

// Limit returns the maximum number of results.
func (p Page) Limit() int { return p.limit }

// Skip returns the number of leading results to drop.
func (p Page) Skip() int { return p.skip }

// Bounds returns the [start, end) slice bounds for a result set of length n.
func (p Page) Bounds(n int) (start, end int) {
	start = min(p.skip, n)
	end = n
	if p.limit > 0 {
		end = min(start+p.limit, n)
	}
	return start, end
}

// Apply returns the window of items selected by p.
func Apply[T any](p Page, items []T) []T {
	start, end := p.Bounds(len(items))
	return items[start:end]
}
