package pagination

import "github.com/Dchole/handymen/internal/apperror"

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params are the caller-supplied paging knobs, defaulted by Normalize.
type Params struct {
	Page  int
	Limit int
}

// Meta is the derived paging block returned next to every list.
type Meta struct {
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// Normalize applies defaults and rejects out-of-range values.
func (p *Params) Normalize() error {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Page < 1 {
		return apperror.Validation("page must be at least 1")
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		return apperror.Validation("limit must be between 1 and 100")
	}
	return nil
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// NewMeta derives page metadata for a total row count.
func NewMeta(p Params, total int) Meta {
	totalPages := total / p.Limit
	if total%p.Limit != 0 {
		totalPages++
	}
	return Meta{
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: p.Page < totalPages,
		HasPrevPage: p.Page > 1,
	}
}
