package pagination

import (
	"testing"

	"github.com/Dchole/handymen/internal/apperror"
)

func TestNormalizeDefaults(t *testing.T) {
	p := Params{}
	if err := p.Normalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Page != 1 || p.Limit != DefaultLimit {
		t.Errorf("defaults = page %d limit %d, want 1 and %d", p.Page, p.Limit, DefaultLimit)
	}
}

func TestNormalizeRejectsOutOfRange(t *testing.T) {
	cases := []Params{
		{Page: -1, Limit: 10},
		{Page: 1, Limit: -5},
		{Page: 1, Limit: 101},
	}
	for _, p := range cases {
		err := p.Normalize()
		if !apperror.IsKind(err, apperror.KindValidation) {
			t.Errorf("Normalize(%+v) = %v, want validation error", p, err)
		}
	}
}

func TestOffset(t *testing.T) {
	p := Params{Page: 3, Limit: 10}
	if got := p.Offset(); got != 20 {
		t.Errorf("Offset = %d, want 20", got)
	}
}

func TestMetaSecondPageOfFifteen(t *testing.T) {
	p := Params{Page: 2, Limit: 10}
	meta := NewMeta(p, 15)

	if meta.TotalPages != 2 {
		t.Errorf("TotalPages = %d, want 2", meta.TotalPages)
	}
	if meta.HasNextPage {
		t.Error("HasNextPage = true, want false")
	}
	if !meta.HasPrevPage {
		t.Error("HasPrevPage = false, want true")
	}
	if meta.Total != 15 {
		t.Errorf("Total = %d, want 15", meta.Total)
	}
}

func TestMetaEmptyResult(t *testing.T) {
	meta := NewMeta(Params{Page: 1, Limit: 10}, 0)
	if meta.TotalPages != 0 || meta.HasNextPage || meta.HasPrevPage {
		t.Errorf("unexpected meta for empty result: %+v", meta)
	}
}
