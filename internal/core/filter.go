package core

import (
	"errors"
	"fmt"
)

// DateCompare selects how a DateRange is compared against stored dates.
type DateCompare string

const (
	// CompareChronological compares real calendar dates.
	CompareChronological DateCompare = "chronological"
	// CompareLexical compares the stored DD/MM/YYYY text as plain strings.
	// It does not sort across month or year boundaries and exists for
	// compatibility with ledgers that relied on that ordering.
	CompareLexical DateCompare = "lexical"
)

func (c DateCompare) Valid() bool {
	return c == CompareChronological || c == CompareLexical
}

// DateRange is an inclusive [Start, End] pair of DD/MM/YYYY dates.
type DateRange struct {
	Start string
	End   string
}

// Filter narrows a movement query. Zero-valued fields are ignored and the
// remaining ones are ANDed.
type Filter struct {
	Account string
	Kind    Kind
	Range   *DateRange
	Compare DateCompare
}

var (
	ErrInvalidRange   = errors.New("date range start is after end")
	ErrInvalidCompare = errors.New("date compare must be 'chronological' or 'lexical'")
)

// Validate reports malformed filter values. A reversed chronological range
// is rejected; a reversed lexical range simply matches nothing.
func (f Filter) Validate() error {
	if f.Kind != "" && !f.Kind.Valid() {
		return ErrInvalidKind
	}
	if f.Compare != "" && !f.Compare.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCompare, f.Compare)
	}
	if f.Range == nil {
		return nil
	}
	start, err := DateKey(f.Range.Start)
	if err != nil {
		return err
	}
	end, err := DateKey(f.Range.End)
	if err != nil {
		return err
	}
	if f.CompareMode() == CompareChronological && start > end {
		return ErrInvalidRange
	}
	return nil
}

// CompareMode returns the effective comparison, defaulting to chronological.
func (f Filter) CompareMode() DateCompare {
	if f.Compare == "" {
		return CompareChronological
	}
	return f.Compare
}
