package hunt

import (
	"errors"
	"slices"
)

var (
	ErrNoStart    = errors.New("no start location configured")
	ErrNoEnd      = errors.New("no end location configured")
	ErrStartIsEnd = errors.New("start and end location must differ")
)

// LocationSet is a session's locations split the way GeneratePaths
// expects them.
type LocationSet struct {
	Start         Location
	End           Location
	Intermediates []Location
}

// ValidateLocations checks that locs has a start and an end that are
// different locations and partitions them. Intermediates come back in
// OrderIndex order. The input slice is not modified.
func ValidateLocations(locs []Location) (LocationSet, error) {
	sorted := slices.Clone(locs)
	slices.SortStableFunc(sorted, func(a, b Location) int {
		return a.OrderIndex - b.OrderIndex
	})

	var (
		set              LocationSet
		hasStart, hasEnd bool
	)
	for _, l := range sorted {
		if l.IsStart && !hasStart {
			set.Start, hasStart = l, true
		}
		if l.IsEnd && !hasEnd {
			set.End, hasEnd = l, true
		}
	}

	if !hasStart {
		return LocationSet{}, ErrNoStart
	}
	if !hasEnd {
		return LocationSet{}, ErrNoEnd
	}
	if set.Start.ID == set.End.ID {
		return LocationSet{}, ErrStartIsEnd
	}

	set.Intermediates = []Location{}
	for _, l := range sorted {
		if l.IsStart || l.IsEnd {
			continue
		}
		set.Intermediates = append(set.Intermediates, l)
	}
	return set, nil
}
