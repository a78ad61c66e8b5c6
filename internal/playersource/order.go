package playersource

import "sort"

// Direction indicates which way a source moves in the resolution order.
type Direction string

// Reorder directions.
const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Valid reports whether the direction is one of the known values.
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// SortByPriority returns a copy of sources ordered by ascending priority.
// The sort is stable so slice order breaks priority ties.
func SortByPriority(sources []Source) []Source {
	sorted := make([]Source, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return sorted
}

// NextPriority returns the priority a newly added source should get:
// one past the highest existing priority, or 1 for an empty collection.
func NextPriority(sources []Source) int {
	max := 0
	for _, s := range sources {
		if s.Priority() > max {
			max = s.Priority()
		}
	}
	return max + 1
}

// Reorder moves the source with the given id one position up or down in the
// ascending-priority order and renumbers every source's priority to a dense
// 1..N sequence following the new order.
//
// Moving the first source up or the last source down is a no-op: the input
// order is returned unchanged and the changed flag is false. Returns
// ErrSourceNotFound if no source has the given id.
func Reorder(sources []Source, id string, dir Direction) ([]Source, bool, error) {
	sorted := SortByPriority(sources)

	idx := -1
	for i, s := range sorted {
		if s.ID() == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, false, ErrSourceNotFound
	}

	target := idx - 1
	if dir == DirectionDown {
		target = idx + 1
	}
	if target < 0 || target >= len(sorted) {
		return sorted, false, nil
	}

	sorted[idx], sorted[target] = sorted[target], sorted[idx]

	for i := range sorted {
		sorted[i] = sorted[i].WithPriority(i + 1)
	}

	return sorted, true, nil
}
