// Package selection holds the in-memory edit state of one entity and the
// rules that turn checkbox toggle batches into pending association sets.
package selection

import (
	"slices"
)

// Toggles is the complete state of a picker widget at the moment of an
// interaction: every listed id mapped to whether it is checked.
type Toggles map[uint]bool

// IDSet is an ascending list of ids without duplicates.
type IDSet []uint

func NewIDSet(ids ...uint) IDSet {
	set := make(IDSet, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		set = append(set, id)
	}
	slices.Sort(set)
	return slices.Compact(set)
}

func (s IDSet) Contains(id uint) bool {
	_, found := slices.BinarySearch(s, id)
	return found
}

func (s IDSet) Union(other IDSet) IDSet {
	merged := make([]uint, 0, len(s)+len(other))
	merged = append(merged, s...)
	merged = append(merged, other...)
	return NewIDSet(merged...)
}

func (s IDSet) Equal(other IDSet) bool {
	return slices.Equal(s, other)
}

// Rebuild treats the batch as authoritative: the result is exactly the
// checked ids.
func Rebuild(toggles Toggles) IDSet {
	ids := make([]uint, 0, len(toggles))
	for id, selected := range toggles {
		if selected {
			ids = append(ids, id)
		}
	}
	return NewIDSet(ids...)
}

// AddNew keeps only checked ids that were not assigned at load time.
// Baseline ids are never part of the result, checked or not.
func AddNew(toggles Toggles, baseline IDSet) IDSet {
	ids := make([]uint, 0, len(toggles))
	for id, selected := range toggles {
		if selected && !baseline.Contains(id) {
			ids = append(ids, id)
		}
	}
	return NewIDSet(ids...)
}
