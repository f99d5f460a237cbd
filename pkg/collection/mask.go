package collection

import (
	"fmt"
	"slices"
)

// SortedDeletionList returns a sorted copy of list after checking every
// index is within [0, size) and appears once.
func SortedDeletionList(list []int, size int, group string) []int {
	sorted := slices.Clone(list)
	slices.Sort(sorted)
	for i, v := range sorted {
		if v < 0 || v >= size {
			panic(fmt.Errorf("%w: %s[%d] with %d rows", ErrIndexOutOfRange, group, v, size))
		}
		if i > 0 && sorted[i-1] == v {
			panic(fmt.Errorf("%w: %s[%d]", ErrDuplicateIndex, group, v))
		}
	}
	return sorted
}

// BuildIncrementMask returns, for every index below size, the number of
// deleted indices strictly below it. sorted must be ascending.
func BuildIncrementMask(sorted []int, size int) []int {
	mask := make([]int, size)
	del := 0
	for i := 0; i < size; i++ {
		mask[i] = del
		if del < len(sorted) && sorted[del] == i {
			del++
		}
	}
	return mask
}

// RemovalMap maps every old index to its index after deleting sorted, or to
// Invalid for the deleted ones.
func RemovalMap(sorted []int, size int) []int32 {
	mask := BuildIncrementMask(sorted, size)
	oldToNew := make([]int32, size)
	del := 0
	for i := range oldToNew {
		if del < len(sorted) && sorted[del] == i {
			oldToNew[i] = Invalid
			del++
			continue
		}
		oldToNew[i] = int32(i - mask[i])
	}
	return oldToNew
}

// InversePermutation checks that newOrder is a permutation of [0, size) and
// returns the old-to-new mapping.
func InversePermutation(newOrder []int, size int, group string) []int32 {
	if len(newOrder) != size {
		panic(fmt.Errorf("%w: %s has %d rows, got %d", ErrNotPermutation, group, size, len(newOrder)))
	}
	oldToNew := make([]int32, size)
	for i := range oldToNew {
		oldToNew[i] = Invalid
	}
	for i, old := range newOrder {
		if old < 0 || old >= size || oldToNew[old] != Invalid {
			panic(fmt.Errorf("%w: %s entry %d = %d", ErrNotPermutation, group, i, old))
		}
		oldToNew[old] = int32(i)
	}
	return oldToNew
}

// ContiguousArray returns [0, n).
func ContiguousArray(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
