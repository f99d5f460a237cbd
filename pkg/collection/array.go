package collection

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Invalid marks an index attribute that references nothing.
const Invalid int32 = -1

// Attribute is one parallel array inside a group.
type Attribute interface {
	Len() int
	// Resize grows or shrinks the array, filling new rows with the default value.
	Resize(n int)
	// RemoveSorted deletes rows; sorted is ascending and duplicate free.
	RemoveSorted(sorted []int)
	// Reorder permutes rows so that row i takes the value of old row newOrder[i].
	Reorder(newOrder []int)
}

// Reference is an attribute whose values are indices into another group.
type Reference interface {
	Attribute
	// Target is the group the stored indices point into.
	Target() string
	// Strong references make their row depend on the referenced row: the
	// row is removed when the referenced row is.
	Strong() bool
	// Dangling returns the rows that reference a removed index.
	Dangling(removed []bool) []int
	// Remap rewrites stored indices through oldToNew; Invalid entries mark
	// indices that no longer exist.
	Remap(oldToNew []int32)
}

// Array is a typed attribute.
type Array[T any] struct {
	values []T
	def    T
}

// NewArray returns an empty array whose new rows take def.
func NewArray[T any](def T) *Array[T] {
	return &Array[T]{def: def}
}

func (a *Array[T]) Len() int { return len(a.values) }

// At returns row i.
func (a *Array[T]) At(i int) T { return a.values[i] }

// Set assigns row i.
func (a *Array[T]) Set(i int, v T) { a.values[i] = v }

// Slice exposes the backing rows. The slice is invalidated by any resize.
func (a *Array[T]) Slice() []T { return a.values }

func (a *Array[T]) Resize(n int) {
	if n <= len(a.values) {
		clear(a.values[n:])
		a.values = a.values[:n]
		return
	}
	for len(a.values) < n {
		a.values = append(a.values, a.def)
	}
}

func (a *Array[T]) RemoveSorted(sorted []int) {
	a.values = removeSorted(a.values, sorted)
}

func (a *Array[T]) Reorder(newOrder []int) {
	a.values = reorder(a.values, newOrder)
}

// IndexArray stores one index into Target per row.
type IndexArray struct {
	Array[int32]
	target string
	strong bool
}

// NewIndexArray returns an index attribute into target. New rows are Invalid.
func NewIndexArray(target string, strong bool) *IndexArray {
	return &IndexArray{Array: Array[int32]{def: Invalid}, target: target, strong: strong}
}

func (a *IndexArray) Target() string { return a.target }
func (a *IndexArray) Strong() bool   { return a.strong }

func (a *IndexArray) Dangling(removed []bool) []int {
	var rows []int
	for i, v := range a.values {
		if v != Invalid && removed[v] {
			rows = append(rows, i)
		}
	}
	return rows
}

func (a *IndexArray) Remap(oldToNew []int32) {
	for i, v := range a.values {
		if v != Invalid {
			a.values[i] = oldToNew[v]
		}
	}
}

// TriangleArray stores three indices into Target per row. It is always strong:
// a triangle losing any corner is removed.
type TriangleArray struct {
	Array[[3]int32]
	target string
}

// NewTriangleArray returns a triangle attribute into target.
func NewTriangleArray(target string) *TriangleArray {
	return &TriangleArray{Array: Array[[3]int32]{def: [3]int32{Invalid, Invalid, Invalid}}, target: target}
}

func (a *TriangleArray) Target() string { return a.target }
func (a *TriangleArray) Strong() bool   { return true }

func (a *TriangleArray) Dangling(removed []bool) []int {
	var rows []int
	for i, tri := range a.values {
		for _, v := range tri {
			if v != Invalid && removed[v] {
				rows = append(rows, i)
				break
			}
		}
	}
	return rows
}

func (a *TriangleArray) Remap(oldToNew []int32) {
	for i := range a.values {
		for k, v := range a.values[i] {
			if v != Invalid {
				a.values[i][k] = oldToNew[v]
			}
		}
	}
}

// SetArray stores a set of indices into Target per row. Removed indices are
// dropped from the sets; the rows themselves never depend on them.
type SetArray struct {
	rows   []*roaring.Bitmap
	target string
}

// NewSetArray returns a set attribute into target.
func NewSetArray(target string) *SetArray {
	return &SetArray{target: target}
}

func (a *SetArray) Len() int { return len(a.rows) }

// At returns the set stored in row i. The bitmap is owned by the array.
func (a *SetArray) At(i int) *roaring.Bitmap { return a.rows[i] }

// Members returns row i as a sorted index slice.
func (a *SetArray) Members(i int) []int32 {
	out := make([]int32, 0, a.rows[i].GetCardinality())
	it := a.rows[i].Iterator()
	for it.HasNext() {
		out = append(out, int32(it.Next()))
	}
	return out
}

// Add inserts v into row i.
func (a *SetArray) Add(i int, v int32) { a.rows[i].Add(uint32(v)) }

// Remove deletes v from row i.
func (a *SetArray) Remove(i int, v int32) { a.rows[i].Remove(uint32(v)) }

// Contains reports whether row i holds v.
func (a *SetArray) Contains(i int, v int32) bool { return a.rows[i].Contains(uint32(v)) }

// Count returns the number of members of row i.
func (a *SetArray) Count(i int) int { return int(a.rows[i].GetCardinality()) }

// Clear empties row i.
func (a *SetArray) Clear(i int) { a.rows[i].Clear() }

func (a *SetArray) Resize(n int) {
	if n <= len(a.rows) {
		clear(a.rows[n:])
		a.rows = a.rows[:n]
		return
	}
	for len(a.rows) < n {
		a.rows = append(a.rows, roaring.New())
	}
}

func (a *SetArray) RemoveSorted(sorted []int) {
	a.rows = removeSorted(a.rows, sorted)
}

func (a *SetArray) Reorder(newOrder []int) {
	a.rows = reorder(a.rows, newOrder)
}

func (a *SetArray) Target() string { return a.target }
func (a *SetArray) Strong() bool   { return false }

func (a *SetArray) Dangling([]bool) []int { return nil }

func (a *SetArray) Remap(oldToNew []int32) {
	for i, set := range a.rows {
		remapped := roaring.New()
		it := set.Iterator()
		for it.HasNext() {
			if v := oldToNew[it.Next()]; v != Invalid {
				remapped.Add(uint32(v))
			}
		}
		a.rows[i] = remapped
	}
}

func removeSorted[T any](values []T, sorted []int) []T {
	if len(sorted) == 0 {
		return values
	}
	out := values[:sorted[0]]
	next := 0
	for i := sorted[0]; i < len(values); i++ {
		if next < len(sorted) && sorted[next] == i {
			next++
			continue
		}
		out = append(out, values[i])
	}
	var zero T
	for i := len(out); i < len(values); i++ {
		values[i] = zero
	}
	return out
}

func reorder[T any](values []T, newOrder []int) []T {
	out := make([]T, len(values))
	for i, old := range newOrder {
		out[i] = values[old]
	}
	return out
}
