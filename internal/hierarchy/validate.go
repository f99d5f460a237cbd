package hierarchy

import (
	"fmt"

	"github.com/Faultbox/shatter/pkg/geometry"
)

// ValidateResults panics with ErrInvariant unless the collection has
// exactly one root, consistent levels and parent links, and contiguous
// vertex and face ranges. Call it after a batch of edits.
func ValidateResults(c *geometry.Collection) {
	if err := Check(c); err != nil {
		panic(err)
	}
}

// Check reports the first broken hierarchy invariant, wrapped in
// ErrInvariant, or nil.
func Check(c *geometry.Collection) error {
	if c.NumTransforms() == 0 {
		return nil
	}
	if roots := c.Roots(); len(roots) != 1 {
		return fmt.Errorf("%w: %d roots %v", ErrInvariant, len(roots), roots)
	}
	if !c.HasValidGeometryReferences() {
		return fmt.Errorf("%w: parent, child or geometry references disagree", ErrInvariant)
	}
	for n := 0; n < c.NumTransforms(); n++ {
		for _, ch := range c.Children.Members(n) {
			if c.Parent.At(int(ch)) != int32(n) {
				return fmt.Errorf("%w: node %d lists child %d with parent %d", ErrInvariant, n, ch, c.Parent.At(int(ch)))
			}
		}
		want := int32(0)
		if p := c.Parent.At(n); p != invalid {
			want = c.Level.At(int(p)) + 1
		}
		if got := c.Level.At(n); got != want {
			return fmt.Errorf("%w: node %d has level %d, want %d", ErrInvariant, n, got, want)
		}
	}
	if !c.HasContiguousVertices() {
		return fmt.Errorf("%w: vertices are not contiguous", ErrInvariant)
	}
	if !c.HasContiguousFaces() {
		return fmt.Errorf("%w: faces are not contiguous", ErrInvariant)
	}
	return nil
}
