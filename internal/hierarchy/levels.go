package hierarchy

import (
	"fmt"
	"strings"

	"github.com/Faultbox/shatter/pkg/geometry"
)

// UpdateHierarchyLevelOfChildren recomputes Level depth first below start,
// or over the whole forest when start is Invalid. Level[start] itself is
// derived from its parent.
func UpdateHierarchyLevelOfChildren(c *geometry.Collection, start int) {
	var stack []int32
	if start == int(invalid) {
		for _, r := range c.Roots() {
			c.Level.Set(r, 0)
			stack = append(stack, int32(r))
		}
	} else {
		checkRange(c, start)
		if p := c.Parent.At(start); p == invalid {
			c.Level.Set(start, 0)
		} else {
			c.Level.Set(start, c.Level.At(int(p))+1)
		}
		stack = append(stack, int32(start))
	}

	visited := make([]bool, c.NumTransforms())
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[n] {
			panic(fmt.Errorf("%w: node %d reached twice", ErrCycle, n))
		}
		visited[n] = true

		level := c.Level.At(int(n)) + 1
		for _, ch := range c.Children.Members(int(n)) {
			c.Level.Set(int(ch), level)
			stack = append(stack, ch)
		}
	}
}

// RecursivelyUpdateBoneNames renames every non-root node top down. A child
// is named after its parent with a three digit ordinal among its siblings
// in index order: Wall, Wall_000, Wall_000_001.
func RecursivelyUpdateBoneNames(c *geometry.Collection) {
	var stack []int32
	for _, r := range c.Roots() {
		if c.BoneName.At(r) == "" {
			c.BoneName.Set(r, "Root")
		}
		stack = append(stack, int32(r))
	}

	var sb strings.Builder
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		parent := c.BoneName.At(int(n))
		for i, ch := range c.Children.Members(int(n)) {
			sb.Reset()
			fmt.Fprintf(&sb, "%s_%03d", parent, i)
			c.BoneName.Set(int(ch), sb.String())
			stack = append(stack, ch)
		}
	}
}
