// Package collection implements a managed attribute collection: named groups
// of parallel arrays whose rows can be added, removed and reordered while
// every index stored in a dependent group is kept pointing at the same row.
package collection

import (
	"fmt"
	"slices"
)

// Group is a named table of rows. Every attribute has one entry per row.
type Group struct {
	name  string
	size  int
	attrs map[string]Attribute
	order []string
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// Size returns the number of rows.
func (g *Group) Size() int { return g.size }

// Collection owns a set of groups.
type Collection struct {
	groups map[string]*Group
	order  []string
	deps   map[string][]string
}

// New returns an empty collection.
func New() *Collection {
	return &Collection{
		groups: make(map[string]*Group),
		deps:   make(map[string][]string),
	}
}

// AddGroup creates an empty group if it does not already exist.
func (c *Collection) AddGroup(name string) *Group {
	if g, ok := c.groups[name]; ok {
		return g
	}
	g := &Group{name: name, attrs: make(map[string]Attribute)}
	c.groups[name] = g
	c.order = append(c.order, name)
	return g
}

// HasGroup reports whether the group exists.
func (c *Collection) HasGroup(name string) bool {
	_, ok := c.groups[name]
	return ok
}

// Groups returns the group names in creation order.
func (c *Collection) Groups() []string {
	return slices.Clone(c.order)
}

// NumElements returns the row count of a group, zero if it does not exist.
func (c *Collection) NumElements(group string) int {
	if g, ok := c.groups[group]; ok {
		return g.size
	}
	return 0
}

// AddAttribute registers attr under group, sizing it to the group. A strong
// reference also records the group dependency it implies.
func (c *Collection) AddAttribute(group, name string, attr Attribute) {
	g := c.mustGroup(group)
	if _, ok := g.attrs[name]; ok {
		panic(fmt.Errorf("%w: %s.%s", ErrDuplicateAttribute, group, name))
	}
	attr.Resize(g.size)
	g.attrs[name] = attr
	g.order = append(g.order, name)
	if ref, ok := attr.(Reference); ok && ref.Strong() && ref.Target() != group {
		c.SetDependency(group, ref.Target())
	}
}

// HasAttribute reports whether group has an attribute called name.
func (c *Collection) HasAttribute(group, name string) bool {
	g, ok := c.groups[group]
	if !ok {
		return false
	}
	_, ok = g.attrs[name]
	return ok
}

// Attribute returns the named attribute.
func (c *Collection) Attribute(group, name string) Attribute {
	g := c.mustGroup(group)
	attr, ok := g.attrs[name]
	if !ok {
		panic(fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, group, name))
	}
	return attr
}

// SetDependency declares that rows of group depend on rows of on.
// Declaring a dependency that closes a cycle panics.
func (c *Collection) SetDependency(group, on string) {
	c.mustGroup(group)
	c.mustGroup(on)
	if slices.Contains(c.deps[group], on) {
		return
	}
	if group == on || c.dependsOn(on, group) {
		panic(fmt.Errorf("%w: %s -> %s", ErrCyclicDependency, group, on))
	}
	c.deps[group] = append(c.deps[group], on)
}

// DependsOn reports whether group transitively depends on other.
func (c *Collection) DependsOn(group, other string) bool {
	return c.dependsOn(group, other)
}

func (c *Collection) dependsOn(group, other string) bool {
	for _, d := range c.deps[group] {
		if d == other || c.dependsOn(d, other) {
			return true
		}
	}
	return false
}

// AddElements appends n rows to group and returns the index of the first one.
func (c *Collection) AddElements(group string, n int) int {
	g := c.mustGroup(group)
	if n < 0 {
		panic(fmt.Errorf("%w: adding %d rows to %s", ErrIndexOutOfRange, n, group))
	}
	first := g.size
	g.size += n
	for _, name := range g.order {
		g.attrs[name].Resize(g.size)
	}
	return first
}

// RemoveElements deletes rows from group. The list may be in any order but
// must not contain duplicates or out-of-range indices. Rows of other groups
// holding a strong reference to a removed row are removed first; every
// remaining reference into group is renumbered.
func (c *Collection) RemoveElements(group string, list []int) {
	g := c.mustGroup(group)
	sorted := SortedDeletionList(list, g.size, group)
	if len(sorted) == 0 {
		return
	}

	removed := make([]bool, g.size)
	for _, i := range sorted {
		removed[i] = true
	}

	for _, other := range c.order {
		if other == group {
			continue
		}
		var rows []int
		for _, ref := range c.references(other, group) {
			if ref.Strong() {
				rows = append(rows, ref.Dangling(removed)...)
			}
		}
		if len(rows) > 0 {
			c.RemoveElements(other, dedupe(rows))
		}
	}

	for _, name := range g.order {
		g.attrs[name].RemoveSorted(sorted)
	}
	g.size -= len(sorted)

	oldToNew := RemovalMap(sorted, len(removed))
	c.remapReferences(group, oldToNew)
}

// ReorderElements permutes the rows of group: row i of the result is old row
// newOrder[i]. References into group are renumbered.
func (c *Collection) ReorderElements(group string, newOrder []int) {
	g := c.mustGroup(group)
	oldToNew := InversePermutation(newOrder, g.size, group)
	for _, name := range g.order {
		g.attrs[name].Reorder(newOrder)
	}
	c.remapReferences(group, oldToNew)
}

// Empty removes every row from every group.
func (c *Collection) Empty() {
	for _, name := range c.order {
		g := c.groups[name]
		g.size = 0
		for _, attr := range g.attrs {
			attr.Resize(0)
		}
	}
}

// Validate checks that every attribute matches its group size.
func (c *Collection) Validate() error {
	for _, name := range c.order {
		g := c.groups[name]
		for _, an := range g.order {
			if l := g.attrs[an].Len(); l != g.size {
				return fmt.Errorf("%w: %s.%s has %d rows, group has %d", ErrSizeMismatch, name, an, l, g.size)
			}
		}
	}
	return nil
}

func (c *Collection) references(group, target string) []Reference {
	g := c.groups[group]
	var refs []Reference
	for _, name := range g.order {
		if ref, ok := g.attrs[name].(Reference); ok && ref.Target() == target {
			refs = append(refs, ref)
		}
	}
	return refs
}

func (c *Collection) remapReferences(target string, oldToNew []int32) {
	for _, name := range c.order {
		for _, ref := range c.references(name, target) {
			ref.Remap(oldToNew)
		}
	}
}

func (c *Collection) mustGroup(name string) *Group {
	g, ok := c.groups[name]
	if !ok {
		panic(fmt.Errorf("%w: %s", ErrUnknownGroup, name))
	}
	return g
}

func dedupe(rows []int) []int {
	slices.Sort(rows)
	return slices.Compact(rows)
}
