// Package spatial provides a loose octree over axis-aligned boxes.
//
// Elements are bucketed by the octant holding their centre, so an element
// is stored exactly once. Each node also keeps a loose bound, the union of
// every element box below it, which is what queries test against. Nodes
// live in one flat slice and refer to their children by index.
package spatial

import (
	"github.com/Faultbox/shatter/pkg/geom"
)

const noChildren = -1

// Options bound the shape of a Tree.
type Options struct {
	MaxDepth     int // levels below the root
	LeafCapacity int // elements a node holds before it splits
}

// DefaultOptions returns the octree shape used by the proximity builder.
func DefaultOptions() Options {
	return Options{MaxDepth: 8, LeafCapacity: 16}
}

type node struct {
	cell  geom.Box // strict octant bounds, used for bucketing
	loose geom.Box // union of element boxes in the subtree
	first int32    // index of the first of eight children, or noChildren
	items []int32
}

// Tree is a loose octree. After Build it is read only and safe for
// concurrent queries.
type Tree struct {
	nodes []node
	boxes []geom.Box
	depth int
}

// Build returns a tree over boxes. Element ids are indices into boxes.
func Build(boxes []geom.Box, opts Options) *Tree {
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}
	if opts.LeafCapacity < 1 {
		opts.LeafCapacity = 1
	}

	t := &Tree{boxes: boxes}
	if len(boxes) == 0 {
		return t
	}

	cell := geom.EmptyBox()
	ids := make([]int32, 0, len(boxes))
	for i, b := range boxes {
		if b.IsEmpty() {
			continue
		}
		cell = cell.Union(b)
		ids = append(ids, int32(i))
	}
	if len(ids) == 0 {
		return t
	}

	t.nodes = make([]node, 1, 1+len(ids)/opts.LeafCapacity*8)
	t.build(0, cell, ids, 0, opts)
	return t
}

func (t *Tree) build(n int32, cell geom.Box, ids []int32, depth int, opts Options) {
	t.nodes[n] = node{cell: cell, first: noChildren}
	if depth > t.depth {
		t.depth = depth
	}

	if len(ids) <= opts.LeafCapacity || depth >= opts.MaxDepth {
		loose := geom.EmptyBox()
		for _, id := range ids {
			loose = loose.Union(t.boxes[id])
		}
		t.nodes[n].items = ids
		t.nodes[n].loose = loose
		return
	}

	centre := cell.Center()
	var buckets [8][]int32
	for _, id := range ids {
		o := octant(t.boxes[id].Center(), centre)
		buckets[o] = append(buckets[o], id)
	}

	first := int32(len(t.nodes))
	t.nodes = append(t.nodes, make([]node, 8)...)
	t.nodes[n].first = first

	loose := geom.EmptyBox()
	for o := int32(0); o < 8; o++ {
		t.build(first+o, childCell(cell, centre, o), buckets[o], depth+1, opts)
		loose = loose.Union(t.nodes[first+o].loose)
	}
	t.nodes[n].loose = loose
}

func octant(p, centre geom.Vec3) int32 {
	var o int32
	for axis := 0; axis < 3; axis++ {
		if p[axis] >= centre[axis] {
			o |= 1 << axis
		}
	}
	return o
}

func childCell(cell geom.Box, centre geom.Vec3, o int32) geom.Box {
	out := cell
	for axis := 0; axis < 3; axis++ {
		if o&(1<<axis) != 0 {
			out.Min[axis] = centre[axis]
		} else {
			out.Max[axis] = centre[axis]
		}
	}
	return out
}

// Query calls visit with the id of every element whose box intersects box,
// touching included. Returning false from visit stops the query.
func (t *Tree) Query(box geom.Box, visit func(id int) bool) {
	if len(t.nodes) == 0 || box.IsEmpty() {
		return
	}

	stack := make([]int32, 1, 32)
	for len(stack) > 0 {
		n := &t.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		if !n.loose.Intersects(box) {
			continue
		}
		for _, id := range n.items {
			if t.boxes[id].Intersects(box) && !visit(int(id)) {
				return
			}
		}
		if n.first != noChildren {
			for o := int32(0); o < 8; o++ {
				stack = append(stack, n.first+o)
			}
		}
	}
}

// Len returns the number of elements in the tree, empty boxes excluded.
func (t *Tree) Len() int {
	total := 0
	for i := range t.nodes {
		total += len(t.nodes[i].items)
	}
	return total
}

// NumNodes returns the number of allocated nodes.
func (t *Tree) NumNodes() int { return len(t.nodes) }

// Depth returns the deepest level reached while building.
func (t *Tree) Depth() int { return t.depth }

// Bounds returns the loose bound of the whole tree.
func (t *Tree) Bounds() geom.Box {
	if len(t.nodes) == 0 {
		return geom.EmptyBox()
	}
	return t.nodes[0].loose
}
