package geometry

import (
	"cmp"
	"math"
	"slices"

	"github.com/Faultbox/shatter/pkg/collection"
)

// RemoveElements deletes rows from group. Removing transforms re-parents
// their surviving children to the nearest surviving ancestor, keeping world
// placement, and drops the geometry those transforms own. Removing geometry
// drops its vertices and faces. Ranges and material sections are rebuilt
// before returning.
func (c *Collection) RemoveElements(group string, list []int) {
	nGeometry, nVertices := c.NumGeometry(), c.NumElements(VerticesGroup)

	switch group {
	case TransformGroup:
		c.removeTransforms(list)
	case GeometryGroup:
		c.removeGeometry(list)
	default:
		c.Collection.RemoveElements(group, list)
	}

	c.updateGeometryRanges()
	c.ReindexMaterials()
	if c.NumGeometry() != nGeometry || c.NumElements(VerticesGroup) != nVertices {
		c.proximityStale = true
	}
}

func (c *Collection) removeTransforms(list []int) {
	sorted := collection.SortedDeletionList(list, c.NumTransforms(), TransformGroup)
	if len(sorted) == 0 {
		return
	}
	removed := make([]bool, c.NumTransforms())
	for _, t := range sorted {
		removed[t] = true
	}

	global := c.GlobalTransforms()
	for _, t := range sorted {
		for _, child := range c.Children.Members(t) {
			if removed[child] {
				continue
			}
			anc := c.Parent.At(t)
			for anc != Invalid && removed[anc] {
				anc = c.Parent.At(int(anc))
			}
			c.Parent.Set(int(child), anc)
			if anc == Invalid {
				c.Transform.Set(int(child), global[child])
				continue
			}
			c.Transform.Set(int(child), global[child].Relative(global[anc]))
			c.Children.Add(int(anc), child)
		}
	}

	c.Collection.RemoveElements(TransformGroup, sorted)
}

func (c *Collection) removeGeometry(list []int) {
	sorted := collection.SortedDeletionList(list, c.NumGeometry(), GeometryGroup)
	if len(sorted) == 0 {
		return
	}
	owners := make(map[int32]bool, len(sorted))
	for _, g := range sorted {
		owners[c.TransformIndex.At(g)] = true
	}
	var vertices []int
	for v, t := range c.BoneMap.Slice() {
		if owners[t] {
			vertices = append(vertices, v)
		}
	}

	c.Collection.RemoveElements(VerticesGroup, vertices)
	c.Collection.RemoveElements(GeometryGroup, sorted)
}

// ReorderElements permutes the rows of group. Reordering geometry moves the
// vertex and face runs with it; reordering transforms first sorts geometry
// into the new transform order. A vertex or face permutation only takes
// effect within each geometry's run: rows are regrouped by owning geometry,
// keeping their new relative order.
func (c *Collection) ReorderElements(group string, newOrder []int) {
	switch group {
	case TransformGroup:
		c.reorderTransforms(newOrder)
	case GeometryGroup:
		c.reorderGeometry(newOrder)
	case VerticesGroup, FacesGroup:
		c.Collection.ReorderElements(group, newOrder)
		c.regroupByGeometry(group)
	default:
		c.Collection.ReorderElements(group, newOrder)
	}
	c.updateGeometryRanges()
	c.ReindexMaterials()
}

func (c *Collection) reorderTransforms(newOrder []int) {
	oldToNew := collection.InversePermutation(newOrder, c.NumTransforms(), TransformGroup)

	geometryOrder := collection.ContiguousArray(c.NumGeometry())
	slices.SortStableFunc(geometryOrder, func(a, b int) int {
		return cmp.Compare(oldToNew[c.TransformIndex.At(a)], oldToNew[c.TransformIndex.At(b)])
	})
	c.reorderGeometry(geometryOrder)

	c.Collection.ReorderElements(TransformGroup, newOrder)
}

func (c *Collection) reorderGeometry(newOrder []int) {
	collection.InversePermutation(newOrder, c.NumGeometry(), GeometryGroup)

	vertexOrder := make([]int, 0, c.NumElements(VerticesGroup))
	faceOrder := make([]int, 0, c.NumElements(FacesGroup))
	for _, g := range newOrder {
		vs, vc := c.VertexStart.At(g), c.VertexCount.At(g)
		for v := vs; v < vs+vc; v++ {
			vertexOrder = append(vertexOrder, int(v))
		}
		fs, fc := c.FaceStart.At(g), c.FaceCount.At(g)
		for f := fs; f < fs+fc; f++ {
			faceOrder = append(faceOrder, int(f))
		}
	}

	c.Collection.ReorderElements(VerticesGroup, vertexOrder)
	c.Collection.ReorderElements(FacesGroup, faceOrder)
	c.Collection.ReorderElements(GeometryGroup, newOrder)
}

// regroupByGeometry stably sorts the rows of the Vertices or Faces group
// by the geometry owning them. Unowned rows go last.
func (c *Collection) regroupByGeometry(group string) {
	n := c.NumElements(group)
	owner := make([]int32, n)
	for i := range owner {
		v := i
		if group == FacesGroup {
			v = int(c.Indices.At(i)[0])
		}
		owner[i] = math.MaxInt32
		if v == int(Invalid) {
			continue
		}
		if t := c.BoneMap.At(v); t != Invalid {
			if g := c.TransformToGeometryIndex.At(int(t)); g != Invalid {
				owner[i] = g
			}
		}
	}

	order := collection.ContiguousArray(n)
	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(owner[a], owner[b]) })
	if !slices.IsSorted(order) {
		c.Collection.ReorderElements(group, order)
	}
}

// updateGeometryRanges recomputes VertexStart/VertexCount and
// FaceStart/FaceCount from BoneMap. A range starts at the first vertex (or
// face) owned by the geometry's transform and counts every one it owns; a
// split run then fails the contiguity checks.
func (c *Collection) updateGeometryRanges() {
	nT := c.NumTransforms()
	vStart, vCount := make([]int32, nT), make([]int32, nT)
	fStart, fCount := make([]int32, nT), make([]int32, nT)
	for i := range vStart {
		vStart[i], fStart[i] = Invalid, Invalid
	}

	for v, t := range c.BoneMap.Slice() {
		if t == Invalid {
			continue
		}
		if vStart[t] == Invalid {
			vStart[t] = int32(v)
		}
		vCount[t]++
	}
	for f, tri := range c.Indices.Slice() {
		if tri[0] == Invalid {
			continue
		}
		t := c.BoneMap.At(int(tri[0]))
		if t == Invalid {
			continue
		}
		if fStart[t] == Invalid {
			fStart[t] = int32(f)
		}
		fCount[t]++
	}

	for g, t := range c.TransformIndex.Slice() {
		c.VertexStart.Set(g, vStart[t])
		c.VertexCount.Set(g, vCount[t])
		c.FaceStart.Set(g, fStart[t])
		c.FaceCount.Set(g, fCount[t])
	}
}

// addMissingGeometry adds a geometry entry for every transform that owns
// vertices but has no entry yet, in vertex order.
func (c *Collection) addMissingGeometry() {
	seen := make(map[int32]bool)
	var owners []int32
	for _, t := range c.BoneMap.Slice() {
		if t == Invalid || seen[t] {
			continue
		}
		seen[t] = true
		if c.TransformToGeometryIndex.At(int(t)) == Invalid {
			owners = append(owners, t)
		}
	}
	if len(owners) == 0 {
		return
	}
	first := c.AddElements(GeometryGroup, len(owners))
	for i, t := range owners {
		c.TransformIndex.Set(first+i, t)
		c.TransformToGeometryIndex.Set(int(t), int32(first+i))
		if c.SimulationType.At(int(t)) == SimulationNone {
			c.SimulationType.Set(int(t), SimulationRigid)
		}
	}
}
