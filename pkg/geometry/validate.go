package geometry

// HasContiguousVertices reports whether, in Geometry order, every geometry's
// vertex range follows the previous one without gaps, every vertex in a
// range belongs to the geometry's transform, and the ranges cover the whole
// Vertices group.
func (c *Collection) HasContiguousVertices() bool {
	seen := make(map[int32]bool, c.NumGeometry())
	next := int32(0)
	for g := 0; g < c.NumGeometry(); g++ {
		t := c.TransformIndex.At(g)
		if t == Invalid || seen[t] {
			return false
		}
		seen[t] = true
		start, count := c.VertexStart.At(g), c.VertexCount.At(g)
		if count == 0 {
			continue
		}
		if start != next {
			return false
		}
		for v := start; v < start+count; v++ {
			if c.BoneMap.At(int(v)) != t {
				return false
			}
		}
		next = start + count
	}
	return int(next) == c.NumElements(VerticesGroup)
}

// HasContiguousFaces reports whether face ranges follow each other in
// Geometry order, cover the Faces group, and every face only references
// in-bounds vertices owned by its geometry's transform.
func (c *Collection) HasContiguousFaces() bool {
	nVertices := int32(c.NumElements(VerticesGroup))
	seen := make(map[int32]bool, c.NumGeometry())
	next := int32(0)
	for g := 0; g < c.NumGeometry(); g++ {
		t := c.TransformIndex.At(g)
		if t == Invalid || seen[t] {
			return false
		}
		seen[t] = true
		start, count := c.FaceStart.At(g), c.FaceCount.At(g)
		if count == 0 {
			continue
		}
		if start != next {
			return false
		}
		for f := start; f < start+count; f++ {
			for _, v := range c.Indices.At(int(f)) {
				if v < 0 || v >= nVertices || c.BoneMap.At(int(v)) != t {
					return false
				}
			}
		}
		next = start + count
	}
	return int(next) == c.NumElements(FacesGroup)
}

// HasContiguousRenderFaces reports whether the material sections tile the
// faces back to back.
func (c *Collection) HasContiguousRenderFaces() bool {
	var first int32
	for s := 0; s < c.NumElements(MaterialGroup); s++ {
		sec := c.Sections.At(s)
		if sec.FirstIndex != first*3 {
			return false
		}
		first += sec.NumTriangles
	}
	return int(first) == c.NumElements(FacesGroup)
}

// HasValidGeometryReferences reports whether the Transform and Geometry
// groups agree on ownership and every stored index is in bounds.
func (c *Collection) HasValidGeometryReferences() bool {
	nT := int32(c.NumTransforms())
	nG := int32(c.NumGeometry())
	for t, g := range c.TransformToGeometryIndex.Slice() {
		if g == Invalid {
			continue
		}
		if g < 0 || g >= nG || c.TransformIndex.At(int(g)) != int32(t) {
			return false
		}
	}
	for g, t := range c.TransformIndex.Slice() {
		if t < 0 || t >= nT || c.TransformToGeometryIndex.At(int(t)) != int32(g) {
			return false
		}
	}
	for _, t := range c.BoneMap.Slice() {
		if t < 0 || t >= nT {
			return false
		}
	}
	for t, p := range c.Parent.Slice() {
		if p == Invalid {
			continue
		}
		if p < 0 || p >= nT || !c.Children.Contains(int(p), int32(t)) {
			return false
		}
	}
	return true
}
