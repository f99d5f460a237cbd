package geometry

import (
	"github.com/chewxy/math32"
	"github.com/google/uuid"

	"github.com/Faultbox/shatter/pkg/geom"
)

// AppendGeometry copies every group of element onto the end of c and returns
// the index of the first appended transform. Indices held by element are
// offset into c's numbering and material ids are shifted by
// materialIDOffset. Bounds and radii of the new geometry are computed here.
func (c *Collection) AppendGeometry(element *Collection, materialIDOffset int32) int {
	offT := int32(c.NumTransforms())
	offV := int32(c.NumElements(VerticesGroup))
	offG := int32(c.NumGeometry())

	startT := c.AddElements(TransformGroup, element.NumTransforms())
	for i := 0; i < element.NumTransforms(); i++ {
		dst := startT + i
		c.Transform.Set(dst, element.Transform.At(i))
		c.Parent.Set(dst, offset(element.Parent.At(i), offT))
		for _, ch := range element.Children.Members(i) {
			c.Children.Add(dst, ch+offT)
		}
		c.Level.Set(dst, element.Level.At(i))
		c.TransformToGeometryIndex.Set(dst, offset(element.TransformToGeometryIndex.At(i), offG))
		c.BoneName.Set(dst, element.BoneName.At(i))
		c.SimulationType.Set(dst, element.SimulationType.At(i))
		if id := element.GUID.At(i); id != uuid.Nil {
			c.GUID.Set(dst, id)
		}
	}

	startV := c.AddElements(VerticesGroup, element.NumElements(VerticesGroup))
	for i := 0; i < element.NumElements(VerticesGroup); i++ {
		dst := startV + i
		c.Vertex.Set(dst, element.Vertex.At(i))
		c.Normal.Set(dst, element.Normal.At(i))
		c.UV.Set(dst, element.UV.At(i))
		c.BoneMap.Set(dst, offset(element.BoneMap.At(i), offT))
	}

	startF := c.AddElements(FacesGroup, element.NumElements(FacesGroup))
	for i := 0; i < element.NumElements(FacesGroup); i++ {
		dst := startF + i
		tri := element.Indices.At(i)
		c.Indices.Set(dst, [3]int32{tri[0] + offV, tri[1] + offV, tri[2] + offV})
		c.MaterialID.Set(dst, element.MaterialID.At(i)+materialIDOffset)
		c.Visible.Set(dst, element.Visible.At(i))
	}

	startG := c.AddElements(GeometryGroup, element.NumGeometry())
	for i := 0; i < element.NumGeometry(); i++ {
		t := element.TransformIndex.At(i) + offT
		c.TransformIndex.Set(startG+i, t)
		c.TransformToGeometryIndex.Set(int(t), int32(startG+i))
	}
	c.addMissingGeometry()

	c.updateGeometryRanges()
	for g := startG; g < c.NumGeometry(); g++ {
		c.computeGeometryProperties(g)
	}
	c.ReindexMaterials()
	c.proximityStale = true
	return startT
}

func offset(v, by int32) int32 {
	if v == Invalid {
		return Invalid
	}
	return v + by
}

// UpdateBoundingBox recomputes the local bounds of every geometry entry.
func (c *Collection) UpdateBoundingBox() {
	for g := 0; g < c.NumGeometry(); g++ {
		c.BoundingBox.Set(g, c.localBounds(g))
	}
}

func (c *Collection) localBounds(g int) geom.Box {
	box := geom.EmptyBox()
	vs, vc := c.VertexStart.At(g), c.VertexCount.At(g)
	for v := vs; v < vs+vc; v++ {
		box = box.AddPoint(c.Vertex.At(int(v)))
	}
	return box
}

// computeGeometryProperties fills the bounding box and the inner/outer radius
// of geometry g. The radii are the min/max distance from the vertex average
// to any vertex, face centroid or edge midpoint.
func (c *Collection) computeGeometryProperties(g int) {
	c.BoundingBox.Set(g, c.localBounds(g))

	vs, vc := c.VertexStart.At(g), c.VertexCount.At(g)
	if vc == 0 {
		c.InnerRadius.Set(g, 0)
		c.OuterRadius.Set(g, 0)
		return
	}
	var center geom.Vec3
	for v := vs; v < vs+vc; v++ {
		center = center.Add(c.Vertex.At(int(v)))
	}
	center = center.Mul(1 / float32(vc))

	inner, outer := math32.Inf(1), float32(0)
	visit := func(p geom.Vec3) {
		d := geom.Distance(center, p)
		inner = math32.Min(inner, d)
		outer = math32.Max(outer, d)
	}
	for v := vs; v < vs+vc; v++ {
		visit(c.Vertex.At(int(v)))
	}
	fs, fc := c.FaceStart.At(g), c.FaceCount.At(g)
	for f := fs; f < fs+fc; f++ {
		tri := c.Triangle(int(f))
		visit(tri.Centroid())
		for _, m := range tri.EdgeMidpoints() {
			visit(m)
		}
	}
	c.InnerRadius.Set(g, inner)
	c.OuterRadius.Set(g, outer)
}

// Triangle returns face f in its owner's local space.
func (c *Collection) Triangle(f int) geom.Triangle {
	tri := c.Indices.At(f)
	return geom.Triangle{
		c.Vertex.At(int(tri[0])),
		c.Vertex.At(int(tri[1])),
		c.Vertex.At(int(tri[2])),
	}
}
