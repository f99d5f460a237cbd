package geometry

import (
	"fmt"

	"github.com/Faultbox/shatter/pkg/collection"
)

// ReindexMaterials rebuilds the render sections from the faces' MaterialID:
// one section per material id that still has triangles, laid out in id
// order, with MaterialIndex listing faces grouped by section.
func (c *Collection) ReindexMaterials() {
	nFaces := c.NumElements(FacesGroup)
	var counts []int32
	for f := 0; f < nFaces; f++ {
		id := c.MaterialID.At(f)
		if id < 0 {
			panic(fmt.Errorf("%w: face %d has material %d", collection.ErrIndexOutOfRange, f, id))
		}
		for int(id) >= len(counts) {
			counts = append(counts, 0)
		}
		counts[id]++
	}

	c.Collection.RemoveElements(MaterialGroup, collection.ContiguousArray(c.NumElements(MaterialGroup)))

	maxVertex := int32(c.NumElements(VerticesGroup) - 1)
	var first int32
	for id, n := range counts {
		if n == 0 {
			continue
		}
		s := c.Collection.AddElements(MaterialGroup, 1)
		c.Sections.Set(s, Section{
			MaterialID:     int32(id),
			FirstIndex:     first * 3,
			NumTriangles:   n,
			MinVertexIndex: 0,
			MaxVertexIndex: maxVertex,
		})
		first += n
	}

	next := 0
	for id := range counts {
		for f := 0; f < nFaces; f++ {
			if int(c.MaterialID.At(f)) == id {
				c.MaterialIndex.Set(next, int32(f))
				next++
			}
		}
	}
}
