package geometry

import (
	"fmt"

	"github.com/Faultbox/shatter/pkg/collection"
	"github.com/Faultbox/shatter/pkg/geom"
)

// Chunk is one piece of fracture output. Positions are relative to
// Transform. Normals, UVs and MaterialIDs are optional; missing normals are
// averaged from the faces using each vertex. A chunk without positions
// becomes a transform with no geometry.
type Chunk struct {
	Name      string
	Transform geom.Transform

	Positions   []geom.Vec3
	Normals     []geom.Vec3
	UVs         []geom.Vec2
	Triangles   [][3]int32 // into Positions
	MaterialIDs []int32    // one per triangle
}

// AppendChunks wraps fracture output for the node it replaces: every chunk
// is appended as a new transform under replaced, replaced becomes a
// cluster and its own faces are hidden. nodes[i] is the transform created
// for chunks[i].
func (c *Collection) AppendChunks(replaced int, chunks []Chunk) []int {
	if replaced < 0 || replaced >= c.NumTransforms() {
		panic(fmt.Errorf("%w: replaced transform %d of %d", collection.ErrIndexOutOfRange, replaced, c.NumTransforms()))
	}
	nodes := make([]int, len(chunks))
	for i, ch := range chunks {
		nodes[i] = c.AppendChunk(replaced, ch)
	}
	if len(chunks) > 0 {
		c.SimulationType.Set(replaced, SimulationClustered)
		c.UpdateGeometryVisibility([]int{replaced}, false)
		c.proximityStale = true
	}
	return nodes
}

// AppendChunk appends ch as one transform linked under parent, or as a new
// root when parent is Invalid, and returns the transform.
func (c *Collection) AppendChunk(parent int, ch Chunk) int {
	if parent != int(Invalid) && (parent < 0 || parent >= c.NumTransforms()) {
		panic(fmt.Errorf("%w: parent transform %d of %d", collection.ErrIndexOutOfRange, parent, c.NumTransforms()))
	}

	t := c.AppendGeometry(newChunkElement(ch), 0)
	if parent != int(Invalid) {
		c.Parent.Set(t, int32(parent))
		c.Children.Add(parent, int32(t))
		c.Level.Set(t, c.Level.At(parent)+1)
	}
	return t
}

// newChunkElement builds a one-transform collection holding ch.
func newChunkElement(ch Chunk) *Collection {
	checkChunk(ch)

	c := New()
	c.AddElements(TransformGroup, 1)
	if ch.Transform != (geom.Transform{}) {
		c.Transform.Set(0, ch.Transform)
	}
	c.BoneName.Set(0, ch.Name)

	nV := len(ch.Positions)
	c.AddElements(VerticesGroup, nV)
	for i, p := range ch.Positions {
		c.Vertex.Set(i, p)
		c.BoneMap.Set(i, 0)
		if ch.UVs != nil {
			c.UV.Set(i, ch.UVs[i])
		}
	}

	c.AddElements(FacesGroup, len(ch.Triangles))
	normals := make([]geom.Vec3, nV)
	for f, tri := range ch.Triangles {
		c.Indices.Set(f, tri)
		if ch.MaterialIDs != nil {
			c.MaterialID.Set(f, ch.MaterialIDs[f])
		}
		n := c.Triangle(f).Normal()
		for _, v := range tri {
			normals[v] = normals[v].Add(n)
		}
	}
	for i := range normals {
		if ch.Normals != nil {
			c.Normal.Set(i, ch.Normals[i])
		} else {
			c.Normal.Set(i, geom.Normalize(normals[i]))
		}
	}

	if nV > 0 {
		c.addMissingGeometry()
		c.updateGeometryRanges()
		c.computeGeometryProperties(0)
	}
	c.ReindexMaterials()
	return c
}

func checkChunk(ch Chunk) {
	nV := len(ch.Positions)
	if ch.Normals != nil && len(ch.Normals) != nV {
		panic(fmt.Errorf("%w: chunk %q has %d normals for %d positions", collection.ErrSizeMismatch, ch.Name, len(ch.Normals), nV))
	}
	if ch.UVs != nil && len(ch.UVs) != nV {
		panic(fmt.Errorf("%w: chunk %q has %d uvs for %d positions", collection.ErrSizeMismatch, ch.Name, len(ch.UVs), nV))
	}
	if ch.MaterialIDs != nil && len(ch.MaterialIDs) != len(ch.Triangles) {
		panic(fmt.Errorf("%w: chunk %q has %d material ids for %d triangles", collection.ErrSizeMismatch, ch.Name, len(ch.MaterialIDs), len(ch.Triangles)))
	}
	for f, tri := range ch.Triangles {
		for _, v := range tri {
			if v < 0 || int(v) >= nV {
				panic(fmt.Errorf("%w: chunk %q triangle %d uses vertex %d of %d", collection.ErrIndexOutOfRange, ch.Name, f, v, nV))
			}
		}
	}
}
