// Package geometry is the fracture geometry collection: a managed collection
// with Transform, Vertices, Faces, Geometry, Material and Breaking groups and
// the bookkeeping that keeps per-geometry vertex and face ranges contiguous
// across every structural edit.
package geometry

import (
	"errors"

	"github.com/google/uuid"

	"github.com/Faultbox/shatter/pkg/collection"
	"github.com/Faultbox/shatter/pkg/geom"
)

// Group names.
const (
	TransformGroup = "Transform"
	VerticesGroup  = "Vertices"
	FacesGroup     = "Faces"
	GeometryGroup  = "Geometry"
	MaterialGroup  = "Material"
	BreakingGroup  = "Breaking"
)

// Invalid marks an unset index.
const Invalid = collection.Invalid

// ErrHierarchyCycle is raised when a parent chain loops back on itself.
var ErrHierarchyCycle = errors.New("transform hierarchy contains a cycle")

// SimulationType says how a transform takes part in simulation. Rigid
// nodes carry geometry that participates in proximity; clustered nodes
// group other nodes and their own faces, if any, are ignored.
type SimulationType int8

const (
	SimulationNone SimulationType = iota
	SimulationRigid
	SimulationClustered
)

func (s SimulationType) String() string {
	switch s {
	case SimulationRigid:
		return "rigid"
	case SimulationClustered:
		return "clustered"
	default:
		return "none"
	}
}

// Section is one render section: a run of faces sharing a material.
type Section struct {
	MaterialID     int32
	FirstIndex     int32
	NumTriangles   int32
	MinVertexIndex int32
	MaxVertexIndex int32
}

// Collection is a fracture geometry collection.
type Collection struct {
	*collection.Collection

	// Transform group
	Transform                *collection.Array[geom.Transform]
	Parent                   *collection.IndexArray
	Children                 *collection.SetArray
	Level                    *collection.Array[int32]
	TransformToGeometryIndex *collection.IndexArray
	BoneName                 *collection.Array[string]
	GUID                     *collection.Array[uuid.UUID]
	SimulationType           *collection.Array[SimulationType]

	// Vertices group, positions are in the owning transform's local space
	Vertex  *collection.Array[geom.Vec3]
	Normal  *collection.Array[geom.Vec3]
	UV      *collection.Array[geom.Vec2]
	BoneMap *collection.IndexArray

	// Faces group
	Indices       *collection.TriangleArray
	MaterialID    *collection.Array[int32]
	Visible       *collection.Array[bool]
	MaterialIndex *collection.Array[int32]

	// Geometry group
	TransformIndex *collection.IndexArray
	BoundingBox    *collection.Array[geom.Box]
	InnerRadius    *collection.Array[float32]
	OuterRadius    *collection.Array[float32]
	VertexStart    *collection.Array[int32]
	VertexCount    *collection.Array[int32]
	FaceStart      *collection.Array[int32]
	FaceCount      *collection.Array[int32]
	Proximity      *collection.SetArray

	// Material group
	Sections *collection.Array[Section]

	// Breaking group
	BreakingFaceIndex            *collection.IndexArray
	BreakingSourceTransformIndex *collection.IndexArray
	BreakingTargetTransformIndex *collection.IndexArray
	BreakingRegionCentroid       *collection.Array[geom.Vec3]
	BreakingRegionNormal         *collection.Array[geom.Vec3]
	BreakingRegionRadius         *collection.Array[float32]

	proximityStale bool
}

// New returns an empty geometry collection with every group registered.
func New() *Collection {
	c := &Collection{
		Collection: collection.New(),

		Transform:                collection.NewArray(geom.Identity()),
		Parent:                   collection.NewIndexArray(TransformGroup, false),
		Children:                 collection.NewSetArray(TransformGroup),
		Level:                    collection.NewArray[int32](0),
		TransformToGeometryIndex: collection.NewIndexArray(GeometryGroup, false),
		BoneName:                 collection.NewArray(""),
		GUID:                     collection.NewArray(uuid.Nil),
		SimulationType:           collection.NewArray(SimulationNone),

		Vertex:  collection.NewArray(geom.Vec3{}),
		Normal:  collection.NewArray(geom.Vec3{}),
		UV:      collection.NewArray(geom.Vec2{}),
		BoneMap: collection.NewIndexArray(TransformGroup, true),

		Indices:       collection.NewTriangleArray(VerticesGroup),
		MaterialID:    collection.NewArray[int32](0),
		Visible:       collection.NewArray(true),
		MaterialIndex: collection.NewArray[int32](0),

		TransformIndex: collection.NewIndexArray(TransformGroup, true),
		BoundingBox:    collection.NewArray(geom.EmptyBox()),
		InnerRadius:    collection.NewArray[float32](0),
		OuterRadius:    collection.NewArray[float32](0),
		VertexStart:    collection.NewArray(Invalid),
		VertexCount:    collection.NewArray[int32](0),
		FaceStart:      collection.NewArray(Invalid),
		FaceCount:      collection.NewArray[int32](0),
		Proximity:      collection.NewSetArray(GeometryGroup),

		Sections: collection.NewArray(Section{}),

		BreakingFaceIndex:            collection.NewIndexArray(FacesGroup, false),
		BreakingSourceTransformIndex: collection.NewIndexArray(TransformGroup, false),
		BreakingTargetTransformIndex: collection.NewIndexArray(TransformGroup, false),
		BreakingRegionCentroid:       collection.NewArray(geom.Vec3{}),
		BreakingRegionNormal:         collection.NewArray(geom.Vec3{}),
		BreakingRegionRadius:         collection.NewArray[float32](0),
	}

	for _, g := range []string{TransformGroup, VerticesGroup, FacesGroup, GeometryGroup, MaterialGroup, BreakingGroup} {
		c.AddGroup(g)
	}

	c.AddAttribute(TransformGroup, "Transform", c.Transform)
	c.AddAttribute(TransformGroup, "Parent", c.Parent)
	c.AddAttribute(TransformGroup, "Children", c.Children)
	c.AddAttribute(TransformGroup, "Level", c.Level)
	c.AddAttribute(TransformGroup, "TransformToGeometryIndex", c.TransformToGeometryIndex)
	c.AddAttribute(TransformGroup, "BoneName", c.BoneName)
	c.AddAttribute(TransformGroup, "GUID", c.GUID)
	c.AddAttribute(TransformGroup, "SimulationType", c.SimulationType)

	c.AddAttribute(VerticesGroup, "Vertex", c.Vertex)
	c.AddAttribute(VerticesGroup, "Normal", c.Normal)
	c.AddAttribute(VerticesGroup, "UV", c.UV)
	c.AddAttribute(VerticesGroup, "BoneMap", c.BoneMap)

	c.AddAttribute(FacesGroup, "Indices", c.Indices)
	c.AddAttribute(FacesGroup, "MaterialID", c.MaterialID)
	c.AddAttribute(FacesGroup, "Visible", c.Visible)
	c.AddAttribute(FacesGroup, "MaterialIndex", c.MaterialIndex)

	c.AddAttribute(GeometryGroup, "TransformIndex", c.TransformIndex)
	c.AddAttribute(GeometryGroup, "BoundingBox", c.BoundingBox)
	c.AddAttribute(GeometryGroup, "InnerRadius", c.InnerRadius)
	c.AddAttribute(GeometryGroup, "OuterRadius", c.OuterRadius)
	c.AddAttribute(GeometryGroup, "VertexStart", c.VertexStart)
	c.AddAttribute(GeometryGroup, "VertexCount", c.VertexCount)
	c.AddAttribute(GeometryGroup, "FaceStart", c.FaceStart)
	c.AddAttribute(GeometryGroup, "FaceCount", c.FaceCount)
	c.AddAttribute(GeometryGroup, "Proximity", c.Proximity)

	c.AddAttribute(MaterialGroup, "Sections", c.Sections)

	c.AddAttribute(BreakingGroup, "BreakingFaceIndex", c.BreakingFaceIndex)
	c.AddAttribute(BreakingGroup, "BreakingSourceTransformIndex", c.BreakingSourceTransformIndex)
	c.AddAttribute(BreakingGroup, "BreakingTargetTransformIndex", c.BreakingTargetTransformIndex)
	c.AddAttribute(BreakingGroup, "BreakingRegionCentroid", c.BreakingRegionCentroid)
	c.AddAttribute(BreakingGroup, "BreakingRegionNormal", c.BreakingRegionNormal)
	c.AddAttribute(BreakingGroup, "BreakingRegionRadius", c.BreakingRegionRadius)

	return c
}

// AddElements appends n rows to group. New transforms get a fresh GUID.
func (c *Collection) AddElements(group string, n int) int {
	first := c.Collection.AddElements(group, n)
	switch group {
	case TransformGroup:
		for i := first; i < first+n; i++ {
			c.GUID.Set(i, uuid.New())
		}
	case VerticesGroup, FacesGroup, GeometryGroup:
		if n > 0 {
			c.proximityStale = true
		}
	}
	return first
}

// NumTransforms returns the number of hierarchy nodes.
func (c *Collection) NumTransforms() int { return c.NumElements(TransformGroup) }

// NumGeometry returns the number of geometry entries.
func (c *Collection) NumGeometry() int { return c.NumElements(GeometryGroup) }

// IsGeometry reports whether transform t owns geometry.
func (c *Collection) IsGeometry(t int) bool {
	return c.TransformToGeometryIndex.At(t) != Invalid
}

// IsClustered reports whether transform t is a cluster node.
func (c *Collection) IsClustered(t int) bool {
	return c.SimulationType.At(t) == SimulationClustered
}

// IsRigid reports whether transform t is a rigid chunk.
func (c *Collection) IsRigid(t int) bool {
	return c.SimulationType.At(t) == SimulationRigid
}

// Roots returns every transform without a parent.
func (c *Collection) Roots() []int {
	var roots []int
	for i, p := range c.Parent.Slice() {
		if p == Invalid {
			roots = append(roots, i)
		}
	}
	return roots
}

// ProximityFresh reports whether the proximity relation and breaking regions
// reflect the current geometry.
func (c *Collection) ProximityFresh() bool { return !c.proximityStale }

// MarkProximityFresh records that proximity was just rebuilt.
func (c *Collection) MarkProximityFresh() { c.proximityStale = false }

// InvalidateProximity forces the next reader to rebuild proximity.
func (c *Collection) InvalidateProximity() { c.proximityStale = true }

// GlobalTransforms returns the world transform of every node, composing
// local transforms from the root down.
func (c *Collection) GlobalTransforms() []geom.Transform {
	n := c.NumTransforms()
	out := make([]geom.Transform, n)
	done := make([]bool, n)
	visiting := make([]bool, n)

	var resolve func(i int) geom.Transform
	resolve = func(i int) geom.Transform {
		if done[i] {
			return out[i]
		}
		if visiting[i] {
			panic(ErrHierarchyCycle)
		}
		visiting[i] = true
		local := c.Transform.At(i)
		if p := c.Parent.At(i); p != Invalid {
			local = local.Mul(resolve(int(p)))
		}
		visiting[i] = false
		out[i] = local
		done[i] = true
		return local
	}
	for i := 0; i < n; i++ {
		resolve(i)
	}
	return out
}

// WorldBounds returns the bounding box of every geometry entry in world space.
func (c *Collection) WorldBounds() []geom.Box {
	global := c.GlobalTransforms()
	out := make([]geom.Box, c.NumGeometry())
	for g := range out {
		out[g] = c.BoundingBox.At(g).Transform(global[c.TransformIndex.At(g)])
	}
	return out
}

// IsDegenerate reports whether geometry g has fewer than four vertices or
// faces, too little to enclose a volume.
func (c *Collection) IsDegenerate(g int) bool {
	return c.VertexCount.At(g) < 4 || c.FaceCount.At(g) < 4
}

// UpdateGeometryVisibility sets the visibility of every face owned by nodes.
func (c *Collection) UpdateGeometryVisibility(nodes []int, visible bool) {
	owned := make(map[int32]bool, len(nodes))
	for _, n := range nodes {
		owned[int32(n)] = true
	}
	for f, tri := range c.Indices.Slice() {
		if owned[c.BoneMap.At(int(tri[0]))] {
			c.Visible.Set(f, visible)
		}
	}
}

// HasVisibleGeometry reports whether any face is visible.
func (c *Collection) HasVisibleGeometry() bool {
	for _, v := range c.Visible.Slice() {
		if v {
			return true
		}
	}
	return false
}
