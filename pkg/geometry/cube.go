package geometry

import (
	"slices"

	"github.com/Faultbox/shatter/pkg/geom"
)

var (
	cubeCorners = [8]geom.Vec3{
		{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5},
		{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5},
	}
	// outward winding; the first six faces use material 0, the rest material 1
	cubeFaces = [12][3]int32{
		{0, 2, 1}, {0, 3, 2}, // -Z
		{4, 5, 6}, {4, 6, 7}, // +Z
		{0, 1, 5}, {0, 5, 4}, // -Y
		{3, 7, 6}, {3, 6, 2}, // +Y
		{0, 4, 7}, {0, 7, 3}, // -X
		{1, 2, 6}, {1, 6, 5}, // +X
	}
)

// CubeChunk returns an axis-aligned cube of the given size centred on the
// transform's origin, named Cube.
func CubeChunk(t geom.Transform, size geom.Vec3) Chunk {
	ch := Chunk{
		Name:        "Cube",
		Transform:   t,
		Positions:   make([]geom.Vec3, len(cubeCorners)),
		Normals:     make([]geom.Vec3, len(cubeCorners)),
		UVs:         make([]geom.Vec2, len(cubeCorners)),
		Triangles:   slices.Clone(cubeFaces[:]),
		MaterialIDs: make([]int32, len(cubeFaces)),
	}
	for i, p := range cubeCorners {
		ch.Positions[i] = geom.MulComponents(p, size)
		ch.Normals[i] = geom.Normalize(p)
		ch.UVs[i] = geom.Vec2{p[0] + 0.5, p[1] + 0.5}
	}
	for f := len(cubeFaces) / 2; f < len(cubeFaces); f++ {
		ch.MaterialIDs[f] = 1
	}
	return ch
}

// MakeCube returns a one-chunk collection holding CubeChunk(t, size).
func MakeCube(t geom.Transform, size geom.Vec3) *Collection {
	return newChunkElement(CubeChunk(t, size))
}

// NewFromRaw builds a one-chunk collection from a flat xyz position buffer
// and a flat triangle index buffer. Vertex normals are the normalized sum of
// the normals of the faces using them. With reverse set, the winding of
// every triangle is flipped.
func NewFromRaw(positions []float32, indices []int32, reverse bool) *Collection {
	ch := Chunk{Transform: geom.Identity()}
	for i := 0; i+2 < len(positions); i += 3 {
		ch.Positions = append(ch.Positions, geom.Vec3{positions[i], positions[i+1], positions[i+2]})
	}
	for i := 0; i+2 < len(indices); i += 3 {
		tri := [3]int32{indices[i], indices[i+1], indices[i+2]}
		if reverse {
			tri[1], tri[2] = tri[2], tri[1]
		}
		ch.Triangles = append(ch.Triangles, tri)
	}
	return newChunkElement(ch)
}
