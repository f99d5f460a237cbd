// Package fixture builds small cube collections with known adjacency for
// tests across the module.
package fixture

import (
	"fmt"

	"github.com/Faultbox/shatter/pkg/geom"
	"github.com/Faultbox/shatter/pkg/geometry"
)

var unit = geom.Vec3{1, 1, 1}

// Cube returns a one-chunk collection holding a unit cube at local offset at.
func Cube(at geom.Vec3) *geometry.Collection {
	return geometry.MakeCube(geom.Translation(at), unit)
}

// CubeChunk returns a unit cube chunk at local offset at.
func CubeChunk(at geom.Vec3) geometry.Chunk {
	return geometry.CubeChunk(geom.Translation(at), unit)
}

// ThreeCubeChain returns three unit cubes linked parent -> child ->
// grandchild with local offsets (0,0,0), (1,0,0) and (0.5,0,1). In world
// space the cubes sit at (0,0,0), (1,0,0) and (1.5,0,1): cube 0 touches
// cube 1 face to face, cube 2 rests on cube 1 only.
func ThreeCubeChain() *geometry.Collection {
	c := geometry.New()
	parent := int(geometry.Invalid)
	for _, at := range []geom.Vec3{{0, 0, 0}, {1, 0, 0}, {0.5, 0, 1}} {
		parent = c.AppendChunk(parent, CubeChunk(at))
	}
	c.BoneName.Set(0, "Chain")
	c.BoneName.Set(1, "Chain_000")
	c.BoneName.Set(2, "Chain_000_000")
	return c
}

// SixCubeCentres are the world centres of the SixCubeWall cubes: a row of
// three at y=0.5 and a row of three at y=1.5 shifted by half a cube.
var SixCubeCentres = []geom.Vec3{
	{0.5, 0.5, 0.5}, {1.5, 0.5, 0.5}, {2.5, 0.5, 0.5},
	{0, 1.5, 0.5}, {1, 1.5, 0.5}, {2, 1.5, 0.5},
}

// SixCubeAdjacency is the proximity of SixCubeWall by geometry index.
var SixCubeAdjacency = [][]int32{
	{1, 3, 4},
	{0, 2, 4, 5},
	{1, 5},
	{0, 4},
	{0, 1, 3, 5},
	{1, 2, 4},
}

// SixCubeWall returns a clustered root (transform 0, no geometry) over six
// rigid unit cubes (transforms 1..6, geometry 0..5) at SixCubeCentres.
func SixCubeWall() *geometry.Collection {
	return Wall("Wall", SixCubeCentres)
}

// Wall returns a clustered root named name over one rigid unit cube per
// centre. Geometry g is owned by transform g+1.
func Wall(name string, centres []geom.Vec3) *geometry.Collection {
	c := geometry.New()
	root := c.AppendChunk(int(geometry.Invalid), geometry.Chunk{Name: name})

	chunks := make([]geometry.Chunk, len(centres))
	for i, at := range centres {
		chunks[i] = CubeChunk(at)
		chunks[i].Name = fmt.Sprintf("%s_%03d", name, i)
	}
	c.AppendChunks(root, chunks)
	return c
}

// Grid returns a clustered root over an nx by ny by nz block of touching
// unit cubes, ordered x fastest.
func Grid(nx, ny, nz int) *geometry.Collection {
	centres := make([]geom.Vec3, 0, nx*ny*nz)
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				centres = append(centres, geom.Vec3{float32(x), float32(y), float32(z)})
			}
		}
	}
	return Wall("Grid", centres)
}
