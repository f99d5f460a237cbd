package proximity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/shatter/internal/config"
	"github.com/Faultbox/shatter/internal/fixture"
	"github.com/Faultbox/shatter/pkg/geom"
	"github.com/Faultbox/shatter/pkg/geometry"
)

func adjacency(c *geometry.Collection) [][]int32 {
	out := make([][]int32, c.NumGeometry())
	for g := range out {
		out[g] = c.Proximity.Members(g)
		if out[g] == nil {
			out[g] = []int32{}
		}
	}
	return out
}

func update(t *testing.T, c *geometry.Collection, opts Options) Result {
	t.Helper()
	res, err := Update(context.Background(), c, opts)
	require.NoError(t, err)
	return res
}

func assertSymmetric(t *testing.T, c *geometry.Collection) {
	t.Helper()
	for g := 0; g < c.NumGeometry(); g++ {
		for _, o := range c.Proximity.Members(g) {
			assert.True(t, c.Proximity.Contains(int(o), int32(g)), "%d lists %d but not the reverse", g, o)
		}
	}
}

func TestThreeCubeChain(t *testing.T) {
	c := fixture.ThreeCubeChain()
	require.False(t, c.ProximityFresh())

	res := update(t, c, DefaultOptions())

	assert.Equal(t, []Pair{{0, 1}, {1, 2}}, res.Pairs)
	assert.Equal(t, [][]int32{{1}, {0, 2}, {1}}, adjacency(c))
	assertSymmetric(t, c)
	assert.True(t, c.ProximityFresh())
	assert.Equal(t, 36, res.Triangles)
}

func TestSixCubeWall(t *testing.T) {
	c := fixture.SixCubeWall()

	update(t, c, DefaultOptions())

	assert.Equal(t, fixture.SixCubeAdjacency, adjacency(c))
	assertSymmetric(t, c)
}

func TestSixCubeWallAfterDeletion(t *testing.T) {
	c := fixture.SixCubeWall()
	update(t, c, DefaultOptions())

	c.RemoveElements(geometry.GeometryGroup, []int{0})
	require.False(t, c.ProximityFresh(), "removing geometry must invalidate proximity")

	// Remapped by the removal itself...
	want := [][]int32{{1, 3, 4}, {0, 4}, {3}, {0, 2, 4}, {0, 1, 3}}
	assert.Equal(t, want, adjacency(c))

	// ...and re-derived from scratch.
	update(t, c, DefaultOptions())
	assert.Equal(t, want, adjacency(c))
	assert.False(t, c.IsGeometry(1), "the transform of the deleted geometry stays")
}

func TestBreakingRegions(t *testing.T) {
	c := fixture.ThreeCubeChain()

	res := update(t, c, DefaultOptions())

	require.Len(t, res.Regions, 2)
	require.Equal(t, 2, c.NumElements(geometry.BreakingGroup))

	// Cubes 0 and 1 meet on the x=0.5 plane; the side faces sharing that
	// edge join the region too.
	r := res.Regions[0]
	assert.Equal(t, Pair{0, 1}, r.Pair)
	assert.Equal(t, int32(0), r.Source)
	assert.Equal(t, int32(1), r.Target)
	assert.Greater(t, r.Centroid[0], float32(0))
	assert.LessOrEqual(t, r.Centroid[0], float32(0.5))
	assert.InDelta(t, 1, r.Normal.Len(), 1e-5)
	assert.LessOrEqual(t, r.InnerRadius, r.OuterRadius)
	assert.Less(t, r.Face, int32(12), "the region face belongs to cube 0")

	assert.Equal(t, r.Face, c.BreakingFaceIndex.At(0))
	assert.Equal(t, r.Centroid, c.BreakingRegionCentroid.At(0))
	assert.Equal(t, r.Normal, c.BreakingRegionNormal.At(0))
	assert.Equal(t, r.InnerRadius, c.BreakingRegionRadius.At(0))
	assert.Equal(t, int32(2), c.BreakingTargetTransformIndex.At(1))
}

func TestIdempotent(t *testing.T) {
	c := fixture.Grid(4, 3, 2)

	first := update(t, c, DefaultOptions())
	before := adjacency(c)
	second := update(t, c, DefaultOptions())

	assert.Equal(t, first.Pairs, second.Pairs)
	assert.Equal(t, first.Regions, second.Regions)
	assert.Equal(t, before, adjacency(c))
	assert.Equal(t, len(first.Regions), c.NumElements(geometry.BreakingGroup))
	assertSymmetric(t, c)
}

func TestWorkerCountDoesNotChangeResult(t *testing.T) {
	single := DefaultOptions()
	single.Workers = 1
	many := DefaultOptions()
	many.Workers = 8
	many.Octree.LeafCapacity = 2

	a := update(t, fixture.Grid(5, 5, 2), single)
	b := update(t, fixture.Grid(5, 5, 2), many)

	assert.Equal(t, a.Pairs, b.Pairs)
	assert.Equal(t, a.Regions, b.Regions)
}

func TestGridFaceNeighbours(t *testing.T) {
	c := fixture.Grid(3, 1, 1)

	res := update(t, c, DefaultOptions())

	assert.Equal(t, []Pair{{0, 1}, {1, 2}}, res.Pairs)
}

func TestSkippedWithFewerThanTwoChunks(t *testing.T) {
	c := fixture.Cube(geom.Vec3{})

	res := update(t, c, DefaultOptions())

	assert.Empty(t, res.Pairs)
	assert.Equal(t, 12, res.Triangles)
	assert.Zero(t, c.NumElements(geometry.BreakingGroup))
	assert.True(t, c.ProximityFresh())
}

func TestClusteredFacesIgnored(t *testing.T) {
	c := fixture.ThreeCubeChain()
	c.SimulationType.Set(1, geometry.SimulationClustered)

	res := update(t, c, DefaultOptions())

	assert.Empty(t, res.Pairs, "cube 0 and cube 2 do not touch")
	assert.Equal(t, 24, res.Triangles)
}

func TestSeparatedCubes(t *testing.T) {
	c := fixture.Wall("Gap", []geom.Vec3{{0, 0, 0}, {1.5, 0, 0}})

	res := update(t, c, DefaultOptions())

	assert.Empty(t, res.Pairs)
	assert.Equal(t, [][]int32{{}, {}}, adjacency(c))
}

func TestCancelledContextLeavesCollectionUntouched(t *testing.T) {
	c := fixture.SixCubeWall()
	update(t, c, DefaultOptions())
	c.InvalidateProximity()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Update(ctx, c, DefaultOptions())

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, fixture.SixCubeAdjacency, adjacency(c))
	assert.False(t, c.ProximityFresh())
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Proximity.Workers = 3
	cfg.DebugVisualization = true

	opts := FromConfig(cfg)

	assert.Equal(t, DefaultOptions().VertexTolerance, opts.VertexTolerance)
	assert.Equal(t, DefaultOptions().AreaTolerance, opts.AreaTolerance)
	assert.Equal(t, 3, opts.workers())
	assert.Equal(t, 8, opts.Octree.MaxDepth)
	assert.True(t, opts.DebugVisualization)

	assert.Positive(t, DefaultOptions().workers())
}

func TestAdjacent(t *testing.T) {
	opts := DefaultOptions()
	floor := geom.Triangle{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}}

	tests := []struct {
		name string
		b    geom.Triangle
		want bool
	}{
		{"identical", floor, true},
		{"reversed winding", geom.Triangle{{0, 0, 0}, {1, 0, 1}, {1, 0, 0}}, true},
		{"shared edge coplanar", geom.Triangle{{0, 0, 0}, {1, 0, 1}, {0, 0, 1}}, true},
		{"overlapping coplanar", geom.Triangle{{0.5, 0, 0}, {1.5, 0, 0}, {1.5, 0, 1}}, true},
		{"parallel but apart", geom.Triangle{{0, 1, 0}, {1, 1, 0}, {1, 1, 1}}, false},
		{"perpendicular sharing edge", geom.Triangle{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}}, false},
		{"coplanar disjoint", geom.Triangle{{3, 0, 0}, {4, 0, 0}, {4, 0, 1}}, false},
		{"within vertex tolerance", geom.Triangle{{0.001, 0, 0}, {1, 0.001, 0}, {1, 0, 1.001}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Adjacent(floor, tt.b, opts))
			assert.Equal(t, tt.want, Adjacent(tt.b, floor, opts), "classification must be symmetric")
		})
	}
}
