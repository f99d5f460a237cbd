package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/shatter/internal/fixture"
	"github.com/Faultbox/shatter/pkg/collection"
	"github.com/Faultbox/shatter/pkg/geom"
	"github.com/Faultbox/shatter/pkg/geometry"
)

func assertVec(t *testing.T, want, got geom.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "component %d of %v", i, got)
	}
}

func assertPanicsWith(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.ErrorIs(t, err, target)
	}()
	fn()
}

func assertWorldUnchanged(t *testing.T, before []geom.Transform, c *geometry.Collection) {
	t.Helper()
	after := c.GlobalTransforms()
	for i := range before {
		assert.True(t, before[i].ApproxEqual(after[i], 1e-5), "node %d moved: %v -> %v", i, before[i], after[i])
	}
}

func TestClusterUnderNewNode(t *testing.T) {
	c := fixture.SixCubeWall()

	node := ClusterUnderNewNode(c, 1, []int{2, 1}, false)

	require.Equal(t, 7, node)
	assert.Equal(t, int32(0), c.Parent.At(node))
	assert.Equal(t, int32(1), c.Level.At(node))
	assert.True(t, c.IsClustered(node))
	assert.False(t, c.IsGeometry(node))
	assert.Equal(t, []int32{3, 4, 5, 6, 7}, c.Children.Members(0))
	assert.Equal(t, []int32{1, 2}, c.Children.Members(node))
	for _, m := range []int{1, 2} {
		assert.Equal(t, int32(node), c.Parent.At(m))
		assert.Equal(t, int32(2), c.Level.At(m))
	}

	assert.Equal(t, "Wall", c.BoneName.At(0))
	assert.Equal(t, "Wall_004", c.BoneName.At(node))
	assert.Equal(t, "Wall_004_000", c.BoneName.At(1))
	assert.Equal(t, "Wall_004_001", c.BoneName.At(2))
	assert.Equal(t, "Wall_000", c.BoneName.At(3))

	assert.NotPanics(t, func() { ValidateResults(c) })
}

func TestClusterUnderNewNodeKeepWorld(t *testing.T) {
	tests := []struct {
		name      string
		keepWorld bool
		local     geom.Vec3
		world     geom.Vec3
	}{
		{"keep world", true, geom.Vec3{1.5, 0, 1}, geom.Vec3{1.5, 0, 1}},
		{"keep local", false, geom.Vec3{0.5, 0, 1}, geom.Vec3{0.5, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := fixture.ThreeCubeChain()

			// Source 1 sits under the root, so the new node joins the root
			// and the grandchild skips a level.
			node := ClusterUnderNewNode(c, 1, []int{2}, tt.keepWorld)

			assert.Equal(t, int32(0), c.Parent.At(node))
			assert.Equal(t, int32(node), c.Parent.At(2))
			assert.Equal(t, int32(2), c.Level.At(2))
			assertVec(t, tt.local, c.Transform.At(2).Translation)
			assertVec(t, tt.world, c.GlobalTransforms()[2].Translation)
			assert.NotPanics(t, func() { ValidateResults(c) })
		})
	}
}

func TestClusterUnderNewNodeAtRoot(t *testing.T) {
	c := fixture.ThreeCubeChain()
	before := c.GlobalTransforms()

	node := ClusterUnderNewNode(c, 0, []int{0}, true)

	assert.Equal(t, []int{node}, c.Roots())
	assert.Equal(t, []int32{1, 2, 3, 0}, c.Level.Slice())
	assert.Equal(t, "Chain", c.BoneName.At(node))
	assert.Equal(t, "Chain_000", c.BoneName.At(0))
	assert.Equal(t, "Chain_000_000", c.BoneName.At(1))
	assertWorldUnchanged(t, before, c)
	assert.NotPanics(t, func() { ValidateResults(c) })
}

func TestClusterUnderNewNodePreconditions(t *testing.T) {
	tests := []struct {
		name    string
		source  int
		members []int
		err     error
	}{
		{"empty members", 1, nil, ErrEmptyMembers},
		{"source out of range", 3, []int{1}, collection.ErrIndexOutOfRange},
		{"member out of range", 1, []int{-1}, collection.ErrIndexOutOfRange},
		{"member is ancestor of slot", 2, []int{0}, ErrCycle},
		{"member is the slot", 2, []int{1}, ErrCycle},
		{"root source not among members", 0, []int{1}, ErrInvariant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := fixture.ThreeCubeChain()
			assertPanicsWith(t, tt.err, func() { ClusterUnderNewNode(c, tt.source, tt.members, false) })
			assert.Equal(t, 3, c.NumTransforms(), "failed call must not add a node")
		})
	}
}

func TestClusterUnderExistingNode(t *testing.T) {
	c := fixture.SixCubeWall()
	node := ClusterUnderNewNode(c, 1, []int{1, 2}, true)
	before := c.GlobalTransforms()

	moved := ClusterUnderExistingNode(c, node, []int{3, 0, node, 1})

	assert.Equal(t, 1, moved)
	assert.Equal(t, []int32{1, 2, 3}, c.Children.Members(node))
	assert.Equal(t, int32(node), c.Parent.At(3))
	assert.Equal(t, int32(2), c.Level.At(3))
	assert.Equal(t, []int{0}, c.Roots())
	assertWorldUnchanged(t, before, c)
	assert.NotPanics(t, func() { ValidateResults(c) })
}

func TestClusterUnderExistingNodeSkipsAncestors(t *testing.T) {
	c := fixture.ThreeCubeChain()

	moved := ClusterUnderExistingNode(c, 2, []int{0, 1})

	assert.Zero(t, moved)
	assert.Equal(t, []int32{geometry.Invalid, 0, 1}, c.Parent.Slice())
	assertPanicsWith(t, ErrEmptyMembers, func() { ClusterUnderExistingNode(c, 2, []int{}) })
}

func TestCollapseHierarchyOneLevel(t *testing.T) {
	c := fixture.SixCubeWall()
	before := c.GlobalTransforms()
	node := ClusterUnderNewNode(c, 1, []int{1, 2}, true)

	removed := CollapseHierarchyOneLevel(c, []int{node, 0, 3})

	assert.Equal(t, 1, removed)
	assert.Equal(t, 7, c.NumTransforms())
	for n := 1; n < 7; n++ {
		assert.Equal(t, int32(0), c.Parent.At(n))
		assert.Equal(t, int32(1), c.Level.At(n))
	}
	assert.Equal(t, "Wall_000", c.BoneName.At(1))
	assertWorldUnchanged(t, before, c)
	assert.NotPanics(t, func() { ValidateResults(c) })
}

func TestCollapseSkipsGeometryNodes(t *testing.T) {
	c := fixture.ThreeCubeChain()

	assert.Zero(t, CollapseHierarchyOneLevel(c, []int{1}))
	assert.Equal(t, 3, c.NumTransforms())
}

func TestUncluster(t *testing.T) {
	c := fixture.SixCubeWall()
	outer := ClusterUnderNewNode(c, 1, []int{1, 2}, true)
	inner := ClusterUnderNewNode(c, 1, []int{1}, true)
	require.Equal(t, int32(2), c.Level.At(inner))

	assert.Equal(t, 1, Uncluster(c, 2, []int{outer, inner}))
	assert.Equal(t, 8, c.NumTransforms())
	assert.Equal(t, int32(outer), c.Parent.At(1))
	assert.Equal(t, int32(2), c.Level.At(1))

	assert.Equal(t, 1, Uncluster(c, -1, []int{outer}))
	assert.Equal(t, 7, c.NumTransforms())
	assert.Equal(t, int32(0), c.Parent.At(1))
	assert.NotPanics(t, func() { ValidateResults(c) })
}

func TestUpdateHierarchyLevelOfChildren(t *testing.T) {
	c := fixture.ThreeCubeChain()
	c.Level.Set(0, 5)
	c.Level.Set(1, 5)
	c.Level.Set(2, 5)

	UpdateHierarchyLevelOfChildren(c, int(geometry.Invalid))
	assert.Equal(t, []int32{0, 1, 2}, c.Level.Slice())

	c.Level.Set(2, 9)
	UpdateHierarchyLevelOfChildren(c, 1)
	assert.Equal(t, []int32{0, 1, 2}, c.Level.Slice())
}

func TestValidateResults(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(c *geometry.Collection)
	}{
		{"two roots", func(c *geometry.Collection) {
			c.Children.Remove(1, 2)
			c.Parent.Set(2, geometry.Invalid)
			c.Level.Set(2, 0)
		}},
		{"wrong level", func(c *geometry.Collection) { c.Level.Set(2, 7) }},
		{"stale child", func(c *geometry.Collection) { c.Children.Add(0, 2) }},
		{"broken vertex range", func(c *geometry.Collection) { c.BoneMap.Set(0, 2) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := fixture.ThreeCubeChain()
			require.NotPanics(t, func() { ValidateResults(c) })
			tt.corrupt(c)
			assertPanicsWith(t, ErrInvariant, func() { ValidateResults(c) })
		})
	}
}

func twoLooseCubes() *geometry.Collection {
	c := fixture.Cube(geom.Vec3{0, 0, 0})
	c.AppendGeometry(fixture.Cube(geom.Vec3{1, 0, 0}), 0)
	return c
}

func TestClusterAllBonesUnderNewRoot(t *testing.T) {
	c := twoLooseCubes()
	require.True(t, ContainsMultipleRootBones(c))

	root := ClusterAllBonesUnderNewRoot(c)

	assert.Equal(t, 2, root)
	assert.False(t, ContainsMultipleRootBones(c))
	assert.Equal(t, []int{root}, c.Roots())
	assert.Equal(t, []int32{1, 1, 0}, c.Level.Slice())
	assert.Equal(t, []string{"Cube_000", "Cube_001", "Cube"}, c.BoneName.Slice())
	assert.NotPanics(t, func() { ValidateResults(c) })
}

func TestFlatten(t *testing.T) {
	c := fixture.SixCubeWall()
	before := c.GlobalTransforms()
	inner := ClusterUnderNewNode(c, 1, []int{1, 2}, true)
	ClusterUnderNewNode(c, inner, []int{inner, 3}, true)
	require.Equal(t, 9, c.NumTransforms())

	Flatten(c)

	assert.Equal(t, 7, c.NumTransforms())
	for n := 1; n < 7; n++ {
		assert.Equal(t, int32(0), c.Parent.At(n), "node %d", n)
		assert.Equal(t, int32(1), c.Level.At(n))
	}
	assertWorldUnchanged(t, before, c)
	assert.NotPanics(t, func() { ValidateResults(c) })
}

func TestFlattenMultipleRoots(t *testing.T) {
	c := twoLooseCubes()

	Flatten(c)

	assert.Equal(t, 3, c.NumTransforms())
	assert.Equal(t, []int{2}, c.Roots())
	assert.Equal(t, []int32{0, 1}, c.Children.Members(2))
}

func TestClusterBonesUnderExistingRootNeedsOneRoot(t *testing.T) {
	c := twoLooseCubes()
	assertPanicsWith(t, ErrInvariant, func() { ClusterBonesUnderExistingRoot(c, []int{0}) })
}

func TestMoveUpOneHierarchyLevel(t *testing.T) {
	c := fixture.ThreeCubeChain()

	assert.Equal(t, 1, MoveUpOneHierarchyLevel(c, []int{2, 0}))
	assert.Equal(t, int32(0), c.Parent.At(2))
	assert.Equal(t, int32(1), c.Level.At(2))
	assertVec(t, geom.Vec3{1.5, 0, 1}, c.Transform.At(2).Translation)
	assertVec(t, geom.Vec3{1.5, 0, 1}, c.GlobalTransforms()[2].Translation)
	assert.Equal(t, "Chain_001", c.BoneName.At(2))

	assert.Zero(t, MoveUpOneHierarchyLevel(c, []int{1, 2}), "children of the root stay")
	assert.NotPanics(t, func() { ValidateResults(c) })
}

func TestRecursivelyUpdateBoneNames(t *testing.T) {
	c := fixture.SixCubeWall()
	for n := 1; n < c.NumTransforms(); n++ {
		c.BoneName.Set(n, "scrambled")
	}

	RecursivelyUpdateBoneNames(c)

	assert.Equal(t, []string{"Wall", "Wall_000", "Wall_001", "Wall_002", "Wall_003", "Wall_004", "Wall_005"}, c.BoneName.Slice())
}
