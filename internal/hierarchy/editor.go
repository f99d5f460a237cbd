package hierarchy

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/shatter/internal/logger"
	"github.com/Faultbox/shatter/pkg/geometry"
)

// ContainsMultipleRootBones reports whether the forest has more than one
// root.
func ContainsMultipleRootBones(c *geometry.Collection) bool {
	return len(c.Roots()) > 1
}

// ClusterAllBonesUnderNewRoot adds a clustered root above every current
// root and returns it. The new root has the identity transform, so world
// placement is unchanged. It takes the name of the first old root.
func ClusterAllBonesUnderNewRoot(c *geometry.Collection) int {
	roots := c.Roots()
	if len(roots) == 0 {
		panic(fmt.Errorf("%w: collection has no transforms", ErrEmptyMembers))
	}

	root := c.AddElements(geometry.TransformGroup, 1)
	c.SimulationType.Set(root, geometry.SimulationClustered)
	c.BoneName.Set(root, c.BoneName.At(roots[0]))
	for _, r := range roots {
		reparent(c, r, root)
	}

	UpdateHierarchyLevelOfChildren(c, int(invalid))
	RecursivelyUpdateBoneNames(c)

	logger.Debug("clustered roots under new root", zap.Int("root", root), zap.Ints("roots", roots))
	return root
}

// ClusterBonesUnderExistingRoot moves nodes directly under the single root,
// keeping world placement, then removes moved nodes left without geometry
// or children. Panics with ErrInvariant unless there is exactly one root.
func ClusterBonesUnderExistingRoot(c *geometry.Collection, nodes []int) {
	roots := c.Roots()
	if len(roots) != 1 {
		panic(fmt.Errorf("%w: flatten needs one root, have %d", ErrInvariant, len(roots)))
	}
	root := roots[0]

	var members []int
	for _, n := range nodes {
		checkRange(c, n)
		if n != root {
			members = append(members, n)
		}
	}
	if len(members) == 0 {
		return
	}
	ClusterUnderExistingNode(c, root, members)

	var empty []int
	for _, n := range sortedUnique(members) {
		if !c.IsGeometry(n) && c.Children.Count(n) == 0 {
			empty = append(empty, n)
		}
	}
	if len(empty) > 0 {
		c.RemoveElements(geometry.TransformGroup, empty)
		UpdateHierarchyLevelOfChildren(c, int(invalid))
		RecursivelyUpdateBoneNames(c)
	}
}

// Flatten leaves a single root with every geometry node directly below it.
// Intermediate cluster nodes are removed.
func Flatten(c *geometry.Collection) {
	if c.NumTransforms() == 0 {
		return
	}
	if ContainsMultipleRootBones(c) {
		ClusterAllBonesUnderNewRoot(c)
	}

	var nodes []int
	for n, p := range c.Parent.Slice() {
		if p != invalid {
			nodes = append(nodes, n)
		}
	}
	ClusterBonesUnderExistingRoot(c, nodes)
	logger.Debug("flattened hierarchy", zap.Int("transforms", c.NumTransforms()))
}

// MoveUpOneHierarchyLevel moves every node in nodes from its parent to its
// grandparent, keeping world placement. Roots and children of a root stay
// where they are. The number of moved nodes is returned.
func MoveUpOneHierarchyLevel(c *geometry.Collection, nodes []int) int {
	for _, n := range nodes {
		checkRange(c, n)
	}

	// Resolve destinations first so moving one node does not change where
	// another selected node goes.
	type move struct{ node, to int }
	var moves []move
	for _, n := range sortedUnique(nodes) {
		p := c.Parent.At(n)
		if p == invalid {
			continue
		}
		gp := c.Parent.At(int(p))
		if gp == invalid {
			continue
		}
		moves = append(moves, move{n, int(gp)})
	}
	if len(moves) == 0 {
		return 0
	}

	global := c.GlobalTransforms()
	for _, m := range moves {
		reparent(c, m.node, m.to)
		c.Transform.Set(m.node, global[m.node].Relative(global[m.to]))
	}

	UpdateHierarchyLevelOfChildren(c, int(invalid))
	RecursivelyUpdateBoneNames(c)

	logger.Debug("moved nodes up one level", zap.Int("moved", len(moves)))
	return len(moves)
}
