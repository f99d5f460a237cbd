// Package hierarchy edits the transform tree of a geometry collection:
// clustering nodes under new or existing parents, collapsing levels, and
// keeping levels and bone names consistent after every edit.
//
// Precondition violations panic with a wrapped sentinel error. They are
// programming errors, not input errors.
package hierarchy

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/shatter/internal/logger"
	"github.com/Faultbox/shatter/pkg/collection"
	"github.com/Faultbox/shatter/pkg/geom"
	"github.com/Faultbox/shatter/pkg/geometry"
)

const invalid = geometry.Invalid

var (
	ErrEmptyMembers = errors.New("cluster member list is empty")
	ErrCycle        = errors.New("re-parenting would create a cycle")
	ErrInvariant    = errors.New("hierarchy invariant violated")
)

// ClusterUnderNewNode adds a clustered transform in the slot of source's
// parent and moves every member under it. The new node is returned.
//
// With keepWorld set, member local transforms are rewritten so their world
// placement is unchanged; otherwise they keep their local transforms.
// Panics if members is empty, an index is out of range, a member is the
// parent slot or one of its ancestors, or source is a root left out of
// members.
func ClusterUnderNewNode(c *geometry.Collection, source int, members []int, keepWorld bool) int {
	if len(members) == 0 {
		panic(fmt.Errorf("%w: cluster under %d", ErrEmptyMembers, source))
	}
	checkRange(c, source)
	for _, m := range members {
		checkRange(c, m)
	}

	slot := c.Parent.At(source)
	for _, m := range members {
		if slot != invalid && isAncestorOrSelf(c, int32(m), slot) {
			panic(fmt.Errorf("%w: node %d is an ancestor of slot %d", ErrCycle, m, slot))
		}
	}
	if slot == invalid && !slices.Contains(members, source) {
		panic(fmt.Errorf("%w: clustering beside root %d would add a second root", ErrInvariant, source))
	}
	members = sortedUnique(members)

	var global []geom.Transform
	if keepWorld {
		global = c.GlobalTransforms()
	}

	node := c.AddElements(geometry.TransformGroup, 1)
	c.SimulationType.Set(node, geometry.SimulationClustered)
	c.Parent.Set(node, slot)
	if slot == invalid {
		c.Level.Set(node, 0)
		c.BoneName.Set(node, c.BoneName.At(source))
	} else {
		c.Level.Set(node, c.Level.At(int(slot))+1)
		c.Children.Add(int(slot), int32(node))
	}

	for _, m := range members {
		reparent(c, m, node)
		if keepWorld {
			// The new node has the identity transform, so its world is the slot's.
			c.Transform.Set(m, worldUnder(global, m, slot))
		}
	}

	UpdateHierarchyLevelOfChildren(c, node)
	RecursivelyUpdateBoneNames(c)

	logger.Debug("clustered under new node",
		zap.Int("node", node),
		zap.Int32("slot", slot),
		zap.Ints("members", members),
	)
	return node
}

// ClusterUnderExistingNode moves members under target, keeping their world
// placement. Members that are target itself or one of its ancestors are
// skipped. The number of moved members is returned.
func ClusterUnderExistingNode(c *geometry.Collection, target int, members []int) int {
	if len(members) == 0 {
		panic(fmt.Errorf("%w: cluster under %d", ErrEmptyMembers, target))
	}
	checkRange(c, target)
	for _, m := range members {
		checkRange(c, m)
	}

	// Decide every member before mutating anything.
	accepted := make([]int, 0, len(members))
	for _, m := range sortedUnique(members) {
		if isAncestorOrSelf(c, int32(m), int32(target)) {
			logger.Debug("skipping member above cluster target", zap.Int("member", m), zap.Int("target", target))
			continue
		}
		if c.Parent.At(m) == int32(target) {
			continue
		}
		accepted = append(accepted, m)
	}
	if len(accepted) == 0 {
		return 0
	}

	global := c.GlobalTransforms()
	for _, m := range accepted {
		reparent(c, m, target)
		c.Transform.Set(m, global[m].Relative(global[target]))
	}
	if c.SimulationType.At(target) == geometry.SimulationNone {
		c.SimulationType.Set(target, geometry.SimulationClustered)
	}

	UpdateHierarchyLevelOfChildren(c, target)
	RecursivelyUpdateBoneNames(c)

	logger.Debug("clustered under existing node", zap.Int("target", target), zap.Ints("members", accepted))
	return len(accepted)
}

// CollapseHierarchyOneLevel moves the children of every node in nodes to
// that node's parent and removes the emptied node. Roots, leaves and nodes
// that own geometry are left alone. The number of removed nodes is
// returned.
func CollapseHierarchyOneLevel(c *geometry.Collection, nodes []int) int {
	return collapse(c, nodes, func(int) bool { return true })
}

// Uncluster collapses the selected nodes that sit at level. A negative
// level accepts every selected node.
func Uncluster(c *geometry.Collection, level int, selection []int) int {
	return collapse(c, selection, func(n int) bool {
		return level < 0 || int(c.Level.At(n)) == level
	})
}

func collapse(c *geometry.Collection, nodes []int, accept func(int) bool) int {
	for _, n := range nodes {
		checkRange(c, n)
	}

	var targets []int
	for _, n := range sortedUnique(nodes) {
		switch {
		case !accept(n):
		case c.Parent.At(n) == invalid:
			logger.Debug("not collapsing root", zap.Int("node", n))
		case c.Children.Count(n) == 0:
		case c.IsGeometry(n):
			logger.Debug("not collapsing node with geometry", zap.Int("node", n))
		default:
			targets = append(targets, n)
		}
	}
	if len(targets) == 0 {
		return 0
	}

	// Transform removal re-parents surviving children to the nearest
	// surviving ancestor and keeps their world placement.
	c.RemoveElements(geometry.TransformGroup, targets)

	UpdateHierarchyLevelOfChildren(c, int(invalid))
	RecursivelyUpdateBoneNames(c)

	logger.Debug("collapsed hierarchy", zap.Ints("removed", targets))
	return len(targets)
}

func reparent(c *geometry.Collection, node, parent int) {
	if old := c.Parent.At(node); old != invalid {
		c.Children.Remove(int(old), int32(node))
	}
	c.Parent.Set(node, int32(parent))
	c.Children.Add(parent, int32(node))
}

func worldUnder(global []geom.Transform, node int, parent int32) geom.Transform {
	if parent == invalid {
		return global[node]
	}
	return global[node].Relative(global[parent])
}

// isAncestorOrSelf reports whether a is b or lies on b's parent chain.
func isAncestorOrSelf(c *geometry.Collection, a, b int32) bool {
	for steps := 0; b != invalid; steps++ {
		if a == b {
			return true
		}
		if steps > c.NumTransforms() {
			panic(fmt.Errorf("%w: parent chain of %d loops", ErrCycle, b))
		}
		b = c.Parent.At(int(b))
	}
	return false
}

func checkRange(c *geometry.Collection, n int) {
	if n < 0 || n >= c.NumTransforms() {
		panic(fmt.Errorf("%w: transform %d of %d", collection.ErrIndexOutOfRange, n, c.NumTransforms()))
	}
}

func sortedUnique(nodes []int) []int {
	out := slices.Clone(nodes)
	slices.Sort(out)
	return slices.Compact(out)
}
