// Package command runs named fracture edits against a geometry collection.
//
// Every edit is a Kind. Execute checks the selection, dispatches to the
// hierarchy, proximity or autocluster packages, and validates the hierarchy
// after structural edits.
package command

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/shatter/internal/autocluster"
	"github.com/Faultbox/shatter/internal/hierarchy"
	"github.com/Faultbox/shatter/internal/logger"
	"github.com/Faultbox/shatter/internal/proximity"
	"github.com/Faultbox/shatter/pkg/geometry"
)

var (
	ErrUnknownKind      = errors.New("unknown command")
	ErrInvalidSelection = errors.New("invalid selection")
)

// Kind identifies a fracture edit.
type Kind int

const (
	KindCluster Kind = iota
	KindUncluster
	KindFlatten
	KindMoveUp
	KindDelete
	KindUpdateProximity
	KindAutoCluster
)

var kindNames = map[Kind]string{
	KindCluster:         "cluster",
	KindUncluster:       "uncluster",
	KindFlatten:         "flatten",
	KindMoveUp:          "move-up",
	KindDelete:          "delete",
	KindUpdateProximity: "update-proximity",
	KindAutoCluster:     "autocluster",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Structural reports whether k edits the transform hierarchy.
func (k Kind) Structural() bool {
	return k != KindUpdateProximity
}

// ParseKind maps a command name to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Kinds returns every command name in Kind order.
func Kinds() []string {
	out := make([]string, len(kindNames))
	for k, name := range kindNames {
		out[k] = name
	}
	return out
}

// Command is one edit request.
type Command struct {
	Kind Kind
	// Nodes is the selected transforms. Flatten with no nodes flattens the
	// whole collection.
	Nodes []int
	// Level restricts uncluster to nodes at that level; negative accepts
	// any level.
	Level int

	Proximity   proximity.Options
	AutoCluster autocluster.Request
}

// Outcome reports the effect of Execute.
type Outcome struct {
	Kind Kind
	// Changed counts the nodes touched: moved for cluster and move-up,
	// removed for uncluster, flatten and delete, candidates for
	// autocluster, and pairs found for update-proximity.
	Changed int
	// Created holds new transforms.
	Created []int

	Proximity   *proximity.Result
	AutoCluster *autocluster.Result
}

// Execute runs cmd against c. Bad selections are returned as errors before
// anything is modified.
func Execute(ctx context.Context, c *geometry.Collection, cmd Command) (Outcome, error) {
	if err := checkSelection(c, cmd); err != nil {
		return Outcome{}, err
	}
	out := Outcome{Kind: cmd.Kind}

	switch cmd.Kind {
	case KindCluster:
		node := hierarchy.ClusterUnderNewNode(c, cmd.Nodes[0], cmd.Nodes, true)
		out.Created = []int{node}
		out.Changed = len(cmd.Nodes)

	case KindUncluster:
		out.Changed = hierarchy.Uncluster(c, cmd.Level, cmd.Nodes)

	case KindFlatten:
		before := c.NumTransforms()
		if len(cmd.Nodes) == 0 {
			hierarchy.Flatten(c)
		} else {
			if hierarchy.ContainsMultipleRootBones(c) {
				out.Created = []int{hierarchy.ClusterAllBonesUnderNewRoot(c)}
			}
			hierarchy.ClusterBonesUnderExistingRoot(c, cmd.Nodes)
		}
		out.Changed = max(0, before-c.NumTransforms())

	case KindMoveUp:
		out.Changed = hierarchy.MoveUpOneHierarchyLevel(c, cmd.Nodes)

	case KindDelete:
		before := c.NumTransforms()
		c.RemoveElements(geometry.TransformGroup, cmd.Nodes)
		hierarchy.UpdateHierarchyLevelOfChildren(c, int(geometry.Invalid))
		hierarchy.RecursivelyUpdateBoneNames(c)
		out.Changed = before - c.NumTransforms()

	case KindUpdateProximity:
		res, err := proximity.Update(ctx, c, cmd.Proximity)
		if err != nil {
			return Outcome{}, err
		}
		out.Proximity = &res
		out.Changed = len(res.Pairs)

	case KindAutoCluster:
		res, err := autocluster.Run(ctx, c, cmd.AutoCluster)
		if err != nil {
			return Outcome{}, err
		}
		out.AutoCluster = &res
		out.Created = res.Clusters
		out.Changed = res.Candidates
		if res.Skipped {
			out.Changed = 0
		}
	}

	if cmd.Kind.Structural() {
		hierarchy.ValidateResults(c)
	}
	logger.Info("command executed",
		zap.Stringer("kind", cmd.Kind),
		zap.Ints("nodes", cmd.Nodes),
		zap.Int("changed", out.Changed),
		zap.Ints("created", out.Created),
	)
	return out, nil
}

func checkSelection(c *geometry.Collection, cmd Command) error {
	if _, ok := kindNames[cmd.Kind]; !ok {
		return fmt.Errorf("%w: %v", ErrUnknownKind, cmd.Kind)
	}
	n := c.NumTransforms()
	for _, node := range cmd.Nodes {
		if node < 0 || node >= n {
			return fmt.Errorf("%w: node %d of %d", ErrInvalidSelection, node, n)
		}
	}

	switch cmd.Kind {
	case KindCluster, KindUncluster, KindMoveUp, KindDelete:
		if len(cmd.Nodes) == 0 {
			return fmt.Errorf("%w: %v needs at least one node", ErrInvalidSelection, cmd.Kind)
		}
	}

	switch cmd.Kind {
	case KindCluster:
		// The new node takes the first node's parent slot, which must not
		// sit below another selected node.
		slot := c.Parent.At(cmd.Nodes[0])
		for _, node := range cmd.Nodes {
			if slot != geometry.Invalid && isAncestorOrSelf(c, int32(node), slot) {
				return fmt.Errorf("%w: node %d is above the cluster slot", ErrInvalidSelection, node)
			}
		}
	case KindDelete:
		seen := make(map[int]bool, len(cmd.Nodes))
		for _, node := range cmd.Nodes {
			if c.Parent.At(node) == geometry.Invalid {
				return fmt.Errorf("%w: cannot delete root %d", ErrInvalidSelection, node)
			}
			if seen[node] {
				return fmt.Errorf("%w: node %d listed twice", ErrInvalidSelection, node)
			}
			seen[node] = true
		}
	}
	return nil
}

func isAncestorOrSelf(c *geometry.Collection, a, b int32) bool {
	for steps := 0; b != geometry.Invalid && steps <= c.NumTransforms(); steps++ {
		if a == b {
			return true
		}
		b = c.Parent.At(int(b))
	}
	return false
}
