// Package autocluster reorganises one hierarchy level into spatial clusters.
//
// Candidates are the transforms at the requested level. They are split into
// groups (connected through proximity, overlapping boxes, or all together),
// every group receives a share of the site budget, members are assigned to
// the nearest site anchor, and each non-empty site becomes a new cluster node.
package autocluster

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/Faultbox/shatter/internal/config"
	"github.com/Faultbox/shatter/internal/hierarchy"
	"github.com/Faultbox/shatter/internal/logger"
	"github.com/Faultbox/shatter/internal/proximity"
	"github.com/Faultbox/shatter/internal/spatial"
	"github.com/Faultbox/shatter/pkg/geom"
	"github.com/Faultbox/shatter/pkg/geometry"
)

var (
	ErrUnknownMode    = errors.New("unknown auto-cluster mode")
	ErrInvalidRequest = errors.New("invalid auto-cluster request")
)

// Request describes one auto-cluster run.
type Request struct {
	Level     int
	Mode      Mode
	SiteCount int

	// BoundsExpansion grows each box by this fraction of its size before
	// overlap tests in bounding-box mode.
	BoundsExpansion float32
	// Jitter breaks equal-volume anchor ties in a Seed-driven random order
	// instead of by index.
	Jitter bool
	Seed   int64

	// Proximity is used when proximity mode finds the relation stale.
	Proximity proximity.Options
}

// RequestFromConfig builds a Request for level from the autocluster section
// of cfg.
func RequestFromConfig(cfg *config.Config, level int) (Request, error) {
	mode, err := ParseMode(cfg.AutoCluster.Mode)
	if err != nil {
		return Request{}, err
	}
	return Request{
		Level:           level,
		Mode:            mode,
		SiteCount:       cfg.AutoCluster.SiteCount,
		BoundsExpansion: cfg.AutoCluster.BoundsExpansion,
		Jitter:          cfg.AutoCluster.Jitter,
		Seed:            cfg.RandomSeed,
		Proximity:       proximity.FromConfig(cfg),
	}, nil
}

// Result reports what a Run did.
type Result struct {
	Candidates int
	// Groups holds the candidate transforms of every group, in index order.
	Groups [][]int
	// Clusters holds the transforms created, one per non-empty site.
	Clusters []int
	// Skipped is set when there were fewer candidates than sites.
	Skipped bool
}

type candidate struct {
	node   int
	box    geom.Box // world space
	centre geom.Vec3
	volume float32
}

// Run clusters the transforms at req.Level. Every candidate ends up with
// exactly one new cluster parent, and world placement is preserved.
// Having fewer candidates than req.SiteCount is not an error: the
// collection is left unchanged and Result.Skipped is set.
func Run(ctx context.Context, c *geometry.Collection, req Request) (Result, error) {
	if req.SiteCount < 1 {
		return Result{}, fmt.Errorf("%w: site count %d", ErrInvalidRequest, req.SiteCount)
	}
	if req.Mode < ModeProximity || req.Mode > ModeDistance {
		return Result{}, fmt.Errorf("%w: %v", ErrUnknownMode, req.Mode)
	}
	done := logger.Timed("autocluster")

	hierarchy.UpdateHierarchyLevelOfChildren(c, int(geometry.Invalid))
	cands, owner := candidates(c, req.Level)
	res := Result{Candidates: len(cands)}
	if len(cands) < req.SiteCount {
		logger.Warn("autocluster skipped, too few candidates",
			zap.Int("level", req.Level),
			zap.Int("candidates", len(cands)),
			zap.Int("sites", req.SiteCount),
		)
		res.Skipped = true
		return res, nil
	}

	var groups [][]int
	switch req.Mode {
	case ModeProximity:
		if !c.ProximityFresh() {
			logger.Debug("proximity stale, rebuilding")
			if _, err := proximity.Update(ctx, c, req.Proximity); err != nil {
				return Result{}, err
			}
		}
		groups = components(len(cands), proximityEdges(c, owner))
	case ModeBoundingBox:
		opts := req.Proximity.Octree
		if opts.LeafCapacity < 1 {
			opts = spatial.DefaultOptions()
		}
		groups = components(len(cands), overlapEdges(cands, req.BoundsExpansion, opts))
	case ModeDistance:
		all := make([]int, len(cands))
		for i := range all {
			all[i] = i
		}
		groups = [][]int{all}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	sites := allocate(groups, cands, req.SiteCount)
	if len(groups) > req.SiteCount {
		logger.Warn("more groups than sites, one cluster per group",
			zap.Int("groups", len(groups)), zap.Int("sites", req.SiteCount))
	}

	var rng *rand.Rand
	if req.Jitter {
		rng = rand.New(rand.NewPCG(uint64(req.Seed), uint64(req.Seed)>>32|1))
	}

	res.Groups = make([][]int, len(groups))
	for gi, members := range groups {
		res.Groups[gi] = make([]int, len(members))
		for i, m := range members {
			res.Groups[gi][i] = cands[m].node
		}

		anchors := placeAnchors(cands, members, sites[gi], rng)
		for _, assigned := range assign(cands, members, anchors, req.Mode == ModeBoundingBox) {
			if len(assigned) == 0 {
				continue
			}
			nodes := make([]int, len(assigned))
			for i, m := range assigned {
				nodes[i] = cands[m].node
			}
			res.Clusters = append(res.Clusters, hierarchy.ClusterUnderNewNode(c, nodes[0], nodes, true))
		}
	}
	hierarchy.UpdateHierarchyLevelOfChildren(c, int(geometry.Invalid))

	done(
		zap.Stringer("mode", req.Mode),
		zap.Int("level", req.Level),
		zap.Int("candidates", len(cands)),
		zap.Int("groups", len(groups)),
		zap.Int("clusters", len(res.Clusters)),
	)
	return res, nil
}

// candidates collects the transforms at level with the world box of the
// geometry below them. owner maps each geometry index to the candidate
// holding it, or -1.
func candidates(c *geometry.Collection, level int) ([]candidate, []int) {
	var cands []candidate
	index := make(map[int32]int)
	for t, l := range c.Level.Slice() {
		if int(l) == level {
			index[int32(t)] = len(cands)
			cands = append(cands, candidate{node: t, box: geom.EmptyBox()})
		}
	}

	world := c.WorldBounds()
	owner := make([]int, c.NumGeometry())
	for g := range owner {
		owner[g] = -1
		t := c.TransformIndex.At(g)
		for t != geometry.Invalid && int(c.Level.At(int(t))) > level {
			t = c.Parent.At(int(t))
		}
		if i, ok := index[t]; ok {
			owner[g] = i
			cands[i].box = cands[i].box.Union(world[g])
		}
	}

	var global []geom.Transform
	for i := range cands {
		if cands[i].box.IsEmpty() {
			// Nothing renders below this node: treat it as a point at its origin.
			if global == nil {
				global = c.GlobalTransforms()
			}
			p := global[cands[i].node].TransformPosition(geom.Vec3{})
			cands[i].box = geom.NewBox(p, p)
		}
		cands[i].centre = cands[i].box.Center()
		cands[i].volume = cands[i].box.Volume()
	}
	return cands, owner
}

func proximityEdges(c *geometry.Collection, owner []int) [][2]int {
	var edges [][2]int
	for g, a := range owner {
		if a < 0 {
			continue
		}
		for _, o := range c.Proximity.Members(g) {
			if int(o) <= g {
				continue
			}
			if b := owner[o]; b >= 0 && b != a {
				edges = append(edges, [2]int{a, b})
			}
		}
	}
	return edges
}

func overlapEdges(cands []candidate, expansion float32, opts spatial.Options) [][2]int {
	boxes := make([]geom.Box, len(cands))
	for i := range cands {
		boxes[i] = cands[i].box.ExpandFraction(expansion)
	}
	tree := spatial.Build(boxes, opts)

	var edges [][2]int
	for i := range boxes {
		tree.Query(boxes[i], func(j int) bool {
			if j > i {
				edges = append(edges, [2]int{i, j})
			}
			return true
		})
	}
	return edges
}

// components returns the connected components of the graph over n nodes,
// each sorted, ordered by their smallest member.
func components(n int, edges [][2]int) [][]int {
	g := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for _, e := range edges {
		g.SetEdge(g.NewEdge(simple.Node(e[0]), simple.Node(e[1])))
	}

	cc := topo.ConnectedComponents(g)
	groups := make([][]int, len(cc))
	for i, comp := range cc {
		groups[i] = make([]int, len(comp))
		for j, node := range comp {
			groups[i][j] = int(node.ID())
		}
		slices.Sort(groups[i])
	}
	slices.SortFunc(groups, func(a, b []int) int { return cmp.Compare(a[0], b[0]) })
	return groups
}
