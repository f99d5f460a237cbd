// Package proximity derives which rigid chunks touch each other and the
// breaking region between every touching pair.
//
// Update recomputes everything from scratch: rigid-chunk triangles are
// moved to world space, bucketed in a loose octree, and scanned in
// parallel for contacts. Results replace the collection's Proximity sets
// and Breaking group.
package proximity

import (
	"cmp"
	"context"
	"slices"

	"github.com/chewxy/math32"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/shatter/internal/logger"
	"github.com/Faultbox/shatter/internal/spatial"
	"github.com/Faultbox/shatter/pkg/collection"
	"github.com/Faultbox/shatter/pkg/geom"
	"github.com/Faultbox/shatter/pkg/geometry"
)

// cancelCheckInterval is how many triangles a worker scans between
// context checks.
const cancelCheckInterval = 256

// Pair is an unordered pair of geometry indices stored with A < B.
type Pair struct {
	A, B int32
}

func makePair(a, b int32) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

func (p Pair) compare(o Pair) int {
	if c := cmp.Compare(p.A, o.A); c != 0 {
		return c
	}
	return cmp.Compare(p.B, o.B)
}

// Region is the contact patch between two touching chunks, described from
// the side of the lower geometry index.
type Region struct {
	Pair
	Source, Target int32 // owning transforms of A and B
	Face           int32 // first contact face on A
	Centroid       geom.Vec3
	Normal         geom.Vec3
	InnerRadius    float32
	OuterRadius    float32
}

// Result summarises an Update.
type Result struct {
	Pairs   []Pair
	Regions []Region

	Triangles  int // participating triangles
	Candidates int // triangle pairs classified
}

type triangle struct {
	face      int32
	geometry  int32
	transform int32
	world     geom.Triangle
}

type contact struct {
	a, b int32 // indices into the triangle list
}

// Update rebuilds the Proximity relation and the Breaking group of c.
// Collections with fewer than two rigid chunks get an empty relation. If
// ctx is cancelled mid-scan the collection is left untouched and the
// context error is returned.
func Update(ctx context.Context, c *geometry.Collection, opts Options) (Result, error) {
	done := logger.Timed("proximity update")

	tris := participating(c)
	if countGeometry(tris) < 2 {
		write(c, nil)
		logger.Debug("proximity skipped", zap.Int("triangles", len(tris)))
		done()
		return Result{Triangles: len(tris)}, nil
	}

	boxes := make([]geom.Box, len(tris))
	for i := range tris {
		boxes[i] = tris[i].world.Bounds().Expand(opts.VertexTolerance)
	}
	tree := spatial.Build(boxes, opts.Octree)

	contacts, candidates, err := scan(ctx, tris, boxes, tree, opts)
	if err != nil {
		return Result{}, err
	}

	regions := buildRegions(tris, contacts)
	write(c, regions)

	res := Result{
		Pairs:      make([]Pair, len(regions)),
		Regions:    regions,
		Triangles:  len(tris),
		Candidates: candidates,
	}
	for i, r := range regions {
		res.Pairs[i] = r.Pair
	}

	if opts.DebugVisualization {
		for _, r := range regions {
			logger.Info("breaking region",
				zap.Int32("a", r.A), zap.Int32("b", r.B),
				zap.Float32s("centroid", r.Centroid[:]),
				zap.Float32s("normal", r.Normal[:]),
				zap.Float32("inner_radius", r.InnerRadius),
				zap.Float32("outer_radius", r.OuterRadius),
			)
		}
	}
	done(
		zap.Int("triangles", len(tris)),
		zap.Int("nodes", tree.NumNodes()),
		zap.Int("candidates", candidates),
		zap.Int("pairs", len(regions)),
	)
	return res, nil
}

// participating returns the world-space faces of every rigid chunk. Faces
// owned by cluster nodes or by transforms without geometry are dropped.
func participating(c *geometry.Collection) []triangle {
	global := c.GlobalTransforms()
	world := make([]geom.Vec3, c.NumElements(geometry.VerticesGroup))
	for v, t := range c.BoneMap.Slice() {
		if t != geometry.Invalid {
			world[v] = global[t].TransformPosition(c.Vertex.At(v))
		}
	}

	tris := make([]triangle, 0, c.NumElements(geometry.FacesGroup))
	for f, idx := range c.Indices.Slice() {
		t := c.BoneMap.At(int(idx[0]))
		if t == geometry.Invalid || c.IsClustered(int(t)) {
			continue
		}
		g := c.TransformToGeometryIndex.At(int(t))
		if g == geometry.Invalid {
			continue
		}
		tris = append(tris, triangle{
			face:      int32(f),
			geometry:  g,
			transform: t,
			world:     geom.Triangle{world[idx[0]], world[idx[1]], world[idx[2]]},
		})
	}
	return tris
}

func countGeometry(tris []triangle) int {
	seen := make(map[int32]struct{})
	for _, t := range tris {
		seen[t.geometry] = struct{}{}
	}
	return len(seen)
}

// scan classifies every candidate triangle pair. Triangles are split into
// chunks; each chunk writes only its own slot, so merging needs no lock.
func scan(ctx context.Context, tris []triangle, boxes []geom.Box, tree *spatial.Tree, opts Options) ([]contact, int, error) {
	workers := opts.workers()
	chunkSize := max(64, (len(tris)+workers*4-1)/(workers*4))
	numChunks := (len(tris) + chunkSize - 1) / chunkSize

	found := make([][]contact, numChunks)
	tested := make([]int, numChunks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for ch := 0; ch < numChunks; ch++ {
		g.Go(func() error {
			lo, hi := ch*chunkSize, min((ch+1)*chunkSize, len(tris))
			for i := lo; i < hi; i++ {
				if (i-lo)%cancelCheckInterval == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				a := &tris[i]
				tree.Query(boxes[i], func(j int) bool {
					// Classification is symmetric; test each pair once.
					if j <= i || tris[j].transform == a.transform {
						return true
					}
					tested[ch]++
					if Adjacent(a.world, tris[j].world, opts) {
						found[ch] = append(found[ch], contact{int32(i), int32(j)})
					}
					return true
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var contacts []contact
	candidates := 0
	for ch := range found {
		contacts = append(contacts, found[ch]...)
		candidates += tested[ch]
	}
	return contacts, candidates, nil
}

// buildRegions groups contacts by geometry pair and measures one region per
// pair from the contact triangles on the lower-indexed side.
func buildRegions(tris []triangle, contacts []contact) []Region {
	type pool struct {
		faces  []int32
		target int32
	}
	pools := make(map[Pair]*pool)
	for _, ct := range contacts {
		a, b := ct.a, ct.b
		key := makePair(tris[a].geometry, tris[b].geometry)
		if tris[a].geometry != key.A {
			a, b = b, a
		}
		p, ok := pools[key]
		if !ok {
			p = &pool{target: tris[b].transform}
			pools[key] = p
		}
		p.faces = append(p.faces, a)
	}

	regions := make([]Region, 0, len(pools))
	for key, p := range pools {
		slices.Sort(p.faces)
		regions = append(regions, measure(tris, key, slices.Compact(p.faces), p.target))
	}
	slices.SortFunc(regions, func(x, y Region) int { return x.Pair.compare(y.Pair) })
	return regions
}

// measure returns the region of pool: its area-weighted centroid, the
// nearest and farthest pool vertex from it, and the first face's normal.
func measure(tris []triangle, key Pair, pool []int32, target int32) Region {
	first := tris[pool[0]]

	var centroid geom.Vec3
	var total float32
	for _, i := range pool {
		area := tris[i].world.Area()
		centroid = centroid.Add(tris[i].world.Centroid().Mul(area))
		total += area
	}
	if total > 0 {
		centroid = centroid.Mul(1 / total)
	} else {
		centroid = geom.Vec3{}
		for _, i := range pool {
			centroid = centroid.Add(tris[i].world.Centroid())
		}
		centroid = centroid.Mul(1 / float32(len(pool)))
	}

	inner, outer := math32.Inf(1), float32(0)
	for _, i := range pool {
		for _, p := range tris[i].world {
			d := geom.Distance(p, centroid)
			inner = min(inner, d)
			outer = max(outer, d)
		}
	}

	return Region{
		Pair:        key,
		Source:      first.transform,
		Target:      target,
		Face:        first.face,
		Centroid:    centroid,
		Normal:      first.world.Normal(),
		InnerRadius: inner,
		OuterRadius: outer,
	}
}

// write replaces the Proximity sets and Breaking rows of c with regions
// and marks proximity fresh.
func write(c *geometry.Collection, regions []Region) {
	for g := 0; g < c.NumGeometry(); g++ {
		c.Proximity.Clear(g)
	}
	if n := c.NumElements(geometry.BreakingGroup); n > 0 {
		c.Collection.RemoveElements(geometry.BreakingGroup, collection.ContiguousArray(n))
	}

	first := c.AddElements(geometry.BreakingGroup, len(regions))
	for i, r := range regions {
		c.Proximity.Add(int(r.A), r.B)
		c.Proximity.Add(int(r.B), r.A)

		row := first + i
		c.BreakingFaceIndex.Set(row, r.Face)
		c.BreakingSourceTransformIndex.Set(row, r.Source)
		c.BreakingTargetTransformIndex.Set(row, r.Target)
		c.BreakingRegionCentroid.Set(row, r.Centroid)
		c.BreakingRegionNormal.Set(row, r.Normal)
		c.BreakingRegionRadius.Set(row, r.InnerRadius)
	}
	c.MarkProximityFresh()
}
