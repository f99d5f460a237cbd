package spatial

import (
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/shatter/pkg/geom"
)

func randomBoxes(r *rand.Rand, n int) []geom.Box {
	boxes := make([]geom.Box, n)
	for i := range boxes {
		p := geom.Vec3{r.Float32() * 20, r.Float32() * 20, r.Float32() * 20}
		s := geom.Vec3{r.Float32() * 2, r.Float32() * 2, r.Float32() * 2}
		boxes[i] = geom.NewBox(p, p.Add(s))
	}
	return boxes
}

func collect(t *Tree, box geom.Box) []int {
	var ids []int
	t.Query(box, func(id int) bool {
		ids = append(ids, id)
		return true
	})
	slices.Sort(ids)
	return ids
}

func bruteForce(boxes []geom.Box, box geom.Box) []int {
	var ids []int
	for i, b := range boxes {
		if b.Intersects(box) {
			ids = append(ids, i)
		}
	}
	return ids
}

func TestQueryMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	boxes := randomBoxes(r, 500)

	for _, opts := range []Options{
		DefaultOptions(),
		{MaxDepth: 1, LeafCapacity: 1},
		{MaxDepth: 12, LeafCapacity: 2},
		{MaxDepth: 0, LeafCapacity: 100},
	} {
		tree := Build(boxes, opts)
		require.Equal(t, len(boxes), tree.Len())
		assert.LessOrEqual(t, tree.Depth(), opts.MaxDepth)

		for q := 0; q < 50; q++ {
			query := randomBoxes(r, 1)[0].Expand(r.Float32() * 3)
			assert.Equal(t, bruteForce(boxes, query), collect(tree, query), "options %+v", opts)
		}
	}
}

func TestQueryTouchingBoxes(t *testing.T) {
	boxes := []geom.Box{
		geom.NewBox(geom.Vec3{0, 0, 0}, geom.Vec3{1, 1, 1}),
		geom.NewBox(geom.Vec3{1, 0, 0}, geom.Vec3{2, 1, 1}),
		geom.NewBox(geom.Vec3{3, 0, 0}, geom.Vec3{4, 1, 1}),
	}
	tree := Build(boxes, Options{MaxDepth: 4, LeafCapacity: 1})

	assert.Equal(t, []int{0, 1}, collect(tree, boxes[0]))
	assert.Equal(t, []int{0, 1}, collect(tree, boxes[1]))
	assert.Equal(t, []int{2}, collect(tree, boxes[2]))
}

func TestQueryStopsEarly(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	boxes := randomBoxes(r, 100)
	tree := Build(boxes, DefaultOptions())

	calls := 0
	tree.Query(tree.Bounds(), func(int) bool {
		calls++
		return calls < 5
	})
	assert.Equal(t, 5, calls)
}

func TestBuildEmpty(t *testing.T) {
	tree := Build(nil, DefaultOptions())
	assert.Zero(t, tree.Len())
	assert.True(t, tree.Bounds().IsEmpty())
	assert.Empty(t, collect(tree, geom.NewBox(geom.Vec3{}, geom.Vec3{1, 1, 1})))

	tree = Build([]geom.Box{geom.EmptyBox()}, DefaultOptions())
	assert.Zero(t, tree.Len())
}

func TestBuildIdenticalBoxesRespectsDepth(t *testing.T) {
	boxes := make([]geom.Box, 40)
	for i := range boxes {
		boxes[i] = geom.NewBox(geom.Vec3{0, 0, 0}, geom.Vec3{1, 1, 1})
	}
	tree := Build(boxes, Options{MaxDepth: 3, LeafCapacity: 2})

	assert.Equal(t, 3, tree.Depth())
	assert.Len(t, collect(tree, boxes[0]), 40)
}

func TestLooseBoundsCoverStraddlingElements(t *testing.T) {
	// A long box whose centre lands in one octant but reaches across the
	// whole tree must still be found from the far side.
	boxes := []geom.Box{
		geom.NewBox(geom.Vec3{0, 0, 0}, geom.Vec3{10, 1, 1}),
		geom.NewBox(geom.Vec3{0, 9, 9}, geom.Vec3{1, 10, 10}),
		geom.NewBox(geom.Vec3{9, 9, 9}, geom.Vec3{10, 10, 10}),
		geom.NewBox(geom.Vec3{9, 0, 9}, geom.Vec3{10, 1, 10}),
	}
	tree := Build(boxes, Options{MaxDepth: 4, LeafCapacity: 1})

	far := geom.NewBox(geom.Vec3{9.5, 0.5, 0.5}, geom.Vec3{9.6, 0.6, 0.6})
	assert.Equal(t, []int{0}, collect(tree, far))
}

func TestConcurrentQueries(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	boxes := randomBoxes(r, 300)
	tree := Build(boxes, DefaultOptions())

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, b := range boxes {
				found := false
				tree.Query(b, func(id int) bool {
					found = found || id == i
					return true
				})
				assert.True(t, found, "element %d not found by its own box", i)
			}
		}()
	}
	wg.Wait()
}
