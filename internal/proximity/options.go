package proximity

import (
	"runtime"

	"github.com/Faultbox/shatter/internal/config"
	"github.com/Faultbox/shatter/internal/spatial"
)

// Options tune adjacency classification and the parallel scan.
type Options struct {
	// VertexTolerance is the distance under which two vertices coincide.
	// Triangle boxes are grown by it before the octree is built.
	VertexTolerance float32
	// NormalTolerance accepts normals as parallel when |a·b| >= 1-tol.
	NormalTolerance float32
	// AreaTolerance is the relative slack of the point-in-triangle area test.
	AreaTolerance float32
	// Workers bounds the scan goroutines. Zero means GOMAXPROCS.
	Workers int

	Octree spatial.Options

	// DebugVisualization logs every breaking region at info level.
	DebugVisualization bool
}

// DefaultOptions returns the tolerances used for unit-scale geometry.
func DefaultOptions() Options {
	return Options{
		VertexTolerance: 1e-2,
		NormalTolerance: 1e-1,
		AreaTolerance:   1e-4,
		Octree:          spatial.DefaultOptions(),
	}
}

// FromConfig builds Options from the proximity section of cfg.
func FromConfig(cfg *config.Config) Options {
	p := cfg.Proximity
	return Options{
		VertexTolerance: p.VertexTolerance,
		NormalTolerance: p.NormalTolerance,
		AreaTolerance:   p.AreaTolerance,
		Workers:         p.Workers,
		Octree: spatial.Options{
			MaxDepth:     p.OctreeMaxDepth,
			LeafCapacity: p.OctreeLeafCapacity,
		},
		DebugVisualization: cfg.DebugVisualization,
	}
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}
