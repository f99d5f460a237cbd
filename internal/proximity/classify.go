package proximity

import (
	"github.com/Faultbox/shatter/pkg/geom"
)

// Adjacent reports whether two world-space triangles from different chunks
// are in contact. Either three of the nine vertex pairs coincide, or the
// triangles are parallel and share an edge, share a centroid, or one has
// its centroid or an edge midpoint lying on the other.
func Adjacent(a, b geom.Triangle, opts Options) bool {
	tol2 := opts.VertexTolerance * opts.VertexTolerance
	shared := 0
	for _, p := range a {
		for _, q := range b {
			if d := p.Sub(q); d.Dot(d) < tol2 {
				shared++
			}
		}
	}
	if shared >= 3 {
		return true
	}

	if !a.Parallel(b, opts.NormalTolerance) {
		return false
	}
	if shared > 1 {
		return true
	}

	ca, cb := a.Centroid(), b.Centroid()
	if geom.Distance(ca, cb) < opts.VertexTolerance {
		return true
	}
	return landsOn(a, cb, b, opts.AreaTolerance) || landsOn(b, ca, a, opts.AreaTolerance)
}

// landsOn reports whether the centroid or an edge midpoint of src lies on t.
func landsOn(t geom.Triangle, centroid geom.Vec3, src geom.Triangle, tol float32) bool {
	if t.ContainsPoint(centroid, tol) {
		return true
	}
	for _, m := range src.EdgeMidpoints() {
		if t.ContainsPoint(m, tol) {
			return true
		}
	}
	return false
}
