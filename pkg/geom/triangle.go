package geom

import (
	"github.com/chewxy/math32"
)

// Triangle is three points in winding order.
type Triangle [3]Vec3

// Normal returns the unit face normal, or the zero vector for a degenerate
// triangle.
func (t Triangle) Normal() Vec3 {
	n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
	if n.Len() < 1e-5 {
		return Vec3{}
	}
	return Normalize(n)
}

// Area returns the triangle area.
func (t Triangle) Area() float32 {
	return 0.5 * t[1].Sub(t[0]).Cross(t[2].Sub(t[0])).Len()
}

// Centroid returns the average of the three corners.
func (t Triangle) Centroid() Vec3 {
	return t[0].Add(t[1]).Add(t[2]).Mul(1.0 / 3.0)
}

// EdgeMidpoints returns the midpoints of edges 0-1, 1-2 and 2-0.
func (t Triangle) EdgeMidpoints() [3]Vec3 {
	return [3]Vec3{
		t[0].Add(t[1]).Mul(0.5),
		t[1].Add(t[2]).Mul(0.5),
		t[2].Add(t[0]).Mul(0.5),
	}
}

// Bounds returns the box enclosing the triangle.
func (t Triangle) Bounds() Box {
	return BoxOf(t[0], t[1], t[2])
}

// ContainsPoint reports whether p lies on the triangle using the area test:
// the three sub-triangles formed with p must sum to the triangle's own area
// within a relative tolerance. Points off the triangle's plane fail the test.
func (t Triangle) ContainsPoint(p Vec3, tol float32) bool {
	area := t.Area()
	if area <= 0 {
		return false
	}
	sum := Triangle{p, t[0], t[1]}.Area() +
		Triangle{p, t[1], t[2]}.Area() +
		Triangle{p, t[2], t[0]}.Area()
	return math32.Abs(sum-area) <= tol*math32.Max(area, 1)
}

// Parallel reports whether the triangles' normals are parallel or
// anti-parallel within tol.
func (t Triangle) Parallel(o Triangle, tol float32) bool {
	a, b := t.Normal(), o.Normal()
	if a.Len() == 0 || b.Len() == 0 {
		return false
	}
	return math32.Abs(a.Dot(b)) >= 1-tol
}
