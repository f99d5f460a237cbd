// Package geom provides the float32 geometry used by fracture collections:
// rigid transforms, axis-aligned boxes and triangle predicates.
package geom

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 is a 3D vector.
type Vec3 = mgl32.Vec3

// Vec2 is a 2D vector, used for texture coordinates.
type Vec2 = mgl32.Vec2

// Normalize returns a unit vector in the same direction as v, or the zero
// vector when v is too short to carry a direction.
func Normalize(v Vec3) Vec3 {
	l := v.Len()
	if l < 1e-8 {
		return Vec3{}
	}
	return v.Mul(1 / l)
}

// MulComponents returns the component-wise product of a and b.
func MulComponents(a, b Vec3) Vec3 {
	return Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// Distance returns the distance between two points.
func Distance(a, b Vec3) float32 {
	return a.Sub(b).Len()
}

// MinComponents returns the component-wise minimum of a and b.
func MinComponents(a, b Vec3) Vec3 {
	return Vec3{math32.Min(a[0], b[0]), math32.Min(a[1], b[1]), math32.Min(a[2], b[2])}
}

// MaxComponents returns the component-wise maximum of a and b.
func MaxComponents(a, b Vec3) Vec3 {
	return Vec3{math32.Max(a[0], b[0]), math32.Max(a[1], b[1]), math32.Max(a[2], b[2])}
}

// NearlyEqual reports whether a and b differ by at most eps.
func NearlyEqual(a, b, eps float32) bool {
	return math32.Abs(a-b) <= eps
}
