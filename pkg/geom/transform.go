package geom

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a rigid transform with a per-axis scale. Points are scaled,
// then rotated, then translated.
type Transform struct {
	Rotation    mgl32.Quat
	Translation Vec3
	Scale       Vec3
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    Vec3{1, 1, 1},
	}
}

// Translation returns a pure translation.
func Translation(v Vec3) Transform {
	t := Identity()
	t.Translation = v
	return t
}

// FromEuler builds a transform from XYZ euler angles in degrees and a translation.
func FromEuler(degrees, translation Vec3) Transform {
	t := Identity()
	t.Rotation = mgl32.AnglesToQuat(
		mgl32.DegToRad(degrees[0]),
		mgl32.DegToRad(degrees[1]),
		mgl32.DegToRad(degrees[2]),
		mgl32.XYZ,
	).Normalize()
	t.Translation = translation
	return t
}

// TransformPosition maps a point through t.
func (t Transform) TransformPosition(p Vec3) Vec3 {
	return t.Rotation.Rotate(MulComponents(t.Scale, p)).Add(t.Translation)
}

// TransformVector maps a direction through t, ignoring translation.
func (t Transform) TransformVector(v Vec3) Vec3 {
	return t.Rotation.Rotate(MulComponents(t.Scale, v))
}

// Mul returns the transform that applies t first and then parent.
// A node's world transform is local.Mul(parentWorld).
func (t Transform) Mul(parent Transform) Transform {
	return Transform{
		Rotation:    parent.Rotation.Mul(t.Rotation).Normalize(),
		Translation: parent.TransformPosition(t.Translation),
		Scale:       MulComponents(parent.Scale, t.Scale),
	}
}

// Inverse returns the inverse transform. Exact for uniform scale.
func (t Transform) Inverse() Transform {
	inv := Vec3{safeRecip(t.Scale[0]), safeRecip(t.Scale[1]), safeRecip(t.Scale[2])}
	rot := t.Rotation.Inverse()
	return Transform{
		Rotation:    rot,
		Translation: MulComponents(inv, rot.Rotate(t.Translation.Mul(-1))),
		Scale:       inv,
	}
}

// Relative returns the local transform that, composed with parent, yields t.
func (t Transform) Relative(parent Transform) Transform {
	return t.Mul(parent.Inverse())
}

// Matrix returns the column-major 4x4 matrix of t.
func (t Transform) Matrix() mgl32.Mat4 {
	m := mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2])
	m = m.Mul4(t.Rotation.Mat4())
	return m.Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// ApproxEqual reports whether t and o agree within eps on every component.
func (t Transform) ApproxEqual(o Transform, eps float32) bool {
	sameRotation := t.Rotation.ApproxEqualThreshold(o.Rotation, eps) ||
		t.Rotation.ApproxEqualThreshold(o.Rotation.Scale(-1), eps)
	return sameRotation &&
		t.Translation.ApproxEqualThreshold(o.Translation, eps) &&
		t.Scale.ApproxEqualThreshold(o.Scale, eps)
}

func safeRecip(v float32) float32 {
	if v == 0 {
		return 0
	}
	return 1 / v
}
