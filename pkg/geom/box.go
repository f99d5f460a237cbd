package geom

import (
	"github.com/chewxy/math32"
)

// Box is an axis-aligned bounding box. An empty box has Min > Max.
type Box struct {
	Min Vec3
	Max Vec3
}

// EmptyBox returns a box that contains nothing and absorbs the first point added.
func EmptyBox() Box {
	inf := math32.Inf(1)
	return Box{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// NewBox creates a box from two corners, swapping components as needed.
func NewBox(a, b Vec3) Box {
	return Box{Min: MinComponents(a, b), Max: MaxComponents(a, b)}
}

// BoxOf returns the smallest box containing all points.
func BoxOf(points ...Vec3) Box {
	b := EmptyBox()
	for _, p := range points {
		b = b.AddPoint(p)
	}
	return b
}

// IsEmpty reports whether the box contains no points.
func (b Box) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// AddPoint grows the box to contain p.
func (b Box) AddPoint(p Vec3) Box {
	return Box{Min: MinComponents(b.Min, p), Max: MaxComponents(b.Max, p)}
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(o Box) Box {
	if o.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return o
	}
	return Box{Min: MinComponents(b.Min, o.Min), Max: MaxComponents(b.Max, o.Max)}
}

// Expand grows the box by d on every side.
func (b Box) Expand(d float32) Box {
	if b.IsEmpty() {
		return b
	}
	e := Vec3{d, d, d}
	return Box{Min: b.Min.Sub(e), Max: b.Max.Add(e)}
}

// ExpandFraction grows the box by frac of its size along each axis, split
// evenly between both sides.
func (b Box) ExpandFraction(frac float32) Box {
	if b.IsEmpty() {
		return b
	}
	half := b.Size().Mul(frac * 0.5)
	return Box{Min: b.Min.Sub(half), Max: b.Max.Add(half)}
}

// Intersects reports whether the boxes overlap. Touching boxes intersect.
func (b Box) Intersects(o Box) bool {
	if b.IsEmpty() || o.IsEmpty() {
		return false
	}
	for i := 0; i < 3; i++ {
		if b.Max[i] < o.Min[i] || o.Max[i] < b.Min[i] {
			return false
		}
	}
	return true
}

// Contains reports whether p lies inside the box, boundary included.
func (b Box) Contains(p Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Center returns the box centre.
func (b Box) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box dimensions.
func (b Box) Size() Vec3 {
	if b.IsEmpty() {
		return Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Volume returns the box volume, zero for an empty box.
func (b Box) Volume() float32 {
	s := b.Size()
	return s[0] * s[1] * s[2]
}

// Corners returns the eight corners of the box.
func (b Box) Corners() [8]Vec3 {
	return [8]Vec3{
		{b.Min[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Min[0], b.Min[1], b.Max[2]},
		{b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Max[2]},
		{b.Max[0], b.Max[1], b.Max[2]},
	}
}

// Transform returns the box enclosing b after mapping its corners through t.
func (b Box) Transform(t Transform) Box {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBox()
	for _, c := range b.Corners() {
		out = out.AddPoint(t.TransformPosition(c))
	}
	return out
}

// CornerDistance returns the smallest distance between any corner of b and
// any corner of o.
func (b Box) CornerDistance(o Box) float32 {
	best := math32.Inf(1)
	oc := o.Corners()
	for _, p := range b.Corners() {
		for _, q := range oc {
			if d := Distance(p, q); d < best {
				best = d
			}
		}
	}
	return best
}
