package engine

import "math"

// Vec3 is a world-space position or extent.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(k float64) Vec3 { return Vec3{v.X * k, v.Y * k, v.Z * k} }

// SqrMagnitude avoids the square root for range comparisons.
func (v Vec3) SqrMagnitude() float64 { return v.X*v.X + v.Y*v.Y + v.Z*v.Z }

// Box is an axis-aligned bounding volume.
type Box struct {
	Center      Vec3 `json:"center" yaml:"center"`
	HalfExtents Vec3 `json:"half_extents" yaml:"half_extents"`
}

// Overlaps reports whether two boxes share interior volume. Touching faces
// do not count.
func (b Box) Overlaps(o Box) bool {
	d := b.Center.Sub(o.Center)
	return math.Abs(d.X) < b.HalfExtents.X+o.HalfExtents.X &&
		math.Abs(d.Y) < b.HalfExtents.Y+o.HalfExtents.Y &&
		math.Abs(d.Z) < b.HalfExtents.Z+o.HalfExtents.Z
}

// Footprint is the bounding geometry of a placeable entity, relative to its
// placement point.
type Footprint struct {
	Center Vec3 `json:"center" yaml:"center"`
	Size   Vec3 `json:"size" yaml:"size"`
}

// At returns the world-space box the footprint occupies when placed at point.
func (f Footprint) At(point Vec3) Box {
	return Box{Center: point.Add(f.Center), HalfExtents: f.Size.Scale(0.5)}
}
