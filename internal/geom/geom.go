// Package geom provides the planar geometry primitives behind stroke
// detection and clustering. Strokes live in a 3D world frame, but every
// surface-level decision (hulls, rectangles, containment) is made on the
// XZ projection of the points; Y is carried through for output only.
package geom

import "math"

// Epsilon is the smallest length/area the geometry code treats as nonzero.
// Anything below it is considered degenerate.
const Epsilon = 1e-9

// Point is a 3D coordinate in the shared world frame.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Up is the world up axis.
var Up = Point{X: 0, Y: 1, Z: 0}

func (p Point) Add(q Point) Point   { return Point{p.X + q.X, p.Y + q.Y, p.Z + q.Z} }
func (p Point) Sub(q Point) Point   { return Point{p.X - q.X, p.Y - q.Y, p.Z - q.Z} }
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s, p.Z * s} }

// Dot returns the 3D dot product.
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y + p.Z*q.Z }

// Cross returns the 3D vector cross product p × q.
func (p Point) Cross(q Point) Point {
	return Point{
		X: p.Y*q.Z - p.Z*q.Y,
		Y: p.Z*q.X - p.X*q.Z,
		Z: p.X*q.Y - p.Y*q.X,
	}
}

func (p Point) Length() float64 { return math.Sqrt(p.Dot(p)) }

func (p Point) DistanceTo(q Point) float64 { return p.Sub(q).Length() }

// Normalize returns the unit vector in p's direction, or the zero vector
// when p is shorter than Epsilon.
func (p Point) Normalize() Point {
	l := p.Length()
	if l < Epsilon {
		return Point{}
	}
	return p.Scale(1 / l)
}

// WithY returns a copy of p with Y replaced.
func (p Point) WithY(y float64) Point { return Point{X: p.X, Y: y, Z: p.Z} }

// Cross returns the signed 2D cross product of (a−o) and (b−o) on the XZ
// plane. Positive means the sequence o→a→b turns counter-clockwise when
// looking down the Y axis.
func Cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Z-o.Z) - (a.Z-o.Z)*(b.X-o.X)
}

// PolygonArea returns the unsigned shoelace area of an ordered polygon on
// the XZ plane. The polygon is treated as closed; the last point does not
// need to repeat the first.
func PolygonArea(points []Point) float64 {
	if len(points) < 3 {
		return 0
	}
	var sum float64
	for i := range points {
		j := (i + 1) % len(points)
		sum += points[i].X*points[j].Z - points[j].X*points[i].Z
	}
	return math.Abs(sum) / 2
}

// Centroid returns the arithmetic mean of the points, or the zero point for
// an empty slice.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range points {
		c = c.Add(p)
	}
	return c.Scale(1 / float64(len(points)))
}

// RotateXZ rotates p about the world origin in the XZ plane by angle
// radians. Y is preserved.
func RotateXZ(p Point, angle float64) Point {
	sin, cos := math.Sincos(angle)
	return Point{
		X: p.X*cos - p.Z*sin,
		Y: p.Y,
		Z: p.X*sin + p.Z*cos,
	}
}

// PointInPolygonXZ reports whether p lies inside poly on the XZ projection,
// using even-odd ray casting. Edges are tested half-open in Z so a ray
// passing exactly through a vertex is counted once.
func PointInPolygonXZ(p Point, poly []Point) bool {
	if len(poly) < 3 {
		return false
	}
	inside := false
	j := len(poly) - 1
	for i := 0; i < len(poly); i++ {
		pi, pj := poly[i], poly[j]
		if (pi.Z > p.Z) != (pj.Z > p.Z) {
			dz := pj.Z - pi.Z
			if math.Abs(dz) > Epsilon {
				xAtZ := pi.X + (p.Z-pi.Z)*(pj.X-pi.X)/dz
				if p.X < xAtZ {
					inside = !inside
				}
			}
		}
		j = i
	}
	return inside
}
