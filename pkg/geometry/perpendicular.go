// Package geometry holds polyline helpers: local normals, arc length,
// resampling and simplification.
package geometry

import (
	"gonum.org/v1/gonum/spatial/r2"

	"whiskertrace/internal/models"
)

// zeroLength is the squared length below which a segment is degenerate.
const zeroLength = 1e-12

// PerpendicularAt returns the unit normal of line at vertex index.
//
// End vertices use their single adjacent segment; interior vertices average
// the normals of the incoming and outgoing segments and renormalize. The
// normal is the segment direction rotated by +90 degrees, (dx,dy) -> (-dy,dx).
// The zero vector is returned for lines shorter than two points, an index
// out of range, or when every contributing segment has zero length.
func PerpendicularAt(line models.Line, index int) models.Point {
	n := len(line)
	if n < 2 || index < 0 || index >= n {
		return models.Point{}
	}

	switch index {
	case 0:
		return models.Point(segmentNormal(line[0], line[1]))
	case n - 1:
		return models.Point(segmentNormal(line[n-2], line[n-1]))
	}

	in := segmentNormal(line[index-1], line[index])
	out := segmentNormal(line[index], line[index+1])
	return models.Point(unitOrZero(r2.Scale(0.5, r2.Add(in, out))))
}

// TangentAt returns the unit tangent at vertex index using the same
// neighbourhood rules as PerpendicularAt.
func TangentAt(line models.Line, index int) models.Point {
	p := PerpendicularAt(line, index)
	// Undo the +90 degree rotation.
	return models.Point{X: p.Y, Y: -p.X}
}

// segmentNormal is the normalized +90 degree rotation of b-a, or zero.
func segmentNormal(a, b models.Point) r2.Vec {
	d := r2.Sub(r2.Vec(b), r2.Vec(a))
	return unitOrZero(r2.Vec{X: -d.Y, Y: d.X})
}

func unitOrZero(v r2.Vec) r2.Vec {
	if r2.Norm2(v) < zeroLength {
		return r2.Vec{}
	}
	return r2.Unit(v)
}
