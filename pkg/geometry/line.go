package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/resample"
	"github.com/paulmach/orb/simplify"

	"whiskertrace/internal/models"
)

// Length returns the total arc length of line.
func Length(line models.Line) float64 {
	total := 0.0
	for i := 1; i < len(line); i++ {
		total += models.Distance(line[i-1], line[i])
	}
	return total
}

// CumulativeLength returns the arc length from the first vertex to each vertex.
func CumulativeLength(line models.Line) []float64 {
	if len(line) == 0 {
		return nil
	}
	dists := make([]float64, len(line))
	for i := 1; i < len(line); i++ {
		dists[i] = dists[i-1] + models.Distance(line[i-1], line[i])
	}
	return dists
}

// Reverse returns a reversed copy of line.
func Reverse(line models.Line) models.Line {
	out := make(models.Line, len(line))
	for i, p := range line {
		out[len(line)-1-i] = p
	}
	return out
}

// Resample redistributes vertices evenly along the line so consecutive
// vertices are about spacing apart. Lines with fewer than two points, zero
// length, or a non-positive spacing are returned as a copy.
func Resample(line models.Line, spacing float64) models.Line {
	if len(line) < 2 || spacing <= 0 || Length(line) == 0 {
		return line.Clone()
	}
	out := resample.ToInterval(toLineString(line), planar.Distance, spacing)
	if len(out) == 0 {
		return line.Clone()
	}
	return fromLineString(out)
}

// Simplify applies Douglas-Peucker simplification with the given tolerance.
// A non-positive tolerance returns a copy.
func Simplify(line models.Line, tolerance float64) models.Line {
	if len(line) < 3 || tolerance <= 0 {
		return line.Clone()
	}
	return fromLineString(simplify.DouglasPeucker(tolerance).LineString(toLineString(line)))
}

// toLineString copies line into a new orb.LineString.
func toLineString(line models.Line) orb.LineString {
	ls := make(orb.LineString, len(line))
	for i, p := range line {
		ls[i] = orb.Point{p.X, p.Y}
	}
	return ls
}

func fromLineString(ls orb.LineString) models.Line {
	out := make(models.Line, len(ls))
	for i, p := range ls {
		out[i] = models.Point{X: p.X(), Y: p.Y()}
	}
	return out
}
