// Package ridge refines a polyline vertex to the centre of the intensity
// ridge found along a search direction.
//
// The search is one-directional: offsets d in [0, Range] along dir. Each
// profile sample averages Width+1 parallel rays spread tangentially around
// the vertex, so a whisker that is slightly rotated relative to dir still
// produces a single peak.
package ridge

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"

	"whiskertrace/internal/models"
)

// Params controls the ridge search.
type Params struct {
	// Width is the tangential extent of the ray bundle in pixels.
	Width int
	// Range is the farthest offset searched along the direction.
	Range int
	// Approach selects the peak localization rule.
	Approach models.FWHMApproach
}

// DefaultParams returns the parameters used by the alignment tool.
func DefaultParams() Params {
	return Params{Width: 20, Range: 50, Approach: models.PeakWidthHalfMax}
}

func (p Params) usable() bool {
	return p.Width > 0 && p.Range > 0 && p.Approach == models.PeakWidthHalfMax
}

// SampleProfile returns Range+1 averaged intensities at offsets 0..Range
// along dir from vertex. It returns nil when the search cannot run.
func SampleProfile(vertex, dir models.Point, params Params, img models.Frame) []float64 {
	u, ok := searchDirection(dir)
	if !ok || !params.usable() || img == nil || !img.Size().Valid() {
		return nil
	}

	tangent := r2.Vec{X: -u.Y, Y: u.X}
	half := params.Width / 2
	rays := make([]float64, 0, 2*half+1)
	profile := make([]float64, params.Range+1)
	for d := range profile {
		base := r2.Add(r2.Vec(vertex), r2.Scale(float64(d), u))
		rays = rays[:0]
		for w := -half; w <= half; w++ {
			p := r2.Add(base, r2.Scale(float64(w), tangent))
			rays = append(rays, img.Intensity(models.Point(p)))
		}
		profile[d] = floats.Sum(rays) / float64(len(rays))
	}
	return profile
}

// Displacement returns the offset along dir from vertex to the ridge
// centre, or 0 when the search cannot run or finds no signal.
func Displacement(vertex, dir models.Point, params Params, img models.Frame) float64 {
	_, centre, _, ok := locate(vertex, dir, params, img)
	if !ok {
		return 0
	}
	return centre
}

// Center returns the refined vertex position. The vertex is returned
// unchanged when the search cannot run or the profile is all zero.
func Center(vertex, dir models.Point, params Params, img models.Frame) models.Point {
	_, centre, _, ok := locate(vertex, dir, params, img)
	if !ok {
		return vertex
	}
	return along(vertex, dir, centre)
}

// ProfileExtents returns the three points [left, centre, right] of the
// half-maximum band. It returns the vertex three times when the search
// cannot run.
func ProfileExtents(vertex, dir models.Point, params Params, img models.Frame) models.Line {
	left, centre, right, ok := locate(vertex, dir, params, img)
	if !ok {
		return models.Line{vertex, vertex, vertex}
	}
	return models.Line{
		along(vertex, dir, left),
		along(vertex, dir, centre),
		along(vertex, dir, right),
	}
}

// locate runs the half-maximum search and returns offsets along dir.
func locate(vertex, dir models.Point, params Params, img models.Frame) (left, centre, right float64, ok bool) {
	profile := SampleProfile(vertex, dir, params, img)
	if len(profile) == 0 {
		return 0, 0, 0, false
	}
	peak := floats.Max(profile)
	if peak <= 0 {
		return 0, 0, 0, false
	}

	// Seed at the middle of every offset that reaches the maximum.
	sum, count := 0, 0
	for i, v := range profile {
		if v == peak {
			sum += i
			count++
		}
	}
	seed := int(math.Round(float64(sum) / float64(count)))

	threshold := peak / 2
	lo, hi := seed, seed
	for lo > 0 && profile[lo-1] >= threshold {
		lo--
	}
	for hi < len(profile)-1 && profile[hi+1] >= threshold {
		hi++
	}
	return float64(lo), float64(lo+hi) / 2, float64(hi), true
}

func searchDirection(dir models.Point) (r2.Vec, bool) {
	v := r2.Vec(dir)
	if r2.Norm2(v) < 1e-12 {
		return r2.Vec{}, false
	}
	return r2.Unit(v), true
}

func along(vertex, dir models.Point, offset float64) models.Point {
	u, _ := searchDirection(dir)
	return models.Point(r2.Add(r2.Vec(vertex), r2.Scale(offset, u)))
}
