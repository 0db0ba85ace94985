// Package polyfit fits parametric polynomials x(t), y(t) to polylines, with
// t the normalized arc length along the line.
package polyfit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"whiskertrace/internal/models"
	"whiskertrace/pkg/geometry"
)

// ErrTooFewPoints is returned when a fit has fewer points than coefficients.
var ErrTooFewPoints = errors.New("polyfit: not enough points for polynomial order")

// maxOutlierRounds bounds RemoveOutliers refits.
const maxOutlierRounds = 10

// Coefficients holds ascending-power coefficients for each axis.
type Coefficients struct {
	X []float64
	Y []float64
}

// At evaluates the fitted curve at parameter t.
func (c Coefficients) At(t float64) models.Point {
	return models.Point{X: Evaluate(c.X, t), Y: Evaluate(c.Y, t)}
}

// TValues returns the normalized cumulative arc length of every vertex, in
// [0, 1]. A line of zero length falls back to index spacing.
func TValues(line models.Line) []float64 {
	if len(line) == 0 {
		return nil
	}
	t := geometry.CumulativeLength(line)
	total := t[len(t)-1]
	if total > 0 {
		for i := range t {
			t[i] /= total
		}
		return t
	}
	if len(line) == 1 {
		return t
	}
	for i := range t {
		t[i] = float64(i) / float64(len(line)-1)
	}
	return t
}

// Evaluate computes sum(coeffs[j] * t^j) by Horner's rule.
func Evaluate(coeffs []float64, t float64) float64 {
	v := 0.0
	for j := len(coeffs) - 1; j >= 0; j-- {
		v = v*t + coeffs[j]
	}
	return v
}

// FitParametric fits x(t) and y(t) of the given order by least squares.
func FitParametric(line models.Line, order int) (Coefficients, error) {
	if order < 0 {
		return Coefficients{}, fmt.Errorf("polyfit: negative order %d", order)
	}
	if len(line) < order+1 {
		return Coefficients{}, ErrTooFewPoints
	}

	t := TValues(line)
	n := len(line)
	design := mat.NewDense(n, order+1, nil)
	xs := mat.NewVecDense(n, nil)
	ys := mat.NewVecDense(n, nil)
	for i, ti := range t {
		pow := 1.0
		for j := 0; j <= order; j++ {
			design.Set(i, j, pow)
			pow *= ti
		}
		xs.SetVec(i, line[i].X)
		ys.SetVec(i, line[i].Y)
	}

	var qr mat.QR
	qr.Factorize(design)
	var cx, cy mat.VecDense
	if err := qr.SolveVecTo(&cx, false, xs); err != nil {
		return Coefficients{}, fmt.Errorf("polyfit: x fit: %w", err)
	}
	if err := qr.SolveVecTo(&cy, false, ys); err != nil {
		return Coefficients{}, fmt.Errorf("polyfit: y fit: %w", err)
	}
	return Coefficients{X: vecData(&cx), Y: vecData(&cy)}, nil
}

// SquaredErrors returns the squared distance of every vertex from the
// curve evaluated at its own t.
func SquaredErrors(line models.Line, c Coefficients) []float64 {
	t := TValues(line)
	errs := make([]float64, len(line))
	for i, p := range line {
		errs[i] = models.Distance2(p, c.At(t[i]))
	}
	return errs
}

// FitError summarizes the Euclidean residuals of a fit.
func FitError(line models.Line, c Coefficients) (mean, std float64) {
	errs := SquaredErrors(line, c)
	if len(errs) == 0 {
		return 0, 0
	}
	for i := range errs {
		errs[i] = math.Sqrt(errs[i])
	}
	if len(errs) == 1 {
		return errs[0], 0
	}
	return stat.MeanStdDev(errs, nil)
}

// RemoveOutliers repeatedly fits the line and drops vertices whose residual
// exceeds threshold, stopping when nothing is dropped, after a bounded number
// of rounds, or when a round would leave fewer than order+2 points (that
// round is discarded).
func RemoveOutliers(line models.Line, threshold float64, order int) models.Line {
	current := line.Clone()
	limit := threshold * threshold
	for round := 0; round < maxOutlierRounds; round++ {
		if len(current) < order+2 {
			return current
		}
		c, err := FitParametric(current, order)
		if err != nil {
			return current
		}
		errs := SquaredErrors(current, c)
		kept := make(models.Line, 0, len(current))
		for i, p := range current {
			if errs[i] <= limit {
				kept = append(kept, p)
			}
		}
		if len(kept) == len(current) || len(kept) < order+2 {
			return current
		}
		current = kept
	}
	return current
}

// Smooth samples the fitted curve at evenly spaced t so consecutive samples
// are about spacing apart along line. At least two samples are produced. A
// line that is too short to sample returns the curve at t=0.
func Smooth(line models.Line, c Coefficients, spacing float64) models.Line {
	if len(line) == 0 || len(c.X) == 0 || len(c.Y) == 0 {
		return nil
	}
	total := geometry.Length(line)
	if len(line) <= 1 || total < 1e-6 || spacing <= 1e-6 {
		return models.Line{c.At(0)}
	}

	samples := int(math.Max(2, math.Round(total/spacing)))
	out := make(models.Line, samples)
	for i := range out {
		out[i] = c.At(float64(i) / float64(samples-1))
	}
	return out
}

func vecData(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
