package polyfit

import (
	"errors"
	"math"
	"testing"

	"whiskertrace/internal/models"
)

func parabola(n int) models.Line {
	line := make(models.Line, n)
	for i := range line {
		x := float64(i)
		line[i] = models.Point{X: x, Y: 0.05*x*x + 2}
	}
	return line
}

func TestTValues(t *testing.T) {
	tv := TValues(models.Line{{X: 0}, {X: 1}, {X: 4}})
	want := []float64{0, 0.25, 1}
	for i := range want {
		if math.Abs(tv[i]-want[i]) > 1e-12 {
			t.Errorf("t[%d] = %f, want %f", i, tv[i], want[i])
		}
	}
	flat := TValues(models.Line{{X: 1}, {X: 1}, {X: 1}})
	if flat[1] != 0.5 || flat[2] != 1 {
		t.Errorf("zero-length fallback: %v", flat)
	}
	if TValues(nil) != nil {
		t.Error("empty line should give nil")
	}
}

func TestEvaluate(t *testing.T) {
	if v := Evaluate([]float64{1, 2, 3}, 2); v != 17 {
		t.Errorf("got %f, want 17", v)
	}
	if v := Evaluate(nil, 3); v != 0 {
		t.Errorf("empty coefficients: got %f", v)
	}
}

func TestFitParametric_ReproducesPolynomial(t *testing.T) {
	line := parabola(30)
	c, err := FitParametric(line, 3)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	mean, _ := FitError(line, c)
	// x(t) is not exactly polynomial in arc length, so allow a small residual.
	if mean > 0.5 {
		t.Errorf("mean residual %f too large", mean)
	}
	start, end := c.At(0), c.At(1)
	if models.Distance(start, line[0]) > 1 || models.Distance(end, line[len(line)-1]) > 1 {
		t.Errorf("endpoints drifted: %v %v", start, end)
	}
}

func TestFitParametric_TooFewPoints(t *testing.T) {
	_, err := FitParametric(models.Line{{X: 0}, {X: 1}}, 3)
	if !errors.Is(err, ErrTooFewPoints) {
		t.Errorf("expected ErrTooFewPoints, got %v", err)
	}
	if _, err := FitParametric(parabola(5), -1); err == nil {
		t.Error("expected negative order to fail")
	}
}

func TestRemoveOutliers(t *testing.T) {
	line := make(models.Line, 40)
	for i := range line {
		line[i] = models.Point{X: float64(i), Y: 10}
	}
	line[20].Y = 40

	cleaned := RemoveOutliers(line, 3, 2)
	if len(cleaned) >= len(line) {
		t.Fatalf("expected the spike to be removed, got %d points", len(cleaned))
	}
	for _, p := range cleaned {
		if p.Y == 40 {
			t.Errorf("outlier survived: %v", p)
		}
	}
	if line[20].Y != 40 {
		t.Error("input modified")
	}
}

func TestRemoveOutliers_KeepsMinimum(t *testing.T) {
	line := models.Line{{X: 0}, {X: 1, Y: 5}, {X: 2}}
	if got := RemoveOutliers(line, 0.1, 2); len(got) != 3 {
		t.Errorf("short line should be returned as is, got %v", got)
	}
}

func TestSmooth(t *testing.T) {
	line := make(models.Line, 21)
	for i := range line {
		line[i] = models.Point{X: float64(i) * 5, Y: 3}
	}
	c, err := FitParametric(line, 1)
	if err != nil {
		t.Fatal(err)
	}
	out := Smooth(line, c, 10)
	if len(out) != 10 {
		t.Fatalf("expected 10 samples, got %d", len(out))
	}
	if math.Abs(out[0].X) > 1e-6 || math.Abs(out[len(out)-1].X-100) > 1e-6 {
		t.Errorf("endpoints: %v %v", out[0], out[len(out)-1])
	}
	for _, p := range out {
		if math.Abs(p.Y-3) > 1e-6 {
			t.Errorf("sample left the line: %v", p)
		}
	}

	if got := Smooth(models.Line{{X: 1, Y: 1}}, c, 10); len(got) != 1 {
		t.Errorf("single point: got %v", got)
	}
	if got := Smooth(nil, c, 10); got != nil {
		t.Errorf("empty line: got %v", got)
	}
}
