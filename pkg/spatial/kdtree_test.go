package spatial

import (
	"math"
	"math/rand"
	"testing"

	"whiskertrace/internal/models"
)

func randomPoints(rng *rand.Rand, n int, extent float64) []models.Point {
	pts := make([]models.Point, n)
	for i := range pts {
		pts[i] = models.Point{X: rng.Float64() * extent, Y: rng.Float64() * extent}
	}
	return pts
}

// bruteNearest returns the nearest point index, skipping indices marked in skip.
func bruteNearest(points []models.Point, q models.Point, skip []bool) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i, p := range points {
		if skip != nil && skip[i] {
			continue
		}
		if d := models.Distance2(p, q); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

func TestKDTree_Empty(t *testing.T) {
	tree := NewKDTree(nil)
	if idx, d := tree.Nearest(models.Point{X: 1, Y: 1}); idx != -1 || !math.IsInf(d, 1) {
		t.Errorf("Nearest on empty tree: got (%d, %f)", idx, d)
	}
	if idx, _ := tree.NearestUnvisited(models.Point{}); idx != -1 {
		t.Errorf("NearestUnvisited on empty tree: got %d", idx)
	}
	tree.Remove(0) // must not panic
}

func TestKDTree_SinglePoint(t *testing.T) {
	tree := NewKDTree([]models.Point{{X: 3, Y: 4}})
	idx, d := tree.Nearest(models.Point{})
	if idx != 0 || d != 25 {
		t.Errorf("got (%d, %f), want (0, 25)", idx, d)
	}
}

func TestKDTree_NearestMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	points := randomPoints(rng, 500, 200)
	tree := NewKDTree(points)

	for i := 0; i < 200; i++ {
		q := models.Point{X: rng.Float64()*240 - 20, Y: rng.Float64()*240 - 20}
		gotIdx, gotDist := tree.Nearest(q)
		wantIdx, wantDist := bruteNearest(points, q, nil)
		if gotIdx != wantIdx || math.Abs(gotDist-wantDist) > 1e-9 {
			t.Fatalf("query %v: got (%d, %f), want (%d, %f)", q, gotIdx, gotDist, wantIdx, wantDist)
		}
	}
}

func TestKDTree_NearestTieGoesToLowerIndex(t *testing.T) {
	points := []models.Point{{X: 5, Y: 0}, {X: -1, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	tree := NewKDTree(points)
	idx, d := tree.Nearest(models.Point{})
	if idx != 1 || d != 1 {
		t.Errorf("got (%d, %f), want (1, 1)", idx, d)
	}
}

func TestKDTree_NearestUnvisited(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	points := randomPoints(rng, 300, 100)
	tree := NewKDTree(points)
	removed := make([]bool, len(points))

	// Remove points one by one, checking queries as the live set shrinks
	// through several rebuilds.
	order := rng.Perm(len(points))
	for step, victim := range order {
		if step%10 == 0 {
			q := models.Point{X: rng.Float64() * 100, Y: rng.Float64() * 100}
			gotIdx, gotDist := tree.NearestUnvisited(q)
			wantIdx, wantDist := bruteNearest(points, q, removed)
			if gotIdx != wantIdx || math.Abs(gotDist-wantDist) > 1e-9 {
				t.Fatalf("step %d query %v: got (%d, %f), want (%d, %f)",
					step, q, gotIdx, gotDist, wantIdx, wantDist)
			}
		}
		tree.Remove(victim)
		removed[victim] = true
		if tree.Len() != len(points)-step-1 {
			t.Fatalf("Len after %d removals: got %d", step+1, tree.Len())
		}
	}

	if idx, _ := tree.NearestUnvisited(models.Point{}); idx != -1 {
		t.Errorf("all removed: got %d, want -1", idx)
	}
}

func TestKDTree_RemoveIsIdempotent(t *testing.T) {
	tree := NewKDTree([]models.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 20, Y: 0}})
	tree.Remove(0)
	tree.Remove(0)
	tree.Remove(-1)
	tree.Remove(99)
	if tree.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", tree.Len())
	}
	if !tree.Removed(0) || tree.Removed(1) {
		t.Error("Removed flags are wrong")
	}
	if idx, _ := tree.NearestUnvisited(models.Point{X: -5, Y: 0}); idx != 1 {
		t.Errorf("NearestUnvisited: got %d, want 1", idx)
	}
	// Nearest ignores removals.
	if idx, _ := tree.Nearest(models.Point{X: -5, Y: 0}); idx != 0 {
		t.Errorf("Nearest: got %d, want 0", idx)
	}
}

func TestKDTree_DoesNotRetainInput(t *testing.T) {
	points := []models.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}
	tree := NewKDTree(points)
	points[0] = models.Point{X: 100, Y: 100}
	if p := tree.Point(0); p.X != 1 || p.Y != 1 {
		t.Errorf("tree point changed with caller slice: %v", p)
	}
}
