// Package pathorder reconstructs an ordered polyline from an unordered pixel
// set, such as a mask or a skeletonized mask.
//
// The walk is a greedy nearest-neighbour heuristic suited to thin,
// low-branching shapes. It is not an optimal curve fit.
package pathorder

import "whiskertrace/internal/models"

// FindLineEndpoints returns a pair of approximately extremal points using a
// double farthest-point sweep: A is the point farthest from points[0], B is
// the point farthest from A. Ties keep the lowest index. Sets of zero or one
// point return (0, 0).
func FindLineEndpoints(points []models.Point) (int, int) {
	if len(points) <= 1 {
		return 0, 0
	}
	a := farthestFrom(points, points[0])
	b := farthestFrom(points, points[a])
	return a, b
}

func farthestFrom(points []models.Point, ref models.Point) int {
	best, bestDist := 0, -1.0
	for i, p := range points {
		if d := models.Distance2(p, ref); d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
