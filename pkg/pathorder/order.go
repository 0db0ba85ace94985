package pathorder

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"whiskertrace/internal/models"
	"whiskertrace/pkg/raster"
	"whiskertrace/pkg/spatial"
)

// Strategy selects how nearest-unvisited queries are answered.
type Strategy int

const (
	// StrategyAuto uses the distance matrix for small sets and the k-d tree otherwise.
	StrategyAuto Strategy = iota
	// StrategyMatrix precomputes all pairwise squared distances, O(n^2) memory.
	StrategyMatrix
	// StrategyKDTree uses a k-d tree with tombstone removal.
	StrategyKDTree
)

// matrixLimit is the largest set StrategyAuto orders with a distance matrix.
const matrixLimit = 1024

func (s Strategy) String() string {
	switch s {
	case StrategyAuto:
		return "auto"
	case StrategyMatrix:
		return "matrix"
	case StrategyKDTree:
		return "kdtree"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a configuration name to a Strategy.
func ParseStrategy(name string) (Strategy, bool) {
	switch name {
	case "", "auto":
		return StrategyAuto, true
	case "matrix":
		return StrategyMatrix, true
	case "kdtree":
		return StrategyKDTree, true
	default:
		return StrategyAuto, false
	}
}

// Options controls OrderLine.
type Options struct {
	// Subsample keeps every Subsample-th input point in extraction order.
	// Values below 1 are treated as 1.
	Subsample int

	// GapTolerance, when positive, ends the walk at the first step whose
	// nearest unvisited point is farther than GapTolerance pixels. The
	// remaining points are dropped. Zero disables the check.
	GapTolerance float64

	Strategy Strategy
}

// DefaultOptions returns options that keep every point and never cut the walk.
func DefaultOptions() Options {
	return Options{Subsample: 1}
}

// OrderLine orders an unordered point set into a polyline that starts at the
// extremal endpoint nearest origin and ends at the one farthest from it.
// Empty input yields an empty line; the function never fails.
func OrderLine(points []models.Point, origin models.Point, opts Options) models.Line {
	pts := subsample(points, opts.Subsample)
	switch len(pts) {
	case 0:
		return models.Line{}
	case 1:
		return models.Line{pts[0]}
	}

	// Start from whichever endpoint is farther from origin; the final
	// orientation check flips the path so it begins near origin.
	a, b := FindLineEndpoints(pts)
	start := a
	if models.Distance2(origin, pts[b]) > models.Distance2(origin, pts[a]) {
		start = b
	}

	w := newWalker(pts, opts.Strategy)
	maxStep2 := math.Inf(1)
	if opts.GapTolerance > 0 {
		maxStep2 = opts.GapTolerance * opts.GapTolerance
	}

	line := make(models.Line, 0, len(pts))
	cur := start
	w.visit(cur)
	line = append(line, pts[cur])
	for len(line) < len(pts) {
		next, d2 := w.nearestUnvisited(cur)
		if next < 0 || d2 > maxStep2 {
			break
		}
		w.visit(next)
		line = append(line, pts[next])
		cur = next
	}

	if models.Distance2(line[0], origin) > models.Distance2(line[len(line)-1], origin) {
		for i, j := 0, len(line)-1; i < j; i, j = i+1, j-1 {
			line[i], line[j] = line[j], line[i]
		}
	}
	return line
}

// OrderPixels orders integer pixel coordinates.
func OrderPixels(pixels []models.PixelPoint, origin models.Point, opts Options) models.Line {
	pts := make([]models.Point, len(pixels))
	for i, p := range pixels {
		pts[i] = p.ToPoint()
	}
	return OrderLine(pts, origin, opts)
}

// OrderMask orders the foreground pixels of a row-major binary buffer.
func OrderMask(buf []uint8, size models.ImageSize, origin models.Point, opts Options) models.Line {
	return OrderPixels(raster.ForegroundPixels(buf, size), origin, opts)
}

func subsample(points []models.Point, step int) []models.Point {
	if step <= 1 {
		return points
	}
	out := make([]models.Point, 0, (len(points)+step-1)/step)
	for i := 0; i < len(points); i += step {
		out = append(out, points[i])
	}
	return out
}

// walker answers "nearest unvisited point to the current tip" queries.
type walker interface {
	visit(i int)
	nearestUnvisited(from int) (int, float64)
}

func newWalker(pts []models.Point, s Strategy) walker {
	if s == StrategyMatrix || (s == StrategyAuto && len(pts) <= matrixLimit) {
		return newMatrixWalker(pts)
	}
	return &treeWalker{pts: pts, tree: spatial.NewKDTree(pts)}
}

// matrixWalker scans a precomputed symmetric squared-distance matrix.
type matrixWalker struct {
	dist    *mat.SymDense
	visited []bool
}

func newMatrixWalker(pts []models.Point) *matrixWalker {
	n := len(pts)
	dist := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dist.SetSym(i, j, models.Distance2(pts[i], pts[j]))
		}
	}
	return &matrixWalker{dist: dist, visited: make([]bool, n)}
}

func (w *matrixWalker) visit(i int) { w.visited[i] = true }

func (w *matrixWalker) nearestUnvisited(from int) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for j, seen := range w.visited {
		if seen {
			continue
		}
		if d := w.dist.At(from, j); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best, bestDist
}

// treeWalker removes visited points from a k-d tree.
type treeWalker struct {
	pts  []models.Point
	tree *spatial.KDTree
}

func (w *treeWalker) visit(i int) { w.tree.Remove(i) }

func (w *treeWalker) nearestUnvisited(from int) (int, float64) {
	return w.tree.NearestUnvisited(w.pts[from])
}
