// Package spatial provides a 2D nearest-neighbour index over a fixed point
// set, with tombstone deletion for "nearest unvisited" queries.
package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"whiskertrace/internal/models"
)

// indexedPoint is a point that remembers its position in the source array.
type indexedPoint struct {
	X, Y  float64
	Index int
}

// Compare implements the kdtree.Comparable interface
func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p indexedPoint) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between two points
func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// indexedPoints is a collection of indexedPoint that satisfies kdtree.Interface
type indexedPoints []indexedPoint

func (p indexedPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p indexedPoints) Len() int                              { return len(p) }
func (p indexedPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot partitions around the exact median on dimension d.
func (p indexedPoints) Pivot(d kdtree.Dim) int {
	plane := pointPlane{indexedPoints: p, Dim: d}
	return kdtree.Partition(plane, kdtree.Select(plane, plane.Len()/2))
}

// pointPlane implements sort.Interface and kdtree.SortSlicer for indexedPoints
type pointPlane struct {
	indexedPoints
	kdtree.Dim
}

func (p pointPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.indexedPoints[i].X < p.indexedPoints[j].X
	case 1:
		return p.indexedPoints[i].Y < p.indexedPoints[j].Y
	default:
		panic("illegal dimension")
	}
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{indexedPoints: p.indexedPoints[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.indexedPoints[i], p.indexedPoints[j] = p.indexedPoints[j], p.indexedPoints[i]
}

// KDTree is a balanced 2D k-d tree over an immutable point array. Points can
// be removed; removed points are skipped by NearestUnvisited and the live
// tree is rebuilt from the remaining points once more than half of its
// nodes are tombstones.
//
// KDTree is not safe for concurrent use when Remove is called.
type KDTree struct {
	points  []models.Point
	removed []bool
	live    int
	dead    int // tombstones currently inside live

	full *kdtree.Tree // every point, never modified
	tree *kdtree.Tree // live points plus dead tombstones
}

// NewKDTree builds a tree over points. The slice is not retained.
func NewKDTree(points []models.Point) *KDTree {
	t := &KDTree{
		points:  append([]models.Point(nil), points...),
		removed: make([]bool, len(points)),
		live:    len(points),
	}
	if len(points) > 0 {
		t.full = kdtree.New(t.indexed(), false)
		t.tree = t.full
	}
	return t
}

// Len returns the number of points not yet removed.
func (t *KDTree) Len() int { return t.live }

// Point returns the i-th source point.
func (t *KDTree) Point(i int) models.Point { return t.points[i] }

// Removed reports whether point i has been removed.
func (t *KDTree) Removed(i int) bool { return t.removed[i] }

// Nearest returns the index of the point closest to target and its squared
// distance, ignoring removals. Ties go to the lower index. It returns
// (-1, +Inf) for an empty tree.
func (t *KDTree) Nearest(target models.Point) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	if t.full == nil {
		return best, bestDist
	}
	search(t.full.Root, indexedPoint{X: target.X, Y: target.Y}, &best, &bestDist)
	return best, bestDist
}

// NearestUnvisited returns the closest point that has not been removed, or
// (-1, +Inf) when every point has been removed.
func (t *KDTree) NearestUnvisited(target models.Point) (int, float64) {
	if t.live == 0 || t.tree == nil {
		return -1, math.Inf(1)
	}
	keeper := &unvisitedKeeper{NKeeper: kdtree.NewNKeeper(1), removed: t.removed}
	t.tree.NearestSet(keeper, indexedPoint{X: target.X, Y: target.Y})
	for _, item := range keeper.Heap {
		// Skip the sentinel value
		if item.Comparable == nil {
			continue
		}
		return item.Comparable.(indexedPoint).Index, item.Dist
	}
	return -1, math.Inf(1)
}

// Remove tombstones point i. Removing twice is a no-op.
func (t *KDTree) Remove(i int) {
	if i < 0 || i >= len(t.points) || t.removed[i] {
		return
	}
	t.removed[i] = true
	t.live--
	t.dead++
	if t.dead > t.live {
		t.rebuild()
	}
}

// rebuild replaces the live tree with one holding only unremoved points.
func (t *KDTree) rebuild() {
	t.dead = 0
	if t.live == 0 {
		t.tree = nil
		return
	}
	t.tree = kdtree.New(t.indexed(), false)
}

func (t *KDTree) indexed() indexedPoints {
	pts := make(indexedPoints, 0, t.live)
	for i, p := range t.points {
		if !t.removed[i] {
			pts = append(pts, indexedPoint{X: p.X, Y: p.Y, Index: i})
		}
	}
	return pts
}

// search is the recursive descent used by Nearest: visit the near child
// first, then the far child only when the splitting plane is no farther
// than the current best.
func search(n *kdtree.Node, q indexedPoint, best *int, bestDist *float64) {
	if n == nil {
		return
	}
	p := n.Point.(indexedPoint)
	if d := q.Distance(p); d < *bestDist || (d == *bestDist && p.Index < *best) {
		*best, *bestDist = p.Index, d
	}

	c := q.Compare(p, n.Plane)
	near, far := n.Left, n.Right
	if c > 0 {
		near, far = n.Right, n.Left
	}
	search(near, q, best, bestDist)
	if c*c <= *bestDist {
		search(far, q, best, bestDist)
	}
}

// unvisitedKeeper is a single-slot kdtree.Keeper that rejects removed points.
// Pruning uses the best live distance, so removed points never shrink the
// search radius.
type unvisitedKeeper struct {
	*kdtree.NKeeper
	removed []bool
}

// Keep implements kdtree.Keeper.
func (k *unvisitedKeeper) Keep(c kdtree.ComparableDist) {
	if k.removed[c.Comparable.(indexedPoint).Index] {
		return
	}
	k.NKeeper.Keep(c)
}
