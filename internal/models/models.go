package models

import (
	"math"
	"sort"
)

// Point is a sub-pixel 2D coordinate. It shares its layout with gonum's
// r2.Vec so the two convert freely.
type Point struct {
	X, Y float64
}

// PixelPoint is an integer pixel coordinate as produced by mask extraction.
type PixelPoint struct {
	X, Y uint32
}

// ToPoint converts a pixel coordinate into geometric space.
func (p PixelPoint) ToPoint() Point {
	return Point{X: float64(p.X), Y: float64(p.Y)}
}

// Line is an ordered polyline. Order is meaningful (base to tip).
type Line []Point

// Clone returns a copy of the line that shares no storage with l.
func (l Line) Clone() Line {
	if l == nil {
		return nil
	}
	out := make(Line, len(l))
	copy(out, l)
	return out
}

// ImageSize holds raster dimensions in pixels.
type ImageSize struct {
	Width  int
	Height int
}

// Valid reports whether both dimensions are positive.
func (s ImageSize) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Area returns Width*Height, or 0 for a degenerate size.
func (s ImageSize) Area() int {
	if !s.Valid() {
		return 0
	}
	return s.Width * s.Height
}

// TimeFrameIndex is the discrete per-frame key for annotations.
type TimeFrameIndex int64

// FWHMApproach selects the ridge localization strategy.
type FWHMApproach int

const (
	// PeakWidthHalfMax locates the midpoint of the half-maximum crossings
	// around the profile peak.
	PeakWidthHalfMax FWHMApproach = iota
)

func (a FWHMApproach) String() string {
	switch a {
	case PeakWidthHalfMax:
		return "peak-width-half-max"
	default:
		return "unknown"
	}
}

// AlignmentOutputMode selects what the alignment pipeline emits.
type AlignmentOutputMode int

const (
	// AlignedVertices replaces every vertex by its refined position.
	AlignedVertices AlignmentOutputMode = iota
	// ProfileExtents emits one [left, peak, right] line per input vertex.
	ProfileExtents
)

func (m AlignmentOutputMode) String() string {
	switch m {
	case AlignedVertices:
		return "aligned-vertices"
	case ProfileExtents:
		return "profile-extents"
	default:
		return "unknown"
	}
}

// Frame is a read-only raster that can be sampled at sub-pixel positions.
// Intensity rounds to the nearest cell and returns 0 outside the image.
type Frame interface {
	Size() ImageSize
	Intensity(p Point) float64
}

// MediaSource provides per-frame rasters for alignment.
type MediaSource interface {
	ImageSize() ImageSize
	// RawFrame returns nil when no frame exists at t.
	RawFrame(t TimeFrameIndex) Frame
	// ProcessedFrame returns nil when no frame exists at t.
	ProcessedFrame(t TimeFrameIndex) Frame
}

// LineData stores lines per time frame and notifies observers on change.
// It is not safe for concurrent mutation.
type LineData struct {
	lines     map[TimeFrameIndex][]Line
	imageSize ImageSize
	observers []func(t TimeFrameIndex)
}

// NewLineData creates an empty container.
func NewLineData() *LineData {
	return &LineData{lines: make(map[TimeFrameIndex][]Line)}
}

// SetImageSize records the raster size the lines were drawn against.
func (d *LineData) SetImageSize(size ImageSize) { d.imageSize = size }

// ImageSize returns the raster size the lines were drawn against.
func (d *LineData) ImageSize() ImageSize { return d.imageSize }

// AddObserver registers fn to be called with the time of every notifying mutation.
func (d *LineData) AddObserver(fn func(t TimeFrameIndex)) {
	d.observers = append(d.observers, fn)
}

// AddAtTime appends a line at time t. Observers are called when notify is set.
func (d *LineData) AddAtTime(t TimeFrameIndex, line Line, notify bool) {
	d.lines[t] = append(d.lines[t], line)
	if notify {
		d.notify(t)
	}
}

// ClearAtTime removes every line at time t.
func (d *LineData) ClearAtTime(t TimeFrameIndex, notify bool) {
	if _, ok := d.lines[t]; !ok {
		return
	}
	delete(d.lines, t)
	if notify {
		d.notify(t)
	}
}

// AtTime returns the lines stored at t. The slice must not be modified.
func (d *LineData) AtTime(t TimeFrameIndex) []Line {
	return d.lines[t]
}

// Times returns every time with at least one line, ascending.
func (d *LineData) Times() []TimeFrameIndex {
	times := make([]TimeFrameIndex, 0, len(d.lines))
	for t, lines := range d.lines {
		if len(lines) > 0 {
			times = append(times, t)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return times
}

// NumLines returns the total number of lines across all times.
func (d *LineData) NumLines() int {
	n := 0
	for _, lines := range d.lines {
		n += len(lines)
	}
	return n
}

func (d *LineData) notify(t TimeFrameIndex) {
	for _, fn := range d.observers {
		fn(t)
	}
}

// MaskData stores pixel sets per time frame.
type MaskData struct {
	masks     map[TimeFrameIndex][][]PixelPoint
	imageSize ImageSize
}

// NewMaskData creates an empty container.
func NewMaskData() *MaskData {
	return &MaskData{masks: make(map[TimeFrameIndex][][]PixelPoint)}
}

// SetImageSize records the raster size of the masks.
func (m *MaskData) SetImageSize(size ImageSize) { m.imageSize = size }

// ImageSize returns the raster size of the masks.
func (m *MaskData) ImageSize() ImageSize { return m.imageSize }

// AddAtTime appends a mask at time t.
func (m *MaskData) AddAtTime(t TimeFrameIndex, mask []PixelPoint) {
	m.masks[t] = append(m.masks[t], mask)
}

// AtTime returns the masks stored at t.
func (m *MaskData) AtTime(t TimeFrameIndex) [][]PixelPoint {
	return m.masks[t]
}

// Times returns every time with at least one mask, ascending.
func (m *MaskData) Times() []TimeFrameIndex {
	times := make([]TimeFrameIndex, 0, len(m.masks))
	for t, masks := range m.masks {
		if len(masks) > 0 {
			times = append(times, t)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return times
}

// Len returns the number of times holding masks.
func (m *MaskData) Len() int {
	return len(m.Times())
}

// Distance2 returns the squared Euclidean distance between a and b.
func Distance2(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Sqrt(Distance2(a, b))
}
