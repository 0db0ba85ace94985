// Package alignment snaps whisker polylines onto the intensity ridge of
// their video frame.
package alignment

import (
	"fmt"
	"math"

	"whiskertrace/internal/models"
	"whiskertrace/internal/parallel"
	"whiskertrace/internal/progress"
	"whiskertrace/pkg/geometry"
	"whiskertrace/pkg/ridge"
)

// Params controls Align.
type Params struct {
	Width            int
	Range            int
	UseProcessedData bool
	Approach         models.FWHMApproach
	OutputMode       models.AlignmentOutputMode
	// NumWorkers is the number of frames aligned concurrently.
	NumWorkers int
}

// DefaultParams returns the alignment defaults.
func DefaultParams() Params {
	return Params{
		Width:      20,
		Range:      50,
		Approach:   models.PeakWidthHalfMax,
		OutputMode: models.AlignedVertices,
		NumWorkers: 1,
	}
}

func (p Params) ridgeParams() ridge.Params {
	return ridge.Params{Width: p.Width, Range: p.Range, Approach: p.Approach}
}

// Align refines every line in lines against the matching frame of media and
// returns a new container. Times without a frame are skipped. Lines with
// fewer than three vertices are copied through unchanged.
func Align(lines *models.LineData, media models.MediaSource, params Params, cb progress.Callback) *models.LineData {
	out := models.NewLineData()
	size := lines.ImageSize()
	if !size.Valid() && media != nil {
		size = media.ImageSize()
	}
	out.SetImageSize(size)

	times := lines.Times()
	if media == nil || len(times) == 0 {
		return out
	}

	tracker := progress.NewTracker(cb, len(times))
	tracker.Info(fmt.Sprintf("Aligning %d lines over %d frames", lines.NumLines(), len(times)))

	results := make([][]models.Line, len(times))
	parallel.Range(len(times), params.NumWorkers, func(start, end int) {
		for i := start; i < end; i++ {
			t := times[i]
			var frame models.Frame
			if params.UseProcessedData {
				frame = media.ProcessedFrame(t)
			} else {
				frame = media.RawFrame(t)
			}
			if frame != nil {
				results[i] = alignFrame(lines.AtTime(t), frame, params)
			}
			tracker.Done("")
		}
	})

	for i, t := range times {
		for _, line := range results[i] {
			out.AddAtTime(t, line, false)
		}
	}
	return out
}

// AlignLine refines one line against frame using params.
func AlignLine(line models.Line, frame models.Frame, params Params) []models.Line {
	if len(line) < 3 {
		return []models.Line{line.Clone()}
	}

	rp := params.ridgeParams()
	size := frame.Size()
	zero := models.Point{}

	if params.OutputMode == models.ProfileExtents {
		out := make([]models.Line, 0, len(line))
		for i, v := range line {
			dir := geometry.PerpendicularAt(line, i)
			if dir == zero {
				out = append(out, models.Line{v, v, v})
				continue
			}
			ext := ridge.ProfileExtents(v, dir, rp, frame)
			for j := range ext {
				ext[j] = clamp(ext[j], size)
			}
			out = append(out, ext)
		}
		return out
	}

	aligned := make(models.Line, len(line))
	for i, v := range line {
		dir := geometry.PerpendicularAt(line, i)
		if dir == zero {
			aligned[i] = v
			continue
		}
		aligned[i] = clamp(ridge.Center(v, dir, rp, frame), size)
	}
	return []models.Line{aligned}
}

func alignFrame(lines []models.Line, frame models.Frame, params Params) []models.Line {
	var out []models.Line
	for _, line := range lines {
		out = append(out, AlignLine(line, frame, params)...)
	}
	return out
}

// clamp keeps p inside [0, W-1] x [0, H-1].
func clamp(p models.Point, size models.ImageSize) models.Point {
	if !size.Valid() {
		return p
	}
	return models.Point{
		X: math.Max(0, math.Min(p.X, float64(size.Width-1))),
		Y: math.Max(0, math.Min(p.Y, float64(size.Height-1))),
	}
}
