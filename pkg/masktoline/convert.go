// Package masktoline converts per-frame whisker masks into ordered,
// optionally cleaned and smoothed polylines.
package masktoline

import (
	"fmt"

	"whiskertrace/internal/models"
	"whiskertrace/internal/parallel"
	"whiskertrace/internal/progress"
	"whiskertrace/pkg/geometry"
	"whiskertrace/pkg/pathorder"
	"whiskertrace/pkg/polyfit"
	"whiskertrace/pkg/raster"
)

// Method chooses which pixels are ordered.
type Method int

const (
	// Skeletonize thins the mask before ordering.
	Skeletonize Method = iota
	// Direct orders every mask pixel.
	Direct
)

func (m Method) String() string {
	switch m {
	case Skeletonize:
		return "skeletonize"
	case Direct:
		return "direct"
	default:
		return "unknown"
	}
}

// ParseMethod maps a configuration name to a Method.
func ParseMethod(name string) (Method, bool) {
	switch name {
	case "", "skeletonize":
		return Skeletonize, true
	case "direct":
		return Direct, true
	default:
		return Skeletonize, false
	}
}

// fallbackSize is used when the masks carry no image size.
var fallbackSize = models.ImageSize{Width: 256, Height: 256}

// Params controls Convert.
type Params struct {
	Method    Method
	Reference models.Point
	Ordering  pathorder.Options

	PolynomialOrder int
	// ErrorThreshold is the residual distance in pixels above which a point
	// counts as an outlier.
	ErrorThreshold float64
	RemoveOutliers bool
	SmoothLine     bool
	// OutputResolution is the target spacing of output vertices in pixels.
	OutputResolution float64
	// SimplifyTolerance enables Douglas-Peucker simplification when positive.
	SimplifyTolerance float64

	NumWorkers int
}

// DefaultParams returns the conversion defaults.
func DefaultParams() Params {
	return Params{
		Method:           Skeletonize,
		Ordering:         pathorder.DefaultOptions(),
		PolynomialOrder:  3,
		ErrorThreshold:   5,
		RemoveOutliers:   true,
		OutputResolution: 5,
		NumWorkers:       1,
	}
}

// Convert turns the first mask of every time into a line. Times whose mask
// yields no points produce no line. A nil skel orders raw mask pixels even
// when Method is Skeletonize.
func Convert(masks *models.MaskData, params Params, skel Skeletonizer, cb progress.Callback) *models.LineData {
	out := models.NewLineData()
	size := masks.ImageSize()
	if !size.Valid() {
		size = fallbackSize
	}
	out.SetImageSize(size)

	times := masks.Times()
	if len(times) == 0 {
		return out
	}

	tracker := progress.NewTracker(cb, len(times))
	tracker.Info(fmt.Sprintf("Converting %d masks (method %s)", len(times), params.Method))

	results := make([]models.Line, len(times))
	parallel.Range(len(times), params.NumWorkers, func(start, end int) {
		for i := start; i < end; i++ {
			all := masks.AtTime(times[i])
			if len(all) > 0 && len(all[0]) > 0 {
				results[i] = MaskToLine(all[0], size, params, skel)
			}
			tracker.Done("")
		}
	})

	for i, t := range times {
		if len(results[i]) > 0 {
			out.AddAtTime(t, results[i], false)
		}
	}
	return out
}

// MaskToLine converts a single mask.
func MaskToLine(mask []models.PixelPoint, size models.ImageSize, params Params, skel Skeletonizer) models.Line {
	var line models.Line
	if params.Method == Skeletonize && skel != nil {
		thin := skel.Skeletonize(raster.RasterizeMask(mask, size), size)
		line = pathorder.OrderMask(thin, size, params.Reference, params.Ordering)
	} else {
		line = pathorder.OrderPixels(mask, params.Reference, params.Ordering)
	}
	if len(line) == 0 {
		return nil
	}

	order := params.PolynomialOrder
	if params.RemoveOutliers && len(line) > order+2 {
		line = polyfit.RemoveOutliers(line, params.ErrorThreshold, order)
	}

	if params.SmoothLine && len(line) > order {
		if c, err := polyfit.FitParametric(line, order); err == nil {
			line = polyfit.Smooth(line, c, params.OutputResolution)
		} else {
			line = geometry.Resample(line, params.OutputResolution)
		}
	} else {
		line = geometry.Resample(line, params.OutputResolution)
	}

	if params.SimplifyTolerance > 0 {
		line = geometry.Simplify(line, params.SimplifyTolerance)
	}
	return line
}
