// Package overlay renders lines over their video frames for visual checks.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"

	"whiskertrace/internal/models"
)

// Options controls rendering.
type Options struct {
	// Scale enlarges the frame before drawing. Values below 1 mean 1.
	Scale int
	// PointRadius is the radius of vertex markers in output pixels. Zero
	// draws segments only.
	PointRadius int
}

// DefaultOptions returns the rendering defaults.
func DefaultOptions() Options {
	return Options{Scale: 2, PointRadius: 2}
}

// Palette returns n visually distinct colors, evenly spaced in hue.
func Palette(n int) []color.RGBA {
	out := make([]color.RGBA, n)
	for i := range out {
		c := colorful.Hsv(float64(i)*360/float64(n), 0.85, 1)
		r, g, b := c.RGB255()
		out[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

// Render draws lines over frame and returns a new RGBA image. Line i uses
// the i-th palette color.
func Render(frame image.Image, lines []models.Line, opts Options) *image.RGBA {
	scale := opts.Scale
	if scale < 1 {
		scale = 1
	}
	b := frame.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	if scale == 1 {
		draw.Draw(dst, dst.Bounds(), frame, b.Min, draw.Src)
	} else {
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), frame, b, draw.Src, nil)
	}

	s := float64(scale)
	for i, c := range Palette(len(lines)) {
		line := lines[i]
		for j := 1; j < len(line); j++ {
			drawSegment(dst, scaled(line[j-1], s), scaled(line[j], s), c)
		}
		if opts.PointRadius > 0 {
			for _, p := range line {
				drawDisc(dst, scaled(p, s), opts.PointRadius, c)
			}
		}
	}
	return dst
}

// SavePNG encodes img to path.
func SavePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// FrameSource provides display images by time.
type FrameSource interface {
	Image(t models.TimeFrameIndex) image.Image
}

// RenderSequence renders every time of data that has a frame into outputDir
// as overlay_NNNNNN.png and returns the number of files written.
func RenderSequence(src FrameSource, data *models.LineData, outputDir string, opts Options) (int, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, err
	}
	written := 0
	for _, t := range data.Times() {
		frame := src.Image(t)
		if frame == nil {
			continue
		}
		name := filepath.Join(outputDir, fmt.Sprintf("overlay_%06d.png", t))
		if err := SavePNG(Render(frame, data.AtTime(t), opts), name); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// scaled maps a pixel centre into output coordinates.
func scaled(p models.Point, s float64) models.Point {
	return models.Point{X: (p.X+0.5)*s - 0.5, Y: (p.Y+0.5)*s - 0.5}
}

func drawSegment(dst *image.RGBA, a, b models.Point, c color.RGBA) {
	steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
	if steps == 0 {
		setPixel(dst, a, c)
		return
	}
	for i := 0; i <= steps; i++ {
		f := float64(i) / float64(steps)
		setPixel(dst, models.Point{X: a.X + f*(b.X-a.X), Y: a.Y + f*(b.Y-a.Y)}, c)
	}
}

func drawDisc(dst *image.RGBA, centre models.Point, radius int, c color.RGBA) {
	cx, cy := int(math.Round(centre.X)), int(math.Round(centre.Y))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				dst.SetRGBA(cx+dx, cy+dy, c)
			}
		}
	}
}

func setPixel(dst *image.RGBA, p models.Point, c color.RGBA) {
	dst.SetRGBA(int(math.Round(p.X)), int(math.Round(p.Y)), c)
}
