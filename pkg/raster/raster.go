// Package raster provides the row-major image buffers sampled by the ridge
// localizer, the binary-mask pixel extractor, and frame loading helpers.
//
// All lookups are bounds-checked: coordinates are rounded to the nearest
// integer cell and anything outside [0,width)x[0,height), or beyond the end
// of a short buffer, reads as 0.
package raster

import (
	"math"

	"whiskertrace/internal/models"
)

// Pixel is the set of supported sample types.
type Pixel interface {
	~uint8 | ~float32
}

// PixelValue returns the value of buf at the cell nearest to p, or 0 when
// p falls outside the image or buf is shorter than width*height.
func PixelValue[T Pixel](p models.Point, buf []T, size models.ImageSize) T {
	x := int(math.Round(p.X))
	y := int(math.Round(p.Y))
	if x < 0 || x >= size.Width || y < 0 || y >= size.Height {
		return 0
	}
	if len(buf) < size.Area() {
		return 0
	}
	idx := y*size.Width + x
	if idx >= len(buf) {
		return 0
	}
	return buf[idx]
}

// Gray is an 8-bit single channel raster.
type Gray struct {
	Pix  []uint8
	Dims models.ImageSize
}

// NewGray allocates a zeroed raster of the given size.
func NewGray(size models.ImageSize) *Gray {
	return &Gray{Pix: make([]uint8, size.Area()), Dims: size}
}

// Size implements models.Frame.
func (g *Gray) Size() models.ImageSize { return g.Dims }

// Intensity implements models.Frame.
func (g *Gray) Intensity(p models.Point) float64 {
	return float64(PixelValue(p, g.Pix, g.Dims))
}

// Set writes v at (x, y); out of range writes are ignored.
func (g *Gray) Set(x, y int, v uint8) {
	if x < 0 || x >= g.Dims.Width || y < 0 || y >= g.Dims.Height {
		return
	}
	g.Pix[y*g.Dims.Width+x] = v
}

// Float is a 32-bit floating point single channel raster.
type Float struct {
	Pix  []float32
	Dims models.ImageSize
}

// NewFloat allocates a zeroed raster of the given size.
func NewFloat(size models.ImageSize) *Float {
	return &Float{Pix: make([]float32, size.Area()), Dims: size}
}

// Size implements models.Frame.
func (f *Float) Size() models.ImageSize { return f.Dims }

// Intensity implements models.Frame.
func (f *Float) Intensity(p models.Point) float64 {
	return float64(PixelValue(p, f.Pix, f.Dims))
}

// Set writes v at (x, y); out of range writes are ignored.
func (f *Float) Set(x, y int, v float32) {
	if x < 0 || x >= f.Dims.Width || y < 0 || y >= f.Dims.Height {
		return
	}
	f.Pix[y*f.Dims.Width+x] = v
}

// ForegroundPixels returns the coordinates of every non-zero cell of a
// row-major binary buffer, in row-major order. Cells beyond the end of a
// short buffer are treated as background.
func ForegroundPixels(buf []uint8, size models.ImageSize) []models.PixelPoint {
	if !size.Valid() {
		return nil
	}
	var pixels []models.PixelPoint
	for y := 0; y < size.Height; y++ {
		row := y * size.Width
		if row >= len(buf) {
			break
		}
		for x := 0; x < size.Width && row+x < len(buf); x++ {
			if buf[row+x] != 0 {
				pixels = append(pixels, models.PixelPoint{X: uint32(x), Y: uint32(y)})
			}
		}
	}
	return pixels
}

// RasterizeMask writes every in-bounds mask pixel as 1 into a fresh binary
// buffer of the given size.
func RasterizeMask(mask []models.PixelPoint, size models.ImageSize) []uint8 {
	buf := make([]uint8, size.Area())
	for _, p := range mask {
		x, y := int(p.X), int(p.Y)
		if x < size.Width && y < size.Height {
			buf[y*size.Width+x] = 1
		}
	}
	return buf
}
