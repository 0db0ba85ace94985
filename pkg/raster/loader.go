package raster

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder

	"whiskertrace/internal/models"
)

// frameExtensions lists the file types FrameSequence picks up.
var frameExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// Load decodes an image file and converts it to an 8-bit grayscale raster.
func Load(path string) (*Gray, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame %s: %w", path, err)
	}
	return FromImage(img), nil
}

// FromImage converts any image to an 8-bit grayscale raster anchored at (0,0).
func FromImage(img image.Image) *Gray {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	out := NewGray(models.ImageSize{Width: bounds.Dx(), Height: bounds.Dy()})
	for y := 0; y < bounds.Dy(); y++ {
		src := gray.Pix[y*gray.Stride : y*gray.Stride+bounds.Dx()*4]
		dst := out.Pix[y*bounds.Dx() : (y+1)*bounds.Dx()]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return out
}

// ToImage returns the raster as a standard library grayscale image.
func (g *Gray) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Dims.Width, g.Dims.Height))
	copy(img.Pix, g.Pix)
	return img
}

// ThresholdMask binarizes img: pixels with luminance >= level become 255,
// everything else 0.
func ThresholdMask(img image.Image, level uint8) *Gray {
	bin := segment.Threshold(img, level)
	bounds := bin.Bounds()
	out := NewGray(models.ImageSize{Width: bounds.Dx(), Height: bounds.Dy()})
	for y := 0; y < bounds.Dy(); y++ {
		copy(out.Pix[y*bounds.Dx():(y+1)*bounds.Dx()], bin.Pix[y*bin.Stride:y*bin.Stride+bounds.Dx()])
	}
	return out
}

// Smooth applies a Gaussian blur of the given radius and returns a new raster.
// A non-positive radius returns a copy.
func Smooth(g *Gray, radius float64) *Gray {
	if radius <= 0 {
		out := NewGray(g.Dims)
		copy(out.Pix, g.Pix)
		return out
	}
	return FromImage(blur.Gaussian(g.ToImage(), radius))
}

// FrameSequence serves frames from a directory of numbered image files.
// The number embedded in each file name is its TimeFrameIndex. Frames are
// decoded on first use and cached; it is safe for concurrent use.
type FrameSequence struct {
	paths  map[models.TimeFrameIndex]string
	size   models.ImageSize
	radius float64

	mu        sync.RWMutex
	raw       map[models.TimeFrameIndex]*Gray
	processed map[models.TimeFrameIndex]*Gray
}

// OpenFrameSequence indexes every image file in dir. processRadius sets the
// Gaussian blur used for processed frames; 0 makes them identical to raw.
func OpenFrameSequence(dir string, processRadius float64) (*FrameSequence, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no image frames found in %s", dir)
	}
	sort.Slice(names, func(i, j int) bool {
		return extractNumber(names[i]) < extractNumber(names[j])
	})

	s := &FrameSequence{
		paths:     make(map[models.TimeFrameIndex]string, len(names)),
		radius:    processRadius,
		raw:       make(map[models.TimeFrameIndex]*Gray),
		processed: make(map[models.TimeFrameIndex]*Gray),
	}
	for _, name := range names {
		t := models.TimeFrameIndex(extractNumber(name))
		if _, dup := s.paths[t]; dup {
			return nil, fmt.Errorf("duplicate frame number %d in %s", t, name)
		}
		s.paths[t] = filepath.Join(dir, name)
	}

	// The first frame fixes the sequence size.
	first, err := Load(s.paths[models.TimeFrameIndex(extractNumber(names[0]))])
	if err != nil {
		return nil, err
	}
	s.size = first.Dims
	s.raw[models.TimeFrameIndex(extractNumber(names[0]))] = first
	return s, nil
}

// Times returns every frame index, ascending.
func (s *FrameSequence) Times() []models.TimeFrameIndex {
	times := make([]models.TimeFrameIndex, 0, len(s.paths))
	for t := range s.paths {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return times
}

// ImageSize implements models.MediaSource.
func (s *FrameSequence) ImageSize() models.ImageSize { return s.size }

// RawFrame implements models.MediaSource.
func (s *FrameSequence) RawFrame(t models.TimeFrameIndex) models.Frame {
	g := s.rawGray(t)
	if g == nil {
		return nil
	}
	return g
}

// ProcessedFrame implements models.MediaSource.
func (s *FrameSequence) ProcessedFrame(t models.TimeFrameIndex) models.Frame {
	s.mu.RLock()
	g, ok := s.processed[t]
	s.mu.RUnlock()
	if ok {
		return g
	}

	raw := s.rawGray(t)
	if raw == nil {
		return nil
	}
	g = Smooth(raw, s.radius)

	s.mu.Lock()
	s.processed[t] = g
	s.mu.Unlock()
	return g
}

// Gray returns the raw frame at t as a concrete raster, or nil.
func (s *FrameSequence) Gray(t models.TimeFrameIndex) *Gray {
	return s.rawGray(t)
}

// Image returns the raw frame at t for display, or nil.
func (s *FrameSequence) Image(t models.TimeFrameIndex) image.Image {
	g := s.rawGray(t)
	if g == nil {
		return nil
	}
	return g.ToImage()
}

func (s *FrameSequence) rawGray(t models.TimeFrameIndex) *Gray {
	s.mu.RLock()
	g, ok := s.raw[t]
	s.mu.RUnlock()
	if ok {
		return g
	}

	path, ok := s.paths[t]
	if !ok {
		return nil
	}
	g, err := Load(path)
	if err != nil || g.Dims != s.size {
		return nil
	}

	s.mu.Lock()
	s.raw[t] = g
	s.mu.Unlock()
	return g
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr != "" {
		num, err := strconv.Atoi(numStr)
		if err == nil {
			return num
		}
	}
	return 0
}
