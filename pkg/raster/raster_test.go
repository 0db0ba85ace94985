package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"whiskertrace/internal/models"
)

// createTestImage creates a grayscale test image with the specified dimensions and pattern
func createTestImage(width, height int, pattern func(x, y int) uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: pattern(x, y)})
		}
	}
	return img
}

func TestPixelValue(t *testing.T) {
	size := models.ImageSize{Width: 4, Height: 3}
	buf := make([]uint8, 12)
	for i := range buf {
		buf[i] = uint8(i + 1)
	}

	tests := []struct {
		name string
		p    models.Point
		want uint8
	}{
		{"origin", models.Point{X: 0, Y: 0}, 1},
		{"row major", models.Point{X: 1, Y: 2}, 10},
		{"rounds down", models.Point{X: 1.4, Y: 0.4}, 2},
		{"rounds up", models.Point{X: 1.6, Y: 0.5}, 7},
		{"last cell", models.Point{X: 3, Y: 2}, 12},
		{"negative x", models.Point{X: -1, Y: 0}, 0},
		{"past width", models.Point{X: 4, Y: 0}, 0},
		{"past height", models.Point{X: 0, Y: 2.6}, 0},
		{"small negative rounds to zero", models.Point{X: -0.4, Y: 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PixelValue(tt.p, buf, size); got != tt.want {
				t.Errorf("PixelValue(%v) = %d, want %d", tt.p, got, tt.want)
			}
		})
	}
}

func TestPixelValue_ShortBuffer(t *testing.T) {
	size := models.ImageSize{Width: 10, Height: 10}
	buf := []float32{1, 2, 3}
	if got := PixelValue(models.Point{X: 0, Y: 0}, buf, size); got != 0 {
		t.Errorf("short buffer should read as 0, got %f", got)
	}
	if got := PixelValue(models.Point{X: 0, Y: 0}, []uint8(nil), size); got != 0 {
		t.Errorf("nil buffer should read as 0, got %d", got)
	}
}

func TestGrayAndFloatIntensity(t *testing.T) {
	g := NewGray(models.ImageSize{Width: 5, Height: 5})
	g.Set(2, 3, 200)
	g.Set(10, 10, 99) // ignored
	if v := g.Intensity(models.Point{X: 2.2, Y: 2.8}); v != 200 {
		t.Errorf("gray intensity: got %f, want 200", v)
	}

	f := NewFloat(models.ImageSize{Width: 5, Height: 5})
	f.Set(1, 1, 0.5)
	if v := f.Intensity(models.Point{X: 1, Y: 1}); v != 0.5 {
		t.Errorf("float intensity: got %f, want 0.5", v)
	}
	if v := f.Intensity(models.Point{X: -3, Y: 1}); v != 0 {
		t.Errorf("out of bounds float intensity: got %f, want 0", v)
	}
}

func TestForegroundPixels(t *testing.T) {
	size := models.ImageSize{Width: 3, Height: 2}
	buf := []uint8{
		0, 1, 0,
		5, 0, 255,
	}
	got := ForegroundPixels(buf, size)
	want := []models.PixelPoint{{X: 1, Y: 0}, {X: 0, Y: 1}, {X: 2, Y: 1}}
	if len(got) != len(want) {
		t.Fatalf("got %d pixels, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pixel %d: got %v, want %v", i, got[i], want[i])
		}
	}

	if px := ForegroundPixels(buf, models.ImageSize{}); px != nil {
		t.Errorf("degenerate size should yield nil, got %v", px)
	}
	if px := ForegroundPixels([]uint8{1}, size); len(px) != 1 {
		t.Errorf("short buffer: got %d pixels, want 1", len(px))
	}
}

func TestRasterizeMask(t *testing.T) {
	size := models.ImageSize{Width: 4, Height: 4}
	mask := []models.PixelPoint{{X: 1, Y: 1}, {X: 3, Y: 0}, {X: 9, Y: 9}}
	buf := RasterizeMask(mask, size)
	back := ForegroundPixels(buf, size)
	if len(back) != 2 {
		t.Fatalf("expected 2 in-bounds pixels, got %d", len(back))
	}
}

func TestFromImage(t *testing.T) {
	img := createTestImage(8, 6, func(x, y int) uint8 { return uint8(x * 10) })
	g := FromImage(img)
	if g.Dims.Width != 8 || g.Dims.Height != 6 {
		t.Fatalf("dimensions: got %dx%d, want 8x6", g.Dims.Width, g.Dims.Height)
	}
	for x := 0; x < 8; x++ {
		if v := g.Pix[2*8+x]; v != uint8(x*10) {
			t.Errorf("pixel (%d,2): got %d, want %d", x, v, x*10)
		}
	}
}

func TestThresholdMask(t *testing.T) {
	img := createTestImage(10, 10, func(x, y int) uint8 {
		if y == 4 {
			return 220
		}
		return 30
	})
	mask := ThresholdMask(img, 128)
	pixels := ForegroundPixels(mask.Pix, mask.Dims)
	if len(pixels) != 10 {
		t.Fatalf("expected 10 foreground pixels, got %d", len(pixels))
	}
	for _, p := range pixels {
		if p.Y != 4 {
			t.Errorf("unexpected foreground pixel %v", p)
		}
	}
}

func TestSmooth(t *testing.T) {
	g := NewGray(models.ImageSize{Width: 21, Height: 21})
	g.Set(10, 10, 255)

	same := Smooth(g, 0)
	if same.Pix[10*21+10] != 255 {
		t.Errorf("zero radius should copy, got %d", same.Pix[10*21+10])
	}
	same.Pix[0] = 7
	if g.Pix[0] == 7 {
		t.Error("Smooth must not alias the source buffer")
	}

	blurred := Smooth(g, 2)
	if blurred.Pix[10*21+10] >= 255 {
		t.Errorf("blur should spread the spot, center still %d", blurred.Pix[10*21+10])
	}
	if blurred.Pix[10*21+11] == 0 {
		t.Error("blur should raise neighbouring pixels")
	}
}

func TestExtractNumber(t *testing.T) {
	tests := map[string]int{
		"frame_0012.png": 12,
		"7.tif":          7,
		"/tmp/a/b3.jpg":  3,
		"none.png":       0,
	}
	for name, want := range tests {
		if got := extractNumber(name); got != want {
			t.Errorf("extractNumber(%q) = %d, want %d", name, got, want)
		}
	}
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
}

func TestFrameSequence(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 3; i++ {
		level := uint8(i * 50)
		img := createTestImage(16, 12, func(x, y int) uint8 { return level })
		writePNG(t, filepath.Join(dir, fmt.Sprintf("frame_%d.png", i)), img)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0644); err != nil {
		t.Fatalf("failed to write notes: %v", err)
	}

	seq, err := OpenFrameSequence(dir, 1.5)
	if err != nil {
		t.Fatalf("OpenFrameSequence failed: %v", err)
	}

	if size := seq.ImageSize(); size.Width != 16 || size.Height != 12 {
		t.Errorf("size: got %dx%d, want 16x12", size.Width, size.Height)
	}
	times := seq.Times()
	if len(times) != 3 || times[0] != 1 || times[2] != 3 {
		t.Errorf("times: got %v, want [1 2 3]", times)
	}

	raw := seq.RawFrame(2)
	if raw == nil {
		t.Fatal("expected raw frame at t=2")
	}
	if v := raw.Intensity(models.Point{X: 5, Y: 5}); v != 100 {
		t.Errorf("raw intensity: got %f, want 100", v)
	}
	processed := seq.ProcessedFrame(2)
	if processed == nil {
		t.Fatal("expected processed frame at t=2")
	}
	// A uniform frame stays uniform in its interior after blurring.
	if v := processed.Intensity(models.Point{X: 8, Y: 6}); v < 95 || v > 105 {
		t.Errorf("processed intensity: got %f, want ~100", v)
	}

	if seq.RawFrame(42) != nil || seq.ProcessedFrame(42) != nil {
		t.Error("missing frame should be nil")
	}

	img := seq.Image(3)
	if img == nil || img.Bounds().Dx() != 16 {
		t.Fatalf("display image: got %v", img)
	}
	if seq.Image(42) != nil {
		t.Error("missing display image should be nil")
	}
}

func TestOpenFrameSequence_Empty(t *testing.T) {
	if _, err := OpenFrameSequence(t.TempDir(), 0); err == nil {
		t.Error("expected error for directory without frames")
	}
	if _, err := OpenFrameSequence(filepath.Join(t.TempDir(), "missing"), 0); err == nil {
		t.Error("expected error for missing directory")
	}
}
