package masktoline

import "whiskertrace/internal/models"

// Skeletonizer thins a binary row-major buffer to a one-pixel-wide
// skeleton. Implementations must not modify buf.
type Skeletonizer interface {
	Skeletonize(buf []uint8, size models.ImageSize) []uint8
}

// Thinning is the Zhang-Suen iterative thinning algorithm.
type Thinning struct{}

// Skeletonize implements Skeletonizer.
func (Thinning) Skeletonize(buf []uint8, size models.ImageSize) []uint8 {
	w, h := size.Width, size.Height
	img := make([]uint8, size.Area())
	for i := range img {
		if i < len(buf) && buf[i] != 0 {
			img[i] = 1
		}
	}
	if w < 3 || h < 3 {
		return img
	}

	at := func(x, y int) uint8 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return img[y*w+x]
	}

	var marked []int
	for changed := true; changed; {
		changed = false
		for pass := 0; pass < 2; pass++ {
			marked = marked[:0]
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					if img[y*w+x] == 0 {
						continue
					}
					// Clockwise from north.
					n := [8]uint8{
						at(x, y-1), at(x+1, y-1), at(x+1, y), at(x+1, y+1),
						at(x, y+1), at(x-1, y+1), at(x-1, y), at(x-1, y-1),
					}
					count, transitions := 0, 0
					for i := 0; i < 8; i++ {
						count += int(n[i])
						if n[i] == 0 && n[(i+1)%8] == 1 {
							transitions++
						}
					}
					if count < 2 || count > 6 || transitions != 1 {
						continue
					}
					north, east, south, west := n[0], n[2], n[4], n[6]
					if pass == 0 {
						if north*east*south != 0 || east*south*west != 0 {
							continue
						}
					} else {
						if north*east*west != 0 || north*south*west != 0 {
							continue
						}
					}
					marked = append(marked, y*w+x)
				}
			}
			for _, i := range marked {
				img[i] = 0
			}
			if len(marked) > 0 {
				changed = true
			}
		}
	}
	return img
}
