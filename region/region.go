// Package region converts pointer drags over a displayed image into
// bounding boxes in a fixed 0-1000 space, independent of the rendered size.
package region

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Scale is the extent of the normalised coordinate space.
const Scale = 1000

// MinSize is the smallest drag, in display pixels, accepted on each axis.
const MinSize = 10

// Point is a pointer position in display pixels.
type Point struct {
	X, Y float64
}

// Bounds is the on-screen rectangle of the image container.
type Bounds struct {
	Left, Top, Width, Height float64
}

// Rect is a rectangle relative to the container's top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// Region is a normalised box ordered ymin, xmin, ymax, xmax.
type Region [4]int

// String formats the region the way edit prompts embed it, e.g. "100, 100, 475, 350".
func (r Region) String() string {
	return fmt.Sprintf("%d, %d, %d, %d", r[0], r[1], r[2], r[3])
}

// Valid reports whether every coordinate is within [0, Scale] and the
// minimums do not exceed the maximums.
func (r Region) Valid() bool {
	for _, v := range r {
		if v < 0 || v > Scale {
			return false
		}
	}
	return r[0] <= r[2] && r[1] <= r[3]
}

// Parse reads a region written as four comma-separated integers.
func Parse(s string) (Region, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 4 {
		return Region{}, fmt.Errorf("region %q: want ymin,xmin,ymax,xmax", s)
	}
	var r Region
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return Region{}, fmt.Errorf("region %q: %w", s, err)
		}
		r[i] = v
	}
	if !r.Valid() {
		return Region{}, fmt.Errorf("region %q: coordinates must be ordered and within 0-%d", s, Scale)
	}
	return r, nil
}

// Normalize maps rect inside a width x height container to the 0-1000 space.
// It returns false for a container that has not been laid out yet.
func Normalize(rect Rect, width, height float64) (Region, bool) {
	if width <= 0 || height <= 0 {
		return Region{}, false
	}
	return Region{
		scale(rect.Y, height),
		scale(rect.X, width),
		scale(rect.Y+rect.H, height),
		scale(rect.X+rect.W, width),
	}, true
}

func scale(v, extent float64) int {
	n := int(math.Round(v / extent * Scale))
	return min(max(n, 0), Scale)
}
