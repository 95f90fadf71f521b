package region

import (
	"errors"
	"fmt"
	"image"
	"io"

	// Decoders registered for DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageSize reads the intrinsic size of an encoded image without decoding
// its pixels. It returns the detected format name.
func ImageSize(r io.Reader) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, "", fmt.Errorf("read image size: %w", err)
	}
	return cfg.Width, cfg.Height, format, nil
}

// FromPixels normalises a box given in the image's own pixel coordinates,
// with corners in any order. Boxes under MinSize on either axis are rejected.
func FromPixels(x0, y0, x1, y1 float64, width, height int) (Region, error) {
	rect := Rect{
		X: min(x0, x1),
		Y: min(y0, y1),
		W: max(x0, x1) - min(x0, x1),
		H: max(y0, y1) - min(y0, y1),
	}
	if rect.W < MinSize || rect.H < MinSize {
		return Region{}, fmt.Errorf("region %gx%g is smaller than %dpx", rect.W, rect.H, MinSize)
	}
	reg, ok := Normalize(rect, float64(width), float64(height))
	if !ok {
		return Region{}, errors.New("image has no size")
	}
	return reg, nil
}
