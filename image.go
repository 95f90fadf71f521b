package vitrine

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// Image is an in-memory image artifact.
type Image struct {
	MIMEType string
	Data     []byte
}

// Base64 returns the standard base64 encoding of the image bytes.
func (img *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

// DataURL returns the image as a data URL.
func (img *Image) DataURL() string {
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + img.Base64()
}

// ImageFromBase64 decodes base64 image bytes. An empty MIME type defaults to PNG.
func ImageFromBase64(b64, mimeType string) (*Image, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, &ImageError{Op: "decode", Source: "base64", Err: err}
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	return &Image{MIMEType: mimeType, Data: data}, nil
}

// ParseDataURL decodes a "data:<mime>;base64,<data>" URL.
func ParseDataURL(s string) (*Image, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, &ImageError{Op: "parse", Source: "data-url", Err: errors.New("missing data: prefix")}
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, &ImageError{Op: "parse", Source: "data-url", Err: errors.New("missing payload")}
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, &ImageError{Op: "parse", Source: "data-url", Err: errors.New("only base64 data URLs are supported")}
	}
	return ImageFromBase64(payload, mime)
}

// ReadImageFile loads an image from disk, sniffing its MIME type.
func ReadImageFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ImageError{Op: "read", Source: path, Err: err}
	}
	if len(data) == 0 {
		return nil, &ImageError{Op: "read", Source: path, Err: ErrEmptyInput}
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return nil, &ImageError{Op: "read", Source: path, Err: fmt.Errorf("unsupported content type %s", mime)}
	}
	return &Image{MIMEType: mime, Data: data}, nil
}

// AspectRatio is an Imagen output aspect ratio.
type AspectRatio string

const (
	AspectRatio1x1  AspectRatio = "1:1"
	AspectRatio3x4  AspectRatio = "3:4"
	AspectRatio4x3  AspectRatio = "4:3"
	AspectRatio9x16 AspectRatio = "9:16"
	AspectRatio16x9 AspectRatio = "16:9"
	AspectRatio2x3  AspectRatio = "2:3"
	AspectRatio3x2  AspectRatio = "3:2"
	AspectRatio21x9 AspectRatio = "21:9"
)

var aspectRatios = []AspectRatio{
	AspectRatio1x1, AspectRatio3x4, AspectRatio4x3, AspectRatio9x16,
	AspectRatio16x9, AspectRatio2x3, AspectRatio3x2, AspectRatio21x9,
}

// ParseAspectRatio validates an aspect ratio string. Empty means 1:1.
func ParseAspectRatio(s string) (AspectRatio, error) {
	if s == "" {
		return AspectRatio1x1, nil
	}
	for _, r := range aspectRatios {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unsupported aspect ratio %q", s)
}

// String returns the ratio as "w:h".
func (r AspectRatio) String() string { return string(r) }
