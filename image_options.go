package vitrine

import "fmt"

// MaxSampleCount is the most images one Imagen call returns.
const MaxSampleCount = 4

// PersonGeneration controls whether Imagen may draw people.
type PersonGeneration string

const (
	PersonGenerationDontAllow  PersonGeneration = "dont_allow"
	PersonGenerationAllowAdult PersonGeneration = "allow_adult"
	PersonGenerationAllowAll   PersonGeneration = "allow_all"
)

// ImageOptions contains configuration for an Imagen request.
type ImageOptions struct {
	AspectRatio      AspectRatio
	Count            int
	PersonGeneration PersonGeneration
	Source           *Image
}

// ImageOption is a functional option for configuring Imagen requests.
type ImageOption func(*ImageOptions)

// WithAspectRatio sets the output aspect ratio.
func WithAspectRatio(r AspectRatio) ImageOption {
	return func(o *ImageOptions) {
		o.AspectRatio = r
	}
}

// WithImageCount sets the number of images to generate, up to MaxSampleCount.
func WithImageCount(n int) ImageOption {
	return func(o *ImageOptions) {
		o.Count = n
	}
}

// WithPersonGeneration sets the people policy.
func WithPersonGeneration(p PersonGeneration) ImageOption {
	return func(o *ImageOptions) {
		o.PersonGeneration = p
	}
}

// WithSourceImage attaches the image to edit.
func WithSourceImage(img *Image) ImageOption {
	return func(o *ImageOptions) {
		o.Source = img
	}
}

// ApplyImageOptions applies functional options to an ImageOptions struct.
// The count defaults to 1.
func ApplyImageOptions(opts ...ImageOption) *ImageOptions {
	o := &ImageOptions{Count: 1}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewImageRequest builds a generateImages payload for prompt.
func NewImageRequest(prompt string, opts ...ImageOption) (*ImageRequest, error) {
	o := ApplyImageOptions(opts...)
	if o.Count < 1 || o.Count > MaxSampleCount {
		return nil, fmt.Errorf("image count %d out of range 1-%d", o.Count, MaxSampleCount)
	}

	inst := ImageInstance{Prompt: prompt}
	if o.Source != nil {
		inst.Image = &InlineImage{
			BytesBase64Encoded: o.Source.Base64(),
			MIMEType:           o.Source.MIMEType,
		}
	}
	return &ImageRequest{
		Instances: []ImageInstance{inst},
		Parameters: ImageParameters{
			SampleCount:      o.Count,
			AspectRatio:      string(o.AspectRatio),
			PersonGeneration: o.PersonGeneration,
		},
	}, nil
}
