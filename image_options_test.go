package vitrine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyImageOptions(t *testing.T) {
	t.Run("defaults to one image", func(t *testing.T) {
		opts := ApplyImageOptions()
		assert.Equal(t, 1, opts.Count)
		assert.Empty(t, opts.AspectRatio)
		assert.Empty(t, opts.PersonGeneration)
		assert.Nil(t, opts.Source)
	})

	t.Run("applies multiple options", func(t *testing.T) {
		src := &Image{MIMEType: "image/png", Data: []byte("src")}
		opts := ApplyImageOptions(
			WithAspectRatio(AspectRatio9x16),
			WithImageCount(3),
			WithPersonGeneration(PersonGenerationAllowAdult),
			WithSourceImage(src),
		)

		assert.Equal(t, AspectRatio9x16, opts.AspectRatio)
		assert.Equal(t, 3, opts.Count)
		assert.Equal(t, PersonGenerationAllowAdult, opts.PersonGeneration)
		assert.Same(t, src, opts.Source)
	})
}

func TestNewImageRequest(t *testing.T) {
	t.Run("generation payload", func(t *testing.T) {
		req, err := NewImageRequest("a cat", WithAspectRatio(AspectRatio16x9))
		require.NoError(t, err)

		data, err := json.Marshal(req)
		require.NoError(t, err)
		assert.JSONEq(t, `{"instances":[{"prompt":"a cat"}],"parameters":{"sampleCount":1,"aspectRatio":"16:9"}}`, string(data))
	})

	t.Run("edit payload carries the source image", func(t *testing.T) {
		src := &Image{MIMEType: "image/jpeg", Data: []byte("abc")}
		req, err := NewImageRequest("make it red", WithSourceImage(src), WithPersonGeneration(PersonGenerationDontAllow))
		require.NoError(t, err)

		require.NotNil(t, req.Instances[0].Image)
		assert.Equal(t, "YWJj", req.Instances[0].Image.BytesBase64Encoded)
		assert.Equal(t, "image/jpeg", req.Instances[0].Image.MIMEType)
		assert.Equal(t, PersonGenerationDontAllow, req.Parameters.PersonGeneration)
		assert.Equal(t, EndpointGenerateImages, req.Endpoint())
	})

	t.Run("rejects counts out of range", func(t *testing.T) {
		for _, n := range []int{0, -1, MaxSampleCount + 1} {
			_, err := NewImageRequest("a cat", WithImageCount(n))
			assert.Error(t, err, "count %d", n)
		}
	})
}
