package router

import (
	"maps"
	"slices"
	"testing"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapSettings is a minimal SettingsProvider for tests.
type mapSettings map[string]string

func (m mapSettings) GetString(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m mapSettings) SetString(key, value string) error {
	m[key] = value
	return nil
}

func TestResolveDefaults(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	for _, c := range vitrine.Capabilities {
		assert.Equal(t, DefaultBindings[c], r.Resolve(c), c.String())
	}
}

func TestResolveImageOverride(t *testing.T) {
	settings := mapSettings{}
	r, err := New(settings)
	require.NoError(t, err)

	t.Run("accepted for image capabilities", func(t *testing.T) {
		settings[vitrine.SettingImageModel] = Imagen4Ultra
		assert.Equal(t, Imagen4Ultra, r.Resolve(vitrine.CapabilityImageGenerate))
		assert.Equal(t, Imagen4Ultra, r.Resolve(vitrine.CapabilityImageEdit))
	})

	t.Run("ignored for text capabilities", func(t *testing.T) {
		settings[vitrine.SettingImageModel] = Imagen4Ultra
		assert.Equal(t, Gemini3FlashPrev, r.Resolve(vitrine.CapabilityChatComplex))
		assert.Equal(t, Gemini25Flash, r.Resolve(vitrine.CapabilityVisionAnalyze))
	})

	t.Run("read on every call", func(t *testing.T) {
		settings[vitrine.SettingImageModel] = Imagen3
		assert.Equal(t, Imagen3, r.Resolve(vitrine.CapabilityImageGenerate))
		delete(settings, vitrine.SettingImageModel)
		assert.Equal(t, Imagen4, r.Resolve(vitrine.CapabilityImageGenerate))
	})

	t.Run("rejected when not an imagen id", func(t *testing.T) {
		for _, v := range []string{"", "gemini-2.5-flash", "imagen", "imagen-", "IMAGEN-4.0-generate-001", "imagen-x"} {
			settings[vitrine.SettingImageModel] = v
			assert.Equal(t, Imagen4, r.Resolve(vitrine.CapabilityImageEdit), v)
		}
	})

	t.Run("surrounding whitespace trimmed", func(t *testing.T) {
		settings[vitrine.SettingImageModel] = "  " + Imagen4Fast + "\n"
		assert.Equal(t, Imagen4Fast, r.Resolve(vitrine.CapabilityImageGenerate))
	})
}

func TestFallback(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		failed string
		next   string
		ok     bool
	}{
		{"preview to flash", Gemini3FlashPrev, Gemini25Flash, true},
		{"flash to lite", Gemini25Flash, Gemini25FlashLite, true},
		{"lite ends chain", Gemini25FlashLite, "", false},
		{"deprecated degrades", Gemini20Flash, Gemini25Flash, true},
		{"imagen ultra", Imagen4Ultra, Imagen4, true},
		{"imagen fast ends chain", Imagen4Fast, "", false},
		{"unlisted gemini", "gemini-9.0-experimental", Gemini25Flash, true},
		{"unlisted imagen", "imagen-5.0-generate-001", Imagen4, true},
		{"unknown family", "llama-3", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := r.Fallback(tt.failed)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.next, next)
		})
	}
}

func TestFallbackNeverSelf(t *testing.T) {
	r, err := New(nil, WithFallbacks(map[string]string{"a": "a"}), WithFamilyFallbacks(nil),
		WithBindings(allBound("a")))
	require.NoError(t, err)

	_, ok := r.Fallback("a")
	assert.False(t, ok)
}

func TestChainsTerminate(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	ids := slices.Collect(maps.Keys(DefaultFallbacks))
	ids = append(ids, "gemini-unknown", "imagen-unknown", "other")

	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			seen := map[string]bool{id: true}
			model := id
			hops := 0
			for {
				next, ok := r.Fallback(model)
				if !ok {
					break
				}
				assert.NotEqual(t, model, next)
				assert.False(t, seen[next], "revisited %s", next)
				seen[next] = true
				model = next
				hops++
				require.LessOrEqual(t, hops, MaxFallbackHops)
			}
		})
	}
}

func TestChain(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	assert.Equal(t, []string{Gemini25Flash, Gemini25FlashLite}, r.Chain(Gemini3FlashPrev))
	assert.Equal(t, []string{Imagen4, Imagen4Fast}, r.Chain(Imagen4Ultra))
	assert.Empty(t, r.Chain(Gemini25FlashLite))
}

func TestValidate(t *testing.T) {
	t.Run("cycle rejected", func(t *testing.T) {
		_, err := New(nil,
			WithFallbacks(map[string]string{"a": "b", "b": "a"}),
			WithFamilyFallbacks(nil),
			WithBindings(allBound("a")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cycle")
	})

	t.Run("too long rejected", func(t *testing.T) {
		_, err := New(nil,
			WithFallbacks(map[string]string{"a": "b", "b": "c", "c": "d", "d": "e", "e": "f"}),
			WithFamilyFallbacks(nil),
			WithBindings(allBound("a")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "longer than")
	})

	t.Run("cycle through family default rejected", func(t *testing.T) {
		_, err := New(nil,
			WithFallbacks(map[string]string{"x-1": "x-2", "x-2": ""}),
			WithFamilyFallbacks(map[string]string{"x-": "x-1"}),
			WithBindings(allBound("x-1")))
		require.NoError(t, err)

		// x-9 is unlisted, so its family default leads back to x-1.
		_, err = New(nil,
			WithFallbacks(map[string]string{"x-1": "x-2", "x-2": "x-9"}),
			WithFamilyFallbacks(map[string]string{"x-": "x-1"}),
			WithBindings(allBound("x-1")))
		require.Error(t, err)
	})

	t.Run("missing binding rejected", func(t *testing.T) {
		_, err := New(nil, WithBindings(map[vitrine.Capability]string{vitrine.CapabilityFastUtility: ""}))
		assert.Error(t, err)
	})
}

func TestIsImageModel(t *testing.T) {
	assert.True(t, IsImageModel(Imagen4))
	assert.True(t, IsImageModel(Imagen3))
	assert.True(t, IsImageModel("imagen-3.0-capability-001"))
	assert.False(t, IsImageModel(Gemini25Flash))
	assert.False(t, IsImageModel("imagen-4.0-generate-001 "))
}

func allBound(model string) map[vitrine.Capability]string {
	b := make(map[vitrine.Capability]string, len(vitrine.Capabilities))
	for _, c := range vitrine.Capabilities {
		b[c] = model
	}
	return b
}
