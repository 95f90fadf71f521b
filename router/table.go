package router

import vitrine "github.com/atlas-moltbot/vitrine-de-imagens"

// Model identifiers last reviewed: February 2026.
// Source: https://ai.google.dev/gemini-api/docs/models
//
// gemini-2.0-flash and gemini-2.0-flash-lite are deprecated; they stay in the
// fallback table so stored overrides and old configs degrade instead of failing.
const (
	Gemini31ProPreview = "gemini-3.1-pro-preview"
	Gemini3ProPreview  = "gemini-3-pro-preview"
	Gemini3FlashPrev   = "gemini-3-flash-preview"
	Gemini25Pro        = "gemini-2.5-pro"
	Gemini25Flash      = "gemini-2.5-flash"
	Gemini25FlashLite  = "gemini-2.5-flash-lite"
	Gemini20Flash      = "gemini-2.0-flash"
	Gemini20FlashLite  = "gemini-2.0-flash-lite"

	Imagen4      = "imagen-4.0-generate-001"
	Imagen4Fast  = "imagen-4.0-fast-generate-001"
	Imagen4Ultra = "imagen-4.0-ultra-generate-001"
	Imagen3      = "imagen-3.0-generate-002"
)

// DefaultBindings maps each capability to the model that serves it.
var DefaultBindings = map[vitrine.Capability]string{
	vitrine.CapabilityChatComplex:   Gemini3FlashPrev,
	vitrine.CapabilityVisionAnalyze: Gemini25Flash,
	vitrine.CapabilityVisionSegment: Gemini25Flash,
	vitrine.CapabilityImageGenerate: Imagen4,
	vitrine.CapabilityImageEdit:     Imagen4,
	vitrine.CapabilityFastUtility:   Gemini25FlashLite,
}

// DefaultFallbacks is the degradation chain used when the upstream rejects a
// model as missing. An empty value ends the chain.
var DefaultFallbacks = map[string]string{
	Gemini31ProPreview: Gemini3FlashPrev,
	Gemini3ProPreview:  Gemini25Flash,
	Gemini3FlashPrev:   Gemini25Flash,
	Gemini25Pro:        Gemini25Flash,
	Gemini25Flash:      Gemini25FlashLite,
	Gemini25FlashLite:  "",
	Gemini20Flash:      Gemini25Flash,
	Gemini20FlashLite:  Gemini25FlashLite,

	Imagen4Ultra: Imagen4,
	Imagen3:      Imagen4,
	Imagen4:      Imagen4Fast,
	Imagen4Fast:  "",
}

// DefaultFamilyFallbacks catches identifiers missing from the fallback table,
// keyed by identifier prefix.
var DefaultFamilyFallbacks = map[string]string{
	"gemini-": Gemini25Flash,
	"imagen-": Imagen4,
}
