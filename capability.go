package vitrine

import "fmt"

// Capability is the abstract purpose of a model call, decoupled from the
// concrete model that serves it.
type Capability string

const (
	CapabilityChatComplex   Capability = "chat-complex"
	CapabilityVisionAnalyze Capability = "vision-analyze"
	CapabilityVisionSegment Capability = "vision-segment"
	CapabilityImageGenerate Capability = "image-generate"
	CapabilityImageEdit     Capability = "image-edit"
	CapabilityFastUtility   Capability = "fast-utility"
)

// Capabilities lists every capability in a stable order.
var Capabilities = []Capability{
	CapabilityChatComplex,
	CapabilityVisionAnalyze,
	CapabilityVisionSegment,
	CapabilityImageGenerate,
	CapabilityImageEdit,
	CapabilityFastUtility,
}

// String returns the capability identifier.
func (c Capability) String() string { return string(c) }

// IsChat reports whether calls for this capability belong to the conversational
// assistant. The proxy may bill those against a separate key.
func (c Capability) IsChat() bool {
	return c == CapabilityChatComplex || c == CapabilityFastUtility
}

// IsImage reports whether the capability is served by an image model.
func (c Capability) IsImage() bool {
	return c == CapabilityImageGenerate || c == CapabilityImageEdit
}

// ParseCapability validates a capability identifier.
func ParseCapability(s string) (Capability, error) {
	for _, c := range Capabilities {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown capability %q", s)
}
