package vitrine

import (
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// Endpoint selects the upstream operation the proxy forwards to.
type Endpoint string

const (
	// EndpointGenerateContent is the Gemini generateContent call.
	EndpointGenerateContent Endpoint = "generateContent"
	// EndpointGenerateImages is the Imagen predict call.
	EndpointGenerateImages Endpoint = "generateImages"
)

// Valid reports whether e is a known endpoint.
func (e Endpoint) Valid() bool {
	return e == EndpointGenerateContent || e == EndpointGenerateImages
}

// Request is the payload of a single model call. It is implemented only by
// ContentRequest and ImageRequest so the two call shapes cannot be mixed up.
type Request interface {
	Endpoint() Endpoint
	isRequest()
}

// GenerationConfig is the subset of generateContent sampling options the studio uses.
type GenerationConfig struct {
	Temperature      *float32 `json:"temperature,omitempty"`
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
	CandidateCount   int32    `json:"candidateCount,omitempty"`
}

// ContentRequest is a generateContent payload.
type ContentRequest struct {
	Contents          []*genai.Content  `json:"contents"`
	SystemInstruction *genai.Content    `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	Tools             []*genai.Tool     `json:"tools,omitempty"`
}

// Endpoint returns EndpointGenerateContent.
func (*ContentRequest) Endpoint() Endpoint { return EndpointGenerateContent }
func (*ContentRequest) isRequest()         {}

// NewContentRequest builds a single-turn user request from parts.
func NewContentRequest(parts ...*genai.Part) *ContentRequest {
	return &ContentRequest{
		Contents: []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
	}
}

// InlineImage carries base64 image bytes in the Imagen instance shape.
type InlineImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MIMEType           string `json:"mimeType,omitempty"`
}

// ImageInstance is one Imagen prompt, optionally with a source image to edit.
type ImageInstance struct {
	Prompt string       `json:"prompt"`
	Image  *InlineImage `json:"image,omitempty"`
}

// ImageParameters are the Imagen predict parameters.
type ImageParameters struct {
	SampleCount      int              `json:"sampleCount"`
	AspectRatio      string           `json:"aspectRatio,omitempty"`
	PersonGeneration PersonGeneration `json:"personGeneration,omitempty"`
}

// ImageRequest is a generateImages (Imagen predict) payload.
type ImageRequest struct {
	Instances  []ImageInstance `json:"instances"`
	Parameters ImageParameters `json:"parameters"`
}

// Endpoint returns EndpointGenerateImages.
func (*ImageRequest) Endpoint() Endpoint { return EndpointGenerateImages }
func (*ImageRequest) isRequest()         {}

// Envelope is the body posted to the proxy for one upstream call.
type Envelope struct {
	Endpoint Endpoint        `json:"endpoint"`
	Model    string          `json:"model"`
	Payload  json.RawMessage `json:"payload"`
	IsChat   bool            `json:"isChat"`
}

// NewEnvelope serialises req for the given model and capability.
func NewEnvelope(model string, capability Capability, req Request) (Envelope, error) {
	if req == nil {
		return Envelope{}, fmt.Errorf("nil request: %w", ErrEmptyInput)
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", req.Endpoint(), err)
	}
	return Envelope{
		Endpoint: req.Endpoint(),
		Model:    model,
		Payload:  payload,
		IsChat:   capability.IsChat(),
	}, nil
}
