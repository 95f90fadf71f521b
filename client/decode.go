package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"google.golang.org/genai"
)

// ErrNoImage is returned when an image call answers without image bytes.
var ErrNoImage = errors.New("no image in response")

// blockedFinishReasons end a candidate because of content policy.
var blockedFinishReasons = map[genai.FinishReason]bool{
	genai.FinishReasonSafety:            true,
	genai.FinishReasonProhibitedContent: true,
	genai.FinishReasonBlocklist:         true,
	genai.FinishReasonSPII:              true,
	genai.FinishReasonImageSafety:       true,
}

// Content decodes a generateContent answer. A prompt or candidate stopped by
// the safety filters is reported as a content-blocked *vitrine.Error even
// though the upstream answered 200.
func (r *Response) Content() (*genai.GenerateContentResponse, error) {
	var out genai.GenerateContentResponse
	if err := json.Unmarshal(r.Body, &out); err != nil {
		return nil, r.decodeError(err)
	}

	if fb := out.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, vitrine.NewError(vitrine.KindContentBlocked, r.StatusCode,
			fmt.Errorf("prompt blocked: %s", fb.BlockReason))
	}
	if len(out.Candidates) > 0 && blockedFinishReasons[out.Candidates[0].FinishReason] {
		return nil, vitrine.NewError(vitrine.KindContentBlocked, r.StatusCode,
			fmt.Errorf("candidate blocked: %s", out.Candidates[0].FinishReason))
	}
	return &out, nil
}

// decodeError classifies an unreadable 2xx answer as generic.
func (r *Response) decodeError(err error) error {
	return vitrine.NewError(vitrine.KindGeneric, r.StatusCode, fmt.Errorf("decode %s response: %w", r.Model, err))
}

// Text returns the concatenated non-thought text of the first candidate.
func (r *Response) Text() (string, error) {
	out, err := r.Content()
	if err != nil {
		return "", err
	}
	return Text(out), nil
}

// Text concatenates the non-thought text parts of the first candidate.
func Text(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" && !p.Thought {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// prediction is one Imagen predict result.
type prediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MIMEType           string `json:"mimeType"`
	RAIFilteredReason  string `json:"raiFilteredReason"`
}

// Images decodes a generateImages answer. Predictions removed by the
// responsible-AI filter are reported as content-blocked when no image survives.
func (r *Response) Images() ([]*vitrine.Image, error) {
	var out struct {
		Predictions []prediction `json:"predictions"`
	}
	if err := json.Unmarshal(r.Body, &out); err != nil {
		return nil, r.decodeError(err)
	}

	var images []*vitrine.Image
	var filtered string
	for _, p := range out.Predictions {
		if p.BytesBase64Encoded == "" {
			if p.RAIFilteredReason != "" {
				filtered = p.RAIFilteredReason
			}
			continue
		}
		img, err := vitrine.ImageFromBase64(p.BytesBase64Encoded, p.MIMEType)
		if err != nil {
			return nil, r.decodeError(err)
		}
		images = append(images, img)
	}

	if len(images) == 0 {
		if filtered != "" {
			return nil, vitrine.NewError(vitrine.KindContentBlocked, r.StatusCode,
				fmt.Errorf("image filtered: %s", filtered))
		}
		return nil, vitrine.NewError(vitrine.KindGeneric, r.StatusCode, ErrNoImage)
	}
	return images, nil
}

// InlineImages returns the inline image parts of the first candidate,
// for Gemini models that answer with image data.
func InlineImages(resp *genai.GenerateContentResponse) []*vitrine.Image {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var images []*vitrine.Image
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData == nil || len(p.InlineData.Data) == 0 {
			continue
		}
		mime := p.InlineData.MIMEType
		if mime == "" {
			mime = http.DetectContentType(p.InlineData.Data)
		}
		images = append(images, &vitrine.Image{MIMEType: mime, Data: p.InlineData.Data})
	}
	return images
}
