package studio

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"github.com/atlas-moltbot/vitrine-de-imagens/client"
	"google.golang.org/genai"
)

const (
	analyzePrompt = "Analise esta imagem detalhadamente. Forneça o resultado em Português do Brasil. " +
		"Extraia a descrição da cena, objetos principais, humor, iluminação e cores dominantes. " +
		`Responda em JSON com os campos "description", "objects", "mood", "lighting" e "colors".`

	detectPrompt = "Point to all items in the image. The label returned should be an identifying name for the object detected. " +
		`The answer should follow the json format: [{"point": [y, x], "label": "label"}, ...]. ` +
		"The points are in [y, x] format normalized to 0-1000."

	// DefaultDescribePrompt asks for a short e-commerce product description.
	DefaultDescribePrompt = "Atue como um especialista em e-commerce. Crie uma descrição curta e atraente para este produto."

	noDescription = "Sem descrição disponível."
)

func imagePart(img *vitrine.Image) *genai.Part {
	return genai.NewPartFromBytes(img.Data, img.MIMEType)
}

// Analyze describes the scene, objects, mood, lighting and colors of img in pt-BR.
func (s *Service) Analyze(ctx context.Context, img *vitrine.Image) (*vitrine.AnalysisResult, error) {
	if err := requireImage(img); err != nil {
		return nil, err
	}
	req := vitrine.NewContentRequest(imagePart(img), genai.NewPartFromText(analyzePrompt))
	req.GenerationConfig = &vitrine.GenerationConfig{
		Temperature:      float32Ptr(0.2),
		ResponseMIMEType: "application/json",
	}

	var out vitrine.AnalysisResult
	if err := s.generateJSON(ctx, vitrine.CapabilityVisionAnalyze, req, "analysis", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DetectObjects points at every recognisable item in img.
// Points are [y, x] in the 0-1000 space.
func (s *Service) DetectObjects(ctx context.Context, img *vitrine.Image) ([]vitrine.DetectedPoint, error) {
	if err := requireImage(img); err != nil {
		return nil, err
	}
	req := vitrine.NewContentRequest(imagePart(img), genai.NewPartFromText(detectPrompt))
	req.GenerationConfig = &vitrine.GenerationConfig{ResponseMIMEType: "application/json"}

	var points []vitrine.DetectedPoint
	if err := s.generateJSON(ctx, vitrine.CapabilityVisionSegment, req, "detection", &points); err != nil {
		return nil, err
	}
	return points, nil
}

// Segment cuts the object named label out of img.
func (s *Service) Segment(ctx context.Context, img *vitrine.Image, label string) (*vitrine.Image, error) {
	if err := requireImage(img); err != nil {
		return nil, err
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("studio: label: %w", vitrine.ErrEmptyInput)
	}
	prompt := fmt.Sprintf("Segment the object %q precisely. Return the object as an image part with a transparent background. Deliver the base64 result.", label)
	resp, err := s.exec.Execute(ctx, vitrine.CapabilityVisionSegment, vitrine.NewContentRequest(imagePart(img), genai.NewPartFromText(prompt)))
	if err != nil {
		return nil, err
	}
	content, err := resp.Content()
	if err != nil {
		return nil, err
	}
	images := client.InlineImages(content)
	if len(images) == 0 {
		return nil, noResult("segmentation")
	}
	return images[0], nil
}

// Describe answers prompt about img. An empty prompt uses DefaultDescribePrompt.
func (s *Service) Describe(ctx context.Context, img *vitrine.Image, prompt string) (string, error) {
	if err := requireImage(img); err != nil {
		return "", err
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultDescribePrompt
	}
	text, err := s.generateText(ctx, vitrine.CapabilityFastUtility, vitrine.NewContentRequest(imagePart(img), genai.NewPartFromText(prompt)))
	if err != nil {
		return "", err
	}
	if text == "" {
		return noDescription, nil
	}
	return text, nil
}

func (s *Service) generateText(ctx context.Context, c vitrine.Capability, req *vitrine.ContentRequest) (string, error) {
	resp, err := s.exec.Execute(ctx, c, req)
	if err != nil {
		return "", err
	}
	text, err := resp.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (s *Service) generateJSON(ctx context.Context, c vitrine.Capability, req *vitrine.ContentRequest, what string, out any) error {
	text, err := s.generateText(ctx, c, req)
	if err != nil {
		return err
	}
	if text == "" {
		return noResult(what)
	}
	if err := json.Unmarshal([]byte(stripFence(text)), out); err != nil {
		return vitrine.NewError(vitrine.KindGeneric, 0, fmt.Errorf("decode %s: %w", what, err))
	}
	return nil
}

// stripFence removes a ```json fence some models wrap JSON answers in.
func stripFence(s string) string {
	body, ok := strings.CutPrefix(s, "```")
	if !ok {
		return s
	}
	body = strings.TrimPrefix(body, "json")
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
