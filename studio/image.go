package studio

import (
	"context"
	"fmt"
	"strings"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"github.com/atlas-moltbot/vitrine-de-imagens/region"
)

// EditPrompt appends the region marker the image model reads, e.g.
// "trocar fundo [Region: 100, 100, 475, 350]". r may be nil.
func EditPrompt(prompt string, r *region.Region) string {
	if r == nil {
		return prompt
	}
	return fmt.Sprintf("%s [Region: %s]", prompt, r)
}

// Edit applies prompt to img, limited to r when it is non-nil.
// The result is offered to the library as an edited item.
func (s *Service) Edit(ctx context.Context, img *vitrine.Image, prompt string, r *region.Region) (*vitrine.Image, error) {
	if err := requireImage(img); err != nil {
		return nil, err
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("studio: prompt: %w", vitrine.ErrEmptyInput)
	}
	if r != nil && !r.Valid() {
		return nil, fmt.Errorf("studio: region %s out of range", r)
	}

	req, err := vitrine.NewImageRequest(EditPrompt(prompt, r), vitrine.WithSourceImage(img))
	if err != nil {
		return nil, err
	}
	out, err := s.image(ctx, vitrine.CapabilityImageEdit, req)
	if err != nil {
		return nil, err
	}
	s.offer(ctx, out, vitrine.ItemEdited, prompt)
	return out, nil
}

// Generate creates an image from a pt-BR prompt. The prompt is translated to
// English first; if translation fails the original text is used.
// The result is offered to the library as a generated item.
func (s *Service) Generate(ctx context.Context, prompt string, ratio vitrine.AspectRatio) (*vitrine.Image, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("studio: prompt: %w", vitrine.ErrEmptyInput)
	}
	if ratio == "" {
		ratio = vitrine.AspectRatio1x1
	}

	english := s.TranslateToEnglish(ctx, prompt)
	req, err := vitrine.NewImageRequest(english, vitrine.WithAspectRatio(ratio))
	if err != nil {
		return nil, err
	}
	out, err := s.image(ctx, vitrine.CapabilityImageGenerate, req)
	if err != nil {
		return nil, err
	}
	s.offer(ctx, out, vitrine.ItemGenerated, prompt)
	return out, nil
}

func (s *Service) image(ctx context.Context, c vitrine.Capability, req *vitrine.ImageRequest) (*vitrine.Image, error) {
	resp, err := s.exec.Execute(ctx, c, req)
	if err != nil {
		return nil, err
	}
	images, err := resp.Images()
	if err != nil {
		return nil, err
	}
	return images[0], nil
}
