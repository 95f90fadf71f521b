package studio

import (
	"context"
	"fmt"
	"strings"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"github.com/atlas-moltbot/vitrine-de-imagens/client"
	"google.golang.org/genai"
)

const noAnswer = "Sem resposta rápida disponível."

// TranslateToEnglish translates an image prompt from Portuguese to English.
// It never fails: on any error the input is returned unchanged.
func (s *Service) TranslateToEnglish(ctx context.Context, text string) string {
	prompt := fmt.Sprintf("Act as a professional photography translator. Translate the following image generation prompt from Portuguese to English. "+
		"Maintain professional photography and design terminology. Answer with the translation only.\n\nText: %q", text)
	return s.translate(ctx, text, prompt, "en")
}

// TranslateToPortuguese translates text back to natural pt-BR.
// It never fails: on any error the input is returned unchanged.
func (s *Service) TranslateToPortuguese(ctx context.Context, text string) string {
	prompt := fmt.Sprintf("Traduza de volta para Português do Brasil com tom natural e claro. Responda apenas com a tradução.\n\nTexto: %q", text)
	return s.translate(ctx, text, prompt, "pt-BR")
}

func (s *Service) translate(ctx context.Context, text, prompt, target string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	out, err := s.generateText(ctx, vitrine.CapabilityFastUtility, vitrine.NewContentRequest(genai.NewPartFromText(prompt)))
	if err != nil {
		s.log.Warn("translation failed, using original text", "target", target, "error", err)
		return text
	}
	if out == "" {
		return text
	}
	return out
}

// Ask sends a one-off question to the fast model.
func (s *Service) Ask(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("studio: prompt: %w", vitrine.ErrEmptyInput)
	}
	out, err := s.generateText(ctx, vitrine.CapabilityFastUtility, vitrine.NewContentRequest(genai.NewPartFromText(prompt)))
	if err != nil {
		return "", err
	}
	if out == "" {
		return noAnswer, nil
	}
	return out, nil
}

// Source is a web page an answer was grounded on.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

// SearchResult is a search-grounded answer.
type SearchResult struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// Search answers query with Google Search grounding.
func (s *Service) Search(ctx context.Context, query string) (*SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("studio: query: %w", vitrine.ErrEmptyInput)
	}
	req := vitrine.NewContentRequest(genai.NewPartFromText(query))
	req.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}

	resp, err := s.exec.Execute(ctx, vitrine.CapabilityFastUtility, req)
	if err != nil {
		return nil, err
	}
	content, err := resp.Content()
	if err != nil {
		return nil, err
	}

	out := &SearchResult{Text: strings.TrimSpace(client.Text(content))}
	if len(content.Candidates) > 0 && content.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range content.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			out.Sources = append(out.Sources, Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
		}
	}
	return out, nil
}
