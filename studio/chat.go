package studio

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"google.golang.org/genai"
)

// Chat is an assistant conversation. The full history is sent with every
// message. A Chat is safe for concurrent use; sends are serialised.
type Chat struct {
	svc    *Service
	system *genai.Content

	mu      sync.Mutex
	history []*genai.Content
}

// NewChat starts a conversation with the given system instruction.
func (s *Service) NewChat(systemInstruction string) *Chat {
	c := &Chat{svc: s}
	if systemInstruction != "" {
		c.system = genai.NewContentFromText(systemInstruction, genai.RoleUser)
	}
	return c
}

// Send posts a user message, optionally with images, and returns the reply.
// A failed exchange leaves the history unchanged.
func (c *Chat) Send(ctx context.Context, message string, images ...*vitrine.Image) (string, error) {
	if strings.TrimSpace(message) == "" && len(images) == 0 {
		return "", fmt.Errorf("studio: message: %w", vitrine.ErrEmptyInput)
	}

	parts := []*genai.Part{genai.NewPartFromText(message)}
	for _, img := range images {
		if err := requireImage(img); err != nil {
			return "", err
		}
		parts = append(parts, imagePart(img))
	}
	turn := genai.NewContentFromParts(parts, genai.RoleUser)

	c.mu.Lock()
	defer c.mu.Unlock()

	req := &vitrine.ContentRequest{
		Contents:          append(slices.Clone(c.history), turn),
		SystemInstruction: c.system,
	}
	reply, err := c.svc.generateText(ctx, vitrine.CapabilityChatComplex, req)
	if err != nil {
		return "", err
	}

	c.history = append(c.history, turn)
	if reply != "" {
		c.history = append(c.history, genai.NewContentFromText(reply, genai.RoleModel))
	}
	return reply, nil
}

// History returns a copy of the conversation so far.
func (c *Chat) History() []*genai.Content {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.history)
}

// Reset clears the conversation.
func (c *Chat) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
}
