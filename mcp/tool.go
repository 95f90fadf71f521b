package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"github.com/atlas-moltbot/vitrine-de-imagens/prompts"
	"github.com/atlas-moltbot/vitrine-de-imagens/region"
	"github.com/atlas-moltbot/vitrine-de-imagens/studio"
	"github.com/mark3labs/mcp-go/mcp"
)

const imageArgDesc = "Image as a data URL (data:image/png;base64,...) or a local file path"

var (
	analyzeTool = mcp.NewTool("analyze_image",
		mcp.WithDescription("Describe the scene, objects, mood, lighting and dominant colors of an image (pt-BR)."),
		mcp.WithString("image", mcp.Required(), mcp.Description(imageArgDesc)),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	editTool = mcp.NewTool("edit_image",
		mcp.WithDescription("Edit an image with a text instruction, optionally limited to a region."),
		mcp.WithString("image", mcp.Required(), mcp.Description(imageArgDesc)),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("Edit instruction")),
		mcp.WithString("region", mcp.Description("Region as ymin,xmin,ymax,xmax in the 0-1000 space")),
	)

	generateTool = mcp.NewTool("generate_image",
		mcp.WithDescription("Generate an image from a pt-BR or English prompt."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("What to draw")),
		mcp.WithString("aspect_ratio", mcp.Description("Output aspect ratio"),
			mcp.Enum("1:1", "3:4", "4:3", "9:16", "16:9", "2:3", "3:2", "21:9"), mcp.DefaultString("1:1")),
	)

	askTool = mcp.NewTool("ask",
		mcp.WithDescription("Ask the fast assistant model a question."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("The question")),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	listPromptsTool = mcp.NewTool("list_prompts",
		mcp.WithDescription("List the studio's prompt templates, optionally filtered by category."),
		mcp.WithString("category", mcp.Description("Template category, e.g. Estúdio")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
)

type handlers struct {
	studio    Studio
	catalogue *prompts.Catalogue

	// edits guards against an older edit overwriting a newer one.
	edits studio.Slot
}

func (h *handlers) analyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	img, err := imageArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := h.studio.Analyze(ctx, img)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(result)
}

func (h *handlers) edit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	img, err := imageArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var r *region.Region
	if s := strings.TrimSpace(req.GetString("region", "")); s != "" {
		parsed, err := region.Parse(s)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		r = &parsed
	}

	ticket := h.edits.Begin()
	out, err := h.studio.Edit(ctx, img, prompt, r)
	if err != nil {
		return toolError(err), nil
	}
	if err := ticket.Check(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultImage("Imagem editada.", out.Base64(), out.MIMEType), nil
}

func (h *handlers) generate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ratio, err := vitrine.ParseAspectRatio(req.GetString("aspect_ratio", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := h.studio.Generate(ctx, prompt, ratio)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultImage("Imagem gerada.", out.Base64(), out.MIMEType), nil
}

func (h *handlers) ask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	answer, err := h.studio.Ask(ctx, prompt)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(answer), nil
}

type templateSummary struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Prompt   string `json:"prompt"`
}

type presetSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *handlers) listPrompts(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates := h.catalogue.Templates
	if category := req.GetString("category", ""); category != "" {
		templates = h.catalogue.ByCategory(category)
	}

	out := struct {
		Templates []templateSummary `json:"templates"`
		Presets   []presetSummary   `json:"presets"`
	}{
		Templates: make([]templateSummary, 0, len(templates)),
		Presets:   make([]presetSummary, 0, len(h.catalogue.Presets)),
	}
	for _, t := range templates {
		out.Templates = append(out.Templates, templateSummary{Name: t.Name, Category: t.Category, Prompt: t.Prompt})
	}
	for _, p := range h.catalogue.Presets {
		out.Presets = append(out.Presets, presetSummary{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	return jsonResult(out)
}

// imageArg loads the "image" argument from a data URL or a file path.
func imageArg(req mcp.CallToolRequest) (*vitrine.Image, error) {
	s, err := req.RequireString("image")
	if err != nil {
		return nil, err
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		return vitrine.ParseDataURL(s)
	}
	return vitrine.ReadImageFile(s)
}

// toolError reports a failure with the user-facing message when one exists.
func toolError(err error) *mcp.CallToolResult {
	var ve *vitrine.Error
	if errors.As(err, &ve) {
		return mcp.NewToolResultError(ve.UserMessage())
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
