// Package mcp exposes the studio over the Model Context Protocol so that
// assistants can analyze, edit and generate images as tools.
//
// Serve over stdio (for subprocess-based MCP clients):
//
//	svc, _ := studio.New(studio.Config{Executor: exec, Library: store})
//	if err := mcp.ServeStdio(svc, catalogue); err != nil {
//	    log.Fatal(err)
//	}
package mcp

import (
	"context"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"github.com/atlas-moltbot/vitrine-de-imagens/prompts"
	"github.com/atlas-moltbot/vitrine-de-imagens/region"
	"github.com/mark3labs/mcp-go/server"
)

// Studio is the subset of *studio.Service the tools call.
type Studio interface {
	Analyze(ctx context.Context, img *vitrine.Image) (*vitrine.AnalysisResult, error)
	Edit(ctx context.Context, img *vitrine.Image, prompt string, r *region.Region) (*vitrine.Image, error)
	Generate(ctx context.Context, prompt string, ratio vitrine.AspectRatio) (*vitrine.Image, error)
	Ask(ctx context.Context, prompt string) (string, error)
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name    string
	version string
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// NewServer creates an MCP server with the studio tools:
// analyze_image, edit_image, generate_image, ask and list_prompts.
// catalogue may be nil, in which case list_prompts is not registered.
func NewServer(svc Studio, catalogue *prompts.Catalogue, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:    "vitrine-studio",
		version: "1.0.0",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	h := &handlers{studio: svc, catalogue: catalogue}
	s.AddTool(analyzeTool, h.analyze)
	s.AddTool(editTool, h.edit)
	s.AddTool(generateTool, h.generate)
	s.AddTool(askTool, h.ask)
	if catalogue != nil {
		s.AddTool(listPromptsTool, h.listPrompts)
	}
	return s
}

// ServeStdio starts an MCP server that communicates over stdin/stdout.
func ServeStdio(svc Studio, catalogue *prompts.Catalogue, opts ...ServerOption) error {
	return server.ServeStdio(NewServer(svc, catalogue, opts...))
}
