package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/atlas-moltbot/vitrine-de-imagens/mcp"
	"github.com/atlas-moltbot/vitrine-de-imagens/prompts"
	"github.com/atlas-moltbot/vitrine-de-imagens/proxy"
	"github.com/spf13/cobra"
)

func serveCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the key-holding model proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateServe(); err != nil {
				return err
			}
			if addr == "" {
				addr = ":" + a.cfg.Port
			}

			srv := proxy.New(proxy.Config{
				Keys: proxy.Keys{
					Main:   a.cfg.GeminiKey,
					Chat:   a.cfg.ChatKey,
					Legacy: a.cfg.LegacyKey,
				},
				HTTPClient: &http.Client{Timeout: a.cfg.Timeout},
				Logger:     a.log,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :$VITRINE_PORT)")
	return cmd
}

func mcpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the studio tools over MCP on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			catalogue, err := prompts.Default()
			if err != nil {
				return err
			}
			a.log.Info("serving MCP on stdio", "proxy", a.cfg.ProxyURL)
			return mcp.ServeStdio(svc, catalogue, mcp.WithVersion(version))
		},
	}
}
