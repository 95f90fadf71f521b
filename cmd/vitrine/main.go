// Command vitrine is the Vitrine de Imagens studio CLI. It runs the
// key-holding proxy, exposes the studio over MCP and performs one-off
// analyze, edit and generate calls through the proxy.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"github.com/atlas-moltbot/vitrine-de-imagens/client"
	"github.com/atlas-moltbot/vitrine-de-imagens/internal/logging"
	"github.com/atlas-moltbot/vitrine-de-imagens/library"
	"github.com/atlas-moltbot/vitrine-de-imagens/router"
	"github.com/atlas-moltbot/vitrine-de-imagens/settings"
	"github.com/atlas-moltbot/vitrine-de-imagens/studio"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	a := &app{out: os.Stdout, errOut: os.Stderr}
	err := newRootCmd(a).Execute()
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		a.fail(err)
		os.Exit(1)
	}
}

// app carries what the subcommands share. It is filled in by the root
// command's pre-run hook.
type app struct {
	out    io.Writer
	errOut io.Writer

	cfg      *Config
	log      *slog.Logger
	logClose io.Closer
	settings *settings.File

	verbose bool
	svc     *studio.Service
	events  chan client.Event
	drained chan struct{}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "vitrine",
		Short:         "Vitrine de Imagens studio tools",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging and retry progress")

	root.AddCommand(
		serveCmd(a),
		mcpCmd(a),
		analyzeCmd(a),
		editCmd(a),
		generateCmd(a),
		describeCmd(a),
		detectCmd(a),
		segmentCmd(a),
		askCmd(a),
		searchCmd(a),
		atlasCmd(a),
		libraryCmd(a),
		settingsCmd(a),
		promptsCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	a.cfg = cfg

	log, closer, err := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
		Output: a.errOut,
	})
	if err != nil {
		return err
	}
	a.log, a.logClose = log, closer
	slog.SetDefault(log)

	path := cfg.SettingsFile
	if path == "" {
		path = settings.DefaultPath()
	}
	a.settings, err = settings.OpenFile(path)
	return err
}

// close drains pending library saves and flushes the log file.
func (a *app) close() error {
	if a.svc != nil {
		a.svc.Wait()
	}
	if a.events != nil {
		close(a.events)
		<-a.drained
		a.events = nil
	}
	if a.logClose != nil {
		err := a.logClose.Close()
		a.logClose = nil
		return err
	}
	return nil
}

// context returns a context canceled on SIGINT/SIGTERM or after the
// configured timeout.
func (a *app) context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// libraryStore returns the remote library, or nil when none is configured.
func (a *app) libraryStore() library.Store {
	if a.cfg.LibraryURL == "" {
		return nil
	}
	return library.NewRemoteStore(a.cfg.LibraryURL, &http.Client{Timeout: a.cfg.Timeout})
}

// service builds the studio on first use.
func (a *app) service() (*studio.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}

	r, err := router.New(a.settings)
	if err != nil {
		return nil, err
	}

	rc := vitrine.DefaultRetryConfig()
	rc.MaxRetries = a.cfg.MaxRetries

	var events chan client.Event
	if a.verbose {
		events = make(chan client.Event, 64)
	}

	exec, err := client.New(client.Config{
		Router:    r,
		Transport: client.NewHTTPTransport(a.cfg.ProxyURL, client.WithHTTPClient(&http.Client{Timeout: a.cfg.Timeout})),
		Retry:     &rc,
		Events:    events,
		Logger:    a.log,
	})
	if err != nil {
		return nil, err
	}

	svc, err := studio.New(studio.Config{
		Executor: exec,
		Library:  a.libraryStore(),
		Settings: a.settings,
		Logger:   a.log,
	})
	if err != nil {
		return nil, err
	}

	if events != nil {
		a.events = events
		a.drained = make(chan struct{})
		go a.report(events)
	}
	a.svc = svc
	return svc, nil
}

// fail prints err, preferring the user-facing message of classified errors.
func (a *app) fail(err error) {
	var ve *vitrine.Error
	if errors.As(err, &ve) {
		failure(a.errOut, "%s", ve.UserMessage())
		if a.verbose {
			failure(a.errOut, "%v", err)
		}
		return
	}
	failure(a.errOut, "%v", err)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
