// Package studio implements the editing studio's operations on top of the
// request executor: image analysis, region edits, generation, segmentation,
// translation, search-grounded answers and the assistant chat.
//
// Every operation resolves its model through a capability, so the studio
// never names concrete models. Failures are returned as classified
// *vitrine.Error values whose UserMessage is ready for display.
//
// Produced images are offered to the media library in the background.
// Library failures are logged and never surface to the caller.
package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"github.com/atlas-moltbot/vitrine-de-imagens/client"
	"github.com/atlas-moltbot/vitrine-de-imagens/library"
)

// Executor runs one capability call. *client.Executor implements it.
type Executor interface {
	Execute(ctx context.Context, c vitrine.Capability, req vitrine.Request) (*client.Response, error)
}

// ErrNoResult is wrapped in a generic *vitrine.Error when the model answers
// without the text or image an operation needs.
var ErrNoResult = errors.New("no result in model response")

// offerTimeout bounds a background library save.
const offerTimeout = 30 * time.Second

// Config holds the collaborators of a Service.
type Config struct {
	Executor Executor

	// Library receives produced images. Nil disables offering.
	Library library.Store

	// Settings supplies the Atlas webhook and user.
	Settings vitrine.SettingsProvider

	// HTTPClient is used for the Atlas webhook. Defaults to a client with a 30s timeout.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Service exposes the studio operations. It is safe for concurrent use.
type Service struct {
	exec     Executor
	library  library.Store
	settings vitrine.SettingsProvider
	http     *http.Client
	log      *slog.Logger

	offers sync.WaitGroup
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Executor == nil {
		return nil, errors.New("studio: executor is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		exec:     cfg.Executor,
		library:  cfg.Library,
		settings: cfg.Settings,
		http:     hc,
		log:      log,
	}, nil
}

// Wait blocks until pending library offers have finished.
func (s *Service) Wait() {
	s.offers.Wait()
}

// offer saves img to the library without blocking the caller.
func (s *Service) offer(ctx context.Context, img *vitrine.Image, typ vitrine.ItemType, prompt string) {
	if s.library == nil || img == nil {
		return
	}
	item := library.NewItem(img.DataURL(), typ, prompt, "")
	ctx = context.WithoutCancel(ctx)

	s.offers.Go(func() {
		ctx, cancel := context.WithTimeout(ctx, offerTimeout)
		defer cancel()
		if err := s.library.Save(ctx, item); err != nil {
			s.log.Warn("failed to save item to library", "id", item.ID, "type", typ, "error", err)
			return
		}
		s.log.Debug("saved item to library", "id", item.ID, "type", typ)
	})
}

// noResult reports a response that lacked the expected payload.
func noResult(what string) error {
	return vitrine.NewError(vitrine.KindGeneric, 0, fmt.Errorf("%s: %w", what, ErrNoResult))
}

// requireImage rejects nil or empty images.
func requireImage(img *vitrine.Image) error {
	if img == nil || len(img.Data) == 0 {
		return fmt.Errorf("studio: image: %w", vitrine.ErrEmptyInput)
	}
	return nil
}

func float32Ptr(v float32) *float32 { return &v }
