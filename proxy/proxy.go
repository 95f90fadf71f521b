// Package proxy implements the server-side forwarder that holds the vendor
// API keys. Browsers and the CLI post an envelope naming the endpoint, model
// and payload; the proxy attaches the key, calls the vendor and relays the
// answer verbatim, status code included.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// DefaultBaseURL is the vendor models endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// MaxBodyBytes bounds an incoming envelope. Edit requests carry a base64 image.
const MaxBodyBytes = 32 << 20

// maxUpstreamBytes is the default bound on a relayed vendor answer.
const maxUpstreamBytes = 64 << 20

var modelPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// Keys holds the vendor API keys.
type Keys struct {
	// Main is used for every call unless a chat key applies.
	Main string
	// Chat is preferred for conversational calls when set.
	Chat string
	// Legacy is the last resort, kept for older deployments.
	Legacy string
}

// For returns the key to use for a call, or "" when none is configured.
func (k Keys) For(isChat bool) string {
	if isChat && k.Chat != "" {
		return k.Chat
	}
	if k.Main != "" {
		return k.Main
	}
	return k.Legacy
}

// Config holds proxy configuration.
type Config struct {
	Keys Keys

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient calls the vendor. Defaults to a client with a 2 minute timeout.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// MaxResponseBytes bounds a relayed vendor answer. Defaults to 64MB.
	MaxResponseBytes int64
}

// Server forwards envelopes to the vendor.
type Server struct {
	keys    Keys
	baseURL string
	client  *http.Client
	log     *slog.Logger
	limit   int64
}

// New creates a Server.
func New(cfg Config) *Server {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 2 * time.Minute}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	limit := cfg.MaxResponseBytes
	if limit <= 0 {
		limit = maxUpstreamBytes
	}
	return &Server{keys: cfg.Keys, baseURL: base, client: hc, log: log, limit: limit}
}

// Handler returns the HTTP routes:
//
//	POST /api/gemini      forward an envelope
//	POST /api/gemini.php  same, for clients built against the PHP endpoint
//	GET  /healthz         liveness
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID, middleware.RealIP, middleware.Recoverer, cors)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method Not Allowed"})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not Found"})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/api/gemini", s.forward)
	r.Post("/api/gemini.php", s.forward)
	return r
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) forward(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := s.log.With("request_id", middleware.GetReqID(r.Context()))

	var env vitrine.Envelope
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&env); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			log.Warn("request body too large", "limit", tooBig.Limit)
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "Request Too Large"})
			return
		}
		log.Warn("invalid request body", "error", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: `Invalid request. "endpoint" and "payload" are required.`, Details: err.Error()})
		return
	}
	if !env.Endpoint.Valid() {
		log.Warn("invalid endpoint", "endpoint", env.Endpoint)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: `Invalid request. "endpoint" and "payload" are required.`})
		return
	}
	if !modelPattern.MatchString(env.Model) {
		log.Warn("invalid model", "model", env.Model)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid model identifier."})
		return
	}

	key := s.keys.For(env.IsChat)
	if key == "" {
		log.Error("no api key configured", "is_chat", env.IsChat)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "API key not configured on the server (GEMINI_API_KEY or GEMINI_CHAT_API_KEY)."})
		return
	}

	log = log.With("endpoint", env.Endpoint, "model", env.Model, "is_chat", env.IsChat)

	resp, err := s.call(r.Context(), env, key)
	if err != nil {
		log.Error("upstream request failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "Proxy Request Failed", Details: err.Error()})
		return
	}
	defer resp.Body.Close()

	// The answer is buffered so an oversized one is refused instead of cut short.
	body, err := io.ReadAll(io.LimitReader(resp.Body, s.limit+1))
	if err != nil {
		log.Error("failed to read upstream body", "error", err, "bytes", len(body))
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "Proxy Request Failed", Details: err.Error()})
		return
	}
	if int64(len(body)) > s.limit {
		log.Error("upstream response too large", "status", resp.StatusCode, "limit", s.limit)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "Upstream Response Too Large"})
		return
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(resp.StatusCode)
	n, err := w.Write(body)
	if err != nil {
		log.Error("failed to relay upstream body", "error", err, "bytes", n)
		return
	}

	attrs := []any{"status", resp.StatusCode, "bytes", n, "duration_ms", time.Since(start).Milliseconds()}
	if resp.StatusCode >= 400 {
		log.Warn("upstream returned error", attrs...)
	} else {
		log.Info("request completed", attrs...)
	}
}

// call posts the envelope payload to the vendor endpoint for its model.
func (s *Server) call(ctx context.Context, env vitrine.Envelope, key string) (*http.Response, error) {
	payload := []byte(env.Payload)
	if len(bytes.TrimSpace(payload)) == 0 || string(payload) == "null" {
		payload = []byte("{}")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.upstreamURL(env), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", key)
	return s.client.Do(req)
}

func (s *Server) upstreamURL(env vitrine.Envelope) string {
	method := "generateContent"
	if env.Endpoint == vitrine.EndpointGenerateImages {
		method = "predict"
	}
	return fmt.Sprintf("%s/%s:%s", s.baseURL, env.Model, method)
}

// ListenAndServe serves the proxy on addr until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("proxy listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down proxy")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestID tags each request with the caller's X-Request-Id or a new UUID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors allows any origin and answers preflight requests directly.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, X-Request-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
