package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
)

const (
	atlasApp     = "Vitrine de Imagens"
	atlasContext = "Studio Advanced Editor"

	// DefaultAtlasUser is sent when no atlas_user setting exists.
	DefaultAtlasUser = "studio"

	// DefaultAtlasMessage is sent when the caller has no prompt.
	DefaultAtlasMessage = "Gerar imagem com parâmetros padrão"
)

// ErrNoWebhook is returned when the Atlas webhook is unset or not an http(s) URL.
var ErrNoWebhook = errors.New("studio: atlas webhook is not configured")

// AtlasError is a non-2xx answer from the Atlas webhook.
type AtlasError struct {
	Status int
	Body   string
}

func (e *AtlasError) Error() string {
	return fmt.Sprintf("atlas webhook returned HTTP %d", e.Status)
}

// StatusCode returns the HTTP status code.
func (e *AtlasError) StatusCode() int { return e.Status }

type atlasMessage struct {
	User      string `json:"user"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	App       string `json:"app"`
	Context   string `json:"context"`
}

// SendToAtlas posts text to the automation webhook configured in settings.
func (s *Service) SendToAtlas(ctx context.Context, text string) error {
	webhook := s.setting(vitrine.SettingAtlasWebhook)
	if !strings.HasPrefix(webhook, "http") {
		return ErrNoWebhook
	}
	user := s.setting(vitrine.SettingAtlasUser)
	if user == "" {
		user = DefaultAtlasUser
	}
	if strings.TrimSpace(text) == "" {
		text = DefaultAtlasMessage
	}

	body, err := json.Marshal(atlasMessage{
		User:      user,
		Text:      text,
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		App:       atlasApp,
		Context:   atlasContext,
	})
	if err != nil {
		return fmt.Errorf("atlas: encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("atlas: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Bypass-Tunnel-Reminder", "true")
	req.Header.Set("ngrok-skip-browser-warning", "true")
	req.Header.Set("X-Atlas-App", "Vitrine-Studio")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("atlas: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		s.log.Error("atlas webhook rejected message", "status", resp.StatusCode, "body", string(data))
		return &AtlasError{Status: resp.StatusCode, Body: string(data)}
	}
	s.log.Info("message sent to atlas", "user", user)
	return nil
}

func (s *Service) setting(key string) string {
	if s.settings == nil {
		return ""
	}
	v, _ := s.settings.GetString(key)
	return strings.TrimSpace(v)
}
