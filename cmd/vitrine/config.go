package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/atlas-moltbot/vitrine-de-imagens/internal/logging"
	"github.com/joho/godotenv"
)

// Config holds the CLI configuration loaded from environment variables.
type Config struct {
	// Proxy server
	Port string

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // text, json
	LogFile   string

	// API keys, used only by the proxy
	GeminiKey string
	ChatKey   string
	LegacyKey string

	// Client side
	ProxyURL     string
	LibraryURL   string
	SettingsFile string
	Timeout      time.Duration
	MaxRetries   int
}

// LoadConfig loads configuration from environment variables.
// It loads a .env file if present (silent fail if not found).
func LoadConfig() (*Config, error) {
	godotenv.Load() // Load .env file if present

	port := getEnvOrDefault("VITRINE_PORT", "8080")
	cfg := &Config{
		Port:         port,
		LogLevel:     getEnvOrDefault("VITRINE_LOG_LEVEL", "info"),
		LogFormat:    getEnvOrDefault("VITRINE_LOG_FORMAT", "text"),
		LogFile:      os.Getenv("VITRINE_LOG_FILE"),
		GeminiKey:    os.Getenv("GEMINI_API_KEY"),
		ChatKey:      os.Getenv("GEMINI_CHAT_API_KEY"),
		LegacyKey:    os.Getenv("VITE_GOOGLE_GEMINI_API_KEY"),
		ProxyURL:     getEnvOrDefault("VITRINE_PROXY_URL", "http://localhost:"+port+"/api/gemini"),
		LibraryURL:   os.Getenv("VITRINE_LIBRARY_URL"),
		SettingsFile: os.Getenv("VITRINE_SETTINGS_FILE"),
		Timeout:      getEnvDurationOrDefault("VITRINE_TIMEOUT", 5*time.Minute),
		MaxRetries:   getEnvIntOrDefault("VITRINE_MAX_RETRIES", 2),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("VITRINE_PORT must be a port number, got %q", c.Port)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("VITRINE_LOG_LEVEL: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("VITRINE_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if err := checkHTTPURL("VITRINE_PROXY_URL", c.ProxyURL); err != nil {
		return err
	}
	if c.LibraryURL != "" {
		if err := checkHTTPURL("VITRINE_LIBRARY_URL", c.LibraryURL); err != nil {
			return err
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("VITRINE_TIMEOUT must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("VITRINE_MAX_RETRIES must not be negative")
	}
	return nil
}

// ValidateServe checks the settings the proxy needs on top of Validate.
func (c *Config) ValidateServe() error {
	if c.GeminiKey == "" && c.ChatKey == "" && c.LegacyKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required to run the proxy")
	}
	return nil
}

func checkHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", name, raw)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
