// Package config loads chatter settings from a TOML file, a .env file and
// CHATTER_* environment variables, in that order of increasing precedence.
//
// Example config.toml:
//
//	[gateway]
//	kind = "endpoint"
//	timeout = "60s"
//
//	[gateway.endpoint]
//	url = "http://localhost:8000/chat"
//
//	[storage]
//	kind = "sqlite"
//	path = "~/.chatter/chatter.db"
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fwojciec/chatter"
	"github.com/joho/godotenv"
)

// Gateway kinds.
const (
	GatewayEndpoint  = "endpoint"
	GatewayGemini    = "gemini"
	GatewayAnthropic = "anthropic"
)

// Storage kinds.
const (
	StorageJSON   = "json"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Renderer kinds.
const (
	RendererGoldmark = "goldmark"
	RendererGlamour  = "glamour"
	RendererPlain    = "plain"
)

// Config is the full application configuration.
type Config struct {
	Gateway GatewayConfig `toml:"gateway"`
	Chat    ChatConfig    `toml:"chat"`
	Storage StorageConfig `toml:"storage"`
	UI      UIConfig      `toml:"ui"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
}

// GatewayConfig selects and configures the responder service.
type GatewayConfig struct {
	Kind string `toml:"kind"`
	// Timeout bounds one request. Zero means no timeout.
	Timeout time.Duration `toml:"timeout"`
	// SystemPrompt is sent with every request to model-backed gateways.
	SystemPrompt string          `toml:"system_prompt"`
	Endpoint     EndpointConfig  `toml:"endpoint"`
	Gemini       GeminiConfig    `toml:"gemini"`
	Anthropic    AnthropicConfig `toml:"anthropic"`
}

// EndpointConfig configures the HTTP chat endpoint.
type EndpointConfig struct {
	URL       string `toml:"url"`
	UserField string `toml:"user_field"`
	// RateLimit is requests per second. Zero disables limiting.
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
}

// GeminiConfig configures the Gemini API gateway.
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// AnthropicConfig configures the Anthropic Messages API gateway.
type AnthropicConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
}

// ChatConfig holds conversation behavior.
type ChatConfig struct {
	User         string `toml:"user"`
	Fallback     string `toml:"fallback"`
	Greeting     string `toml:"greeting"`
	DefaultTitle string `toml:"default_title"`
	// AutoTitle is the length in characters of titles derived from the
	// first message. Zero disables it.
	AutoTitle int `toml:"auto_title"`
}

// StorageConfig selects where sessions are persisted.
type StorageConfig struct {
	Kind string `toml:"kind"`
	Path string `toml:"path"`
}

// UIConfig holds terminal UI settings.
type UIConfig struct {
	Renderer     string `toml:"renderer"`
	GlamourStyle string `toml:"glamour_style"`
	Bell         bool   `toml:"bell"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig holds logging settings. An empty Path logs to the default sink
// of the current mode.
type LogConfig struct {
	Path  string `toml:"path"`
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Kind:    GatewayEndpoint,
			Timeout: 60 * time.Second,
			Endpoint: EndpointConfig{
				URL:       "http://localhost:8000/chat",
				UserField: "user",
				Burst:     1,
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.5-flash",
			},
			Anthropic: AnthropicConfig{
				Model:     "claude-sonnet-4-20250514",
				MaxTokens: 1024,
			},
		},
		Chat: ChatConfig{
			Fallback:     chatter.DefaultFallback,
			DefaultTitle: chatter.DefaultTitle,
			AutoTitle:    30,
		},
		Storage: StorageConfig{
			Kind: StorageJSON,
			Path: "~/.chatter/sessions.json",
		},
		UI: UIConfig{
			Renderer:     RendererGoldmark,
			GlamourStyle: "auto",
			Bell:         true,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Path:  "~/.chatter/chatter.log",
			Level: "info",
		},
	}
}

// Load builds a Config from defaults, the TOML file at path and the
// environment. A missing file is not an error. Variables in a .env file in
// the working directory are loaded first without overriding the process
// environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultPath returns ~/.chatter/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory: %w", err)
	}
	return filepath.Join(home, ".chatter", "config.toml"), nil
}

// ApplyEnvOverrides sets fields from CHATTER_* variables that are present.
func (c *Config) ApplyEnvOverrides() error {
	strs := map[string]*string{
		"CHATTER_GATEWAY":           &c.Gateway.Kind,
		"CHATTER_SYSTEM_PROMPT":     &c.Gateway.SystemPrompt,
		"CHATTER_ENDPOINT_URL":      &c.Gateway.Endpoint.URL,
		"CHATTER_USER_FIELD":        &c.Gateway.Endpoint.UserField,
		"CHATTER_GEMINI_API_KEY":    &c.Gateway.Gemini.APIKey,
		"CHATTER_GEMINI_MODEL":      &c.Gateway.Gemini.Model,
		"CHATTER_ANTHROPIC_API_KEY": &c.Gateway.Anthropic.APIKey,
		"CHATTER_ANTHROPIC_MODEL":   &c.Gateway.Anthropic.Model,
		"CHATTER_USER":              &c.Chat.User,
		"CHATTER_FALLBACK":          &c.Chat.Fallback,
		"CHATTER_GREETING":          &c.Chat.Greeting,
		"CHATTER_STORAGE":           &c.Storage.Kind,
		"CHATTER_STORAGE_PATH":      &c.Storage.Path,
		"CHATTER_RENDERER":          &c.UI.Renderer,
		"CHATTER_ADDR":              &c.Server.Addr,
		"CHATTER_LOG_PATH":          &c.Log.Path,
		"CHATTER_LOG_LEVEL":         &c.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	// Fall back to the variables the vendors document.
	if c.Gateway.Gemini.APIKey == "" {
		c.Gateway.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Gateway.Anthropic.APIKey == "" {
		c.Gateway.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	if v, ok := os.LookupEnv("CHATTER_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("CHATTER_TIMEOUT: %w", err)
		}
		c.Gateway.Timeout = d
	}
	if v, ok := os.LookupEnv("CHATTER_RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("CHATTER_RATE_LIMIT: %w", err)
		}
		c.Gateway.Endpoint.RateLimit = f
	}
	if v, ok := os.LookupEnv("CHATTER_AUTO_TITLE"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("CHATTER_AUTO_TITLE: %w", err)
		}
		c.Chat.AutoTitle = n
	}
	return nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s: %s", field, fmt.Sprintf(format, args...)))
	}

	switch c.Gateway.Kind {
	case GatewayEndpoint:
		if c.Gateway.Endpoint.URL == "" {
			fail("gateway.endpoint.url", "must be set")
		}
		if c.Gateway.Endpoint.UserField == "" {
			fail("gateway.endpoint.user_field", "must be set")
		}
	case GatewayGemini:
		if c.Gateway.Gemini.APIKey == "" {
			fail("gateway.gemini.api_key", "must be set")
		}
	case GatewayAnthropic:
		if c.Gateway.Anthropic.APIKey == "" {
			fail("gateway.anthropic.api_key", "must be set")
		}
		if c.Gateway.Anthropic.MaxTokens < 1 {
			fail("gateway.anthropic.max_tokens", "must be at least 1")
		}
	default:
		fail("gateway.kind", "unknown kind %q, must be one of: endpoint, gemini, anthropic", c.Gateway.Kind)
	}
	if c.Gateway.Timeout < 0 {
		fail("gateway.timeout", "must not be negative")
	}
	if c.Gateway.Endpoint.RateLimit < 0 {
		fail("gateway.endpoint.rate_limit", "must not be negative")
	}
	if c.Gateway.Endpoint.RateLimit > 0 && c.Gateway.Endpoint.Burst < 1 {
		fail("gateway.endpoint.burst", "must be at least 1 when rate_limit is set")
	}

	if strings.TrimSpace(c.Chat.Fallback) == "" {
		fail("chat.fallback", "must not be blank")
	}
	if c.Chat.AutoTitle < 0 {
		fail("chat.auto_title", "must not be negative")
	}

	switch c.Storage.Kind {
	case StorageJSON, StorageSQLite:
		if c.Storage.Path == "" {
			fail("storage.path", "must be set for %s storage", c.Storage.Kind)
		}
	case StorageMemory:
	default:
		fail("storage.kind", "unknown kind %q, must be one of: json, sqlite, memory", c.Storage.Kind)
	}

	switch c.UI.Renderer {
	case RendererGoldmark, RendererGlamour, RendererPlain:
	default:
		fail("ui.renderer", "unknown renderer %q, must be one of: goldmark, glamour, plain", c.UI.Renderer)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		fail("log.level", "unknown level %q", c.Log.Level)
	}

	return errors.Join(errs...)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
