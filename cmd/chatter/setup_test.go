package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/chatter"
	"github.com/fwojciec/chatter/anthropic"
	"github.com/fwojciec/chatter/config"
	"github.com/fwojciec/chatter/endpoint"
	"github.com/fwojciec/chatter/gemini"
	"github.com/fwojciec/chatter/glamour"
	"github.com/fwojciec/chatter/goldmark"
	chatterjson "github.com/fwojciec/chatter/json"
	"github.com/fwojciec/chatter/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGateway_Endpoint(t *testing.T) {
	t.Parallel()
	cfg := config.Default().Gateway
	cfg.Endpoint.RateLimit = 2

	gw, err := newGateway(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &endpoint.Client{}, gw)
}

func TestNewGateway_Gemini(t *testing.T) {
	t.Parallel()
	cfg := config.Default().Gateway
	cfg.Kind = config.GatewayGemini
	cfg.Gemini.APIKey = "gk-test"
	cfg.SystemPrompt = "Be brief."

	gw, err := newGateway(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &gemini.Client{}, gw)
}

func TestNewGateway_Anthropic(t *testing.T) {
	t.Parallel()
	cfg := config.Default().Gateway
	cfg.Kind = config.GatewayAnthropic
	cfg.Anthropic.APIKey = "sk-test"

	gw, err := newGateway(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &anthropic.Client{}, gw)
}

func TestNewGateway_Unknown(t *testing.T) {
	t.Parallel()
	cfg := config.Default().Gateway
	cfg.Kind = "carrier-pigeon"

	_, err := newGateway(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown gateway")
}

func TestNewPersister(t *testing.T) {
	t.Parallel()

	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		p, closeFn, err := newPersister(config.StorageConfig{Kind: config.StorageMemory})
		require.NoError(t, err)
		defer closeFn()
		assert.Nil(t, p)
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "sessions.json")
		p, closeFn, err := newPersister(config.StorageConfig{Kind: config.StorageJSON, Path: path})
		require.NoError(t, err)
		defer closeFn()
		assert.Equal(t, &chatterjson.File{Path: path}, p)
	})

	t.Run("sqlite", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "chatter.db")
		p, closeFn, err := newPersister(config.StorageConfig{Kind: config.StorageSQLite, Path: path})
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &sqlite.Store{}, p)

		store := chatter.NewStore(chatter.WithPersister(p))
		require.NoError(t, store.Flush())
		_, err = os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		_, _, err := newPersister(config.StorageConfig{Kind: "s3"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown storage")
	})
}

func TestNewRenderer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.UIConfig
		want any
	}{
		{name: "goldmark", cfg: config.UIConfig{Renderer: config.RendererGoldmark}, want: goldmark.ANSI{}},
		{name: "glamour", cfg: config.UIConfig{Renderer: config.RendererGlamour, GlamourStyle: "notty"}, want: &glamour.Renderer{}},
		{name: "plain", cfg: config.UIConfig{Renderer: config.RendererPlain}, want: chatter.PlainText{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, err := newRenderer(tt.cfg)
			require.NoError(t, err)
			assert.IsType(t, tt.want, r)
			assert.Contains(t, r.Render("**hello**"), "hello")
		})
	}

	_, err := newRenderer(config.UIConfig{Renderer: "html"})
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("file in terminal mode", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "logs", "chatter.log")
		logger, closeFn, err := newLogger(config.LogConfig{Path: path, Level: "info"}, false)
		require.NoError(t, err)

		logger.Info("hello", "k", "v")
		closeFn()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"hello"`)
		assert.Contains(t, string(data), `"k":"v"`)
	})

	t.Run("no path discards", func(t *testing.T) {
		t.Parallel()
		logger, closeFn, err := newLogger(config.LogConfig{Level: "info"}, false)
		require.NoError(t, err)
		defer closeFn()
		assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
