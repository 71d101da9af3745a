package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/chatter"
	"github.com/fwojciec/chatter/anthropic"
	"github.com/fwojciec/chatter/config"
	"github.com/fwojciec/chatter/endpoint"
	"github.com/fwojciec/chatter/gemini"
	"github.com/fwojciec/chatter/glamour"
	"github.com/fwojciec/chatter/goldmark"
	chatterjson "github.com/fwojciec/chatter/json"
	"github.com/fwojciec/chatter/sqlite"
	"golang.org/x/time/rate"
)

// rendererWidth is the wrap width handed to terminal renderers. Bubbles
// re-wrap to their own width, so it only needs to be a sensible upper bound.
const rendererWidth = 72

// newGateway constructs the responder client named by cfg.Kind.
func newGateway(ctx context.Context, cfg config.GatewayConfig) (chatter.Gateway, error) {
	switch cfg.Kind {
	case config.GatewayEndpoint:
		opts := []endpoint.Option{endpoint.WithUserField(cfg.Endpoint.UserField)}
		if cfg.Endpoint.RateLimit > 0 {
			opts = append(opts, endpoint.WithRateLimit(rate.Limit(cfg.Endpoint.RateLimit), cfg.Endpoint.Burst))
		}
		return endpoint.New(cfg.Endpoint.URL, opts...), nil
	case config.GatewayGemini:
		opts := []gemini.Option{gemini.WithModel(cfg.Gemini.Model)}
		if cfg.SystemPrompt != "" {
			opts = append(opts, gemini.WithSystemPrompt(cfg.SystemPrompt))
		}
		client, err := gemini.New(ctx, cfg.Gemini.APIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		return client, nil
	case config.GatewayAnthropic:
		return anthropic.New(cfg.Anthropic.APIKey,
			anthropic.WithModel(cfg.Anthropic.Model),
			anthropic.WithMaxTokens(cfg.Anthropic.MaxTokens),
			anthropic.WithSystemPrompt(cfg.SystemPrompt),
		), nil
	default:
		return nil, fmt.Errorf("unknown gateway %q: must be \"endpoint\", \"gemini\" or \"anthropic\"", cfg.Kind)
	}
}

// newPersister opens the storage named by cfg.Kind. The returned func
// releases it and is never nil. Memory storage returns a nil Persister.
func newPersister(cfg config.StorageConfig) (chatter.Persister, func(), error) {
	switch cfg.Kind {
	case config.StorageMemory:
		return nil, func() {}, nil
	case config.StorageJSON, config.StorageSQLite:
	default:
		return nil, nil, fmt.Errorf("unknown storage %q: must be \"json\", \"sqlite\" or \"memory\"", cfg.Kind)
	}

	path, err := config.ExpandPath(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Kind == config.StorageJSON {
		return &chatterjson.File{Path: path}, func() {}, nil
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = db.Close() }, nil
}

// newRenderer constructs the terminal renderer named by cfg.Renderer.
func newRenderer(cfg config.UIConfig) (chatter.Renderer, error) {
	switch cfg.Renderer {
	case config.RendererGoldmark:
		return goldmark.ANSI{Width: rendererWidth, Theme: chatter.DefaultTheme()}, nil
	case config.RendererGlamour:
		return glamour.New(rendererWidth, cfg.GlamourStyle)
	case config.RendererPlain:
		return chatter.PlainText{}, nil
	default:
		return nil, fmt.Errorf("unknown renderer %q: must be \"goldmark\", \"glamour\" or \"plain\"", cfg.Renderer)
	}
}
