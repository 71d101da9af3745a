// Command chatter is a multi-session chat client for a remote responder.
//
// Usage:
//
//	chatter [flags]
//
// Flags:
//
//	-config string   Path to config file (default: ~/.chatter/config.toml)
//	-serve           Serve the HTTP API instead of the terminal UI
//	-addr string     Listen address in serve mode (overrides config)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fwojciec/chatter"
	bt "github.com/fwojciec/chatter/bubbletea"
	"github.com/fwojciec/chatter/chi"
	"github.com/fwojciec/chatter/config"
	"github.com/fwojciec/chatter/goldmark"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatter: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "Path to config file (default: ~/.chatter/config.toml)")
		serve      = flag.Bool("serve", false, "Serve the HTTP API instead of the terminal UI")
		addr       = flag.String("addr", "", "Listen address in serve mode (overrides config)")
	)
	flag.Parse()

	path := *configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger, closeLog, err := newLogger(cfg.Log, *serve)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	persister, closeStorage, err := newPersister(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStorage()

	store := chatter.NewStore(
		chatter.WithPersister(persister),
		chatter.WithLogger(logger),
		chatter.WithDefaultTitle(cfg.Chat.DefaultTitle),
		chatter.WithGreeting(cfg.Chat.Greeting),
	)
	defer func() {
		if err := store.Flush(); err != nil {
			logger.Error("final save failed", "error", err)
		}
	}()

	gw, err := newGateway(ctx, cfg.Gateway)
	if err != nil {
		return err
	}

	ctrlOpts := []chatter.ControllerOption{
		chatter.WithFallback(cfg.Chat.Fallback),
		chatter.WithTimeout(cfg.Gateway.Timeout),
		chatter.WithUser(cfg.Chat.User),
		chatter.WithAutoTitle(cfg.Chat.AutoTitle),
		chatter.WithControllerLogger(logger),
	}
	if cfg.UI.Bell && !*serve {
		ctrlOpts = append(ctrlOpts, chatter.WithSoundPlayer(bt.Bell{W: os.Stdout}))
	}
	ctrl := chatter.NewController(store, gw, ctrlOpts...)
	defer ctrl.Close()

	logger.Info("starting", "gateway", cfg.Gateway.Kind, "storage", cfg.Storage.Kind, "serve", *serve)

	if *serve {
		return serveHTTP(ctx, cfg.Server.Addr, store, ctrl, logger)
	}

	renderer, err := newRenderer(cfg.UI)
	if err != nil {
		return err
	}
	m := bt.New(store, ctrl,
		bt.WithRenderer(renderer),
		bt.WithTheme(chatter.DefaultTheme()),
		bt.WithFallbackText(cfg.Chat.Fallback),
	)
	if err := bt.Run(ctx, m); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}

func serveHTTP(ctx context.Context, addr string, store *chatter.Store, ctrl *chatter.Controller, logger *slog.Logger) error {
	srv := &http.Server{
		Addr: addr,
		Handler: chi.NewServer(store, ctrl,
			chi.WithRenderer(goldmark.HTML{}),
			chi.WithLogger(logger),
		),
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: the event stream is long-lived.
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newLogger builds a JSON logger. In serve mode it writes to stderr;
// otherwise to the configured file, or nowhere when no path is set.
func newLogger(cfg config.LogConfig, serve bool) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if serve {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), func() {}, nil
	}
	if cfg.Path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	path, err := config.ExpandPath(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewJSONHandler(f, opts)), func() { _ = f.Close() }, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
