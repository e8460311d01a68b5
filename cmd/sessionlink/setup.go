package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rickgao/sessionlink/internal/auth"
	"github.com/rickgao/sessionlink/internal/config"
	"github.com/rickgao/sessionlink/internal/connection"
	"github.com/rickgao/sessionlink/internal/logging"
	"github.com/rickgao/sessionlink/internal/metrics"
	"github.com/rickgao/sessionlink/internal/version"
)

// environment is the shared setup every subcommand starts from.
type environment struct {
	cfg    *config.Config
	logger *slog.Logger
	tokens auth.Source
	close  func()
}

func setup(flags *globalFlags) (*environment, error) {
	cfg, err := config.LoadAndValidate(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.token != "" {
		cfg.Auth.Token = flags.token
		cfg.Auth.TokenFile = ""
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	slog.SetDefault(logger)

	logger.Debug("configuration loaded",
		"version", version.Version,
		"commit", version.Commit,
		"config", flags.configPath,
		"ws_url", cfg.Server.WSURL,
	)

	env := &environment{cfg: cfg, logger: logger, close: func() {}}

	if cfg.Auth.TokenFile != "" {
		fs, err := auth.OpenFile(cfg.Auth.TokenFile, logger.With("component", "auth"))
		if err != nil {
			return nil, fmt.Errorf("open token file: %w", err)
		}
		env.tokens = fs
		env.close = func() { fs.Close() }
	} else {
		env.tokens = auth.NewStatic(cfg.Auth.Token)
	}

	return env, nil
}

// newManager builds a connection manager from config. The returned cancel
// stops token rebinding.
func (e *environment) newManager(m *metrics.Metrics) (connection.Manager, func()) {
	c := e.cfg.Connection
	mgr := connection.NewManager(connection.ManagerConfig{
		URL:                  e.cfg.Server.WSURL,
		ReconnectInterval:    c.ReconnectInterval,
		MaxReconnectAttempts: c.MaxReconnectAttempts,
		MaxBackoff:           c.MaxBackoff,
		Client: connection.ClientConfig{
			HandshakeTimeout: c.HandshakeTimeout,
			WriteTimeout:     c.WriteTimeout,
			PingInterval:     c.PingInterval,
			PingTimeout:      c.PingTimeout,
			ReadLimit:        c.ReadLimit,
		},
	},
		e.logger.With("component", "connection"),
		connection.WithToken(e.tokens.Token()),
		connection.WithMetrics(m),
	)
	return mgr, auth.Bind(e.tokens, mgr)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
