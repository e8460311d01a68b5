package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/sessionlink/internal/alert"
	"github.com/rickgao/sessionlink/internal/api"
	"github.com/rickgao/sessionlink/internal/config"
	"github.com/rickgao/sessionlink/internal/connection"
	"github.com/rickgao/sessionlink/internal/dedup"
	"github.com/rickgao/sessionlink/internal/metrics"
	"github.com/rickgao/sessionlink/internal/notify"
	"github.com/rickgao/sessionlink/internal/poller"
	"github.com/rickgao/sessionlink/internal/store"
)

const shutdownTimeout = 10 * time.Second

func watchCmd(flags *globalFlags) *cobra.Command {
	var noPoll bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Alert when a session starts waiting for input",
		Long: `Run the waiting-session notifier.

Status updates arrive over the shared realtime connection. While it is down,
the REST snapshot poller takes over. Each session alerts at most once per
waiting period, across restarts.

Examples:
  sessionlink watch
  sessionlink watch --config ~/.config/sessionlink.yaml
  sessionlink watch --no-poll`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(flags)
			if err != nil {
				return err
			}
			defer env.close()
			return runWatch(env, !noPoll)
		},
	}

	cmd.Flags().BoolVar(&noPoll, "no-poll", false, "disable the REST snapshot fallback")

	return cmd
}

func runWatch(env *environment, poll bool) error {
	cfg, logger := env.cfg, env.logger

	ctx, cancel := signalContext(logger)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	logger.Info("opening dedup store", "driver", cfg.Store.Driver)
	kv, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer kv.Close()

	records := dedup.New(kv, cfg.Notifications.TTL, logger.With("component", "dedup"))
	notifier := notify.New(records, logger.With("component", "notifier"), notifierOptions(cfg, m)...)

	mgr, unbind := env.newManager(m)
	defer unbind()

	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("start connection manager: %w", err)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stopCancel()
		mgr.Stop(stopCtx)
	}()

	detach := notifier.Attach(mgr)
	defer detach()

	if poll {
		client := api.NewClient(cfg.Server.APIURL, env.tokens,
			api.WithLogger(logger.With("component", "api")),
			api.WithTimeout(cfg.Poller.Timeout),
			api.WithRetries(cfg.Poller.MaxRetries, time.Second),
		)
		p := poller.New(poller.Config{
			Interval: cfg.Poller.Interval,
			Timeout:  cfg.Poller.Timeout,
		}, client, notifier, m, logger.With("component", "poller"))

		if err := p.Start(ctx); err != nil {
			return fmt.Errorf("start poller: %w", err)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()
			p.Stop(stopCtx)
		}()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return notifier.Run(gctx)
	})

	if cfg.Metrics.Enabled {
		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:           newHTTPHandler(cfg.Metrics.Path, reg, mgr, notifier),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info("starting metrics server",
				"port", cfg.Metrics.Port,
				"path", cfg.Metrics.Path,
			)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	logger.Info("sessionlink watching",
		"ws_url", cfg.Server.WSURL,
		"poll", poll,
		"store", cfg.Store.Driver,
	)

	err = g.Wait()

	logger.Info("shutting down...")
	return err
}

func notifierOptions(cfg *config.Config, m *metrics.Metrics) []notify.Option {
	var alerters []alert.Alerter
	if cfg.Notifications.SoundEnabled() {
		alerters = append(alerters, alert.NewBell(os.Stderr))
	}
	if cfg.Notifications.DesktopEnabled() {
		alerters = append(alerters, alert.NewDesktop())
	}

	opts := []notify.Option{
		notify.WithAlerters(alerters...),
		notify.WithMetrics(m),
	}
	if cfg.Notifications.TitleEnabled() {
		opts = append(opts, notify.WithTitle(alert.NewTitle(os.Stderr, "sessionlink")))
	}
	return opts
}

// newHTTPHandler serves Prometheus metrics and a JSON health summary.
func newHTTPHandler(metricsPath string, reg *prometheus.Registry, mgr connection.Manager, n *notify.Notifier) http.Handler {
	mux := http.NewServeMux()

	mux.Handle(metricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		stats := mgr.Stats()
		state := mgr.State()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		conn := map[string]any{
			"connected":          stats.Connected,
			"connecting":         stats.Connecting,
			"subscribers":        stats.Subscribers,
			"reconnect_attempts": stats.ReconnectAttempts,
			"reconnect_pending":  stats.ReconnectPending,
		}
		if state.Error != "" {
			conn["error"] = state.Error
		}
		health.Components["realtime"] = conn
		health.Components["notifier"] = map[string]any{
			"waiting": n.Waiting(),
		}

		if !stats.Connected {
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(health); err != nil {
			slog.Debug("failed to write health response", "error", err)
		}
	})

	return mux
}
