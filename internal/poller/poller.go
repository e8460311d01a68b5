package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/sessionlink/internal/metrics"
)

// Poll results recorded in metrics.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Fetcher lists the ids of sessions currently waiting for input.
type Fetcher interface {
	WaitingSessionIDs(ctx context.Context) ([]string, error)
}

// SnapshotHandler receives fetched snapshots and returns the ids it notified.
type SnapshotHandler interface {
	HandleSnapshot(ctx context.Context, waitingIDs []string) []string
}

// SnapshotHandlerFunc is a function adapter for SnapshotHandler.
type SnapshotHandlerFunc func(ctx context.Context, waitingIDs []string) []string

func (f SnapshotHandlerFunc) HandleSnapshot(ctx context.Context, waitingIDs []string) []string {
	return f(ctx, waitingIDs)
}

// Config holds poller configuration.
type Config struct {
	Interval time.Duration // Poll interval (default: 15s)
	Timeout  time.Duration // Per-request timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 15 * time.Second,
		Timeout:  10 * time.Second,
	}
}

// Poller periodically fetches waiting-session snapshots via the REST API.
type Poller struct {
	cfg     Config
	fetcher Fetcher
	handler SnapshotHandler
	logger  *slog.Logger
	metrics *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller. m may be nil.
func New(cfg Config, fetcher Fetcher, handler SnapshotHandler, m *metrics.Metrics, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Poller{
		cfg:     cfg,
		fetcher: fetcher,
		handler: handler,
		logger:  logger,
		metrics: m,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("snapshot poller started", "interval", p.cfg.Interval)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("snapshot poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.poll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

// poll fetches one snapshot and hands it to the handler. A failed fetch
// leaves the handler's previous snapshot untouched.
func (p *Poller) poll() {
	start := time.Now()

	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	ids, err := p.fetcher.WaitingSessionIDs(ctx)
	if err != nil {
		if p.ctx.Err() != nil {
			return
		}
		p.logger.Warn("failed to fetch waiting sessions", "err", err)
		p.metrics.IncSnapshotPoll(ResultError)
		return
	}
	p.metrics.IncSnapshotPoll(ResultOK)

	var notified []string
	if p.handler != nil {
		notified = p.handler.HandleSnapshot(p.ctx, ids)
	}

	p.logger.Debug("poll cycle complete",
		"waiting", len(ids),
		"notified", len(notified),
		"duration", time.Since(start),
	)
}
