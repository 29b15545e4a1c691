package app

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ConnectivityState is the last known reachability of the backend.
type ConnectivityState int32

const (
	Available ConnectivityState = iota
	Unavailable
)

func (s ConnectivityState) String() string {
	if s == Available {
		return "available"
	}
	return "unavailable"
}

// Prober checks whether the backend answers at all.
type Prober interface {
	Probe(ctx context.Context) error
}

// ConnectivityService owns backend availability. Marking the backend
// unavailable schedules rechecks with exponential backoff until a probe
// succeeds; Run must be running for rechecks to happen.
type ConnectivityService struct {
	prober       Prober
	interval     time.Duration
	maxInterval  time.Duration
	probeTimeout time.Duration
	logger       *slog.Logger

	state atomic.Int32
	wake  chan struct{}
}

// ConnectivityConfig tunes recheck timing.
type ConnectivityConfig struct {
	RecheckInterval    time.Duration
	MaxRecheckInterval time.Duration
	ProbeTimeout       time.Duration
	Logger             *slog.Logger
}

func NewConnectivityService(prober Prober, cfg ConnectivityConfig) *ConnectivityService {
	if cfg.RecheckInterval <= 0 {
		cfg.RecheckInterval = 30 * time.Second
	}
	if cfg.MaxRecheckInterval < cfg.RecheckInterval {
		cfg.MaxRecheckInterval = 10 * cfg.RecheckInterval
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 3 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ConnectivityService{
		prober:       prober,
		interval:     cfg.RecheckInterval,
		maxInterval:  cfg.MaxRecheckInterval,
		probeTimeout: cfg.ProbeTimeout,
		logger:       cfg.Logger,
		wake:         make(chan struct{}, 1),
	}
}

// State reports the current connectivity state.
func (c *ConnectivityService) State() ConnectivityState {
	return ConnectivityState(c.state.Load())
}

// Available reports whether remote calls should be attempted.
func (c *ConnectivityService) Available() bool {
	return c.State() == Available
}

// MarkUnavailable flips the state and schedules a recheck.
func (c *ConnectivityService) MarkUnavailable() {
	if !c.state.CompareAndSwap(int32(Available), int32(Unavailable)) {
		return
	}
	c.logger.Warn("backend marked unavailable", "recheck_in", c.interval)
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// MarkAvailable flips the state back to available.
func (c *ConnectivityService) MarkAvailable() {
	if c.state.CompareAndSwap(int32(Unavailable), int32(Available)) {
		c.logger.Info("backend reachable again")
	}
}

// Run blocks, rechecking the backend whenever it is marked unavailable, until ctx ends.
func (c *ConnectivityService) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.wake:
			c.recheck(ctx)
		}
	}
}

// CheckNow probes once and updates the state.
func (c *ConnectivityService) CheckNow(ctx context.Context) ConnectivityState {
	if err := c.probe(ctx); err != nil {
		c.logger.Debug("backend probe failed", "error", err)
		c.MarkUnavailable()
	} else {
		c.MarkAvailable()
	}
	return c.State()
}

func (c *ConnectivityService) recheck(ctx context.Context) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.interval
	b.MaxInterval = c.maxInterval
	b.MaxElapsedTime = 0
	b.Reset()

	for c.State() == Unavailable {
		timer := time.NewTimer(b.NextBackOff())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if err := c.probe(ctx); err != nil {
			c.logger.Debug("backend probe failed", "error", err)
			continue
		}
		c.MarkAvailable()
	}
}

func (c *ConnectivityService) probe(ctx context.Context) error {
	if c.prober == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()
	return c.prober.Probe(ctx)
}
