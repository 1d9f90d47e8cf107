package scheduler

import (
	"context"
	"sync"
	"time"

	bidding "auction-escrow/internal/biddingService"
	"auction-escrow/internal/clock"
	"auction-escrow/utils"
)

// Closer is the part of the bidding service the sweeper drives
type Closer interface {
	DueAuctions(ctx context.Context) ([]string, error)
	CloseIfDue(ctx context.Context, auctionID string) (bidding.CloseResult, error)
}

// Config controls the sweep cadence and retry backoff
type Config struct {
	Interval time.Duration
	// MaxRetries is the number of consecutive failures after which an auction is reported as stuck.
	// Stuck auctions are still retried at MaxDelay.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultConfig sweeps every second and backs off from 1s to 60s
func DefaultConfig() Config {
	return Config{
		Interval:   time.Second,
		MaxRetries: 5,
		BaseDelay:  time.Second,
		MaxDelay:   60 * time.Second,
	}
}

type retryState struct {
	failures int
	next     time.Time
}

// Report summarizes one sweep
type Report struct {
	Due     int
	Closed  int
	Failed  int
	Skipped int // waiting for their backoff to expire
}

// Sweeper closes auctions whose end time has passed. Failed closes are
// retried on later sweeps with exponential backoff per auction.
type Sweeper struct {
	closer Closer
	clock  clock.Clock
	cfg    Config

	mu      sync.Mutex
	retries map[string]retryState
}

// NewSweeper creates a sweeper; zero config fields fall back to DefaultConfig
func NewSweeper(closer Closer, clk clock.Clock, cfg Config) *Sweeper {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = def.MaxDelay
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Sweeper{
		closer:  closer,
		clock:   clk,
		cfg:     cfg,
		retries: make(map[string]retryState),
	}
}

// Run sweeps on every tick until ctx is cancelled
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	utils.Info("close sweeper started", map[string]any{"interval": s.cfg.Interval.String()})
	for {
		select {
		case <-ctx.Done():
			utils.Info("close sweeper stopped", nil)
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass over the due auctions
func (s *Sweeper) Sweep(ctx context.Context) Report {
	var report Report

	ids, err := s.closer.DueAuctions(ctx)
	if err != nil {
		utils.Error("sweeper: failed to list due auctions", map[string]any{"error": err.Error()})
		return report
	}
	report.Due = len(ids)

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		if !s.ready(id) {
			report.Skipped++
			continue
		}

		res, err := s.closer.CloseIfDue(ctx, id)
		if err != nil {
			s.failed(id, err)
			report.Failed++
			continue
		}
		s.succeeded(id)
		if res.Closed {
			report.Closed++
		}
	}

	if report.Due > 0 {
		utils.Debug("sweep finished", map[string]any{
			"due":     report.Due,
			"closed":  report.Closed,
			"failed":  report.Failed,
			"skipped": report.Skipped,
		})
	}
	return report
}

// Pending returns the auctions currently backing off
func (s *Sweeper) Pending() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.retries))
	for id, st := range s.retries {
		out[id] = st.failures
	}
	return out
}

func (s *Sweeper) ready(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.retries[id]
	return !ok || !s.clock.Now().Before(st.next)
}

func (s *Sweeper) failed(id string, err error) {
	s.mu.Lock()
	st := s.retries[id]
	delay := Backoff(st.failures, s.cfg.BaseDelay, s.cfg.MaxDelay)
	st.failures++
	st.next = s.clock.Now().Add(delay)
	s.retries[id] = st
	s.mu.Unlock()

	fields := map[string]any{
		"auction_id": id,
		"attempt":    st.failures,
		"retry_in":   delay.String(),
		"error":      err.Error(),
	}
	if st.failures >= s.cfg.MaxRetries {
		utils.Error("sweeper: auction close keeps failing", fields)
		return
	}
	utils.Warn("sweeper: auction close failed", fields)
}

func (s *Sweeper) succeeded(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.retries, id)
}
