// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/naka-gawa/github-stats-exporter/internal/domain"
	"github.com/naka-gawa/github-stats-exporter/internal/gateway"
)

// Gauge is the write side of an exported metric.
type Gauge interface {
	Set(float64)
}

// Observer is notified of the outcome of every poll cycle.
type Observer interface {
	ObserveSuccess(stats *domain.RepositoryStats, took time.Duration)
	ObserveFailure(err error, took time.Duration)
}

// PollerConfig configures a Poller. Fetcher, both gauges and Logger are required.
type PollerConfig struct {
	Fetcher    gateway.Fetcher
	OpenIssues Gauge
	Stargazers Gauge
	Observer   Observer
	Interval   time.Duration
	Logger     *log.Logger
}

// Poller drives the fetcher on a fixed interval and forwards the results into the gauges.
// Cycles never overlap: the wait for the next cycle starts once the previous fetch returned.
type Poller struct {
	fetcher    gateway.Fetcher
	openIssues Gauge
	stargazers Gauge
	observer   Observer
	interval   time.Duration
	logger     *log.Logger
}

// NewPoller creates a new Poller instance.
func NewPoller(cfg PollerConfig) (*Poller, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("fetcher must not be nil")
	}
	if cfg.OpenIssues == nil || cfg.Stargazers == nil {
		return nil, errors.New("gauges must not be nil")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger must not be nil")
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Poller{
		fetcher:    cfg.Fetcher,
		openIssues: cfg.OpenIssues,
		stargazers: cfg.Stargazers,
		observer:   observer,
		interval:   cfg.Interval,
		logger:     cfg.Logger,
	}, nil
}

// Run polls immediately and then once per interval until ctx is cancelled.
// Fetch failures are logged and never end the loop.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("starting poller", "interval", p.interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("stopping poller")
			return nil
		case <-timer.C:
		}

		p.Poll(ctx)
		if ctx.Err() != nil {
			p.logger.Info("stopping poller")
			return nil
		}
		timer.Reset(p.interval)
	}
}

// Poll runs a single fetch cycle.
// On success both gauges are overwritten; on failure they keep their last values.
func (p *Poller) Poll(ctx context.Context) {
	start := time.Now()
	stats, err := p.fetcher.Fetch(ctx)
	took := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			p.logger.Debug("fetch interrupted by shutdown", "err", err)
			return
		}
		p.logger.Error("failed to fetch stats", "kind", gateway.Kind(err), "err", err)
		p.observer.ObserveFailure(err, took)
		return
	}

	p.openIssues.Set(float64(stats.OpenIssuesCount))
	p.stargazers.Set(float64(stats.StargazersCount))
	p.observer.ObserveSuccess(stats, took)
}

type nopObserver struct{}

func (nopObserver) ObserveSuccess(*domain.RepositoryStats, time.Duration) {}
func (nopObserver) ObserveFailure(error, time.Duration)                   {}
