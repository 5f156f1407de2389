// Package monitor drives the periodic alert evaluation loop: on each tick
// every subscriber's latest reading is fetched, run through the alert state
// machine, and a notification is sent exactly on below→above edges.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aqiwatch/config"
	"aqiwatch/lib/models"
	"aqiwatch/lib/store"
	"aqiwatch/senders"
)

// ReadingSource yields the latest value for a channel/field pair.
type ReadingSource interface {
	LatestReading(ctx context.Context, channelID string, fieldNum int) (models.Reading, error)
}

type Monitor struct {
	log     *zap.Logger
	store   store.Subscribers
	source  ReadingSource
	senders senders.Registry

	// mu serializes ticks; a tick that finds the previous one still
	// running is skipped rather than queued.
	mu     sync.Mutex
	cancel context.CancelFunc
	ticker *time.Ticker

	pollInterval time.Duration
	fetchTimeout time.Duration
	concurrency  int
}

func NewMonitor(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, subs store.Subscribers, source ReadingSource, senders senders.Registry) *Monitor {
	monitor := &Monitor{
		log:          log,
		store:        subs,
		source:       source,
		senders:      senders,
		pollInterval: cfg.PollInterval(),
		fetchTimeout: cfg.FetchTimeout(),
		concurrency:  cfg.PollConcurrency,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			monitor.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Sugar().Info("Trying to stop monitor")
			monitor.Stop()
			return nil
		},
	})

	return monitor
}

func (m *Monitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.ticker = time.NewTicker(m.pollInterval)

	go func() {
		m.Tick(ctx)

		for {
			select {
			case <-m.ticker.C:
				m.Tick(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	m.log.Sugar().Infow("Monitor started", "poll_interval", m.pollInterval)
}

func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.ticker != nil {
		m.ticker.Stop()
	}
	m.log.Sugar().Info("Monitor stopped")
}

// Tick evaluates every subscriber once. Per-subscriber failures are logged
// and contained; they never abort the rest of the tick.
func (m *Monitor) Tick(ctx context.Context) {
	if !m.mu.TryLock() {
		m.log.Sugar().Info("Previous tick still running, skipping this tick")
		ticksTotal.WithLabelValues("skipped").Inc()
		return
	}
	defer m.mu.Unlock()

	started := time.Now().UTC()
	log := m.log.Sugar().With("tick_id", uuid.NewString())

	subs, err := m.store.FindAll(ctx)
	if err != nil {
		log.Errorw("Failed to load subscribers", "err", err)
		ticksTotal.WithLabelValues("errored").Inc()
		return
	}

	tally := &tickTally{}
	grp := new(errgroup.Group)
	grp.SetLimit(m.concurrency)
	for _, sub := range subs {
		sub := sub
		grp.Go(func() error {
			m.evaluate(ctx, log, sub, tally)
			return nil
		})
	}
	grp.Wait()

	ticksTotal.WithLabelValues("completed").Inc()

	elapsed := time.Now().UTC().Sub(started)
	log.Infow(
		"Tick completed",
		append(tally.logArgs(), "subscribers", len(subs), "elapsed_msecs", int(elapsed.Milliseconds()))...,
	)
}
