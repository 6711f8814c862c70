// Package sampler drives the periodic metrics loop: one goroutine
// queries the probes on a fixed cadence, assembles an immutable
// snapshot, stores it in the latest-slot, and hands it to every
// registered consumer callback.
package sampler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mlrig/hwmon/internal/domain"
	"github.com/mlrig/hwmon/internal/probe"
)

// Sampler owns the running totals (they live inside the probes, which
// are only ever touched from the sampling goroutine) and the
// latest-snapshot slot. It is the single writer of both.
type Sampler struct {
	interval time.Duration
	probes   []probe.Probe
	logger   *slog.Logger

	consumers []func(domain.Snapshot)

	resetRequested atomic.Bool

	mu       sync.RWMutex
	latest   domain.Snapshot
	haveSnap bool

	// warned tracks probes already reported unavailable so a missing
	// GPU driver does not log every second.
	warned map[string]bool
}

func New(interval time.Duration, probes []probe.Probe, logger *slog.Logger) *Sampler {
	return &Sampler{
		interval: interval,
		probes:   probes,
		logger:   logger,
		warned:   make(map[string]bool),
	}
}

// Notify registers a consumer invoked with every published snapshot.
// Must be called before Run; callbacks run on the sampling goroutine
// and must not block (the hub's Publish is non-blocking by design).
func (s *Sampler) Notify(fn func(domain.Snapshot)) {
	s.consumers = append(s.consumers, fn)
}

// Latest returns a copy of the most recent snapshot. The second return
// is false until the first sample completes.
func (s *Sampler) Latest() (domain.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.haveSnap
}

// ResetTotals asks the sampling goroutine to clear running totals
// before its next sample. Totals are only mutated from that goroutine,
// so the reset is deferred rather than applied here.
func (s *Sampler) ResetTotals() {
	s.resetRequested.Store(true)
}

// Sample performs one synchronous collection pass. A failing probe
// leaves its section absent; the snapshot is still returned. Exported
// for one-shot use (JSON dump) and tests; Run is the periodic driver.
func (s *Sampler) Sample(ctx context.Context) domain.Snapshot {
	if s.resetRequested.Swap(false) {
		for _, p := range s.probes {
			if r, ok := p.(probe.Resettable); ok {
				r.ResetTotals()
			}
		}
		s.logger.Info("running totals reset")
	}

	snap := domain.Snapshot{
		Timestamp: time.Now(),
		Interval:  s.interval,
	}
	for _, p := range s.probes {
		if err := p.Collect(ctx, &snap); err != nil {
			if errors.Is(err, domain.ErrUnavailable) {
				if !s.warned[p.Name()] {
					s.warned[p.Name()] = true
					s.logger.Info("metric source unavailable, section will be absent",
						"probe", p.Name())
				}
				continue
			}
			s.logger.Warn("probe failed, section absent this tick",
				"probe", p.Name(), "err", err)
		}
	}
	return snap
}

// Run samples on the configured cadence until ctx is cancelled. Only
// one sample is ever in flight: the loop goroutine runs samples
// synchronously, and a tick arriving less than one interval after the
// previous sample started (possible after a slow sample, because the
// ticker buffers one tick) is skipped rather than overlapped.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var lastStart time.Time
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sampler stopped")
			return
		case <-ticker.C:
			now := time.Now()
			if !lastStart.IsZero() && now.Sub(lastStart) < s.interval {
				s.logger.Debug("tick skipped, previous sample too recent")
				continue
			}
			lastStart = now
			s.publish(s.Sample(ctx))
		}
	}
}

func (s *Sampler) publish(snap domain.Snapshot) {
	s.mu.Lock()
	s.latest = snap
	s.haveSnap = true
	s.mu.Unlock()

	for _, fn := range s.consumers {
		fn(snap)
	}
}
