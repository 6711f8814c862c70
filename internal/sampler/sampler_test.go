package sampler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mlrig/hwmon/internal/domain"
	"github.com/mlrig/hwmon/internal/probe"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCPUProbe fills the CPU section with a fixed value.
type fakeCPUProbe struct {
	calls int
}

func (p *fakeCPUProbe) Name() string { return "cpu" }

func (p *fakeCPUProbe) Collect(_ context.Context, snap *domain.Snapshot) error {
	p.calls++
	snap.CPU = &domain.CPUStats{Overall: 42.5, LogicalCores: 8}
	return nil
}

// failingProbe always reports its source as unavailable.
type failingProbe struct {
	name string
	err  error
}

func (p *failingProbe) Name() string { return p.name }

func (p *failingProbe) Collect(context.Context, *domain.Snapshot) error {
	return domain.ErrProbe{Probe: p.name, Err: p.err}
}

// totalsProbe carries a running counter with explicit reset.
type totalsProbe struct {
	total uint64
}

func (p *totalsProbe) Name() string { return "network" }

func (p *totalsProbe) Collect(_ context.Context, snap *domain.Snapshot) error {
	p.total += 100
	snap.Network = []domain.InterfaceStat{{Name: "eth0", BytesSent: p.total}}
	return nil
}

func (p *totalsProbe) ResetTotals() { p.total = 0 }

func TestSampleFillsSections(t *testing.T) {
	t.Parallel()

	cpu := &fakeCPUProbe{}
	s := New(time.Second, []probe.Probe{cpu}, testLogger())

	snap := s.Sample(context.Background())

	if snap.CPU == nil {
		t.Fatal("CPU section absent")
	}
	if snap.CPU.Overall != 42.5 {
		t.Errorf("overall = %v, want 42.5", snap.CPU.Overall)
	}
	if snap.Interval != time.Second {
		t.Errorf("interval = %v, want 1s", snap.Interval)
	}
	if snap.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestSamplePartialDegradation(t *testing.T) {
	t.Parallel()

	s := New(time.Second, []probe.Probe{
		&fakeCPUProbe{},
		&failingProbe{name: "gpu", err: domain.ErrUnavailable},
	}, testLogger())

	snap := s.Sample(context.Background())

	if snap.CPU == nil {
		t.Fatal("healthy probe's section absent")
	}
	if snap.GPU != nil {
		t.Errorf("failed probe's section = %v, want nil", snap.GPU)
	}
}

func TestSampleTransientFailure(t *testing.T) {
	t.Parallel()

	s := New(time.Second, []probe.Probe{
		&failingProbe{name: "disk", err: errors.New("io timeout")},
		&fakeCPUProbe{},
	}, testLogger())

	snap := s.Sample(context.Background())

	if snap.Disk != nil {
		t.Errorf("disk section = %v, want nil", snap.Disk)
	}
	if snap.CPU == nil {
		t.Error("probe after the failing one did not run")
	}
}

func TestLatest(t *testing.T) {
	t.Parallel()

	s := New(time.Second, []probe.Probe{&fakeCPUProbe{}}, testLogger())

	if _, ok := s.Latest(); ok {
		t.Fatal("Latest reported a snapshot before the first sample")
	}

	s.publish(s.Sample(context.Background()))

	snap, ok := s.Latest()
	if !ok {
		t.Fatal("Latest empty after publish")
	}
	if snap.CPU == nil || snap.CPU.Overall != 42.5 {
		t.Errorf("latest snapshot = %+v", snap.CPU)
	}
}

func TestResetTotalsAppliedAtNextSample(t *testing.T) {
	t.Parallel()

	totals := &totalsProbe{}
	s := New(time.Second, []probe.Probe{totals}, testLogger())
	ctx := context.Background()

	s.Sample(ctx)
	snap := s.Sample(ctx)
	if got := snap.Network[0].BytesSent; got != 200 {
		t.Fatalf("total before reset = %d, want 200", got)
	}

	s.ResetTotals()
	// The reset must not touch probe state until the next sample.
	if totals.total != 200 {
		t.Fatalf("reset applied immediately, total = %d", totals.total)
	}

	snap = s.Sample(ctx)
	if got := snap.Network[0].BytesSent; got != 100 {
		t.Errorf("total after reset = %d, want 100", got)
	}
}

func TestNotifyConsumersReceiveEveryPublish(t *testing.T) {
	t.Parallel()

	s := New(time.Second, []probe.Probe{&fakeCPUProbe{}}, testLogger())

	var first, second []domain.Snapshot
	s.Notify(func(snap domain.Snapshot) { first = append(first, snap) })
	s.Notify(func(snap domain.Snapshot) { second = append(second, snap) })

	ctx := context.Background()
	s.publish(s.Sample(ctx))
	s.publish(s.Sample(ctx))

	if len(first) != 2 || len(second) != 2 {
		t.Errorf("consumers saw %d and %d snapshots, want 2 and 2", len(first), len(second))
	}
}

func TestRunPublishesOnCadence(t *testing.T) {
	t.Parallel()

	interval := 20 * time.Millisecond
	cpu := &fakeCPUProbe{}
	s := New(interval, []probe.Probe{cpu}, testLogger())

	stampCh := make(chan time.Time, 16)
	s.Notify(func(snap domain.Snapshot) {
		select {
		case stampCh <- snap.Timestamp:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	stamps := make([]time.Time, 0, 4)
	for len(stamps) < 4 {
		select {
		case ts := <-stampCh:
			stamps = append(stamps, ts)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for snapshots")
		}
	}

	// Publishes must never be closer together than the interval allows
	// for; a generous lower bound avoids timer jitter flakes.
	for i := 1; i < 4; i++ {
		if gap := stamps[i].Sub(stamps[i-1]); gap < interval/2 {
			t.Errorf("publish %d only %v after previous, interval %v", i, gap, interval)
		}
	}
}
