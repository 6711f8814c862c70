package probe

import (
	"context"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/mlrig/hwmon/internal/domain"
)

// CPUProbe derives utilization from /proc jiffy counters between
// successive Collect calls. The first call after construction or reset
// reports zero utilization because there is no delta yet.
type CPUProbe struct {
	prevTotal float64
	prevIdle  float64
	prevCore  []cpu.TimesStat
}

func NewCPUProbe() *CPUProbe {
	return &CPUProbe{}
}

func (p *CPUProbe) Name() string { return "cpu" }

func (p *CPUProbe) Collect(ctx context.Context, snap *domain.Snapshot) error {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return domain.ErrProbe{Probe: p.Name(), Err: err}
	}
	if len(times) == 0 {
		return domain.ErrProbe{Probe: p.Name(), Err: domain.ErrUnavailable}
	}

	stats := &domain.CPUStats{}

	cur := times[0]
	curTotal := cur.Total()
	curIdle := cur.Idle + cur.Iowait
	if p.prevTotal > 0 {
		dt := curTotal - p.prevTotal
		di := curIdle - p.prevIdle
		if dt > 0 {
			stats.Overall = 100 * (1 - di/dt)
		}
	}
	p.prevTotal, p.prevIdle = curTotal, curIdle

	coreTimes, err := cpu.TimesWithContext(ctx, true)
	if err == nil {
		stats.PerCore = make([]float64, len(coreTimes))
		for i, c := range coreTimes {
			if i >= len(p.prevCore) {
				continue
			}
			prev := p.prevCore[i]
			dt := c.Total() - prev.Total()
			di := (c.Idle + c.Iowait) - (prev.Idle + prev.Iowait)
			if dt > 0 {
				stats.PerCore[i] = 100 * (1 - di/dt)
			}
		}
		p.prevCore = coreTimes
		stats.LogicalCores = len(coreTimes)
	}

	// Frequency is best-effort; some platforms report nothing.
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 && infos[0].Mhz > 0 {
		mhz := infos[0].Mhz
		stats.FrequencyMHz = &mhz
	}

	snap.CPU = stats
	return nil
}

func (p *CPUProbe) ResetTotals() {
	p.prevTotal = 0
	p.prevIdle = 0
	p.prevCore = nil
}
