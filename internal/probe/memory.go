package probe

import (
	"context"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/mlrig/hwmon/internal/domain"
)

// MemoryProbe reports RAM and swap usage. Stateless.
type MemoryProbe struct{}

func NewMemoryProbe() *MemoryProbe {
	return &MemoryProbe{}
}

func (p *MemoryProbe) Name() string { return "memory" }

func (p *MemoryProbe) Collect(ctx context.Context, snap *domain.Snapshot) error {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return domain.ErrProbe{Probe: p.Name(), Err: err}
	}

	stats := &domain.MemoryStats{
		TotalBytes:     vm.Total,
		UsedBytes:      vm.Used,
		AvailableBytes: vm.Available,
		UsedPercent:    vm.UsedPercent,
	}

	// A machine without swap is not an error; the section just carries
	// zero swap totals.
	if swap, err := mem.SwapMemoryWithContext(ctx); err == nil {
		stats.SwapTotalBytes = swap.Total
		stats.SwapUsedBytes = swap.Used
		stats.SwapPercent = swap.UsedPercent
	}

	snap.Memory = stats
	return nil
}
