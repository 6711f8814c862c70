package probe

import (
	"context"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/mlrig/hwmon/internal/domain"
)

const maxPartitions = 10

// DiskProbe reports usage per mounted partition and derives read/write
// throughput from I/O counter deltas between ticks.
type DiskProbe struct {
	prevIO   map[string]disk.IOCountersStat
	prevTime time.Time
}

func NewDiskProbe() *DiskProbe {
	return &DiskProbe{prevIO: make(map[string]disk.IOCountersStat)}
}

func (p *DiskProbe) Name() string { return "disk" }

func (p *DiskProbe) Collect(ctx context.Context, snap *domain.Snapshot) error {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return domain.ErrProbe{Probe: p.Name(), Err: err}
	}

	now := time.Now()
	elapsed := now.Sub(p.prevTime).Seconds()
	counters, _ := disk.IOCountersWithContext(ctx)

	stats := make([]domain.PartitionStat, 0, len(partitions))
	for _, part := range partitions {
		if len(stats) >= maxPartitions {
			break
		}
		usage, err := disk.UsageWithContext(ctx, part.Mountpoint)
		if err != nil {
			// Unmount race or permission problem: skip this partition
			// for the tick, keep the rest.
			continue
		}
		stat := domain.PartitionStat{
			Device:      part.Device,
			Mountpoint:  part.Mountpoint,
			Fstype:      part.Fstype,
			TotalBytes:  usage.Total,
			UsedBytes:   usage.Used,
			FreeBytes:   usage.Free,
			UsedPercent: usage.UsedPercent,
		}

		dev := strings.TrimPrefix(part.Device, "/dev/")
		if cur, ok := counters[dev]; ok {
			if prev, ok := p.prevIO[dev]; ok && elapsed > 0 {
				if cur.ReadBytes >= prev.ReadBytes {
					stat.ReadBytesSec = float64(cur.ReadBytes-prev.ReadBytes) / elapsed
				}
				if cur.WriteBytes >= prev.WriteBytes {
					stat.WriteBytesSec = float64(cur.WriteBytes-prev.WriteBytes) / elapsed
				}
			}
		}
		stats = append(stats, stat)
	}

	for dev, cur := range counters {
		p.prevIO[dev] = cur
	}
	p.prevTime = now

	snap.Disk = stats
	return nil
}

func (p *DiskProbe) ResetTotals() {
	p.prevIO = make(map[string]disk.IOCountersStat)
	p.prevTime = time.Time{}
}
