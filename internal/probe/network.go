package probe

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/net"

	"github.com/mlrig/hwmon/internal/domain"
)

const maxInterfaces = 10

// NetworkProbe reports per-interface counters and rates. The exported
// BytesSent/BytesRecv are running totals measured from the last reset,
// so a byte counter in a snapshot is always the cumulative traffic the
// agent has observed since it started (or since the user reset stats).
type NetworkProbe struct {
	base     map[string]net.IOCountersStat
	prev     map[string]net.IOCountersStat
	prevTime time.Time
}

func NewNetworkProbe() *NetworkProbe {
	return &NetworkProbe{
		base: make(map[string]net.IOCountersStat),
		prev: make(map[string]net.IOCountersStat),
	}
}

func (p *NetworkProbe) Name() string { return "network" }

func (p *NetworkProbe) Collect(ctx context.Context, snap *domain.Snapshot) error {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return domain.ErrProbe{Probe: p.Name(), Err: err}
	}

	upFlags := interfaceFlags(ctx)
	now := time.Now()
	elapsed := now.Sub(p.prevTime).Seconds()

	stats := make([]domain.InterfaceStat, 0, len(counters))
	for _, cur := range counters {
		if cur.Name == "lo" {
			continue
		}
		if len(stats) >= maxInterfaces {
			break
		}

		sent, recv := p.totals(cur)
		stat := domain.InterfaceStat{
			Name:      cur.Name,
			Up:        upFlags[cur.Name],
			SpeedMbps: linkSpeed(cur.Name),
			BytesSent: sent,
			BytesRecv: recv,
		}
		if prev, ok := p.prev[cur.Name]; ok && elapsed > 0 {
			if cur.BytesSent >= prev.BytesSent {
				stat.SendBytesSec = float64(cur.BytesSent-prev.BytesSent) / elapsed
			}
			if cur.BytesRecv >= prev.BytesRecv {
				stat.RecvBytesSec = float64(cur.BytesRecv-prev.BytesRecv) / elapsed
			}
		}
		stats = append(stats, stat)
		p.prev[cur.Name] = cur
	}
	p.prevTime = now

	snap.Network = stats
	return nil
}

// ResetTotals rebases the cumulative counters so the next snapshot
// reports traffic from zero.
func (p *NetworkProbe) ResetTotals() {
	p.base = make(map[string]net.IOCountersStat)
	p.prev = make(map[string]net.IOCountersStat)
	p.prevTime = time.Time{}
}

// totals returns the cumulative sent/recv bytes for one interface,
// measured against the recorded base. Kernel counters move backwards
// when an interface is re-created or its driver reloads; subtracting
// the old base would then underflow the unsigned totals, so the base
// is rebased to the current counters instead.
func (p *NetworkProbe) totals(cur net.IOCountersStat) (sent, recv uint64) {
	base, ok := p.base[cur.Name]
	if !ok || counterReset(cur, base) {
		p.base[cur.Name] = cur
		base = cur
	}
	return cur.BytesSent - base.BytesSent, cur.BytesRecv - base.BytesRecv
}

func counterReset(cur, base net.IOCountersStat) bool {
	return cur.BytesSent < base.BytesSent || cur.BytesRecv < base.BytesRecv
}

func interfaceFlags(ctx context.Context) map[string]bool {
	up := make(map[string]bool)
	ifaces, err := net.InterfacesWithContext(ctx)
	if err != nil {
		return up
	}
	for _, iface := range ifaces {
		for _, flag := range iface.Flags {
			if flag == "up" {
				up[iface.Name] = true
				break
			}
		}
	}
	return up
}

// linkSpeed reads the advertised link speed from sysfs. Virtual
// interfaces report nothing, which maps to a null speed in JSON.
func linkSpeed(name string) *int {
	data, err := os.ReadFile(filepath.Join("/sys/class/net", name, "speed"))
	if err != nil {
		return nil
	}
	speed, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || speed <= 0 {
		return nil
	}
	return &speed
}
