package probe

import (
	"testing"

	"github.com/shirou/gopsutil/v3/net"
)

func TestCounterReset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cur  net.IOCountersStat
		base net.IOCountersStat
		want bool
	}{
		{
			name: "monotonic growth",
			cur:  net.IOCountersStat{BytesSent: 2000, BytesRecv: 3000},
			base: net.IOCountersStat{BytesSent: 1000, BytesRecv: 1000},
			want: false,
		},
		{
			name: "unchanged",
			cur:  net.IOCountersStat{BytesSent: 1000, BytesRecv: 1000},
			base: net.IOCountersStat{BytesSent: 1000, BytesRecv: 1000},
			want: false,
		},
		{
			name: "sent counter went backwards",
			cur:  net.IOCountersStat{BytesSent: 10, BytesRecv: 5000},
			base: net.IOCountersStat{BytesSent: 1000, BytesRecv: 1000},
			want: true,
		},
		{
			name: "recv counter went backwards",
			cur:  net.IOCountersStat{BytesSent: 5000, BytesRecv: 10},
			base: net.IOCountersStat{BytesSent: 1000, BytesRecv: 1000},
			want: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := counterReset(tt.cur, tt.base); got != tt.want {
				t.Errorf("counterReset() = %v, want %v", got, tt.want)
			}
		})
	}
}

// A re-created interface restarts its kernel counters from zero. The
// running total must rebase to the new counters instead of subtracting
// the stale base, which would underflow into an absurd uint64.
func TestNetworkTotalsRebaseAfterCounterReset(t *testing.T) {
	t.Parallel()

	p := NewNetworkProbe()

	sent, recv := p.totals(net.IOCountersStat{Name: "eth0", BytesSent: 1 << 40, BytesRecv: 1 << 40})
	if sent != 0 || recv != 0 {
		t.Fatalf("first tick totals = (%d, %d), want (0, 0)", sent, recv)
	}

	sent, recv = p.totals(net.IOCountersStat{Name: "eth0", BytesSent: 1<<40 + 512, BytesRecv: 1<<40 + 1024})
	if sent != 512 || recv != 1024 {
		t.Fatalf("growing totals = (%d, %d), want (512, 1024)", sent, recv)
	}

	// Counters dropped below the base: the interface came back fresh.
	sent, recv = p.totals(net.IOCountersStat{Name: "eth0", BytesSent: 4096, BytesRecv: 8192})
	if sent != 0 || recv != 0 {
		t.Errorf("totals after counter reset = (%d, %d), want (0, 0)", sent, recv)
	}

	sent, recv = p.totals(net.IOCountersStat{Name: "eth0", BytesSent: 4196, BytesRecv: 8292})
	if sent != 100 || recv != 100 {
		t.Errorf("totals after rebase = (%d, %d), want (100, 100)", sent, recv)
	}
}
