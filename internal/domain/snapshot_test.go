package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestSnapshotAbsentSectionsEncodeAsNull(t *testing.T) {
	t.Parallel()

	snap := Snapshot{
		Timestamp: time.Unix(1700000000, 0).UTC(),
		Interval:  time.Second,
		CPU:       &CPUStats{Overall: 10},
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(data)

	if !strings.Contains(body, `"memory":null`) {
		t.Errorf("absent memory not null: %s", body)
	}
	if !strings.Contains(body, `"gpu":null`) {
		t.Errorf("absent gpu not null: %s", body)
	}
	if strings.Contains(body, `"cpu":null`) {
		t.Errorf("present cpu encoded as null: %s", body)
	}
}

func TestSnapshotEmptyGPUDistinctFromAbsent(t *testing.T) {
	t.Parallel()

	// A working driver on a GPU-less machine reports an empty list,
	// a missing driver reports null.
	snap := Snapshot{GPU: []GPUStat{}}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"gpu":[]`) {
		t.Errorf("empty gpu list not []: %s", data)
	}
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	t.Parallel()

	freq := 4500.0
	temp := 61.0
	speed := 1000
	snap := Snapshot{
		Timestamp: time.Unix(1700000000, 0).UTC(),
		Interval:  time.Second,
		CPU: &CPUStats{
			Overall:      37.5,
			PerCore:      []float64{20, 55},
			FrequencyMHz: &freq,
			LogicalCores: 2,
		},
		Memory: &MemoryStats{TotalBytes: 64 << 30, UsedBytes: 16 << 30, UsedPercent: 25},
		Disk: []PartitionStat{{
			Device: "/dev/nvme0n1p2", Mountpoint: "/", Fstype: "ext4",
			TotalBytes: 1 << 40, UsedBytes: 1 << 39, UsedPercent: 50,
			ReadBytesSec: 1024, WriteBytesSec: 2048,
		}},
		Network: []InterfaceStat{{
			Name: "eth0", Up: true, SpeedMbps: &speed,
			BytesSent: 1000, BytesRecv: 2000, SendBytesSec: 10, RecvBytesSec: 20,
		}},
		GPU: []GPUStat{{
			Index: 0, Name: "RTX 4090", Utilization: 91,
			MemUsedBytes: 18 << 30, MemTotalBytes: 24 << 30, MemUsedPercent: 75,
			TemperatureC: &temp,
		}},
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(snap, got) {
		t.Errorf("round trip mismatch:\nin:  %+v\nout: %+v", snap, got)
	}
}

func TestErrProbeUnwrapsToUnavailable(t *testing.T) {
	t.Parallel()

	err := ErrProbe{Probe: "gpu", Err: ErrUnavailable}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("ErrProbe does not unwrap to ErrUnavailable")
	}
	if !strings.Contains(err.Error(), "gpu") {
		t.Errorf("error message %q does not name the probe", err.Error())
	}

	other := ErrProbe{Probe: "disk", Err: errors.New("io timeout")}
	if errors.Is(other, ErrUnavailable) {
		t.Error("transient error wrongly matches ErrUnavailable")
	}
}
