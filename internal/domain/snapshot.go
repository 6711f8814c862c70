package domain

import "time"

// Snapshot is one complete set of hardware metrics taken at a single
// instant. It is assembled in full by the sampler and never mutated
// afterwards; consumers receive it by value.
//
// A nil section means the corresponding probe was unavailable for this
// tick. Absent is always distinct from zero: a machine with no GPUs and
// a working NVML install gets an empty non-nil GPU slice, a machine
// where the driver library cannot be loaded gets nil.
type Snapshot struct {
	Timestamp time.Time       `json:"timestamp"`
	Interval  time.Duration   `json:"interval_ns"`
	CPU       *CPUStats       `json:"cpu"`
	Memory    *MemoryStats    `json:"memory"`
	Disk      []PartitionStat `json:"disk"`
	Network   []InterfaceStat `json:"network"`
	GPU       []GPUStat       `json:"gpu"`
}

// CPUStats holds instantaneous CPU utilization.
type CPUStats struct {
	Overall      float64   `json:"overall_percent"`
	PerCore      []float64 `json:"per_core_percent"`
	FrequencyMHz *float64  `json:"frequency_mhz"`
	LogicalCores int       `json:"logical_cores"`
}

// MemoryStats holds RAM and swap usage in bytes.
type MemoryStats struct {
	TotalBytes     uint64  `json:"total_bytes"`
	UsedBytes      uint64  `json:"used_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	UsedPercent    float64 `json:"used_percent"`
	SwapTotalBytes uint64  `json:"swap_total_bytes"`
	SwapUsedBytes  uint64  `json:"swap_used_bytes"`
	SwapPercent    float64 `json:"swap_percent"`
}

// PartitionStat describes usage of one mounted partition plus the
// aggregate I/O rates derived from counter deltas since the last tick.
type PartitionStat struct {
	Device        string  `json:"device"`
	Mountpoint    string  `json:"mountpoint"`
	Fstype        string  `json:"fstype"`
	TotalBytes    uint64  `json:"total_bytes"`
	UsedBytes     uint64  `json:"used_bytes"`
	FreeBytes     uint64  `json:"free_bytes"`
	UsedPercent   float64 `json:"used_percent"`
	ReadBytesSec  float64 `json:"read_bytes_sec"`
	WriteBytesSec float64 `json:"write_bytes_sec"`
}

// InterfaceStat describes one network interface. BytesSent/BytesRecv
// are running totals since the last explicit reset; the rates are
// per-interval deltas.
type InterfaceStat struct {
	Name         string  `json:"name"`
	Up           bool    `json:"is_up"`
	SpeedMbps    *int    `json:"speed_mbps"`
	BytesSent    uint64  `json:"bytes_sent"`
	BytesRecv    uint64  `json:"bytes_recv"`
	SendBytesSec float64 `json:"send_bytes_sec"`
	RecvBytesSec float64 `json:"recv_bytes_sec"`
}

// GPUStat is one GPU device reading.
type GPUStat struct {
	Index          int      `json:"index"`
	Name           string   `json:"name"`
	Utilization    float64  `json:"utilization_percent"`
	MemUsedBytes   uint64   `json:"memory_used_bytes"`
	MemTotalBytes  uint64   `json:"memory_total_bytes"`
	MemUsedPercent float64  `json:"memory_used_percent"`
	TemperatureC   *float64 `json:"temperature_c"`
	PowerWatts     *float64 `json:"power_watts"`
}
