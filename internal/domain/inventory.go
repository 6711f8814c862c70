package domain

import "time"

// Inventory is a one-shot catalogue of the machine's hardware, suitable
// for JSON export and archival. Unlike Snapshot it carries identity
// (model names, versions, addresses) rather than utilization.
type Inventory struct {
	Timestamp time.Time       `json:"timestamp"`
	System    SystemInfo      `json:"system"`
	CPU       CPUInfo         `json:"cpu"`
	Memory    MemoryInfo      `json:"memory"`
	Disks     []DiskInfo      `json:"disks"`
	Network   []InterfaceInfo `json:"network"`
	GPU       GPUInventory    `json:"gpu"`
}

type SystemInfo struct {
	Hostname      string `json:"hostname"`
	OS            string `json:"os"`
	Platform      string `json:"platform"`
	KernelVersion string `json:"kernel_version"`
	Architecture  string `json:"architecture"`
}

type CPUInfo struct {
	Model            string   `json:"model"`
	PhysicalCores    int      `json:"physical_cores"`
	LogicalThreads   int      `json:"logical_threads"`
	BaseFrequencyMHz *float64 `json:"base_frequency_mhz"`
}

type MemoryInfo struct {
	TotalBytes     uint64  `json:"total_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	UsedBytes      uint64  `json:"used_bytes"`
	UsedPercent    float64 `json:"used_percent"`
}

type DiskInfo struct {
	Device      string  `json:"device"`
	Mountpoint  string  `json:"mountpoint"`
	Fstype      string  `json:"fstype"`
	TotalBytes  uint64  `json:"total_bytes"`
	UsedBytes   uint64  `json:"used_bytes"`
	UsedPercent float64 `json:"used_percent"`
}

type InterfaceInfo struct {
	Name      string   `json:"name"`
	Up        bool     `json:"is_up"`
	SpeedMbps *int     `json:"speed_mbps"`
	Addresses []string `json:"addresses"`
}

// GPUInventory groups driver-level versions with the device list.
// DriverVersion and CUDAVersion are nil when no driver is present.
type GPUInventory struct {
	DriverVersion *string     `json:"driver_version"`
	CUDAVersion   *string     `json:"cuda_version"`
	Count         int         `json:"gpu_count"`
	Devices       []GPUDevice `json:"gpus"`
}

type GPUDevice struct {
	Index            int    `json:"index"`
	Name             string `json:"name"`
	TotalMemoryBytes uint64 `json:"total_memory_bytes"`
}
