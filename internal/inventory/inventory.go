// Package inventory produces the one-shot hardware catalogue: system
// identity, CPU model, memory, partitions, interfaces and GPU devices,
// exportable as JSON and printable as a summary.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"github.com/mlrig/hwmon/internal/domain"
)

// GPUSource is the slice of the GPU probe the collector needs.
type GPUSource interface {
	Inventory(ctx context.Context) (domain.GPUInventory, error)
}

// Collect assembles a complete inventory. Individual sections degrade
// independently: a failed query leaves its section at the zero value
// rather than failing the whole document.
func Collect(ctx context.Context, gpu GPUSource) domain.Inventory {
	inv := domain.Inventory{
		Timestamp: time.Now(),
		System:    systemInfo(ctx),
		CPU:       cpuInfo(ctx),
		Memory:    memoryInfo(ctx),
		Disks:     diskInfo(ctx),
		Network:   networkInfo(ctx),
	}
	if gpu != nil {
		if gpuInv, err := gpu.Inventory(ctx); err == nil {
			inv.GPU = gpuInv
		}
	}
	return inv
}

func systemInfo(ctx context.Context) domain.SystemInfo {
	info := domain.SystemInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}
	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	}
	if hi, err := host.InfoWithContext(ctx); err == nil {
		info.Platform = fmt.Sprintf("%s %s", hi.Platform, hi.PlatformVersion)
		info.KernelVersion = hi.KernelVersion
	}
	return info
}

func cpuInfo(ctx context.Context) domain.CPUInfo {
	info := domain.CPUInfo{Model: "unknown"}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		info.Model = infos[0].ModelName
		if infos[0].Mhz > 0 {
			mhz := infos[0].Mhz
			info.BaseFrequencyMHz = &mhz
		}
	}
	if physical, err := cpu.CountsWithContext(ctx, false); err == nil {
		info.PhysicalCores = physical
	}
	if logical, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.LogicalThreads = logical
	}
	return info
}

func memoryInfo(ctx context.Context) domain.MemoryInfo {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return domain.MemoryInfo{}
	}
	return domain.MemoryInfo{
		TotalBytes:     vm.Total,
		AvailableBytes: vm.Available,
		UsedBytes:      vm.Used,
		UsedPercent:    vm.UsedPercent,
	}
}

func diskInfo(ctx context.Context) []domain.DiskInfo {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil
	}
	disks := make([]domain.DiskInfo, 0, len(partitions))
	for _, part := range partitions {
		usage, err := disk.UsageWithContext(ctx, part.Mountpoint)
		if err != nil {
			continue
		}
		disks = append(disks, domain.DiskInfo{
			Device:      part.Device,
			Mountpoint:  part.Mountpoint,
			Fstype:      part.Fstype,
			TotalBytes:  usage.Total,
			UsedBytes:   usage.Used,
			UsedPercent: usage.UsedPercent,
		})
	}
	return disks
}

func networkInfo(ctx context.Context) []domain.InterfaceInfo {
	ifaces, err := net.InterfacesWithContext(ctx)
	if err != nil {
		return nil
	}
	infos := make([]domain.InterfaceInfo, 0, len(ifaces))
	for _, iface := range ifaces {
		if iface.Name == "lo" {
			continue
		}
		info := domain.InterfaceInfo{Name: iface.Name}
		for _, flag := range iface.Flags {
			if flag == "up" {
				info.Up = true
				break
			}
		}
		for _, addr := range iface.Addrs {
			info.Addresses = append(info.Addresses, addr.Addr)
		}
		infos = append(infos, info)
	}
	return infos
}

// Save writes the inventory as indented JSON, creating parent
// directories as needed.
func Save(inv domain.Inventory, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal inventory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write inventory: %w", err)
	}
	return nil
}

// DefaultFilename returns the timestamped output name used when the
// user gives no explicit path.
func DefaultFilename(now time.Time) string {
	return fmt.Sprintf("inventory_%s.json", now.Format("20060102_150405"))
}

// WriteSummary prints the human-readable inventory digest.
func WriteSummary(w io.Writer, inv domain.Inventory) {
	line := strings.Repeat("=", 60)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "HARDWARE INVENTORY")
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Timestamp: %s\n", inv.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(w, "Hostname:  %s\n", inv.System.Hostname)
	fmt.Fprintf(w, "OS:        %s (%s, kernel %s)\n",
		inv.System.Platform, inv.System.Architecture, inv.System.KernelVersion)

	fmt.Fprintln(w, "\n--- CPU ---")
	fmt.Fprintf(w, "Model:   %s\n", inv.CPU.Model)
	fmt.Fprintf(w, "Cores:   %d physical / %d logical\n",
		inv.CPU.PhysicalCores, inv.CPU.LogicalThreads)

	fmt.Fprintln(w, "\n--- Memory ---")
	fmt.Fprintf(w, "Total:     %s\n", formatBytes(inv.Memory.TotalBytes))
	fmt.Fprintf(w, "Available: %s\n", formatBytes(inv.Memory.AvailableBytes))
	fmt.Fprintf(w, "Used:      %s (%.1f%%)\n",
		formatBytes(inv.Memory.UsedBytes), inv.Memory.UsedPercent)

	fmt.Fprintln(w, "\n--- Disks ---")
	for _, d := range inv.Disks {
		fmt.Fprintf(w, "%s (%s): %s / %s (%.1f%%)\n",
			d.Device, d.Mountpoint,
			formatBytes(d.UsedBytes), formatBytes(d.TotalBytes), d.UsedPercent)
	}

	fmt.Fprintln(w, "\n--- Network ---")
	for _, iface := range inv.Network {
		state := "DOWN"
		if iface.Up {
			state = "UP"
		}
		fmt.Fprintf(w, "%s: %s\n", iface.Name, state)
		for _, addr := range iface.Addresses {
			fmt.Fprintf(w, "  %s\n", addr)
		}
	}

	fmt.Fprintln(w, "\n--- GPU ---")
	if inv.GPU.Count == 0 {
		fmt.Fprintln(w, "No NVIDIA GPUs detected")
	} else {
		if inv.GPU.DriverVersion != nil {
			fmt.Fprintf(w, "Driver: %s\n", *inv.GPU.DriverVersion)
		}
		if inv.GPU.CUDAVersion != nil {
			fmt.Fprintf(w, "CUDA:   %s\n", *inv.GPU.CUDAVersion)
		}
		for _, gpu := range inv.GPU.Devices {
			fmt.Fprintf(w, "GPU %d: %s (%s)\n",
				gpu.Index, gpu.Name, formatBytes(gpu.TotalMemoryBytes))
		}
	}
	fmt.Fprintln(w, line)
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
