//go:build linux && cgo

package probe

import (
	"context"
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"github.com/mlrig/hwmon/internal/domain"
)

// nvmlBackend queries the driver through libnvidia-ml. The library is
// dlopen'd at Init time, so a binary built with this backend still runs
// on machines without the driver — newNVMLBackend just returns nil
// there and the probe falls back to nvidia-smi or reports unavailable.
type nvmlBackend struct{}

func newNVMLBackend() gpuBackend {
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return nil
	}
	return &nvmlBackend{}
}

func (b *nvmlBackend) devices(_ context.Context) ([]domain.GPUStat, error) {
	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("nvml device count: %s", nvml.ErrorString(ret))
	}

	stats := make([]domain.GPUStat, 0, count)
	for i := 0; i < count; i++ {
		device, ret := nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			continue
		}

		stat := domain.GPUStat{Index: i}
		if name, ret := device.GetName(); ret == nvml.SUCCESS {
			stat.Name = name
		}
		if util, ret := device.GetUtilizationRates(); ret == nvml.SUCCESS {
			stat.Utilization = float64(util.Gpu)
		}
		if memInfo, ret := device.GetMemoryInfo(); ret == nvml.SUCCESS {
			stat.MemUsedBytes = memInfo.Used
			stat.MemTotalBytes = memInfo.Total
			if memInfo.Total > 0 {
				stat.MemUsedPercent = float64(memInfo.Used) / float64(memInfo.Total) * 100
			}
		}
		if temp, ret := device.GetTemperature(nvml.TEMPERATURE_GPU); ret == nvml.SUCCESS {
			value := float64(temp)
			stat.TemperatureC = &value
		}
		if power, ret := device.GetPowerUsage(); ret == nvml.SUCCESS {
			watts := float64(power) / 1000.0
			stat.PowerWatts = &watts
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

func (b *nvmlBackend) inventory(_ context.Context) (domain.GPUInventory, error) {
	inv := domain.GPUInventory{}

	if driver, ret := nvml.SystemGetDriverVersion(); ret == nvml.SUCCESS {
		inv.DriverVersion = &driver
	}
	if version, ret := nvml.SystemGetCudaDriverVersion(); ret == nvml.SUCCESS && version > 0 {
		cuda := fmt.Sprintf("%d.%d", version/1000, version%1000/10)
		inv.CUDAVersion = &cuda
	}

	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return inv, fmt.Errorf("nvml device count: %s", nvml.ErrorString(ret))
	}
	for i := 0; i < count; i++ {
		device, ret := nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			continue
		}
		dev := domain.GPUDevice{Index: i}
		if name, ret := device.GetName(); ret == nvml.SUCCESS {
			dev.Name = name
		}
		if memInfo, ret := device.GetMemoryInfo(); ret == nvml.SUCCESS {
			dev.TotalMemoryBytes = memInfo.Total
		}
		inv.Devices = append(inv.Devices, dev)
	}
	inv.Count = len(inv.Devices)
	return inv, nil
}

func (b *nvmlBackend) close() {
	_ = nvml.Shutdown()
}
