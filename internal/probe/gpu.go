package probe

import (
	"bufio"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/mlrig/hwmon/internal/domain"
)

const smiTimeout = 3 * time.Second

// gpuBackend is one way of talking to the NVIDIA driver. NVML is
// preferred (in-process, one query per field); nvidia-smi is the
// fallback when the agent is built without cgo or NVML cannot load.
type gpuBackend interface {
	devices(ctx context.Context) ([]domain.GPUStat, error)
	inventory(ctx context.Context) (domain.GPUInventory, error)
	close()
}

// GPUProbe reports per-device utilization, VRAM, temperature and power.
// On a machine with no NVIDIA driver every Collect returns
// domain.ErrUnavailable and the snapshot's GPU section stays nil.
type GPUProbe struct {
	backend gpuBackend
}

func NewGPUProbe() *GPUProbe {
	backend := newNVMLBackend()
	if backend == nil {
		if _, err := exec.LookPath("nvidia-smi"); err == nil {
			backend = &smiBackend{}
		}
	}
	return &GPUProbe{backend: backend}
}

func (p *GPUProbe) Name() string { return "gpu" }

func (p *GPUProbe) Collect(ctx context.Context, snap *domain.Snapshot) error {
	if p.backend == nil {
		return domain.ErrProbe{Probe: p.Name(), Err: domain.ErrUnavailable}
	}
	devices, err := p.backend.devices(ctx)
	if err != nil {
		return domain.ErrProbe{Probe: p.Name(), Err: err}
	}
	snap.GPU = devices
	return nil
}

// Inventory returns driver-level identity for the inventory document.
func (p *GPUProbe) Inventory(ctx context.Context) (domain.GPUInventory, error) {
	if p.backend == nil {
		return domain.GPUInventory{}, domain.ErrUnavailable
	}
	return p.backend.inventory(ctx)
}

// Close releases the driver handle, if the backend holds one.
func (p *GPUProbe) Close() {
	if p.backend != nil {
		p.backend.close()
	}
}

// smiBackend shells out to nvidia-smi with CSV output. Each call is
// bounded by smiTimeout so a wedged driver cannot stall the sampler
// beyond one skipped tick.
type smiBackend struct{}

func (b *smiBackend) devices(ctx context.Context) ([]domain.GPUStat, error) {
	out, err := runSMI(ctx,
		"--query-gpu=index,name,utilization.gpu,memory.used,memory.total,temperature.gpu,power.draw",
		"--format=csv,noheader,nounits")
	if err != nil {
		return nil, err
	}
	return parseSMIDevices(out), nil
}

func (b *smiBackend) inventory(ctx context.Context) (domain.GPUInventory, error) {
	out, err := runSMI(ctx,
		"--query-gpu=index,name,memory.total,driver_version",
		"--format=csv,noheader,nounits")
	if err != nil {
		return domain.GPUInventory{}, err
	}

	inv := domain.GPUInventory{}
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		parts := splitCSV(sc.Text())
		if len(parts) < 4 {
			continue
		}
		index, _ := strconv.Atoi(parts[0])
		memMB, _ := strconv.ParseUint(parts[2], 10, 64)
		inv.Devices = append(inv.Devices, domain.GPUDevice{
			Index:            index,
			Name:             parts[1],
			TotalMemoryBytes: memMB * 1024 * 1024,
		})
		if inv.DriverVersion == nil && parts[3] != "" {
			driver := parts[3]
			inv.DriverVersion = &driver
		}
	}
	inv.Count = len(inv.Devices)

	// The CUDA version the driver supports only appears in the banner
	// of the plain nvidia-smi output.
	if banner, err := runSMI(ctx); err == nil {
		if cuda := parseCUDABanner(banner); cuda != "" {
			inv.CUDAVersion = &cuda
		}
	}
	return inv, nil
}

func (b *smiBackend) close() {}

func runSMI(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, smiTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "nvidia-smi", args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func parseSMIDevices(out string) []domain.GPUStat {
	stats := []domain.GPUStat{}
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		parts := splitCSV(sc.Text())
		if len(parts) < 7 {
			continue
		}
		index, _ := strconv.Atoi(parts[0])
		util := parseSMIFloat(parts[2])
		memUsedMB := parseSMIFloat(parts[3])
		memTotalMB := parseSMIFloat(parts[4])

		stat := domain.GPUStat{
			Index:         index,
			Name:          parts[1],
			Utilization:   util,
			MemUsedBytes:  uint64(memUsedMB * 1024 * 1024),
			MemTotalBytes: uint64(memTotalMB * 1024 * 1024),
		}
		if stat.MemTotalBytes > 0 {
			stat.MemUsedPercent = float64(stat.MemUsedBytes) / float64(stat.MemTotalBytes) * 100
		}
		// temperature.gpu and power.draw report "[N/A]" on some parts.
		if temp, err := strconv.ParseFloat(parts[5], 64); err == nil {
			stat.TemperatureC = &temp
		}
		if power, err := strconv.ParseFloat(parts[6], 64); err == nil {
			stat.PowerWatts = &power
		}
		stats = append(stats, stat)
	}
	return stats
}

// parseCUDABanner extracts "12.2" from the nvidia-smi header line
// "| NVIDIA-SMI 535.104.05   Driver Version: 535.104.05   CUDA Version: 12.2 |".
func parseCUDABanner(out string) string {
	idx := strings.Index(out, "CUDA Version:")
	if idx < 0 {
		return ""
	}
	rest := strings.TrimSpace(out[idx+len("CUDA Version:"):])
	fields := strings.FieldsFunc(rest, func(r rune) bool {
		return r == ' ' || r == '|' || r == '\n'
	})
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func splitCSV(line string) []string {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseSMIFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	return f
}
