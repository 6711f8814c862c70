// Package envcheck validates the machine's ML toolchain: NVIDIA driver,
// CUDA toolkit, PyTorch and Ultralytics installs, plus version
// compatibility between them. Checks run independently so one failure
// never hides the rest.
package envcheck

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mlrig/hwmon/internal/domain"
)

type Checker struct {
	cmd    Commander
	python string
	logger *slog.Logger
}

func NewChecker(cmd Commander, logger *slog.Logger) *Checker {
	return &Checker{cmd: cmd, python: "python3", logger: logger}
}

// Run executes the full check suite. Every check always contributes a
// result; compatibility checks are added only when both sides of a
// comparison are known.
func (c *Checker) Run(ctx context.Context) []domain.CheckResult {
	results := make([]domain.CheckResult, 0, 8)

	driver, driverCUDA := c.checkDriver(ctx)
	results = append(results, driver)

	toolkit, toolkitCUDA := c.checkToolkit(ctx)
	results = append(results, toolkit)

	pytorch, pytorchCUDA := c.checkPyTorch(ctx)
	results = append(results, pytorch...)

	results = append(results, c.checkUltralytics(ctx))

	if driverCUDA != "" && toolkitCUDA != "" {
		results = append(results, compareVersions(
			"Version Compatibility",
			"Driver CUDA", driverCUDA,
			"Toolkit CUDA", toolkitCUDA,
			"Ensure toolkit version is compatible with driver version",
		))
	}
	if pytorchCUDA != "" && toolkitCUDA != "" {
		results = append(results, compareVersions(
			"PyTorch CUDA Compatibility",
			"PyTorch CUDA", pytorchCUDA,
			"Toolkit CUDA", toolkitCUDA,
			"Reinstall PyTorch with a matching CUDA version",
		))
	}

	for _, r := range results {
		if r.Status != domain.StatusPass {
			c.logger.Warn("environment check did not pass",
				"check", r.Name,
				"status", string(r.Status),
				"message", r.Message,
			)
		}
	}

	return results
}

// checkDriver verifies nvidia-smi works and extracts the driver version
// plus the maximum CUDA version the driver supports.
func (c *Checker) checkDriver(ctx context.Context) (domain.CheckResult, string) {
	const name = "NVIDIA Driver"

	if !c.cmd.LookPath("nvidia-smi") {
		return domain.CheckResult{
			Name:           name,
			Status:         domain.StatusFail,
			Message:        "nvidia-smi not found, NVIDIA driver is not installed",
			Recommendation: "Run: sudo ubuntu-drivers autoinstall, then reboot",
		}, ""
	}

	version, err := c.cmd.Output(ctx, "nvidia-smi", "--query-gpu=driver_version", "--format=csv,noheader")
	if err != nil {
		return domain.CheckResult{
			Name:           name,
			Status:         domain.StatusFail,
			Message:        "nvidia-smi failed to query driver version",
			Recommendation: "Reinstall drivers: sudo ubuntu-drivers autoinstall",
		}, ""
	}
	version = firstLine(version)
	if version == "" {
		return domain.CheckResult{
			Name:    name,
			Status:  domain.StatusWarn,
			Message: "driver version could not be determined",
		}, ""
	}

	// The supported CUDA version only appears in the plain banner.
	cudaVersion := ""
	if banner, err := c.cmd.Output(ctx, "nvidia-smi"); err == nil {
		cudaVersion = parseCUDABanner(banner)
	}

	message := fmt.Sprintf("driver version %s", version)
	if cudaVersion != "" {
		message += fmt.Sprintf(", supports CUDA %s", cudaVersion)
	}
	return domain.CheckResult{Name: name, Status: domain.StatusPass, Message: message}, cudaVersion
}

// checkToolkit looks for nvcc and parses the release version from its
// banner.
func (c *Checker) checkToolkit(ctx context.Context) (domain.CheckResult, string) {
	const name = "CUDA Toolkit"

	out, err := c.cmd.Output(ctx, "nvcc", "--version")
	if err != nil {
		return domain.CheckResult{
			Name:           name,
			Status:         domain.StatusFail,
			Message:        "nvcc not found, CUDA toolkit is not installed",
			Recommendation: "CUDA toolkit is optional, install it if building CUDA extensions",
		}, ""
	}

	version := parseNvccRelease(out)
	if version == "" {
		return domain.CheckResult{
			Name:    name,
			Status:  domain.StatusPass,
			Message: "CUDA toolkit installed, version could not be parsed",
		}, ""
	}
	return domain.CheckResult{
		Name:    name,
		Status:  domain.StatusPass,
		Message: fmt.Sprintf("CUDA toolkit release %s", version),
	}, version
}

// checkPyTorch probes the python interpreter for torch and its CUDA
// support. Returns one result for the install and, when torch is
// present, a second for CUDA availability.
func (c *Checker) checkPyTorch(ctx context.Context) ([]domain.CheckResult, string) {
	const installRecommendation = "Install PyTorch with CUDA support: pip install torch torchvision"

	version, err := c.cmd.Output(ctx, c.python, "-c", "import torch; print(torch.__version__)")
	if err != nil {
		return []domain.CheckResult{{
			Name:           "PyTorch",
			Status:         domain.StatusFail,
			Message:        "PyTorch is not installed",
			Recommendation: installRecommendation,
		}}, ""
	}

	install := domain.CheckResult{
		Name:    "PyTorch",
		Status:  domain.StatusPass,
		Message: fmt.Sprintf("PyTorch %s is installed", firstLine(version)),
	}

	out, err := c.cmd.Output(ctx, c.python, "-c",
		"import torch; print(torch.cuda.is_available(), torch.cuda.device_count(), torch.version.cuda)")
	if err != nil {
		return []domain.CheckResult{install, {
			Name:    "PyTorch CUDA",
			Status:  domain.StatusFail,
			Message: "error checking CUDA availability",
		}}, ""
	}

	fields := strings.Fields(firstLine(out))
	if len(fields) < 3 || fields[0] != "True" {
		return []domain.CheckResult{install, {
			Name:           "PyTorch CUDA",
			Status:         domain.StatusWarn,
			Message:        "PyTorch CUDA is not available, CPU-only build installed",
			Recommendation: installRecommendation,
		}}, ""
	}

	cudaVersion := fields[2]
	if cudaVersion == "None" {
		cudaVersion = ""
	}
	cuda := domain.CheckResult{
		Name:    "PyTorch CUDA",
		Status:  domain.StatusPass,
		Message: fmt.Sprintf("CUDA available, %s device(s), CUDA %s", fields[1], cudaVersion),
	}
	return []domain.CheckResult{install, cuda}, cudaVersion
}

func (c *Checker) checkUltralytics(ctx context.Context) domain.CheckResult {
	const name = "Ultralytics"

	version, err := c.cmd.Output(ctx, c.python, "-c", "import ultralytics; print(ultralytics.__version__)")
	if err != nil {
		return domain.CheckResult{
			Name:           name,
			Status:         domain.StatusFail,
			Message:        "Ultralytics/YOLO is not installed",
			Recommendation: "Install it: pip install ultralytics",
		}
	}
	return domain.CheckResult{
		Name:    name,
		Status:  domain.StatusPass,
		Message: fmt.Sprintf("Ultralytics %s is installed", firstLine(version)),
	}
}

// compareVersions reduces two version strings to major.minor and warns
// when they differ.
func compareVersions(name, labelA, versionA, labelB, versionB, recommendation string) domain.CheckResult {
	a, okA := majorMinor(versionA)
	b, okB := majorMinor(versionB)
	if !okA || !okB {
		return domain.CheckResult{
			Name:    name,
			Status:  domain.StatusWarn,
			Message: fmt.Sprintf("%s (%s) and %s (%s) could not be compared", labelA, versionA, labelB, versionB),
		}
	}
	if a != b {
		return domain.CheckResult{
			Name:           name,
			Status:         domain.StatusWarn,
			Message:        fmt.Sprintf("%s (%s) and %s (%s) versions differ", labelA, versionA, labelB, versionB),
			Recommendation: recommendation,
		}
	}
	return domain.CheckResult{
		Name:    name,
		Status:  domain.StatusPass,
		Message: fmt.Sprintf("%s (%s) matches %s (%s)", labelA, versionA, labelB, versionB),
	}
}

func majorMinor(version string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(version), ".")
	if len(parts) < 2 {
		return "", false
	}
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return "", false
	}
	return parts[0] + "." + parts[1], true
}

// parseCUDABanner extracts the version following "CUDA Version:" in the
// nvidia-smi banner.
func parseCUDABanner(banner string) string {
	const marker = "CUDA Version:"
	idx := strings.Index(banner, marker)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimSpace(banner[idx+len(marker):])
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], "|")
}

// parseNvccRelease pulls the "release X.Y" version out of nvcc's
// --version output.
func parseNvccRelease(out string) string {
	for _, line := range strings.Split(out, "\n") {
		lower := strings.ToLower(line)
		idx := strings.Index(lower, "release")
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(line[idx+len("release"):])
		if comma := strings.Index(rest, ","); comma >= 0 {
			rest = rest[:comma]
		}
		return strings.TrimSpace(rest)
	}
	return ""
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
