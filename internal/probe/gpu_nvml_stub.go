//go:build !linux || !cgo

package probe

// NVML needs cgo and a Linux driver; elsewhere the GPU probe relies on
// nvidia-smi alone.
func newNVMLBackend() gpuBackend { return nil }
