package ndarray

import (
	"fmt"
	"strings"
)

// Device represents the kind of compute device an array lives on.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	CUDA
	Vulkan
	Metal
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case Vulkan:
		return "Vulkan"
	case Metal:
		return "Metal"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// ParseDevice converts a device name, case-insensitively, into a Device.
func ParseDevice(name string) (Device, error) {
	switch strings.ToLower(name) {
	case "cpu":
		return CPU, nil
	case "cuda":
		return CUDA, nil
	case "vulkan":
		return Vulkan, nil
	case "metal":
		return Metal, nil
	case "webgpu":
		return WebGPU, nil
	default:
		return 0, fmt.Errorf("%w: unknown device %q", ErrInvalidArgument, name)
	}
}

// Context is a placement descriptor: the device kind plus the ordinal of the
// device within that kind. It identifies where an array's native memory is
// allocated and serves as a factory's default allocation target.
type Context struct {
	Device   Device
	DeviceID int
}

// DefaultContext returns the context used when none is supplied: CPU device 0.
func DefaultContext() Context {
	return Context{Device: CPU, DeviceID: 0}
}

// String returns the context in device(id) form, e.g. "CPU(0)".
func (c Context) String() string {
	return fmt.Sprintf("%s(%d)", c.Device, c.DeviceID)
}
