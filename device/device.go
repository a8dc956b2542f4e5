// Package device enumerates the compute devices available to a training run
package device

import (
	"fmt"
	"runtime"

	"github.com/klauspost/cpuid/v2"

	"github.com/neurlang/msahmm/errs"
	"github.com/neurlang/msahmm/logging"
)

// Kind distinguishes host processors from accelerators
type Kind int

const (
	CPU Kind = iota
	GPU
)

func (k Kind) String() string {
	switch k {
	case CPU:
		return "CPU"
	case GPU:
		return "GPU"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Device describes one compute device
type Device struct {
	Index  int    // ordinal within its kind
	Kind   Kind   // CPU or GPU
	Name   string // brand or product name
	Memory uint64 // total memory in bytes, 0 if unknown
	Cores  int    // logical cores (CPU only)
}

func (d Device) String() string {
	return fmt.Sprintf("%s:%d %s", d.Kind, d.Index, d.Name)
}

// Lister enumerates devices
type Lister interface {

	// List returns every visible device, host CPU first.
	List() ([]Device, error)
}

// ListerFunc adapts a function to Lister
type ListerFunc func() ([]Device, error)

// List calls f
func (f ListerFunc) List() ([]Device, error) {
	return f()
}

// System is the Lister backed by the running machine
var System Lister = ListerFunc(Discover)

// Discover returns the host CPU followed by every accelerator. Accelerators are
// only visible in binaries built with -tags cuda.
func Discover() ([]Device, error) {
	devs := []Device{Host()}
	gpus, err := accelerators()
	if err != nil {
		return nil, errs.Device(err, "enumerate accelerators")
	}
	devs = append(devs, gpus...)
	for _, d := range devs {
		logging.Internal().Debug("device found", "device", d.String(), "memory", d.Memory)
	}
	return devs, nil
}

// Host describes the host processor
func Host() Device {
	name := cpuid.CPU.BrandName
	if name == "" {
		name = runtime.GOARCH
	}
	return Device{
		Kind:  CPU,
		Name:  name,
		Cores: Workers(),
	}
}

// Workers reports the recommended number of parallel host workers. Can't return 0.
func Workers() int {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		return n
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}

// Count returns how many devices of kind k are in devs
func Count(devs []Device, k Kind) (n int) {
	for _, d := range devs {
		if d.Kind == k {
			n++
		}
	}
	return
}

// Static is a fixed device list, used for forced layouts and tests
type Static []Device

// List returns a copy of s
func (s Static) List() ([]Device, error) {
	return append([]Device(nil), s...), nil
}

// WithGPUs returns a Static list holding the host CPU and n synthetic accelerators
func WithGPUs(n int) Static {
	s := Static{Host()}
	for i := 0; i < n; i++ {
		s = append(s, Device{Index: i, Kind: GPU, Name: fmt.Sprintf("virtual-%d", i)})
	}
	return s
}
