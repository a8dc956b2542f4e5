//go:build cuda

package device

import "gorgonia.org/cu"

// accelerators enumerates CUDA devices through the driver API
func accelerators() ([]Device, error) {
	n, err := cu.NumDevices()
	if err != nil {
		return nil, err
	}
	var devs = make([]Device, 0, n)
	for i := 0; i < n; i++ {
		dev := cu.Device(i)
		name, err := dev.Name()
		if err != nil {
			return nil, err
		}
		var memory uint64
		if total, err := dev.TotalMem(); err == nil && total > 0 {
			memory = uint64(total)
		}
		devs = append(devs, Device{Index: i, Kind: GPU, Name: name, Memory: memory})
	}
	return devs, nil
}
