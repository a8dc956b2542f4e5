//go:build !cuda

package device

// accelerators reports no devices; rebuild with -tags cuda to enumerate GPUs
func accelerators() ([]Device, error) {
	return nil, nil
}
