// Package errs defines the error taxonomy of the msahmm training core.
//
// Every failure is terminal for the current training run. Callers classify an
// error with errors.Is against one of the sentinels below.
package errs

import "github.com/pkg/errors"

var (
	// ErrConfiguration reports invalid hyperparameters (non-positive lengths, counts, batch size).
	ErrConfiguration = errors.New("configuration error")

	// ErrIndex reports an index into a sequence store outside its valid range.
	ErrIndex = errors.New("index error")

	// ErrDevice reports a device enumeration or execution strategy failure.
	ErrDevice = errors.New("device error")

	// ErrNumeric reports a degenerate (NaN or Inf) value produced during a step.
	ErrNumeric = errors.New("numeric error")
)

// Configuration wraps ErrConfiguration with a formatted message
func Configuration(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}

// Index wraps ErrIndex with a formatted message
func Index(format string, args ...interface{}) error {
	return errors.Wrapf(ErrIndex, format, args...)
}

// Device wraps ErrDevice with the underlying cause
func Device(cause error, format string, args ...interface{}) error {
	if cause == nil {
		return errors.Wrapf(ErrDevice, format, args...)
	}
	return errors.Wrapf(ErrDevice, format+": %v", append(args, cause)...)
}

// Numeric wraps ErrNumeric with a formatted message
func Numeric(format string, args ...interface{}) error {
	return errors.Wrapf(ErrNumeric, format, args...)
}
