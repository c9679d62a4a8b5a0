//go:build !linux

package hal

import "errors"

// RealHAL is not available on non-Linux platforms.
type RealHAL struct{}

// NewRealHAL returns an error on non-Linux platforms.
func NewRealHAL(inputs, outputs []Pin, iioDevice string) (*RealHAL, error) {
	return nil, errors.New("hal: not supported on this platform (requires Linux)")
}

// ReadDigital is not implemented on non-Linux platforms.
func (h *RealHAL) ReadDigital(p Pin) (bool, error) {
	return false, errors.New("hal: not supported")
}

// WriteDigital is not implemented on non-Linux platforms.
func (h *RealHAL) WriteDigital(p Pin, high bool) error {
	return errors.New("hal: not supported")
}

// ReadAnalog is not implemented on non-Linux platforms.
func (h *RealHAL) ReadAnalog(p Pin) (int, error) {
	return 0, errors.New("hal: not supported")
}

// Close is not implemented on non-Linux platforms.
func (h *RealHAL) Close() error {
	return nil
}
