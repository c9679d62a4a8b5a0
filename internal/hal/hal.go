// Package hal provides the hardware abstraction the sequencer core runs
// against. The real implementation uses the Linux GPIO character device for
// digital I/O and IIO sysfs for analog input; the fake allows testing
// without hardware.
package hal

import (
	"fmt"
	"time"
)

// Pin identifies a GPIO line (BCM numbering) or an analog channel.
// The zero value is unused: every HAL primitive treats an unused pin as a
// safe no-op — reads return low/zero, writes do nothing. That invariant
// belongs to the HAL implementations; callers never check it themselves.
type Pin struct {
	num  int
	used bool
}

// Unused is the pin value for roles not wired in a deployment.
var Unused = Pin{}

// GPIO returns a Pin for the given line or channel number.
func GPIO(n int) Pin { return Pin{num: n, used: true} }

// Used reports whether the pin is wired.
func (p Pin) Used() bool { return p.used }

// Number returns the line or channel number. Only meaningful when wired.
func (p Pin) Number() int { return p.num }

func (p Pin) String() string {
	if !p.used {
		return "unused"
	}
	return fmt.Sprintf("GPIO%d", p.num)
}

// HAL is the hardware surface the sequencer core depends on.
type HAL interface {
	// ReadDigital returns the logical level of an input pin.
	// An unused pin always reads low.
	ReadDigital(p Pin) (bool, error)

	// WriteDigital drives an output pin. Writing an unused pin is a no-op.
	WriteDigital(p Pin, high bool) error

	// ReadAnalog returns the raw ADC reading of an analog channel, in
	// [0, max] where max depends on the converter (1023 for a 10-bit ADC).
	// An unused pin always reads zero.
	ReadAnalog(p Pin) (int, error)

	// Close releases hardware resources.
	Close() error
}

// Clock returns monotonic milliseconds as a fixed-width counter. The counter
// wraps roughly every 49.7 days, so deadline comparisons must use
// wraparound-safe subtraction rather than plain ordering.
type Clock func() uint32

// NewClock returns a Clock counting milliseconds from the moment of the call.
func NewClock() Clock {
	start := time.Now()
	return func() uint32 {
		return uint32(time.Since(start).Milliseconds())
	}
}

// Default analog converter resolution (10-bit ADC).
const DefaultAnalogMax = 1023
