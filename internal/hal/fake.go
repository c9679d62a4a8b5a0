package hal

import "sync"

// FakeHAL is a test double with settable input levels and a record of every
// output write, in order. Methods take an internal lock, so a test may set
// inputs while a loop goroutine reads them; direct field access is only safe
// before the loop starts or after it stops.
type FakeHAL struct {
	mu sync.Mutex

	// Digital holds input levels by pin number. Missing entries read low.
	Digital map[int]bool

	// Analog holds raw ADC values by channel number. Missing entries read zero.
	Analog map[int]int

	// Writes records every WriteDigital call on a wired pin.
	Writes []Write

	// ReadError, if set, is returned by ReadDigital and ReadAnalog on wired pins.
	ReadError error

	// WriteError, if set, is returned by WriteDigital on wired pins.
	WriteError error

	// Closed tracks if Close was called.
	Closed bool
}

// Write is one recorded output transition.
type Write struct {
	Pin  Pin
	High bool
}

// NewFakeHAL creates a FakeHAL with all inputs low.
func NewFakeHAL() *FakeHAL {
	return &FakeHAL{
		Digital: make(map[int]bool),
		Analog:  make(map[int]int),
	}
}

// SetDigital sets an input level.
func (f *FakeHAL) SetDigital(n int, high bool) {
	f.mu.Lock()
	f.Digital[n] = high
	f.mu.Unlock()
}

// SetAnalog sets a raw ADC value.
func (f *FakeHAL) SetAnalog(n, raw int) {
	f.mu.Lock()
	f.Analog[n] = raw
	f.mu.Unlock()
}

// SetReadError arms or clears the read error.
func (f *FakeHAL) SetReadError(err error) {
	f.mu.Lock()
	f.ReadError = err
	f.mu.Unlock()
}

// SetWriteError arms or clears the write error.
func (f *FakeHAL) SetWriteError(err error) {
	f.mu.Lock()
	f.WriteError = err
	f.mu.Unlock()
}

// ReadDigital returns the scripted level. Unused pins read low, bypassing
// ReadError — an unwired pin can never fail.
func (f *FakeHAL) ReadDigital(p Pin) (bool, error) {
	if !p.Used() {
		return false, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return false, f.ReadError
	}
	return f.Digital[p.Number()], nil
}

// WriteDigital records the write. Unused pins are a no-op and never recorded.
func (f *FakeHAL) WriteDigital(p Pin, high bool) error {
	if !p.Used() {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, Write{Pin: p, High: high})
	return nil
}

// ReadAnalog returns the scripted raw value. Unused pins read zero.
func (f *FakeHAL) ReadAnalog(p Pin) (int, error) {
	if !p.Used() {
		return 0, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	return f.Analog[p.Number()], nil
}

// Close marks the HAL as closed.
func (f *FakeHAL) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Level returns the last written level of a pin and whether it was ever
// written.
func (f *FakeHAL) Level(n int) (high, written bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.Writes) - 1; i >= 0; i-- {
		if f.Writes[i].Pin.Number() == n {
			return f.Writes[i].High, true
		}
	}
	return false, false
}

// ResetWrites clears the write record, keeping input levels.
func (f *FakeHAL) ResetWrites() {
	f.mu.Lock()
	f.Writes = nil
	f.mu.Unlock()
}
