//go:build linux

package hal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// DefaultIIODevice is where the kernel exposes the first IIO ADC
// (e.g. an MCP3008 bound through the mcp320x driver).
const DefaultIIODevice = "/sys/bus/iio/devices/iio:device0"

// RealHAL drives actual hardware: GPIO lines through the Linux character
// device and analog channels through IIO sysfs.
type RealHAL struct {
	chip      *gpiocdev.Chip
	inputs    map[int]*gpiocdev.Line
	outputs   map[int]*gpiocdev.Line
	iioDevice string
}

// NewRealHAL opens gpiochip0 and requests every wired pin up front: inputs
// with pull-down (a floating sensor line must read low, matching Pi boot
// defaults), outputs driven low. Unused pins in either list are skipped.
func NewRealHAL(inputs, outputs []Pin, iioDevice string) (*RealHAL, error) {
	if iioDevice == "" {
		iioDevice = DefaultIIODevice
	}

	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	h := &RealHAL{
		chip:      chip,
		inputs:    make(map[int]*gpiocdev.Line),
		outputs:   make(map[int]*gpiocdev.Line),
		iioDevice: iioDevice,
	}

	for _, p := range inputs {
		if !p.Used() {
			continue
		}
		line, err := chip.RequestLine(p.Number(), gpiocdev.AsInput, gpiocdev.WithPullDown)
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("request input %s: %w", p, err)
		}
		h.inputs[p.Number()] = line
	}

	for _, p := range outputs {
		if !p.Used() {
			continue
		}
		line, err := chip.RequestLine(p.Number(), gpiocdev.AsOutput(0))
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("request output %s: %w", p, err)
		}
		h.outputs[p.Number()] = line
	}

	return h, nil
}

// ReadDigital returns the level of an input line. Unused pins read low.
func (h *RealHAL) ReadDigital(p Pin) (bool, error) {
	if !p.Used() {
		return false, nil
	}
	line, ok := h.inputs[p.Number()]
	if !ok {
		return false, fmt.Errorf("read %s: line not requested as input", p)
	}
	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read %s: %w", p, err)
	}
	return v != 0, nil
}

// WriteDigital drives an output line. Unused pins are a no-op.
func (h *RealHAL) WriteDigital(p Pin, high bool) error {
	if !p.Used() {
		return nil
	}
	line, ok := h.outputs[p.Number()]
	if !ok {
		return fmt.Errorf("write %s: line not requested as output", p)
	}
	v := 0
	if high {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

// ReadAnalog reads a raw ADC value from the IIO voltage channel matching the
// pin number. Unused pins read zero.
func (h *RealHAL) ReadAnalog(p Pin) (int, error) {
	if !p.Used() {
		return 0, nil
	}
	path := filepath.Join(h.iioDevice, fmt.Sprintf("in_voltage%d_raw", p.Number()))
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read analog channel %d: %w", p.Number(), err)
	}
	raw, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse analog channel %d: %w", p.Number(), err)
	}
	return raw, nil
}

// Close drives every output low, reconfigures all lines to input with
// pull-down (matching Pi boot defaults) and releases them.
func (h *RealHAL) Close() error {
	var errs []error

	for n, line := range h.outputs {
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear output GPIO%d: %w", n, err))
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure output GPIO%d: %w", n, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output GPIO%d: %w", n, err))
		}
	}
	for n, line := range h.inputs {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input GPIO%d: %w", n, err))
		}
	}
	if h.chip != nil {
		if err := h.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
