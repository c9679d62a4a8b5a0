// Package config loads the per-deployment pin map and timings from YAML.
// The sequencer core treats everything here as immutable once the tick loop
// starts.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/people-detector/internal/hal"
	"github.com/sweeney/people-detector/internal/logic"
)

// Config is the full deployment configuration. Pin fields are pointers so
// that an absent key means "not wired" rather than GPIO0.
type Config struct {
	PollMs      int64  `yaml:"poll_ms"`
	HeartbeatMs int64  `yaml:"heartbeat_ms"`
	Broker      string `yaml:"broker"`
	HTTPAddr    string `yaml:"http_addr"`
	AnalogMax   int    `yaml:"analog_max"`

	ResetPin *int `yaml:"reset_pin"`
	BlinkPin *int `yaml:"blink_pin"`

	States States `yaml:"states"`
}

// States holds the per-state wait configuration, in cycle order.
type States struct {
	Ready StateConfig `yaml:"ready"`
	Delay StateConfig `yaml:"delay"`
	Fire  StateConfig `yaml:"fire"`
	Rearm StateConfig `yaml:"rearm"`
}

// StateConfig configures one state's wait and indicator.
type StateConfig struct {
	DurationMs   uint32 `yaml:"duration_ms"`
	EndPin       *int   `yaml:"end_pin"`
	ScalePin     *int   `yaml:"scale_pin"`
	IndicatorPin *int   `yaml:"indicator_pin"`
}

// Default returns the reference deployment: Ready waits on the PIR motion
// sensor (the trigger), Delay is scaled by the knob on ADC channel 0, Fire
// and ReArm run on fixed timers.
func Default() Config {
	pir := 17
	reset := 27
	blink := 22
	knob := 0
	readyLED, delayLED, fireLED, rearmLED := 5, 6, 13, 19

	return Config{
		PollMs:      20,
		HeartbeatMs: (15 * time.Minute).Milliseconds(),
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
		AnalogMax:   hal.DefaultAnalogMax,
		ResetPin:    &reset,
		BlinkPin:    &blink,
		States: States{
			Ready: StateConfig{EndPin: &pir, IndicatorPin: &readyLED},
			Delay: StateConfig{DurationMs: 10000, ScalePin: &knob, IndicatorPin: &delayLED},
			Fire:  StateConfig{DurationMs: 500, IndicatorPin: &fireLED},
			Rearm: StateConfig{DurationMs: 30000, IndicatorPin: &rearmLED},
		},
	}
}

// Load reads a YAML config file. Keys absent from the file keep their
// Default() values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects inconsistent deployments. Digital pins (reset, blink,
// end pins, indicators) must be pairwise distinct — an indicator aliasing a
// sensor line would fight the input. Scale pins are ADC channels in a
// separate namespace and may be shared between states.
func (c Config) Validate() error {
	if c.PollMs <= 0 {
		return fmt.Errorf("poll_ms must be positive, got %d", c.PollMs)
	}
	if c.AnalogMax <= 0 {
		return fmt.Errorf("analog_max must be positive, got %d", c.AnalogMax)
	}

	seen := map[int]string{}
	claim := func(p *int, role string) error {
		if p == nil {
			return nil
		}
		if prev, ok := seen[*p]; ok {
			return fmt.Errorf("pin %d assigned to both %s and %s", *p, prev, role)
		}
		seen[*p] = role
		return nil
	}

	if err := claim(c.ResetPin, "reset"); err != nil {
		return err
	}
	if err := claim(c.BlinkPin, "blink"); err != nil {
		return err
	}
	for name, sc := range map[string]StateConfig{
		"ready": c.States.Ready,
		"delay": c.States.Delay,
		"fire":  c.States.Fire,
		"rearm": c.States.Rearm,
	} {
		if err := claim(sc.EndPin, name+" end"); err != nil {
			return err
		}
		if err := claim(sc.IndicatorPin, name+" indicator"); err != nil {
			return err
		}
	}
	return nil
}

// Pin converts an optional YAML pin into a hal.Pin.
func Pin(p *int) hal.Pin {
	if p == nil {
		return hal.Unused
	}
	return hal.GPIO(*p)
}

// StateConfigs returns the per-state configuration in the core's form.
func (c Config) StateConfigs() [logic.NumStates]logic.StateConfig {
	conv := func(sc StateConfig) logic.StateConfig {
		return logic.StateConfig{
			DurationMillis: sc.DurationMs,
			EndPin:         Pin(sc.EndPin),
			ScalePin:       Pin(sc.ScalePin),
			IndicatorPin:   Pin(sc.IndicatorPin),
		}
	}
	return [logic.NumStates]logic.StateConfig{
		logic.StateReady: conv(c.States.Ready),
		logic.StateDelay: conv(c.States.Delay),
		logic.StateFire:  conv(c.States.Fire),
		logic.StateRearm: conv(c.States.Rearm),
	}
}

// InputPins lists every digital input the HAL must request: per-state end
// pins and the reset pin.
func (c Config) InputPins() []hal.Pin {
	pins := []hal.Pin{Pin(c.ResetPin)}
	for _, sc := range []StateConfig{c.States.Ready, c.States.Delay, c.States.Fire, c.States.Rearm} {
		pins = append(pins, Pin(sc.EndPin))
	}
	return pins
}

// OutputPins lists every digital output: per-state indicators and the blink
// pin.
func (c Config) OutputPins() []hal.Pin {
	pins := []hal.Pin{Pin(c.BlinkPin)}
	for _, sc := range []StateConfig{c.States.Ready, c.States.Delay, c.States.Fire, c.States.Rearm} {
		pins = append(pins, Pin(sc.IndicatorPin))
	}
	return pins
}
