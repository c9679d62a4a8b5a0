package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sweeney/people-detector/internal/logic"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "detector.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
poll_ms: 50
broker: tcp://10.0.0.5:1883
states:
  fire:
    duration_ms: 750
    indicator_pin: 13
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollMs != 50 {
		t.Errorf("poll_ms = %d, want 50", cfg.PollMs)
	}
	if cfg.Broker != "tcp://10.0.0.5:1883" {
		t.Errorf("broker = %q", cfg.Broker)
	}
	if cfg.States.Fire.DurationMs != 750 {
		t.Errorf("fire duration = %d, want 750", cfg.States.Fire.DurationMs)
	}
	// Untouched keys keep defaults.
	if cfg.States.Delay.DurationMs != 10000 {
		t.Errorf("delay duration = %d, want default 10000", cfg.States.Delay.DurationMs)
	}
	if cfg.ResetPin == nil || *cfg.ResetPin != 27 {
		t.Errorf("reset pin lost its default: %v", cfg.ResetPin)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, "states: [not a map]")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidateRejectsAliasedPins(t *testing.T) {
	cfg := Default()
	// Point the Fire indicator at the PIR sensor line.
	pir := *cfg.States.Ready.EndPin
	cfg.States.Fire.IndicatorPin = &pir

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected aliasing error")
	}
	if !strings.Contains(err.Error(), "assigned to both") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateAllowsSharedScaleChannel(t *testing.T) {
	cfg := Default()
	knob := 0
	cfg.States.Fire.ScalePin = &knob
	cfg.States.Delay.ScalePin = &knob

	if err := cfg.Validate(); err != nil {
		t.Errorf("shared scale channel should be valid: %v", err)
	}
}

func TestValidateRejectsBadPoll(t *testing.T) {
	cfg := Default()
	cfg.PollMs = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for poll_ms = 0")
	}
}

func TestStateConfigs(t *testing.T) {
	cfg := Default()
	states := cfg.StateConfigs()

	ready := states[logic.StateReady]
	if ready.DurationMillis != 0 {
		t.Errorf("ready duration = %d, want 0", ready.DurationMillis)
	}
	if !ready.EndPin.Used() || ready.EndPin.Number() != 17 {
		t.Errorf("ready end pin = %v, want GPIO17", ready.EndPin)
	}
	if ready.ScalePin.Used() {
		t.Error("ready scale pin should be unused")
	}

	delay := states[logic.StateDelay]
	if delay.DurationMillis != 10000 || !delay.ScalePin.Used() {
		t.Errorf("delay config wrong: %+v", delay)
	}
	if delay.EndPin.Used() {
		t.Error("delay end pin should be unused")
	}
}

func TestPinLists(t *testing.T) {
	cfg := Default()

	inputs := cfg.InputPins()
	wired := 0
	for _, p := range inputs {
		if p.Used() {
			wired++
		}
	}
	// Reset pin plus the PIR end pin.
	if wired != 2 {
		t.Errorf("wired inputs = %d, want 2", wired)
	}

	outputs := cfg.OutputPins()
	wired = 0
	for _, p := range outputs {
		if p.Used() {
			wired++
		}
	}
	// Blink pin plus four indicators.
	if wired != 5 {
		t.Errorf("wired outputs = %d, want 5", wired)
	}
}
