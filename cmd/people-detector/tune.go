package main

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/sweeney/people-detector/internal/config"
	"github.com/sweeney/people-detector/internal/hal"
	"github.com/sweeney/people-detector/internal/logic"
)

// printPins reads every wired input once and prints it, for wiring checks.
func printPins(out io.Writer, hw hal.HAL, cfg config.Config) error {
	for _, role := range []struct {
		name string
		pin  hal.Pin
	}{
		{"reset", config.Pin(cfg.ResetPin)},
		{"ready end", config.Pin(cfg.States.Ready.EndPin)},
		{"delay end", config.Pin(cfg.States.Delay.EndPin)},
		{"fire end", config.Pin(cfg.States.Fire.EndPin)},
		{"rearm end", config.Pin(cfg.States.Rearm.EndPin)},
	} {
		if !role.pin.Used() {
			continue
		}
		high, err := hw.ReadDigital(role.pin)
		if err != nil {
			return fmt.Errorf("read %s pin: %w", role.name, err)
		}
		fmt.Fprintf(out, "%s (%s): %s\n", role.name, role.pin, levelString(high))
	}

	states := cfg.StateConfigs()
	for i, sc := range states {
		if !sc.ScalePin.Used() {
			continue
		}
		raw, err := hw.ReadAnalog(sc.ScalePin)
		if err != nil {
			return fmt.Errorf("read %s scale input: %w", logic.State(i), err)
		}
		fmt.Fprintf(out, "%s scale (%s): raw=%d\n", logic.State(i), sc.ScalePin, raw)
	}
	return nil
}

// runTune is the operator tuning mode: every half second it prints the
// knob-scaled wait each analog-scaled state would arm, until anything
// arrives on in. It runs instead of the tick loop, never alongside it.
func runTune(out io.Writer, in io.Reader, hw hal.HAL, states [logic.NumStates]logic.StateConfig, analogMax int) error {
	stop := make(chan struct{})
	go func() {
		bufio.NewReader(in).ReadString('\n')
		close(stop)
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return nil
		case <-ticker.C:
			if err := printWaits(out, hw, states, analogMax); err != nil {
				return err
			}
		}
	}
}

func printWaits(out io.Writer, hw hal.HAL, states [logic.NumStates]logic.StateConfig, analogMax int) error {
	for i, sc := range states {
		if !sc.ScalePin.Used() {
			continue
		}
		raw, err := hw.ReadAnalog(sc.ScalePin)
		if err != nil {
			return fmt.Errorf("read %s scale input: %w", logic.State(i), err)
		}
		eff := logic.ScaleDuration(sc.DurationMillis, raw, analogMax)
		fmt.Fprintf(out, "%s: raw=%d wait=%dms (max %dms)\n",
			logic.State(i), raw, eff, sc.DurationMillis)
	}
	return nil
}
