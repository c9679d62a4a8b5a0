package logic

import (
	"fmt"

	"github.com/sweeney/people-detector/internal/hal"
)

// timerArm is the wait armed for the current state. A fresh one is built on
// every state entry and fully replaces its predecessor; it is never mutated
// across states.
type timerArm struct {
	deadline  uint32
	waiting   bool
	immediate bool // zero duration and no end pin: expired from the arm tick on
	endPin    hal.Pin
	effective uint32
}

// arm resolves cfg into a wait starting at now. The analog scale input is
// sampled exactly once, here — turning the knob changes only states entered
// afterwards.
func arm(cfg StateConfig, now uint32, hw hal.HAL, analogMax int) (timerArm, error) {
	ta := timerArm{endPin: cfg.EndPin}

	if cfg.DurationMillis == 0 {
		if cfg.EndPin.Used() {
			// Pure pin wait: time expiry never fires.
			return ta, nil
		}
		ta.waiting = true
		ta.immediate = true
		return ta, nil
	}

	eff := cfg.DurationMillis
	if cfg.ScalePin.Used() {
		raw, err := hw.ReadAnalog(cfg.ScalePin)
		if err != nil {
			return ta, fmt.Errorf("read scale input %s: %w", cfg.ScalePin, err)
		}
		eff = ScaleDuration(cfg.DurationMillis, raw, analogMax)
	}

	ta.waiting = true
	ta.effective = eff
	ta.deadline = now + eff
	return ta, nil
}

// expired reports whether the wait deadline has passed. The comparison is
// strict: a tick landing exactly on the deadline does not count. The signed
// subtraction keeps deadlines armed near the counter's maximum expiring
// correctly after rollover instead of immediately.
func (ta timerArm) expired(now uint32) bool {
	if !ta.waiting {
		return false
	}
	if ta.immediate {
		return true
	}
	return int32(now-ta.deadline) > 0
}

// ScaleDuration maps raw in [0, max] linearly onto [0, duration], in
// integer milliseconds. Out-of-range raw values are clamped.
func ScaleDuration(duration uint32, raw, max int) uint32 {
	if max <= 0 {
		return duration
	}
	if raw < 0 {
		raw = 0
	}
	if raw > max {
		raw = max
	}
	return uint32(uint64(duration) * uint64(raw) / uint64(max))
}
