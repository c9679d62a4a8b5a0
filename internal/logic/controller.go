package logic

import (
	"fmt"
	"log"
	"time"

	"github.com/sweeney/people-detector/internal/hal"
)

// Controller owns the sequencer state and applies at most one transition per
// tick. All mutation happens from the single tick loop; there is no locking
// and no blocking wait — "waiting" is a stored deadline compared against the
// sampled clock, so indicators and reset stay responsive every tick.
type Controller struct {
	hw        hal.HAL
	configs   [NumStates]StateConfig
	resetPin  hal.Pin
	analogMax int
	trace     *log.Logger

	state     State
	lastEvent Event
	timer     timerArm
	counts    Counts

	startTime     time.Time
	lastHeartbeat time.Time
}

// NewController creates a Controller in Ready with the given per-state
// configuration. The reset pin may be unused; it then never fires.
// Start must be called before the first Tick.
func NewController(hw hal.HAL, configs [NumStates]StateConfig, resetPin hal.Pin, analogMax int, startTime time.Time) *Controller {
	if analogMax <= 0 {
		analogMax = hal.DefaultAnalogMax
	}
	return &Controller{
		hw:            hw,
		configs:       configs,
		resetPin:      resetPin,
		analogMax:     analogMax,
		state:         StateReady,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// SetTrace installs a diagnostics sink for per-transition tracing.
// A nil logger (the default) is silent; the core behaves identically either
// way.
func (c *Controller) SetTrace(l *log.Logger) {
	c.trace = l
}

// Start arms the wait for the initial Ready state and asserts its indicator.
func (c *Controller) Start(now uint32) error {
	ta, err := arm(c.configs[StateReady], now, c.hw, c.analogMax)
	if err != nil {
		return err
	}
	c.timer = ta
	if err := c.hw.WriteDigital(c.configs[StateReady].IndicatorPin, true); err != nil {
		return fmt.Errorf("assert %s indicator: %w", StateReady, err)
	}
	return nil
}

// Tick runs one arbitration pass and applies the winning event, if any.
//
// Priority, lowest to highest: timer expiry, armed end pin high, reset pin
// high. Later checks overwrite earlier ones, so reset always wins even when
// the timer and the trigger pin fire in the same tick. HAL read failures
// abort the tick and are returned to the harness with the sequencer
// unchanged: state, armed timer, and last event only commit together once
// the new state's wait has been armed.
func (c *Controller) Tick(now uint32) (Event, error) {
	ev := EventNone

	if c.timer.expired(now) {
		ev = EventTimeExpired
	}

	high, err := c.hw.ReadDigital(c.timer.endPin)
	if err != nil {
		return EventNone, fmt.Errorf("read end pin %s: %w", c.timer.endPin, err)
	}
	if high {
		ev = EventTrigger
	}

	high, err = c.hw.ReadDigital(c.resetPin)
	if err != nil {
		return EventNone, fmt.Errorf("read reset pin %s: %w", c.resetPin, err)
	}
	if high {
		ev = EventReset
	}

	if ev == EventNone {
		c.lastEvent = ev
		return ev, nil
	}
	if err := c.apply(Transition(c.state, ev), ev, now); err != nil {
		return EventNone, err
	}
	c.lastEvent = ev
	return ev, nil
}

// apply moves the sequencer to next. The wait for the new state is armed
// before anything is written or committed: arm only reads, so a failed
// analog sample leaves the current state, its timer, and its indicator
// intact, and the same event re-fires on a later tick. Output ordering is
// deliberate: every indicator goes off, then the new indicator comes on.
// Two indicators are never observably lit at once.
func (c *Controller) apply(next State, ev Event, now uint32) error {
	ta, err := arm(c.configs[next], now, c.hw, c.analogMax)
	if err != nil {
		return err
	}

	for i := range c.configs {
		if err := c.hw.WriteDigital(c.configs[i].IndicatorPin, false); err != nil {
			return fmt.Errorf("clear %s indicator: %w", State(i), err)
		}
	}

	prev := c.state
	c.state = next
	c.timer = ta

	if err := c.hw.WriteDigital(c.configs[next].IndicatorPin, true); err != nil {
		return fmt.Errorf("assert %s indicator: %w", next, err)
	}

	switch ev {
	case EventTrigger:
		c.counts.Triggers++
	case EventTimeExpired:
		c.counts.TimeExpiries++
	case EventReset:
		c.counts.Resets++
	}
	if prev == StateRearm && next == StateReady && ev != EventReset {
		c.counts.Cycles++
	}

	if c.trace != nil {
		c.trace.Printf("event=%q %s -> %s wait=%dms end=%s", ev, prev, next, ta.effective, ta.endPin)
	}
	return nil
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// LastEvent returns the event selected by the most recent tick.
func (c *Controller) LastEvent() Event {
	return c.lastEvent
}

// Waiting reports whether a time expiry is armed for the current state.
func (c *Controller) Waiting() bool {
	return c.timer.waiting
}

// EffectiveWait returns the wait armed for the current state, in
// milliseconds, after any analog scaling. Zero for pure pin waits.
func (c *Controller) EffectiveWait() uint32 {
	return c.timer.effective
}

// CountsSnapshot returns the transition counters.
func (c *Controller) CountsSnapshot() Counts {
	return c.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since
// the last heartbeat (or startup). Returns nil if the interval has not
// elapsed or is <= 0 (disabled).
func (c *Controller) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}

	c.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		Counts:    c.counts,
	}
}
