// Package logic contains the sequencer core: state machine, wait timer, and
// per-tick event arbitration. It touches hardware only through hal.HAL and
// takes time as a parameter, so it tests without a device.
package logic

import (
	"fmt"
	"time"

	"github.com/sweeney/people-detector/internal/hal"
)

// State is one step of the fixed firing cycle.
type State int

const (
	StateReady State = iota
	StateDelay
	StateFire
	StateRearm

	// NumStates is the cycle length.
	NumStates = 4
)

var stateNames = [NumStates]string{"Ready", "Delay", "Fire", "ReArm"}

func (s State) String() string {
	if s < StateReady || s > StateRearm {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Next returns the state that follows s in the cycle.
func (s State) Next() State {
	return (s + 1) % NumStates
}

// Event is the single input acted on in a tick. At most one non-None event
// is produced per tick; events are never queued.
type Event int

const (
	EventNone Event = iota
	EventTrigger
	EventTimeExpired
	EventReset
)

var eventNames = [...]string{"None", "Trigger", "End Time", "Reset"}

func (e Event) String() string {
	if e < EventNone || e > EventReset {
		return fmt.Sprintf("Event(%d)", int(e))
	}
	return eventNames[e]
}

// StateConfig fixes a state's wait behavior at configuration time.
type StateConfig struct {
	// DurationMillis is the fixed wait. Zero with no EndPin means the state
	// is passed through immediately; zero with an EndPin means the state
	// waits on the pin alone.
	DurationMillis uint32

	// ScalePin, when wired, scales DurationMillis by the analog reading
	// taken once at state entry.
	ScalePin hal.Pin

	// EndPin, when wired, ends the state when it reads high. With a nonzero
	// duration the pin and the timer race.
	EndPin hal.Pin

	// IndicatorPin, when wired, is held high while the state is current.
	IndicatorPin hal.Pin
}

// Change describes one applied transition, for logging and telemetry.
// Timestamp is filled in by the caller, which owns the wall clock.
type Change struct {
	Timestamp time.Time
	Event     Event
	From      State
	To        State
	WaitMs    uint32 // effective wait armed for the new state
}

// Counts tracks transitions since startup.
type Counts struct {
	Triggers     int
	TimeExpiries int
	Resets       int
	Cycles       int // completed ReArm -> Ready wraps
}

// HeartbeatData carries periodic telemetry.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}
