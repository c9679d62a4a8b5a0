// Package status provides a thread-safe status tracker for the
// people-detector daemon. It is read by HTTP handlers and serialized into
// MQTT system events; the tick loop writes it once per tick.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/people-detector/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	HeartbeatMs int64
	AnalogMax   int
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	State         logic.State
	LastEvent     logic.Event
	Waiting       bool   // a time expiry is armed for the current state
	WaitMs        uint32 // effective wait armed at state entry
	Counts        logic.Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets sequencer state, wait info, and transition counts.
// Called from runLoop on every tick.
func (t *Tracker) Update(state logic.State, lastEvent logic.Event, waiting bool, waitMs uint32, counts logic.Counts) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.LastEvent = lastEvent
	t.snap.Waiting = waiting
	t.snap.WaitMs = waitMs
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
