// Package mqtt publishes sequencer telemetry with abstraction for testing.
// The broker is outbound-only: nothing here feeds back into the tick loop.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/people-detector/internal/logic"
)

// Topic is the MQTT topic for state transition events.
const Topic = "props/detector/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "props/detector/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a state transition to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(change logic.Change) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Detector DetectorPayload `json:"detector"`
}

// DetectorPayload contains the transition details.
type DetectorPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	From      string `json:"from"`
	To        string `json:"to"`
	WaitMs    uint32 `json:"wait_ms"`
}

// FormatPayload creates the JSON payload for a transition event.
func FormatPayload(change logic.Change) ([]byte, error) {
	payload := Payload{
		Detector: DetectorPayload{
			Timestamp: change.Timestamp.UTC().Format(time.RFC3339),
			Event:     change.Event.String(),
			From:      change.From.String(),
			To:        change.To.String(),
			WaitMs:    change.WaitMs,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
