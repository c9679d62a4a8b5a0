package internal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sweeney/people-detector/internal/hal"
	"github.com/sweeney/people-detector/internal/logic"
	"github.com/sweeney/people-detector/internal/mqtt"
	"github.com/sweeney/people-detector/internal/status"
)

const (
	pinPIR      = 17
	pinReset    = 27
	pinKnob     = 0
	pinReadyLED = 5
	pinDelayLED = 6
	pinFireLED  = 13
	pinRearmLED = 19
)

func deployment() [logic.NumStates]logic.StateConfig {
	return [logic.NumStates]logic.StateConfig{
		logic.StateReady: {EndPin: hal.GPIO(pinPIR), IndicatorPin: hal.GPIO(pinReadyLED)},
		logic.StateDelay: {DurationMillis: 10000, ScalePin: hal.GPIO(pinKnob), IndicatorPin: hal.GPIO(pinDelayLED)},
		logic.StateFire:  {DurationMillis: 500, IndicatorPin: hal.GPIO(pinFireLED)},
		logic.StateRearm: {DurationMillis: 30000, IndicatorPin: hal.GPIO(pinRearmLED)},
	}
}

// TestIntegrationFiringSequence runs the whole pipeline on fakes: PIR pulse
// -> knob-scaled delay -> firing window -> rearm -> manual reset, checking
// the MQTT payloads and indicator pins at each step.
func TestIntegrationFiringSequence(t *testing.T) {
	hw := hal.NewFakeHAL()
	hw.SetAnalog(pinKnob, 511) // 10000ms scales to 4995ms

	publisher := mqtt.NewFakePublisher()
	startTime := time.Date(2026, 10, 31, 18, 0, 0, 0, time.UTC)
	controller := logic.NewController(hw, deployment(), hal.GPIO(pinReset), 1023, startTime)
	tracker := status.NewTracker(startTime, status.Config{Broker: "tcp://test:1883"})

	if err := controller.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}

	const poll = 20 // ms per tick
	pirHigh := false
	resetHigh := false

	// tickUntil runs the loop body up to the given time and returns every
	// change, mirroring cmd/people-detector's runLoop.
	now := uint32(0)
	tickUntil := func(end uint32) []logic.Change {
		t.Helper()
		var changes []logic.Change
		for now+poll <= end {
			now += poll
			hw.SetDigital(pinPIR, pirHigh)
			hw.SetDigital(pinReset, resetHigh)

			prev := controller.State()
			ev, err := controller.Tick(now)
			if err != nil {
				t.Fatalf("tick %d: %v", now, err)
			}
			if ev == logic.EventNone {
				continue
			}
			change := logic.Change{
				Timestamp: startTime.Add(time.Duration(now) * time.Millisecond),
				Event:     ev,
				From:      prev,
				To:        controller.State(),
				WaitMs:    controller.EffectiveWait(),
			}
			if err := publisher.Publish(change); err != nil {
				t.Fatalf("tick %d: publish: %v", now, err)
			}
			tracker.Update(controller.State(), controller.LastEvent(),
				controller.Waiting(), controller.EffectiveWait(), controller.CountsSnapshot())
			changes = append(changes, change)
		}
		return changes
	}

	// Five seconds of nothing.
	if got := tickUntil(5000); len(got) != 0 {
		t.Fatalf("idle period produced %d changes", len(got))
	}
	if high, _ := hw.Level(pinReadyLED); !high {
		t.Fatal("Ready indicator should be lit while idle")
	}

	// PIR fires at t=5000ms.
	pirHigh = true
	got := tickUntil(5020)
	pirHigh = false
	if len(got) != 1 || got[0].Event != logic.EventTrigger || got[0].To != logic.StateDelay {
		t.Fatalf("PIR pulse: got %+v", got)
	}
	if got[0].WaitMs != 4995 {
		t.Fatalf("delay wait = %dms, want 4995", got[0].WaitMs)
	}
	if high, _ := hw.Level(pinReadyLED); high {
		t.Error("Ready indicator still lit in Delay")
	}
	if high, _ := hw.Level(pinDelayLED); !high {
		t.Error("Delay indicator not lit")
	}

	// Delay expires 4995ms after entry (entered at t=5020).
	got = tickUntil(5020 + 4995)
	if len(got) != 0 {
		t.Fatalf("delay ended early: %+v", got)
	}
	got = tickUntil(5020 + 4995 + poll)
	if len(got) != 1 || got[0].Event != logic.EventTimeExpired || got[0].To != logic.StateFire {
		t.Fatalf("delay expiry: got %+v", got)
	}
	fireEntry := now

	// Fire runs its 500ms window, then rearms.
	got = tickUntil(fireEntry + 500)
	if len(got) != 0 {
		t.Fatalf("fire ended early: %+v", got)
	}
	got = tickUntil(fireEntry + 500 + poll)
	if len(got) != 1 || got[0].To != logic.StateRearm {
		t.Fatalf("fire expiry: got %+v", got)
	}

	// Operator reset cuts ReArm short.
	resetHigh = true
	got = tickUntil(now + poll)
	resetHigh = false
	if len(got) != 1 || got[0].Event != logic.EventReset || got[0].To != logic.StateReady {
		t.Fatalf("reset: got %+v", got)
	}

	// Published payloads are well-formed JSON with the expected shape.
	if len(publisher.Payloads) != 4 {
		t.Fatalf("published %d payloads, want 4", len(publisher.Payloads))
	}
	var first mqtt.Payload
	if err := json.Unmarshal(publisher.Payloads[0], &first); err != nil {
		t.Fatalf("payload 0: %v", err)
	}
	if first.Detector.From != "Ready" || first.Detector.To != "Delay" || first.Detector.Event != "Trigger" {
		t.Errorf("payload 0 = %+v", first.Detector)
	}

	snap := tracker.Snapshot()
	if snap.State != logic.StateReady {
		t.Errorf("tracker state = %s, want Ready", snap.State)
	}
	counts := snap.Counts
	if counts.Triggers != 1 || counts.TimeExpiries != 2 || counts.Resets != 1 {
		t.Errorf("counts = %+v", counts)
	}
}

// TestIntegrationResetStarvation checks the safety property end to end: a
// held reset button wins every tick even while the PIR is held high and
// timers keep expiring.
func TestIntegrationResetStarvation(t *testing.T) {
	configs := deployment()
	// Give Ready a short timer racing its end pin.
	configs[logic.StateReady].DurationMillis = 40

	hw := hal.NewFakeHAL()
	hw.SetAnalog(pinKnob, 1023)
	controller := logic.NewController(hw, configs, hal.GPIO(pinReset), 1023,
		time.Date(2026, 10, 31, 18, 0, 0, 0, time.UTC))
	if err := controller.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}

	hw.SetDigital(pinPIR, true)
	hw.SetDigital(pinReset, true)

	for now := uint32(20); now <= 400; now += 20 {
		ev, err := controller.Tick(now)
		if err != nil {
			t.Fatalf("tick %d: %v", now, err)
		}
		if ev != logic.EventReset {
			t.Fatalf("tick %d: got %s, want Reset", now, ev)
		}
		if controller.State() != logic.StateReady {
			t.Fatalf("tick %d: state %s, want Ready", now, controller.State())
		}
	}
}

// TestIntegrationStatusSnapshot checks that the status JSON published with
// system events reflects the live sequencer.
func TestIntegrationStatusSnapshot(t *testing.T) {
	hw := hal.NewFakeHAL()
	hw.SetAnalog(pinKnob, 1023)
	startTime := time.Date(2026, 10, 31, 18, 0, 0, 0, time.UTC)
	controller := logic.NewController(hw, deployment(), hal.GPIO(pinReset), 1023, startTime)
	tracker := status.NewTracker(startTime, status.Config{Broker: "tcp://test:1883"})
	publisher := mqtt.NewFakePublisher()

	if err := controller.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	hw.SetDigital(pinPIR, true)
	if _, err := controller.Tick(20); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	tracker.Update(controller.State(), controller.LastEvent(),
		controller.Waiting(), controller.EffectiveWait(), controller.CountsSnapshot())

	snap := tracker.Snapshot()
	err := publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
	})
	if err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}

	var got status.StatusJSON
	if err := json.Unmarshal(publisher.SystemPayloads[0], &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Status.Event != "HEARTBEAT" {
		t.Errorf("event = %q", got.Status.Event)
	}
	if got.Status.State != "Delay" {
		t.Errorf("state = %q, want Delay", got.Status.State)
	}
	if got.Status.WaitMs != 10000 {
		t.Errorf("wait_ms = %d, want 10000", got.Status.WaitMs)
	}
	if got.Status.Counts.Triggers != 1 {
		t.Errorf("triggers = %d, want 1", got.Status.Counts.Triggers)
	}
}
