// Command people-detector drives an animatronic prop from a PIR motion
// sensor through a fixed Ready/Delay/Fire/ReArm cycle, publishing
// transitions to MQTT and serving an HTTP status page.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/people-detector/internal/config"
	"github.com/sweeney/people-detector/internal/hal"
	"github.com/sweeney/people-detector/internal/logic"
	"github.com/sweeney/people-detector/internal/mqtt"
	"github.com/sweeney/people-detector/internal/status"
	"github.com/sweeney/people-detector/internal/web"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config file (baked-in defaults when empty)")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	poll := flag.Duration("poll", 0, "tick interval (overrides config)")
	heartbeat := flag.Duration("heartbeat", -1, "heartbeat interval, 0 disables (overrides config)")
	httpAddr := flag.String("http", "", "HTTP status address (overrides config)")
	iioDevice := flag.String("iio", "", "IIO device directory for the ADC (default autodetect)")
	printState := flag.Bool("print-state", false, "Print current pin readings and exit")
	tune := flag.Bool("tune", false, "Tuning mode: print knob-scaled waits until Enter is pressed")
	verbose := flag.Bool("verbose", false, "Trace every transition")

	flag.Parse()

	cfg, err := loadConfig(*cfgPath, *broker, *poll, *heartbeat, *httpAddr)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, *iioDevice, *printState, *tune, *verbose); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// loadConfig resolves the file config and applies flag overrides.
func loadConfig(path, broker string, poll, heartbeat time.Duration, httpAddr string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
	}

	if broker != "" {
		cfg.Broker = broker
	}
	if poll > 0 {
		cfg.PollMs = poll.Milliseconds()
	}
	if heartbeat >= 0 {
		cfg.HeartbeatMs = heartbeat.Milliseconds()
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	return cfg, cfg.Validate()
}

func run(cfg config.Config, iioDevice string, printState, tune, verbose bool) error {
	hw, err := hal.NewRealHAL(cfg.InputPins(), cfg.OutputPins(), iioDevice)
	if err != nil {
		return fmt.Errorf("init hal: %w", err)
	}
	defer hw.Close()

	states := cfg.StateConfigs()

	if printState {
		return printPins(os.Stdout, hw, cfg)
	}
	if tune {
		log.Printf("tuning mode: press Enter to exit")
		return runTune(os.Stdout, os.Stdin, hw, states, cfg.AnalogMax)
	}

	publisher := mqtt.NewRealPublisher(cfg.Broker)
	defer publisher.Close()

	startTime := time.Now()
	tracker := status.NewTracker(startTime, status.Config{
		PollMs:      cfg.PollMs,
		HeartbeatMs: cfg.HeartbeatMs,
		AnalogMax:   cfg.AnalogMax,
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTPAddr,
	})

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTPAddr)
	}

	pollInterval := time.Duration(cfg.PollMs) * time.Millisecond
	heartbeatInterval := time.Duration(cfg.HeartbeatMs) * time.Millisecond
	log.Printf("started: poll=%v heartbeat=%v broker=%s", pollInterval, heartbeatInterval, cfg.Broker)

	controller := logic.NewController(hw, states, config.Pin(cfg.ResetPin), cfg.AnalogMax, startTime)
	if verbose {
		controller.SetTrace(log.Default())
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(controller, hw, publisher, publisher, tracker, config.Pin(cfg.BlinkPin),
		heartbeatInterval, time.Now, hal.NewClock(), ticker.C, sigCh)
}

func runLoop(controller *logic.Controller, hw hal.HAL, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, blinkPin hal.Pin, heartbeat time.Duration, now func() time.Time, millis hal.Clock, tick <-chan time.Time, sig <-chan os.Signal) error {
	if err := controller.Start(millis()); err != nil {
		return fmt.Errorf("arm initial state: %w", err)
	}

	lastBlink := now()
	blinkHigh := false

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			prev := controller.State()

			ev, err := controller.Tick(millis())
			if err != nil {
				log.Printf("tick error: %v", err)
				continue
			}

			if ev != logic.EventNone {
				change := logic.Change{
					Timestamp: t,
					Event:     ev,
					From:      prev,
					To:        controller.State(),
					WaitMs:    controller.EffectiveWait(),
				}
				log.Printf("event: %s (%s -> %s)", change.Event, change.From, change.To)
				if err := publisher.Publish(change); err != nil {
					log.Printf("publish error: %v", err)
				}
			}

			if blinkPin.Used() && t.Sub(lastBlink) >= time.Second {
				blinkHigh = !blinkHigh
				lastBlink = t
				if err := hw.WriteDigital(blinkPin, blinkHigh); err != nil {
					log.Printf("blink write error: %v", err)
				}
			}

			if hbData := controller.CheckHeartbeat(t, heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v triggers=%d expiries=%d resets=%d cycles=%d",
					hbData.Uptime, hbData.Counts.Triggers, hbData.Counts.TimeExpiries,
					hbData.Counts.Resets, hbData.Counts.Cycles)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					if mqttStatus != nil {
						tracker.SetMQTTConnected(mqttStatus.IsConnected())
					}
					tracker.Update(controller.State(), controller.LastEvent(),
						controller.Waiting(), controller.EffectiveWait(), controller.CountsSnapshot())
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			if tracker != nil {
				tracker.Update(controller.State(), controller.LastEvent(),
					controller.Waiting(), controller.EffectiveWait(), controller.CountsSnapshot())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}
		}
	}
}

func levelString(high bool) string {
	if high {
		return "HIGH"
	}
	return "LOW"
}
