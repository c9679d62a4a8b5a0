package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/people-detector/internal/logic"
)

// bufferCapacity bounds the offline replay queue. At one transition per
// second this is over four minutes of outage.
const bufferCapacity = 256

// RealPublisher publishes to an actual MQTT broker. While the broker is
// unreachable, messages queue in a bounded outbox and drain on reconnect, so a
// broker restart does not lose a firing sequence.
type RealPublisher struct {
	client paho.Client

	mu    sync.Mutex
	queue *outbox
}

// NewRealPublisher creates a publisher for the given broker. Connection is
// established in the background and retried forever; publishing before the
// first connect just queues.
func NewRealPublisher(broker string) *RealPublisher {
	p := &RealPublisher{queue: newOutbox(bufferCapacity)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("people-detector").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect)

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

// Publish sends a transition event, QoS 0 (at-most-once), not retained.
func (p *RealPublisher) Publish(change logic.Change) error {
	payload, err := FormatPayload(change)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.send(Topic, payload, 0, false)
}

// PublishSystem sends a lifecycle event, QoS 1 — startup and shutdown must
// not be silently dropped.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.send(TopicSystem, payload, 1, event.Retained)
}

func (p *RealPublisher) send(topic string, payload []byte, qos byte, retained bool) error {
	if !p.client.IsConnected() {
		p.enqueue(topic, payload, qos, retained)
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		p.enqueue(topic, payload, qos, retained)
		return fmt.Errorf("publish timeout, message queued")
	}
	if err := token.Error(); err != nil {
		p.enqueue(topic, payload, qos, retained)
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (p *RealPublisher) enqueue(topic string, payload []byte, qos byte, retained bool) {
	p.mu.Lock()
	p.queue.put(queuedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
	p.mu.Unlock()
}

// onConnect replays queued messages oldest-first. Runs on paho's callback
// goroutine.
func (p *RealPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	msgs := p.queue.take()
	p.mu.Unlock()

	for _, m := range msgs {
		token := client.Publish(m.topic, m.qos, m.retained, m.payload)
		token.WaitTimeout(5 * time.Second)
	}
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// QueuedMessages returns the number of messages waiting for reconnect.
func (p *RealPublisher) QueuedMessages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // milliseconds to flush in-flight messages
	return nil
}
