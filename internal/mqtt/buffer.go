package mqtt

import "log"

// queuedMsg stores a serialized MQTT message for replay after reconnection.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds undelivered messages, bounded by cap. When full, the oldest
// message is discarded for the newest: after a long outage the broker sees
// the most recent history. Callers must synchronize.
type outbox struct {
	msgs    []queuedMsg
	cap     int
	dropped int // messages discarded since the last drain
}

func newOutbox(capacity int) *outbox {
	return &outbox{cap: capacity}
}

// put queues a message, discarding the oldest one when the outbox is full.
func (o *outbox) put(msg queuedMsg) {
	if len(o.msgs) == o.cap {
		if o.dropped == 0 {
			log.Printf("mqtt: outbox full (%d messages), dropping oldest", o.cap)
		}
		o.dropped++
		copy(o.msgs, o.msgs[1:])
		o.msgs = o.msgs[:o.cap-1]
	}
	o.msgs = append(o.msgs, msg)
}

// take empties the outbox and returns its messages oldest-first.
func (o *outbox) take() []queuedMsg {
	if len(o.msgs) == 0 {
		return nil
	}
	msgs := o.msgs
	o.msgs = nil
	o.dropped = 0
	return msgs
}

func (o *outbox) len() int {
	return len(o.msgs)
}
