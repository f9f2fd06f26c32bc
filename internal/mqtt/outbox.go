package mqtt

import "log"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages while the broker is unreachable.
// Retained messages collapse to the latest per topic, since the broker would
// keep only that one; the rest queue in order, dropping the oldest when full.
// Not safe for concurrent use; the publisher serializes access.
type outbox struct {
	capacity int
	queue    []bufferedMsg
	retained map[string]bufferedMsg
	topics   []string // retained topics in first-seen order
	dropped  int
}

func newOutbox(capacity int) *outbox {
	if capacity < 1 {
		capacity = 1
	}
	return &outbox{capacity: capacity, retained: make(map[string]bufferedMsg)}
}

func (o *outbox) push(msg bufferedMsg) {
	if msg.retained {
		if _, ok := o.retained[msg.topic]; !ok {
			o.topics = append(o.topics, msg.topic)
		}
		o.retained[msg.topic] = msg
		return
	}
	if len(o.queue) == o.capacity {
		if o.dropped == 0 {
			log.Printf("mqtt: outbox full (%d messages), dropping oldest", o.capacity)
		}
		o.dropped++
		o.queue = o.queue[1:]
	}
	o.queue = append(o.queue, msg)
}

// drain empties the outbox, retained state first, and reports how many
// queued messages were lost to overflow.
func (o *outbox) drain() (msgs []bufferedMsg, dropped int) {
	for _, t := range o.topics {
		msgs = append(msgs, o.retained[t])
	}
	msgs = append(msgs, o.queue...)
	dropped = o.dropped

	o.queue = nil
	o.retained = make(map[string]bufferedMsg)
	o.topics = nil
	o.dropped = 0
	return msgs, dropped
}

func (o *outbox) len() int {
	return len(o.queue) + len(o.topics)
}
