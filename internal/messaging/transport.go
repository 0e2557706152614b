package messaging

import "context"

// Message is one unit of at-least-once delivery. ReceiveCount starts at 1 on
// first delivery and grows with every redelivery.
type Message struct {
	ID           string
	Body         []byte
	Attributes   map[string]string
	ReceiveCount int
}

// Handler processes a single delivered message. A non-nil error tells the
// transport to redeliver the message (and eventually dead-letter it); the
// handler itself never retries.
type Handler func(ctx context.Context, msg Message) error

// TopicPublisher publishes a payload to a pub/sub topic with routable
// attributes for subscriber-side filtering. Delivery is at-least-once with no
// ordering guarantee.
type TopicPublisher interface {
	Publish(ctx context.Context, topic string, payload []byte, attrs map[string]string) error
}

// Entry is one event handed to the routed bus.
type Entry struct {
	Source     string
	DetailType string
	Detail     []byte
}

// EntryResult reports the per-entry outcome of a PutEvents call. Partial
// failure is possible and must be checked by the publisher.
type EntryResult struct {
	EntryID string
	Err     error
}

// Bus is the routed event bus that fans completion signals back to the
// reconciler. Consumers receive entries wrapped in a BusEnvelope.
type Bus interface {
	PutEvents(ctx context.Context, bus string, entries []Entry) ([]EntryResult, error)
}
