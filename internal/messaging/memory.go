package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insuhealth/appointment-service/internal/metrics"
)

const queueBuffer = 256

// memQueue is a channel-backed queue with its own dead-letter holding area.
type memQueue struct {
	name string
	ch   chan Message

	mu   sync.Mutex
	dead []Message
}

type topicBinding struct {
	queue  *memQueue
	filter map[string]string
}

// MemoryTransport is the in-process event transport. Topics fan out to
// attribute-filtered queues, the routed bus wraps entries in a BusEnvelope,
// and failed deliveries are retried until MaxReceive then dead-lettered.
// Delivery is at-least-once; no ordering is guaranteed across messages.
type MemoryTransport struct {
	mu     sync.Mutex
	queues map[string]*memQueue
	topics map[string][]topicBinding
	buses  map[string][]*memQueue

	maxReceive int
	logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ TopicPublisher = (*MemoryTransport)(nil)
var _ Bus = (*MemoryTransport)(nil)

// NewMemoryTransport creates an empty transport. maxReceive bounds deliveries
// per message before it is moved to the queue's dead-letter area.
func NewMemoryTransport(logger zerolog.Logger, maxReceive int) *MemoryTransport {
	if maxReceive < 1 {
		maxReceive = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &MemoryTransport{
		queues:     make(map[string]*memQueue),
		topics:     make(map[string][]topicBinding),
		buses:      make(map[string][]*memQueue),
		maxReceive: maxReceive,
		logger:     logger.With().Str("component", "memory-transport").Logger(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (t *MemoryTransport) getOrCreateQueue(name string) *memQueue {
	if q, ok := t.queues[name]; ok {
		return q
	}
	q := &memQueue{name: name, ch: make(chan Message, queueBuffer)}
	t.queues[name] = q
	return q
}

// SubscribeTopic binds a queue to a topic. Only messages whose attributes
// contain every filter key/value are delivered; an empty filter matches all.
func (t *MemoryTransport) SubscribeTopic(topic, queue string, filter map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	q := t.getOrCreateQueue(queue)
	t.topics[topic] = append(t.topics[topic], topicBinding{queue: q, filter: filter})
}

// BindBus routes every entry put on the named bus to the given queue.
func (t *MemoryTransport) BindBus(bus, queue string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	q := t.getOrCreateQueue(queue)
	t.buses[bus] = append(t.buses[bus], q)
}

func matches(filter, attrs map[string]string) bool {
	for k, v := range filter {
		if attrs[k] != v {
			return false
		}
	}
	return true
}

// Publish fans the payload out to every subscribed queue whose filter matches
// the attributes. Messages with no matching subscriber are dropped, as a
// pub/sub topic would.
func (t *MemoryTransport) Publish(ctx context.Context, topic string, payload []byte, attrs map[string]string) error {
	t.mu.Lock()
	bindings := append([]topicBinding(nil), t.topics[topic]...)
	t.mu.Unlock()

	for _, b := range bindings {
		if !matches(b.filter, attrs) {
			continue
		}
		msg := Message{
			ID:         uuid.NewString(),
			Body:       append([]byte(nil), payload...),
			Attributes: attrs,
		}
		select {
		case b.queue.ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// PutEvents wraps each entry in a BusEnvelope and delivers it to every queue
// bound to the bus. Failures are reported per entry; callers must check them.
func (t *MemoryTransport) PutEvents(ctx context.Context, bus string, entries []Entry) ([]EntryResult, error) {
	t.mu.Lock()
	queues := append([]*memQueue(nil), t.buses[bus]...)
	t.mu.Unlock()

	results := make([]EntryResult, len(entries))
	for i, e := range entries {
		env := BusEnvelope{
			ID:         uuid.NewString(),
			Source:     e.Source,
			DetailType: e.DetailType,
			Time:       time.Now().UTC(),
			Detail:     json.RawMessage(e.Detail),
		}
		results[i].EntryID = env.ID

		body, err := json.Marshal(env)
		if err != nil {
			results[i].Err = err
			continue
		}
		for _, q := range queues {
			msg := Message{ID: env.ID, Body: body, Attributes: map[string]string{
				"source":      e.Source,
				"detail-type": e.DetailType,
			}}
			select {
			case q.ch <- msg:
			case <-ctx.Done():
				results[i].Err = ctx.Err()
			}
		}
	}
	return results, nil
}

// Consume starts a goroutine delivering messages from the queue to the
// handler in batches of up to batchSize. Handler errors trigger redelivery;
// messages that exhaust MaxReceive move to the queue's dead-letter area.
func (t *MemoryTransport) Consume(queue string, batchSize int, handler Handler) {
	if batchSize < 1 {
		batchSize = 1
	}
	t.mu.Lock()
	q := t.getOrCreateQueue(queue)
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for {
			var batch []Message
			select {
			case <-t.ctx.Done():
				return
			case msg := <-q.ch:
				batch = append(batch, msg)
			}
			// Drain whatever is already waiting, up to the batch size.
		drain:
			for len(batch) < batchSize {
				select {
				case msg := <-q.ch:
					batch = append(batch, msg)
				default:
					break drain
				}
			}
			for _, msg := range batch {
				t.deliver(q, msg, handler)
			}
		}
	}()
}

func (t *MemoryTransport) deliver(q *memQueue, msg Message, handler Handler) {
	msg.ReceiveCount++
	err := handler(t.ctx, msg)
	if err == nil {
		return
	}
	if msg.ReceiveCount >= t.maxReceive {
		t.logger.Error().Err(err).
			Str("queue", q.name).
			Str("message_id", msg.ID).
			Int("receive_count", msg.ReceiveCount).
			Msg("message exhausted retries, dead-lettering")
		q.mu.Lock()
		q.dead = append(q.dead, msg)
		q.mu.Unlock()
		metrics.MessagesDeadLettered.WithLabelValues(q.name).Inc()
		return
	}
	t.logger.Warn().Err(err).
		Str("queue", q.name).
		Str("message_id", msg.ID).
		Int("receive_count", msg.ReceiveCount).
		Msg("message failed, redelivering")
	select {
	case q.ch <- msg:
	default:
		// Queue full; dead-letter instead of blocking the consumer.
		q.mu.Lock()
		q.dead = append(q.dead, msg)
		q.mu.Unlock()
		metrics.MessagesDeadLettered.WithLabelValues(q.name).Inc()
	}
}

// DeadLetters returns a copy of the queue's dead-letter holding area.
func (t *MemoryTransport) DeadLetters(queue string) []Message {
	t.mu.Lock()
	q, ok := t.queues[queue]
	t.mu.Unlock()
	if !ok {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Message(nil), q.dead...)
}

// Stop cancels all consumers and waits for them to exit.
func (t *MemoryTransport) Stop() {
	t.cancel()
	t.wg.Wait()
}
