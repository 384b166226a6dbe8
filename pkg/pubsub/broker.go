package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ritzau/pom-graph/pkg/logging"
)

// ErrClosed is returned by a Broker after Close
var ErrClosed = errors.New("publisher is closed")

// subscriberBuffer bounds each subscription channel; a full channel drops events
const subscriberBuffer = 16

// TopicConfig configures buffering behavior for a topic
type TopicConfig struct {
	BufferSize int  // Number of events kept for replay (0 = none)
	ReplayAll  bool // Replay the whole buffer instead of only the last event
}

// Broker is an in-process Publisher. Publish never blocks on slow subscribers.
type Broker struct {
	mu          sync.Mutex
	subscribers map[string]map[*subscription]struct{}
	seq         map[string]int
	buffer      map[string][]Event
	topics      map[string]TopicConfig
	closed      bool
	logger      *slog.Logger
}

// NewBroker creates an empty broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string]map[*subscription]struct{}),
		seq:         make(map[string]int),
		buffer:      make(map[string][]Event),
		topics:      make(map[string]TopicConfig),
		logger:      logging.New("pubsub"),
	}
}

// ConfigureTopic sets the replay behavior for topic
func (b *Broker) ConfigureTopic(topic string, cfg TopicConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics[topic] = cfg
}

// Subscribe registers a subscription and replays buffered events into it
func (b *Broker) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	sub := &subscription{
		topic:  topic,
		events: make(chan Event, subscriberBuffer),
		broker: b,
	}
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[*subscription]struct{})
	}
	b.subscribers[topic][sub] = struct{}{}

	replay := b.buffer[topic]
	if !b.topics[topic].ReplayAll && len(replay) > 1 {
		replay = replay[len(replay)-1:]
	}
	for _, event := range replay {
		sub.send(event, b.logger)
	}
	if len(replay) > 0 {
		b.logger.Debug("replayed events", "topic", topic, "count", len(replay))
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

// Publish marshals data and delivers it to every subscriber of topic
func (b *Broker) Publish(topic string, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshalling %s event: %w", eventType, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	b.seq[topic]++
	event := Event{Topic: topic, Type: eventType, Data: payload, Seq: b.seq[topic]}

	if size := b.topics[topic].BufferSize; size > 0 {
		buf := append(b.buffer[topic], event)
		if len(buf) > size {
			buf = buf[len(buf)-size:]
		}
		b.buffer[topic] = buf
	}

	for sub := range b.subscribers[topic] {
		sub.send(event, b.logger)
	}
	return nil
}

// Close closes every subscription channel and rejects further use
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, subs := range b.subscribers {
		for sub := range subs {
			close(sub.events)
		}
	}
	b.subscribers = make(map[string]map[*subscription]struct{})
	return nil
}

func (b *Broker) unsubscribe(sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[sub.topic]
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.events)
	if len(subs) == 0 {
		delete(b.subscribers, sub.topic)
	}
}

type subscription struct {
	topic  string
	events chan Event
	broker *Broker
	once   sync.Once
}

func (s *subscription) Topic() string { return s.topic }

func (s *subscription) Events() <-chan Event { return s.events }

// Close unsubscribes and closes the event channel. Safe to call more than once.
func (s *subscription) Close() error {
	s.once.Do(func() { s.broker.unsubscribe(s) })
	return nil
}

// send must be called with the broker lock held
func (s *subscription) send(event Event, logger *slog.Logger) {
	select {
	case s.events <- event:
	default:
		logger.Warn("subscriber channel full, dropping event", "topic", s.topic, "seq", event.Seq)
	}
}

// WriteSSE writes event in Server-Sent Events framing: "event: <type>\ndata: {json}\n\n"
func WriteSSE(w io.Writer, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
	return err
}
