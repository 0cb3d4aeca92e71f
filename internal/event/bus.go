package event

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Topics produced by the core services.
const (
	TopicMessageCreated   = "message.created"
	TopicJobStatusChanged = "job.status_changed"
)

// Event is a domain event published on the bus
type Event struct {
	Topic     string                 `json:"topic"`
	Source    string                 `json:"source"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

// Handler consumes one event
type Handler func(event Event)

type subscription struct {
	name    string
	handler Handler
}

// Bus is the in-process publish/subscribe fan-out between the message
// ledger and the notification dispatch pipeline. Handlers run with
// panic recovery so one bad consumer cannot take down a producer.
type Bus struct {
	subscribers map[string][]subscription // topic -> handlers
	mu          sync.RWMutex
	logger      zerolog.Logger
}

// NewBus creates an event bus
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[string][]subscription),
		logger:      logger,
	}
}

// Subscribe registers a named handler for a topic
func (b *Bus) Subscribe(name, topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[topic] = append(b.subscribers[topic], subscription{
		name:    name,
		handler: handler,
	})
	b.logger.Debug().Str("subscriber", name).Str("topic", topic).Msg("subscribed")
}

// Unsubscribe removes every subscription held under the given name
func (b *Bus) Unsubscribe(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, subs := range b.subscribers {
		var remaining []subscription
		for _, s := range subs {
			if s.name != name {
				remaining = append(remaining, s)
			}
		}
		if len(remaining) == 0 {
			delete(b.subscribers, topic)
		} else {
			b.subscribers[topic] = remaining
		}
	}
}

// Publish delivers an event synchronously to all handlers in
// subscription order
func (b *Bus) Publish(source, topic string, payload map[string]interface{}) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subscribers[topic]))
	copy(subs, b.subscribers[topic])
	b.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	evt := Event{
		Topic:     topic,
		Source:    source,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	for _, s := range subs {
		b.deliver(s, evt)
	}
}

// PublishAsync delivers an event on a new goroutine per subscriber
func (b *Bus) PublishAsync(source, topic string, payload map[string]interface{}) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subscribers[topic]))
	copy(subs, b.subscribers[topic])
	b.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	evt := Event{
		Topic:     topic,
		Source:    source,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	for _, s := range subs {
		go b.deliver(s, evt)
	}
}

func (b *Bus) deliver(s subscription, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("topic", evt.Topic).
				Str("source", evt.Source).
				Str("subscriber", s.name).
				Interface("panic", r).
				Msg("event handler panicked")
		}
	}()
	s.handler(evt)
}
