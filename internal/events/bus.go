// Package events is the in-process notification bus. Topics are fixed: one
// per collection plus a storage warning channel.
package events

import (
	"log/slog"
	"sync"
)

// Topic names a notification channel.
type Topic string

const (
	TopicServices       Topic = "services"
	TopicTeam           Topic = "team"
	TopicTestimonials   Topic = "testimonials"
	TopicJobs           Topic = "jobs"
	TopicUsers          Topic = "users"
	TopicContacts       Topic = "contacts"
	TopicNewsletter     Topic = "newsletter"
	TopicApplications   Topic = "applications"
	TopicActivityLogs   Topic = "activityLogs"
	TopicSettings       Topic = "settings"
	TopicStorageWarning Topic = "storageWarning"
)

// AllTopics lists every topic in declaration order.
var AllTopics = []Topic{
	TopicServices,
	TopicTeam,
	TopicTestimonials,
	TopicJobs,
	TopicUsers,
	TopicContacts,
	TopicNewsletter,
	TopicApplications,
	TopicActivityLogs,
	TopicSettings,
	TopicStorageWarning,
}

// Event is delivered to listeners. Data is nil except for topics that carry a
// payload (storageWarning carries the quota state).
type Event struct {
	Topic Topic
	Data  any
}

// Listener receives events for a topic.
type Listener func(Event)

type subscription struct {
	listener Listener
}

// Bus is a synchronous publish/subscribe hub. Listeners run on the emitting
// goroutine in registration order.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Topic][]*subscription
	logger *slog.Logger
}

// NewBus creates an empty bus. A nil logger uses slog.Default().
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[Topic][]*subscription),
		logger: logger,
	}
}

// Subscribe registers l for topic and returns a function removing it.
// The returned function is safe to call more than once.
func (b *Bus) Subscribe(topic Topic, l Listener) (unsubscribe func()) {
	sub := &subscription{listener: l}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, sub) })
	}
}

func (b *Bus) remove(topic Topic, sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, s := range subs {
		if s == sub {
			next := make([]*subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			if len(next) == 0 {
				delete(b.subs, topic)
			} else {
				b.subs[topic] = next
			}
			return
		}
	}
}

// Emit notifies every listener of topic.
func (b *Bus) Emit(topic Topic) {
	b.EmitWith(topic, nil)
}

// EmitWith notifies every listener of topic with a payload.
func (b *Bus) EmitWith(topic Topic, data any) {
	b.mu.RLock()
	subs := b.subs[topic]
	b.mu.RUnlock()

	evt := Event{Topic: topic, Data: data}
	for _, s := range subs {
		b.deliver(s.listener, evt)
	}
}

// deliver isolates listener panics so the remaining listeners still run.
func (b *Bus) deliver(l Listener, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("events: listener panicked", "topic", evt.Topic, "panic", r)
		}
	}()
	l(evt)
}

// ListenerCount returns the number of listeners registered for topic.
func (b *Bus) ListenerCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
