// Package bridge is the in-process event bus other parts of the admin
// application use to push notifications into the feed or request an
// immediate refresh without waiting for the next polling cycle.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nhle/adminfeed/internal/model"
)

// Topic names a class of events.
type Topic string

const (
	// TopicNotify carries a NotifyEvent to inject verbatim.
	TopicNotify Topic = "notify"
	// TopicPortfolioCreated carries the model.PortfolioItem that was just created.
	TopicPortfolioCreated Topic = "portfolio.created"
	// TopicRefresh asks for an out-of-cycle detection and analytics poll.
	TopicRefresh Topic = "refresh"
)

// Event is a single message on the bus.
type Event struct {
	Topic   Topic
	Payload any
}

// Handler receives events for the topics it subscribed to.
type Handler func(ctx context.Context, ev Event) error

// NotifyEvent describes a notification to inject into the ledger.
type NotifyEvent struct {
	Type    model.NotificationType `json:"type"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Icon    string                 `json:"icon,omitempty"`
	Data    json.RawMessage        `json:"data,omitempty"`
}

// Validate reports whether the event can become a notification.
func (e NotifyEvent) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("invalid notification type %q", e.Type)
	}
	if e.Title == "" {
		return errors.New("title is required")
	}
	return nil
}

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers events synchronously to subscribers in subscription order.
// The zero value is not usable; call New.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Topic][]subscription
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[Topic][]subscription)}
}

// Subscribe registers h for topic and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (b *Bus) Subscribe(topic Topic, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: h})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.subs[topic]
		for i, s := range subs {
			if s.id == id {
				b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev to every handler subscribed to ev.Topic. Every
// handler runs even if an earlier one fails; their errors are joined.
// Publishing a topic nobody listens to is not an error.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs[ev.Topic]))
	copy(subs, b.subs[ev.Topic])
	b.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := s.handler(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s handler: %w", ev.Topic, err))
		}
	}
	return errors.Join(errs...)
}

// Notify publishes a generic notification.
func Notify(ctx context.Context, b *Bus, ev NotifyEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	return b.Publish(ctx, Event{Topic: TopicNotify, Payload: ev})
}

// PortfolioCreated publishes the creation of a portfolio item so the feed
// shows it before the next detection cycle.
func PortfolioCreated(ctx context.Context, b *Bus, item model.PortfolioItem) error {
	return b.Publish(ctx, Event{Topic: TopicPortfolioCreated, Payload: item})
}

// Refresh asks every poller on the bus to run now.
func Refresh(ctx context.Context, b *Bus) error {
	return b.Publish(ctx, Event{Topic: TopicRefresh})
}
