package bus

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/learnbridge/internal/platform/logger"
)

type Event string

const (
	EventAuthChanged          Event = "auth_changed"
	EventXPUpdated            Event = "xp_updated"
	EventAppLangChanged       Event = "app_lang_changed"
	EventCodingLangChanged    Event = "coding_lang_changed"
	EventDashboardCacheUpdate Event = "dashboard_cache_updated"
	EventProgressDirty        Event = "progress_dirty"
	EventProgressChanged      Event = "progress_changed"
	EventCoursesChanged       Event = "courses_changed"
)

// Message is the typed payload carried between components. CourseKey is set
// on progress events so an open course view can tell whether the change
// concerns it. Origin identifies the publishing process; the transport uses
// it to drop echoes of our own messages.
type Message struct {
	Event     Event     `json:"event"`
	CourseKey string    `json:"course_key,omitempty"`
	XP        int       `json:"xp,omitempty"`
	Origin    uuid.UUID `json:"origin,omitempty"`
}

// Subscription delivers matching messages on C until Cancel.
type Subscription struct {
	ID     uuid.UUID
	C      chan Message
	events map[Event]bool
	bus    *Bus
}

func (s *Subscription) Cancel() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.remove(s)
}

// Transport is an optional cross-process channel (redis pub/sub). When
// attached, every locally published message is forwarded and remote
// messages are re-published locally.
type Transport interface {
	Publish(ctx context.Context, msg Message) error
	Start(ctx context.Context, onMsg func(Message)) error
	Close() error
}

// Bus is the in-process pub-sub hub. Publish never blocks: a subscriber
// whose buffer is full misses the message and relies on the dirty-flag
// poller to converge.
type Bus struct {
	mu     sync.RWMutex
	log    *logger.Logger
	origin uuid.UUID
	subs   map[uuid.UUID]*Subscription

	transport Transport
}

func New(log *logger.Logger) *Bus {
	return &Bus{
		log:    log.With("component", "Bus"),
		origin: uuid.New(),
		subs:   make(map[uuid.UUID]*Subscription),
	}
}

// Origin is this process's bus identity.
func (b *Bus) Origin() uuid.UUID { return b.origin }

// Subscribe registers interest in the given events; no events means all.
func (b *Bus) Subscribe(events ...Event) *Subscription {
	sub := &Subscription{
		ID:     uuid.New(),
		C:      make(chan Message, 16),
		events: make(map[Event]bool, len(events)),
		bus:    b,
	}
	for _, e := range events {
		sub.events[e] = true
	}

	b.mu.Lock()
	b.subs[sub.ID] = sub
	b.mu.Unlock()
	return sub
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	delete(b.subs, sub.ID)
	b.mu.Unlock()
}

// Publish fans msg out to local subscribers and, when a transport is
// attached, to other processes.
func (b *Bus) Publish(ctx context.Context, msg Message) {
	if msg.Origin == uuid.Nil {
		msg.Origin = b.origin
	}
	b.deliver(msg)

	b.mu.RLock()
	tr := b.transport
	b.mu.RUnlock()
	if tr != nil && msg.Origin == b.origin {
		if err := tr.Publish(ctx, msg); err != nil {
			b.log.Warn("transport publish failed", "event", string(msg.Event), "error", err)
		}
	}
}

func (b *Bus) deliver(msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if len(sub.events) > 0 && !sub.events[msg.Event] {
			continue
		}
		select {
		case sub.C <- msg:
		default:
			b.log.Debug("subscriber buffer full, dropping", "event", string(msg.Event))
		}
	}
}

// AttachTransport starts forwarding through tr. Remote messages from our
// own origin are dropped to prevent echo loops.
func (b *Bus) AttachTransport(ctx context.Context, tr Transport) error {
	if err := tr.Start(ctx, func(msg Message) {
		if msg.Origin == b.origin {
			return
		}
		b.deliver(msg)
	}); err != nil {
		return err
	}

	b.mu.Lock()
	b.transport = tr
	b.mu.Unlock()
	return nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	tr := b.transport
	b.transport = nil
	b.mu.Unlock()
	if tr != nil {
		return tr.Close()
	}
	return nil
}
