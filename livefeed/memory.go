package livefeed

import (
	"context"
	"sync"

	"github.com/puretrustgold/puretrust-api/model"
)

// MemoryBroker is an in-process change feed for single-node deployments and
// tests. Delivery happens on the publisher's goroutine, one subscriber at a
// time, which keeps per-subscription ordering deterministic.
type MemoryBroker struct {
	mu   sync.RWMutex
	subs map[string]map[*memorySubscription]Handler // sessionID -> subscriptions
}

// NewMemoryBroker creates an empty in-process broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		subs: make(map[string]map[*memorySubscription]Handler),
	}
}

// Publish delivers the message to every live subscription of its session.
func (b *MemoryBroker) Publish(ctx context.Context, msg model.ChatMessage) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[msg.SessionID]))
	for _, fn := range b.subs[msg.SessionID] {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(msg)
	}
	return nil
}

// Subscribe registers a handler for one session.
func (b *MemoryBroker) Subscribe(ctx context.Context, sessionID string, fn Handler) (Subscription, error) {
	sub := &memorySubscription{
		name:      SubscriptionName(sessionID),
		sessionID: sessionID,
		broker:    b,
		done:      make(chan struct{}),
	}

	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[*memorySubscription]Handler)
	}
	b.subs[sessionID][sub] = fn
	b.mu.Unlock()

	return sub, nil
}

// SubscriberCount reports how many subscriptions a session currently has.
func (b *MemoryBroker) SubscriberCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[sessionID])
}

type memorySubscription struct {
	name      string
	sessionID string
	broker    *MemoryBroker

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func (s *memorySubscription) Name() string { return s.name }

func (s *memorySubscription) Err() error { return nil }

func (s *memorySubscription) Done() <-chan struct{} { return s.done }

func (s *memorySubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)

	s.broker.mu.Lock()
	if subs := s.broker.subs[s.sessionID]; subs != nil {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.broker.subs, s.sessionID)
		}
	}
	s.broker.mu.Unlock()
	return nil
}
