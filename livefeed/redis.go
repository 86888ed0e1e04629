package livefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/puretrustgold/puretrust-api/model"
)

// RedisBroker carries message insert events over Redis pub/sub. One channel
// per session gives server-side filtering for free.
type RedisBroker struct {
	client *redis.Client
}

// NewRedisBroker creates a broker over an existing Redis client.
func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

// NewRedisBrokerFromURL connects to Redis and verifies the connection.
func NewRedisBrokerFromURL(ctx context.Context, redisURL string) (*RedisBroker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisBroker{client: client}, nil
}

func redisChannel(sessionID string) string {
	return "chat:messages:" + sessionID
}

// Publish fans a freshly inserted message out to all subscribers of its session.
func (b *RedisBroker) Publish(ctx context.Context, msg model.ChatMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message event: %w", err)
	}
	return b.client.Publish(ctx, redisChannel(msg.SessionID), payload).Err()
}

// Subscribe opens a pub/sub subscription filtered to one session.
func (b *RedisBroker) Subscribe(ctx context.Context, sessionID string, fn Handler) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, redisChannel(sessionID))

	// Force the SUBSCRIBE round-trip so establishment errors surface here
	// instead of inside the delivery loop.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to session %s: %w", sessionID, err)
	}

	sub := &redisSubscription{
		name:   SubscriptionName(sessionID),
		pubsub: pubsub,
		done:   make(chan struct{}),
	}

	go sub.loop(fn)
	return sub, nil
}

// Close releases the underlying Redis client.
func (b *RedisBroker) Close() error {
	return b.client.Close()
}

type redisSubscription struct {
	name   string
	pubsub *redis.PubSub

	mu     sync.Mutex
	err    error
	closed bool
	done   chan struct{}
}

func (s *redisSubscription) loop(fn Handler) {
	defer close(s.done)
	for m := range s.pubsub.Channel() {
		var msg model.ChatMessage
		if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
			log.Printf("livefeed: dropping undecodable event on %s: %v", m.Channel, err)
			continue
		}
		fn(msg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.err = fmt.Errorf("subscription %s: delivery channel closed", s.name)
	}
}

func (s *redisSubscription) Name() string { return s.name }

func (s *redisSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *redisSubscription) Done() <-chan struct{} { return s.done }

func (s *redisSubscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.pubsub.Close()
}
