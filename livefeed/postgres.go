package livefeed

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/puretrustgold/puretrust-api/model"
)

// PostgresBroker carries message insert events over Postgres LISTEN/NOTIFY.
// Each session gets its own NOTIFY channel, so filtering happens inside the
// database exactly like the Redis transport.
type PostgresBroker struct {
	db  *sql.DB
	dsn string

	minReconnect time.Duration
	maxReconnect time.Duration
}

// NewPostgresBroker opens a dedicated lib/pq connection for pg_notify and
// keeps the DSN around for per-subscription listeners.
func NewPostgresBroker(dsn string) (*PostgresBroker, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open notify connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach postgres for notify: %w", err)
	}
	return &PostgresBroker{
		db:           db,
		dsn:          dsn,
		minReconnect: 2 * time.Second,
		maxReconnect: time.Minute,
	}, nil
}

// pgChannel derives a NOTIFY channel name from a session id. Postgres
// identifiers cap at 63 bytes, so the uuid is used without dashes.
func pgChannel(sessionID string) string {
	return "chat_msg_" + strings.ReplaceAll(sessionID, "-", "")
}

// Publish notifies all listeners of the message's session channel.
func (b *PostgresBroker) Publish(ctx context.Context, msg model.ChatMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message event: %w", err)
	}
	_, err = b.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", pgChannel(msg.SessionID), string(payload))
	return err
}

// Subscribe opens a LISTEN connection scoped to one session channel.
func (b *PostgresBroker) Subscribe(ctx context.Context, sessionID string, fn Handler) (Subscription, error) {
	listener := pq.NewListener(b.dsn, b.minReconnect, b.maxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("livefeed: listener event %d: %v", ev, err)
		}
	})

	if err := listener.Listen(pgChannel(sessionID)); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to listen on session %s: %w", sessionID, err)
	}

	sub := &pgSubscription{
		name:     SubscriptionName(sessionID),
		listener: listener,
		done:     make(chan struct{}),
		closing:  make(chan struct{}),
	}

	go sub.loop(fn)
	return sub, nil
}

// Close releases the notify connection.
func (b *PostgresBroker) Close() error {
	return b.db.Close()
}

type pgSubscription struct {
	name     string
	listener *pq.Listener

	mu      sync.Mutex
	err     error
	closed  bool
	closing chan struct{}
	done    chan struct{}
}

func (s *pgSubscription) loop(fn Handler) {
	defer close(s.done)
	for {
		select {
		case <-s.closing:
			return
		case n, ok := <-s.listener.Notify:
			if !ok {
				s.mu.Lock()
				if !s.closed {
					s.err = fmt.Errorf("subscription %s: listener closed", s.name)
				}
				s.mu.Unlock()
				return
			}
			// The listener emits a nil notification after a reconnect;
			// events may have been missed, so callers re-fetch via the
			// message store rather than trusting the stream.
			if n == nil {
				continue
			}
			var msg model.ChatMessage
			if err := json.Unmarshal([]byte(n.Extra), &msg); err != nil {
				log.Printf("livefeed: dropping undecodable event on %s: %v", n.Channel, err)
				continue
			}
			fn(msg)
		}
	}
}

func (s *pgSubscription) Name() string { return s.name }

func (s *pgSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *pgSubscription) Done() <-chan struct{} { return s.done }

func (s *pgSubscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closing)
	s.mu.Unlock()
	return s.listener.Close()
}
