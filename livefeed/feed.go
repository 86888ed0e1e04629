// Package livefeed delivers chat message insert events to live views.
//
// A Feed is a capability over the underlying transport: subscribers receive
// every message inserted into one session, filtered at the transport (not by
// the subscriber), at-least-once and in no guaranteed order. Views reconcile
// duplicates and ordering themselves; after a dropped subscription they must
// re-fetch the transcript rather than assume gap-free streaming.
package livefeed

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/puretrustgold/puretrust-api/model"
)

// Handler receives newly inserted messages for a subscribed session.
type Handler func(model.ChatMessage)

// Feed is the subscribe side of the change feed.
type Feed interface {
	// Subscribe establishes a single logical subscription scoped to one
	// session. The returned Subscription must be closed by the view before
	// (or immediately after) it subscribes to another session, otherwise the
	// orphaned subscription keeps firing into a discarded view.
	Subscribe(ctx context.Context, sessionID string, fn Handler) (Subscription, error)
}

// Publisher is the insert-notification side, used by the message store after
// a successful insert.
type Publisher interface {
	Publish(ctx context.Context, msg model.ChatMessage) error
}

// Broker is a transport that carries both directions.
type Broker interface {
	Feed
	Publisher
}

// Subscription is a handle to one live subscription.
type Subscription interface {
	// Name is the subscription identity, unique per (session, open-time) so
	// rapid session switching never collides with a stale, not-yet-torn-down
	// subscription.
	Name() string

	// Err reports the terminal subscription error, if any, after Done is
	// closed. A nil Err after Done means Close was called.
	Err() error

	// Done is closed when the subscription stops delivering events.
	Done() <-chan struct{}

	// Close tears the subscription down. Safe to call more than once.
	Close() error
}

var lastSubNano atomic.Int64

// SubscriptionName builds the per-view subscription identity. The timestamp
// component is forced strictly increasing within the process so two opens in
// the same instant still get distinct names.
func SubscriptionName(sessionID string) string {
	now := time.Now().UnixNano()
	for {
		prev := lastSubNano.Load()
		if now <= prev {
			now = prev + 1
		}
		if lastSubNano.CompareAndSwap(prev, now) {
			return fmt.Sprintf("chat-%s-%d", sessionID, now)
		}
	}
}
