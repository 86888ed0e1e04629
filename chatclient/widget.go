package chatclient

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/puretrustgold/puretrust-api/livefeed"
	"github.com/puretrustgold/puretrust-api/model"
)

// WidgetState is the customer chat widget lifecycle phase.
type WidgetState string

const (
	StateNameCollection WidgetState = "name_collection"
	StateConnecting     WidgetState = "connecting"
	StateReady          WidgetState = "ready"
	StateSending        WidgetState = "sending"
	StateClosed         WidgetState = "closed"
)

// WidgetStores bundles the backends the widget needs.
type WidgetStores struct {
	Sessions    SessionStore
	Messages    MessageStore
	Attachments AttachmentStore
	Feed        livefeed.Feed
	Chime       Chime
}

// Widget drives the customer-facing chat. It owns a single session, keeps a
// reconciled transcript, and mirrors new messages arriving on the live feed.
// All methods are safe for concurrent use.
type Widget struct {
	stores WidgetStores

	mu         sync.Mutex
	state      WidgetState
	name       string
	email      string
	input      string
	session    *model.ChatSession
	transcript []model.ChatMessage
	sub        livefeed.Subscription
	lastErr    error
}

// NewWidget creates a widget in the name collection phase.
func NewWidget(stores WidgetStores) *Widget {
	if stores.Chime == nil {
		stores.Chime = SilentChime{}
	}
	return &Widget{stores: stores, state: StateNameCollection}
}

// State returns the current lifecycle phase.
func (w *Widget) State() WidgetState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// LastError returns the most recent connect or send failure, if any.
func (w *Widget) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Input returns the composer text.
func (w *Widget) Input() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.input
}

// SetInput replaces the composer text.
func (w *Widget) SetInput(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.input = s
}

// Transcript returns a copy of the reconciled message list, oldest first.
func (w *Widget) Transcript() []model.ChatMessage {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]model.ChatMessage, len(w.transcript))
	copy(out, w.transcript)
	return out
}

// Session returns the active session, or nil before connect succeeds.
func (w *Widget) Session() *model.ChatSession {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session
}

// Start submits the visitor's name and email and moves the widget through
// connecting into ready. A blank name is rejected without leaving the name
// collection phase. Email is optional. On connect failure the widget stays
// in connecting so the visitor can Retry.
func (w *Widget) Start(ctx context.Context, visitorName, visitorEmail string) error {
	visitorName = strings.TrimSpace(visitorName)
	if visitorName == "" {
		return ErrNameRequired
	}

	w.mu.Lock()
	if w.state != StateNameCollection && w.state != StateConnecting {
		w.mu.Unlock()
		return fmt.Errorf("chat already started")
	}
	w.name = visitorName
	w.email = strings.TrimSpace(visitorEmail)
	w.state = StateConnecting
	w.mu.Unlock()

	return w.connect(ctx)
}

// Retry re-attempts the connect sequence after a failure.
func (w *Widget) Retry(ctx context.Context) error {
	w.mu.Lock()
	if w.state != StateConnecting {
		w.mu.Unlock()
		return fmt.Errorf("nothing to retry")
	}
	w.mu.Unlock()
	return w.connect(ctx)
}

// connect resolves the session, opens the live feed subscription, loads the
// transcript and reconciles it. Each step failing leaves the widget in
// connecting with lastErr set.
func (w *Widget) connect(ctx context.Context) error {
	session, err := w.stores.Sessions.GetOrCreateSession(ctx, w.name, w.email)
	if err != nil {
		w.fail(err)
		return err
	}

	// Record the session before subscribing so the handler accepts events
	// that arrive while the history fetch is still in flight.
	w.mu.Lock()
	w.session = session
	w.mu.Unlock()

	sub, err := w.stores.Feed.Subscribe(ctx, session.ID, w.handleIncoming)
	if err != nil {
		w.fail(err)
		return err
	}

	history, err := w.stores.Messages.GetMessages(ctx, session.ID)
	if err != nil {
		sub.Close()
		w.fail(err)
		return err
	}

	w.mu.Lock()
	if w.sub != nil {
		w.sub.Close()
	}
	w.sub = sub
	w.transcript = Reconcile(w.transcript, history...)
	w.state = StateReady
	w.lastErr = nil
	w.mu.Unlock()
	return nil
}

func (w *Widget) fail(err error) {
	w.mu.Lock()
	w.state = StateConnecting
	w.lastErr = err
	w.mu.Unlock()
}

// handleIncoming merges a live feed message into the transcript. Admin
// messages trigger the chime; chime failures are ignored.
func (w *Widget) handleIncoming(msg model.ChatMessage) {
	w.mu.Lock()
	if w.session == nil || msg.SessionID != w.session.ID {
		w.mu.Unlock()
		return
	}
	before := len(w.transcript)
	w.transcript = Reconcile(w.transcript, msg)
	grew := len(w.transcript) > before
	w.mu.Unlock()

	if grew && msg.SenderRole == model.SenderRoleAdmin {
		_ = w.stores.Chime.Play()
	}
}

// Send submits the composer text as a visitor message. The composer is
// cleared immediately; on failure the text is restored so nothing typed is
// lost.
func (w *Widget) Send(ctx context.Context) error {
	w.mu.Lock()
	if w.state != StateReady || w.session == nil {
		w.mu.Unlock()
		return ErrNoSession
	}
	body := strings.TrimSpace(w.input)
	if body == "" {
		w.mu.Unlock()
		return ErrEmptyMessage
	}
	prev := w.input
	w.input = ""
	w.state = StateSending
	sessionID := w.session.ID
	name, email := w.name, w.email
	w.mu.Unlock()

	msg, err := w.stores.Messages.SendMessage(ctx, sessionID, body, model.SenderRoleUser, name, email, nil)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = StateReady
	if err != nil {
		w.input = prev
		w.lastErr = err
		return err
	}
	w.transcript = Reconcile(w.transcript, *msg)
	return nil
}

// SendFile uploads an attachment and then sends a message carrying it. An
// upload failure aborts before any message is sent.
func (w *Widget) SendFile(ctx context.Context, filename, mimeType string, r io.Reader) error {
	w.mu.Lock()
	if w.state != StateReady || w.session == nil {
		w.mu.Unlock()
		return ErrNoSession
	}
	sessionID := w.session.ID
	name, email := w.name, w.email
	w.state = StateSending
	w.mu.Unlock()

	att, err := w.stores.Attachments.UploadAttachment(ctx, sessionID, filename, mimeType, r)
	if err != nil {
		w.mu.Lock()
		w.state = StateReady
		w.lastErr = err
		w.mu.Unlock()
		return err
	}

	body := model.AttachmentMarker + " " + att.Name
	msg, err := w.stores.Messages.SendMessage(ctx, sessionID, body, model.SenderRoleUser, name, email, att)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = StateReady
	if err != nil {
		w.lastErr = err
		return err
	}
	w.transcript = Reconcile(w.transcript, *msg)
	return nil
}

// Close tears down the live feed subscription and ends the widget lifecycle.
func (w *Widget) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateClosed {
		return nil
	}
	w.state = StateClosed
	if w.sub != nil {
		err := w.sub.Close()
		w.sub = nil
		return err
	}
	return nil
}
