package chatclient

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/puretrustgold/puretrust-api/livefeed"
	"github.com/puretrustgold/puretrust-api/model"
)

// DefaultSessionPoll is how often the console refreshes the session list.
const DefaultSessionPoll = 5 * time.Second

// ConsoleStores bundles the backends the admin console needs.
type ConsoleStores struct {
	Sessions    SessionStore
	Messages    MessageStore
	Attachments AttachmentStore
	Feed        livefeed.Feed
	Chime       Chime
}

// Console is the admin side of the chat. It polls the open session list,
// holds one selected session at a time with a single live feed subscription,
// and keeps per-session transcripts reconciled.
type Console struct {
	stores ConsoleStores
	poll   time.Duration

	adminName  string
	adminEmail string

	mu          sync.Mutex
	sessions    []model.ChatSession
	selected    string
	transcripts map[string][]model.ChatMessage
	sub         livefeed.Subscription
	input       string
	lastErr     error
	closed      bool
}

// NewConsole creates a console for the given admin identity.
func NewConsole(stores ConsoleStores, adminName, adminEmail string) *Console {
	if stores.Chime == nil {
		stores.Chime = SilentChime{}
	}
	return &Console{
		stores:      stores,
		poll:        DefaultSessionPoll,
		adminName:   adminName,
		adminEmail:  adminEmail,
		transcripts: map[string][]model.ChatMessage{},
	}
}

// SetPollInterval overrides the session list refresh cadence.
func (c *Console) SetPollInterval(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.poll = d
}

// Run refreshes the session list on an interval until ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	if err := c.RefreshSessions(ctx); err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
	}

	c.mu.Lock()
	poll := c.poll
	c.mu.Unlock()

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.RefreshSessions(ctx); err != nil {
				c.mu.Lock()
				c.lastErr = err
				c.mu.Unlock()
			}
		}
	}
}

// RefreshSessions reloads the open session list. If nothing is selected yet
// the first session is selected automatically.
func (c *Console) RefreshSessions(ctx context.Context) error {
	sessions, err := c.stores.Sessions.ListOpenSessions(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.sessions = sessions
	autoSelect := c.selected == "" && len(sessions) > 0
	var first string
	if autoSelect {
		first = sessions[0].ID
	}
	c.mu.Unlock()

	if autoSelect {
		return c.Select(ctx, first)
	}
	return nil
}

// Sessions returns a copy of the last loaded session list.
func (c *Console) Sessions() []model.ChatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.ChatSession, len(c.sessions))
	copy(out, c.sessions)
	return out
}

// Selected returns the id of the selected session, or "".
func (c *Console) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Select switches the console to a session. The previous subscription is
// closed before the new one opens, so exactly one subscription is live at a
// time. The session's visitor messages are marked read.
func (c *Console) Select(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	if c.sub != nil {
		c.sub.Close()
		c.sub = nil
	}
	c.selected = sessionID
	c.mu.Unlock()

	sub, err := c.stores.Feed.Subscribe(ctx, sessionID, c.handleIncoming)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return err
	}

	history, err := c.stores.Messages.GetMessages(ctx, sessionID)
	if err != nil {
		sub.Close()
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if c.selected != sessionID || c.closed {
		c.mu.Unlock()
		sub.Close()
		return nil
	}
	c.sub = sub
	c.transcripts[sessionID] = Reconcile(c.transcripts[sessionID], history...)
	c.mu.Unlock()

	return c.markRead(ctx, sessionID)
}

// Transcript returns a copy of the reconciled messages for a session.
func (c *Console) Transcript(sessionID string) []model.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.transcripts[sessionID]
	out := make([]model.ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}

// UnreadCount counts unread visitor messages held locally for a session.
func (c *Console) UnreadCount(sessionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.transcripts[sessionID] {
		if m.SenderRole == model.SenderRoleUser && !m.IsRead {
			n++
		}
	}
	return n
}

// Input returns the composer text.
func (c *Console) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// SetInput replaces the composer text.
func (c *Console) SetInput(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = s
}

// LastError returns the most recent background or send failure.
func (c *Console) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Send submits the composer text as an admin reply to the selected session.
// The composer is cleared immediately and restored on failure. A successful
// send refreshes the session list so status changes show up promptly.
func (c *Console) Send(ctx context.Context) error {
	c.mu.Lock()
	if c.selected == "" {
		c.mu.Unlock()
		return ErrNoSession
	}
	body := strings.TrimSpace(c.input)
	if body == "" {
		c.mu.Unlock()
		return ErrEmptyMessage
	}
	prev := c.input
	c.input = ""
	sessionID := c.selected
	c.mu.Unlock()

	msg, err := c.stores.Messages.SendMessage(ctx, sessionID, body, model.SenderRoleAdmin, c.adminName, c.adminEmail, nil)
	if err != nil {
		c.mu.Lock()
		c.input = prev
		c.lastErr = err
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.transcripts[sessionID] = Reconcile(c.transcripts[sessionID], *msg)
	c.mu.Unlock()

	if err := c.RefreshSessions(ctx); err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
	}
	return nil
}

// SendFile uploads an attachment and sends it to the selected session as an
// admin message. An upload failure aborts before any message is sent.
func (c *Console) SendFile(ctx context.Context, filename, mimeType string, r io.Reader) error {
	c.mu.Lock()
	if c.selected == "" {
		c.mu.Unlock()
		return ErrNoSession
	}
	sessionID := c.selected
	c.mu.Unlock()

	att, err := c.stores.Attachments.UploadAttachment(ctx, sessionID, filename, mimeType, r)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return err
	}

	body := model.AttachmentMarker + " " + att.Name
	msg, err := c.stores.Messages.SendMessage(ctx, sessionID, body, model.SenderRoleAdmin, c.adminName, c.adminEmail, att)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.transcripts[sessionID] = Reconcile(c.transcripts[sessionID], *msg)
	c.mu.Unlock()
	return nil
}

// handleIncoming merges a live feed message into the transcript for the
// selected session. New visitor messages chime and are marked read right
// away since the admin is looking at the session.
func (c *Console) handleIncoming(msg model.ChatMessage) {
	c.mu.Lock()
	if c.closed || msg.SessionID != c.selected {
		c.mu.Unlock()
		return
	}
	before := len(c.transcripts[msg.SessionID])
	c.transcripts[msg.SessionID] = Reconcile(c.transcripts[msg.SessionID], msg)
	grew := len(c.transcripts[msg.SessionID]) > before
	sessionID := msg.SessionID
	c.mu.Unlock()

	if grew && msg.SenderRole == model.SenderRoleUser {
		_ = c.stores.Chime.Play()
		_ = c.markRead(context.Background(), sessionID)
	}
}

// markRead marks the session's visitor messages read server-side and flips
// the local copies so the unread badge clears without a refetch.
func (c *Console) markRead(ctx context.Context, sessionID string) error {
	if err := c.stores.Messages.MarkSessionRead(ctx, sessionID); err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return err
	}
	c.mu.Lock()
	msgs := c.transcripts[sessionID]
	for i := range msgs {
		if msgs[i].SenderRole == model.SenderRoleUser {
			msgs[i].IsRead = true
		}
	}
	c.mu.Unlock()
	return nil
}

// Close tears down the live subscription.
func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.sub != nil {
		err := c.sub.Close()
		c.sub = nil
		return err
	}
	return nil
}
