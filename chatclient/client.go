// Package chatclient implements the two live chat views: the customer widget
// embedded on the public site and the operator console in the back office.
//
// Both views hold explicit per-instance state with teardown tied to the view
// lifecycle, talk to the stores through narrow interfaces, and run the same
// Reconcile function over every transcript mutation. Nothing in this package
// touches the database or the transport directly.
package chatclient

import (
	"context"
	"errors"
	"io"

	"github.com/puretrustgold/puretrust-api/model"
)

var (
	// ErrNameRequired is returned when a visitor tries to start a chat
	// without a display name.
	ErrNameRequired = errors.New("a display name is required to start a chat")

	// ErrNoSession is returned when an action needs a connected session.
	ErrNoSession = errors.New("no chat session is connected")

	// ErrEmptyMessage is returned when the composer holds nothing to send.
	ErrEmptyMessage = errors.New("cannot send an empty message")
)

// SessionStore is the session side of the persistence gateway.
type SessionStore interface {
	// GetOrCreateSession returns the most recently created active session,
	// or creates a fresh one carrying the visitor details.
	GetOrCreateSession(ctx context.Context, visitorName, visitorEmail string) (*model.ChatSession, error)

	// ListOpenSessions returns active and waiting sessions, most recent
	// activity first.
	ListOpenSessions(ctx context.Context) ([]model.ChatSession, error)
}

// MessageStore is the transcript side of the persistence gateway.
type MessageStore interface {
	SendMessage(ctx context.Context, sessionID, body string, role model.SenderRole, senderName, senderEmail string, att *model.Attachment) (*model.ChatMessage, error)
	GetMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	MarkSessionRead(ctx context.Context, sessionID string) error
}

// AttachmentStore uploads files ahead of the attachment message referencing
// them. Upload always precedes send; a failed upload means no message.
type AttachmentStore interface {
	UploadAttachment(ctx context.Context, sessionID, filename, mimeType string, r io.Reader) (*model.Attachment, error)
}
