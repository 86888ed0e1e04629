package chatclient

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/puretrustgold/puretrust-api/livefeed"
	"github.com/puretrustgold/puretrust-api/model"
)

// fakeBackend implements the store interfaces in memory and publishes every
// stored message to an attached MemoryBroker, which is exactly the write path
// the real service performs.
type fakeBackend struct {
	mu       sync.Mutex
	broker   *livefeed.MemoryBroker
	sessions []model.ChatSession
	messages map[string][]model.ChatMessage
	seq      int
	clock    time.Time

	failCreate error
	failList   error
	failGet    error
	failSend   error
	failUpload error

	// onGetMessages runs once at the start of the next GetMessages call,
	// letting a test publish into the gap between subscribing and the
	// history snapshot.
	onGetMessages func()

	sendCalls   int
	uploadCalls int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		broker:   livefeed.NewMemoryBroker(),
		messages: map[string][]model.ChatMessage{},
		clock:    time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fakeBackend) addSession(id, visitor string) model.ChatSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := model.ChatSession{
		ID:            id,
		VisitorName:   visitor,
		Status:        model.SessionStatusActive,
		LastMessageAt: f.clock,
		CreatedAt:     f.clock,
	}
	f.sessions = append(f.sessions, s)
	return s
}

func (f *fakeBackend) GetOrCreateSession(ctx context.Context, visitorName, visitorEmail string) (*model.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return nil, f.failCreate
	}
	for i := len(f.sessions) - 1; i >= 0; i-- {
		if f.sessions[i].Status == model.SessionStatusActive {
			s := f.sessions[i]
			return &s, nil
		}
	}
	s := model.ChatSession{
		ID:            fmt.Sprintf("session-%d", len(f.sessions)+1),
		VisitorName:   visitorName,
		VisitorEmail:  visitorEmail,
		Status:        model.SessionStatusActive,
		LastMessageAt: f.clock,
		CreatedAt:     f.clock,
	}
	f.sessions = append(f.sessions, s)
	return &s, nil
}

func (f *fakeBackend) ListOpenSessions(ctx context.Context) ([]model.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	out := make([]model.ChatSession, 0, len(f.sessions))
	for _, s := range f.sessions {
		if s.IsOpen() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeBackend) SendMessage(ctx context.Context, sessionID, body string, role model.SenderRole, senderName, senderEmail string, att *model.Attachment) (*model.ChatMessage, error) {
	f.mu.Lock()
	f.sendCalls++
	if f.failSend != nil {
		err := f.failSend
		f.mu.Unlock()
		return nil, err
	}
	f.seq++
	f.clock = f.clock.Add(time.Second)
	msg := model.ChatMessage{
		ID:          fmt.Sprintf("msg-%03d", f.seq),
		SessionID:   sessionID,
		SenderRole:  role,
		SenderName:  senderName,
		SenderEmail: senderEmail,
		Body:        body,
		IsRead:      role == model.SenderRoleAdmin,
		CreatedAt:   f.clock,
	}
	if att != nil {
		msg.FileURL = att.URL
		msg.FileName = att.Name
		msg.FileType = att.MimeType
	}
	f.messages[sessionID] = append(f.messages[sessionID], msg)
	f.mu.Unlock()

	f.broker.Publish(ctx, msg)
	return &msg, nil
}

func (f *fakeBackend) GetMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	f.mu.Lock()
	hook := f.onGetMessages
	f.onGetMessages = nil
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	out := make([]model.ChatMessage, len(f.messages[sessionID]))
	copy(out, f.messages[sessionID])
	return out, nil
}

func (f *fakeBackend) MarkSessionRead(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages[sessionID]
	for i := range msgs {
		if msgs[i].SenderRole == model.SenderRoleUser {
			msgs[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeBackend) UploadAttachment(ctx context.Context, sessionID, filename, mimeType string, r io.Reader) (*model.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadCalls++
	if f.failUpload != nil {
		return nil, f.failUpload
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	return &model.Attachment{
		URL:      "https://cdn.example.com/chat-files/" + sessionID + "/" + filename,
		Name:     filename,
		MimeType: mimeType,
	}, nil
}

type countingChime struct {
	mu sync.Mutex
	n  int
}

func (c *countingChime) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return nil
}

func (c *countingChime) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
