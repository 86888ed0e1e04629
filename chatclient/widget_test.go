package chatclient

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/puretrustgold/puretrust-api/model"
)

func newTestWidget(backend *fakeBackend, chime Chime) *Widget {
	return NewWidget(WidgetStores{
		Sessions:    backend,
		Messages:    backend,
		Attachments: backend,
		Feed:        backend.broker,
		Chime:       chime,
	})
}

func TestWidgetStartRequiresName(t *testing.T) {
	w := newTestWidget(newFakeBackend(), nil)

	if err := w.Start(context.Background(), "   ", ""); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
	if w.State() != StateNameCollection {
		t.Fatalf("expected widget to stay in name collection, got %s", w.State())
	}
}

func TestWidgetStartConnectsAndLoadsHistory(t *testing.T) {
	backend := newFakeBackend()
	s := backend.addSession("session-1", "Jane Doe")
	if _, err := backend.SendMessage(context.Background(), s.ID, "Welcome to PureTrust Gold", model.SenderRoleAdmin, "Sophie", "sophie@puretrustgold.com", nil); err != nil {
		t.Fatal(err)
	}

	w := newTestWidget(backend, nil)
	if err := w.Start(context.Background(), "Jane Doe", "jane@example.com"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if w.State() != StateReady {
		t.Fatalf("expected ready, got %s", w.State())
	}
	if got := w.Transcript(); len(got) != 1 || got[0].Body != "Welcome to PureTrust Gold" {
		t.Fatalf("expected the existing transcript to load, got %+v", got)
	}
	if w.Session() == nil || w.Session().ID != "session-1" {
		t.Fatalf("expected the existing active session to be reused")
	}
}

func TestWidgetStartMergesMessageArrivingDuringHistoryFetch(t *testing.T) {
	backend := newFakeBackend()
	backend.addSession("session-1", "Jane Doe")

	// Deliver a live message after the subscription is up but before the
	// history snapshot returns. It is absent from the snapshot, so only the
	// feed carries it.
	backend.onGetMessages = func() {
		backend.broker.Publish(context.Background(), model.ChatMessage{
			ID:         "msg-live",
			SessionID:  "session-1",
			SenderRole: model.SenderRoleAdmin,
			SenderName: "Sophie",
			Body:       "Be right with you",
			IsRead:     true,
			CreatedAt:  time.Date(2025, 3, 1, 9, 0, 30, 0, time.UTC),
		})
	}

	w := newTestWidget(backend, nil)
	if err := w.Start(context.Background(), "Jane Doe", ""); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	found := false
	for _, m := range w.Transcript() {
		if m.ID == "msg-live" {
			found = true
		}
	}
	if !found {
		t.Fatal("message delivered during the history fetch was lost")
	}
}

func TestWidgetConnectFailureAllowsRetry(t *testing.T) {
	backend := newFakeBackend()
	backend.failCreate = errors.New("store unavailable")

	w := newTestWidget(backend, nil)
	if err := w.Start(context.Background(), "Jane Doe", ""); err == nil {
		t.Fatal("expected connect failure")
	}
	if w.State() != StateConnecting {
		t.Fatalf("expected connecting after failure, got %s", w.State())
	}
	if w.LastError() == nil {
		t.Fatal("expected lastErr to be recorded")
	}

	backend.mu.Lock()
	backend.failCreate = nil
	backend.mu.Unlock()

	if err := w.Retry(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if w.State() != StateReady {
		t.Fatalf("expected ready after retry, got %s", w.State())
	}
	if w.LastError() != nil {
		t.Fatalf("expected lastErr cleared, got %v", w.LastError())
	}
}

func TestWidgetSendClearsComposerAndDeduplicatesEcho(t *testing.T) {
	backend := newFakeBackend()
	w := newTestWidget(backend, nil)
	if err := w.Start(context.Background(), "Jane Doe", ""); err != nil {
		t.Fatal(err)
	}

	w.SetInput("Do you buy sovereigns?")
	if err := w.Send(context.Background()); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if w.Input() != "" {
		t.Fatalf("expected composer cleared, got %q", w.Input())
	}
	// The broker echoed the insert to our own subscription before Send
	// reconciled the confirmed copy; the message must still render once.
	got := w.Transcript()
	if len(got) != 1 {
		t.Fatalf("expected exactly one rendered message, got %d", len(got))
	}
	if got[0].SenderRole != model.SenderRoleUser || got[0].Body != "Do you buy sovereigns?" {
		t.Fatalf("unexpected message: %+v", got[0])
	}
}

func TestWidgetSendFailureRestoresInput(t *testing.T) {
	backend := newFakeBackend()
	w := newTestWidget(backend, nil)
	if err := w.Start(context.Background(), "Jane Doe", ""); err != nil {
		t.Fatal(err)
	}

	backend.mu.Lock()
	backend.failSend = errors.New("insert failed")
	backend.mu.Unlock()

	w.SetInput("important question")
	if err := w.Send(context.Background()); err == nil {
		t.Fatal("expected send failure")
	}
	if w.Input() != "important question" {
		t.Fatalf("expected composer restored, got %q", w.Input())
	}
	if w.State() != StateReady {
		t.Fatalf("expected widget back in ready, got %s", w.State())
	}
	if len(w.Transcript()) != 0 {
		t.Fatalf("expected no message rendered after failed send")
	}
}

func TestWidgetSendRejectsEmptyInput(t *testing.T) {
	backend := newFakeBackend()
	w := newTestWidget(backend, nil)
	if err := w.Start(context.Background(), "Jane Doe", ""); err != nil {
		t.Fatal(err)
	}

	w.SetInput("   ")
	if err := w.Send(context.Background()); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if backend.sendCalls != 0 {
		t.Fatalf("expected no store call for an empty message")
	}
}

func TestWidgetChimesOnAdminMessagesOnly(t *testing.T) {
	backend := newFakeBackend()
	chime := &countingChime{}
	w := newTestWidget(backend, chime)
	if err := w.Start(context.Background(), "Jane Doe", ""); err != nil {
		t.Fatal(err)
	}
	sessionID := w.Session().ID

	w.SetInput("hello")
	if err := w.Send(context.Background()); err != nil {
		t.Fatal(err)
	}
	if chime.count() != 0 {
		t.Fatalf("own message must not chime, got %d", chime.count())
	}

	if _, err := backend.SendMessage(context.Background(), sessionID, "Happy to help", model.SenderRoleAdmin, "Sophie", "", nil); err != nil {
		t.Fatal(err)
	}
	if chime.count() != 1 {
		t.Fatalf("expected one chime for the operator reply, got %d", chime.count())
	}
	if got := w.Transcript(); len(got) != 2 {
		t.Fatalf("expected both messages rendered, got %d", len(got))
	}
}

func TestWidgetSendFileUploadsThenSends(t *testing.T) {
	backend := newFakeBackend()
	w := newTestWidget(backend, nil)
	if err := w.Start(context.Background(), "Jane Doe", ""); err != nil {
		t.Fatal(err)
	}

	err := w.SendFile(context.Background(), "invoice.pdf", "application/pdf", strings.NewReader("%PDF-1.4 fake"))
	if err != nil {
		t.Fatalf("send file failed: %v", err)
	}

	got := w.Transcript()
	if len(got) != 1 {
		t.Fatalf("expected one attachment message, got %d", len(got))
	}
	if !got[0].HasAttachment() || got[0].FileName != "invoice.pdf" {
		t.Fatalf("expected attachment descriptor, got %+v", got[0])
	}
	if !strings.HasPrefix(got[0].Body, model.AttachmentMarker) || !strings.Contains(got[0].Body, "invoice.pdf") {
		t.Fatalf("expected marker body naming the file, got %q", got[0].Body)
	}
}

func TestWidgetSendFileAbortsOnUploadFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.failUpload = errors.New("bucket unreachable")
	w := newTestWidget(backend, nil)
	if err := w.Start(context.Background(), "Jane Doe", ""); err != nil {
		t.Fatal(err)
	}

	err := w.SendFile(context.Background(), "invoice.pdf", "application/pdf", strings.NewReader("x"))
	if err == nil {
		t.Fatal("expected upload failure")
	}
	if backend.sendCalls != 0 {
		t.Fatalf("a failed upload must not produce a message, saw %d sends", backend.sendCalls)
	}
	if w.State() != StateReady {
		t.Fatalf("expected widget back in ready, got %s", w.State())
	}
}

func TestWidgetCloseTearsDownSubscription(t *testing.T) {
	backend := newFakeBackend()
	w := newTestWidget(backend, nil)
	if err := w.Start(context.Background(), "Jane Doe", ""); err != nil {
		t.Fatal(err)
	}
	sessionID := w.Session().ID

	if n := backend.broker.SubscriberCount(sessionID); n != 1 {
		t.Fatalf("expected one live subscription, got %d", n)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if n := backend.broker.SubscriberCount(sessionID); n != 0 {
		t.Fatalf("expected subscription released on close, got %d", n)
	}
	if w.State() != StateClosed {
		t.Fatalf("expected closed, got %s", w.State())
	}
}
