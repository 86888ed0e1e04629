package chatclient

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/puretrustgold/puretrust-api/model"
)

func newTestConsole(backend *fakeBackend, chime Chime) *Console {
	return NewConsole(ConsoleStores{
		Sessions:    backend,
		Messages:    backend,
		Attachments: backend,
		Feed:        backend.broker,
		Chime:       chime,
	}, "Sophie", "sophie@puretrustgold.com")
}

func TestConsoleRefreshAutoSelectsFirstSession(t *testing.T) {
	backend := newFakeBackend()
	backend.addSession("session-1", "Jane Doe")
	backend.addSession("session-2", "Arthur King")

	c := newTestConsole(backend, nil)
	if err := c.RefreshSessions(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if got := c.Sessions(); len(got) != 2 {
		t.Fatalf("expected 2 open sessions, got %d", len(got))
	}
	if c.Selected() != "session-1" {
		t.Fatalf("expected the first session auto-selected, got %q", c.Selected())
	}
	if n := backend.broker.SubscriberCount("session-1"); n != 1 {
		t.Fatalf("expected a live subscription for the selection, got %d", n)
	}
}

func TestConsoleSelectSwitchReleasesPriorSubscription(t *testing.T) {
	backend := newFakeBackend()
	backend.addSession("session-1", "Jane Doe")
	backend.addSession("session-2", "Arthur King")

	c := newTestConsole(backend, nil)
	if err := c.Select(context.Background(), "session-1"); err != nil {
		t.Fatal(err)
	}
	if err := c.Select(context.Background(), "session-2"); err != nil {
		t.Fatal(err)
	}

	if n := backend.broker.SubscriberCount("session-1"); n != 0 {
		t.Fatalf("expected the prior subscription closed, got %d", n)
	}
	if n := backend.broker.SubscriberCount("session-2"); n != 1 {
		t.Fatalf("expected exactly one live subscription, got %d", n)
	}
}

func TestConsoleSelectMarksVisitorMessagesRead(t *testing.T) {
	backend := newFakeBackend()
	s := backend.addSession("session-1", "Jane Doe")
	if _, err := backend.SendMessage(context.Background(), s.ID, "hello?", model.SenderRoleUser, "Jane Doe", "", nil); err != nil {
		t.Fatal(err)
	}

	c := newTestConsole(backend, nil)
	if err := c.Select(context.Background(), s.ID); err != nil {
		t.Fatal(err)
	}

	if n := c.UnreadCount(s.ID); n != 0 {
		t.Fatalf("expected the badge cleared after select, got %d", n)
	}
	stored, _ := backend.GetMessages(context.Background(), s.ID)
	if len(stored) != 1 || !stored[0].IsRead {
		t.Fatalf("expected the stored message marked read, got %+v", stored)
	}
}

func TestConsoleIncomingVisitorMessageChimesAndReads(t *testing.T) {
	backend := newFakeBackend()
	s := backend.addSession("session-1", "Jane Doe")
	chime := &countingChime{}

	c := newTestConsole(backend, chime)
	if err := c.Select(context.Background(), s.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := backend.SendMessage(context.Background(), s.ID, "are you there?", model.SenderRoleUser, "Jane Doe", "", nil); err != nil {
		t.Fatal(err)
	}

	if chime.count() != 1 {
		t.Fatalf("expected one chime for the visitor message, got %d", chime.count())
	}
	if n := c.UnreadCount(s.ID); n != 0 {
		t.Fatalf("expected the viewed message marked read, got %d unread", n)
	}
	if got := c.Transcript(s.ID); len(got) != 1 {
		t.Fatalf("expected the message rendered once, got %d", len(got))
	}
}

func TestConsoleIgnoresMessagesForOtherSessions(t *testing.T) {
	backend := newFakeBackend()
	backend.addSession("session-1", "Jane Doe")
	backend.addSession("session-2", "Arthur King")
	chime := &countingChime{}

	c := newTestConsole(backend, chime)
	if err := c.Select(context.Background(), "session-1"); err != nil {
		t.Fatal(err)
	}

	// No subscription on session-2; a message there must not leak into the
	// selected transcript or chime.
	if _, err := backend.SendMessage(context.Background(), "session-2", "hello", model.SenderRoleUser, "Arthur King", "", nil); err != nil {
		t.Fatal(err)
	}

	if chime.count() != 0 {
		t.Fatalf("expected no chime for an unselected session, got %d", chime.count())
	}
	if got := c.Transcript("session-1"); len(got) != 0 {
		t.Fatalf("expected the selected transcript untouched, got %d messages", len(got))
	}
}

func TestConsoleSendReplyDeduplicatesEcho(t *testing.T) {
	backend := newFakeBackend()
	s := backend.addSession("session-1", "Jane Doe")

	c := newTestConsole(backend, nil)
	if err := c.Select(context.Background(), s.ID); err != nil {
		t.Fatal(err)
	}

	c.SetInput("We can certainly appraise that.")
	if err := c.Send(context.Background()); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if c.Input() != "" {
		t.Fatalf("expected composer cleared, got %q", c.Input())
	}
	got := c.Transcript(s.ID)
	if len(got) != 1 {
		t.Fatalf("expected the reply rendered once, got %d", len(got))
	}
	if got[0].SenderRole != model.SenderRoleAdmin || got[0].SenderName != "Sophie" {
		t.Fatalf("unexpected reply: %+v", got[0])
	}
}

func TestConsoleSendFailureRestoresInput(t *testing.T) {
	backend := newFakeBackend()
	s := backend.addSession("session-1", "Jane Doe")

	c := newTestConsole(backend, nil)
	if err := c.Select(context.Background(), s.ID); err != nil {
		t.Fatal(err)
	}

	backend.mu.Lock()
	backend.failSend = errors.New("insert failed")
	backend.mu.Unlock()

	c.SetInput("drafted reply")
	if err := c.Send(context.Background()); err == nil {
		t.Fatal("expected send failure")
	}
	if c.Input() != "drafted reply" {
		t.Fatalf("expected composer restored, got %q", c.Input())
	}
}

func TestConsoleSendWithoutSelection(t *testing.T) {
	c := newTestConsole(newFakeBackend(), nil)
	c.SetInput("hello")
	if err := c.Send(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestConsoleSendFileAbortsOnUploadFailure(t *testing.T) {
	backend := newFakeBackend()
	s := backend.addSession("session-1", "Jane Doe")
	backend.failUpload = errors.New("bucket unreachable")

	c := newTestConsole(backend, nil)
	if err := c.Select(context.Background(), s.ID); err != nil {
		t.Fatal(err)
	}

	err := c.SendFile(context.Background(), "appraisal.pdf", "application/pdf", strings.NewReader("x"))
	if err == nil {
		t.Fatal("expected upload failure")
	}
	if backend.sendCalls != 0 {
		t.Fatalf("a failed upload must not produce a message, saw %d sends", backend.sendCalls)
	}
}

func TestConsoleUnreadCount(t *testing.T) {
	backend := newFakeBackend()
	s := backend.addSession("session-1", "Jane Doe")
	// Two unread visitor messages and one admin reply on record.
	backend.SendMessage(context.Background(), s.ID, "q1", model.SenderRoleUser, "Jane Doe", "", nil)
	backend.SendMessage(context.Background(), s.ID, "q2", model.SenderRoleUser, "Jane Doe", "", nil)
	backend.SendMessage(context.Background(), s.ID, "a1", model.SenderRoleAdmin, "Sophie", "", nil)

	c := newTestConsole(backend, nil)
	// Load the transcript without the read side effect of Select.
	history, err := backend.GetMessages(context.Background(), s.ID)
	if err != nil {
		t.Fatal(err)
	}
	c.mu.Lock()
	c.transcripts[s.ID] = Reconcile(nil, history...)
	c.mu.Unlock()

	if n := c.UnreadCount(s.ID); n != 2 {
		t.Fatalf("expected 2 unread visitor messages, got %d", n)
	}
}

func TestConsoleCloseReleasesSubscription(t *testing.T) {
	backend := newFakeBackend()
	s := backend.addSession("session-1", "Jane Doe")

	c := newTestConsole(backend, nil)
	if err := c.Select(context.Background(), s.ID); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if n := backend.broker.SubscriberCount(s.ID); n != 0 {
		t.Fatalf("expected subscription released on close, got %d", n)
	}
}
