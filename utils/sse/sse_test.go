package sse

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func capture(t *testing.T, fn func(w *bufio.Writer) error) string {
	t.Helper()
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if err := fn(w); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	w.Flush()
	return buf.String()
}

func TestSendFormatsFullEvent(t *testing.T) {
	out := capture(t, func(w *bufio.Writer) error {
		return Send(w, Event{ID: "msg-1", Event: "message", Retry: 3000, Data: "hello"})
	})

	want := "id: msg-1\nretry: 3000\nevent: message\ndata: hello\n\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestSendOmitsEmptyFields(t *testing.T) {
	out := capture(t, func(w *bufio.Writer) error {
		return Send(w, Event{Data: "ping"})
	})

	if strings.Contains(out, "id:") || strings.Contains(out, "event:") || strings.Contains(out, "retry:") {
		t.Errorf("unexpected field lines: %q", out)
	}
	if out != "data: ping\n\n" {
		t.Errorf("got %q", out)
	}
}

func TestSendEncodesStructsAsJSON(t *testing.T) {
	payload := struct {
		Body string `json:"body"`
	}{Body: "welcome"}

	out := capture(t, func(w *bufio.Writer) error {
		return Send(w, Event{Data: payload})
	})

	if out != `data: {"body":"welcome"}`+"\n\n" {
		t.Errorf("got %q", out)
	}
}

func TestSendMessageUsesMessageEvent(t *testing.T) {
	out := capture(t, func(w *bufio.Writer) error {
		return SendMessage(w, "msg-2", map[string]string{"body": "hi"})
	})

	if !strings.Contains(out, "event: message\n") {
		t.Errorf("missing message event line: %q", out)
	}
	if !strings.Contains(out, "id: msg-2\n") {
		t.Errorf("missing id line: %q", out)
	}
}

func TestSendKeepAliveIsComment(t *testing.T) {
	out := capture(t, func(w *bufio.Writer) error {
		return SendKeepAlive(w)
	})

	if !strings.HasPrefix(out, ":") {
		t.Errorf("keepalive should be an SSE comment, got %q", out)
	}
}
