package chatclient

import (
	"testing"
	"time"

	"github.com/puretrustgold/puretrust-api/model"
)

func msgAt(id string, t time.Time) model.ChatMessage {
	return model.ChatMessage{ID: id, SessionID: "s1", Body: "body " + id, CreatedAt: t}
}

func transcriptIDs(msgs []model.ChatMessage) []string {
	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestReconcileOrdersByCreatedAt(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a := msgAt("a", base)
	b := msgAt("b", base.Add(time.Second))
	c := msgAt("c", base.Add(2*time.Second))

	got := Reconcile(nil, c, a, b)
	if !equalIDs(transcriptIDs(got), []string{"a", "b", "c"}) {
		t.Fatalf("expected chronological order, got %v", transcriptIDs(got))
	}
}

func TestReconcileDeduplicatesByID(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a := msgAt("a", base)

	got := Reconcile([]model.ChatMessage{a}, a, a)
	if len(got) != 1 {
		t.Fatalf("expected 1 message after redelivery, got %d", len(got))
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a := msgAt("a", base)
	b := msgAt("b", base.Add(time.Second))

	once := Reconcile(nil, a, b)
	twice := Reconcile(once, a, b)
	if !equalIDs(transcriptIDs(once), transcriptIDs(twice)) {
		t.Fatalf("second merge changed the transcript: %v vs %v", transcriptIDs(once), transcriptIDs(twice))
	}
}

func TestReconcileDeliveryOrderInvariant(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a := msgAt("a", base)
	b := msgAt("b", base.Add(time.Second))
	c := msgAt("c", base.Add(time.Second)) // same instant as b
	d := msgAt("d", base.Add(2*time.Second))

	orders := [][]model.ChatMessage{
		{a, b, c, d},
		{d, c, b, a},
		{b, d, a, c},
		{c, a, d, b},
	}

	want := transcriptIDs(Reconcile(nil, a, b, c, d))
	for _, order := range orders {
		var transcript []model.ChatMessage
		for _, m := range order {
			transcript = Reconcile(transcript, m)
		}
		if !equalIDs(transcriptIDs(transcript), want) {
			t.Errorf("delivery order %v produced %v, want %v",
				transcriptIDs(order), transcriptIDs(transcript), want)
		}
	}
}

func TestReconcileLaterWins(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	local := msgAt("a", base)
	local.IsRead = false
	confirmed := msgAt("a", base)
	confirmed.IsRead = true

	got := Reconcile([]model.ChatMessage{local}, confirmed)
	if len(got) != 1 || !got[0].IsRead {
		t.Fatalf("expected the confirmed copy to replace the local echo, got %+v", got)
	}
}

func TestReconcileDoesNotMutateInputs(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	known := []model.ChatMessage{msgAt("b", base.Add(time.Second)), msgAt("a", base)}

	Reconcile(known, msgAt("c", base.Add(2*time.Second)))
	if known[0].ID != "b" || known[1].ID != "a" {
		t.Fatalf("input slice was reordered: %v", transcriptIDs(known))
	}
}
