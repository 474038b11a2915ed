package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RealSpaceofAce/framelord-sub002/internal/models"
)

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestOnNoteEvent_Delivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.OnNoteEvent(models.NoteEvent{
		Kind:    models.EventCreated,
		NoteID:  "n1",
		Title:   "Roadmap",
		Content: "private body",
	})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: note.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"noteId":"n1"`) {
			t.Errorf("missing data in %q", s)
		}
		if strings.Contains(s, "private body") {
			t.Errorf("content leaked into stream: %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestOnNoteEvent_GraphThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.OnNoteEvent(models.NoteEvent{Kind: models.EventCreated, NoteID: "a"})
	b.OnNoteEvent(models.NoteEvent{Kind: models.EventUpdated, NoteID: "b", ContentChanged: true})

	time.Sleep(50 * time.Millisecond)
	graphCount, noteCount := 0, 0
	for _, s := range drain(ch) {
		if strings.Contains(s, "graph.updated") {
			graphCount++
		} else {
			noteCount++
		}
	}

	if noteCount != 2 {
		t.Errorf("note events = %d, want 2", noteCount)
	}
	if graphCount != 1 {
		t.Errorf("graph events = %d, want 1 (throttled)", graphCount)
	}
}

func TestOnNoteEvent_MetadataEditDoesNotMoveGraph(t *testing.T) {
	b := NewBroker(time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.OnNoteEvent(models.NoteEvent{Kind: models.EventUpdated, NoteID: "a"})
	time.Sleep(50 * time.Millisecond)

	msgs := drain(ch)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "event: note.updated") {
		t.Errorf("got %q, want a single note.updated", msgs)
	}
}

func TestEventType(t *testing.T) {
	cases := map[models.EventKind]string{
		models.EventCreated:  "note.created",
		models.EventPurged:   "note.purged",
		models.EventRestored: "note.restored",
		models.EventReloaded: "store.reloaded",
	}
	for kind, want := range cases {
		if got := EventType(kind); got != want {
			t.Errorf("EventType(%q) = %q, want %q", kind, got, want)
		}
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: "note.updated", Data: map[string]string{"noteId": "x"}})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: note.updated") {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Capacity is 64; the rest must be dropped without blocking.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	b.Publish(Event{Type: "note.updated", Data: map[string]string{"noteId": "x"}})
	b.OnNoteEvent(models.NoteEvent{Kind: models.EventUpdated})
}

func TestOnNoteEvent_ContactMentions(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.OnNoteEvent(models.NoteEvent{Kind: models.EventCreated, NoteID: "n1", ContactIDs: []string{"c1", "c2"}})
	b.OnNoteEvent(models.NoteEvent{Kind: models.EventDeleted, NoteID: "n1", ContactIDs: []string{"c1"}})
	time.Sleep(50 * time.Millisecond)

	var mentions []string
	for _, s := range drain(ch) {
		if strings.Contains(s, "event: contact.mentioned") {
			mentions = append(mentions, s)
		}
	}
	if len(mentions) != 2 {
		t.Fatalf("contact events = %d, want 2: %q", len(mentions), mentions)
	}
	if !strings.Contains(mentions[0], `"contactId":"c1"`) || !strings.Contains(mentions[1], `"contactId":"c2"`) {
		t.Errorf("unexpected contact events: %q", mentions)
	}
}

func TestBroadcast_SequenceIDs(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "a", Data: 1})
	b.Publish(Event{Type: "b", Data: 2})
	time.Sleep(50 * time.Millisecond)

	msgs := drain(ch)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages", len(msgs))
	}
	if !strings.HasPrefix(msgs[0], "id: 1\n") || !strings.HasPrefix(msgs[1], "id: 2\n") {
		t.Errorf("ids not sequential: %q", msgs)
	}
}

func TestSSEHandler_Heartbeat(t *testing.T) {
	b := NewBroker(time.Hour)
	b.heartbeat = 20 * time.Millisecond
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if !strings.Contains(w.Body.String(), ": ping\n\n") {
		t.Errorf("no heartbeat in %q", w.Body.String())
	}
}
