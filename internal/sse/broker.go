// Package sse streams note store changes to browsers as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/RealSpaceofAce/framelord-sub002/internal/models"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Broker manages SSE client connections and broadcasts events. It is a
// notestore listener: every committed change becomes a note.* event, and
// changes that can move graph edges also produce a throttled graph.updated.
//
// A single internal event loop owns the client set and the throttle
// timestamp; public methods talk to it through channels.
type Broker struct {
	graphMin  time.Duration
	heartbeat time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	noteEventCh   chan models.NoteEvent
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// DefaultHeartbeat is the interval between keep-alive comments on idle streams.
const DefaultHeartbeat = 25 * time.Second

// NewBroker creates a new SSE broker with the given graph throttle interval.
func NewBroker(graphThrottle time.Duration) *Broker {
	if graphThrottle <= 0 {
		graphThrottle = 2 * time.Second
	}

	b := &Broker{
		graphMin:      graphThrottle,
		heartbeat:     DefaultHeartbeat,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		noteEventCh:   make(chan models.NoteEvent, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

// EventType returns the SSE event name for a store change.
func EventType(kind models.EventKind) string {
	if kind == models.EventReloaded {
		return "store.reloaded"
	}
	return "note." + string(kind)
}

// contactMention tells a contact view that a note about the contact changed.
type contactMention struct {
	ContactID string `json:"contactId"`
	NoteID    string `json:"noteId"`
}

// mentions returns the contact events ev implies.
func mentions(ev models.NoteEvent) []Event {
	switch ev.Kind {
	case models.EventCreated, models.EventUpdated, models.EventRestored:
	default:
		return nil
	}
	out := make([]Event, 0, len(ev.ContactIDs))
	for _, c := range ev.ContactIDs {
		out = append(out, Event{Type: "contact.mentioned", Data: contactMention{ContactID: c, NoteID: ev.NoteID}})
	}
	return out
}

// movesGraph reports whether ev can add or remove nodes or edges.
func movesGraph(ev models.NoteEvent) bool {
	switch ev.Kind {
	case models.EventUpdated:
		return ev.ContentChanged
	default:
		return true
	}
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastGraph time.Time
	var seq uint64

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		seq++
		raw := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than block the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case ev := <-b.noteEventCh:
			broadcast(Event{Type: EventType(ev.Kind), Data: ev})
			for _, m := range mentions(ev) {
				broadcast(m)
			}

			if !movesGraph(ev) {
				continue
			}
			now := time.Now()
			if now.Sub(lastGraph) >= b.graphMin {
				lastGraph = now
				broadcast(Event{Type: "graph.updated", Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// OnNoteEvent forwards a committed store change to every client.
func (b *Broker) OnNoteEvent(ev models.NoteEvent) {
	if b.closed.Load() {
		return
	}
	select {
	case b.noteEventCh <- ev:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	heartbeat := time.NewTicker(b.heartbeat)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			// Comment line; keeps proxies from closing an idle stream.
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
