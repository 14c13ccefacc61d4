// events/hub.go

// Package events fans note and folder change notifications out to subscribers.
package events

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vinizap/lumi-notes/domain"
)

const (
	NoteCreated   = "note_created"
	NoteUpdated   = "note_updated"
	NoteDeleted   = "note_deleted"
	FolderCreated = "folder_created"
	FolderUpdated = "folder_updated"
	FolderDeleted = "folder_deleted"
)

const subscriberBuffer = 16

type Message struct {
	Type   string         `json:"type"`
	ID     int64          `json:"id"`
	Note   *domain.Note   `json:"note,omitempty"`
	Folder *domain.Folder `json:"folder,omitempty"`
}

// Hub owns the subscriber set; only the Run goroutine touches it.
type Hub struct {
	clients    map[chan Message]bool
	broadcast  chan Message
	register   chan chan Message
	unregister chan chan Message
	done       chan struct{}
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[chan Message]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan chan Message),
		unregister: make(chan chan Message),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run dispatches messages until ctx is cancelled, then closes every
// subscriber channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true

		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c)
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c <- msg:
				default:
					h.log.Warn().Str("type", msg.Type).Msg("subscriber too slow, event dropped")
				}
			}
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Subscribe registers a new subscriber. The returned channel is closed after
// cancel is called or the hub stops.
func (h *Hub) Subscribe() (<-chan Message, func()) {
	c := make(chan Message, subscriberBuffer)
	select {
	case h.register <- c:
	case <-h.done:
		close(c)
		return c, func() {}
	}

	cancel := func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
	}
	return c, cancel
}

// Publish queues msg for every subscriber without blocking the caller.
func (h *Hub) Publish(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn().Str("type", msg.Type).Msg("event queue full, event dropped")
	}
}

func (h *Hub) NoteChanged(kind string, note domain.Note) {
	h.Publish(Message{Type: kind, ID: note.ID, Note: &note})
}

func (h *Hub) FolderChanged(kind string, folder domain.Folder) {
	h.Publish(Message{Type: kind, ID: folder.ID, Folder: &folder})
}

// Deleted publishes a deletion, which carries only the id.
func (h *Hub) Deleted(kind string, id int64) {
	h.Publish(Message{Type: kind, ID: id})
}
