package socket

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"livenotes/internal/note/model"
	"livenotes/pkg/logger"
)

const (
	TextChangeType = "textChange" // Client edits a note
	AllNotesType   = "allNotes"   // Full snapshot, sent once after connect
	NewNoteType    = "newNote"    // A note was created
	UpdateNoteType = "updateNote" // An edit was accepted
	ConflictType   = "conflict"   // Stale edit, authoritative state attached
	ErrorType      = "error"      // Rejected request (unknown note, not owner)
)

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EditPayload is the client's textChange submission.
type EditPayload struct {
	NoteID  string `json:"noteId"`
	NewText string `json:"newText"`
	Version int    `json:"version"`
}

// UpdatePayload announces an accepted edit to the whole room.
type UpdatePayload struct {
	NoteID  string `json:"noteId"`
	Text    string `json:"text"`
	Version int    `json:"version"`
}

// ConflictPayload carries the authoritative state back to a stale submitter.
type ConflictPayload struct {
	Content string `json:"note"`
	Version int    `json:"version"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

// Event targets every live connection of one user.
type Event struct {
	Username string
	Message  WSMessage
}

// EditHandler applies a textChange submission. Implemented by the note
// service; wired in at startup.
type EditHandler interface {
	HandleEdit(username, noteID, newText string, baseVersion int) (model.Note, error)
}

// SnapshotSource loads a user's full note set for the connect-time snapshot.
// Implemented by the note repository.
type SnapshotSource interface {
	NotesByOwner(username string) ([]model.Note, error)
}

// Hub tracks the live connections of every user and fans events out to them.
// Rooms are keyed by username: a room is exactly "all current connections of
// this user", which is also the broadcast group for that user's notes.
type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan Event
	Register   chan *Client
	Unregister chan *Client
	Sync       EditHandler

	notes SnapshotSource
	mu    sync.Mutex
}

type Client struct {
	Hub      *Hub
	Conn     *websocket.Conn
	Username string
	Send     chan []byte

	// mu guards closed. Send is written to by both the hub loop and the
	// connection's own reply path, so closing it must be fenced.
	mu     sync.Mutex
	closed bool
}

func NewHub(notes SnapshotSource) *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan Event),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		notes:      notes,
	}
}

// Publish marshals v and queues it for every connection in username's room.
func (h *Hub) Publish(username, msgType string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling %s payload: %v", msgType, err)
		return
	}
	h.Broadcast <- Event{Username: username, Message: WSMessage{Type: msgType, Payload: payload}}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.Username] == nil {
				h.Rooms[client.Username] = make(map[*Client]bool)
			}
			h.Rooms[client.Username][client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.Rooms[client.Username][client]; ok {
				delete(h.Rooms[client.Username], client)
				client.shutdown()
				if len(h.Rooms[client.Username]) == 0 {
					delete(h.Rooms, client.Username)
					logger.Sugar.Infof("Closed empty room for user %s", client.Username)
				}
			}
			h.mu.Unlock()

		case ev := <-h.Broadcast:
			raw, err := json.Marshal(ev.Message)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}

			// Collect recipients under the lock, write outside it. Everyone in
			// the room receives the event, the originator included.
			h.mu.Lock()
			clientsToSend := make([]*Client, 0, len(h.Rooms[ev.Username]))
			for client := range h.Rooms[ev.Username] {
				clientsToSend = append(clientsToSend, client)
			}
			h.mu.Unlock()

			for _, client := range clientsToSend {
				if !client.trySend(raw) {
					// The client is lagging badly; drop it rather than block
					// the hub. It can reconnect and resync from a snapshot.
					logger.Sugar.Warnf("Send buffer full for user %s, unregistering client", client.Username)
					go func(c *Client) { h.Unregister <- c }(client)
				}
			}
		}
	}
}

// MembersOf reports how many connections a user currently has. Used by tests
// and diagnostics.
func (h *Hub) MembersOf(username string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Rooms[username])
}
