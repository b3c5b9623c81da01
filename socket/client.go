package socket

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"livenotes/internal/note/model"
	"livenotes/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CheckOrigin allows connections from the dev frontend
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWs upgrades an authenticated request to a websocket connection bound
// to username for its lifetime.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, username string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	// Snapshot of the user's notes. A connection whose state cannot be
	// loaded is closed; it must never start from a fabricated empty set.
	notes, err := hub.notes.NotesByOwner(username)
	if err != nil {
		logger.Sugar.Errorf("Failed to load snapshot for user %s: %v", username, err)
		conn.Close()
		return
	}

	client := &Client{
		Hub:      hub,
		Conn:     conn,
		Username: username,
		Send:     make(chan []byte, 256),
	}

	// Queue the snapshot before registering so it is the first message the
	// connection receives; deltas only start flowing once registered.
	client.send(AllNotesType, notes)
	client.Hub.Register <- client

	go client.writePump()
	go client.readPump()
}

// send marshals a message envelope straight into this client's buffer,
// bypassing the room. Used for the snapshot and for replies that must reach
// only the submitter.
func (c *Client) send(msgType string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling %s payload: %v", msgType, err)
		return
	}
	raw, _ := json.Marshal(WSMessage{Type: msgType, Payload: payload})
	if !c.trySend(raw) {
		logger.Sugar.Warnf("Dropping %s message for user %s: connection gone or lagging", msgType, c.Username)
	}
}

// trySend queues raw for delivery unless the client has been shut down or its
// buffer is full. Both the hub loop and the connection's reply path send on
// Send, so the closed check and the send happen under one lock.
func (c *Client) trySend(raw []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- raw:
		return true
	default:
		return false
	}
}

// shutdown closes the send channel exactly once. Only the hub's unregister
// path calls it; after it returns, trySend refuses further messages.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, rawMessage, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(rawMessage, &msg); err != nil {
			logger.Sugar.Errorf("Error unmarshalling message: %v", err)
			continue
		}

		switch msg.Type {
		case TextChangeType:
			var edit EditPayload
			if err := json.Unmarshal(msg.Payload, &edit); err != nil {
				logger.Sugar.Errorf("Error unmarshalling textChange payload: %v", err)
				continue
			}
			c.handleEdit(edit)
		default:
			logger.Sugar.Warnf("Unknown message type %q from user %s", msg.Type, c.Username)
		}
	}
}

// handleEdit runs an edit submission on this connection's goroutine so a slow
// database write never stalls the hub or other notes. The username comes from
// the authenticated client, never from the message, so it cannot be spoofed.
func (c *Client) handleEdit(edit EditPayload) {
	_, err := c.Hub.Sync.HandleEdit(c.Username, edit.NoteID, edit.NewText, edit.Version)
	if err == nil {
		// An accepted edit is broadcast to the whole room by the service.
		return
	}

	var conflict *model.ConflictError
	switch {
	case errors.As(err, &conflict):
		// Only the stale submitter learns about the conflict; everyone else
		// already has the authoritative state.
		c.send(ConflictType, ConflictPayload{Content: conflict.Content, Version: conflict.Version})
	case errors.Is(err, model.ErrBusy):
		// Another mutation for this note is in flight; the attempt is dropped
		// without a reply.
	case errors.Is(err, model.ErrUnauthorized):
		c.send(ErrorType, ErrorPayload{Error: "unauthorized"})
	case errors.Is(err, model.ErrNotFound):
		c.send(ErrorType, ErrorPayload{Error: "note not found"})
	default:
		logger.Sugar.Errorf("Edit failed for user %s on note %s: %v", c.Username, edit.NoteID, err)
		c.send(ErrorType, ErrorPayload{Error: "edit failed, try again"})
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second) // Ping every 30s to detect dead peers
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.Conn.WriteMessage(websocket.TextMessage, message)
		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return // Connection is dead
			}
		}
	}
}
