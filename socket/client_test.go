package socket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyAfterLaggardUnregisterDoesNotPanic(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	c := &Client{Hub: hub, Username: "alice", Send: make(chan []byte, 1)}
	hub.Register <- c

	// Fill the one-slot buffer, then broadcast: the hub treats the client as
	// a laggard, unregisters it and closes its send channel.
	require.True(t, c.trySend([]byte(`{}`)))
	hub.Publish("alice", UpdateNoteType, UpdatePayload{NoteID: "D", Text: "hello", Version: 2})

	require.Eventually(t, func() bool { return hub.MembersOf("alice") == 0 },
		2*time.Second, 10*time.Millisecond)

	// The connection's read loop can still issue a direct reply after the
	// hub has dropped the client; it must be discarded, not crash.
	require.NotPanics(t, func() {
		c.send(ConflictType, ConflictPayload{Content: "hello", Version: 2})
	})
	assert.False(t, c.trySend([]byte(`{}`)), "a shut-down client accepts no further messages")
}
