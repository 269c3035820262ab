package ws

import (
	"encoding/json"
	"testing"

	"holdem-service/internal/game"
	"holdem-service/internal/service"
	servAuth "holdem-service/internal/service/auth"

	"github.com/stretchr/testify/require"
)

// bareClient builds a Client with no underlying socket. enqueue only touches
// the send channel, so these are enough to observe what a connection would
// have been told.
func bareClient(id string) *Client {
	return &Client{
		identity:  &servAuth.Identity{ID: id, Username: "user-" + id, Guest: true},
		send:      make(chan game.Message, 8),
		closeOnce: make(chan struct{}),
	}
}

func queued(c *Client) []game.Message {
	var msgs []game.Message
	for {
		select {
		case m := <-c.send:
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

func countOfType(msgs []game.Message, msgType string) int {
	n := 0
	for _, m := range msgs {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

func TestDispatchFaultReachesTheTable(t *testing.T) {
	hub := NewHub()
	offender := bareClient("p1")
	bystander := bareClient("p2")
	hub.register(offender)
	hub.register(bystander)
	hub.joinRoom("tbl-9", "p1")
	hub.joinRoom("tbl-9", "p2")

	// An empty container has no table registry, so any table intent blows up
	// past the payload checks.
	h := NewHandler(&service.Container{}, hub)

	h.dispatch(offender, "gameAction", json.RawMessage(`{"tableId":"tbl-9","action":"fold"}`))

	require.Equal(t, 1, countOfType(queued(bystander), game.MsgError))
	got := queued(offender)
	require.NotEmpty(t, got)
	require.Equal(t, game.MsgError, got[0].Type)
}

func TestDispatchFaultWithoutTableStaysPrivate(t *testing.T) {
	hub := NewHub()
	offender := bareClient("p1")
	bystander := bareClient("p2")
	hub.register(offender)
	hub.register(bystander)
	hub.joinRoom("tbl-9", "p1")
	hub.joinRoom("tbl-9", "p2")

	h := NewHandler(&service.Container{}, hub)

	h.dispatch(offender, "listTables", json.RawMessage(`{}`))

	require.Equal(t, 1, countOfType(queued(offender), game.MsgError))
	require.Empty(t, queued(bystander))
}
