package client

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardhall/holdem/internal/randutil"
	"github.com/cardhall/holdem/internal/server"
)

func newBackend(t *testing.T) (*Client, *httptest.Server) {
	t.Helper()
	srv := server.New(server.DefaultConfig(), log.New(io.Discard), randutil.New(11),
		server.WithClock(quartz.NewMock(t)))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL, log.New(io.Discard)), ts
}

func nextEvent(t *testing.T, events <-chan *server.Message, eventType string) *server.Message {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg, ok := <-events:
			require.True(t, ok, "connection closed waiting for %s", eventType)
			if msg.Type == eventType {
				return msg
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", eventType)
		}
	}
}

func TestLobbyRoundTrip(t *testing.T) {
	c, _ := newBackend(t)
	ctx := context.Background()

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", health["status"])

	created, err := c.CreateGame(ctx, "Alice ")
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Creator)

	games, err := c.ListGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, created.ID, games[0].ID)

	joined, err := c.JoinGame(ctx, created.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, joined.PlayerCount)

	_, err = c.JoinGame(ctx, created.ID, "  ")
	assert.EqualError(t, err, "Nickname cannot be empty")

	_, err = c.JoinGame(ctx, "missing", "carol")
	assert.EqualError(t, err, "Game not found")
}

func TestGameChannel(t *testing.T) {
	c, _ := newBackend(t)
	ctx := context.Background()

	created, err := c.CreateGame(ctx, "alice")
	require.NoError(t, err)
	_, err = c.JoinGame(ctx, created.ID, "bob")
	require.NoError(t, err)

	alice, err := c.ConnectGame(ctx, created.ID, "alice")
	require.NoError(t, err)
	defer alice.Close()
	bob, err := c.ConnectGame(ctx, created.ID, "bob")
	require.NoError(t, err)
	defer bob.Close()

	nextEvent(t, alice.Events(), server.EventGameJoined)
	nextEvent(t, bob.Events(), server.EventGameJoined)

	require.NoError(t, alice.StartGame())
	nextEvent(t, bob.Events(), server.EventGameStarted)
	nextEvent(t, alice.Events(), server.EventHandStarted)

	// Heads-up: the creator is dealer and small blind, first to act.
	require.NoError(t, alice.SendAction("fold", 0))
	nextEvent(t, bob.Events(), server.EventPlayerAction)
	nextEvent(t, bob.Events(), server.EventHandResult)
}

func TestWSURLSchemes(t *testing.T) {
	c := New("https://example.com", log.New(io.Discard))
	u, err := c.wsURL("/ws/lobby")
	require.NoError(t, err)
	assert.Equal(t, "wss://example.com/ws/lobby", u)

	c = New("ftp://example.com", log.New(io.Discard))
	_, err = c.wsURL("/ws/lobby")
	assert.Error(t, err)
}
