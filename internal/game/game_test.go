package game

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestGame seats one player per chip count, named p0, p1, ... in
// seat order, and marks the game active.
func newTestGame(t *testing.T, chips ...int) *Game {
	t.Helper()
	g := New("11111111-2222-4333-8444-555555555555", "p0", 4)
	for i, c := range chips {
		_, err := g.AddPlayer(fmt.Sprintf("p%d", i), c)
		require.NoError(t, err)
	}
	g.Status = StatusActive
	return g
}

// chipSum returns chips in stacks plus chips in the middle, which must
// stay constant for the lifetime of a game.
func chipSum(g *Game) int {
	total := 0
	for _, p := range g.Players {
		total += p.Chips
	}
	if g.Hand != nil {
		total += g.Hand.TotalPot()
	}
	return total
}

func TestAddPlayer(t *testing.T) {
	g := New("id", "alice", 4)

	_, err := g.AddPlayer("alice", 1000)
	require.NoError(t, err)
	_, err = g.AddPlayer("bob", 1000)
	require.NoError(t, err)

	t.Run("duplicate nickname", func(t *testing.T) {
		_, err := g.AddPlayer("bob", 1000)
		require.EqualError(t, err, "A player with this nickname is already in the game")
	})

	t.Run("full table", func(t *testing.T) {
		_, err := g.AddPlayer("carol", 1000)
		require.NoError(t, err)
		_, err = g.AddPlayer("dave", 1000)
		require.NoError(t, err)
		_, err = g.AddPlayer("eve", 1000)
		require.EqualError(t, err, "Game is full (max 4 players)")
	})

	t.Run("already started", func(t *testing.T) {
		g := New("id2", "alice", 4)
		_, err := g.AddPlayer("alice", 1000)
		require.NoError(t, err)
		g.Status = StatusActive
		_, err = g.AddPlayer("bob", 1000)
		require.EqualError(t, err, "Game has already started")
	})
}

func TestPlayerLookup(t *testing.T) {
	g := newTestGame(t, 1000, 1000, 1000)

	assert.True(t, g.HasPlayer("p1"))
	assert.False(t, g.HasPlayer("p9"))
	assert.Equal(t, 1, g.PlayerPosition("p1"))
	assert.Equal(t, -1, g.PlayerPosition("p9"))
	assert.Nil(t, g.Player("p9"))

	p := g.Player("p2")
	require.NotNil(t, p)
	assert.Equal(t, "p2", p.Nickname)
}

func TestActivePlayersSkipsEliminated(t *testing.T) {
	g := newTestGame(t, 1000, 1000, 1000, 1000)
	g.Players[1].Eliminated = true

	active := g.ActivePlayers()
	require.Len(t, active, 3)
	assert.Equal(t, "p0", active[0].Nickname)
	assert.Equal(t, "p2", active[1].Nickname)
	assert.Equal(t, "p3", active[2].Nickname)
}

func TestRecordEliminations(t *testing.T) {
	g := newTestGame(t, 1000, 1000, 1000, 1000)

	// First bust of a four-player game finishes fourth.
	g.Players[2].Chips = 0
	out := g.RecordEliminations()
	require.Len(t, out, 1)
	assert.Equal(t, "p2", out[0].Nickname)
	assert.Equal(t, 4, out[0].EliminationPosition)
	assert.True(t, out[0].Eliminated)

	// Second bust finishes third.
	g.Players[0].Chips = 0
	out = g.RecordEliminations()
	require.Len(t, out, 1)
	assert.Equal(t, "p0", out[0].Nickname)
	assert.Equal(t, 3, out[0].EliminationPosition)

	// Nothing new on a second pass.
	assert.Empty(t, g.RecordEliminations())
	assert.Equal(t, []string{"p2", "p0"}, g.EliminationOrder)
}

func TestFinalPlacements(t *testing.T) {
	points := []int{10, 5, 2, 1}

	g := newTestGame(t, 1000, 1000, 1000, 1000)
	g.Players[2].Chips = 0
	g.RecordEliminations()
	g.Players[0].Chips = 0
	g.RecordEliminations()
	g.Players[1].Chips = 2600
	g.Players[3].Chips = 1400

	placements := g.FinalPlacements(points)
	require.Len(t, placements, 4)

	assert.Equal(t, Placement{Nickname: "p1", Position: 1, Chips: 2600, Points: 10}, placements[0])
	assert.Equal(t, Placement{Nickname: "p3", Position: 2, Chips: 1400, Points: 5}, placements[1])
	assert.Equal(t, Placement{Nickname: "p0", Position: 3, Chips: 0, Points: 2}, placements[2])
	assert.Equal(t, Placement{Nickname: "p2", Position: 4, Chips: 0, Points: 1}, placements[3])
}

func TestFinalPlacementsChipTieBreaksBySeat(t *testing.T) {
	g := newTestGame(t, 1000, 1000)
	placements := g.FinalPlacements([]int{10, 5, 2, 1})
	require.Len(t, placements, 2)
	assert.Equal(t, "p0", placements[0].Nickname)
	assert.Equal(t, 1, placements[0].Position)
	assert.Equal(t, "p1", placements[1].Nickname)
	assert.Equal(t, 2, placements[1].Position)
}

func TestFinalPlacementsPointsBeyondTable(t *testing.T) {
	g := newTestGame(t, 1000, 1000)
	placements := g.FinalPlacements([]int{10})
	assert.Equal(t, 10, placements[0].Points)
	assert.Equal(t, 0, placements[1].Points)
}

func TestSnapshotJSON(t *testing.T) {
	g := newTestGame(t, 1000, 1000)
	g.Players[1].Eliminated = true
	g.Players[1].EliminationPosition = 2
	g.CurrentHand = 7

	data, err := json.Marshal(g.Snapshot())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "11111111-2222-4333-8444-555555555555", got["id"])
	assert.Equal(t, "p0", got["creator"])
	assert.Equal(t, "active", got["status"])
	assert.Equal(t, float64(2), got["player_count"])
	assert.Equal(t, float64(7), got["current_hand"])
	assert.NotEmpty(t, got["created_at"])

	players := got["players"].([]any)
	require.Len(t, players, 2)

	first := players[0].(map[string]any)
	assert.Equal(t, "p0", first["nickname"])
	assert.Equal(t, float64(1000), first["chips"])
	assert.Equal(t, false, first["is_eliminated"])
	assert.Nil(t, first["elimination_position"])

	second := players[1].(map[string]any)
	assert.Equal(t, true, second["is_eliminated"])
	assert.Equal(t, float64(2), second["elimination_position"])
}
