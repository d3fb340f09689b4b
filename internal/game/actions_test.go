package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestHand deals a hand for the given stacks with dealer at seat 0
// and blinds 10/20.
func startTestHand(t *testing.T, chips ...int) *Game {
	t.Helper()
	g := newTestGame(t, chips...)
	_, err := g.StartHand(testDeck(), 10, 20)
	require.NoError(t, err)
	return g
}

func requireActionError(t *testing.T, err error, kind ActionErrorKind, msg string) {
	t.Helper()
	var actionErr *ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, kind, actionErr.Kind)
	assert.EqualError(t, err, msg)
}

func TestActionErrors(t *testing.T) {
	t.Run("wrong turn", func(t *testing.T) {
		g := startTestHand(t, 1000, 1000, 1000)
		err := g.Check("p1")
		requireActionError(t, err, WrongTurn, "Not your turn. Waiting for p0")
	})

	t.Run("cannot check facing a bet", func(t *testing.T) {
		g := startTestHand(t, 1000, 1000, 1000)
		err := g.Check("p0")
		requireActionError(t, err, CannotCheck, "Cannot check, must call 20 or fold")
	})

	t.Run("nothing to call", func(t *testing.T) {
		g := startTestHand(t, 1000, 1000)
		_, err := g.Call("p0")
		require.NoError(t, err)
		_, err = g.Call("p1")
		requireActionError(t, err, NothingToCall, "Nothing to call, use check instead")
	})

	t.Run("raise not above own bet", func(t *testing.T) {
		g := startTestHand(t, 1000, 1000, 1000)
		_, err := g.RaiseTo("p0", 0)
		requireActionError(t, err, NonIncreasingRaise, "Raise amount must be more than current bet")
	})

	t.Run("raise beyond stack", func(t *testing.T) {
		g := startTestHand(t, 1000, 1000, 1000)
		_, err := g.RaiseTo("p0", 1200)
		requireActionError(t, err, InsufficientChips, "Not enough chips. You have 1000")
	})

	t.Run("raise below minimum", func(t *testing.T) {
		g := startTestHand(t, 1000, 1000, 1000)
		_, err := g.RaiseTo("p0", 30)
		requireActionError(t, err, BelowMinRaise, "Minimum raise is to 40")

		// Nothing changed; it is still p0's turn.
		assert.Equal(t, 1000, g.Player("p0").Chips)
		assert.Equal(t, "p0", g.CurrentPlayer())
		assert.Empty(t, g.Hand.Acted)
	})

	t.Run("all-in with no chips", func(t *testing.T) {
		g := startTestHand(t, 1000, 1000, 1000)
		g.Player("p0").Chips = 0
		_, err := g.AllIn("p0")
		requireActionError(t, err, NoChips, "No chips to go all-in with")
	})
}

func TestValidActions(t *testing.T) {
	t.Run("opener facing the big blind", func(t *testing.T) {
		g := startTestHand(t, 1000, 1000, 1000)
		va := g.ValidActions("p0")
		assert.Equal(t, ValidActions{
			Fold:  true,
			Call:  20,
			Raise: &RaiseBounds{Min: 40, Max: 1000},
			AllIn: 1000,
		}, va)

		data, err := json.Marshal(va)
		require.NoError(t, err)
		assert.JSONEq(t, `{"fold":true,"call":20,"raise":{"min":40,"max":1000},"all_in":1000}`, string(data))
	})

	t.Run("big blind option", func(t *testing.T) {
		g := startTestHand(t, 1000, 1000, 1000)
		_, err := g.Call("p0")
		require.NoError(t, err)
		_, err = g.Call("p1")
		require.NoError(t, err)

		va := g.ValidActions("p2")
		assert.Equal(t, ValidActions{
			Fold:  true,
			Check: true,
			Raise: &RaiseBounds{Min: 20, Max: 980},
			AllIn: 980,
		}, va)
	})

	t.Run("short stack call is capped", func(t *testing.T) {
		g := startTestHand(t, 1000, 1000, 50)
		_, err := g.RaiseTo("p0", 200)
		require.NoError(t, err)
		_, err = g.Call("p1")
		require.NoError(t, err)

		va := g.ValidActions("p2")
		assert.Equal(t, 30, va.Call) // 30 chips behind after the blind
		assert.Nil(t, va.Raise)
		assert.Equal(t, 30, va.AllIn)
	})

	t.Run("empty when not your turn", func(t *testing.T) {
		g := startTestHand(t, 1000, 1000, 1000)
		va := g.ValidActions("p1")
		assert.Equal(t, ValidActions{}, va)

		data, err := json.Marshal(va)
		require.NoError(t, err)
		assert.Equal(t, "{}", string(data))
	})

	t.Run("empty once folded", func(t *testing.T) {
		g := startTestHand(t, 1000, 1000, 1000)
		require.NoError(t, g.Fold("p0"))
		assert.Equal(t, ValidActions{}, g.ValidActions("p0"))
	})

	t.Run("empty without a hand", func(t *testing.T) {
		g := newTestGame(t, 1000, 1000)
		assert.Equal(t, ValidActions{}, g.ValidActions("p0"))
	})
}

func TestCheckCallFlow(t *testing.T) {
	g := startTestHand(t, 1000, 1000, 1000)

	called, err := g.Call("p0")
	require.NoError(t, err)
	assert.Equal(t, 20, called)
	assert.Equal(t, "p1", g.CurrentPlayer())

	called, err = g.Call("p1")
	require.NoError(t, err)
	assert.Equal(t, 10, called)
	assert.Equal(t, "p2", g.CurrentPlayer())

	require.NoError(t, g.Check("p2"))

	// The round closed: bets collected, flop betting opens on the
	// small blind.
	assert.Equal(t, RoundFlop, g.Hand.Round)
	assert.Equal(t, 60, g.Hand.Pots[0].Amount)
	assert.Equal(t, []string{"p0", "p1", "p2"}, g.Hand.Pots[0].Eligible)
	assert.Equal(t, 0, g.Hand.CurrentBet)
	assert.Equal(t, "p1", g.CurrentPlayer())
	for _, ph := range g.Hand.PlayerHands {
		assert.Equal(t, 0, ph.CurrentBet)
	}
	assert.Equal(t, 3000, chipSum(g))
}

func TestFoldToLastPlayerEndsHand(t *testing.T) {
	g := startTestHand(t, 1000, 1000)

	// Heads-up: the dealer small blind folds to the big blind.
	require.NoError(t, g.Fold("p0"))

	assert.Equal(t, RoundShowdown, g.Hand.Round)
	unfolded := g.UnfoldedPlayers()
	require.Len(t, unfolded, 1)
	assert.Equal(t, "p1", unfolded[0].Nickname)

	// The blinds are still in the middle for the winner to collect.
	assert.Equal(t, 30, g.Hand.TotalPot())
	assert.Equal(t, 990, g.Player("p0").Chips)
	assert.Equal(t, 980, g.Player("p1").Chips)
}

func TestTurnIndexAfterFold(t *testing.T) {
	g := startTestHand(t, 1000, 1000, 1000)

	// Folding shrinks the can-act list while the index advances, so
	// the turn lands past the folder's successor.
	require.NoError(t, g.Fold("p0"))
	assert.Equal(t, "p2", g.CurrentPlayer())

	require.NoError(t, g.Check("p2"))
	assert.Equal(t, "p1", g.CurrentPlayer())

	_, err := g.Call("p1")
	require.NoError(t, err)

	// Everyone has now acted and matched; on to the flop.
	assert.Equal(t, RoundFlop, g.Hand.Round)
	assert.Equal(t, 40, g.Hand.Pots[0].Amount)
	assert.Equal(t, []string{"p1", "p2"}, g.Hand.Pots[0].Eligible)
}

func TestRaiseReopensBetting(t *testing.T) {
	g := startTestHand(t, 1000, 1000, 1000)

	added, err := g.RaiseTo("p0", 60)
	require.NoError(t, err)
	assert.Equal(t, 60, added)

	assert.Equal(t, 60, g.Hand.CurrentBet)
	assert.Equal(t, 40, g.Hand.MinRaise)
	assert.Equal(t, "p0", g.Hand.LastRaiser)
	assert.Equal(t, map[string]bool{"p0": true}, g.Hand.Acted)
	assert.Equal(t, "p1", g.CurrentPlayer())

	added, err = g.RaiseTo("p1", 120)
	require.NoError(t, err)
	assert.Equal(t, 110, added)

	assert.Equal(t, 120, g.Hand.CurrentBet)
	assert.Equal(t, 60, g.Hand.MinRaise)
	assert.Equal(t, "p1", g.Hand.LastRaiser)
	assert.Equal(t, map[string]bool{"p1": true}, g.Hand.Acted)
	assert.Equal(t, "p2", g.CurrentPlayer())

	va := g.ValidActions("p2")
	assert.Equal(t, 100, va.Call)
	assert.Equal(t, &RaiseBounds{Min: 160, Max: 960}, va.Raise)
}

func TestShortAllInDoesNotReopenBetting(t *testing.T) {
	g := startTestHand(t, 1000, 1000, 130)

	_, err := g.RaiseTo("p0", 100)
	require.NoError(t, err)
	_, err = g.Call("p1")
	require.NoError(t, err)

	// p2 shoves 130 total, short of the 180 minimum re-raise. The bet
	// to match stays 100 and the round closes without another turn
	// for p0 or p1.
	added, err := g.AllIn("p2")
	require.NoError(t, err)
	assert.Equal(t, 110, added)

	assert.Equal(t, RoundFlop, g.Hand.Round)
	assert.Equal(t, 330, g.Hand.Pots[0].Amount)
	assert.Equal(t, 80, g.Hand.MinRaise)
	assert.True(t, g.Hand.PlayerHands["p2"].AllIn)
	assert.Equal(t, "p1", g.CurrentPlayer())
	assert.Equal(t, 2130, chipSum(g))
}

func TestFullRaiseAllInReopensBetting(t *testing.T) {
	g := startTestHand(t, 1000, 1000, 300)

	_, err := g.RaiseTo("p0", 100)
	require.NoError(t, err)
	_, err = g.Call("p1")
	require.NoError(t, err)

	added, err := g.AllIn("p2")
	require.NoError(t, err)
	assert.Equal(t, 280, added)

	// 300 total is a full raise over 100: betting re-opens.
	assert.Equal(t, RoundPreflop, g.Hand.Round)
	assert.Equal(t, 300, g.Hand.CurrentBet)
	assert.Equal(t, 200, g.Hand.MinRaise)
	assert.Equal(t, "p2", g.Hand.LastRaiser)
	assert.Equal(t, map[string]bool{"p2": true}, g.Hand.Acted)

	assert.Equal(t, "p1", g.CurrentPlayer())
	assert.Equal(t, 200, g.ValidActions("p1").Call)
}

func TestPartialCallGoesAllIn(t *testing.T) {
	g := startTestHand(t, 1000, 1000, 60)

	_, err := g.RaiseTo("p0", 100)
	require.NoError(t, err)
	_, err = g.Call("p1")
	require.NoError(t, err)

	// p2 calls for their last 40 chips.
	called, err := g.Call("p2")
	require.NoError(t, err)
	assert.Equal(t, 40, called)
	assert.True(t, g.Hand.PlayerHands["p2"].AllIn)

	// A partial call never re-opens the betting.
	assert.Equal(t, RoundFlop, g.Hand.Round)
	assert.Equal(t, 260, g.Hand.Pots[0].Amount)
}

func TestRaiseToShortAllInActsAsCall(t *testing.T) {
	g := startTestHand(t, 1000, 1000, 60)

	_, err := g.RaiseTo("p0", 100)
	require.NoError(t, err)
	_, err = g.Call("p1")
	require.NoError(t, err)

	// Routing the short all-in through RaiseTo commits the chips
	// without moving the bet to match.
	added, err := g.RaiseTo("p2", 60)
	require.NoError(t, err)
	assert.Equal(t, 40, added)
	assert.True(t, g.Hand.PlayerHands["p2"].AllIn)
	assert.Equal(t, 60, g.Hand.PlayerHands["p2"].TotalBet)

	assert.Equal(t, RoundFlop, g.Hand.Round)
	assert.Equal(t, 260, g.Hand.Pots[0].Amount)
	assert.Equal(t, 80, g.Hand.MinRaise)
}

func TestCheckDownToShowdown(t *testing.T) {
	g := startTestHand(t, 1000, 1000)

	_, err := g.Call("p0")
	require.NoError(t, err)
	require.NoError(t, g.Check("p1"))
	require.Equal(t, RoundFlop, g.Hand.Round)

	// Heads-up after the flop the big blind acts first.
	for _, round := range []Round{RoundTurn, RoundRiver, RoundShowdown} {
		assert.Equal(t, "p1", g.CurrentPlayer())
		require.NoError(t, g.Check("p1"))
		require.NoError(t, g.Check("p0"))
		require.Equal(t, round, g.Hand.Round)

		assert.Equal(t, 0, g.Hand.CurrentBet)
		for _, ph := range g.Hand.PlayerHands {
			assert.Equal(t, 0, ph.CurrentBet)
		}
	}

	assert.Equal(t, 40, g.Hand.Pots[0].Amount)
	assert.Equal(t, 2000, chipSum(g))
}

func TestEveryoneAllInClosesRound(t *testing.T) {
	g := startTestHand(t, 500, 500)

	_, err := g.AllIn("p0")
	require.NoError(t, err)
	assert.Equal(t, "p1", g.CurrentPlayer())

	_, err = g.AllIn("p1")
	require.NoError(t, err)

	// Nobody can act, so the round closes and no turn remains.
	assert.Equal(t, RoundFlop, g.Hand.Round)
	assert.Equal(t, "", g.CurrentPlayer())
	assert.Empty(t, g.CanActPlayers())
	assert.Equal(t, 1000, g.Hand.Pots[0].Amount)
	assert.Equal(t, 1000, chipSum(g))
}

func TestConservationThroughBetting(t *testing.T) {
	g := startTestHand(t, 1000, 1000, 1000, 1000)
	assert.Equal(t, 4000, chipSum(g))

	// Seat 3 opens from under the gun.
	_, err := g.RaiseTo("p3", 80)
	require.NoError(t, err)
	assert.Equal(t, 4000, chipSum(g))
	assert.Equal(t, "p0", g.CurrentPlayer())

	require.NoError(t, g.Fold("p0"))
	assert.Equal(t, 4000, chipSum(g))
	assert.Equal(t, "p2", g.CurrentPlayer())

	_, err = g.Call("p2")
	require.NoError(t, err)
	assert.Equal(t, 4000, chipSum(g))

	// The index walk brings the raiser a no-op turn before the small
	// blind closes the round.
	assert.Equal(t, "p3", g.CurrentPlayer())
	require.NoError(t, g.Check("p3"))

	_, err = g.Call("p1")
	require.NoError(t, err)
	assert.Equal(t, 4000, chipSum(g))
	assert.Equal(t, RoundFlop, g.Hand.Round)
	assert.Equal(t, 240, g.Hand.Pots[0].Amount)
}
