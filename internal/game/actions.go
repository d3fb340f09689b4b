package game

import "fmt"

// ActionErrorKind classifies why a table action was rejected.
type ActionErrorKind int

const (
	WrongTurn ActionErrorKind = iota
	CannotCheck
	NothingToCall
	NonIncreasingRaise
	InsufficientChips
	BelowMinRaise
	NoChips
	UnknownAction
)

// ActionError is a player-caused rule violation. Its message is sent
// back to the offending player verbatim, so the wording is part of the
// client contract.
type ActionError struct {
	Kind ActionErrorKind
	msg  string
}

func (e *ActionError) Error() string { return e.msg }

// NewActionError builds an ActionError with a formatted message.
func NewActionError(kind ActionErrorKind, format string, args ...any) *ActionError {
	return &ActionError{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

func (g *Game) validateTurn(nickname string) error {
	if current := g.CurrentPlayer(); current != nickname {
		return NewActionError(WrongTurn, "Not your turn. Waiting for %s", current)
	}
	return nil
}

// RaiseBounds is the allowed raise range for the current player,
// expressed in additional chips on top of their current-round bet.
type RaiseBounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// ValidActions describes the legal actions for a player right now. The
// zero value means no action is available and serializes to an empty
// JSON object.
type ValidActions struct {
	Fold  bool         `json:"fold,omitempty"`
	Check bool         `json:"check,omitempty"`
	Call  int          `json:"call,omitempty"`
	Raise *RaiseBounds `json:"raise,omitempty"`
	AllIn int          `json:"all_in,omitempty"`
}

// ValidActions returns what nickname may do. Empty unless it is their
// turn and they are neither folded nor all-in.
func (g *Game) ValidActions(nickname string) ValidActions {
	if g.Hand == nil {
		return ValidActions{}
	}
	h := g.Hand
	ph := h.PlayerHands[nickname]
	player := g.Player(nickname)
	if ph == nil || player == nil || ph.Folded || ph.AllIn {
		return ValidActions{}
	}
	if g.CurrentPlayer() != nickname {
		return ValidActions{}
	}

	va := ValidActions{Fold: true}
	toCall := h.CurrentBet - ph.CurrentBet
	if toCall == 0 {
		va.Check = true
	} else {
		va.Call = min(toCall, player.Chips)
	}
	if player.Chips > toCall {
		needed := h.CurrentBet + h.MinRaise - ph.CurrentBet
		va.Raise = &RaiseBounds{Min: min(needed, player.Chips), Max: player.Chips}
	}
	va.AllIn = player.Chips
	return va
}

// Fold gives up the hand.
func (g *Game) Fold(nickname string) error {
	if err := g.validateTurn(nickname); err != nil {
		return err
	}
	h := g.Hand
	h.PlayerHands[nickname].Folded = true
	h.Acted[nickname] = true
	g.advanceAction()
	return nil
}

// Check passes the action without betting.
func (g *Game) Check(nickname string) error {
	if err := g.validateTurn(nickname); err != nil {
		return err
	}
	h := g.Hand
	ph := h.PlayerHands[nickname]
	if toCall := h.CurrentBet - ph.CurrentBet; toCall > 0 {
		return NewActionError(CannotCheck, "Cannot check, must call %d or fold", toCall)
	}
	h.Acted[nickname] = true
	g.advanceAction()
	return nil
}

// Call matches the current bet, going all-in for less when short.
// Returns the chips actually committed. A partial call never re-opens
// the betting.
func (g *Game) Call(nickname string) (int, error) {
	if err := g.validateTurn(nickname); err != nil {
		return 0, err
	}
	h := g.Hand
	ph := h.PlayerHands[nickname]
	player := g.Player(nickname)

	toCall := h.CurrentBet - ph.CurrentBet
	if toCall <= 0 {
		return 0, NewActionError(NothingToCall, "Nothing to call, use check instead")
	}

	actual := min(toCall, player.Chips)
	player.Chips -= actual
	ph.CurrentBet += actual
	ph.TotalBet += actual
	if player.Chips == 0 {
		ph.AllIn = true
	}
	h.Acted[nickname] = true
	g.advanceAction()
	return actual, nil
}

// RaiseTo raises the bet. total is the player's full bet for this round,
// not the delta on top of it. Returns the chips added.
//
// A raise below the table minimum is legal only as an all-in for less;
// it commits the chips without moving the bet to match, updating the
// minimum raise or re-opening action for players who already acted.
func (g *Game) RaiseTo(nickname string, total int) (int, error) {
	if err := g.validateTurn(nickname); err != nil {
		return 0, err
	}
	h := g.Hand
	ph := h.PlayerHands[nickname]
	player := g.Player(nickname)

	additional := total - ph.CurrentBet
	if additional <= 0 {
		return 0, NewActionError(NonIncreasingRaise, "Raise amount must be more than current bet")
	}
	if additional > player.Chips {
		return 0, NewActionError(InsufficientChips, "Not enough chips. You have %d", player.Chips)
	}
	minTotal := h.CurrentBet + h.MinRaise
	if total < minTotal && additional < player.Chips {
		return 0, NewActionError(BelowMinRaise, "Minimum raise is to %d", minTotal)
	}

	player.Chips -= additional
	ph.CurrentBet = total
	ph.TotalBet += additional
	if player.Chips == 0 {
		ph.AllIn = true
	}

	if total >= minTotal {
		h.MinRaise = max(h.MinRaise, total-h.CurrentBet)
		h.CurrentBet = total
		h.LastRaiser = nickname
		h.Acted = map[string]bool{nickname: true}
	} else {
		h.Acted[nickname] = true
	}
	g.advanceAction()
	return additional, nil
}

// AllIn bets every remaining chip. A full-raise all-in re-opens the
// betting; an all-in at or below the bet to match plays as a call.
// Returns the chips committed.
func (g *Game) AllIn(nickname string) (int, error) {
	if err := g.validateTurn(nickname); err != nil {
		return 0, err
	}
	h := g.Hand
	ph := h.PlayerHands[nickname]
	player := g.Player(nickname)

	amount := player.Chips
	if amount == 0 {
		return 0, NewActionError(NoChips, "No chips to go all-in with")
	}
	newTotal := ph.CurrentBet + amount

	player.Chips = 0
	ph.CurrentBet = newTotal
	ph.TotalBet += amount
	ph.AllIn = true

	if newTotal >= h.CurrentBet+h.MinRaise {
		h.MinRaise = max(h.MinRaise, newTotal-h.CurrentBet)
		h.CurrentBet = newTotal
		h.LastRaiser = nickname
		h.Acted = map[string]bool{nickname: true}
	} else {
		h.Acted[nickname] = true
	}
	g.advanceAction()
	return amount, nil
}

// advanceAction runs after every applied action: it either ends the hand
// (one player left), closes the betting round, or passes the turn.
func (g *Game) advanceAction() {
	h := g.Hand

	unfolded := g.UnfoldedPlayers()
	if len(unfolded) <= 1 {
		h.Round = RoundShowdown
		return
	}

	canAct := g.CanActPlayers()

	allActed := true
	for _, p := range canAct {
		if !h.Acted[p.Nickname] {
			allActed = false
			break
		}
	}
	allMatched := true
	for _, p := range unfolded {
		ph := h.PlayerHands[p.Nickname]
		if ph.CurrentBet != h.CurrentBet && !ph.AllIn {
			allMatched = false
			break
		}
	}

	if (allActed && allMatched) || len(canAct) == 0 {
		g.advanceBettingRound()
		return
	}
	h.CurrentPlayerIdx = (h.CurrentPlayerIdx + 1) % len(canAct)
}

// advanceBettingRound collects the round's bets and opens the next
// round with the first live seat past the dealer.
func (g *Game) advanceBettingRound() {
	h := g.Hand

	g.CollectBets()
	h.CurrentBet = 0
	h.Acted = make(map[string]bool)
	h.LastRaiser = ""
	h.Round = h.Round.next()

	active := g.ActivePlayers()
	for i := 0; i < len(active); i++ {
		seat := active[(h.DealerPosition+1+i)%len(active)]
		if idx := g.canActIndexOf(seat); idx >= 0 {
			h.CurrentPlayerIdx = idx
			break
		}
	}
}
