package game

import (
	"errors"

	"github.com/cardhall/holdem/internal/deck"
)

// Round is a betting round within a hand.
type Round string

const (
	RoundPreflop  Round = "preflop"
	RoundFlop     Round = "flop"
	RoundTurn     Round = "turn"
	RoundRiver    Round = "river"
	RoundShowdown Round = "showdown"
)

// next returns the round that follows; showdown is terminal.
func (r Round) next() Round {
	switch r {
	case RoundPreflop:
		return RoundFlop
	case RoundFlop:
		return RoundTurn
	case RoundTurn:
		return RoundRiver
	default:
		return RoundShowdown
	}
}

// PlayerHand is one player's state within a single hand.
type PlayerHand struct {
	Nickname   string
	HoleCards  []deck.Card
	CurrentBet int // committed this round, not yet collected into a pot
	TotalBet   int // committed over the whole hand
	Folded     bool
	AllIn      bool
}

// Hand is the state of a single deal, from blinds to showdown.
type Hand struct {
	Number           int
	DealerPosition   int // frozen for the hand
	CommunityCards   []deck.Card
	Pots             []Pot
	CurrentBet       int // bet to match this round
	MinRaise         int // minimum legal raise increment
	Round            Round
	CurrentPlayerIdx int // index into CanActPlayers, resolved modulo its length
	LastRaiser       string
	Acted            map[string]bool // nicknames that acted this round
	PlayerHands      map[string]*PlayerHand
}

// NewHand creates an empty hand at preflop.
func NewHand(number, dealerPosition, minRaise int) *Hand {
	return &Hand{
		Number:         number,
		DealerPosition: dealerPosition,
		MinRaise:       minRaise,
		Round:          RoundPreflop,
		Acted:          make(map[string]bool),
		PlayerHands:    make(map[string]*PlayerHand),
	}
}

// TotalPot is the full amount in the middle: collected pots plus the
// current round's outstanding bets.
func (h *Hand) TotalPot() int {
	total := 0
	for _, p := range h.Pots {
		total += p.Amount
	}
	for _, ph := range h.PlayerHands {
		total += ph.CurrentBet
	}
	return total
}

// BlindPost records a posted blind for event reporting.
type BlindPost struct {
	Nickname string `json:"nickname"`
	Amount   int    `json:"amount"`
}

// HandStart reports how a hand opened.
type HandStart struct {
	SmallBlind BlindPost
	BigBlind   BlindPost
}

// StartHand deals the next hand from d: bumps the hand counter, rotates
// the dealer (after the first hand), deals two hole cards to each active
// player in seat order, posts the blinds and seats the first actor.
// The deck must already be shuffled.
func (g *Game) StartHand(d *deck.Deck, smallBlind, bigBlind int) (*HandStart, error) {
	active := g.ActivePlayers()
	if len(active) < 2 {
		return nil, errors.New("cannot start a hand with fewer than two players")
	}

	g.CurrentHand++
	if g.CurrentHand > 1 {
		g.DealerPosition = (g.DealerPosition + 1) % len(active)
	}

	hand := NewHand(g.CurrentHand, g.DealerPosition, bigBlind)
	eligible := make([]string, 0, len(active))
	for _, p := range active {
		eligible = append(eligible, p.Nickname)
	}
	hand.Pots = []Pot{{Eligible: eligible}}

	for _, p := range active {
		cards, err := d.Deal(2)
		if err != nil {
			return nil, err
		}
		hand.PlayerHands[p.Nickname] = &PlayerHand{
			Nickname:  p.Nickname,
			HoleCards: cards,
		}
	}
	g.Hand = hand

	// Heads-up the dealer posts the small blind and opens the preflop
	// betting; with more players the blinds sit left of the dealer and
	// the seat after the big blind opens.
	sbSeat := (g.DealerPosition + 1) % len(active)
	bbSeat := (g.DealerPosition + 2) % len(active)
	firstSeat := (g.DealerPosition + 3) % len(active)
	if len(active) == 2 {
		sbSeat = g.DealerPosition
		bbSeat = (g.DealerPosition + 1) % len(active)
		firstSeat = sbSeat
	}

	sb := g.postBlind(active[sbSeat], smallBlind)
	bb := g.postBlind(active[bbSeat], bigBlind)
	hand.CurrentBet = bb
	hand.CurrentPlayerIdx = g.firstToAct(active, firstSeat)

	return &HandStart{
		SmallBlind: BlindPost{Nickname: active[sbSeat].Nickname, Amount: sb},
		BigBlind:   BlindPost{Nickname: active[bbSeat].Nickname, Amount: bb},
	}, nil
}

// postBlind commits min(blind, chips) as a forced bet.
func (g *Game) postBlind(p *Player, blind int) int {
	amount := min(blind, p.Chips)
	p.Chips -= amount
	ph := g.Hand.PlayerHands[p.Nickname]
	ph.CurrentBet = amount
	ph.TotalBet = amount
	if p.Chips == 0 {
		ph.AllIn = true
	}
	return amount
}

// firstToAct maps a preferred seat to an index into CanActPlayers,
// scanning forward in seat order until it finds a player able to act.
func (g *Game) firstToAct(active []*Player, seat int) int {
	for i := 0; i < len(active); i++ {
		if idx := g.canActIndexOf(active[(seat+i)%len(active)]); idx >= 0 {
			return idx
		}
	}
	return 0
}
