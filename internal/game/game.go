// Package game implements the core state and betting rules for no-limit
// Texas Hold'em tournament tables.
//
// A Game tracks the roster, chip counts and dealer rotation across hands.
// A Hand tracks a single deal from blinds to showdown: hole cards, community
// cards, pots and the betting state of the current round. All action
// validation lives in this package; the caller applies actions through the
// methods on Game (Fold, Check, Call, RaiseTo, AllIn) and reads the turn
// order back through CurrentPlayer.
//
// The package performs no I/O and owns no timers. Randomness enters only
// through the *deck.Deck handed to StartHand, so tests can drive a full
// hand deterministically with a seeded or rigged deck.
//
// # Turn projection
//
// The current actor is not stored by nickname. Instead the hand keeps an
// index into the dynamic list of players that can still act (unfolded,
// not all-in, in seat order) and resolves it modulo the list length on
// every read. Folds and all-ins shrink the list; the index carries over.
package game

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Status is the lifecycle state of a game.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// Player is a seat at the table. Nicknames are unique within a game and
// are the key used by hands and pots to refer back to the seat.
type Player struct {
	Nickname            string
	Chips               int
	Eliminated          bool
	EliminationPosition int // 1 = winner, 0 = still playing
}

// Game is one tournament table from creation to final placements.
type Game struct {
	ID               string
	Creator          string
	Status           Status
	Players          []*Player
	MaxPlayers       int
	CurrentHand      int // hands dealt so far
	DealerPosition   int // index into ActivePlayers
	EliminationOrder []string
	Hand             *Hand // nil between hands
	CreatedAt        time.Time
}

// New creates a waiting game. The creator is not seated automatically;
// callers add them with AddPlayer.
func New(id, creator string, maxPlayers int) *Game {
	return &Game{
		ID:         id,
		Creator:    creator,
		Status:     StatusWaiting,
		MaxPlayers: maxPlayers,
		CreatedAt:  time.Now().UTC(),
	}
}

// AddPlayer seats a new player with the given chip stack. The error
// strings are user-facing and returned verbatim over the API.
func (g *Game) AddPlayer(nickname string, chips int) (*Player, error) {
	if g.Status != StatusWaiting {
		return nil, errors.New("Game has already started")
	}
	if len(g.Players) >= g.MaxPlayers {
		return nil, fmt.Errorf("Game is full (max %d players)", g.MaxPlayers)
	}
	if g.HasPlayer(nickname) {
		return nil, errors.New("A player with this nickname is already in the game")
	}
	p := &Player{Nickname: nickname, Chips: chips}
	g.Players = append(g.Players, p)
	return p, nil
}

// Player returns the seat with the given nickname, or nil.
func (g *Game) Player(nickname string) *Player {
	for _, p := range g.Players {
		if p.Nickname == nickname {
			return p
		}
	}
	return nil
}

// HasPlayer reports whether a nickname is seated in this game.
func (g *Game) HasPlayer(nickname string) bool {
	return g.Player(nickname) != nil
}

// PlayerPosition returns the seat index of a nickname, or -1.
func (g *Game) PlayerPosition(nickname string) int {
	for i, p := range g.Players {
		if p.Nickname == nickname {
			return i
		}
	}
	return -1
}

// ActivePlayers returns the seats still in the tournament, in seat order.
func (g *Game) ActivePlayers() []*Player {
	var active []*Player
	for _, p := range g.Players {
		if !p.Eliminated {
			active = append(active, p)
		}
	}
	return active
}

// UnfoldedPlayers returns the active players dealt into the current hand
// who have not folded, in seat order. All-in players are included.
func (g *Game) UnfoldedPlayers() []*Player {
	if g.Hand == nil {
		return nil
	}
	var in []*Player
	for _, p := range g.ActivePlayers() {
		ph, ok := g.Hand.PlayerHands[p.Nickname]
		if ok && !ph.Folded {
			in = append(in, p)
		}
	}
	return in
}

// CanActPlayers returns the unfolded players that are not all-in, in seat
// order. The hand's CurrentPlayerIdx indexes into this list.
func (g *Game) CanActPlayers() []*Player {
	var can []*Player
	for _, p := range g.UnfoldedPlayers() {
		if !g.Hand.PlayerHands[p.Nickname].AllIn {
			can = append(can, p)
		}
	}
	return can
}

// CurrentPlayer returns the nickname whose turn it is, or "" when no
// turn exists (no hand in progress, or everyone is folded or all-in).
func (g *Game) CurrentPlayer() string {
	if g.Hand == nil {
		return ""
	}
	canAct := g.CanActPlayers()
	if len(canAct) == 0 {
		return ""
	}
	return canAct[g.Hand.CurrentPlayerIdx%len(canAct)].Nickname
}

// canActIndexOf maps an active seat index to the player's position in the
// CanActPlayers projection. Returns -1 when the seat cannot act.
func (g *Game) canActIndexOf(seat *Player) int {
	for i, p := range g.CanActPlayers() {
		if p == seat {
			return i
		}
	}
	return -1
}

// RecordEliminations marks every player who has run out of chips as
// eliminated and assigns their finishing position, counting down from
// the bottom so the first player out places last. Returns the newly
// eliminated players in seat order.
func (g *Game) RecordEliminations() []*Player {
	var out []*Player
	for _, p := range g.Players {
		if p.Eliminated || p.Chips > 0 {
			continue
		}
		p.Eliminated = true
		p.Chips = 0
		g.EliminationOrder = append(g.EliminationOrder, p.Nickname)
		p.EliminationPosition = len(g.Players) - len(g.EliminationOrder) + 1
		out = append(out, p)
	}
	return out
}

// Placement is one row of the final standings.
type Placement struct {
	Nickname string `json:"nickname"`
	Position int    `json:"position"`
	Chips    int    `json:"chips"`
	Points   int    `json:"points"`
}

// FinalPlacements ranks everyone at the end of the game: survivors by
// chip count descending (ties broken by seat order) take the top
// positions, eliminated players keep the positions assigned when they
// busted. Points are paid by position from the points table; positions
// beyond the table score zero.
func (g *Game) FinalPlacements(points []int) []Placement {
	active := g.ActivePlayers()
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Chips > active[j].Chips
	})
	for i, p := range active {
		p.EliminationPosition = i + 1
	}

	placements := make([]Placement, 0, len(g.Players))
	for _, p := range g.Players {
		pts := 0
		if pos := p.EliminationPosition; pos >= 1 && pos <= len(points) {
			pts = points[pos-1]
		}
		placements = append(placements, Placement{
			Nickname: p.Nickname,
			Position: p.EliminationPosition,
			Chips:    p.Chips,
			Points:   pts,
		})
	}
	sort.SliceStable(placements, func(i, j int) bool {
		return placements[i].Position < placements[j].Position
	})
	return placements
}

// PlayerSnapshot is the public view of a seat.
type PlayerSnapshot struct {
	Nickname            string `json:"nickname"`
	Chips               int    `json:"chips"`
	IsEliminated        bool   `json:"is_eliminated"`
	EliminationPosition *int   `json:"elimination_position"`
}

// Snapshot is the public view of a game, as serialized into lobby and
// room events. It never contains hole cards.
type Snapshot struct {
	ID          string           `json:"id"`
	Creator     string           `json:"creator"`
	Status      Status           `json:"status"`
	Players     []PlayerSnapshot `json:"players"`
	PlayerCount int              `json:"player_count"`
	CurrentHand int              `json:"current_hand"`
	CreatedAt   string           `json:"created_at"`
}

// Snapshot captures the current public state of the game.
func (g *Game) Snapshot() Snapshot {
	players := make([]PlayerSnapshot, 0, len(g.Players))
	for _, p := range g.Players {
		ps := PlayerSnapshot{
			Nickname:     p.Nickname,
			Chips:        p.Chips,
			IsEliminated: p.Eliminated,
		}
		if p.EliminationPosition > 0 {
			pos := p.EliminationPosition
			ps.EliminationPosition = &pos
		}
		players = append(players, ps)
	}
	return Snapshot{
		ID:          g.ID,
		Creator:     g.Creator,
		Status:      g.Status,
		Players:     players,
		PlayerCount: len(g.Players),
		CurrentHand: g.CurrentHand,
		CreatedAt:   g.CreatedAt.Format(time.RFC3339),
	}
}
