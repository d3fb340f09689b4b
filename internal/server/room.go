package server

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/cardhall/holdem/internal/deck"
	"github.com/cardhall/holdem/internal/evaluator"
	"github.com/cardhall/holdem/internal/game"
)

// ResultStore persists final standings. *store.Store satisfies it; a
// nil interface disables persistence.
type ResultStore interface {
	SaveResult(ctx context.Context, placements []game.Placement) error
}

const persistTimeout = 10 * time.Second

// Room owns one table. A single goroutine (run) applies every mutation:
// WebSocket messages, timer expirations and the inter-hand pause all
// arrive as closures on the commands channel, so the game state needs
// no lock. Timers go through the injected clock so tests can step time.
type Room struct {
	id          string
	game        *game.Game
	cfg         GameSettings
	logger      *log.Logger
	clock       quartz.Clock
	broadcaster Broadcaster
	store       ResultStore
	newDeck     func() *deck.Deck

	// notifyLobby is called whenever the room's lobby visibility
	// changes (join, start, finish).
	notifyLobby func()

	// onFinished removes the room from the registry when the loop ends.
	onFinished func(roomID string)

	commands  chan func()
	done      chan struct{}
	closeOnce sync.Once

	deck       *deck.Deck
	turnTimer  *quartz.Timer
	pauseTimer *quartz.Timer

	// timerSeq identifies the outstanding turn timer; expirations
	// carrying a stale sequence are ignored.
	timerSeq int
}

// RoomDeps carries the collaborators a room needs.
type RoomDeps struct {
	Logger      *log.Logger
	Clock       quartz.Clock
	Broadcaster Broadcaster
	Store       ResultStore
	Rand        *rand.Rand
	NotifyLobby func()
	OnFinished  func(roomID string)
}

// NewRoom creates a room around a freshly created game. Call Run to
// start its loop.
func NewRoom(g *game.Game, cfg GameSettings, deps RoomDeps) *Room {
	r := &Room{
		id:          g.ID,
		game:        g,
		cfg:         cfg,
		logger:      deps.Logger.WithPrefix("room").With("room_id", g.ID),
		clock:       deps.Clock,
		broadcaster: deps.Broadcaster,
		store:       deps.Store,
		notifyLobby: deps.NotifyLobby,
		onFinished:  deps.OnFinished,
		commands:    make(chan func(), 64),
		done:        make(chan struct{}),
	}
	if r.notifyLobby == nil {
		r.notifyLobby = func() {}
	}
	if r.onFinished == nil {
		r.onFinished = func(string) {}
	}
	r.newDeck = func() *deck.Deck {
		d := deck.New(deps.Rand)
		d.Shuffle()
		return d
	}
	return r
}

// ID returns the room's identifier.
func (r *Room) ID() string { return r.id }

// Run processes commands until the game finishes. Call in a goroutine.
func (r *Room) Run() {
	for {
		select {
		case fn := <-r.commands:
			fn()
		case <-r.done:
			return
		}
	}
}

// do schedules fn on the room goroutine. Commands arriving after the
// room finished are dropped.
func (r *Room) do(fn func()) {
	select {
	case r.commands <- fn:
	case <-r.done:
	}
}

// doSync runs fn on the room goroutine and waits for it.
func (r *Room) doSync(fn func()) bool {
	ran := make(chan struct{})
	r.do(func() {
		fn()
		close(ran)
	})
	select {
	case <-ran:
		return true
	case <-r.done:
		return false
	}
}

// Snapshot returns the room's public state. Safe from any goroutine.
func (r *Room) Snapshot() (game.Snapshot, bool) {
	var snap game.Snapshot
	ok := r.doSync(func() {
		snap = r.game.Snapshot()
	})
	return snap, ok
}

// Join seats a new player. Called from the HTTP handler before the
// game starts.
func (r *Room) Join(nickname string) (game.Snapshot, error) {
	var (
		snap game.Snapshot
		err  error
	)
	ok := r.doSync(func() {
		if _, err = r.game.AddPlayer(nickname, r.cfg.StartingChips); err != nil {
			return
		}
		snap = r.game.Snapshot()
		r.broadcast(EventPlayerJoined, PlayerJoinedPayload{Nickname: nickname, Game: snap})
	})
	if !ok {
		return game.Snapshot{}, errors.New("Game has already started")
	}
	if err != nil {
		return game.Snapshot{}, err
	}
	r.notifyLobby()
	return snap, nil
}

// HasPlayer reports whether a nickname is seated. Safe from any
// goroutine.
func (r *Room) HasPlayer(nickname string) bool {
	has := false
	r.doSync(func() {
		has = r.game.HasPlayer(nickname)
	})
	return has
}

// HandleMessage dispatches one inbound frame from a player.
func (r *Room) HandleMessage(nickname string, msg *Message) {
	switch msg.Type {
	case MsgStartGame:
		r.do(func() { r.handleStartGame(nickname) })
	case MsgAction:
		var req ActionRequest
		if err := unmarshalPayload(msg.Payload, &req); err != nil {
			r.do(func() { r.sendError(nickname, "Invalid action payload") })
			return
		}
		r.do(func() { r.handleAction(nickname, req) })
	default:
		r.do(func() { r.sendError(nickname, fmt.Sprintf("Unknown message type: %s", msg.Type)) })
	}
}

// PlayerConnected announces a (re)connected player to the room.
func (r *Room) PlayerConnected(nickname string) {
	r.do(func() {
		r.broadcast(EventPlayerConnected, PlayerConnectedPayload{Nickname: nickname}, nickname)
	})
}

// PlayerDisconnected announces a dropped player. The game continues;
// their turn timer, if running, will fold for them.
func (r *Room) PlayerDisconnected(nickname string) {
	r.do(func() {
		r.broadcast(EventPlayerDisconnected, PlayerDisconnectedPayload{Nickname: nickname})
	})
}

func (r *Room) handleStartGame(nickname string) {
	g := r.game
	switch {
	case g.Status != game.StatusWaiting:
		r.sendError(nickname, "Game has already started")
	case nickname != g.Creator:
		r.sendError(nickname, "Only the creator can start the game")
	case len(g.Players) < r.cfg.MinPlayers:
		r.sendError(nickname, fmt.Sprintf("Need at least %d players to start", r.cfg.MinPlayers))
	default:
		g.Status = game.StatusActive
		r.logger.Info("game started", "players", len(g.Players))
		r.broadcast(EventGameStarted, GameStartedPayload{Game: g.Snapshot()})
		r.notifyLobby()
		r.startHand()
	}
}

// startHand deals the next hand, or ends the game when one player
// remains or the hand limit is reached.
func (r *Room) startHand() {
	g := r.game
	if len(g.ActivePlayers()) <= 1 || g.CurrentHand >= r.cfg.HandLimit {
		r.endGame(true)
		return
	}

	r.deck = r.newDeck()
	start, err := g.StartHand(r.deck, r.cfg.SmallBlind, r.cfg.BigBlind)
	if err != nil {
		r.fatal(fmt.Errorf("start hand: %w", err))
		return
	}
	r.logger.Info("hand started", "hand", g.CurrentHand, "dealer", g.DealerPosition)

	// Hole cards are private: each player gets their own hand_started.
	for _, p := range g.ActivePlayers() {
		r.sendTo(p.Nickname, EventHandStarted, HandStartedPayload{
			HandNumber:     g.CurrentHand,
			DealerPosition: g.DealerPosition,
			HoleCards:      g.Hand.PlayerHands[p.Nickname].HoleCards,
			YourPosition:   g.PlayerPosition(p.Nickname),
		})
	}
	r.broadcast(EventBlindsPosted, BlindsPostedPayload{
		SmallBlind: start.SmallBlind,
		BigBlind:   start.BigBlind,
	})

	r.promptCurrentPlayer()
}

// promptCurrentPlayer broadcasts whose turn it is and arms the turn
// timer, or resolves the hand when no betting is possible.
func (r *Room) promptCurrentPlayer() {
	g := r.game
	if g.Hand == nil {
		return
	}
	current := g.CurrentPlayer()
	if g.Hand.Round == game.RoundShowdown || current == "" {
		r.resolveHand()
		return
	}

	r.broadcast(EventTurn, TurnPayload{
		CurrentPlayer: current,
		ValidActions:  g.ValidActions(current),
		TimeRemaining: r.cfg.TurnTimerSeconds,
		CurrentBet:    g.Hand.CurrentBet,
		Pot:           g.Hand.TotalPot(),
	})
	r.armTurnTimer(current)
}

// armTurnTimer replaces the outstanding turn timer. Expiry auto-folds
// the prompted player if the turn has not moved on.
func (r *Room) armTurnTimer(nickname string) {
	r.cancelTurnTimer()
	seq := r.timerSeq
	r.turnTimer = r.clock.AfterFunc(r.cfg.TurnTimer(), func() {
		r.do(func() { r.handleTurnTimeout(seq, nickname) })
	})
}

// cancelTurnTimer stops the timer and invalidates in-flight expirations.
func (r *Room) cancelTurnTimer() {
	r.timerSeq++
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
}

func (r *Room) handleTurnTimeout(seq int, nickname string) {
	if seq != r.timerSeq || r.game.Hand == nil || r.game.CurrentPlayer() != nickname {
		return
	}
	r.logger.Info("turn timed out, auto-folding", "nickname", nickname)
	r.handleAction(nickname, ActionRequest{Action: "fold"})
}

func (r *Room) handleAction(nickname string, req ActionRequest) {
	g := r.game
	if g.Status != game.StatusActive || g.Hand == nil {
		r.sendError(nickname, "No hand in progress")
		return
	}
	r.cancelTurnTimer()

	var (
		amount int
		err    error
	)
	switch req.Action {
	case "fold":
		err = g.Fold(nickname)
	case "check":
		err = g.Check(nickname)
	case "call":
		amount, err = g.Call(nickname)
	case "raise":
		amount, err = g.RaiseTo(nickname, req.Amount)
	case "all_in":
		amount, err = g.AllIn(nickname)
	default:
		err = game.NewActionError(game.UnknownAction, "Unknown action: %s", req.Action)
	}

	if err != nil {
		var actionErr *game.ActionError
		if errors.As(err, &actionErr) {
			r.sendError(nickname, actionErr.Error())
			r.promptCurrentPlayer()
			return
		}
		r.fatal(fmt.Errorf("apply action: %w", err))
		return
	}

	r.logger.Debug("action applied", "nickname", nickname, "action", req.Action, "amount", amount)
	r.broadcast(EventPlayerAction, PlayerActionPayload{
		Nickname:    nickname,
		Action:      req.Action,
		Amount:      amount,
		Pot:         g.Hand.TotalPot(),
		PlayerChips: g.Player(nickname).Chips,
	})
	r.checkRoundEnd()
}

// communityCardCount is how many cards the board holds once a round has
// been dealt in.
var communityCardCount = map[game.Round]int{
	game.RoundFlop:  3,
	game.RoundTurn:  4,
	game.RoundRiver: 5,
}

// checkRoundEnd deals community cards on first entry into a round, then
// either resolves the hand or prompts the next actor.
func (r *Room) checkRoundEnd() {
	g := r.game
	if g.Hand == nil {
		return
	}
	if len(g.UnfoldedPlayers()) <= 1 || g.Hand.Round == game.RoundShowdown {
		r.resolveHand()
		return
	}

	if want, ok := communityCardCount[g.Hand.Round]; ok && len(g.Hand.CommunityCards) < want {
		if err := r.dealCommunity(want - len(g.Hand.CommunityCards)); err != nil {
			r.fatal(fmt.Errorf("deal community: %w", err))
			return
		}
	}
	r.promptCurrentPlayer()
}

// dealCommunity burns one card and deals n onto the board.
func (r *Room) dealCommunity(n int) error {
	g := r.game
	if _, err := r.deck.DealOne(); err != nil { // burn
		return err
	}
	cards, err := r.deck.Deal(n)
	if err != nil {
		return err
	}
	g.Hand.CommunityCards = append(g.Hand.CommunityCards, cards...)

	r.broadcast(EventCommunityCards, CommunityCardsPayload{
		Cards:             cards,
		AllCommunityCards: g.Hand.CommunityCards,
		BettingRound:      g.Hand.Round,
	})
	return nil
}

// resolveHand pays the pot out, reports the result, applies
// eliminations and schedules the next hand.
func (r *Room) resolveHand() {
	g := r.game
	r.cancelTurnTimer()

	// Bets still on the table (a fold can end betting mid-round) move
	// into the pot before anything is awarded.
	g.CollectBets()

	unfolded := g.UnfoldedPlayers()
	if len(unfolded) == 0 {
		r.fatal(errors.New("no players left in hand"))
		return
	}

	var results []HandResultEntry
	var err error
	if len(unfolded) == 1 {
		results = r.awardUncontested(unfolded[0])
	} else {
		results, err = r.awardShowdown(unfolded)
		if err != nil {
			r.fatal(fmt.Errorf("showdown: %w", err))
			return
		}
	}

	r.broadcast(EventHandResult, HandResultPayload{
		Results:        results,
		CommunityCards: g.Hand.CommunityCards,
	})

	for _, p := range g.RecordEliminations() {
		r.logger.Info("player eliminated", "nickname", p.Nickname, "position", p.EliminationPosition)
		r.broadcast(EventPlayerEliminated, PlayerEliminatedPayload{
			Nickname: p.Nickname,
			Position: p.EliminationPosition,
		})
	}

	g.Hand = nil
	if r.pauseTimer != nil {
		r.pauseTimer.Stop()
	}
	r.pauseTimer = r.clock.AfterFunc(InterHandPause, func() {
		r.do(r.startHand)
	})
}

// awardUncontested gives every pot to the last unfolded player. Their
// cards stay hidden.
func (r *Room) awardUncontested(winner *game.Player) []HandResultEntry {
	total := 0
	for _, pot := range r.game.Hand.Pots {
		total += pot.Amount
	}
	winner.Chips += total
	r.logger.Info("hand won uncontested", "nickname", winner.Nickname, "amount", total)
	return []HandResultEntry{{
		Nickname:  winner.Nickname,
		Won:       total,
		HandShown: false,
	}}
}

// awardShowdown evaluates every unfolded player's best hand, splits
// each pot among its best eligible hands (odd chips go to the earliest
// seat) and reports everyone's cards and rank.
func (r *Room) awardShowdown(unfolded []*game.Player) ([]HandResultEntry, error) {
	g := r.game
	pots := g.BuildShowdownPots()

	evals := make(map[string]evaluator.Result, len(unfolded))
	for _, p := range unfolded {
		ph := g.Hand.PlayerHands[p.Nickname]
		cards := append(append([]deck.Card{}, ph.HoleCards...), g.Hand.CommunityCards...)
		result, err := evaluator.Evaluate(cards)
		if err != nil {
			return nil, err
		}
		evals[p.Nickname] = result
	}

	won := make(map[string]int)
	for _, pot := range pots {
		if pot.Amount == 0 || len(pot.Eligible) == 0 {
			continue
		}
		hands := make([][]deck.Card, len(pot.Eligible))
		for i, nickname := range pot.Eligible {
			hands[i] = append(append([]deck.Card{}, g.Hand.PlayerHands[nickname].HoleCards...), g.Hand.CommunityCards...)
		}
		winners, err := evaluator.Compare(hands)
		if err != nil {
			return nil, err
		}

		share := pot.Amount / len(winners)
		remainder := pot.Amount % len(winners)
		for i, idx := range winners {
			amount := share
			if i < remainder {
				amount++
			}
			nickname := pot.Eligible[idx]
			g.Player(nickname).Chips += amount
			won[nickname] += amount
		}
	}

	results := make([]HandResultEntry, 0, len(unfolded))
	for _, p := range unfolded {
		results = append(results, HandResultEntry{
			Nickname:  p.Nickname,
			Won:       won[p.Nickname],
			HandShown: true,
			HoleCards: g.Hand.PlayerHands[p.Nickname].HoleCards,
			HandRank:  evals[p.Nickname].Rank.String(),
		})
	}
	return results, nil
}

// endGame finishes the room: final placements, persistence, the
// game_ended broadcast and loop shutdown.
func (r *Room) endGame(persist bool) {
	g := r.game
	r.cancelTurnTimer()
	if r.pauseTimer != nil {
		r.pauseTimer.Stop()
	}
	g.Status = game.StatusFinished
	g.Hand = nil

	placements := g.FinalPlacements(r.cfg.Points)
	if persist && r.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		if err := r.store.SaveResult(ctx, placements); err != nil {
			r.logger.Error("failed to persist results", "error", err)
		}
		cancel()
	}

	r.logger.Info("game ended", "hands", g.CurrentHand)
	r.broadcast(EventGameEnded, GameEndedPayload{
		Placements: placements,
		TotalHands: g.CurrentHand,
	})
	r.finish()
}

// fatal handles an internal invariant violation: the room broadcasts a
// generic error and shuts down without persisting results.
func (r *Room) fatal(err error) {
	r.logger.Error("internal error, terminating room", "error", err)
	r.broadcast(EventError, ErrorPayload{Message: "Internal server error"})
	r.game.Status = game.StatusFinished
	r.game.Hand = nil
	r.finish()
}

func (r *Room) finish() {
	r.closeOnce.Do(func() { close(r.done) })
	r.notifyLobby()
	r.onFinished(r.id)
}

// Stop terminates the room loop without finishing the game. Used on
// server shutdown.
func (r *Room) Stop() {
	r.closeOnce.Do(func() { close(r.done) })
}

func (r *Room) broadcast(eventType string, payload any, exclude ...string) {
	msg, err := NewMessage(eventType, payload)
	if err != nil {
		r.logger.Error("failed to encode event", "type", eventType, "error", err)
		return
	}
	r.broadcaster.BroadcastRoom(r.id, msg, exclude...)
}

func (r *Room) sendTo(nickname, eventType string, payload any) {
	msg, err := NewMessage(eventType, payload)
	if err != nil {
		r.logger.Error("failed to encode event", "type", eventType, "error", err)
		return
	}
	r.broadcaster.SendTo(r.id, nickname, msg)
}

func (r *Room) sendError(nickname, message string) {
	r.sendTo(nickname, EventError, ErrorPayload{Message: message})
}
