package server

import (
	"encoding/json"

	"github.com/cardhall/holdem/internal/deck"
	"github.com/cardhall/holdem/internal/game"
)

// Message is the wire frame for every WebSocket exchange, in both
// directions: a type tag plus a JSON payload.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage builds a frame from a payload struct.
func NewMessage(msgType string, payload any) (*Message, error) {
	if payload == nil {
		return &Message{Type: msgType}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: msgType, Payload: data}, nil
}

// unmarshalPayload decodes a frame's payload into v. An absent payload
// leaves v at its zero value.
func unmarshalPayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, v)
}

// Client → server message types.
const (
	MsgStartGame = "start_game"
	MsgAction    = "action"
)

// Server → client event types.
const (
	EventLobbyUpdate        = "lobby_update"
	EventPlayerJoined       = "player_joined"
	EventPlayerConnected    = "player_connected"
	EventPlayerDisconnected = "player_disconnected"
	EventGameJoined         = "game_joined"
	EventGameStarted        = "game_started"
	EventHandStarted        = "hand_started"
	EventBlindsPosted       = "blinds_posted"
	EventCommunityCards     = "community_cards"
	EventTurn               = "turn"
	EventPlayerAction       = "player_action"
	EventHandResult         = "hand_result"
	EventPlayerEliminated   = "player_eliminated"
	EventGameEnded          = "game_ended"
	EventError              = "error"
)

// ActionRequest is the payload of an inbound "action" message. Amount is
// the raise-to total for raises and ignored otherwise.
type ActionRequest struct {
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

type LobbyUpdatePayload struct {
	Games []game.Snapshot `json:"games"`
}

type PlayerJoinedPayload struct {
	Nickname string        `json:"nickname"`
	Game     game.Snapshot `json:"game"`
}

type PlayerConnectedPayload struct {
	Nickname string `json:"nickname"`
}

type PlayerDisconnectedPayload struct {
	Nickname string `json:"nickname"`
}

type GameJoinedPayload struct {
	Game game.Snapshot `json:"game"`
}

type GameStartedPayload struct {
	Game game.Snapshot `json:"game"`
}

// HandStartedPayload is sent privately to each player: it is the only
// event besides hand_result that carries hole cards.
type HandStartedPayload struct {
	HandNumber     int         `json:"hand_number"`
	DealerPosition int         `json:"dealer_position"`
	HoleCards      []deck.Card `json:"hole_cards"`
	YourPosition   int         `json:"your_position"`
}

type BlindsPostedPayload struct {
	SmallBlind game.BlindPost `json:"small_blind"`
	BigBlind   game.BlindPost `json:"big_blind"`
}

type CommunityCardsPayload struct {
	Cards             []deck.Card `json:"cards"`
	AllCommunityCards []deck.Card `json:"all_community_cards"`
	BettingRound      game.Round  `json:"betting_round"`
}

type TurnPayload struct {
	CurrentPlayer string            `json:"current_player"`
	ValidActions  game.ValidActions `json:"valid_actions"`
	TimeRemaining int               `json:"time_remaining"`
	CurrentBet    int               `json:"current_bet"`
	Pot           int               `json:"pot"`
}

type PlayerActionPayload struct {
	Nickname    string `json:"nickname"`
	Action      string `json:"action"`
	Amount      int    `json:"amount"`
	Pot         int    `json:"pot"`
	PlayerChips int    `json:"player_chips"`
}

// HandResultEntry is one player's line in a hand_result. Hole cards and
// the rank name are present only when the hand went to showdown.
type HandResultEntry struct {
	Nickname  string      `json:"nickname"`
	Won       int         `json:"won"`
	HandShown bool        `json:"hand_shown"`
	HoleCards []deck.Card `json:"hole_cards,omitempty"`
	HandRank  string      `json:"hand_rank,omitempty"`
}

type HandResultPayload struct {
	Results        []HandResultEntry `json:"results"`
	CommunityCards []deck.Card       `json:"community_cards"`
}

type PlayerEliminatedPayload struct {
	Nickname string `json:"nickname"`
	Position int    `json:"position"`
}

type GameEndedPayload struct {
	Placements []game.Placement `json:"placements"`
	TotalHands int              `json:"total_hands"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
