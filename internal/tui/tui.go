// Package tui is the interactive terminal client: a scrolling event
// log plus a command line for lobby and table actions.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/cardhall/holdem/internal/client"
	"github.com/cardhall/holdem/internal/deck"
	"github.com/cardhall/holdem/internal/server"
)

// Model is the Bubble Tea model for the client.
type Model struct {
	client *client.Client
	logger *log.Logger

	input textinput.Model
	vp    viewport.Model
	lines []string

	nickname string
	gameID   string
	conn     *client.GameConn

	width, height int
	ready         bool
	quitting      bool
}

// eventMsg delivers one server frame into the update loop.
type eventMsg struct{ msg *server.Message }

// connClosedMsg fires when the game channel dies.
type connClosedMsg struct{}

// errMsg reports a failed client call.
type errMsg struct{ err error }

// joinedMsg reports a successful game-channel connect.
type joinedMsg struct {
	gameID   string
	nickname string
	conn     *client.GameConn
}

// infoMsg is a local line for the log.
type infoMsg struct{ text string }

// New creates the model.
func New(c *client.Client, logger *log.Logger) Model {
	input := textinput.New()
	input.Placeholder = "command (try: help)"
	input.Focus()
	input.CharLimit = 128

	return Model{
		client: c,
		logger: logger.WithPrefix("tui"),
		input:  input,
		lines: []string{
			systemStyle.Render("Welcome. Type 'help' for commands."),
		},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// waitForEvent re-arms the event pump for the game channel.
func waitForEvent(conn *client.GameConn) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-conn.Events()
		if !ok {
			return connClosedMsg{}
		}
		return eventMsg{msg: msg}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		logHeight := max(msg.Height-4, 1)
		if !m.ready {
			m.vp = viewport.New(msg.Width, logHeight)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = logHeight
		}
		m.refreshLog()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			if m.conn != nil {
				_ = m.conn.Close()
			}
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			return m.handleCommand(line)
		}

	case infoMsg:
		m.appendLine(systemStyle.Render(msg.text))
		return m, nil

	case errMsg:
		m.appendLine(errorStyle.Render("error: " + msg.err.Error()))
		return m, nil

	case joinedMsg:
		m.gameID = msg.gameID
		m.nickname = msg.nickname
		m.conn = msg.conn
		m.appendLine(systemStyle.Render(fmt.Sprintf("connected to game %s as %s", msg.gameID, msg.nickname)))
		return m, waitForEvent(msg.conn)

	case eventMsg:
		m.appendLine(m.formatEvent(msg.msg))
		return m, waitForEvent(m.conn)

	case connClosedMsg:
		m.appendLine(systemStyle.Render("disconnected from game"))
		m.conn = nil
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.refreshLog()
}

func (m *Model) refreshLog() {
	if !m.ready {
		return
	}
	m.vp.SetContent(strings.Join(m.lines, "\n"))
	m.vp.GotoBottom()
}

// handleCommand parses one input line.
func (m Model) handleCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help":
		return m, func() tea.Msg {
			return infoMsg{text: "commands: list | create <nick> | join <game-id> <nick> | start | fold | check | call | raise <total> | allin | top | quit"}
		}

	case "quit":
		m.quitting = true
		if m.conn != nil {
			_ = m.conn.Close()
		}
		return m, tea.Quit

	case "list":
		return m, m.listCmd()

	case "top":
		return m, m.leaderboardCmd()

	case "create":
		if len(args) != 1 {
			return m, usage("create <nick>")
		}
		return m, m.createCmd(args[0])

	case "join":
		if len(args) != 2 {
			return m, usage("join <game-id> <nick>")
		}
		return m, m.joinCmd(args[0], args[1])

	case "start":
		if m.conn == nil {
			return m, usage("join a game first")
		}
		conn := m.conn
		return m, func() tea.Msg {
			if err := conn.StartGame(); err != nil {
				return errMsg{err: err}
			}
			return infoMsg{text: "start requested"}
		}

	case "fold", "check", "call", "allin", "raise":
		if m.conn == nil {
			return m, usage("join a game first")
		}
		action := cmd
		amount := 0
		if cmd == "allin" {
			action = "all_in"
		}
		if cmd == "raise" {
			if len(args) != 1 {
				return m, usage("raise <total>")
			}
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return m, usage("raise <total>")
			}
			amount = n
		}
		conn := m.conn
		return m, func() tea.Msg {
			if err := conn.SendAction(action, amount); err != nil {
				return errMsg{err: err}
			}
			return infoMsg{text: "sent " + action}
		}

	default:
		return m, usage("unknown command, try 'help'")
	}
}

func usage(text string) tea.Cmd {
	return func() tea.Msg { return infoMsg{text: text} }
}

func (m Model) listCmd() tea.Cmd {
	return func() tea.Msg {
		games, err := m.client.ListGames(context.Background())
		if err != nil {
			return errMsg{err: err}
		}
		if len(games) == 0 {
			return infoMsg{text: "no open games"}
		}
		var b strings.Builder
		b.WriteString("open games:")
		for _, g := range games {
			fmt.Fprintf(&b, "\n  %s  %d player(s), created by %s", g.ID, g.PlayerCount, g.Creator)
		}
		return infoMsg{text: b.String()}
	}
}

func (m Model) leaderboardCmd() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.client.Leaderboard(context.Background(), 10)
		if err != nil {
			return errMsg{err: err}
		}
		if len(entries) == 0 {
			return infoMsg{text: "leaderboard is empty"}
		}
		var b strings.Builder
		b.WriteString("leaderboard:")
		for i, e := range entries {
			fmt.Fprintf(&b, "\n  %d. %s: %d pts in %d games", i+1, e.Nickname, e.TotalPoints, e.GamesPlayed)
		}
		return infoMsg{text: b.String()}
	}
}

func (m Model) createCmd(nickname string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		snap, err := c.CreateGame(context.Background(), nickname)
		if err != nil {
			return errMsg{err: err}
		}
		conn, err := c.ConnectGame(context.Background(), snap.ID, snap.Creator)
		if err != nil {
			return errMsg{err: err}
		}
		return joinedMsg{gameID: snap.ID, nickname: snap.Creator, conn: conn}
	}
}

func (m Model) joinCmd(gameID, nickname string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		snap, err := c.JoinGame(context.Background(), gameID, nickname)
		if err != nil {
			return errMsg{err: err}
		}
		conn, err := c.ConnectGame(context.Background(), snap.ID, strings.ToLower(strings.TrimSpace(nickname)))
		if err != nil {
			return errMsg{err: err}
		}
		return joinedMsg{gameID: snap.ID, nickname: strings.ToLower(strings.TrimSpace(nickname)), conn: conn}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return "bye\n"
	}
	if !m.ready {
		return "loading..."
	}

	title := titleStyle.Render("holdem")
	if m.gameID != "" {
		title += " " + systemStyle.Render(fmt.Sprintf("game=%s nick=%s", m.gameID, m.nickname))
	}
	help := helpStyle.Render("enter a command · esc to quit")
	return fmt.Sprintf("%s\n%s\n%s\n%s", title, m.vp.View(), m.input.View(), help)
}

func renderCards(cards []deck.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return cardStyle.Render(strings.Join(parts, " "))
}

// formatEvent turns a server frame into a log line.
func (m Model) formatEvent(msg *server.Message) string {
	decode := func(v any) bool {
		return json.Unmarshal(msg.Payload, v) == nil
	}

	switch msg.Type {
	case server.EventGameJoined:
		var p server.GameJoinedPayload
		if decode(&p) {
			return eventStyle.Render(fmt.Sprintf("joined game: %d player(s), status %s", p.Game.PlayerCount, p.Game.Status))
		}

	case server.EventPlayerJoined:
		var p server.PlayerJoinedPayload
		if decode(&p) {
			return eventStyle.Render(p.Nickname + " joined the game")
		}

	case server.EventPlayerConnected:
		var p server.PlayerConnectedPayload
		if decode(&p) {
			return systemStyle.Render(p.Nickname + " connected")
		}

	case server.EventPlayerDisconnected:
		var p server.PlayerDisconnectedPayload
		if decode(&p) {
			return systemStyle.Render(p.Nickname + " disconnected")
		}

	case server.EventGameStarted:
		return eventStyle.Render("game on!")

	case server.EventHandStarted:
		var p server.HandStartedPayload
		if decode(&p) {
			return eventStyle.Render(fmt.Sprintf("hand %d, your cards: ", p.HandNumber)) + renderCards(p.HoleCards)
		}

	case server.EventBlindsPosted:
		var p server.BlindsPostedPayload
		if decode(&p) {
			return eventStyle.Render(fmt.Sprintf("blinds: %s posts %d, %s posts %d",
				p.SmallBlind.Nickname, p.SmallBlind.Amount, p.BigBlind.Nickname, p.BigBlind.Amount))
		}

	case server.EventCommunityCards:
		var p server.CommunityCardsPayload
		if decode(&p) {
			return eventStyle.Render(string(p.BettingRound)+": ") + renderCards(p.AllCommunityCards)
		}

	case server.EventTurn:
		var p server.TurnPayload
		if decode(&p) {
			line := fmt.Sprintf("%s to act · pot %d · bet %d", p.CurrentPlayer, p.Pot, p.CurrentBet)
			if p.CurrentPlayer == m.nickname {
				return turnStyle.Render("YOUR TURN · " + line)
			}
			return eventStyle.Render(line)
		}

	case server.EventPlayerAction:
		var p server.PlayerActionPayload
		if decode(&p) {
			if p.Amount > 0 {
				return eventStyle.Render(fmt.Sprintf("%s %ss %d (pot %d)", p.Nickname, strings.ReplaceAll(p.Action, "_", "-"), p.Amount, p.Pot))
			}
			return eventStyle.Render(fmt.Sprintf("%s %ss (pot %d)", p.Nickname, strings.ReplaceAll(p.Action, "_", "-"), p.Pot))
		}

	case server.EventHandResult:
		var p server.HandResultPayload
		if decode(&p) {
			var b strings.Builder
			b.WriteString("hand over")
			for _, res := range p.Results {
				if res.HandShown {
					fmt.Fprintf(&b, "\n  %s: %s %s, won %d", res.Nickname, renderCards(res.HoleCards), res.HandRank, res.Won)
				} else {
					fmt.Fprintf(&b, "\n  %s won %d", res.Nickname, res.Won)
				}
			}
			return eventStyle.Render(b.String())
		}

	case server.EventPlayerEliminated:
		var p server.PlayerEliminatedPayload
		if decode(&p) {
			return eventStyle.Render(fmt.Sprintf("%s eliminated in position %d", p.Nickname, p.Position))
		}

	case server.EventGameEnded:
		var p server.GameEndedPayload
		if decode(&p) {
			var b strings.Builder
			fmt.Fprintf(&b, "game over after %d hands", p.TotalHands)
			for _, pl := range p.Placements {
				fmt.Fprintf(&b, "\n  %d. %s: %d chips, %d pts", pl.Position, pl.Nickname, pl.Chips, pl.Points)
			}
			return eventStyle.Render(b.String())
		}

	case server.EventError:
		var p server.ErrorPayload
		if decode(&p) {
			return errorStyle.Render(p.Message)
		}
	}
	return systemStyle.Render("event: " + msg.Type)
}
