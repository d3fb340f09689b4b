package main

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cardhall/holdem/cmd/holdem/shared"
	"github.com/cardhall/holdem/internal/client"
	"github.com/cardhall/holdem/internal/tui"
)

type ClientCmd struct {
	Server string `kong:"default='http://localhost:8080',help='Server base URL'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *ClientCmd) Run() error {
	logger := shared.SetupFileLogger("holdem-client.log", c.Debug)

	cl := client.New(strings.TrimSpace(c.Server), logger)
	model := tui.New(cl, logger)

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
