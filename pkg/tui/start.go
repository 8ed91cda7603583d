package tui

import (
	"oasyspark/pkg/assistant"
	"oasyspark/pkg/logging"
	"oasyspark/pkg/session"

	tea "github.com/charmbracelet/bubbletea"
)

// Start runs the dashboard until the user quits.
func Start(store *session.Store, concierge *assistant.Concierge, logger *logging.Logger, version string) error {
	Version = version
	m := initialModel(store, concierge, logger)
	m.sub = store.Subscribe()
	defer store.Unsubscribe(m.sub)

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
