package tui

import (
	"fmt"
	"strings"
	"time"

	"oasyspark/pkg/models"
	"oasyspark/pkg/session"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 8
		m.viewport.Height = msg.Height - 12
		if m.viewport.Height < 3 {
			m.viewport.Height = 3
		}
		m.refreshChat()

	case session.Event:
		// Re-listen for the next event
		cmds = append(cmds, listenForStore(m.sub))

		m.session = msg.Session
		m.state = m.store.State()
		m.lastUpdate = time.Now()

		switch msg.Type {
		case session.EventSessionUpdated:
			if m.modal != modalClosed {
				m.modal = modalClosed
			}
		case session.EventAssetsLoaded:
			cmds = append(cmds, m.setStatus("Oasys assets loaded"))
		case session.EventDisconnected:
			m.tab = tabTokens
		}

	case connectResultMsg:
		m.connecting = ""
		if msg.err != nil {
			m.log.Warn("connect failed", "method", msg.method, "error", msg.err)
			cmds = append(cmds, m.setStatus(fmt.Sprintf("Connection failed: %v", msg.err)))
		}

	case replyMsg:
		m.chat.Answer(msg.content)
		m.refreshChat()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case clearStatusMsg:
		m.statusMessage = ""

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		switch {
		case m.modal != modalClosed:
			m, cmd = m.updateModal(msg)
		case m.searching:
			m, cmd = m.updateSearch(msg)
		case m.active == screenConcierge:
			m, cmd = m.updateConcierge(msg)
		default:
			m, cmd = m.updateKeys(msg)
		}
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) updateModal(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.modal == modalManual {
		switch msg.String() {
		case "esc":
			m.modal = modalSelection
			m.manualInput.Blur()
			return m, nil
		case "enter":
			addr := strings.TrimSpace(m.manualInput.Value())
			if addr == "" {
				return m, nil
			}
			m.manualInput.Reset()
			m.manualInput.Blur()
			m.modal = modalClosed
			m.connecting = models.MethodManual
			return m, connectCmd(m.store, models.MethodManual, addr)
		}
		var cmd tea.Cmd
		m.manualInput, cmd = m.manualInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc", "q":
		m.modal = modalClosed
		return m, nil
	}
	if m.connecting != "" {
		return m, nil
	}
	switch msg.String() {
	case "1", "f":
		m.connecting = models.MethodSocialFrame
		return m, connectCmd(m.store, models.MethodSocialFrame, "")
	case "2", "e":
		m.connecting = models.MethodExtension
		return m, connectCmd(m.store, models.MethodExtension, "")
	case "3", "m":
		m.modal = modalManual
		cmd := m.manualInput.Focus()
		return m, cmd
	}
	return m, nil
}

func (m model) updateSearch(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.gameIdx = 0
	return m, cmd
}

func (m model) updateConcierge(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.chatInput.Blur()
		m.active = screenDashboard
		return m, nil
	case "tab":
		m.chatInput.Blur()
		m.active = screen(nextIndex(int(m.active), len(screenNames), 1))
		return m, nil
	case "shift+tab":
		m.chatInput.Blur()
		m.active = screen(nextIndex(int(m.active), len(screenNames), -1))
		return m, nil
	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case "enter":
		prompt := m.chatInput.Value()
		if _, ok := m.chat.Ask(prompt); !ok {
			return m, nil
		}
		m.chatInput.Reset()
		m.refreshChat()
		return m, askCmd(m.concierge, prompt)
	}
	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

func (m model) switchTo(v screen) (model, tea.Cmd) {
	m.active = v
	if v == screenConcierge {
		m.refreshChat()
		cmd := m.chatInput.Focus()
		return m, cmd
	}
	return m, nil
}

func (m model) updateKeys(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab", "right", "l":
		return m.switchTo(screen(nextIndex(int(m.active), len(screenNames), 1)))
	case "shift+tab", "left", "h":
		return m.switchTo(screen(nextIndex(int(m.active), len(screenNames), -1)))
	case "1":
		return m.switchTo(screenDashboard)
	case "2":
		return m.switchTo(screenGames)
	case "3":
		return m.switchTo(screenAssets)
	case "4":
		return m.switchTo(screenConcierge)

	case "w":
		if m.session.IsConnected {
			cmd := m.setStatus("Already connected. Press d to disconnect first.")
			return m, cmd
		}
		m.modal = modalSelection
		return m, nil

	case "d":
		if !m.session.IsConnected {
			return m, nil
		}
		m.store.Disconnect()
		cmd := m.setStatus("Disconnected")
		return m, cmd

	case "c":
		if !m.session.IsConnected {
			return m, nil
		}
		if err := clipboard.WriteAll(m.session.AddressOr("")); err != nil {
			cmd := m.setStatus("Failed to copy to clipboard")
			return m, cmd
		}
		cmd := m.setStatus("Full address copied to clipboard!")
		return m, cmd
	}

	switch m.active {
	case screenDashboard:
		if msg.String() == "g" || msg.String() == "enter" {
			return m.switchTo(screenGames)
		}

	case screenGames:
		games := m.filteredGames()
		switch msg.String() {
		case "/":
			m.searching = true
			cmd := m.searchInput.Focus()
			return m, cmd
		case "f":
			m.chainIdx = nextIndex(m.chainIdx, len(m.chains), 1)
			m.gameIdx = 0
		case "up", "k":
			if m.gameIdx > 0 {
				m.gameIdx--
			}
		case "down", "j":
			if m.gameIdx < len(games)-1 {
				m.gameIdx++
			}
		case "o", "enter":
			if m.gameIdx >= len(games) {
				return m, nil
			}
			g := games[m.gameIdx]
			if g.Link == "" {
				cmd := m.setStatus("No link available for " + g.Title)
				return m, cmd
			}
			if err := openBrowser(g.Link); err != nil {
				cmd := m.setStatus(fmt.Sprintf("Failed to open browser: %v", err))
				return m, cmd
			}
			cmd := m.setStatus("Opened in browser")
			return m, cmd
		}

	case screenAssets:
		if msg.String() == "t" {
			if m.tab == tabTokens {
				m.tab = tabNFTs
			} else {
				m.tab = tabTokens
			}
		}
	}
	return m, nil
}
