package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"oasyspark/pkg/assistant"
	"oasyspark/pkg/catalog"
	"oasyspark/pkg/models"
	"oasyspark/pkg/session"
	"oasyspark/pkg/utils"

	tea "github.com/charmbracelet/bubbletea"
)

// weeklyChart is the static portfolio trend shown on the dashboard.
var weeklyChart = []float64{1200, 1350, 1280, 1400, 1600, 1550, 1800}

func (m model) portfolioValue() float64 {
	if !m.session.IsConnected {
		return 0
	}
	return models.PortfolioValueUSD(m.session.Tokens)
}

func (m model) currentChain() string {
	if len(m.chains) == 0 {
		return catalog.AllChains
	}
	return m.chains[m.chainIdx%len(m.chains)]
}

func (m model) filteredGames() []models.Game {
	return catalog.Filter(m.games, catalog.Query{
		Search: m.searchInput.Value(),
		Chain:  m.currentChain(),
	})
}

// busy reports whether the spinner should run.
func (m model) busy() bool {
	return m.state == session.StateConnecting ||
		m.state == session.StateConnectedLoading ||
		m.connecting != "" ||
		m.chat.Waiting()
}

func nextIndex(idx, n, delta int) int {
	if n == 0 {
		return 0
	}
	return ((idx+delta)%n + n) % n
}

// displayName is the header label of a connected session.
func displayName(s models.Session) string {
	if s.ConnectionMethod == models.MethodSocialFrame && s.SocialIdentity != nil {
		return s.SocialIdentity.DisplayName
	}
	return utils.ShortAddress(s.AddressOr(""))
}

func methodLabel(method models.ConnectionMethod) string {
	switch method {
	case models.MethodExtension:
		return "Wallet"
	case models.MethodSocialFrame:
		return "Farcaster"
	case models.MethodManual:
		return "Watch-only"
	default:
		return ""
	}
}

func welcomeText(connected bool) string {
	if connected {
		return "Oasysチェーンのゲームエコシステムへようこそ。ウォレット接続済み。資産状況と最新ゲームをチェックしましょう。"
	}
	return "Oasysチェーンのゲームエコシステムへようこそ。ウォレットを接続して、トークン残高やNFTコレクションを管理しましょう。"
}

func tokenRow(t models.FungibleHolding) string {
	row := fmt.Sprintf("%-8s %-24s %24s", t.Symbol, utils.TruncateString(t.Name, 22), utils.AddCommas(t.Balance))
	if t.PriceUSD > 0 {
		row += fmt.Sprintf("  ≈ %s USD", utils.FormatUSD(t.ValueUSD()))
	}
	return row
}

func nftRow(n models.NonFungibleHolding) string {
	return fmt.Sprintf("%-28s x%-6s %-8s %s",
		utils.TruncateString(n.CollectionName, 26), n.Balance, n.Standard, utils.ShortAddress(n.ContractAddress))
}

func renderChat(msgs []assistant.Message, width int) string {
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		stamp := subtleStyle.Render(msg.Timestamp.Format("15:04"))
		if msg.Role == assistant.RoleUser {
			b.WriteString(stamp + " " + userMsgStyle.Width(width).Render(msg.Content))
		} else {
			b.WriteString(stamp + " " + assistantMsgStyle.Width(width).Render(msg.Content))
		}
	}
	return b.String()
}

func (m *model) refreshChat() {
	w := m.viewport.Width - 8
	if w < 20 {
		w = 20
	}
	m.viewport.SetContent(renderChat(m.chat.Messages(), w))
	m.viewport.GotoBottom()
}

func (m *model) setStatus(msg string) tea.Cmd {
	m.statusMessage = msg
	return tea.Tick(time.Second*2, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func connectCmd(store *session.Store, method models.ConnectionMethod, address string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		switch method {
		case models.MethodExtension:
			err = store.ConnectExtension(ctx)
		case models.MethodSocialFrame:
			err = store.ConnectSocial(ctx)
		case models.MethodManual:
			err = store.ConnectManual(ctx, address)
		}
		return connectResultMsg{method: method, err: err}
	}
}

func askCmd(c *assistant.Concierge, prompt string) tea.Cmd {
	return func() tea.Msg {
		return replyMsg{content: c.Reply(context.Background(), prompt)}
	}
}

func listenForStore(sub session.Subscriber) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub
		if !ok {
			return nil
		}
		return ev
	}
}
