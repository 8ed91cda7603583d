package tui

import (
	"fmt"
	"strings"

	"oasyspark/pkg/catalog"
	"oasyspark/pkg/models"
	"oasyspark/pkg/utils"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

func (m model) View() string {
	if m.modal != modalClosed {
		return m.viewModal()
	}

	var body string
	switch m.active {
	case screenGames:
		body = m.viewGames()
	case screenAssets:
		body = m.viewAssets()
	case screenConcierge:
		body = m.viewConcierge()
	default:
		body = m.viewDashboard()
	}

	status := ""
	if m.statusMessage != "" {
		status = infoStyle.Render(m.statusMessage)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewHeader(),
		m.viewNav(),
		"",
		body,
		"",
		status,
		subtleStyle.Render(m.footerHelp()),
	)
}

func (m model) viewHeader() string {
	title := titleStyle.Render("OasysPark") + subtleStyle.Render(" "+Version)
	spinnerView := ""
	if m.busy() {
		spinnerView = m.spinner.View() + " "
	}

	right := subtleStyle.Render("Not connected • w: Wallet Connect")
	if m.session.IsConnected {
		right = fmt.Sprintf("%s%s OAS • %s", spinnerView, accentStyle.Render(m.session.Balance), displayName(m.session))
		if label := methodLabel(m.session.ConnectionMethod); label != "" {
			right += subtleStyle.Render(" (" + label + ")")
		}
	} else if spinnerView != "" {
		right = spinnerView + "Connecting..."
	}

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + right
}

func (m model) viewNav() string {
	tabs := make([]string, len(screenNames))
	for i, name := range screenNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if screen(i) == m.active {
			tabs[i] = activeTabStyle.Render(label)
		} else {
			tabs[i] = tabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m model) footerHelp() string {
	switch {
	case m.active == screenConcierge:
		return "enter: send • ↑/↓: scroll • tab: next view • esc: back"
	case m.searching:
		return "type to search • enter/esc: done"
	}
	base := "tab: switch view • w: connect • d: disconnect • c: copy address • q: quit"
	switch m.active {
	case screenGames:
		return "/: search • f: chain filter • ↑/↓: select • o: open • " + base
	case screenAssets:
		return "t: tokens/NFTs • " + base
	}
	return "g: browse games • " + base
}

func (m model) contentWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	return w
}

func (m model) viewDashboard() string {
	welcome := boxStyle.Width(m.contentWidth()).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render("Welcome to OasysPark"),
		subtleStyle.Render(welcomeText(m.session.IsConnected)),
	))

	graph := asciigraph.Plot(weeklyChart,
		asciigraph.Height(5),
		asciigraph.Width(28),
		asciigraph.Caption("Weekly (USD)"),
	)
	balance := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		subtleStyle.Render("Total Balance"),
		lipgloss.NewStyle().Bold(true).Render(utils.FormatUSD(m.portfolioValue())),
		infoStyle.Render("↑ +12.5% vs last week"),
		graph,
	))

	trending := catalog.Trending(m.games, 3)
	var active []string
	for i, g := range trending {
		if i == 2 {
			break
		}
		active = append(active, fmt.Sprintf("%-28s %s", utils.TruncateString(g.Title, 26), infoStyle.Render("Active")))
	}
	games := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		subtleStyle.Render("Active Games"),
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d", len(m.games))),
		subtleStyle.Render("Last played: My Crypto Heroes"),
		strings.Join(active, "\n"),
	))

	var cards []string
	for _, g := range trending {
		cards = append(cards, boxStyle.Width(30).Render(lipgloss.JoinVertical(lipgloss.Left,
			hotStyle.Render("HOT"),
			lipgloss.NewStyle().Bold(true).Render(g.Title),
			subtleStyle.Render(utils.TruncateString(g.Description, 40)),
		)))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		welcome,
		lipgloss.JoinHorizontal(lipgloss.Top, balance, " ", games),
		"",
		titleStyle.Render("Trending Games"),
		lipgloss.JoinHorizontal(lipgloss.Top, cards...),
	)
}

func (m model) viewGames() string {
	search := m.searchInput.View()
	filter := fmt.Sprintf("Chain: %s", accentStyle.Render(m.currentChain()))

	games := m.filteredGames()
	rows := make([]string, 0, len(games))
	for i, g := range games {
		cursor := "  "
		if i == m.gameIdx {
			cursor = "> "
		}
		hot := ""
		if g.IsHot {
			hot = " " + hotStyle.Render("HOT")
		}
		rows = append(rows, fmt.Sprintf("%s%-24s %-8s %-12s%s\n    %s\n    %s",
			cursor, g.Title, g.Category, g.Chain, hot,
			subtleStyle.Render(g.Description),
			subtleStyle.Render(strings.Join(g.Tags, " • ")),
		))
	}
	list := strings.Join(rows, "\n\n")
	if len(games) == 0 {
		list = subtleStyle.Render("該当するゲームが見つかりませんでした。")
	}

	return boxStyle.Width(m.contentWidth()).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, search, "   ", filter),
		"",
		list,
	))
}

func (m model) viewAssets() string {
	if !m.session.IsConnected {
		return boxStyle.Width(m.contentWidth()).Render(lipgloss.JoinVertical(lipgloss.Center,
			lipgloss.NewStyle().Bold(true).Render("Wallet not connected"),
			subtleStyle.Render("トークンやNFTを表示するには、ウォレットを接続してください。Oasysチェーン上の資産を一覧で確認できます。"),
		))
	}
	if m.session.IsLoadingAssets {
		return boxStyle.Width(m.contentWidth()).Render(m.spinner.View() + " Loading Oasys Assets...")
	}

	tokens, nfts := tabStyle.Render("Tokens"), tabStyle.Render("NFT Collections")
	if m.tab == tabTokens {
		tokens = activeTabStyle.Render("Tokens")
	} else {
		nfts = activeTabStyle.Render("NFT Collections")
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, tokens, " ", nfts)

	var rows []string
	if m.tab == tabTokens {
		for _, t := range m.session.Tokens {
			rows = append(rows, tokenRow(t))
		}
		if len(rows) == 0 {
			rows = append(rows, subtleStyle.Render("トークンが見つかりませんでした。"))
		}
	} else {
		for _, n := range m.session.NFTs {
			rows = append(rows, nftRow(n))
		}
		if len(rows) == 0 {
			rows = append(rows, subtleStyle.Render("NFTが見つかりませんでした。"))
		}
	}

	return boxStyle.Width(m.contentWidth()).Render(lipgloss.JoinVertical(lipgloss.Left,
		tabs,
		"",
		strings.Join(rows, "\n"),
	))
}

func (m model) viewConcierge() string {
	header := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render("OasysPark AI Concierge"),
		subtleStyle.Render("Powered by Gemini"),
	)
	thinking := ""
	if m.chat.Waiting() {
		thinking = m.spinner.View() + " 考え中..."
	}
	return boxStyle.Width(m.contentWidth()).Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		m.viewport.View(),
		thinking,
		m.chatInput.View(),
	))
}

func (m model) viewModal() string {
	var content string
	if m.modal == modalManual {
		content = lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Enter Address"),
			"\n",
			"Wallet Address",
			m.manualInput.View(),
			"\n",
			subtleStyle.Render("Enter to view assets • Esc to go back"),
		)
	} else {
		options := []struct {
			key, label, desc string
			method           models.ConnectionMethod
		}{
			{"1", "Farcaster", "Frame / Mini App で接続", models.MethodSocialFrame},
			{"2", "Browser Wallet", "MetaMask などのウォレット", models.MethodExtension},
			{"3", "Manual Entry", "アドレスを直接入力 (閲覧のみ)", models.MethodManual},
		}
		var rows []string
		for _, o := range options {
			marker := "  "
			if m.connecting == o.method {
				marker = m.spinner.View() + " "
			}
			rows = append(rows, fmt.Sprintf("%s(%s) %-16s %s", marker, o.key, o.label, subtleStyle.Render(o.desc)))
		}
		content = lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Connect Wallet"),
			"\n",
			"Oasysチェーンに接続する方法を選択してください。",
			"",
			strings.Join(rows, "\n"),
			"\n",
			subtleStyle.Render("1-3 to choose • Esc to cancel"),
		)
	}
	if m.statusMessage != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content, errStyle.Render(m.statusMessage))
	}

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		boxStyle.Render(content),
	)
}
