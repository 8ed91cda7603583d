package tui

import (
	"time"

	"oasyspark/pkg/assistant"
	"oasyspark/pkg/catalog"
	"oasyspark/pkg/logging"
	"oasyspark/pkg/models"
	"oasyspark/pkg/session"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Version is set by Start()
var Version = "dev"

type screen int

const (
	screenDashboard screen = iota
	screenGames
	screenAssets
	screenConcierge
)

var screenNames = []string{"ダッシュボード", "ゲーム一覧", "資産管理 (Tokens/NFT)", "AIコンシェルジュ"}

type assetTab int

const (
	tabTokens assetTab = iota
	tabNFTs
)

// modalStep is the position inside the connect modal.
type modalStep int

const (
	modalClosed modalStep = iota
	modalSelection
	modalManual
)

// --- Messages ---

type clearStatusMsg struct{}

type connectResultMsg struct {
	method models.ConnectionMethod
	err    error
}

type replyMsg struct {
	content string
}

// --- Model ---

type model struct {
	store     *session.Store
	sub       session.Subscriber
	concierge *assistant.Concierge
	chat      *assistant.Conversation
	log       *logging.Logger

	games       []models.Game
	chains      []string
	chainIdx    int
	gameIdx     int
	searchInput textinput.Model
	searching   bool

	session    models.Session
	state      session.State
	lastUpdate time.Time

	active        screen
	tab           assetTab
	modal         modalStep
	connecting    models.ConnectionMethod
	manualInput   textinput.Model
	chatInput     textinput.Model
	viewport      viewport.Model
	spinner       spinner.Model
	statusMessage string
	width         int
	height        int
}

func initialModel(store *session.Store, concierge *assistant.Concierge, logger *logging.Logger) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#22D3EE"))

	search := textinput.New()
	search.Placeholder = "ゲーム名やジャンルで検索..."
	search.Width = 40

	manual := textinput.New()
	manual.Placeholder = "0x..."
	manual.Width = 44

	chat := textinput.New()
	chat.Placeholder = "質問を入力してください..."
	chat.Width = 60

	games := catalog.Games()

	return model{
		store:       store,
		concierge:   concierge,
		chat:        assistant.NewConversation(),
		log:         logging.OrDefault(logger).Component("tui"),
		games:       games,
		chains:      catalog.Chains(games),
		searchInput: search,
		session:     store.Snapshot(),
		state:       store.State(),
		manualInput: manual,
		chatInput:   chat,
		viewport:    viewport.New(0, 0),
		spinner:     s,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(listenForStore(m.sub), m.spinner.Tick)
}
