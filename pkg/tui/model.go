package tui

import (
	"time"

	"defiprice/pkg/feed"
	"defiprice/pkg/models"
	"defiprice/pkg/wallet"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
)

// Version is set by Start()
var Version = "dev"

// --- Messages ---

type clearStatusMsg struct{}

type sessionMsg wallet.Session

type connectResultMsg struct {
	kind    wallet.ProviderKind
	session wallet.Session
	err     error
}

// --- Model ---

type model struct {
	poller     *feed.Poller
	controller *wallet.Controller
	feedSub    feed.Subscriber
	log        logrus.FieldLogger

	coins         []models.Coin
	feed          models.FeedState
	session       wallet.Session
	connecting    string // label of the provider being connected
	alert         string
	statusMessage string

	width    int
	height   int
	spinner  spinner.Model
	viewport viewport.Model
}

func initialModel(p *feed.Poller, c *wallet.Controller, log logrus.FieldLogger) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	if log == nil {
		log = logrus.StandardLogger()
	}

	m := model{
		poller:     p,
		controller: c,
		feedSub:    p.Subscribe(),
		log:        log.WithField("component", "tui"),
		coins:      models.TrackedCoins(),
		feed:       p.State(),
		session:    c.Session(),
		spinner:    s,
		viewport:   viewport.New(0, 0),
	}
	m.updateGridViewport()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		listenForFeed(m.feedSub),
		listenForSession(m.controller.Updates()),
		m.spinner.Tick,
	)
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}
