package tui

import (
	"context"
	"strings"

	"defiprice/pkg/feed"
	"defiprice/pkg/models"
	"defiprice/pkg/utils"
	"defiprice/pkg/wallet"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	cardWidth = 30
	cardGap   = 1

	maxLabelWidth = 20
)

func listenForFeed(sub feed.Subscriber) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub
		if !ok {
			return nil
		}
		return ev
	}
}

func listenForSession(updates <-chan wallet.Session) tea.Cmd {
	return func() tea.Msg {
		return sessionMsg(<-updates)
	}
}

func connectCmd(c *wallet.Controller, kind wallet.ProviderKind) tea.Cmd {
	return func() tea.Msg {
		s, err := c.Connect(context.Background(), kind)
		return connectResultMsg{kind: kind, session: s, err: err}
	}
}

// kindForKey maps the connect shortcuts to providers. Digits follow display
// order; letters follow the usual wallet for each ecosystem.
func kindForKey(key string) (wallet.ProviderKind, bool) {
	switch key {
	case "1", "m":
		return wallet.EVM, true
	case "2", "p":
		return wallet.Solana, true
	case "3", "s":
		return wallet.Substrate, true
	}
	return 0, false
}

func gridColumns(width int) int {
	cols := (width + cardGap) / (cardWidth + 2 + cardGap)
	if cols < 1 {
		return 1
	}
	return cols
}

// cardLines renders one coin. A coin the API omitted gets a zero quote, which
// formats as N/A with a flat positive change.
func cardLines(c models.Coin, q models.Quote) []string {
	row := func(label, value string) string {
		pad := cardWidth - 2 - lipgloss.Width(label) - lipgloss.Width(value)
		if pad < 1 {
			pad = 1
		}
		return label + strings.Repeat(" ", pad) + value
	}
	return []string{
		c.Emoji + "  " + c.Symbol,
		c.Name,
		row("Price", utils.FormatPrice(q.USD)),
		row("24h Change", utils.ChangeIndicator(q.USD24hChange)+" "+utils.FormatChange(q.USD24hChange)),
		row("Market Cap", utils.FormatMarketCap(q.USDMarketCap)),
		row("24h Volume", utils.FormatVolume(q.USD24hVol)),
	}
}

func (m *model) updateGridViewport() {
	m.viewport.Width = m.width
	h := m.height - lipgloss.Height(m.headerView()) - lipgloss.Height(m.footerView())
	if h < 1 {
		h = 1
	}
	m.viewport.Height = h
	m.viewport.SetContent(m.gridView())
}

func (m model) providerHints() []string {
	var hints []string
	for _, kind := range m.controller.Detector().Available() {
		hints = append(hints, providerKey(kind)+": "+providerLabel(m.controller.Label(kind)))
	}
	return hints
}

// providerLabel bounds a configured label so the header fits beside the title.
func providerLabel(label string) string {
	return utils.TruncateString(label, maxLabelWidth)
}

func providerKey(kind wallet.ProviderKind) string {
	switch kind {
	case wallet.EVM:
		return "1"
	case wallet.Solana:
		return "2"
	case wallet.Substrate:
		return "3"
	}
	return "?"
}
