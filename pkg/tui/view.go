package tui

import (
	"fmt"
	"strings"

	"defiprice/pkg/utils"

	"github.com/charmbracelet/lipgloss"
)

const (
	appTitle    = "De-Fi Price Tracker"
	appSubtitle = "Live Cryptocurrency Prices"
)

func (m model) View() string {
	if m.alert != "" {
		return m.viewAlert()
	}

	var body string
	switch {
	case m.feed.Error != "":
		body = m.viewError()
	case m.feed.Loading && len(m.feed.Snapshot) == 0:
		body = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading prices...")
	default:
		body = m.viewport.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.headerView(), body, m.footerView())
}

func (m model) headerView() string {
	left := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(appTitle),
		subtleStyle.Render(" "+appSubtitle),
	)
	right := m.walletView()

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	top := lipgloss.JoinHorizontal(lipgloss.Top, left, strings.Repeat(" ", gap), right)

	status := "r: Refresh"
	if m.feed.Loading {
		status = "Updating..."
	}
	trackerTitle := symbolStyle.Render("Live Prices")
	statusView := subtleStyle.Render(status)
	gap = m.width - lipgloss.Width(trackerTitle) - lipgloss.Width(statusView)
	if gap < 1 {
		gap = 1
	}
	tracker := lipgloss.JoinHorizontal(lipgloss.Top, trackerTitle, strings.Repeat(" ", gap), statusView)

	return lipgloss.JoinVertical(lipgloss.Left, top, "", tracker)
}

// walletView is the header widget: the connected address, a pending connect,
// or the detected providers.
func (m model) walletView() string {
	if m.session.Connected {
		return walletStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			infoStyle.Render("● ")+utils.FormatAddress(m.session.Address),
			subtleStyle.Render(providerLabel(m.session.ProviderLabel)),
			subtleStyle.Render("d: Disconnect • c: Copy"),
		))
	}
	if m.connecting != "" {
		return boxStyle.Render(fmt.Sprintf("%s Connecting to %s...", m.spinner.View(), providerLabel(m.connecting)))
	}
	hints := m.providerHints()
	if len(hints) == 0 {
		return boxStyle.Render(subtleStyle.Render("No Wallets Found"))
	}
	return boxStyle.Render(strings.Join(hints, " • "))
}

func (m model) gridView() string {
	cols := gridColumns(m.width)

	var rows []string
	var row []string
	for _, c := range m.coins {
		// A missing entry renders from the zero quote.
		q := m.feed.Snapshot[c.ID]
		lines := cardLines(c, q)
		lines[0] = symbolStyle.Render(lines[0])
		lines[1] = subtleStyle.Render(lines[1])
		if utils.ChangeIndicator(q.USD24hChange) == utils.UpArrow {
			lines[3] = upStyle.Render(lines[3])
		} else {
			lines[3] = downStyle.Render(lines[3])
		}
		row = append(row, cardStyle.Render(strings.Join(lines, "\n")))
		if len(row) == cols {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}

	if !m.feed.LastUpdated.IsZero() {
		rows = append(rows, subtleStyle.Render("Last updated: "+utils.FormatTime(m.feed.LastUpdated)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m model) viewError() string {
	box := boxStyle.BorderForeground(lipgloss.Color("#FF0000")).Render(lipgloss.JoinVertical(lipgloss.Left,
		errStyle.Render("Error: ")+m.feed.Error,
		"",
		subtleStyle.Render("r: Retry"),
	))
	return lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, box)
}

func (m model) viewAlert() string {
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
			titleStyle.Render("Wallet"),
			"\n",
			m.alert,
			"\n",
			subtleStyle.Render("Press any key to continue"),
		)),
	)
}

func (m model) footerView() string {
	line1 := "© 2025 De-Fi Price Tracker. Powered by CoinGecko API."
	line2 := fmt.Sprintf("r:ref • 1/m:evm • 2/p:sol • 3/s:sub • d:disc • c:cpy • ↑/↓:scroll • q:quit • v%s", Version)

	var footer string
	if m.width > 0 {
		l1 := subtleStyle.Width(m.width).Align(lipgloss.Center).Render(line1)
		l2 := subtleStyle.Width(m.width).Align(lipgloss.Center).Render(line2)
		footer = lipgloss.JoinVertical(lipgloss.Center, l1, l2)
	} else {
		footer = subtleStyle.Render(line1 + "\n" + line2)
	}

	if m.statusMessage != "" {
		footer = lipgloss.JoinVertical(lipgloss.Center, infoStyle.Render(m.statusMessage), footer)
	}
	return footer
}
