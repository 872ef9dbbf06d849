package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"defiprice/pkg/feed"
	"defiprice/pkg/wallet"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case feed.Event:
		// Keep listening on the same subscription
		cmds = append(cmds, listenForFeed(m.feedSub))
		m.feed = msg.State
		if msg.Type == feed.EventFetchFailed {
			m.log.WithField("error", msg.State.Error).Debug("price fetch failed")
		}

	case sessionMsg:
		cmds = append(cmds, listenForSession(m.controller.Updates()))
		m.session = wallet.Session(msg)

	case connectResultMsg:
		m.connecting = ""
		if errors.Is(msg.err, context.Canceled) {
			m.statusMessage = "Connection cancelled"
			cmds = append(cmds, clearStatusAfter(2*time.Second))
			break
		}
		if msg.err != nil {
			m.alert = connectAlert(msg.err)
			break
		}
		// Streaming providers may already have moved the address on.
		m.session = m.controller.Session()
		m.statusMessage = fmt.Sprintf("Connected to %s", msg.session.ProviderLabel)
		cmds = append(cmds, clearStatusAfter(2*time.Second))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.alert != "" {
			m.alert = ""
			break
		}

		if kind, ok := kindForKey(msg.String()); ok {
			if m.connecting != "" {
				m.alert = connectAlert(wallet.ErrConnectPending)
				break
			}
			if m.controller.Detector().Detected(kind) {
				m.connecting = m.controller.Label(kind)
			}
			cmds = append(cmds, connectCmd(m.controller, kind))
			break
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "r":
			m.poller.Refresh()
			m.statusMessage = "Refreshing prices..."
			cmds = append(cmds, clearStatusAfter(2*time.Second))
		case "d":
			if m.session.Connected || m.connecting != "" {
				m.controller.Disconnect()
				m.session = m.controller.Session()
				m.statusMessage = "Wallet disconnected"
				cmds = append(cmds, clearStatusAfter(2*time.Second))
			}
		case "c":
			if m.session.Connected {
				if err := copyToClipboard(m.session.Address); err != nil {
					m.statusMessage = "Failed to copy to clipboard"
				} else {
					m.statusMessage = "Full address copied to clipboard!"
				}
				cmds = append(cmds, clearStatusAfter(2*time.Second))
			}
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case clearStatusMsg:
		m.statusMessage = ""
	}

	m.updateGridViewport()
	return m, tea.Batch(cmds...)
}

// connectAlert is the text of the blocking alert for a failed connect.
func connectAlert(err error) string {
	var nd *wallet.NotDetectedError
	var ce *wallet.ConnectError
	switch {
	case errors.As(err, &nd), errors.As(err, &ce):
		return err.Error()
	case errors.Is(err, wallet.ErrConnectPending):
		return "A wallet connection is already in progress."
	}
	return fmt.Sprintf("Wallet error: %v", err)
}
