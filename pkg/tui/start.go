package tui

import (
	"context"
	"fmt"

	"defiprice/pkg/feed"
	"defiprice/pkg/wallet"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// Start runs the dashboard until the user quits. The poller is started here
// and stopped on exit, and any wallet session is dropped.
func Start(ctx context.Context, p *feed.Poller, c *wallet.Controller, log logrus.FieldLogger, version string) error {
	Version = version
	m := initialModel(p, c, log)
	defer p.Unsubscribe(m.feedSub)

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	p.Start(ctx)
	defer func() {
		p.Stop()
		c.Disconnect()
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("alas, there's been an error: %w", err)
	}
	return nil
}
