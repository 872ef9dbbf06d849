package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"defiprice/pkg/config"
	"defiprice/pkg/feed"
	"defiprice/pkg/models"
	"defiprice/pkg/wallet"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct{}

func (stubSource) FetchPrices(ctx context.Context, ids []string) (models.Snapshot, error) {
	return models.Snapshot{}, nil
}

type stubProvider struct {
	kind wallet.ProviderKind
	addr string
	err  error
}

func (s stubProvider) Kind() wallet.ProviderKind { return s.kind }
func (s stubProvider) Label() string             { return "Stub " + s.kind.String() }
func (s stubProvider) Hint() string              { return "configure it" }

func (s stubProvider) Connect(ctx context.Context) (*wallet.Connection, error) {
	if s.err != nil {
		return nil, s.err
	}
	return wallet.NewConnection(s.addr), nil
}

func newTestModel(t *testing.T, wallets config.WalletConfig, providers ...wallet.Provider) model {
	t.Helper()
	p := feed.NewPoller(stubSource{}, models.CoinIDs(), time.Minute, nil)
	t.Cleanup(p.Stop)
	c := wallet.NewController(wallet.NewDetector(wallets), providers, time.Second, nil)
	m := initialModel(p, c, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 60})
	return next.(model)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// findMsg runs cmd and returns the first message of type T, looking inside batches.
func findMsg[T any](cmd tea.Cmd) (T, bool) {
	var zero T
	if cmd == nil {
		return zero, false
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if found, ok := findMsg[T](c); ok {
				return found, true
			}
		}
		return zero, false
	}
	found, ok := msg.(T)
	return found, ok
}

func TestCardLines_MissingCoin(t *testing.T) {
	coin := models.TrackedCoins()[0]
	text := strings.Join(cardLines(coin, models.Quote{}), "\n")

	assert.Contains(t, text, coin.Symbol)
	assert.Contains(t, text, coin.Name)
	assert.Equal(t, 3, strings.Count(text, "N/A"))
	assert.Contains(t, text, "▲ 0.00%")
}

func TestCardLines_Values(t *testing.T) {
	coin := models.Coin{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", Emoji: "₿"}
	lines := cardLines(coin, models.Quote{
		USD:          43250.5,
		USD24hChange: -2.5,
		USDMarketCap: 1.5e12,
		USD24hVol:    2.3e12,
	})

	require.Len(t, lines, 6)
	assert.Contains(t, lines[2], "$43,250.50")
	assert.Contains(t, lines[3], "▼ 2.50%")
	assert.Contains(t, lines[4], "$1.50T")
	assert.Contains(t, lines[5], "$2300.00B")
}

func TestKindForKey(t *testing.T) {
	tests := []struct {
		key  string
		kind wallet.ProviderKind
		ok   bool
	}{
		{"1", wallet.EVM, true},
		{"m", wallet.EVM, true},
		{"2", wallet.Solana, true},
		{"p", wallet.Solana, true},
		{"3", wallet.Substrate, true},
		{"s", wallet.Substrate, true},
		{"x", 0, false},
	}
	for _, tt := range tests {
		kind, ok := kindForKey(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		if tt.ok {
			assert.Equal(t, tt.kind, kind, tt.key)
		}
	}
}

func TestGridColumns(t *testing.T) {
	assert.Equal(t, 1, gridColumns(0))
	assert.Equal(t, 1, gridColumns(40))
	assert.Equal(t, 3, gridColumns(100))
}

func TestView_SpinnerWhileFirstLoad(t *testing.T) {
	m := newTestModel(t, config.WalletConfig{})
	assert.True(t, m.feed.Loading)
	assert.Contains(t, m.View(), "Loading prices...")
	assert.Contains(t, m.View(), "Powered by CoinGecko API")
}

func TestUpdate_FeedEventRendersGrid(t *testing.T) {
	m := newTestModel(t, config.WalletConfig{})
	updated := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)

	next, cmd := m.Update(feed.Event{Type: feed.EventPricesUpdated, State: models.FeedState{
		Snapshot:    models.Snapshot{"bitcoin": {USD: 43250.5, USD24hChange: 1.25}},
		LastUpdated: updated,
	}})
	m = next.(model)
	assert.NotNil(t, cmd)

	view := m.View()
	assert.Contains(t, view, "$43,250.50")
	assert.Contains(t, view, "1.25%")
	assert.Contains(t, view, "Last updated: 03:04:05 PM")
	assert.Contains(t, view, "r: Refresh")
}

func TestUpdate_LoadingWithSnapshotShowsUpdating(t *testing.T) {
	m := newTestModel(t, config.WalletConfig{})
	next, _ := m.Update(feed.Event{Type: feed.EventFetchStarted, State: models.FeedState{
		Snapshot: models.Snapshot{"bitcoin": {USD: 1}},
		Loading:  true,
	}})
	view := next.(model).View()

	assert.Contains(t, view, "Updating...")
	assert.NotContains(t, view, "Loading prices...")
}

func TestView_ErrorSupersedesGrid(t *testing.T) {
	m := newTestModel(t, config.WalletConfig{})
	next, _ := m.Update(feed.Event{Type: feed.EventFetchFailed, State: models.FeedState{
		Snapshot: models.Snapshot{"bitcoin": {USD: 43250.5}},
		Error:    "Failed to fetch prices from CoinGecko API (HTTP 429)",
	}})
	view := next.(model).View()

	assert.Contains(t, view, "Error: ")
	assert.Contains(t, view, "HTTP 429")
	assert.Contains(t, view, "r: Retry")
	assert.NotContains(t, view, "$43,250.50")
}

func TestView_NoWalletsFound(t *testing.T) {
	m := newTestModel(t, config.WalletConfig{})
	assert.Contains(t, m.View(), "No Wallets Found")
}

func TestView_DetectedProvidersListed(t *testing.T) {
	m := newTestModel(t, config.WalletConfig{EVMRPCURL: "http://127.0.0.1:1248"},
		stubProvider{kind: wallet.EVM, addr: "0x1234567890abcdef"})
	view := m.View()
	assert.Contains(t, view, "1: Stub evm")
	assert.NotContains(t, view, "No Wallets Found")
}

func TestUpdate_ConnectAndDisconnect(t *testing.T) {
	m := newTestModel(t, config.WalletConfig{EVMRPCURL: "http://127.0.0.1:1248"},
		stubProvider{kind: wallet.EVM, addr: "0x1234567890abcdef"})

	next, cmd := m.Update(key("1"))
	m = next.(model)
	assert.Equal(t, "Stub evm", m.connecting)

	result, ok := findMsg[connectResultMsg](cmd)
	require.True(t, ok)
	require.NoError(t, result.err)

	next, _ = m.Update(result)
	m = next.(model)
	assert.Empty(t, m.connecting)
	assert.True(t, m.session.Connected)
	assert.Contains(t, m.View(), "0x1234...abcdef")
	assert.Contains(t, m.View(), "Stub evm")

	next, _ = m.Update(key("d"))
	m = next.(model)
	assert.False(t, m.session.Connected)
	assert.Equal(t, wallet.Session{}, m.controller.Session())

	next, _ = m.Update(key("d"))
	assert.Equal(t, wallet.Session{}, next.(model).session)
}

func TestUpdate_NotDetectedShowsBlockingAlert(t *testing.T) {
	m := newTestModel(t, config.WalletConfig{}, stubProvider{kind: wallet.Solana, addr: "x"})

	next, cmd := m.Update(key("2"))
	m = next.(model)
	assert.Empty(t, m.connecting)

	result, ok := findMsg[connectResultMsg](cmd)
	require.True(t, ok)
	var nd *wallet.NotDetectedError
	require.ErrorAs(t, result.err, &nd)

	next, _ = m.Update(result)
	m = next.(model)
	assert.Equal(t, "Stub solana is not installed. configure it", m.alert)
	assert.Contains(t, m.View(), "Press any key to continue")
	assert.False(t, m.session.Connected)

	// Any key dismisses the alert without acting on it.
	next, cmd = m.Update(key("q"))
	m = next.(model)
	assert.Empty(t, m.alert)
	_, quit := findMsg[tea.QuitMsg](cmd)
	assert.False(t, quit)
}

func TestUpdate_RejectedConnectAlert(t *testing.T) {
	m := newTestModel(t, config.WalletConfig{EVMRPCURL: "http://127.0.0.1:1248"},
		stubProvider{kind: wallet.EVM, err: errors.New("User rejected the request.")})

	_, cmd := m.Update(key("m"))
	result, ok := findMsg[connectResultMsg](cmd)
	require.True(t, ok)

	next, _ := m.Update(result)
	assert.Equal(t, "Failed to connect to Stub evm: User rejected the request.", next.(model).alert)
}

func TestUpdate_CopyAddress(t *testing.T) {
	var copied string
	orig := copyToClipboard
	copyToClipboard = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { copyToClipboard = orig })

	m := newTestModel(t, config.WalletConfig{})
	next, _ := m.Update(key("c"))
	assert.Empty(t, copied, "nothing to copy while disconnected")

	m = next.(model)
	m.session = wallet.Session{Connected: true, Address: "0x1234567890abcdef", ProviderLabel: "Stub"}
	next, _ = m.Update(key("c"))
	assert.Equal(t, "0x1234567890abcdef", copied)
	assert.Equal(t, "Full address copied to clipboard!", next.(model).statusMessage)
}

func TestUpdate_SessionMsgFromStream(t *testing.T) {
	m := newTestModel(t, config.WalletConfig{})
	next, cmd := m.Update(sessionMsg{Connected: true, Address: "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty", ProviderLabel: "Polkadot.js"})
	m = next.(model)

	assert.NotNil(t, cmd)
	assert.Equal(t, "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty", m.session.Address)
	assert.Contains(t, m.View(), "5FHneW...M694ty")
}

func TestView_LongProviderLabelTruncated(t *testing.T) {
	assert.Equal(t, "Polkadot.js", providerLabel("Polkadot.js"))

	m := newTestModel(t, config.WalletConfig{})
	m.session = wallet.Session{Connected: true, Address: "0x1234567890abcdef", ProviderLabel: "My Very Long Hardware Signer Label"}
	view := m.View()
	assert.Contains(t, view, "My Very Long Hard...")
	assert.NotContains(t, view, "Signer Label")
}

func TestUpdate_Quit(t *testing.T) {
	m := newTestModel(t, config.WalletConfig{})
	_, cmd := m.Update(key("q"))
	_, quit := findMsg[tea.QuitMsg](cmd)
	assert.True(t, quit)
}

func TestConnectAlert(t *testing.T) {
	assert.Equal(t, "A wallet connection is already in progress.", connectAlert(wallet.ErrConnectPending))
	assert.Equal(t, "Failed to connect to X: boom", connectAlert(&wallet.ConnectError{Provider: "X", Err: errors.New("boom")}))
	assert.Equal(t, "Wallet error: odd", connectAlert(errors.New("odd")))
}
