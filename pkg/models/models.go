package models

import "time"

// Coin describes one tracked cryptocurrency.
type Coin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Emoji  string `json:"emoji"`
}

var trackedCoins = []Coin{
	{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", Emoji: "₿"},
	{ID: "ethereum", Symbol: "ETH", Name: "Ethereum", Emoji: "Ξ"},
	{ID: "solana", Symbol: "SOL", Name: "Solana", Emoji: "◎"},
	{ID: "cardano", Symbol: "ADA", Name: "Cardano", Emoji: "₳"},
	{ID: "ripple", Symbol: "XRP", Name: "XRP", Emoji: "✕"},
	{ID: "polkadot", Symbol: "DOT", Name: "Polkadot", Emoji: "●"},
	{ID: "litecoin", Symbol: "LTC", Name: "Litecoin", Emoji: "Ł"},
	{ID: "chainlink", Symbol: "LINK", Name: "Chainlink", Emoji: "🔗"},
	{ID: "uniswap", Symbol: "UNI", Name: "Uniswap", Emoji: "🦄"},
	{ID: "aave", Symbol: "AAVE", Name: "Aave", Emoji: "👻"},
	{ID: "tether", Symbol: "USDT", Name: "Tether", Emoji: "₮"},
	{ID: "usd-coin", Symbol: "USDC", Name: "USDC", Emoji: "💵"},
}

// TrackedCoins returns a copy of the fixed coin list, in display order.
func TrackedCoins() []Coin {
	out := make([]Coin, len(trackedCoins))
	copy(out, trackedCoins)
	return out
}

// CoinIDs returns the CoinGecko ids of the tracked coins.
func CoinIDs() []string {
	ids := make([]string, 0, len(trackedCoins))
	for _, c := range trackedCoins {
		ids = append(ids, c.ID)
	}
	return ids
}

// Quote is the market data returned for one coin. Null or absent fields decode as zero.
type Quote struct {
	USD          float64 `json:"usd"`
	USDMarketCap float64 `json:"usd_market_cap"`
	USD24hVol    float64 `json:"usd_24h_vol"`
	USD24hChange float64 `json:"usd_24h_change"`
}

// Snapshot maps a coin id to its quote for one fetch cycle.
type Snapshot map[string]Quote

// Clone returns an independent copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	cp := make(Snapshot, len(s))
	for k, v := range s {
		cp[k] = v
	}
	return cp
}

// FeedState is the observable state of the price poller.
type FeedState struct {
	Snapshot    Snapshot  `json:"snapshot"`
	Loading     bool      `json:"loading"`
	Error       string    `json:"error,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// Clone returns a copy that shares no map with the receiver.
func (s FeedState) Clone() FeedState {
	s.Snapshot = s.Snapshot.Clone()
	return s
}

// ProviderResult holds the detection result for one wallet provider.
type ProviderResult struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Detected bool   `json:"detected"`
	Source   string `json:"source,omitempty"`
}

// TestReport holds the results of the configuration test.
type TestReport struct {
	ConfigPath      string           `json:"config_path"`
	ValidStructure  bool             `json:"valid_structure"`
	StructureErrors []string         `json:"structure_errors,omitempty"`
	APIBaseURL      string           `json:"api_base_url"`
	APIStatus       string           `json:"api_status"` // "ok" or "error"
	APIError        string           `json:"api_error,omitempty"`
	APILatencyMS    int64            `json:"api_latency_ms,omitempty"`
	QuotedCoins     int              `json:"quoted_coins"`
	TrackedCoins    int              `json:"tracked_coins"`
	Providers       []ProviderResult `json:"providers"`
}
