// Package wallet detects wallet providers configured in the host environment
// and keeps a display-only session for one connected address.
package wallet

import (
	"context"
	"sync"
)

// ProviderKind identifies one wallet ecosystem.
type ProviderKind int

const (
	EVM ProviderKind = iota
	Solana
	Substrate
)

// AllKinds lists the supported providers in display order.
var AllKinds = []ProviderKind{EVM, Solana, Substrate}

func (k ProviderKind) String() string {
	switch k {
	case EVM:
		return "evm"
	case Solana:
		return "solana"
	case Substrate:
		return "substrate"
	}
	return "unknown"
}

const (
	DefaultEVMLabel       = "EVM Wallet"
	DefaultSolanaLabel    = "Solana Wallet"
	DefaultSubstrateLabel = "Substrate Wallet"
)

// Provider is the connection strategy for one ecosystem.
type Provider interface {
	Kind() ProviderKind
	Label() string
	// Hint tells the user how to make the provider available.
	Hint() string
	// Connect requests account access and returns the primary address.
	Connect(ctx context.Context) (*Connection, error)
}

// Connection is the result of a successful provider connect. Streaming
// providers also deliver later primary addresses on Updates until Close.
type Connection struct {
	Address string
	Updates <-chan string

	closeOnce sync.Once
	closeFn   func()
}

// NewConnection builds a one-shot connection.
func NewConnection(address string) *Connection {
	return &Connection{Address: address}
}

// NewStreamConnection builds a connection backed by a live subscription.
func NewStreamConnection(address string, updates <-chan string, closeFn func()) *Connection {
	return &Connection{Address: address, Updates: updates, closeFn: closeFn}
}

// Close releases the subscription, if any. Safe to call more than once.
func (c *Connection) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		if c.closeFn != nil {
			c.closeFn()
		}
	})
}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return fallback
}
