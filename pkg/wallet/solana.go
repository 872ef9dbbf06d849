package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/portto/solana-go-sdk/types"
)

// SolanaProvider reads a Solana CLI keypair file (a JSON array of 64 bytes)
// and exposes its public key. The private key never leaves this function.
type SolanaProvider struct {
	path  string
	label string
}

func NewSolanaProvider(path, label string) *SolanaProvider {
	return &SolanaProvider{path: path, label: labelOr(label, DefaultSolanaLabel)}
}

func (p *SolanaProvider) Kind() ProviderKind { return Solana }
func (p *SolanaProvider) Label() string      { return p.label }

func (p *SolanaProvider) Hint() string {
	return "Set wallets.solana_keypair_path or DEFIPRICE_SOLANA_KEYPAIR to a Solana keypair file."
}

func (p *SolanaProvider) Connect(ctx context.Context) (*Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expandHome(p.path))
	if err != nil {
		return nil, fmt.Errorf("read keypair: %w", err)
	}

	var raw []int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse keypair: %w", err)
	}
	key := make([]byte, len(raw))
	for i, v := range raw {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("parse keypair: byte %d out of range", i)
		}
		key[i] = byte(v)
	}

	account, err := types.AccountFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("load keypair: %w", err)
	}
	return NewConnection(account.PublicKey.ToBase58()), nil
}
