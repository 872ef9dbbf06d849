package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

// EVMProvider requests accounts from an EIP-1193 style JSON-RPC endpoint.
type EVMProvider struct {
	url   string
	label string
}

func NewEVMProvider(url, label string) *EVMProvider {
	return &EVMProvider{url: url, label: labelOr(label, DefaultEVMLabel)}
}

func (p *EVMProvider) Kind() ProviderKind { return EVM }
func (p *EVMProvider) Label() string      { return p.label }

func (p *EVMProvider) Hint() string {
	return "Set wallets.evm_rpc_url or DEFIPRICE_EVM_RPC_URL to your wallet's JSON-RPC endpoint."
}

// Connect calls eth_requestAccounts and returns the first account.
func (p *EVMProvider) Connect(ctx context.Context) (*Connection, error) {
	client, err := rpc.DialContext(ctx, p.url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", p.url, err)
	}
	defer client.Close()

	var accounts []string
	if err := client.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, errors.New("no accounts returned")
	}

	addr := accounts[0]
	if common.IsHexAddress(addr) {
		addr = common.HexToAddress(addr).Hex()
	}
	return NewConnection(addr), nil
}
