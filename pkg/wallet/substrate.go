package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
)

// accountsNamespace gives accounts_subscribe, accounts_subscription and
// accounts_unsubscribe on the wire.
const accountsNamespace = "accounts"

// SubstrateAccount is one entry of an account list emitted by the signer.
type SubstrateAccount struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// SubstrateProvider subscribes to the account list of a signer over a
// websocket JSON-RPC connection. The first non-empty list is the connection
// result; later lists update the primary address until Close.
type SubstrateProvider struct {
	url   string
	label string
}

func NewSubstrateProvider(url, label string) *SubstrateProvider {
	return &SubstrateProvider{url: url, label: labelOr(label, DefaultSubstrateLabel)}
}

func (p *SubstrateProvider) Kind() ProviderKind { return Substrate }
func (p *SubstrateProvider) Label() string      { return p.label }

func (p *SubstrateProvider) Hint() string {
	return "Set wallets.substrate_ws_url or DEFIPRICE_SUBSTRATE_WS_URL to your signer's websocket endpoint."
}

func (p *SubstrateProvider) Connect(ctx context.Context) (*Connection, error) {
	client, err := rpc.DialWebsocket(ctx, p.url, "")
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", p.url, err)
	}

	lists := make(chan []SubstrateAccount, 16)
	sub, err := client.Subscribe(ctx, accountsNamespace, lists)
	if err != nil {
		client.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	first, err := waitForAccounts(ctx, sub, lists)
	if err != nil {
		client.Close()
		return nil, err
	}

	updates := make(chan string, 1)
	done := make(chan struct{})
	go forwardAccounts(sub, lists, updates, done)

	closeFn := func() {
		close(done)
		sub.Unsubscribe()
		client.Close()
	}
	return NewStreamConnection(first, updates, closeFn), nil
}

// waitForAccounts blocks until the signer emits a non-empty account list.
func waitForAccounts(ctx context.Context, sub *rpc.ClientSubscription, lists <-chan []SubstrateAccount) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case err := <-sub.Err():
			if err == nil {
				err = errors.New("subscription closed")
			}
			return "", err
		case accts := <-lists:
			if addr := primaryAddress(accts); addr != "" {
				return addr, nil
			}
		}
	}
}

func forwardAccounts(sub *rpc.ClientSubscription, lists <-chan []SubstrateAccount, updates chan<- string, done <-chan struct{}) {
	defer close(updates)
	for {
		select {
		case <-done:
			return
		case <-sub.Err():
			return
		case accts := <-lists:
			addr := primaryAddress(accts)
			if addr == "" {
				continue
			}
			select {
			case updates <- addr:
			case <-done:
				return
			}
		}
	}
}

func primaryAddress(accts []SubstrateAccount) string {
	if len(accts) == 0 {
		return ""
	}
	return accts[0].Address
}
