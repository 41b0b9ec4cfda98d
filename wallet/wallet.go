// Package wallet abstracts the wallet-provider capability: account access,
// chain identification, a signing handle, and change notifications.
package wallet

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// ErrRejected is returned by a provider when its signing authority declines
// an account-access or signing request.
var ErrRejected = errors.New("wallet: request rejected by user")

// ChangeKind distinguishes the two wallet-originated change notifications.
type ChangeKind string

const (
	AccountsChanged ChangeKind = "accountsChanged"
	ChainChanged    ChangeKind = "chainChanged"
)

// ChangeEvent is delivered whenever the wallet reports a changed account or
// chain. Either notification invalidates the whole session.
type ChangeEvent struct {
	Kind    ChangeKind
	Account common.Address
	ChainID *big.Int
}

// Provider grants account access and transaction signing. Implementations
// must be safe for concurrent use.
type Provider interface {
	// RequestAccounts asks the provider for account access. It returns
	// ErrRejected when the user declines.
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// ChainID reports the provider's active network.
	ChainID(ctx context.Context) (*big.Int, error)

	// TransactOpts returns a signing handle for the first granted account.
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)

	// Backend exposes the node connection used to read state, send
	// transactions, and subscribe to logs.
	Backend() Backend

	// Changes delivers account and chain change notifications. The channel
	// is closed when the provider is closed.
	Changes() <-chan ChangeEvent

	Close()
}

// Backend is the subset of the node API the contract layer needs. It is
// satisfied by *ethclient.Client and by the simulated backends used in
// tests.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}
