package wallet

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// FakeProvider is an in-memory Provider for tests and examples. It reports a
// fixed account and chain, and lets callers script rejection and change
// notifications.
type FakeProvider struct {
	mu      sync.Mutex
	account common.Address
	chainID *big.Int

	// RejectAccounts makes RequestAccounts fail with ErrRejected.
	RejectAccounts bool

	// Unavailable makes every call fail as if no wallet were installed.
	Unavailable bool

	changes chan ChangeEvent
	closed  bool

	// Call counters, for asserting that an operation performed no
	// provider interaction.
	RequestAccountsCalls int
	ChainIDCalls         int
}

// NewFakeProvider returns a provider reporting the given account and chain.
func NewFakeProvider(account common.Address, chainID *big.Int) *FakeProvider {
	return &FakeProvider{
		account: account,
		chainID: new(big.Int).Set(chainID),
		changes: make(chan ChangeEvent, 4),
	}
}

func (p *FakeProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RequestAccountsCalls++
	if p.Unavailable {
		return nil, errors.New("wallet: no provider installed")
	}
	if p.RejectAccounts {
		return nil, ErrRejected
	}
	return []common.Address{p.account}, nil
}

func (p *FakeProvider) ChainID(ctx context.Context) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ChainIDCalls++
	return new(big.Int).Set(p.chainID), nil
}

func (p *FakeProvider) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &bind.TransactOpts{From: p.account, Context: ctx}, nil
}

func (p *FakeProvider) Backend() Backend {
	return nil
}

func (p *FakeProvider) Changes() <-chan ChangeEvent {
	return p.changes
}

// SwitchAccount changes the reported account and emits an accountsChanged
// notification.
func (p *FakeProvider) SwitchAccount(account common.Address) {
	p.mu.Lock()
	p.account = account
	chainID := new(big.Int).Set(p.chainID)
	p.mu.Unlock()
	p.changes <- ChangeEvent{Kind: AccountsChanged, Account: account, ChainID: chainID}
}

// SwitchChain changes the reported chain and emits a chainChanged
// notification.
func (p *FakeProvider) SwitchChain(chainID *big.Int) {
	p.mu.Lock()
	p.chainID = new(big.Int).Set(chainID)
	account := p.account
	p.mu.Unlock()
	p.changes <- ChangeEvent{Kind: ChainChanged, Account: account, ChainID: chainID}
}

func (p *FakeProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.changes)
	}
}
