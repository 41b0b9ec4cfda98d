package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// RPCProvider implements Provider over a JSON-RPC node with a local signing
// key, the headless equivalent of a browser-injected wallet.
type RPCProvider struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	account common.Address

	mu      sync.Mutex
	chainID *big.Int

	changes chan ChangeEvent
	closed  chan struct{}
}

// NewRPCProvider dials the given RPC endpoint and derives the account from
// the hex-encoded private key.
func NewRPCProvider(ctx context.Context, rpcURL, privateKeyHex string) (*RPCProvider, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return &RPCProvider{
		client:  client,
		key:     key,
		account: crypto.PubkeyToAddress(key.PublicKey),
		changes: make(chan ChangeEvent, 4),
		closed:  make(chan struct{}),
	}, nil
}

// RequestAccounts returns the single key-derived account. A key-backed
// provider has nothing to decline, so this never returns ErrRejected.
func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{p.account}, nil
}

func (p *RPCProvider) ChainID(ctx context.Context) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.chainID != nil {
		return new(big.Int).Set(p.chainID), nil
	}
	id, err := p.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}
	p.chainID = id
	return new(big.Int).Set(id), nil
}

func (p *RPCProvider) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	chainID, err := p.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := bind.NewKeyedTransactorWithChainID(p.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

func (p *RPCProvider) Backend() Backend {
	return p.client
}

func (p *RPCProvider) Changes() <-chan ChangeEvent {
	return p.changes
}

// NotifyChainChanged injects a chain-change notification, for hosts that
// detect a node switch out of band.
func (p *RPCProvider) NotifyChainChanged(chainID *big.Int) {
	p.mu.Lock()
	p.chainID = new(big.Int).Set(chainID)
	p.mu.Unlock()

	select {
	case p.changes <- ChangeEvent{Kind: ChainChanged, Account: p.account, ChainID: chainID}:
	case <-p.closed:
	}
}

func (p *RPCProvider) Close() {
	select {
	case <-p.closed:
		return
	default:
	}
	close(p.closed)
	close(p.changes)
	p.client.Close()
}
