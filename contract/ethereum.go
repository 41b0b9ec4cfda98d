package contract

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/billmycrypto/billpay/wallet"
)

// EthBinding drives the deployed contract through a go-ethereum bound
// contract, signing with the wallet provider's transact opts.
type EthBinding struct {
	provider wallet.Provider
	backend  wallet.Backend
	address  common.Address
	bound    *bind.BoundContract
	payABI   abi.ABI
	tokenABI abi.ABI

	mu     sync.Mutex
	tokens map[common.Address]*bind.BoundContract
}

var _ Binding = (*EthBinding)(nil)

// NewEthFactory returns a Factory producing bindings against the contract
// at the given address.
func NewEthFactory(address common.Address) Factory {
	return func(ctx context.Context, provider wallet.Provider) (Binding, error) {
		return NewEthBinding(provider, address)
	}
}

// NewEthBinding binds the contract at address using the provider's backend
// for reads, writes, and log subscriptions.
func NewEthBinding(provider wallet.Provider, address common.Address) (*EthBinding, error) {
	backend := provider.Backend()
	if backend == nil {
		return nil, fmt.Errorf("provider has no backend")
	}

	payABI, err := abi.JSON(strings.NewReader(billPayABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}
	tokenABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}

	return &EthBinding{
		provider: provider,
		backend:  backend,
		address:  address,
		bound:    bind.NewBoundContract(address, payABI, backend, backend, backend),
		payABI:   payABI,
		tokenABI: tokenABI,
		tokens:   make(map[common.Address]*bind.BoundContract),
	}, nil
}

func (b *EthBinding) Address() common.Address {
	return b.address
}

func (b *EthBinding) tokenContract(token common.Address) *bind.BoundContract {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.tokens[token]; ok {
		return c
	}
	c := bind.NewBoundContract(token, b.tokenABI, b.backend, b.backend, b.backend)
	b.tokens[token] = c
	return c
}

func (b *EthBinding) Allowance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	var out []interface{}
	err := b.tokenContract(token).Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, b.address)
	if err != nil {
		return nil, fmt.Errorf("allowance call: %w", err)
	}
	allowance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected allowance result type %T", out[0])
	}
	return allowance, nil
}

func (b *EthBinding) Approve(ctx context.Context, token common.Address, amount *big.Int) (*Receipt, error) {
	opts, err := b.provider.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := b.tokenContract(token).Transact(opts, "approve", b.address, amount)
	if err != nil {
		return nil, fmt.Errorf("approve tx: %w", err)
	}
	return b.waitMined(ctx, tx)
}

func (b *EthBinding) ProcessGeneralPayment(ctx context.Context, token common.Address, amount *big.Int, recipient common.Address) (*Receipt, error) {
	opts, err := b.provider.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := b.bound.Transact(opts, "processGeneralPayment", token, amount, recipient)
	if err != nil {
		return nil, fmt.Errorf("general payment tx: %w", err)
	}
	return b.waitMined(ctx, tx)
}

func (b *EthBinding) ProcessBillPayment(ctx context.Context, token common.Address, amount *big.Int, bill BillTerms) (*Receipt, error) {
	opts, err := b.provider.TransactOpts(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := b.bound.Transact(opts, "processPayment",
		token,
		amount,
		bill.BankName,
		bill.AccountName,
		bill.AccountNumber,
		bill.AmountInNgn,
		bill.SenderName,
	)
	if err != nil {
		return nil, fmt.Errorf("bill payment tx: %w", err)
	}
	return b.waitMined(ctx, tx)
}

// waitMined blocks until the transaction is included in a block. Mining has
// no timeout of its own; the caller's ctx is the only bound.
func (b *EthBinding) waitMined(ctx context.Context, tx *ethtypes.Transaction) (*Receipt, error) {
	receipt, err := bind.WaitMined(ctx, b.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("wait mined: %w", err)
	}
	return &Receipt{
		TxHash:      receipt.TxHash.Hex(),
		Status:      receipt.Status,
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}, nil
}

// WatchEvents fans the three contract log streams into one typed channel.
// Decode failures drop the log; an unknown or malformed event is expected
// traffic, not a fault.
func (b *EthBinding) WatchEvents(ctx context.Context) (<-chan Event, error) {
	opts := &bind.WatchOpts{Context: ctx}

	billLogs, billSub, err := b.bound.WatchLogs(opts, "PaymentProcessed")
	if err != nil {
		return nil, fmt.Errorf("watch PaymentProcessed: %w", err)
	}
	generalLogs, generalSub, err := b.bound.WatchLogs(opts, "GeneralPaymentProcessed")
	if err != nil {
		billSub.Unsubscribe()
		return nil, fmt.Errorf("watch GeneralPaymentProcessed: %w", err)
	}
	settleLogs, settleSub, err := b.bound.WatchLogs(opts, "BillerSettled")
	if err != nil {
		billSub.Unsubscribe()
		generalSub.Unsubscribe()
		return nil, fmt.Errorf("watch BillerSettled: %w", err)
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		defer billSub.Unsubscribe()
		defer generalSub.Unsubscribe()
		defer settleSub.Unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case <-billSub.Err():
				return
			case <-generalSub.Err():
				return
			case <-settleSub.Err():
				return
			case log := <-billLogs:
				ev := new(BillPaymentEvent)
				if err := b.bound.UnpackLog(ev, "PaymentProcessed", log); err == nil {
					out <- ev
				}
			case log := <-generalLogs:
				ev := new(GeneralPaymentEvent)
				if err := b.bound.UnpackLog(ev, "GeneralPaymentProcessed", log); err == nil {
					out <- ev
				}
			case log := <-settleLogs:
				ev := new(SettlementEvent)
				if err := b.bound.UnpackLog(ev, "BillerSettled", log); err == nil {
					out <- ev
				}
			}
		}
	}()

	return out, nil
}

func (b *EthBinding) Close() {}
