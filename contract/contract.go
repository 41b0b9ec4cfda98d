// Package contract wraps the deployed bill-payment contract and the ERC-20
// approval flow behind a Binding interface, with an Ethereum implementation
// and an in-memory fake for tests.
package contract

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/billmycrypto/billpay/wallet"
)

// Receipt is the mined outcome of a broadcast transaction.
type Receipt struct {
	TxHash      string
	Status      uint64
	BlockNumber uint64
	GasUsed     uint64
}

// Reverted reports whether the transaction was mined but failed on-chain.
func (r *Receipt) Reverted() bool {
	return r != nil && r.Status == 0
}

// BillTerms carries the settlement metadata of one bill payment, as passed
// to the contract's processPayment entry point.
type BillTerms struct {
	BankName      string
	AccountName   string
	AccountNumber string
	AmountInNgn   *big.Int
	SenderName    string
}

// Binding is a callable handle to the deployed contract, scoped to one
// signer. Every transacting call waits for the transaction to be mined and
// returns its receipt; waiting is unbounded unless ctx imposes a deadline.
type Binding interface {
	// Address is the deployed contract address the binding is bound to.
	Address() common.Address

	// Allowance reports the spending allowance the owner has granted the
	// contract for the given token.
	Allowance(ctx context.Context, token, owner common.Address) (*big.Int, error)

	// Approve grants the contract a spending allowance for the given token
	// and waits for the approval to be mined.
	Approve(ctx context.Context, token common.Address, amount *big.Int) (*Receipt, error)

	// ProcessGeneralPayment invokes the peer-to-peer transfer entry point.
	ProcessGeneralPayment(ctx context.Context, token common.Address, amount *big.Int, recipient common.Address) (*Receipt, error)

	// ProcessBillPayment invokes the bill-payment entry point.
	ProcessBillPayment(ctx context.Context, token common.Address, amount *big.Int, bill BillTerms) (*Receipt, error)

	// WatchEvents subscribes to the contract's payment and settlement
	// events until ctx is cancelled. The returned channel is closed when
	// the subscription ends.
	WatchEvents(ctx context.Context) (<-chan Event, error)

	Close()
}

// Factory constructs a Binding for a connected provider. The session layer
// calls it once per successful connect, after the chain check has passed.
type Factory func(ctx context.Context, provider wallet.Provider) (Binding, error)
