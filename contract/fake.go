package contract

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/billmycrypto/billpay/wallet"
)

// FakeBinding is an in-memory Binding for tests and examples. Transactions
// mine instantly with deterministic hashes, allowances are tracked per
// token, and every call is counted so tests can assert that an operation
// performed no contract interaction.
type FakeBinding struct {
	mu sync.Mutex

	address    common.Address
	allowances map[common.Address]*big.Int
	seq        uint64

	// Failure script.
	RejectApprove  bool // Approve fails as if the user declined signing
	RevertApprove  bool // Approve mines with status 0
	RejectPayment  bool // payment entry points fail as if signing declined
	RevertPayment  bool // payment entry points mine with status 0

	// Call counters.
	AllowanceCalls int
	ApproveCalls   int
	GeneralCalls   int
	BillCalls      int

	watchers []chan Event
}

var _ Binding = (*FakeBinding)(nil)

// NewFakeBinding returns a fake bound to the given address with zero
// allowances.
func NewFakeBinding(address common.Address) *FakeBinding {
	return &FakeBinding{
		address:    address,
		allowances: make(map[common.Address]*big.Int),
	}
}

// NewFakeFactory returns a Factory that hands out the given fake, so tests
// can keep a handle on the binding the coordinator ends up using.
func NewFakeFactory(b *FakeBinding) Factory {
	return func(ctx context.Context, provider wallet.Provider) (Binding, error) {
		return b, nil
	}
}

func (f *FakeBinding) Address() common.Address {
	return f.address
}

// SetAllowance seeds the allowance the connected account has granted the
// contract for a token.
func (f *FakeBinding) SetAllowance(token common.Address, amount *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allowances[token] = new(big.Int).Set(amount)
}

func (f *FakeBinding) Allowance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AllowanceCalls++
	if a, ok := f.allowances[token]; ok {
		return new(big.Int).Set(a), nil
	}
	return big.NewInt(0), nil
}

func (f *FakeBinding) Approve(ctx context.Context, token common.Address, amount *big.Int) (*Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ApproveCalls++
	if f.RejectApprove {
		return nil, wallet.ErrRejected
	}
	receipt := f.mineLocked()
	if f.RevertApprove {
		receipt.Status = 0
		return receipt, nil
	}
	f.allowances[token] = new(big.Int).Set(amount)
	return receipt, nil
}

func (f *FakeBinding) ProcessGeneralPayment(ctx context.Context, token common.Address, amount *big.Int, recipient common.Address) (*Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GeneralCalls++
	if f.RejectPayment {
		return nil, wallet.ErrRejected
	}
	receipt := f.mineLocked()
	if f.RevertPayment {
		receipt.Status = 0
	}
	return receipt, nil
}

func (f *FakeBinding) ProcessBillPayment(ctx context.Context, token common.Address, amount *big.Int, bill BillTerms) (*Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BillCalls++
	if f.RejectPayment {
		return nil, wallet.ErrRejected
	}
	receipt := f.mineLocked()
	if f.RevertPayment {
		receipt.Status = 0
	}
	return receipt, nil
}

// mineLocked produces the next deterministic receipt. Callers hold f.mu.
func (f *FakeBinding) mineLocked() *Receipt {
	f.seq++
	hash := crypto.Keccak256Hash([]byte(fmt.Sprintf("fake-tx-%d", f.seq)))
	return &Receipt{
		TxHash:      hash.Hex(),
		Status:      1,
		BlockNumber: f.seq,
		GasUsed:     21000,
	}
}

// LastTxHash returns the hash the most recent mined transaction received.
func (f *FakeBinding) LastTxHash() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	hash := crypto.Keccak256Hash([]byte(fmt.Sprintf("fake-tx-%d", f.seq)))
	return hash.Hex()
}

// TotalCalls sums every contract interaction observed so far.
func (f *FakeBinding) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.AllowanceCalls + f.ApproveCalls + f.GeneralCalls + f.BillCalls
}

func (f *FakeBinding) WatchEvents(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, 16)
	f.mu.Lock()
	f.watchers = append(f.watchers, ch)
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		for i, w := range f.watchers {
			if w == ch {
				f.watchers = append(f.watchers[:i], f.watchers[i+1:]...)
				break
			}
		}
		f.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// Emit delivers an event to every active watcher, simulating a contract log.
func (f *FakeBinding) Emit(ev Event) {
	f.mu.Lock()
	watchers := make([]chan Event, len(f.watchers))
	copy(watchers, f.watchers)
	f.mu.Unlock()

	for _, w := range watchers {
		w <- ev
	}
}

func (f *FakeBinding) Close() {}
