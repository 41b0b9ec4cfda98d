package session

import (
	"fmt"
	"sync"

	"github.com/billmycrypto/billpay/types"
)

// TxLog is the in-memory transaction log: insertion-ordered, keyed by
// transaction hash, append-only within a session. Append and in-place
// update are the only mutations; both run under the lock so submission and
// event reconciliation can interleave safely.
type TxLog struct {
	mu     sync.RWMutex
	byHash map[string]*types.TransactionRecord
	order  []*types.TransactionRecord
}

func NewTxLog() *TxLog {
	return &TxLog{byHash: make(map[string]*types.TransactionRecord)}
}

// Append adds a new record. The hash must not already be present.
func (l *TxLog) Append(rec types.TransactionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byHash[rec.TxHash]; exists {
		return fmt.Errorf("duplicate transaction hash %s", rec.TxHash)
	}

	stored := rec
	l.byHash[rec.TxHash] = &stored
	l.order = append(l.order, &stored)
	return nil
}

// Update applies fn to the record with the given hash, if present. It
// reports whether a record matched; an unknown hash is a no-op, not an
// error.
func (l *TxLog) Update(txHash string, fn func(*types.TransactionRecord)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.byHash[txHash]
	if !ok {
		return false
	}
	fn(rec)
	return true
}

// Get returns a copy of the record with the given hash.
func (l *TxLog) Get(txHash string) (types.TransactionRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.byHash[txHash]
	if !ok {
		return types.TransactionRecord{}, false
	}
	return *rec, true
}

// Snapshot returns the records in insertion order, copied for read-only
// rendering.
func (l *TxLog) Snapshot() []types.TransactionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.TransactionRecord, len(l.order))
	for i, rec := range l.order {
		out[i] = *rec
	}
	return out
}

func (l *TxLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// Reset discards every record. Called only on session reset.
func (l *TxLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byHash = make(map[string]*types.TransactionRecord)
	l.order = nil
}
