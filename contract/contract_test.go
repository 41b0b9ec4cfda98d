package contract

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashBillerDetails(t *testing.T) {
	bill := BillTerms{
		BankName:      "Guaranty Trust Bank",
		AccountName:   "MTN Nigeria",
		AccountNumber: "0123456789",
		AmountInNgn:   big.NewInt(15000),
		SenderName:    "Ada Obi",
	}

	h1 := HashBillerDetails(bill)
	h2 := HashBillerDetails(bill)
	assert.Equal(t, h1, h2)

	// Only the bank fields feed the digest.
	changedSender := bill
	changedSender.SenderName = "Bola Tinu"
	assert.Equal(t, h1, HashBillerDetails(changedSender))

	changedAccount := bill
	changedAccount.AccountNumber = "9999999999"
	assert.NotEqual(t, h1, HashBillerDetails(changedAccount))
}

func TestReceiptReverted(t *testing.T) {
	assert.False(t, (&Receipt{Status: 1}).Reverted())
	assert.True(t, (&Receipt{Status: 0}).Reverted())
}

func TestFakeBindingAllowanceFlow(t *testing.T) {
	ctx := context.Background()
	f := NewFakeBinding(common.HexToAddress("0x01"))
	token := common.HexToAddress("0x02")
	owner := common.HexToAddress("0x03")

	a, err := f.Allowance(ctx, token, owner)
	require.NoError(t, err)
	assert.Zero(t, a.Sign())

	receipt, err := f.Approve(ctx, token, big.NewInt(500))
	require.NoError(t, err)
	assert.False(t, receipt.Reverted())

	a, err = f.Allowance(ctx, token, owner)
	require.NoError(t, err)
	assert.Equal(t, "500", a.String())
}

func TestFakeBindingDeterministicHashes(t *testing.T) {
	ctx := context.Background()
	f := NewFakeBinding(common.HexToAddress("0x01"))
	token := common.HexToAddress("0x02")

	r1, err := f.ProcessGeneralPayment(ctx, token, big.NewInt(1), common.HexToAddress("0x04"))
	require.NoError(t, err)
	assert.Equal(t, r1.TxHash, f.LastTxHash())

	r2, err := f.ProcessGeneralPayment(ctx, token, big.NewInt(1), common.HexToAddress("0x04"))
	require.NoError(t, err)
	assert.NotEqual(t, r1.TxHash, r2.TxHash)
	assert.Equal(t, r2.TxHash, f.LastTxHash())
}

func TestFakeBindingWatchEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := NewFakeBinding(common.HexToAddress("0x01"))

	events, err := f.WatchEvents(ctx)
	require.NoError(t, err)

	sent := &SettlementEvent{TxHash: "0xabc", AmountInNgn: big.NewInt(1000)}
	f.Emit(sent)

	got := <-events
	assert.Equal(t, sent, got)

	cancel()
	_, open := <-events
	assert.False(t, open)
}
