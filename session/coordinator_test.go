package session

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billmycrypto/billpay/contract"
	"github.com/billmycrypto/billpay/types"
	"github.com/billmycrypto/billpay/wallet"
)

var (
	testAccount   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testRecipient = "0x2222222222222222222222222222222222222222"
	usdcAddress   = common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174")
)

func newTestCoordinator(t *testing.T) (*Coordinator, *wallet.FakeProvider, *contract.FakeBinding) {
	t.Helper()
	cfg := &types.Config{}
	cfg.ApplyDefaults()

	provider := wallet.NewFakeProvider(testAccount, types.PolygonChainID)
	binding := contract.NewFakeBinding(common.HexToAddress(types.DefaultContractAddress))
	coord := NewCoordinator(provider, contract.NewFakeFactory(binding), cfg, nil, nil)
	t.Cleanup(coord.Close)
	return coord, provider, binding
}

func generalParams() types.PaymentParams {
	return types.PaymentParams{
		Token:     "USDC",
		Amount:    "25.5",
		Recipient: testRecipient,
	}
}

func billParams() types.PaymentParams {
	return types.PaymentParams{
		Token:  "DAI",
		Amount: "10",
		Biller: &types.BillerDetails{
			BankName:      "Guaranty Trust Bank",
			AccountName:   "MTN Nigeria",
			AccountNumber: "0123456789",
			SenderName:    "Ada Obi",
		},
		AmountInNgn: "15000",
	}
}

func TestConnectSuccess(t *testing.T) {
	coord, _, _ := newTestCoordinator(t)

	require.NoError(t, coord.Connect(context.Background()))

	status := coord.Status()
	assert.True(t, status.Connected)
	assert.Equal(t, testAccount.Hex(), status.Account)
	assert.Equal(t, "137", status.ChainID)
	assert.Empty(t, coord.LastError())
}

func TestConnectNoProvider(t *testing.T) {
	cfg := &types.Config{}
	cfg.ApplyDefaults()
	coord := NewCoordinator(nil, nil, cfg, nil, nil)

	err := coord.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrProviderUnavailable, types.CodeOf(err))
	assert.NotEmpty(t, coord.LastError())
}

func TestConnectUserRejected(t *testing.T) {
	coord, provider, _ := newTestCoordinator(t)
	provider.RejectAccounts = true

	err := coord.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrUserRejected, types.CodeOf(err))
	assert.False(t, coord.Status().Connected)
}

func TestConnectWrongNetwork(t *testing.T) {
	cfg := &types.Config{}
	cfg.ApplyDefaults()
	provider := wallet.NewFakeProvider(testAccount, big.NewInt(1))
	binding := contract.NewFakeBinding(common.HexToAddress(types.DefaultContractAddress))
	coord := NewCoordinator(provider, contract.NewFakeFactory(binding), cfg, nil, nil)
	t.Cleanup(coord.Close)

	err := coord.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrWrongNetwork, types.CodeOf(err))

	// The account and chain are still reported, but no contract is usable.
	status := coord.Status()
	assert.False(t, status.Connected)
	assert.Equal(t, testAccount.Hex(), status.Account)
	assert.Equal(t, "1", status.ChainID)

	_, serr := coord.SubmitPayment(context.Background(), types.KindGeneral, generalParams())
	assert.Equal(t, types.ErrSessionNotReady, types.CodeOf(serr))
}

func TestSubmitWithoutSession(t *testing.T) {
	coord, _, binding := newTestCoordinator(t)

	_, err := coord.SubmitPayment(context.Background(), types.KindGeneral, generalParams())
	require.Error(t, err)
	assert.Equal(t, types.ErrSessionNotReady, types.CodeOf(err))
	assert.Zero(t, binding.TotalCalls())
}

func TestSubmitInvalidInputTouchesNothing(t *testing.T) {
	coord, provider, binding := newTestCoordinator(t)
	require.NoError(t, coord.Connect(context.Background()))
	callsAfterConnect := provider.RequestAccountsCalls

	cases := map[string]struct {
		kind   types.PaymentKind
		params types.PaymentParams
	}{
		"empty amount": {types.KindGeneral, types.PaymentParams{
			Token: "USDC", Recipient: testRecipient,
		}},
		"negative amount": {types.KindGeneral, types.PaymentParams{
			Token: "USDC", Amount: "-1", Recipient: testRecipient,
		}},
		"bad recipient": {types.KindGeneral, types.PaymentParams{
			Token: "USDC", Amount: "1", Recipient: "not-an-address",
		}},
		"missing biller": {types.KindBill, types.PaymentParams{
			Token: "USDC", Amount: "1", AmountInNgn: "1000",
		}},
		"fractional ngn": {types.KindBill, func() types.PaymentParams {
			p := billParams()
			p.AmountInNgn = "1000.50"
			return p
		}()},
		"unknown kind": {types.PaymentKind("swap"), generalParams()},
	}

	for name, tc := range cases {
		_, err := coord.SubmitPayment(context.Background(), tc.kind, tc.params)
		require.Error(t, err, name)
		assert.Equal(t, types.ErrInvalidInput, types.CodeOf(err), name)
	}

	assert.Zero(t, binding.TotalCalls())
	assert.Equal(t, callsAfterConnect, provider.RequestAccountsCalls)
	assert.Empty(t, coord.Transactions())
}

func TestSubmitUnsupportedToken(t *testing.T) {
	coord, _, binding := newTestCoordinator(t)
	require.NoError(t, coord.Connect(context.Background()))

	params := generalParams()
	params.Token = "SHIB"
	_, err := coord.SubmitPayment(context.Background(), types.KindGeneral, params)
	require.Error(t, err)
	assert.Equal(t, types.ErrUnsupportedToken, types.CodeOf(err))
	assert.Zero(t, binding.TotalCalls())
}

func TestSubmitGeneralPayment(t *testing.T) {
	coord, _, binding := newTestCoordinator(t)
	require.NoError(t, coord.Connect(context.Background()))

	txHash, err := coord.SubmitPayment(context.Background(), types.KindGeneral, generalParams())
	require.NoError(t, err)
	assert.Equal(t, binding.LastTxHash(), txHash)

	// Zero allowance forces an approval before the payment.
	assert.Equal(t, 1, binding.AllowanceCalls)
	assert.Equal(t, 1, binding.ApproveCalls)
	assert.Equal(t, 1, binding.GeneralCalls)

	txs := coord.Transactions()
	require.Len(t, txs, 1)
	rec := txs[0]
	assert.Equal(t, types.KindGeneral, rec.Kind)
	assert.Equal(t, types.StatusCompleted, rec.Status)
	assert.Equal(t, "USDC", rec.Token)
	assert.Equal(t, "25.5", rec.RequestedAmount)
	require.NotNil(t, rec.General)
	assert.Equal(t, testRecipient, rec.General.Recipient)
	assert.Contains(t, rec.ExplorerURL(), rec.TxHash)
}

func TestSubmitSkipsApprovalWhenAllowanceSuffices(t *testing.T) {
	coord, _, binding := newTestCoordinator(t)
	require.NoError(t, coord.Connect(context.Background()))

	binding.SetAllowance(usdcAddress, big.NewInt(100_000_000))

	_, err := coord.SubmitPayment(context.Background(), types.KindGeneral, generalParams())
	require.NoError(t, err)
	assert.Zero(t, binding.ApproveCalls)
	assert.Equal(t, 1, binding.GeneralCalls)
}

func TestSubmitBillPayment(t *testing.T) {
	coord, _, binding := newTestCoordinator(t)
	require.NoError(t, coord.Connect(context.Background()))

	txHash, err := coord.SubmitPayment(context.Background(), types.KindBill, billParams())
	require.NoError(t, err)
	require.NotEmpty(t, txHash)
	assert.Equal(t, 1, binding.BillCalls)

	txs := coord.Transactions()
	require.Len(t, txs, 1)
	rec := txs[0]
	assert.Equal(t, types.KindBill, rec.Kind)
	assert.Equal(t, types.StatusPending, rec.Status)
	require.NotNil(t, rec.Bill)
	assert.Equal(t, "15000", rec.Bill.AmountInNgn)
	assert.Equal(t, "MTN Nigeria", rec.Bill.Biller.AccountName)
	assert.Nil(t, rec.General)
}

func TestSubmitApprovalRejected(t *testing.T) {
	coord, _, binding := newTestCoordinator(t)
	require.NoError(t, coord.Connect(context.Background()))
	binding.RejectApprove = true

	_, err := coord.SubmitPayment(context.Background(), types.KindGeneral, generalParams())
	require.Error(t, err)
	assert.Equal(t, types.ErrApprovalFailed, types.CodeOf(err))
	assert.Zero(t, binding.GeneralCalls)
	assert.Empty(t, coord.Transactions())
}

func TestSubmitApprovalReverted(t *testing.T) {
	coord, _, binding := newTestCoordinator(t)
	require.NoError(t, coord.Connect(context.Background()))
	binding.RevertApprove = true

	_, err := coord.SubmitPayment(context.Background(), types.KindGeneral, generalParams())
	require.Error(t, err)
	assert.Equal(t, types.ErrApprovalFailed, types.CodeOf(err))
	assert.Empty(t, coord.Transactions())
}

func TestSubmitPaymentSigningRejected(t *testing.T) {
	coord, _, binding := newTestCoordinator(t)
	require.NoError(t, coord.Connect(context.Background()))
	binding.RejectPayment = true

	_, err := coord.SubmitPayment(context.Background(), types.KindGeneral, generalParams())
	require.Error(t, err)
	assert.Equal(t, types.ErrTransactionRejected, types.CodeOf(err))
	assert.Empty(t, coord.Transactions())
}

func TestSubmitPaymentReverted(t *testing.T) {
	coord, _, binding := newTestCoordinator(t)
	require.NoError(t, coord.Connect(context.Background()))
	binding.RevertPayment = true

	_, err := coord.SubmitPayment(context.Background(), types.KindBill, billParams())
	require.Error(t, err)
	assert.Equal(t, types.ErrTransactionReverted, types.CodeOf(err))
	assert.Empty(t, coord.Transactions())
}

func TestLastErrorKeepsOnlyMostRecent(t *testing.T) {
	coord, _, _ := newTestCoordinator(t)
	require.NoError(t, coord.Connect(context.Background()))

	_, err := coord.SubmitPayment(context.Background(), types.KindGeneral, types.PaymentParams{
		Token: "USDC", Amount: "-1", Recipient: testRecipient,
	})
	require.Error(t, err)
	first := coord.LastError()

	params := generalParams()
	params.Token = "SHIB"
	_, err = coord.SubmitPayment(context.Background(), types.KindGeneral, params)
	require.Error(t, err)

	assert.NotEqual(t, first, coord.LastError())
	assert.Equal(t, err.Error(), coord.LastError())
}

func TestReconcileGeneralPayment(t *testing.T) {
	coord, _, _ := newTestCoordinator(t)
	require.NoError(t, coord.Connect(context.Background()))

	txHash, err := coord.SubmitPayment(context.Background(), types.KindGeneral, generalParams())
	require.NoError(t, err)

	ev := &contract.GeneralPaymentEvent{
		TxHash: txHash,
		Amount: big.NewInt(25_500_000),
		Fee:    big.NewInt(255_000),
	}
	coord.Reconcile(ev)

	rec := coord.Transactions()[0]
	assert.Equal(t, "25.5", rec.Amount)
	assert.Equal(t, "0.255", rec.Fee)
	assert.Equal(t, types.StatusCompleted, rec.Status)

	// Replaying the same event changes nothing.
	coord.Reconcile(ev)
	again := coord.Transactions()[0]
	assert.Equal(t, rec, again)
}

func TestReconcileBillPaymentAndSettlement(t *testing.T) {
	coord, _, _ := newTestCoordinator(t)
	require.NoError(t, coord.Connect(context.Background()))

	txHash, err := coord.SubmitPayment(context.Background(), types.KindBill, billParams())
	require.NoError(t, err)

	daiUnit := big.NewInt(1e18)
	coord.Reconcile(&contract.BillPaymentEvent{
		TxHash:     txHash,
		Amount:     new(big.Int).Mul(big.NewInt(10), daiUnit),
		BaseAmount: new(big.Int).Mul(big.NewInt(99), big.NewInt(1e17)),
		Fee:        big.NewInt(1e17),
	})

	rec := coord.Transactions()[0]
	assert.Equal(t, "10", rec.Amount)
	assert.Equal(t, "9.9", rec.BaseAmount)
	assert.Equal(t, "0.1", rec.Fee)
	assert.Equal(t, types.StatusPending, rec.Status)

	coord.Reconcile(&contract.SettlementEvent{TxHash: txHash, AmountInNgn: big.NewInt(15000)})
	assert.Equal(t, types.StatusSettled, coord.Transactions()[0].Status)

	// Settling twice is harmless.
	coord.Reconcile(&contract.SettlementEvent{TxHash: txHash, AmountInNgn: big.NewInt(15000)})
	assert.Equal(t, types.StatusSettled, coord.Transactions()[0].Status)
}

func TestReconcileUnknownHashIsNoop(t *testing.T) {
	coord, _, _ := newTestCoordinator(t)
	require.NoError(t, coord.Connect(context.Background()))

	_, err := coord.SubmitPayment(context.Background(), types.KindGeneral, generalParams())
	require.NoError(t, err)
	before := coord.Transactions()

	coord.Reconcile(&contract.GeneralPaymentEvent{
		TxHash: "0xdeadbeef",
		Amount: big.NewInt(1),
		Fee:    big.NewInt(1),
	})
	assert.Equal(t, before, coord.Transactions())
}

func TestReconcileKindMismatchIgnored(t *testing.T) {
	coord, _, _ := newTestCoordinator(t)
	require.NoError(t, coord.Connect(context.Background()))

	txHash, err := coord.SubmitPayment(context.Background(), types.KindGeneral, generalParams())
	require.NoError(t, err)

	// A settlement event can only apply to a bill payment record.
	coord.Reconcile(&contract.SettlementEvent{TxHash: txHash, AmountInNgn: big.NewInt(1000)})
	assert.Equal(t, types.StatusCompleted, coord.Transactions()[0].Status)
}

func TestEventWatcherFeedsReconciler(t *testing.T) {
	coord, _, binding := newTestCoordinator(t)
	require.NoError(t, coord.Connect(context.Background()))

	txHash, err := coord.SubmitPayment(context.Background(), types.KindBill, billParams())
	require.NoError(t, err)

	binding.Emit(&contract.SettlementEvent{TxHash: txHash, AmountInNgn: big.NewInt(15000)})

	require.Eventually(t, func() bool {
		return coord.Transactions()[0].Status == types.StatusSettled
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAccountChangeResetsSession(t *testing.T) {
	coord, provider, _ := newTestCoordinator(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coord.Start(ctx)

	require.NoError(t, coord.Connect(ctx))
	_, err := coord.SubmitPayment(ctx, types.KindGeneral, generalParams())
	require.NoError(t, err)
	require.Len(t, coord.Transactions(), 1)

	other := common.HexToAddress("0x3333333333333333333333333333333333333333")
	provider.SwitchAccount(other)

	require.Eventually(t, func() bool {
		status := coord.Status()
		return status.Connected && status.Account == other.Hex() && len(coord.Transactions()) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestChainChangeToWrongNetwork(t *testing.T) {
	coord, provider, _ := newTestCoordinator(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coord.Start(ctx)

	require.NoError(t, coord.Connect(ctx))
	provider.SwitchChain(big.NewInt(1))

	require.Eventually(t, func() bool {
		return !coord.Status().Connected && coord.Status().ChainID == "1"
	}, 2*time.Second, 10*time.Millisecond)

	_, err := coord.SubmitPayment(ctx, types.KindGeneral, generalParams())
	assert.Equal(t, types.ErrSessionNotReady, types.CodeOf(err))
}
