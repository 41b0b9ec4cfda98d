package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/billmycrypto/billpay/contract"
	"github.com/billmycrypto/billpay/logger"
	"github.com/billmycrypto/billpay/metrics"
	"github.com/billmycrypto/billpay/types"
	"github.com/billmycrypto/billpay/utils"
	"github.com/billmycrypto/billpay/wallet"
)

// Coordinator owns the session, the transaction log, and the reconciliation
// of pending transactions against contract events. Connect and
// SubmitPayment are the user-driven operations; reconciliation and change
// handling run as background goroutines.
type Coordinator struct {
	provider wallet.Provider
	factory  contract.Factory
	cfg      *types.Config
	log      logger.Logger
	metrics  metrics.Recorder

	mu            sync.Mutex
	session       Session
	lastErr       string
	watchCancel   context.CancelFunc
	changesCancel context.CancelFunc

	txlog *TxLog

	wg sync.WaitGroup
}

// NewCoordinator builds a coordinator with an empty session. Nothing is
// connected until Connect is called.
func NewCoordinator(provider wallet.Provider, factory contract.Factory, cfg *types.Config, log logger.Logger, rec metrics.Recorder) *Coordinator {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Coordinator{
		provider: provider,
		factory:  factory,
		cfg:      cfg,
		log:      log,
		metrics:  rec,
		txlog:    NewTxLog(),
	}
}

// Start begins consuming wallet change notifications. On any account or
// chain change the whole session is discarded, the transaction log
// included, and connect is re-run from scratch.
func (c *Coordinator) Start(ctx context.Context) {
	if c.provider == nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.changesCancel = cancel
	c.mu.Unlock()

	changes := c.provider.Changes()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-changes:
				if !ok {
					return
				}
				c.log.Info("wallet change reported, rebuilding session", map[string]any{
					"kind":    string(ev.Kind),
					"account": ev.Account.Hex(),
				})
				c.resetSession()
				if err := c.Connect(ctx); err != nil {
					c.log.Warn("reconnect after wallet change failed", map[string]any{
						"error": err.Error(),
					})
				}
			}
		}
	}()
}

// Connect requests account access, validates the active chain, and binds
// the contract handle. Failures leave account and chain in whatever state
// the provider reported, but never a usable contract handle.
func (c *Coordinator) Connect(ctx context.Context) error {
	start := time.Now()
	err := c.connect(ctx)
	c.metrics.ObserveLatency("connect", time.Since(start), nil)
	if err != nil {
		c.metrics.IncCounter("connect_failed", nil)
		c.setLastError(err)
		return err
	}
	c.metrics.IncCounter("connect_succeeded", nil)
	return nil
}

func (c *Coordinator) connect(ctx context.Context) error {
	if c.provider == nil {
		return types.NewError(types.ErrProviderUnavailable,
			"no wallet provider available", nil)
	}

	accounts, err := c.provider.RequestAccounts(ctx)
	if err != nil {
		if errors.Is(err, wallet.ErrRejected) {
			return types.NewError(types.ErrUserRejected,
				"account access request was declined", err)
		}
		return types.NewError(types.ErrProviderUnavailable,
			fmt.Sprintf("wallet provider unavailable: %v", err), err)
	}
	if len(accounts) == 0 {
		return types.NewError(types.ErrProviderUnavailable,
			"wallet provider returned no accounts", nil)
	}

	chainID, err := c.provider.ChainID(ctx)
	if err != nil {
		c.storeSession(Session{Account: accounts[0]})
		return types.NewError(types.ErrProviderUnavailable,
			fmt.Sprintf("failed to query network: %v", err), err)
	}

	if chainID.Cmp(c.cfg.RequiredChainID) != 0 {
		c.storeSession(Session{Account: accounts[0], ChainID: chainID})
		return types.NewError(types.ErrWrongNetwork,
			fmt.Sprintf("connected to chain %s, please switch to chain %s",
				chainID, c.cfg.RequiredChainID), nil)
	}

	binding, err := c.factory(ctx, c.provider)
	if err != nil {
		c.storeSession(Session{Account: accounts[0], ChainID: chainID})
		return types.NewError(types.ErrProviderUnavailable,
			fmt.Sprintf("failed to bind contract: %v", err), err)
	}

	c.storeSession(Session{Account: accounts[0], ChainID: chainID, Contract: binding})
	c.startEventWatch(binding)

	c.log.Info("session connected", map[string]any{
		"account":  accounts[0].Hex(),
		"chainId":  chainID.String(),
		"contract": binding.Address().Hex(),
	})
	return nil
}

// SubmitPayment validates input, secures the spending allowance, invokes
// the selected contract entry point, waits for mining, and appends the
// transaction record. The operation either fully succeeds with a new
// record or fully fails with none.
func (c *Coordinator) SubmitPayment(ctx context.Context, kind types.PaymentKind, params types.PaymentParams) (string, error) {
	start := time.Now()
	labels := map[string]string{"kind": kind.String()}

	txHash, err := c.submit(ctx, kind, params)
	c.metrics.ObserveLatency("submit_payment", time.Since(start), labels)
	if err != nil {
		c.metrics.IncCounter("payment_failed", labels)
		c.setLastError(err)
		return "", err
	}
	c.metrics.IncCounter("payment_submitted", labels)
	return txHash, nil
}

func (c *Coordinator) submit(ctx context.Context, kind types.PaymentKind, params types.PaymentParams) (string, error) {
	// Input validation happens before any wallet or contract interaction.
	if err := utils.ValidatePaymentParams(kind, params); err != nil {
		return "", err
	}

	sess := c.currentSession()
	if !sess.Ready() {
		return "", types.NewError(types.ErrSessionNotReady,
			"wallet is not connected to the required network", nil)
	}
	binding := sess.Contract

	token, ok := types.LookupToken(params.Token)
	if !ok {
		return "", types.NewError(types.ErrUnsupportedToken,
			fmt.Sprintf("unsupported token %q", params.Token), nil)
	}
	tokenAddr := common.HexToAddress(token.Address)

	amount, err := utils.ToBaseUnits(params.Amount, token.Decimals)
	if err != nil {
		return "", types.NewError(types.ErrInvalidInput, err.Error(), err)
	}

	// Approval step: may suspend for an unbounded, network-dependent time.
	allowance, err := binding.Allowance(ctx, tokenAddr, sess.Account)
	if err != nil {
		return "", types.NewError(types.ErrApprovalFailed,
			fmt.Sprintf("allowance query failed: %v", err), err)
	}
	if allowance.Cmp(amount) < 0 {
		receipt, err := binding.Approve(ctx, tokenAddr, amount)
		if err != nil {
			return "", types.NewError(types.ErrApprovalFailed,
				fmt.Sprintf("token approval failed: %v", err), err)
		}
		if receipt.Reverted() {
			return "", types.NewError(types.ErrApprovalFailed,
				"token approval reverted on-chain", nil)
		}
		c.log.Debug("token approval mined", map[string]any{
			"token":  token.Symbol,
			"txHash": receipt.TxHash,
		})
	}

	var receipt *contract.Receipt
	switch kind {
	case types.KindGeneral:
		receipt, err = binding.ProcessGeneralPayment(ctx, tokenAddr, amount,
			common.HexToAddress(params.Recipient))
	case types.KindBill:
		ngn, nerr := utils.ParseWholeUnits(params.AmountInNgn)
		if nerr != nil {
			return "", types.NewError(types.ErrInvalidInput, nerr.Error(), nerr)
		}
		receipt, err = binding.ProcessBillPayment(ctx, tokenAddr, amount, contract.BillTerms{
			BankName:      params.Biller.BankName,
			AccountName:   params.Biller.AccountName,
			AccountNumber: params.Biller.AccountNumber,
			AmountInNgn:   ngn,
			SenderName:    params.Biller.SenderName,
		})
	}
	if err != nil {
		if errors.Is(err, wallet.ErrRejected) {
			return "", types.NewError(types.ErrTransactionRejected,
				"transaction signing was declined", err)
		}
		return "", types.NewError(types.ErrTransactionReverted,
			fmt.Sprintf("payment transaction failed: %v", err), err)
	}
	if receipt.Reverted() {
		return "", types.NewError(types.ErrTransactionReverted,
			fmt.Sprintf("payment transaction %s reverted on-chain", receipt.TxHash), nil)
	}

	rec := types.TransactionRecord{
		TxHash:          receipt.TxHash,
		Kind:            kind,
		Token:           token.Symbol,
		RequestedAmount: params.Amount,
		CreatedAt:       time.Now(),
	}
	switch kind {
	case types.KindGeneral:
		rec.Status = types.StatusCompleted
		rec.General = &types.GeneralDetail{Recipient: params.Recipient}
	case types.KindBill:
		rec.Status = types.StatusPending
		rec.Bill = &types.BillDetail{
			Biller:      *params.Biller,
			AmountInNgn: params.AmountInNgn,
		}
	}

	if err := c.txlog.Append(rec); err != nil {
		// Resubmission always yields a fresh on-chain hash, so a collision
		// here means the backend misbehaved.
		c.log.Warn("transaction hash collision in log", map[string]any{
			"txHash": receipt.TxHash,
		})
	}

	c.log.Info("payment submitted", map[string]any{
		"kind":   kind.String(),
		"token":  token.Symbol,
		"amount": params.Amount,
		"txHash": receipt.TxHash,
	})
	return receipt.TxHash, nil
}

// Reconcile merges one contract event into the transaction log. Events for
// unknown hashes are silently ignored; applying the same event twice leaves
// the record unchanged. Reconcile never fails observably.
func (c *Coordinator) Reconcile(ev contract.Event) {
	if ev == nil {
		return
	}

	switch e := ev.(type) {
	case *contract.GeneralPaymentEvent:
		c.txlog.Update(e.TxHash, func(rec *types.TransactionRecord) {
			if rec.Kind != types.KindGeneral {
				return
			}
			decimals := recordDecimals(rec)
			rec.Amount = utils.FromBaseUnits(e.Amount, decimals)
			rec.Fee = utils.FromBaseUnits(e.Fee, decimals)
		})
	case *contract.BillPaymentEvent:
		c.txlog.Update(e.TxHash, func(rec *types.TransactionRecord) {
			if rec.Kind != types.KindBill {
				return
			}
			decimals := recordDecimals(rec)
			rec.Amount = utils.FromBaseUnits(e.Amount, decimals)
			rec.BaseAmount = utils.FromBaseUnits(e.BaseAmount, decimals)
			rec.Fee = utils.FromBaseUnits(e.Fee, decimals)
		})
	case *contract.SettlementEvent:
		c.txlog.Update(e.TxHash, func(rec *types.TransactionRecord) {
			if rec.Kind != types.KindBill {
				return
			}
			rec.Status = types.StatusSettled
		})
	}
}

// recordDecimals resolves the precision the record's amount was submitted
// with, so event values convert back through the same table.
func recordDecimals(rec *types.TransactionRecord) int {
	if token, ok := types.LookupToken(rec.Token); ok {
		return token.Decimals
	}
	return 0
}

// startEventWatch subscribes to the binding's events and feeds the
// reconciler until the session is reset or the subscription ends.
func (c *Coordinator) startEventWatch(binding contract.Binding) {
	wctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if c.watchCancel != nil {
		c.watchCancel()
	}
	c.watchCancel = cancel
	c.mu.Unlock()

	events, err := binding.WatchEvents(wctx)
	if err != nil {
		c.log.Warn("event subscription failed", map[string]any{"error": err.Error()})
		cancel()
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for ev := range events {
			c.Reconcile(ev)
			c.metrics.IncCounter("event_reconciled", nil)
		}
	}()
}

// resetSession discards the session and the transaction log, equivalent to
// a full reload. A stale contract handle never survives a wallet change.
func (c *Coordinator) resetSession() {
	c.mu.Lock()
	if c.watchCancel != nil {
		c.watchCancel()
		c.watchCancel = nil
	}
	if c.session.Contract != nil {
		c.session.Contract.Close()
	}
	c.session = Session{}
	c.lastErr = ""
	c.mu.Unlock()

	c.txlog.Reset()
}

func (c *Coordinator) storeSession(s Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *Coordinator) currentSession() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Transactions returns the log in insertion order for read-only rendering.
func (c *Coordinator) Transactions() []types.TransactionRecord {
	return c.txlog.Snapshot()
}

// Status reports the session's connection state.
func (c *Coordinator) Status() types.ConnectionStatus {
	return c.currentSession().Status()
}

// LastError returns the most recent operation failure as a human-readable
// message; only the latest is retained.
func (c *Coordinator) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Coordinator) setLastError(err error) {
	c.mu.Lock()
	c.lastErr = err.Error()
	c.mu.Unlock()
	c.log.Error("operation failed", map[string]any{
		"code":  types.CodeOf(err),
		"error": err.Error(),
	})
}

// Close stops background work and releases the contract handle.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.changesCancel != nil {
		c.changesCancel()
		c.changesCancel = nil
	}
	if c.watchCancel != nil {
		c.watchCancel()
		c.watchCancel = nil
	}
	binding := c.session.Contract
	c.session = Session{}
	c.mu.Unlock()

	if binding != nil {
		binding.Close()
	}
	c.wg.Wait()
}
