// Package billpay coordinates wallet sessions and payment transactions for
// the BillMyCrypto contract on Polygon. It wraps account access, network
// validation, ERC-20 approvals, the two payment entry points, and the
// reconciliation of submitted transactions against contract events behind a
// single facade.
package billpay

import (
	"context"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"github.com/billmycrypto/billpay/contract"
	"github.com/billmycrypto/billpay/logger"
	"github.com/billmycrypto/billpay/session"
	"github.com/billmycrypto/billpay/types"
	"github.com/billmycrypto/billpay/wallet"
)

// BillPay is the main entry point. Construct it with New, call Connect to
// establish a session, then SubmitPayment for each transaction.
type BillPay struct {
	config      *types.Config
	coordinator *session.Coordinator
	provider    wallet.Provider
	ownProvider bool
}

// New creates a BillPay instance from the given configuration. Unset fields
// are filled with Polygon mainnet defaults, and BILLPAY_RPC_URL and
// BILLPAY_PRIVATE_KEY override the corresponding config values when set.
func New(ctx context.Context, config *types.Config, opts ...Option) (*BillPay, error) {
	if config == nil {
		config = &types.Config{}
	}
	config.ApplyDefaults()

	if v := os.Getenv("BILLPAY_RPC_URL"); v != "" {
		config.RPCURL = v
	}
	if v := os.Getenv("BILLPAY_PRIVATE_KEY"); v != "" {
		config.PrivateKeyHex = v
	}

	b := &BillPay{config: config}

	var settings options
	for _, opt := range opts {
		opt(&settings)
	}

	log := settings.logger
	if log == nil {
		if config.LogLevel == "" {
			log = logger.NoopLogger{}
		} else {
			log = logger.NewZapLogger(config.LogLevel)
		}
	}

	rec := settings.metrics
	if rec == nil {
		rec = defaultRecorder(config)
	}

	if settings.timeout > 0 {
		config.DefaultTimeout = settings.timeout
	}

	provider := settings.provider
	if provider == nil {
		if config.RPCURL == "" || config.PrivateKeyHex == "" {
			return nil, types.NewError(types.ErrProviderUnavailable,
				"no wallet provider configured", nil)
		}
		rpc, err := wallet.NewRPCProvider(ctx, config.RPCURL, config.PrivateKeyHex)
		if err != nil {
			return nil, types.NewError(types.ErrProviderUnavailable,
				"failed to create wallet provider", err)
		}
		provider = rpc
		b.ownProvider = true
	}
	b.provider = provider

	factory := settings.factory
	if factory == nil {
		if !common.IsHexAddress(config.ContractAddress) {
			return nil, types.NewError(types.ErrInvalidInput,
				"invalid contract address in configuration", nil)
		}
		factory = contract.NewEthFactory(common.HexToAddress(config.ContractAddress))
	}

	b.coordinator = session.NewCoordinator(provider, factory, config, log, rec)
	b.coordinator.Start(ctx)
	return b, nil
}

// NewWithDefaults creates a BillPay instance with default configuration;
// connection details come from the environment.
func NewWithDefaults(ctx context.Context, opts ...Option) (*BillPay, error) {
	return New(ctx, &types.Config{}, opts...)
}

// Connect establishes the wallet session and binds the payment contract.
func (b *BillPay) Connect(ctx context.Context) error {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	return b.coordinator.Connect(ctx)
}

// SubmitPayment runs one payment of the given kind end to end and returns
// the transaction hash once it has been mined.
func (b *BillPay) SubmitPayment(ctx context.Context, kind types.PaymentKind, params types.PaymentParams) (string, error) {
	return b.coordinator.SubmitPayment(ctx, kind, params)
}

// Transactions returns all transactions submitted in this session, in
// submission order.
func (b *BillPay) Transactions() []types.TransactionRecord {
	return b.coordinator.Transactions()
}

// Status reports the current connection state.
func (b *BillPay) Status() types.ConnectionStatus {
	return b.coordinator.Status()
}

// LastError returns the most recent operation failure message, if any.
func (b *BillPay) LastError() string {
	return b.coordinator.LastError()
}

// SupportedTokens lists the tokens accepted for payment.
func (b *BillPay) SupportedTokens() []types.TokenInfo {
	return types.SupportedTokens()
}

// Billers lists the bill recipients available for bill payments.
func (b *BillPay) Billers() []types.Biller {
	return types.Billers()
}

// Close tears down the session and releases the wallet provider if this
// instance created it.
func (b *BillPay) Close() {
	b.coordinator.Close()
	if b.ownProvider && b.provider != nil {
		b.provider.Close()
	}
}

func (b *BillPay) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.config.DefaultTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.config.DefaultTimeout)
}

// Version information
const Version = "1.0.0"
