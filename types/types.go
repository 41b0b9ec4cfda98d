// Package types defines the shared data model for the billpay library:
// payment kinds, transaction records, configuration, and the error taxonomy.
package types

import (
	"errors"
	"math/big"
	"time"
)

// PaymentKind selects which contract entry point a submission targets.
type PaymentKind string

const (
	KindGeneral PaymentKind = "general"
	KindBill    PaymentKind = "bill"
)

func (k PaymentKind) Valid() bool {
	return k == KindGeneral || k == KindBill
}

func (k PaymentKind) String() string {
	return string(k)
}

// TxStatus is the client-side lifecycle state of a submitted payment.
type TxStatus string

const (
	StatusPending   TxStatus = "Pending"
	StatusCompleted TxStatus = "Completed"
	StatusSettled   TxStatus = "Settled"
)

// BillerDetails is the off-chain settlement bundle attached to a bill payment.
type BillerDetails struct {
	BankName      string `json:"bankName" validate:"required"`
	AccountName   string `json:"accountName" validate:"required"`
	AccountNumber string `json:"accountNumber" validate:"required"`
	SenderName    string `json:"senderName" validate:"required"`
}

// PaymentParams carries user input for one SubmitPayment call.
// Token and Amount are common to both kinds; Recipient applies to general
// payments, Biller and AmountInNgn to bill payments.
type PaymentParams struct {
	Token  string `json:"token" validate:"required"`
	Amount string `json:"amount" validate:"required"`

	Recipient string `json:"recipient,omitempty"`

	Biller      *BillerDetails `json:"biller,omitempty"`
	AmountInNgn string         `json:"amountInNgn,omitempty"`
}

// GeneralDetail holds the kind-specific fields of a general payment record.
type GeneralDetail struct {
	Recipient string `json:"recipient"`
}

// BillDetail holds the kind-specific fields of a bill payment record.
type BillDetail struct {
	Biller      BillerDetails `json:"biller"`
	AmountInNgn string        `json:"amountInNgn"`
}

// TransactionRecord tracks one user-submitted payment client-side.
// A record is created only after a transaction hash is obtained, keyed by
// that hash, appended in submission order, and never removed within a
// session. Event reconciliation mutates Amount/BaseAmount/Fee/Status in
// place; everything else is immutable after creation.
type TransactionRecord struct {
	TxHash          string      `json:"txHash"`
	Kind            PaymentKind `json:"kind"`
	Token           string      `json:"token"`
	RequestedAmount string      `json:"requestedAmount"`
	CreatedAt       time.Time   `json:"createdAt"`
	Status          TxStatus    `json:"status"`

	// Exactly one of General/Bill is set, matching Kind.
	General *GeneralDetail `json:"general,omitempty"`
	Bill    *BillDetail    `json:"bill,omitempty"`

	// Populated by completion events, in human-decimal units.
	Amount     string `json:"amount,omitempty"`
	BaseAmount string `json:"baseAmount,omitempty"`
	Fee        string `json:"fee,omitempty"`
}

// ExplorerURL returns the block-explorer page for this transaction.
func (r *TransactionRecord) ExplorerURL() string {
	return "https://polygonscan.com/tx/" + r.TxHash
}

// ConnectionStatus summarizes the session for the presentation layer.
type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	Account   string `json:"account,omitempty"`
	ChainID   string `json:"chainId,omitempty"`
	Contract  string `json:"contract,omitempty"`
}

// Config is the fixed, not-user-editable-at-runtime configuration.
type Config struct {
	// RPCURL is the JSON-RPC endpoint the wallet provider connects to.
	RPCURL string `json:"rpcUrl,omitempty"`

	// PrivateKeyHex is the hex-encoded signing key the RPC provider uses.
	PrivateKeyHex string `json:"-"`

	// RequiredChainID is the single chain the contract lives on.
	RequiredChainID *big.Int `json:"requiredChainId,omitempty"`

	// ContractAddress is the deployed bill-payment contract.
	ContractAddress string `json:"contractAddress,omitempty"`

	// DefaultTimeout bounds individual wallet/contract interactions other
	// than waiting for mining, which is bounded only by the caller's context.
	DefaultTimeout time.Duration `json:"defaultTimeout,omitempty"`

	LogLevel      string `json:"logLevel,omitempty"`
	EnableMetrics bool   `json:"enableMetrics,omitempty"`
}

// PolygonChainID is the required chain for the deployed contract.
var PolygonChainID = big.NewInt(137)

// DefaultContractAddress is the deployed Polygon mainnet contract.
const DefaultContractAddress = "0x0AC8de200BD16D465f409A62bAFaA3Bc2c22B8E7"

// ApplyDefaults fills zero-valued fields with the fixed deployment values.
func (c *Config) ApplyDefaults() {
	if c.RequiredChainID == nil {
		c.RequiredChainID = new(big.Int).Set(PolygonChainID)
	}
	if c.ContractAddress == "" {
		c.ContractAddress = DefaultContractAddress
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = 30 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// BillPayError is the error type surfaced by connect and submit operations.
type BillPayError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *BillPayError) Error() string {
	return e.Message
}

func (e *BillPayError) Unwrap() error {
	return e.Err
}

// Error codes, one per failure condition in the operation contracts.
const (
	ErrProviderUnavailable = "PROVIDER_UNAVAILABLE"
	ErrUserRejected        = "USER_REJECTED"
	ErrWrongNetwork        = "WRONG_NETWORK"
	ErrInvalidInput        = "INVALID_INPUT"
	ErrSessionNotReady     = "SESSION_NOT_READY"
	ErrUnsupportedToken    = "UNSUPPORTED_TOKEN"
	ErrApprovalFailed      = "APPROVAL_FAILED"
	ErrTransactionRejected = "TRANSACTION_REJECTED"
	ErrTransactionReverted = "TRANSACTION_REVERTED"
)

// NewError builds a BillPayError with an optional wrapped cause.
func NewError(code, message string, cause error) *BillPayError {
	return &BillPayError{Code: code, Message: message, Err: cause}
}

// CodeOf extracts the billpay error code from err, or "" when err carries
// no code.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var be *BillPayError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
