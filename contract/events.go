package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Event is one of the three contract log shapes, tagged by concrete type.
// PaymentTxHash returns the transaction-hash field the reconciler matches
// records against.
type Event interface {
	PaymentTxHash() string
	isEvent()
}

// BillPaymentEvent mirrors the PaymentProcessed log: a mined bill payment
// with the final amount split into base amount and fee.
type BillPaymentEvent struct {
	Sender            common.Address
	Token             common.Address
	Amount            *big.Int
	BaseAmount        *big.Int
	Fee               *big.Int
	BillerDetailsHash [32]byte
	AmountInNgn       *big.Int
	TxHash            string
}

func (e *BillPaymentEvent) PaymentTxHash() string { return e.TxHash }
func (*BillPaymentEvent) isEvent()                {}

// GeneralPaymentEvent mirrors the GeneralPaymentProcessed log: a mined
// peer-to-peer transfer with the charged fee.
type GeneralPaymentEvent struct {
	Sender    common.Address
	Token     common.Address
	Amount    *big.Int
	Recipient common.Address
	Fee       *big.Int
	TxHash    string
}

func (e *GeneralPaymentEvent) PaymentTxHash() string { return e.TxHash }
func (*GeneralPaymentEvent) isEvent()                {}

// SettlementEvent mirrors the BillerSettled log: confirmation that the
// biller received the off-chain NGN settlement.
type SettlementEvent struct {
	Sender            common.Address
	TxHash            string
	BillerDetailsHash [32]byte
	AmountInNgn       *big.Int
}

func (e *SettlementEvent) PaymentTxHash() string { return e.TxHash }
func (*SettlementEvent) isEvent()                {}

// HashBillerDetails computes the keccak256 digest the contract emits as
// billerDetailsHash, so settlement events can be cross-checked against the
// submitted bundle.
func HashBillerDetails(bill BillTerms) common.Hash {
	return crypto.Keccak256Hash(
		[]byte(bill.BankName),
		[]byte(bill.AccountName),
		[]byte(bill.AccountNumber),
	)
}
