// Package session implements the wallet/contract session and transaction
// lifecycle: connect, submit, event reconciliation, and change handling.
package session

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/billmycrypto/billpay/contract"
	"github.com/billmycrypto/billpay/types"
)

// Session is the current wallet/contract binding. Contract is non-nil only
// when an account is present and the chain matches the required chain; any
// mismatch forces it back to nil.
type Session struct {
	Account  common.Address
	ChainID  *big.Int
	Contract contract.Binding
}

// HasAccount reports whether the wallet granted an account.
func (s Session) HasAccount() bool {
	return s.Account != (common.Address{})
}

// Ready reports whether a usable contract handle is bound.
func (s Session) Ready() bool {
	return s.Contract != nil
}

// Status converts the session to its presentation-layer summary.
func (s Session) Status() types.ConnectionStatus {
	st := types.ConnectionStatus{Connected: s.Ready()}
	if s.HasAccount() {
		st.Account = s.Account.Hex()
	}
	if s.ChainID != nil {
		st.ChainID = s.ChainID.String()
	}
	if s.Contract != nil {
		st.Contract = s.Contract.Address().Hex()
	}
	return st
}
