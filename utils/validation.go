package utils

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"

	"github.com/billmycrypto/billpay/types"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidatePaymentParams checks that params carries everything the given
// payment kind requires. It performs no network interaction; a validation
// failure is reported as INVALID_INPUT before any wallet or contract call.
func ValidatePaymentParams(kind types.PaymentKind, params types.PaymentParams) error {
	if !kind.Valid() {
		return types.NewError(types.ErrInvalidInput,
			fmt.Sprintf("unknown payment kind %q", kind), nil)
	}

	if err := validate.Struct(&params); err != nil {
		return types.NewError(types.ErrInvalidInput,
			fmt.Sprintf("missing required fields: %v", err), err)
	}

	if _, err := ParseAmount(params.Amount); err != nil {
		return types.NewError(types.ErrInvalidInput, err.Error(), err)
	}

	switch kind {
	case types.KindGeneral:
		if params.Recipient == "" {
			return types.NewError(types.ErrInvalidInput,
				"recipient is required for general payments", nil)
		}
		if !common.IsHexAddress(params.Recipient) {
			return types.NewError(types.ErrInvalidInput,
				fmt.Sprintf("invalid recipient address %q", params.Recipient), nil)
		}
	case types.KindBill:
		if params.Biller == nil {
			return types.NewError(types.ErrInvalidInput,
				"biller details are required for bill payments", nil)
		}
		if err := validate.Struct(params.Biller); err != nil {
			return types.NewError(types.ErrInvalidInput,
				fmt.Sprintf("incomplete biller details: %v", err), err)
		}
		if params.AmountInNgn == "" {
			return types.NewError(types.ErrInvalidInput,
				"amountInNgn is required for bill payments", nil)
		}
		if _, err := ParseWholeUnits(params.AmountInNgn); err != nil {
			return types.NewError(types.ErrInvalidInput,
				fmt.Sprintf("invalid NGN amount: %v", err), err)
		}
	}

	return nil
}
