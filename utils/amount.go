// Package utils provides amount conversion and input validation helpers.
package utils

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ParseAmount checks that an amount string is a valid, strictly positive
// decimal.
func ParseAmount(amount string) (decimal.Decimal, error) {
	if amount == "" {
		return decimal.Decimal{}, fmt.Errorf("amount cannot be empty")
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount format: %w", err)
	}

	if !dec.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("amount must be positive")
	}

	return dec, nil
}

// ToBaseUnits converts a human-decimal amount string to the token's
// smallest-unit integer representation. Precision beyond the token's
// decimals is rejected rather than silently truncated.
func ToBaseUnits(amount string, decimals int) (*big.Int, error) {
	dec, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}

	shifted := dec.Shift(int32(decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("amount %s exceeds %d decimal places", amount, decimals)
	}

	return shifted.BigInt(), nil
}

// FromBaseUnits converts a smallest-unit integer back to a human-decimal
// string using the token's precision.
func FromBaseUnits(value *big.Int, decimals int) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).String()
}

// ParseWholeUnits parses a whole-number amount (e.g. an NGN figure) with no
// fractional component.
func ParseWholeUnits(amount string) (*big.Int, error) {
	dec, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}
	if !dec.Equal(dec.Truncate(0)) {
		return nil, fmt.Errorf("amount %s must be a whole number", amount)
	}
	return dec.BigInt(), nil
}
