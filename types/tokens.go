package types

import (
	"sort"
	"strings"
)

// TokenInfo describes one supported ERC-20 token on the required chain.
type TokenInfo struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
}

// Polygon mainnet token contracts.
var supportedTokens = map[string]TokenInfo{
	"USDC": {
		Symbol:   "USDC",
		Address:  "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
		Decimals: 6,
	},
	"DAI": {
		Symbol:   "DAI",
		Address:  "0x8f3Cf7ad23Cd3CaDbD9735AFf958023239c6A063",
		Decimals: 18,
	},
}

// LookupToken resolves a token symbol to its on-chain address and decimal
// precision. The lookup is case-insensitive on the symbol.
func LookupToken(symbol string) (TokenInfo, bool) {
	info, ok := supportedTokens[strings.ToUpper(strings.TrimSpace(symbol))]
	return info, ok
}

// SupportedTokens lists all supported tokens, sorted by symbol.
func SupportedTokens() []TokenInfo {
	out := make([]TokenInfo, 0, len(supportedTokens))
	for _, info := range supportedTokens {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
