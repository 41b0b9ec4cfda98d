package types

import (
	"sort"
	"strings"
)

// Biller is a registered off-chain payee. The directory is static reference
// data: selecting a biller id pre-fills the settlement details of a bill
// payment, which the user may still override field by field.
type Biller struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	BankName      string `json:"bankName"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
}

var billerDirectory = map[string]Biller{
	"airtel": {
		ID:            "airtel",
		Name:          "Airtel",
		BankName:      "Access Bank",
		AccountName:   "Airtel Networks Limited",
		AccountNumber: "0690000031",
	},
	"billmycrypto": {
		ID:            "billmycrypto",
		Name:          "BillMyCrypto",
		BankName:      "Guaranty Trust Bank",
		AccountName:   "BillMyCrypto Services",
		AccountNumber: "0123456789",
	},
	"codeuplab": {
		ID:            "codeuplab",
		Name:          "CodeUpLab",
		BankName:      "Zenith Bank",
		AccountName:   "CodeUpLab Technologies",
		AccountNumber: "1014523367",
	},
	"wittyhub": {
		ID:            "wittyhub",
		Name:          "WittyHub",
		BankName:      "First Bank of Nigeria",
		AccountName:   "WittyHub Digital",
		AccountNumber: "2034871160",
	},
	"zoerd": {
		ID:            "zoerd",
		Name:          "ZOERD",
		BankName:      "United Bank for Africa",
		AccountName:   "ZOERD Ventures",
		AccountNumber: "2108834455",
	},
	"mtn": {
		ID:            "mtn",
		Name:          "MTN",
		BankName:      "Stanbic IBTC",
		AccountName:   "MTN Nigeria Communications",
		AccountNumber: "0021345500",
	},
}

// LookupBiller resolves a biller identifier to its settlement details.
func LookupBiller(id string) (Biller, bool) {
	b, ok := billerDirectory[strings.ToLower(strings.TrimSpace(id))]
	return b, ok
}

// Billers lists all registered billers, sorted by id.
func Billers() []Biller {
	out := make([]Biller, 0, len(billerDirectory))
	for _, b := range billerDirectory {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Details converts a directory entry to the settlement bundle used in a
// bill payment, with the sender name supplied by the payer.
func (b Biller) Details(senderName string) BillerDetails {
	return BillerDetails{
		BankName:      b.BankName,
		AccountName:   b.AccountName,
		AccountNumber: b.AccountNumber,
		SenderName:    senderName,
	}
}
