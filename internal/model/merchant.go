package model

// merchantNames is the static merchant-code table used to resolve display
// names in query projections. Unknown codes resolve to "".
var merchantNames = map[string]string{
	"1": "Merchant One",
	"2": "Merchant Two",
	"3": "Merchant Three",
}

// MerchantName returns the display name for a merchant code, or "" when the
// code is not in the table.
func MerchantName(code string) string {
	return merchantNames[code]
}
