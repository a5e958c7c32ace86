package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AccountBalance is the net of inflows minus outflows for one account.
type AccountBalance struct {
	Account string
	Balance decimal.Decimal
}

// Summary is the overall position of the ledger.
type Summary struct {
	Inflow    decimal.Decimal
	Outflow   decimal.Decimal
	Balance   decimal.Decimal
	ByAccount []AccountBalance // sorted by account name
}

// SortedBalances flattens a per-account map into a name-ordered slice.
func SortedBalances(m map[string]decimal.Decimal) []AccountBalance {
	out := make([]AccountBalance, 0, len(m))
	for name, bal := range m {
		out = append(out, AccountBalance{Account: name, Balance: bal})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out
}
