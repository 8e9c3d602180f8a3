package core

import (
	"sort"
	"strings"
)

const (
	FilterAll     = "all"
	FilterIncome  = "income"
	FilterExpense = "expense"
)

const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Filter holds the transaction list view parameters.
type Filter struct {
	Search string
	Type   string
	Sort   string
}

// FilteredTotals are re-derived from the filtered set, not the full list.
type FilteredTotals struct {
	TotalIncome   Money `json:"totalIncome"`
	TotalExpenses Money `json:"totalExpenses"`
	Net           Money `json:"net"`
}

// FilterTransactions applies type filtering, case-insensitive substring
// search over description and category, and a stable date sort. An empty
// search term matches everything; ties on date keep their original
// relative order. The input slice is not modified.
func FilterTransactions(txs []Transaction, f Filter) []Transaction {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	var out []Transaction
	for _, tx := range txs {
		if f.Type != "" && f.Type != FilterAll && string(tx.Type) != f.Type {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(tx.Description), search) &&
			!strings.Contains(strings.ToLower(tx.Category), search) {
			continue
		}
		out = append(out, tx)
	}

	if f.Sort == SortAsc {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Date.Before(out[j].Date.Time)
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Date.After(out[j].Date.Time)
		})
	}

	return out
}

// Totals sums income, expenses and net over a (typically filtered)
// transaction list.
func Totals(txs []Transaction) FilteredTotals {
	var t FilteredTotals
	for _, tx := range txs {
		if tx.Type == Income {
			t.TotalIncome.Cents += tx.Amount.Cents
		} else {
			t.TotalExpenses.Cents += tx.Amount.Cents
		}
	}
	t.Net.Cents = t.TotalIncome.Cents - t.TotalExpenses.Cents
	return t
}
