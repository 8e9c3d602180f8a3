package core

// CategoryAmount is one slice of the expense breakdown chart.
type CategoryAmount struct {
	Category string `json:"category"`
	Amount   Money  `json:"amount"`
}

// MonthlyPoint accumulates income and expenses for one calendar month,
// keyed by short month name.
type MonthlyPoint struct {
	Month    string `json:"month"`
	Income   Money  `json:"income"`
	Expenses Money  `json:"expenses"`
}

// QuarterlyPoint is a bucket of three consecutive monthly points.
type QuarterlyPoint struct {
	Quarter  string `json:"quarter"`
	Income   Money  `json:"income"`
	Expenses Money  `json:"expenses"`
}

// Summary is the aggregate view of a user's transaction history that the
// dashboard cards and charts render.
type Summary struct {
	TotalIncome       Money            `json:"totalIncome"`
	TotalExpenses     Money            `json:"totalExpenses"`
	CategoryBreakdown []CategoryAmount `json:"categoryBreakdown"`
	MonthlySeries     []MonthlyPoint   `json:"monthlySeries"`
	QuarterlySeries   []QuarterlyPoint `json:"quarterlySeries"`
}

var shortMonths = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Summarize computes totals, the expense-only category breakdown, and the
// monthly and quarterly series from a transaction list. Inputs are trusted
// to carry non-negative amounts; an empty list yields zero totals and
// empty series.
func Summarize(txs []Transaction) Summary {
	var s Summary

	categories := make(map[string]int64)
	var categoryOrder []string
	monthly := make(map[string]*MonthlyPoint)

	for _, tx := range txs {
		month := tx.Date.Format("Jan")
		if _, ok := monthly[month]; !ok {
			monthly[month] = &MonthlyPoint{Month: month}
		}

		switch tx.Type {
		case Income:
			s.TotalIncome.Cents += tx.Amount.Cents
			monthly[month].Income.Cents += tx.Amount.Cents
		default:
			// everything that is not income counts as an expense
			s.TotalExpenses.Cents += tx.Amount.Cents
			monthly[month].Expenses.Cents += tx.Amount.Cents
			if _, ok := categories[tx.Category]; !ok {
				categoryOrder = append(categoryOrder, tx.Category)
			}
			categories[tx.Category] += tx.Amount.Cents
		}
	}

	for _, cat := range categoryOrder {
		s.CategoryBreakdown = append(s.CategoryBreakdown, CategoryAmount{
			Category: cat,
			Amount:   Money{Cents: categories[cat]},
		})
	}

	// Months appear in calendar order, not first-seen order; only months
	// with at least one transaction are present.
	for _, name := range shortMonths {
		if p, ok := monthly[name]; ok {
			s.MonthlySeries = append(s.MonthlySeries, *p)
		}
	}

	s.QuarterlySeries = QuarterlySeries(s.MonthlySeries)
	return s
}

// QuarterlySeries partitions the monthly series into consecutive groups of
// three by list position and sums each group. The grouping is positional,
// not calendar-quarter based: with data only for Apr and May those two
// months land in Q1. All four buckets are always emitted; unoccupied ones
// stay at zero.
func QuarterlySeries(monthly []MonthlyPoint) []QuarterlyPoint {
	quarters := []QuarterlyPoint{
		{Quarter: "Q1"}, {Quarter: "Q2"}, {Quarter: "Q3"}, {Quarter: "Q4"},
	}
	for i, p := range monthly {
		q := i / 3
		if q >= len(quarters) {
			break
		}
		quarters[q].Income.Cents += p.Income.Cents
		quarters[q].Expenses.Cents += p.Expenses.Cents
	}
	return quarters
}

// CategorySpend returns the summed expense amount for one category, or
// zero when the category never appears. Matching is exact and
// case-sensitive.
func (s Summary) CategorySpend(category string) Money {
	for _, c := range s.CategoryBreakdown {
		if c.Category == category {
			return c.Amount
		}
	}
	return Money{}
}
