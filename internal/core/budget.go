package core

import "math"

// BudgetStatus is a budget evaluated against actual category spending.
type BudgetStatus struct {
	Budget
	Spent      Money `json:"spent"`
	Remaining  Money `json:"remaining"`
	Percentage int   `json:"percentage"`
	Exceeded   bool  `json:"exceeded"`
}

// BudgetsSummary aggregates across all of a user's budgets.
type BudgetsSummary struct {
	TotalBudget       Money `json:"totalBudget"`
	TotalSpending     Money `json:"totalSpending"`
	OverallPercentage int   `json:"overallPercentage"`
}

// EvaluateBudget computes spent/remaining/percentage/exceeded for one
// budget given the expense category breakdown. Remaining may go negative;
// the percentage is clamped to 100 and a zero-amount budget evaluates to
// 0% rather than dividing by zero.
func EvaluateBudget(b Budget, breakdown []CategoryAmount) BudgetStatus {
	var spent int64
	for _, c := range breakdown {
		if c.Category == b.Category {
			spent = c.Amount.Cents
			break
		}
	}
	return BudgetStatus{
		Budget:     b,
		Spent:      Money{Cents: spent},
		Remaining:  Money{Cents: b.Amount.Cents - spent},
		Percentage: clampedPercent(spent, b.Amount.Cents),
		Exceeded:   spent > b.Amount.Cents,
	}
}

// EvaluateBudgets evaluates every budget against the same breakdown.
func EvaluateBudgets(budgets []Budget, breakdown []CategoryAmount) []BudgetStatus {
	statuses := make([]BudgetStatus, len(budgets))
	for i, b := range budgets {
		statuses[i] = EvaluateBudget(b, breakdown)
	}
	return statuses
}

// SummarizeBudgets computes the overall budget utilisation.
// totalSpending covers all expense transactions, not only the budgeted
// categories, matching the dashboard's headline number.
func SummarizeBudgets(budgets []Budget, totalSpending Money) BudgetsSummary {
	var total int64
	for _, b := range budgets {
		total += b.Amount.Cents
	}
	return BudgetsSummary{
		TotalBudget:       Money{Cents: total},
		TotalSpending:     totalSpending,
		OverallPercentage: clampedPercent(totalSpending.Cents, total),
	}
}

// clampedPercent rounds part/whole to an integer percentage, clamped to
// 100. A zero or negative whole is defined as 0%.
func clampedPercent(part, whole int64) int {
	p := percent(part, whole)
	if p > 100 {
		return 100
	}
	return p
}

// percent rounds part/whole to an integer percentage without clamping.
// A zero or negative whole is defined as 0%.
func percent(part, whole int64) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
