package http

import (
	"net/http"
	"time"

	"budgetbuddy/internal/core"
)

const recentTransactionLimit = 5

// handleDashboard assembles the landing page payload in one request:
// totals and charts, budget statuses, the goals rollup, the featured
// savings goal and the most recent transactions.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, user core.User) {
	ctx := r.Context()

	txs, err := s.store.ListTransactions(ctx, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	budgets, err := s.store.ListBudgets(ctx, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	goals, err := s.store.ListGoals(ctx, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	summary := core.Summarize(txs)
	statuses := core.EvaluateBudgets(budgets, summary.CategoryBreakdown)

	recent := txs
	if len(recent) > recentTransactionLimit {
		recent = recent[:recentTransactionLimit]
	}

	payload := map[string]any{
		"summary":            summary,
		"budgets":            emptyIfNil(statuses),
		"goalsSummary":       core.SummarizeGoals(goals),
		"recentTransactions": emptyIfNil(recent),
	}
	if primary, ok := core.PrimaryGoal(goals); ok {
		payload["savingsGoal"] = goalView{Goal: primary, Progress: core.TrackGoal(primary, time.Now())}
	}

	writeJSON(w, http.StatusOK, payload)
}
