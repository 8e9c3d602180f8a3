package http

import (
	"net/http"

	"github.com/google/uuid"

	"budgetbuddy/internal/core"
)

type budgetRequest struct {
	Category string      `json:"category"`
	Amount   core.Money  `json:"amount"`
	Period   core.Period `json:"period"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, user core.User) {
	statuses, _, err := s.budgetStatuses(r, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": emptyIfNil(statuses)})
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	budget := core.Budget{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		Category: req.Category,
		Amount:   req.Amount,
		Period:   req.Period,
	}
	if err := budget.Validate(); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := s.store.CreateBudget(r.Context(), budget); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, budget)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	budget := core.Budget{
		ID:       r.PathValue("id"),
		UserID:   user.ID,
		Category: req.Category,
		Amount:   req.Amount,
		Period:   req.Period,
	}
	if err := budget.Validate(); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := s.store.UpdateBudget(r.Context(), budget); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	if err := s.store.DeleteBudget(r.Context(), user.ID, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetsSummary(w http.ResponseWriter, r *http.Request, user core.User) {
	statuses, summary, err := s.budgetStatuses(r, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	budgets := make([]core.Budget, len(statuses))
	for i, st := range statuses {
		budgets[i] = st.Budget
	}
	writeJSON(w, http.StatusOK, core.SummarizeBudgets(budgets, summary.TotalExpenses))
}

// budgetStatuses evaluates every budget against the user's current
// spending breakdown.
func (s *Server) budgetStatuses(r *http.Request, userID string) ([]core.BudgetStatus, core.Summary, error) {
	ctx := r.Context()

	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, core.Summary{}, err
	}
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, core.Summary{}, err
	}

	summary := core.Summarize(txs)
	return core.EvaluateBudgets(budgets, summary.CategoryBreakdown), summary, nil
}
