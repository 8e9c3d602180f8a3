package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
)

type transactionRequest struct {
	Type        core.TransactionType `json:"type"`
	Amount      core.Money           `json:"amount"`
	Category    string               `json:"category"`
	Description string               `json:"description"`
	Date        core.Date            `json:"date"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, user core.User) {
	txs, err := s.store.ListTransactions(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	filtered := core.FilterTransactions(txs, parseFilter(r))
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": emptyIfNil(filtered),
		"totals":       core.Totals(filtered),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx := core.Transaction{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Type:        req.Type,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
		CreatedAt:   time.Now().UTC(),
	}
	if err := tx.Validate(); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := s.store.CreateTransaction(r.Context(), tx); err != nil {
		writeServiceError(w, err)
		return
	}

	s.publishBudgetAlert(r.Context(), tx)
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	tx, err := s.store.GetTransaction(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx := core.Transaction{
		ID:          r.PathValue("id"),
		UserID:      user.ID,
		Type:        req.Type,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
	}
	if err := tx.Validate(); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := s.store.UpdateTransaction(r.Context(), tx); err != nil {
		writeServiceError(w, err)
		return
	}

	updated, err := s.store.GetTransaction(r.Context(), user.ID, tx.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.publishBudgetAlert(r.Context(), updated)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, user core.User) {
	if err := s.store.DeleteTransaction(r.Context(), user.ID, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// publishBudgetAlert queues a budget re-check after an expense changes.
// Publishing is best effort; the write already succeeded and the worker
// re-reads current spending anyway.
func (s *Server) publishBudgetAlert(ctx context.Context, tx core.Transaction) {
	if s.alerts == nil || tx.Type != core.Expense {
		return
	}
	if err := s.alerts.PublishBudgetAlert(ctx, tx.ID, tx.UserID, tx.Category); err != nil {
		s.logger.WarnContext(ctx, "failed to publish budget alert",
			log.FieldError, err,
			log.FieldUserID, tx.UserID,
			log.FieldCategory, tx.Category)
	}
}

// emptyIfNil keeps empty lists as [] instead of null in responses.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
