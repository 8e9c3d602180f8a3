// Package worker re-evaluates budgets when expenses change and records
// notifications for users who opted into budget alerts.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/storage"
)

// AlertWorker consumes budget alert events. Each event names a user and
// category; the worker re-reads current spending so stale or duplicate
// deliveries stay harmless.
type AlertWorker struct {
	store storage.Store
	now   func() time.Time
}

func NewAlertWorker(store storage.Store) *AlertWorker {
	return &AlertWorker{
		store: store,
		now:   time.Now,
	}
}

// HandleAlertMessage processes a single budget alert event.
func (w *AlertWorker) HandleAlertMessage(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	slog.InfoContext(ctx, "Processing budget alert message",
		"transaction_id", msg.TransactionID,
		"user_id", msg.UserID,
		"category", msg.Category)

	user, err := w.store.GetUserByID(ctx, msg.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// user deleted since the event was published; drop it
			slog.WarnContext(ctx, "User not found for budget alert", "user_id", msg.UserID)
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	if !user.Preferences.BudgetAlerts {
		slog.DebugContext(ctx, "Budget alerts disabled for user", "user_id", msg.UserID)
		return nil
	}

	status, found, err := w.evaluateCategory(ctx, msg.UserID, msg.Category)
	if err != nil {
		return err
	}
	if !found || !status.Exceeded {
		return nil
	}

	notification := core.Notification{
		ID:       uuid.NewString(),
		UserID:   msg.UserID,
		Category: msg.Category,
		Message: fmt.Sprintf("You have exceeded your %s budget: spent %s of %s.",
			status.Category, status.Spent, status.Amount),
		CreatedAt: w.now(),
	}
	if err := w.store.CreateNotification(ctx, notification); err != nil {
		return fmt.Errorf("record notification: %w", err)
	}

	slog.InfoContext(ctx, "Budget exceeded notification recorded",
		"user_id", msg.UserID,
		"category", msg.Category,
		"spent_cents", status.Spent.Cents,
		"budget_cents", status.Amount.Cents)

	return nil
}

// evaluateCategory computes the current status of the budget covering
// the given category. found is false when no budget covers it.
func (w *AlertWorker) evaluateCategory(ctx context.Context, userID, category string) (core.BudgetStatus, bool, error) {
	budgets, err := w.store.ListBudgets(ctx, userID)
	if err != nil {
		return core.BudgetStatus{}, false, fmt.Errorf("list budgets: %w", err)
	}

	var budget core.Budget
	found := false
	for _, b := range budgets {
		if b.Category == category {
			budget = b
			found = true
			break
		}
	}
	if !found {
		return core.BudgetStatus{}, false, nil
	}

	txs, err := w.store.ListTransactions(ctx, userID)
	if err != nil {
		return core.BudgetStatus{}, false, fmt.Errorf("list transactions: %w", err)
	}

	summary := core.Summarize(txs)
	return core.EvaluateBudget(budget, summary.CategoryBreakdown), true, nil
}
