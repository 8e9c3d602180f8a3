// Package insights generates short AI observations about a user's
// finances, with a time-based cache so the model is asked at most once
// per window.
package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/storage"
)

const maxItems = 3

// Result is what the insights endpoint returns. Cached marks a reused
// record; Success is false when the fallback set had to stand in for
// the model.
type Result struct {
	Items       []core.InsightItem `json:"insights"`
	Cached      bool               `json:"cached"`
	Success     bool               `json:"success"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

type Service struct {
	store     storage.Store
	generator Generator
	ttl       time.Duration
	timeout   time.Duration
	logger    *log.Logger
	now       func() time.Time
}

// NewService builds the insight gate. generator may be nil when no API
// key is configured; every request then returns the fallback set.
func NewService(store storage.Store, generator Generator, ttl, timeout time.Duration, logger *log.Logger) *Service {
	return &Service{
		store:     store,
		generator: generator,
		ttl:       ttl,
		timeout:   timeout,
		logger:    logger.WithComponent(log.ComponentInsights),
		now:       time.Now,
	}
}

// Get returns insights for the user. A stored record younger than the
// TTL is reused without touching the model. Fresh generations are
// persisted; fallbacks are not, so the next request tries the model
// again.
func (s *Service) Get(ctx context.Context, userID string) (Result, error) {
	now := s.now()

	rec, err := s.store.LatestInsight(ctx, userID)
	if err == nil && now.Sub(rec.CreatedAt) < s.ttl {
		return Result{
			Items:       rec.Items,
			Cached:      true,
			Success:     true,
			GeneratedAt: rec.CreatedAt,
		}, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return Result{}, fmt.Errorf("load cached insights: %w", err)
	}

	items, genErr := s.generate(ctx, userID, now)
	if genErr != nil {
		s.logger.WarnContext(ctx, "insight generation failed, serving fallback",
			log.FieldUserID, userID, log.FieldError, genErr)
		return Result{
			Items:       fallbackInsights(),
			Cached:      false,
			Success:     false,
			GeneratedAt: now,
		}, nil
	}

	newRec := core.InsightRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Items:     items,
		CreatedAt: now,
	}
	if err := s.store.SaveInsight(ctx, newRec); err != nil {
		return Result{}, fmt.Errorf("persist insights: %w", err)
	}

	s.logger.InfoContext(ctx, "insights generated",
		log.FieldUserID, userID, log.FieldCount, len(items))
	return Result{
		Items:       items,
		Cached:      false,
		Success:     true,
		GeneratedAt: now,
	}, nil
}

func (s *Service) generate(ctx context.Context, userID string, now time.Time) ([]core.InsightItem, error) {
	if s.generator == nil {
		return nil, errors.New("no generator configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		txs     []core.Transaction
		budgets []core.Budget
		goals   []core.Goal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		txs, err = s.store.ListTransactions(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		budgets, err = s.store.ListBudgets(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		goals, err = s.store.ListGoals(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load financial data: %w", err)
	}

	prompt := buildPrompt(txs, budgets, goals, now)
	text, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	items, err := parseInsights(text)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func buildPrompt(txs []core.Transaction, budgets []core.Budget, goals []core.Goal, now time.Time) string {
	summary := core.Summarize(txs)
	statuses := core.EvaluateBudgets(budgets, summary.CategoryBreakdown)

	var b strings.Builder
	b.WriteString("You are a personal finance assistant. Analyze this financial snapshot and ")
	b.WriteString("respond with a JSON array of at most 3 objects, each shaped like ")
	b.WriteString(`{"type":"alert|positive|suggestion","message":"...","icon":"..."}. `)
	b.WriteString("Icons must be one of: AlertCircle, TrendingUp, TrendingDown, PieChart, Target, DollarSign. ")
	b.WriteString("Keep each message under 30 words. Respond with the JSON array only.\n\n")

	fmt.Fprintf(&b, "Transactions: %d (income %s, expenses %s)\n",
		len(txs), summary.TotalIncome, summary.TotalExpenses)

	if len(summary.CategoryBreakdown) > 0 {
		b.WriteString("Spending by category:\n")
		for _, c := range summary.CategoryBreakdown {
			fmt.Fprintf(&b, "- %s: %s\n", c.Category, c.Amount)
		}
	}

	if len(statuses) > 0 {
		b.WriteString("Budgets:\n")
		for _, st := range statuses {
			fmt.Fprintf(&b, "- %s: %s spent of %s (%d%%, exceeded=%v)\n",
				st.Category, st.Spent, st.Amount, st.Percentage, st.Exceeded)
		}
	}

	if len(goals) > 0 {
		b.WriteString("Savings goals:\n")
		for _, goal := range goals {
			progress := core.TrackGoal(goal, now)
			fmt.Fprintf(&b, "- %s: %s of %s (%d%%, %d days left)\n",
				goal.Name, goal.CurrentAmount, goal.TargetAmount,
				progress.Percentage, progress.DaysRemaining)
		}
	}

	return b.String()
}

// parseInsights extracts the first JSON array from the model output.
// Models often wrap the payload in prose or markdown fences, so the
// array is located by bracket scanning rather than parsed directly.
func parseInsights(text string) ([]core.InsightItem, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return nil, errors.New("no JSON array in model output")
	}

	var raw []core.InsightItem
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("decode insights: %w", err)
	}

	items := normalizeInsights(raw)
	if len(items) == 0 {
		return nil, errors.New("model output contained no usable insights")
	}
	return items, nil
}

// normalizeInsights discards empty messages, defaults unknown types and
// missing icons, and caps the list.
func normalizeInsights(raw []core.InsightItem) []core.InsightItem {
	var items []core.InsightItem
	for _, item := range raw {
		if strings.TrimSpace(item.Message) == "" {
			continue
		}
		if !item.Type.Valid() {
			item.Type = core.InsightSuggestion
		}
		if strings.TrimSpace(item.Icon) == "" {
			item.Icon = "AlertCircle"
		}
		items = append(items, item)
		if len(items) == maxItems {
			break
		}
	}
	return items
}

// fallbackInsights is the static set served when generation fails. It
// is never persisted.
func fallbackInsights() []core.InsightItem {
	return []core.InsightItem{
		{
			Type:    core.InsightSuggestion,
			Message: "Consider reviewing your budget allocations to optimize your savings.",
			Icon:    "PieChart",
		},
		{
			Type:    core.InsightAlert,
			Message: "Monitor your spending patterns to identify potential areas for improvement.",
			Icon:    "AlertCircle",
		},
		{
			Type:    core.InsightSuggestion,
			Message: "Setting financial goals can help you stay motivated and focused.",
			Icon:    "Target",
		},
	}
}
