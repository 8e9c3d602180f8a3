package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetbuddy/internal/core"
)

func TestMemoryStore_Users(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	u := UserRecord{
		User: core.User{
			ID:          "u1",
			Name:        "Alex",
			Email:       "alex@example.com",
			Preferences: core.DefaultPreferences(),
			CreatedAt:   time.Now(),
		},
		PasswordHash: "hash",
	}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	dup := u
	dup.ID = "u2"
	dup.Email = "ALEX@example.com"
	if err := s.CreateUser(ctx, dup); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("CreateUser(duplicate email) = %v, want ErrEmailTaken", err)
	}

	got, err := s.GetUserByEmail(ctx, "alex@example.com")
	if err != nil || got.ID != "u1" {
		t.Errorf("GetUserByEmail() = %v, %v", got.ID, err)
	}

	if err := s.UpdateUserProfile(ctx, "u1", "Alexis", "alexis@example.com"); err != nil {
		t.Fatalf("UpdateUserProfile() error = %v", err)
	}
	got, _ = s.GetUserByID(ctx, "u1")
	if got.Name != "Alexis" || got.Email != "alexis@example.com" {
		t.Errorf("profile after update = %s/%s", got.Name, got.Email)
	}

	prefs := got.Preferences
	prefs.WeeklyReports = true
	if err := s.UpdateUserPreferences(ctx, "u1", prefs); err != nil {
		t.Fatalf("UpdateUserPreferences() error = %v", err)
	}
	got, _ = s.GetUserByID(ctx, "u1")
	if !got.Preferences.WeeklyReports {
		t.Error("WeeklyReports not persisted")
	}

	if _, err := s.GetUserByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserByID(missing) = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_Sessions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	now := time.Now()
	live := Session{Token: "tok-live", UserID: "u1", ExpiresAt: now.Add(time.Hour)}
	stale := Session{Token: "tok-stale", UserID: "u1", ExpiresAt: now.Add(-time.Hour)}
	if err := s.CreateSession(ctx, live); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if err := s.CreateSession(ctx, stale); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	n, err := s.DeleteExpiredSessions(ctx, now)
	if err != nil || n != 1 {
		t.Errorf("DeleteExpiredSessions() = %d, %v, want 1, nil", n, err)
	}
	if _, err := s.GetSession(ctx, "tok-stale"); !errors.Is(err, ErrNotFound) {
		t.Errorf("stale session still present: %v", err)
	}
	if _, err := s.GetSession(ctx, "tok-live"); err != nil {
		t.Errorf("live session gone: %v", err)
	}

	if err := s.DeleteSession(ctx, "tok-live"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := s.GetSession(ctx, "tok-live"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted session still present: %v", err)
	}
}

func TestMemoryStore_Transactions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	t1 := core.Transaction{
		ID: "t1", UserID: "u1", Type: core.Expense,
		Amount: core.Money{Cents: 5000}, Category: "Food",
		Date: core.NewDate(2024, 3, 1), CreatedAt: time.Now(),
	}
	t2 := core.Transaction{
		ID: "t2", UserID: "u1", Type: core.Income,
		Amount: core.Money{Cents: 100000}, Category: "Salary",
		Date: core.NewDate(2024, 3, 10), CreatedAt: time.Now(),
	}
	other := core.Transaction{
		ID: "t3", UserID: "u2", Type: core.Expense,
		Amount: core.Money{Cents: 100}, Category: "Food",
		Date: core.NewDate(2024, 3, 5), CreatedAt: time.Now(),
	}
	for _, tx := range []core.Transaction{t1, t2, other} {
		if err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	list, err := s.ListTransactions(ctx, "u1")
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListTransactions() returned %d, want 2", len(list))
	}
	// newest first
	if list[0].ID != "t2" || list[1].ID != "t1" {
		t.Errorf("order = %s, %s, want t2, t1", list[0].ID, list[1].ID)
	}

	// a user cannot read another user's transaction
	if _, err := s.GetTransaction(ctx, "u1", "t3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user GetTransaction = %v, want ErrNotFound", err)
	}

	t1.Amount = core.Money{Cents: 6000}
	if err := s.UpdateTransaction(ctx, t1); err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	got, _ := s.GetTransaction(ctx, "u1", "t1")
	if got.Amount.Cents != 6000 {
		t.Errorf("amount after update = %d, want 6000", got.Amount.Cents)
	}

	if err := s.DeleteTransaction(ctx, "u2", "t1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user DeleteTransaction = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTransaction(ctx, "u1", "t1"); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if _, err := s.GetTransaction(ctx, "u1", "t1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted transaction still present: %v", err)
	}
}

func TestMemoryStore_GoalsOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	goals := []core.Goal{
		{ID: "g2", UserID: "u1", Name: "Car", TargetAmount: core.Money{Cents: 1}, TargetDate: core.NewDate(2025, 1, 1), CreatedAt: base.Add(time.Hour)},
		{ID: "g1", UserID: "u1", Name: "Fund", TargetAmount: core.Money{Cents: 1}, TargetDate: core.NewDate(2025, 1, 1), CreatedAt: base},
	}
	for _, g := range goals {
		if err := s.CreateGoal(ctx, g); err != nil {
			t.Fatalf("CreateGoal() error = %v", err)
		}
	}

	list, err := s.ListGoals(ctx, "u1")
	if err != nil {
		t.Fatalf("ListGoals() error = %v", err)
	}
	if list[0].ID != "g1" || list[1].ID != "g2" {
		t.Errorf("order = %s, %s, want g1, g2", list[0].ID, list[1].ID)
	}
}

func TestMemoryStore_Insights(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.LatestInsight(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestInsight(empty) = %v, want ErrNotFound", err)
	}

	old := core.InsightRecord{
		ID: "i1", UserID: "u1",
		Items:     []core.InsightItem{{Type: core.InsightAlert, Message: "old", Icon: "AlertCircle"}},
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	fresh := core.InsightRecord{
		ID: "i2", UserID: "u1",
		Items:     []core.InsightItem{{Type: core.InsightPositive, Message: "fresh", Icon: "TrendingUp"}},
		CreatedAt: time.Now(),
	}
	if err := s.SaveInsight(ctx, old); err != nil {
		t.Fatalf("SaveInsight() error = %v", err)
	}
	if err := s.SaveInsight(ctx, fresh); err != nil {
		t.Fatalf("SaveInsight() error = %v", err)
	}

	got, err := s.LatestInsight(ctx, "u1")
	if err != nil {
		t.Fatalf("LatestInsight() error = %v", err)
	}
	if got.ID != "i2" {
		t.Errorf("LatestInsight() = %s, want i2", got.ID)
	}
}
