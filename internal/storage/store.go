// Package storage persists users, sessions and financial records. Two
// implementations exist: SQLite for the binaries and an in-memory store
// for tests.
package storage

import (
	"context"
	"errors"
	"time"

	"budgetbuddy/internal/core"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Session is an opaque login token with its expiry. The token itself is
// the primary key; it never leaves the server except via the session
// cookie.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// UserRecord pairs a user with their password hash. The hash stays
// inside the storage and auth layers.
type UserRecord struct {
	core.User
	PasswordHash string
}

type Store interface {
	// Users
	CreateUser(ctx context.Context, u UserRecord) error
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	GetUserByID(ctx context.Context, id string) (UserRecord, error)
	UpdateUserProfile(ctx context.Context, id, name, email string) error
	UpdateUserPreferences(ctx context.Context, id string, p core.Preferences) error

	// Sessions
	CreateSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, token string) (Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// Transactions
	CreateTransaction(ctx context.Context, t core.Transaction) error
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error

	// Budgets
	CreateBudget(ctx context.Context, b core.Budget) error
	GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
	ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, userID, id string) error

	// Goals
	CreateGoal(ctx context.Context, g core.Goal) error
	GetGoal(ctx context.Context, userID, id string) (core.Goal, error)
	ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
	UpdateGoal(ctx context.Context, g core.Goal) error
	DeleteGoal(ctx context.Context, userID, id string) error

	// Insights
	SaveInsight(ctx context.Context, rec core.InsightRecord) error
	LatestInsight(ctx context.Context, userID string) (core.InsightRecord, error)

	// Notifications
	CreateNotification(ctx context.Context, n core.Notification) error
	ListNotifications(ctx context.Context, userID string) ([]core.Notification, error)

	Close() error
}
