package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"budgetbuddy/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// --- users ---

func (s *SQLiteStore) CreateUser(ctx context.Context, u UserRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash,
			email_notifications, budget_alerts, savings_reminders, weekly_reports, security_alerts,
			created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash,
		u.Preferences.EmailNotifications, u.Preferences.BudgetAlerts, u.Preferences.SavingsReminders,
		u.Preferences.WeeklyReports, u.Preferences.SecurityAlerts,
		u.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (UserRecord, error) {
	return s.getUser(ctx, "email = ?", email)
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (UserRecord, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg any) (UserRecord, error) {
	var u UserRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash,
			email_notifications, budget_alerts, savings_reminders, weekly_reports, security_alerts,
			created_at
		FROM users WHERE `+where, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&u.Preferences.EmailNotifications, &u.Preferences.BudgetAlerts, &u.Preferences.SavingsReminders,
		&u.Preferences.WeeklyReports, &u.Preferences.SecurityAlerts,
		&u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return UserRecord{}, ErrNotFound
	}
	if err != nil {
		return UserRecord{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) UpdateUserProfile(ctx context.Context, id, name, email string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ? WHERE id = ?`, name, email, id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return ErrEmailTaken
		}
		return fmt.Errorf("update user profile: %w", err)
	}
	return checkAffected(res)
}

func (s *SQLiteStore) UpdateUserPreferences(ctx context.Context, id string, p core.Preferences) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET email_notifications = ?, budget_alerts = ?, savings_reminders = ?,
			weekly_reports = ?, security_alerts = ?
		WHERE id = ?`,
		p.EmailNotifications, p.BudgetAlerts, p.SavingsReminders, p.WeeklyReports, p.SecurityAlerts, id)
	if err != nil {
		return fmt.Errorf("update user preferences: %w", err)
	}
	return checkAffected(res)
}

// --- sessions ---

func (s *SQLiteStore) CreateSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		sess.Token, sess.UserID, sess.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, token string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at FROM sessions WHERE token = ?`, token).
		Scan(&sess.Token, &sess.UserID, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// --- transactions ---

func (s *SQLiteStore) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, amount_cents, category, description, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, string(t.Type), t.Amount.Cents, t.Category, t.Description, t.Date.String(), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, type, amount_cents, category, description, date, created_at
		FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, amount_cents, category, description, date, created_at
		FROM transactions WHERE user_id = ? ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET type = ?, amount_cents = ?, category = ?, description = ?, date = ?
		WHERE id = ? AND user_id = ?`,
		string(t.Type), t.Amount.Cents, t.Category, t.Description, t.Date.String(), t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return checkAffected(res)
}

func (s *SQLiteStore) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return checkAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		typ     string
		rawDate string
	)
	if err := row.Scan(&t.ID, &t.UserID, &typ, &t.Amount.Cents, &t.Category, &t.Description, &rawDate, &t.CreatedAt); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	d, err := core.ParseDate(rawDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", rawDate, err)
	}
	t.Date = d
	return t, nil
}

// --- budgets ---

func (s *SQLiteStore) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, category, amount_cents, period)
		VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Category, b.Amount.Cents, string(b.Period))
	if err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	var (
		b      core.Budget
		period string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, category, amount_cents, period
		FROM budgets WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&b.ID, &b.UserID, &b.Category, &b.Amount.Cents, &period)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	b.Period = core.Period(period)
	return b, nil
}

func (s *SQLiteStore) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, category, amount_cents, period
		FROM budgets WHERE user_id = ? ORDER BY category`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var (
			b      core.Budget
			period string
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &b.Amount.Cents, &period); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Period = core.Period(period)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE budgets SET category = ?, amount_cents = ?, period = ?
		WHERE id = ? AND user_id = ?`,
		b.Category, b.Amount.Cents, string(b.Period), b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return checkAffected(res)
}

func (s *SQLiteStore) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return checkAffected(res)
}

// --- goals ---

func (s *SQLiteStore) CreateGoal(ctx context.Context, g core.Goal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, name, target_cents, current_cents, target_date, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents,
		g.TargetDate.String(), g.Description, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, target_cents, current_cents, target_date, description, created_at
		FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (s *SQLiteStore) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, target_cents, current_cents, target_date, description, created_at
		FROM goals WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanGoal(row rowScanner) (core.Goal, error) {
	var (
		g       core.Goal
		rawDate string
	)
	if err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount.Cents, &g.CurrentAmount.Cents,
		&rawDate, &g.Description, &g.CreatedAt); err != nil {
		return core.Goal{}, err
	}
	d, err := core.ParseDate(rawDate)
	if err != nil {
		return core.Goal{}, fmt.Errorf("parse stored date %q: %w", rawDate, err)
	}
	g.TargetDate = d
	return g, nil
}

func (s *SQLiteStore) UpdateGoal(ctx context.Context, g core.Goal) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE goals SET name = ?, target_cents = ?, current_cents = ?, target_date = ?, description = ?
		WHERE id = ? AND user_id = ?`,
		g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.TargetDate.String(), g.Description,
		g.ID, g.UserID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return checkAffected(res)
}

func (s *SQLiteStore) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return checkAffected(res)
}

// --- insights ---

func (s *SQLiteStore) SaveInsight(ctx context.Context, rec core.InsightRecord) error {
	payload, err := json.Marshal(rec.Items)
	if err != nil {
		return fmt.Errorf("marshal insight payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO insights (id, user_id, payload, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.UserID, string(payload), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("save insight: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LatestInsight(ctx context.Context, userID string) (core.InsightRecord, error) {
	var (
		rec     core.InsightRecord
		payload string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, payload, created_at
		FROM insights WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, userID).
		Scan(&rec.ID, &rec.UserID, &payload, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.InsightRecord{}, ErrNotFound
	}
	if err != nil {
		return core.InsightRecord{}, fmt.Errorf("latest insight: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &rec.Items); err != nil {
		return core.InsightRecord{}, fmt.Errorf("unmarshal insight payload: %w", err)
	}
	return rec, nil
}

// --- notifications ---

func (s *SQLiteStore) CreateNotification(ctx context.Context, n core.Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, category, message, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Category, n.Message, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListNotifications(ctx context.Context, userID string) ([]core.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, category, message, created_at
		FROM notifications WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []core.Notification
	for rows.Next() {
		var n core.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Category, &n.Message, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
