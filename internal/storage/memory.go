package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"budgetbuddy/internal/core"
)

// MemoryStore is an in-memory Store used by tests. All methods are safe
// for concurrent use.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]UserRecord
	sessions      map[string]Session
	transactions  map[string]core.Transaction
	budgets       map[string]core.Budget
	goals         map[string]core.Goal
	insights      map[string][]core.InsightRecord
	notifications map[string][]core.Notification
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]UserRecord),
		sessions:      make(map[string]Session),
		transactions:  make(map[string]core.Transaction),
		budgets:       make(map[string]core.Budget),
		goals:         make(map[string]core.Goal),
		insights:      make(map[string][]core.InsightRecord),
		notifications: make(map[string][]core.Notification),
	}
}

func (s *MemoryStore) Close() error { return nil }

// --- users ---

func (s *MemoryStore) CreateUser(_ context.Context, u UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrEmailTaken
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return UserRecord{}, ErrNotFound
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return UserRecord{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) UpdateUserProfile(_ context.Context, id, name, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	for otherID, other := range s.users {
		if otherID != id && strings.EqualFold(other.Email, email) {
			return ErrEmailTaken
		}
	}
	u.Name = name
	u.Email = email
	s.users[id] = u
	return nil
}

func (s *MemoryStore) UpdateUserPreferences(_ context.Context, id string, p core.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Preferences = p
	s.users[id] = u
	return nil
}

// --- sessions ---

func (s *MemoryStore) CreateSession(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, token string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *MemoryStore) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for token, sess := range s.sessions {
		if sess.ExpiresAt.Before(now) {
			delete(s.sessions, token)
			n++
		}
	}
	return n, nil
}

// --- transactions ---

func (s *MemoryStore) CreateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.ID] = t
	return nil
}

func (s *MemoryStore) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.transactions[t.ID]
	if !ok || existing.UserID != t.UserID {
		return ErrNotFound
	}
	t.CreatedAt = existing.CreatedAt
	s.transactions[t.ID] = t
	return nil
}

func (s *MemoryStore) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

// --- budgets ---

func (s *MemoryStore) CreateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[b.ID] = b
	return nil
}

func (s *MemoryStore) GetBudget(_ context.Context, userID, id string) (core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, ErrNotFound
	}
	return b, nil
}

func (s *MemoryStore) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (s *MemoryStore) UpdateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.budgets[b.ID]
	if !ok || existing.UserID != b.UserID {
		return ErrNotFound
	}
	s.budgets[b.ID] = b
	return nil
}

func (s *MemoryStore) DeleteBudget(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return ErrNotFound
	}
	delete(s.budgets, id)
	return nil
}

// --- goals ---

func (s *MemoryStore) CreateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[g.ID] = g
	return nil
}

func (s *MemoryStore) GetGoal(_ context.Context, userID, id string) (core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return core.Goal{}, ErrNotFound
	}
	return g, nil
}

func (s *MemoryStore) ListGoals(_ context.Context, userID string) ([]core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Goal
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) UpdateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.goals[g.ID]
	if !ok || existing.UserID != g.UserID {
		return ErrNotFound
	}
	g.CreatedAt = existing.CreatedAt
	s.goals[g.ID] = g
	return nil
}

func (s *MemoryStore) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return ErrNotFound
	}
	delete(s.goals, id)
	return nil
}

// --- insights ---

func (s *MemoryStore) SaveInsight(_ context.Context, rec core.InsightRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insights[rec.UserID] = append(s.insights[rec.UserID], rec)
	return nil
}

func (s *MemoryStore) LatestInsight(_ context.Context, userID string) (core.InsightRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.insights[userID]
	if len(recs) == 0 {
		return core.InsightRecord{}, ErrNotFound
	}
	latest := recs[0]
	for _, rec := range recs[1:] {
		if rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	return latest, nil
}

// --- notifications ---

func (s *MemoryStore) CreateNotification(_ context.Context, n core.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[n.UserID] = append(s.notifications[n.UserID], n)
	return nil
}

func (s *MemoryStore) ListNotifications(_ context.Context, userID string) ([]core.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Notification, len(s.notifications[userID]))
	copy(out, s.notifications[userID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
