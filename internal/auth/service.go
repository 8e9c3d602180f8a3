// Package auth implements registration, login and session handling.
// Sessions are opaque random tokens persisted in storage, with a small
// LRU cache in front so every request does not hit the database.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"budgetbuddy/internal/cache"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/storage"
)

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmptyName          = errors.New("name cannot be empty")
)

type Service struct {
	store      storage.Store
	sessions   *cache.LRUCache[storage.Session]
	sessionTTL time.Duration
	logger     *log.Logger
}

func NewService(store storage.Store, sessionTTL time.Duration, cacheSize int, logger *log.Logger) *Service {
	return &Service{
		store:      store,
		sessions:   cache.NewLRUCache[storage.Session](cacheSize, sessionTTL),
		sessionTTL: sessionTTL,
		logger:     logger.WithComponent(log.ComponentAuth),
	}
}

// SessionCache exposes the session cache for cleanup registration.
func (s *Service) SessionCache() *cache.LRUCache[storage.Session] {
	return s.sessions
}

// Register creates a user with default preferences and logs them in.
// Returns the new user and a session token.
func (s *Service) Register(ctx context.Context, name, email, password string) (core.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return core.User{}, "", ErrEmptyName
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return core.User{}, "", ErrInvalidEmail
	}
	if len(password) < 8 {
		return core.User{}, "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	rec := storage.UserRecord{
		User: core.User{
			ID:          uuid.NewString(),
			Name:        name,
			Email:       email,
			Preferences: core.DefaultPreferences(),
			CreatedAt:   time.Now().UTC(),
		},
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(ctx, rec); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return core.User{}, "", ErrEmailTaken
		}
		return core.User{}, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.startSession(ctx, rec.ID)
	if err != nil {
		return core.User{}, "", err
	}

	s.logger.InfoContext(ctx, "user registered", log.FieldUserID, rec.ID)
	return rec.User, token, nil
}

// Login verifies credentials and starts a session. Lookup and compare
// failures collapse into the same error so the response does not reveal
// whether the email exists.
func (s *Service) Login(ctx context.Context, email, password string) (core.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	rec, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.User{}, "", ErrInvalidCredentials
		}
		return core.User{}, "", fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return core.User{}, "", ErrInvalidCredentials
	}

	token, err := s.startSession(ctx, rec.ID)
	if err != nil {
		return core.User{}, "", err
	}

	s.logger.InfoContext(ctx, "user logged in", log.FieldUserID, rec.ID)
	return rec.User, token, nil
}

// Logout removes the session from cache and storage. Unknown tokens are
// not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	s.sessions.Delete(token)
	if err := s.store.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CurrentUser resolves a session token to its user. Expired or unknown
// tokens yield ErrNotAuthenticated.
func (s *Service) CurrentUser(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, ErrNotAuthenticated
	}

	sess, ok := s.sessions.Get(token)
	if !ok {
		var err error
		sess, err = s.store.GetSession(ctx, token)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return core.User{}, ErrNotAuthenticated
			}
			return core.User{}, fmt.Errorf("lookup session: %w", err)
		}
		s.sessions.SetUntil(token, sess, sess.ExpiresAt)
	}

	if time.Now().After(sess.ExpiresAt) {
		s.sessions.Delete(token)
		return core.User{}, ErrNotAuthenticated
	}

	rec, err := s.store.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.User{}, ErrNotAuthenticated
		}
		return core.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return rec.User, nil
}

// UpdateProfile changes the user's name and email.
func (s *Service) UpdateProfile(ctx context.Context, userID, name, email string) (core.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return core.User{}, ErrEmptyName
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return core.User{}, ErrInvalidEmail
	}

	if err := s.store.UpdateUserProfile(ctx, userID, name, email); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return core.User{}, ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("update profile: %w", err)
	}

	rec, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return core.User{}, fmt.Errorf("reload user: %w", err)
	}
	return rec.User, nil
}

// UpdatePreferences replaces the user's notification toggles.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, p core.Preferences) error {
	if err := s.store.UpdateUserPreferences(ctx, userID, p); err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	return nil
}

func (s *Service) startSession(ctx context.Context, userID string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	sess := storage.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	s.sessions.SetUntil(token, sess, sess.ExpiresAt)
	return token, nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
