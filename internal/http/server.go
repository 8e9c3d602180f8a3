// Package http exposes the JSON API for the dashboard frontend.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"budgetbuddy/internal/auth"
	"budgetbuddy/internal/insights"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/storage"
)

const sessionCookie = "budgetbuddy_session"

// AlertPublisher pushes budget alert events to the worker queue.
// Satisfied by amqp.Client; nil disables publishing.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, transactionID, userID, category string) error
}

type Server struct {
	http.Server
	store        storage.Store
	auth         *auth.Service
	insights     *insights.Service
	alerts       AlertPublisher
	sessionTTL   time.Duration
	rateLimiter  *rateLimiter
	logger       *log.Logger
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store storage.Store, authSvc *auth.Service, insightSvc *insights.Service, alerts AlertPublisher, sessionTTL time.Duration, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:       store,
		auth:        authSvc,
		insights:    insightSvc,
		alerts:      alerts,
		sessionTTL:  sessionTTL,
		rateLimiter: newRateLimiter(),
		logger:      logger.WithComponent(log.ComponentHTTP),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/auth/register", s.with(s.handleRegister))
	mux.HandleFunc("POST /api/auth/login", s.with(s.handleLogin))
	mux.HandleFunc("POST /api/auth/logout", s.with(s.handleLogout))
	mux.HandleFunc("GET /api/auth/me", s.with(s.requireUser(s.handleMe)))

	mux.HandleFunc("GET /api/transactions", s.with(s.requireUser(s.handleListTransactions)))
	mux.HandleFunc("POST /api/transactions", s.with(s.requireUser(s.handleCreateTransaction)))
	mux.HandleFunc("GET /api/transactions/{id}", s.with(s.requireUser(s.handleGetTransaction)))
	mux.HandleFunc("PUT /api/transactions/{id}", s.with(s.requireUser(s.handleUpdateTransaction)))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.with(s.requireUser(s.handleDeleteTransaction)))

	mux.HandleFunc("GET /api/budgets", s.with(s.requireUser(s.handleListBudgets)))
	mux.HandleFunc("POST /api/budgets", s.with(s.requireUser(s.handleCreateBudget)))
	mux.HandleFunc("GET /api/budgets/summary", s.with(s.requireUser(s.handleBudgetsSummary)))
	mux.HandleFunc("PUT /api/budgets/{id}", s.with(s.requireUser(s.handleUpdateBudget)))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.with(s.requireUser(s.handleDeleteBudget)))

	mux.HandleFunc("GET /api/goals", s.with(s.requireUser(s.handleListGoals)))
	mux.HandleFunc("POST /api/goals", s.with(s.requireUser(s.handleCreateGoal)))
	mux.HandleFunc("GET /api/goals/summary", s.with(s.requireUser(s.handleGoalsSummary)))
	mux.HandleFunc("GET /api/goals/savings-target", s.with(s.requireUser(s.handleSavingsTarget)))
	mux.HandleFunc("PUT /api/goals/savings-target", s.with(s.requireUser(s.handleSetSavingsTarget)))
	mux.HandleFunc("PUT /api/goals/{id}", s.with(s.requireUser(s.handleUpdateGoal)))
	mux.HandleFunc("PUT /api/goals/{id}/progress", s.with(s.requireUser(s.handleGoalProgress)))
	mux.HandleFunc("DELETE /api/goals/{id}", s.with(s.requireUser(s.handleDeleteGoal)))

	mux.HandleFunc("GET /api/dashboard", s.with(s.requireUser(s.handleDashboard)))
	mux.HandleFunc("GET /api/insights", s.with(s.requireUser(s.handleInsights)))
	mux.HandleFunc("GET /api/notifications", s.with(s.requireUser(s.handleListNotifications)))

	mux.HandleFunc("GET /api/settings", s.with(s.requireUser(s.handleGetSettings)))
	mux.HandleFunc("PUT /api/settings/profile", s.with(s.requireUser(s.handleUpdateProfile)))
	mux.HandleFunc("PUT /api/settings/preferences", s.with(s.requireUser(s.handleUpdatePreferences)))

	return s
}

// Shutdown stops the server and its background cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// with adds security headers, rate limiting for mutations, a request ID
// and request logging.
func (s *Server) with(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := r.Context()

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "rate limit exceeded",
				log.FieldRequestID, requestID,
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
