// Package http exposes the JSON API: spending summaries, budget overviews
// and suggestions, and receipt mutations. Every /api route requires a
// bearer token.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"focolare/internal/access"
	"focolare/internal/auth"
	"focolare/internal/core"
	"focolare/internal/events"
)

// SummaryService answers spending summary requests.
type SummaryService interface {
	CombinedSummary(ctx context.Context, userID string, requested []string, f core.ReceiptFilter) (core.Summary, error)
	InvalidateHousehold(householdID string)
}

// BudgetService answers budget overview and suggestion requests.
type BudgetService interface {
	Overview(ctx context.Context, userID, householdID string, asOf core.Date) ([]core.BudgetOverviewItem, error)
	Suggestions(ctx context.Context, userID, householdID string, asOf core.Date, months int) ([]core.Suggestion, error)
}

// ReceiptStore persists receipt mutations.
type ReceiptStore interface {
	CreateReceipt(ctx context.Context, rec core.Receipt) (core.Receipt, error)
	GetReceipt(ctx context.Context, id string) (core.Receipt, error)
	DeleteReceipt(ctx context.Context, id string) error
}

// Publisher emits mutation events for other processes. Nil disables
// publishing.
type Publisher interface {
	PublishMutation(ctx context.Context, msg *events.MutationMessage) error
}

type Server struct {
	http.Server

	jwt       *auth.JWTManager
	gate      *access.Gate
	summaries SummaryService
	budgets   BudgetService
	receipts  ReceiptStore
	publisher Publisher

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, jwt *auth.JWTManager, gate *access.Gate, summaries SummaryService, budgets BudgetService, receipts ReceiptStore, publisher Publisher) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		jwt:         jwt,
		gate:        gate,
		summaries:   summaries,
		budgets:     budgets,
		receipts:    receipts,
		publisher:   publisher,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/reports/summary", s.withMiddleware(s.handleSummary))
	mux.HandleFunc("GET /api/budgets/overview", s.withMiddleware(s.handleBudgetOverview))
	mux.HandleFunc("GET /api/budgets/suggestions", s.withMiddleware(s.handleBudgetSuggestions))
	mux.HandleFunc("POST /api/receipts", s.withMiddleware(s.handleCreateReceipt))
	mux.HandleFunc("DELETE /api/receipts/{id}", s.withMiddleware(s.handleDeleteReceipt))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
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

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
)

// UserID extracts the authenticated user id from the request context.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// withMiddleware chains security headers, rate limiting, request logging
// and bearer authentication in front of an API handler.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit mutations only; reads are served from cache anyway
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		userID, err := s.authenticate(r)
		if err != nil {
			slog.WarnContext(ctx, "Authentication failed", "error", err, "client_ip", clientIP)
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		ctx = context.WithValue(ctx, userIDKey, userID)
		r = r.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"user_id", userID)
	}
}

func (s *Server) authenticate(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", auth.ErrMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", auth.ErrInvalidToken
	}
	claims, err := s.jwt.Validate(parts[1])
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
