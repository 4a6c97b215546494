// Package api provides the REST API server for NewsPulse.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/RobinCoderZhao/newspulse/internal/metrics"
	"github.com/RobinCoderZhao/newspulse/internal/news"
	"github.com/RobinCoderZhao/newspulse/internal/qa"
	"github.com/RobinCoderZhao/newspulse/internal/store"
	"github.com/RobinCoderZhao/newspulse/internal/timeline"
)

// Headlines serves top headlines and search results.
type Headlines interface {
	GetOrFetch(ctx context.Context, query string) []news.Item
}

// Aggregator merges every source for a topic.
type Aggregator interface {
	AggregateTopic(ctx context.Context, topic string) ([]news.Item, error)
}

// Synthesizer turns items into a timeline.
type Synthesizer interface {
	Synthesize(ctx context.Context, topic string, items []news.Item) (timeline.Result, error)
}

// Assistant answers chat questions.
type Assistant interface {
	Ask(ctx context.Context, sessionID, email, question string) (qa.Answer, error)
}

// Store is the persistence the API needs.
type Store interface {
	CreateUser(ctx context.Context, email, name, passwordHash string) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	UpdatePreferences(ctx context.Context, email string, prefs []string) (bool, error)
	ChatHistory(ctx context.Context, email, sessionID string) ([]store.ChatEntry, error)
	LogSearch(ctx context.Context, email, query string) error
	SearchHistory(ctx context.Context, email string, limit int) ([]store.SearchLog, error)
	SaveArticle(ctx context.Context, email string, a store.SavedArticle) (int64, error)
	SavedArticles(ctx context.Context, email string) ([]store.SavedArticle, error)
	DeleteSavedArticle(ctx context.Context, email string, id int64) (bool, error)
	LatestDigest(ctx context.Context, email string) (*store.Digest, error)
}

// Deps are the components behind the API. Store may be nil, in which case
// account routes answer 503.
type Deps struct {
	Headlines   Headlines
	Aggregator  Aggregator
	Synthesizer Synthesizer
	Assistant   Assistant
	Store       Store
}

// Server holds the dependencies for the API.
type Server struct {
	Deps
	jwtSecret      []byte
	tokenTTL       time.Duration
	allowedOrigins []string
	logger         *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithTokenTTL sets how long issued tokens stay valid.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// WithAllowedOrigins sets the CORS origins. "*" allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new API Server instance.
func NewServer(deps Deps, jwtSecret string, opts ...Option) *Server {
	s := &Server{
		Deps:           deps,
		jwtSecret:      []byte(jwtSecret),
		tokenTTL:       7 * 24 * time.Hour,
		allowedOrigins: []string{"http://localhost:3000"},
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the configured http.Handler for the API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth())
	mux.Handle("GET /metrics", metrics.Handler())

	// News (public; a token, when sent, attributes searches to the user)
	mux.HandleFunc("GET /api/news", s.handleNews())
	mux.HandleFunc("GET /api/aggregate", s.handleAggregate())
	mux.HandleFunc("GET /api/timeline", s.handleTimeline())
	mux.HandleFunc("POST /api/ask", s.handleAsk())
	mux.HandleFunc("GET /api/categories", s.handleCategories())

	// Auth
	mux.HandleFunc("POST /api/auth/register", s.handleRegister())
	mux.HandleFunc("POST /api/auth/login", s.handleLogin())

	// Account (JWT)
	mux.Handle("GET /api/users/me", s.requireAuth(s.handleGetMe()))
	mux.Handle("PUT /api/preferences", s.requireAuth(s.handleUpdatePreferences()))
	mux.Handle("POST /api/onboarding", s.requireAuth(s.handleOnboarding()))
	mux.Handle("GET /api/history", s.requireAuth(s.handleHistory()))
	mux.Handle("GET /api/saved", s.requireAuth(s.handleListSaved()))
	mux.Handle("POST /api/saved", s.requireAuth(s.handleSaveArticle()))
	mux.Handle("DELETE /api/saved/{id}", s.requireAuth(s.handleDeleteSaved()))
	mux.Handle("GET /api/digest/latest", s.requireAuth(s.handleLatestDigest()))

	return s.cors(s.instrument(mux))
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// --- Helpers ---

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// storeReady answers 503 when no store is configured.
func (s *Server) storeReady(w http.ResponseWriter) bool {
	if s.Store == nil {
		respondError(w, http.StatusServiceUnavailable, "Storage is not configured")
		return false
	}
	return true
}
