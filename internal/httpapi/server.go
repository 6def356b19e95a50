// Package httpapi exposes the Vocalis application over HTTP: account and
// progress endpoints, the leaderboard, speech checking, and a WebSocket
// gateway that drives guided practice sessions and Time-Attack rounds
// server-side.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vocalis-app/vocalis/internal/auth"
	"github.com/vocalis-app/vocalis/internal/health"
	"github.com/vocalis-app/vocalis/internal/leaderboard"
	"github.com/vocalis-app/vocalis/internal/observe"
	"github.com/vocalis-app/vocalis/internal/progress"
	"github.com/vocalis-app/vocalis/internal/session"
	"github.com/vocalis-app/vocalis/internal/store"
	"github.com/vocalis-app/vocalis/internal/timeattack"
	"github.com/vocalis-app/vocalis/pkg/speech"
)

const shutdownTimeout = 15 * time.Second

// Server wires the application services into an HTTP handler tree.
type Server struct {
	store      store.Store
	auth       *auth.Service
	progress   *progress.Aggregator
	board      *leaderboard.Board
	recognizer speech.Recognizer
	metrics    *observe.Metrics
	health     *health.Handler

	sessionOpts []session.Option
	roundCfg    timeattack.Config
}

// Option is a functional option for configuring a [Server].
type Option func(*Server)

// WithRecognizer enables server-side speech checking.
func WithRecognizer(r speech.Recognizer) Option {
	return func(s *Server) { s.recognizer = r }
}

// WithMetrics overrides the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithHealth installs readiness checks on /readyz.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithSessionOptions forwards options to every practice session the gateway
// creates.
func WithSessionOptions(opts ...session.Option) Option {
	return func(s *Server) { s.sessionOpts = opts }
}

// WithRoundConfig sets the Time-Attack round parameters used by the gateway.
func WithRoundConfig(cfg timeattack.Config) Option {
	return func(s *Server) { s.roundCfg = cfg }
}

// NewServer assembles a Server over the given services.
func NewServer(st store.Store, authSvc *auth.Service, agg *progress.Aggregator, board *leaderboard.Board, opts ...Option) *Server {
	s := &Server{
		store:    st,
		auth:     authSvc,
		progress: agg,
		board:    board,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.health == nil {
		s.health = health.New()
	}
	return s
}

// Handler builds the full route tree, wrapped in the observability
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Accounts.
	mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.requireAuth(s.handleLogout))

	// Content.
	mux.HandleFunc("GET /api/levels", s.handleLevels)
	mux.HandleFunc("GET /api/level/{id}", s.handleLevel)
	mux.HandleFunc("POST /api/check-speech", s.handleCheckSpeech)

	// Progress.
	mux.HandleFunc("GET /api/progress", s.requireAuth(s.handleProgressOverview))
	mux.HandleFunc("POST /api/progress", s.requireAuth(s.handleProgressRecord))
	mux.HandleFunc("DELETE /api/progress", s.requireAuth(s.handleProgressClear))
	mux.HandleFunc("GET /api/progress/practice", s.requireAuth(s.handlePracticeDeck))

	// Leaderboard and achievements.
	mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("POST /api/leaderboard", s.requireAuth(s.handleScoreSubmit))
	mux.HandleFunc("GET /api/achievements", s.requireAuth(s.handleAchievements))

	// Practice gateway.
	mux.HandleFunc("GET /api/practice/ws", s.requireAuth(s.handlePracticeSocket))

	// Operational endpoints.
	s.health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return observe.Middleware(s.metrics)(mux)
}

// Run serves the API on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}
