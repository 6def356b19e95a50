// Package auth handles learner accounts and bearer-token sessions.
// Passwords are stored as bcrypt hashes; session tokens are opaque random
// strings held server-side with a rolling TTL.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vocalis-app/vocalis/internal/store"
)

// DefaultAvatar is assigned at signup when the learner picks none.
const DefaultAvatar = "🦜"

// DefaultSessionTTL is how long a token stays valid without renewal.
const DefaultSessionTTL = 3 * time.Hour

var (
	// ErrAlreadyExists is returned by Signup for a taken email.
	ErrAlreadyExists = errors.New("auth: account already exists")
	// ErrInvalidCredentials covers both unknown email and wrong password,
	// so a caller cannot probe which emails are registered.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidToken is returned by Resolve for unknown or expired tokens.
	ErrInvalidToken = errors.New("auth: invalid or expired token")
)

// Session is an authenticated learner identity.
type Session struct {
	Token     string
	LearnerID string
	Name      string
	Avatar    string
	ExpiresAt time.Time
}

// Service implements signup, login and token resolution over a
// [store.LearnerStore]. Sessions live in memory and are safe for concurrent
// use.
type Service struct {
	learners store.LearnerStore
	ttl      time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option is a functional option for configuring a [Service].
type Option func(*Service)

// WithSessionTTL overrides the session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithClock overrides the time source. Test helper.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service over learners.
func NewService(learners store.LearnerStore, opts ...Option) *Service {
	s := &Service{
		learners: learners,
		ttl:      DefaultSessionTTL,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Signup registers a new learner and opens a session. The email's
// uniqueness is enforced by the store; a duplicate surfaces as
// [ErrAlreadyExists].
func (s *Service) Signup(ctx context.Context, name, email, password, avatar string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, errors.New("auth: name and email are required")
	}
	if len(password) < 6 {
		return nil, errors.New("auth: password must be at least 6 characters")
	}
	if avatar == "" {
		avatar = DefaultAvatar
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	learner := &store.Learner{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Avatar:       avatar,
	}
	err = s.learners.CreateLearner(ctx, learner)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, ErrAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("auth: create learner: %w", err)
	}

	slog.Info("learner signed up", "learner_id", learner.ID)
	return s.open(learner), nil
}

// Login authenticates by email and password and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	learner, err := s.learners.LearnerByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("auth: load learner: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(learner.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.open(learner), nil
}

// Resolve maps a bearer token to its session, renewing the TTL on use.
func (s *Service) Resolve(token string) (*Session, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	if now.After(sess.ExpiresAt) {
		delete(s.sessions, token)
		return nil, ErrInvalidToken
	}
	sess.ExpiresAt = now.Add(s.ttl)
	copied := *sess
	return &copied, nil
}

// Logout invalidates a token. Unknown tokens are a no-op.
func (s *Service) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Sweep drops expired sessions. Meant to be called periodically; see
// [Service.RunSweeper].
func (s *Service) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps expired sessions every interval until ctx is cancelled.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("expired sessions swept", "count", n)
			}
		}
	}
}

func (s *Service) open(learner *store.Learner) *Session {
	sess := &Session{
		Token:     newToken(),
		LearnerID: learner.ID,
		Name:      learner.Name,
		Avatar:    learner.Avatar,
		ExpiresAt: s.now().Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()

	copied := *sess
	return &copied
}

func newToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("auth: crypto/rand unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}
