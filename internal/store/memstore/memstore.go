// Package memstore provides an in-memory implementation of [store.Store].
// It mirrors the PostgreSQL store's semantics — including the uniqueness
// violations on learner email, (learner, word) progress and (learner,
// achievement) grants — so tests and dev mode exercise the same error paths
// as production.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vocalis-app/vocalis/internal/content"
	"github.com/vocalis-app/vocalis/internal/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is an in-memory [store.Store]. Safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	learners map[string]*store.Learner // keyed by ID
	emails   map[string]string         // lowercased email -> learner ID
	levels   map[string]*content.Level
	levelIDs []string // insertion order for Levels
	progress map[string]map[string]store.ProgressRecord // learner ID -> word -> record
	scores   []store.ScoreSubmission
	grants   map[string]map[string]store.AchievementGrant // learner ID -> achievement ID -> grant

	// now is injectable for tests.
	now func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		learners: make(map[string]*store.Learner),
		emails:   make(map[string]string),
		levels:   make(map[string]*content.Level),
		progress: make(map[string]map[string]store.ProgressRecord),
		grants:   make(map[string]map[string]store.AchievementGrant),
		now:      time.Now,
	}
}

// SetClock overrides the time source used for record dates. Test helper.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Close implements [store.Store]. No-op for the in-memory store.
func (s *Store) Close() {}

// ── Learners ─────────────────────────────────────────────────────────────────

// CreateLearner implements [store.LearnerStore].
func (s *Store) CreateLearner(_ context.Context, learner *store.Learner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(learner.Email)
	if _, exists := s.emails[key]; exists {
		return store.ErrDuplicate
	}
	if learner.CreatedAt.IsZero() {
		learner.CreatedAt = s.now().UTC()
	}
	cp := *learner
	s.learners[learner.ID] = &cp
	s.emails[key] = learner.ID
	return nil
}

// LearnerByEmail implements [store.LearnerStore].
func (s *Store) LearnerByEmail(_ context.Context, email string) (*store.Learner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s.learners[id]
	return &cp, nil
}

// LearnerByID implements [store.LearnerStore].
func (s *Store) LearnerByID(_ context.Context, id string) (*store.Learner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.learners[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

// ── Levels ───────────────────────────────────────────────────────────────────

// Level implements [store.LevelStore].
func (s *Store) Level(_ context.Context, id string) (*content.Level, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.levels[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *l
	cp.Words = append([]content.Prompt(nil), l.Words...)
	return &cp, nil
}

// Levels implements [store.LevelStore]. Returns levels in insertion order.
func (s *Store) Levels(_ context.Context) ([]content.Level, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]content.Level, 0, len(s.levelIDs))
	for _, id := range s.levelIDs {
		l := s.levels[id]
		cp := *l
		cp.Words = append([]content.Prompt(nil), l.Words...)
		out = append(out, cp)
	}
	return out, nil
}

// UpsertLevel implements [store.LevelStore].
func (s *Store) UpsertLevel(_ context.Context, level *content.Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.levels[level.ID]; !exists {
		s.levelIDs = append(s.levelIDs, level.ID)
	}
	cp := *level
	cp.Words = append([]content.Prompt(nil), level.Words...)
	s.levels[level.ID] = &cp
	return nil
}

// ── Progress ─────────────────────────────────────────────────────────────────

// UpsertProgress implements [store.ProgressStore]. Last write wins on
// accuracy, mastered, level and date.
func (s *Store) UpsertProgress(_ context.Context, rec store.ProgressRecord) (store.ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Date.IsZero() {
		rec.Date = s.now().UTC()
	}
	byWord, ok := s.progress[rec.LearnerID]
	if !ok {
		byWord = make(map[string]store.ProgressRecord)
		s.progress[rec.LearnerID] = byWord
	}
	byWord[rec.Word] = rec
	return rec, nil
}

// ProgressByLearner implements [store.ProgressStore]. Newest first.
func (s *Store) ProgressByLearner(_ context.Context, learnerID string) ([]store.ProgressRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byWord := s.progress[learnerID]
	out := make([]store.ProgressRecord, 0, len(byWord))
	for _, rec := range byWord {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// UnmasteredWords implements [store.ProgressStore].
func (s *Store) UnmasteredWords(_ context.Context, learnerID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var words []string
	for _, rec := range s.progress[learnerID] {
		if !rec.Mastered {
			words = append(words, rec.Word)
		}
	}
	sort.Strings(words)
	return words, nil
}

// DeleteProgress implements [store.ProgressStore].
func (s *Store) DeleteProgress(_ context.Context, learnerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(len(s.progress[learnerID]))
	delete(s.progress, learnerID)
	return n, nil
}

// ── Scores ───────────────────────────────────────────────────────────────────

// InsertScore implements [store.ScoreStore].
func (s *Store) InsertScore(_ context.Context, sub *store.ScoreSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.Date.IsZero() {
		sub.Date = s.now().UTC()
	}
	s.scores = append(s.scores, *sub)
	return nil
}

// TopScores implements [store.ScoreStore].
func (s *Store) TopScores(_ context.Context, limit int) ([]store.RankedScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ranked := make([]store.RankedScore, 0, len(s.scores))
	for _, sub := range s.scores {
		rs := store.RankedScore{ScoreSubmission: sub}
		if l, ok := s.learners[sub.LearnerID]; ok {
			rs.LearnerName = l.Name
			rs.LearnerAvatar = l.Avatar
		}
		ranked = append(ranked, rs)
	}
	// Stable keeps storage order between equal scores.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// ── Achievements ─────────────────────────────────────────────────────────────

// InsertGrant implements [store.AchievementStore]. Returns
// [store.ErrDuplicate] when the grant is already held.
func (s *Store) InsertGrant(_ context.Context, learnerID, achievementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.grants[learnerID]
	if !ok {
		byID = make(map[string]store.AchievementGrant)
		s.grants[learnerID] = byID
	}
	if _, held := byID[achievementID]; held {
		return store.ErrDuplicate
	}
	byID[achievementID] = store.AchievementGrant{
		LearnerID:     learnerID,
		AchievementID: achievementID,
		Date:          s.now().UTC(),
	}
	return nil
}

// GrantsByLearner implements [store.AchievementStore]. Ordered by grant date.
func (s *Store) GrantsByLearner(_ context.Context, learnerID string) ([]store.AchievementGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.AchievementGrant, 0, len(s.grants[learnerID]))
	for _, g := range s.grants[learnerID] {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
