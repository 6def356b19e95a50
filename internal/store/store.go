// Package store defines the persistence model and interfaces for Vocalis:
// learners, levels, per-word progress records, Time-Attack score submissions
// and achievement grants.
//
// Two implementations exist: a PostgreSQL store under store/postgres for
// production, and an in-memory store under store/memstore for tests and dev
// mode. Both honour the same uniqueness invariants — (learner, word) on
// progress and (learner, achievement) on grants — and surface violations as
// [ErrDuplicate], which callers use as the idempotence primitive instead of
// check-then-insert.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/vocalis-app/vocalis/internal/content"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
// For achievement grants this is the expected signal that the grant is
// already held and must be treated as success by the caller.
var ErrDuplicate = errors.New("store: duplicate key")

// Learner is a registered user of the application. Identity fields are fixed
// at signup; only the display name and avatar ever change.
type Learner struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Avatar       string    `json:"avatar"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ProgressRecord is the per-(learner, word) mastery state. There is exactly
// one per pair: a later attempt at the same word overwrites accuracy,
// mastered, level and date, even if it happened in a different level.
type ProgressRecord struct {
	LearnerID string    `json:"-"`
	Word      string    `json:"word"`
	Accuracy  int       `json:"accuracy"`
	Mastered  bool      `json:"mastered"`
	Level     string    `json:"level"`
	Date      time.Time `json:"date"`
}

// ScoreSubmission is one completed Time-Attack run. Append-only.
type ScoreSubmission struct {
	ID        string    `json:"id"`
	LearnerID string    `json:"-"`
	Score     int       `json:"score"`
	MaxCombo  int       `json:"maxCombo"`
	Date      time.Time `json:"date"`
}

// RankedScore is a score submission joined with the submitting learner's
// display identity, as served on the leaderboard.
type RankedScore struct {
	ScoreSubmission
	LearnerName   string `json:"name"`
	LearnerAvatar string `json:"avatar"`
}

// AchievementGrant records that a learner holds an achievement. One per
// (learner, achievement) pair, append-only.
type AchievementGrant struct {
	LearnerID     string    `json:"-"`
	AchievementID string    `json:"achievementId"`
	Date          time.Time `json:"date"`
}

// LearnerStore persists learner identities. CreateLearner returns
// [ErrDuplicate] when the email is already registered.
type LearnerStore interface {
	CreateLearner(ctx context.Context, learner *Learner) error
	LearnerByEmail(ctx context.Context, email string) (*Learner, error)
	LearnerByID(ctx context.Context, id string) (*Learner, error)
}

// LevelStore persists practice levels. Levels are written by content seeding
// and read by everything else.
type LevelStore interface {
	Level(ctx context.Context, id string) (*content.Level, error)
	Levels(ctx context.Context) ([]content.Level, error)
	UpsertLevel(ctx context.Context, level *content.Level) error
}

// ProgressStore persists per-word mastery records.
type ProgressStore interface {
	// UpsertProgress inserts or overwrites the record for
	// (rec.LearnerID, rec.Word) and returns the stored state.
	UpsertProgress(ctx context.Context, rec ProgressRecord) (ProgressRecord, error)

	// ProgressByLearner returns all records for a learner, newest first.
	ProgressByLearner(ctx context.Context, learnerID string) ([]ProgressRecord, error)

	// UnmasteredWords returns the words currently marked mastered=false.
	UnmasteredWords(ctx context.Context, learnerID string) ([]string, error)

	// DeleteProgress removes every record for the learner and reports how
	// many were deleted.
	DeleteProgress(ctx context.Context, learnerID string) (int64, error)
}

// ScoreStore persists Time-Attack score submissions.
type ScoreStore interface {
	InsertScore(ctx context.Context, sub *ScoreSubmission) error

	// TopScores returns up to limit submissions ordered by score descending,
	// joined with learner identity. Tie order between equal scores follows
	// storage order and is not guaranteed.
	TopScores(ctx context.Context, limit int) ([]RankedScore, error)
}

// AchievementStore persists achievement grants. InsertGrant returns
// [ErrDuplicate] when the learner already holds the achievement; callers
// treat that as success.
type AchievementStore interface {
	InsertGrant(ctx context.Context, learnerID, achievementID string) error
	GrantsByLearner(ctx context.Context, learnerID string) ([]AchievementGrant, error)
}

// Store is the full persistence surface of the application.
type Store interface {
	LearnerStore
	LevelStore
	ProgressStore
	ScoreStore
	AchievementStore

	Close()
}
