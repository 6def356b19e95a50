// Package leaderboard persists Time-Attack score submissions and serves the
// ranked top list.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vocalis-app/vocalis/internal/store"
)

// TopN is how many entries the ranked read returns.
const TopN = 10

// Notifier is told about accepted submissions so achievement evaluation can
// run in the background. Implementations must not block.
type Notifier interface {
	ScoreSubmitted(learnerID string, score int)
}

// Board wraps a [store.ScoreStore] with submission IDs and achievement
// notification.
type Board struct {
	scores   store.ScoreStore
	notifier Notifier
	now      func() time.Time
}

// Option is a functional option for configuring a [Board].
type Option func(*Board)

// WithNotifier wires the achievement dispatcher into score submissions.
func WithNotifier(n Notifier) Option {
	return func(b *Board) { b.notifier = n }
}

// WithClock overrides the submission timestamp source. Test helper.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// New creates a Board over scores.
func New(scores store.ScoreStore, opts ...Option) *Board {
	b := &Board{scores: scores, now: time.Now}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Submit records one finished round's score. Every call appends a new row;
// a learner holds as many entries as rounds they have finished.
func (b *Board) Submit(ctx context.Context, learnerID string, score, maxCombo int) (*store.ScoreSubmission, error) {
	sub := &store.ScoreSubmission{
		ID:        uuid.NewString(),
		LearnerID: learnerID,
		Score:     score,
		MaxCombo:  maxCombo,
		Date:      b.now(),
	}
	if err := b.scores.InsertScore(ctx, sub); err != nil {
		return nil, fmt.Errorf("leaderboard: submit: %w", err)
	}

	if b.notifier != nil {
		b.notifier.ScoreSubmitted(learnerID, score)
	}

	slog.Debug("score submitted", "learner_id", learnerID, "score", score, "max_combo", maxCombo)
	return sub, nil
}

// Top returns the highest scores in descending order, annotated with each
// submitter's display name and avatar. Equal scores order by insertion;
// either order between ties is acceptable.
func (b *Board) Top(ctx context.Context) ([]store.RankedScore, error) {
	ranked, err := b.scores.TopScores(ctx, TopN)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: top: %w", err)
	}
	if ranked == nil {
		ranked = []store.RankedScore{}
	}
	return ranked, nil
}
