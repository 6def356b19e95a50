package achievement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vocalis-app/vocalis/internal/content"
	"github.com/vocalis-app/vocalis/internal/observe"
	"github.com/vocalis-app/vocalis/internal/progress"
	"github.com/vocalis-app/vocalis/internal/store"
)

// Storage is the persistence surface the evaluator reads and writes.
type Storage interface {
	store.ProgressStore
	store.LevelStore
	store.AchievementStore
}

// Evaluator runs the rule table against current persisted state. All counts
// are re-derived on every run rather than cached; catalogs are small and
// recomputing keeps the evaluator free of drift.
type Evaluator struct {
	storage Storage
	metrics *observe.Metrics
	now     func() time.Time
}

// EvaluatorOption is a functional option for configuring an [Evaluator].
type EvaluatorOption func(*Evaluator)

// WithMetrics overrides the metrics instance used for grant counters.
// Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) EvaluatorOption {
	return func(e *Evaluator) { e.metrics = m }
}

// NewEvaluator creates an Evaluator over storage.
func NewEvaluator(storage Storage, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{storage: storage, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e
}

// OnProgress evaluates the progress-triggered rules: mastery counts, streak
// and, when the change touched the picture round, round completion.
func (e *Evaluator) OnProgress(ctx context.Context, learnerID string, changed store.ProgressRecord) error {
	records, err := e.storage.ProgressByLearner(ctx, learnerID)
	if err != nil {
		return fmt.Errorf("achievement: load progress: %w", err)
	}

	mastered := 0
	for _, rec := range records {
		if rec.Mastered {
			mastered++
		}
	}

	var errs []error
	if mastered >= 1 {
		errs = append(errs, e.grant(ctx, learnerID, FirstMastery))
	}
	if mastered >= 10 {
		errs = append(errs, e.grant(ctx, learnerID, WordWizard))
	}
	if progress.Streak(records, e.now()) >= 3 {
		errs = append(errs, e.grant(ctx, learnerID, HeatingUp))
	}
	if changed.Level == content.PictureRoundID {
		errs = append(errs, e.checkPictureRound(ctx, learnerID, records))
	}
	return errors.Join(errs...)
}

// OnScore evaluates the score-triggered rules. Every submission comes from
// a Time-Attack round, so the first one alone satisfies the contender rule.
func (e *Evaluator) OnScore(ctx context.Context, learnerID string, score int) error {
	errs := []error{e.grant(ctx, learnerID, Contender)}
	if score >= 1000 {
		errs = append(errs, e.grant(ctx, learnerID, TimeAttackPro))
	}
	return errors.Join(errs...)
}

// checkPictureRound grants the completion achievement once every word of the
// picture round has a mastered record.
func (e *Evaluator) checkPictureRound(ctx context.Context, learnerID string, records []store.ProgressRecord) error {
	level, err := e.storage.Level(ctx, content.PictureRoundID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("achievement: load picture round: %w", err)
	}

	mastered := 0
	for _, rec := range records {
		if rec.Level == content.PictureRoundID && rec.Mastered {
			mastered++
		}
	}
	if mastered < len(level.Words) {
		return nil
	}
	return e.grant(ctx, learnerID, VisualLearner)
}

// grant inserts the grant row. A duplicate-key conflict means the learner
// already holds the achievement and is absorbed silently.
func (e *Evaluator) grant(ctx context.Context, learnerID, achievementID string) error {
	err := e.storage.InsertGrant(ctx, learnerID, achievementID)
	if errors.Is(err, store.ErrDuplicate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("achievement: grant %s: %w", achievementID, err)
	}
	e.metrics.RecordGrant(ctx, achievementID)
	slog.Info("achievement granted", "learner_id", learnerID, "achievement_id", achievementID)
	return nil
}
