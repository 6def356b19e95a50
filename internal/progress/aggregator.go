// Package progress is the server-side aggregation layer over per-word
// mastery records: idempotent-by-overwrite upserts, day-streak computation,
// the themed progress summary and the personalised practice deck.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vocalis-app/vocalis/internal/content"
	"github.com/vocalis-app/vocalis/internal/store"
)

// Notifier is told about progress changes so achievement evaluation can run
// in the background. Implementations must not block.
type Notifier interface {
	ProgressChanged(learnerID string, rec store.ProgressRecord)
}

// Storage is the persistence surface the aggregator needs.
type Storage interface {
	store.ProgressStore
	store.LevelStore
}

// ThemeBucket is one theme's slice of the progress summary.
type ThemeBucket struct {
	ThemeID       string   `json:"themeId"`
	ThemeName     string   `json:"themeName"`
	Color         string   `json:"color"`
	Mastered      []string `json:"mastered"`
	PracticeLater []string `json:"practiceLater"`
}

// Overview is the full progress read for one learner.
type Overview struct {
	ThemedProgress []ThemeBucket          `json:"themedProgress"`
	Streak         int                    `json:"streak"`
	Records        []store.ProgressRecord `json:"progress"`
}

// Aggregator implements the progress operations on top of a [Storage].
// All methods are safe for concurrent use.
type Aggregator struct {
	storage  Storage
	notifier Notifier
	now      func() time.Time
}

// Option is a functional option for configuring an [Aggregator].
type Option func(*Aggregator)

// WithNotifier wires the achievement dispatcher (or any other observer)
// into progress changes.
func WithNotifier(n Notifier) Option {
	return func(a *Aggregator) { a.notifier = n }
}

// WithClock overrides the time source used for streak computation. Test
// helper.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// New creates an Aggregator over storage.
func New(storage Storage, opts ...Option) *Aggregator {
	a := &Aggregator{
		storage: storage,
		now:     time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Record upserts the attempt's progress record and notifies the achievement
// layer. Concurrent attempts at the same (learner, word) race last-write-
// wins, which is acceptable because each write is a superseding correction.
func (a *Aggregator) Record(ctx context.Context, learnerID string, word string, accuracy int, mastered bool, level string) (store.ProgressRecord, error) {
	rec, err := a.storage.UpsertProgress(ctx, store.ProgressRecord{
		LearnerID: learnerID,
		Word:      word,
		Accuracy:  accuracy,
		Mastered:  mastered,
		Level:     level,
	})
	if err != nil {
		return store.ProgressRecord{}, fmt.Errorf("progress: record attempt: %w", err)
	}

	if a.notifier != nil {
		a.notifier.ProgressChanged(learnerID, rec)
	}

	slog.Debug("attempt recorded",
		"learner_id", learnerID, "word", word,
		"accuracy", accuracy, "mastered", mastered, "level", level)
	return rec, nil
}

// Overview assembles the themed summary, streak and raw records for the
// learner. Time-Attack records and the legacy unthemed sentinel count
// toward the streak but are excluded from the themed buckets, since neither
// carries a stable level identity.
func (a *Aggregator) Overview(ctx context.Context, learnerID string) (*Overview, error) {
	records, err := a.storage.ProgressByLearner(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("progress: load records: %w", err)
	}

	levels, err := a.storage.Levels(ctx)
	if err != nil {
		return nil, fmt.Errorf("progress: load levels: %w", err)
	}

	return &Overview{
		ThemedProgress: bucketByTheme(records, levelInfoMap(levels)),
		Streak:         Streak(records, a.now()),
		Records:        records,
	}, nil
}

// Deck returns the flat list of currently unmastered words — the content
// pool for the all-themes review mode.
func (a *Aggregator) Deck(ctx context.Context, learnerID string) ([]string, error) {
	words, err := a.storage.UnmasteredWords(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("progress: practice deck: %w", err)
	}
	if words == nil {
		words = []string{}
	}
	return words, nil
}

// Clear deletes every progress record for the learner and reports the count.
func (a *Aggregator) Clear(ctx context.Context, learnerID string) (int64, error) {
	n, err := a.storage.DeleteProgress(ctx, learnerID)
	if err != nil {
		return 0, fmt.Errorf("progress: clear: %w", err)
	}
	slog.Info("progress cleared", "learner_id", learnerID, "deleted", n)
	return n, nil
}

// levelInfo is the display metadata attached to a theme bucket.
type levelInfo struct {
	name  string
	color string
}

// levelInfoMap indexes display metadata by level ID, including the synthetic
// practice-deck entry.
func levelInfoMap(levels []content.Level) map[string]levelInfo {
	info := make(map[string]levelInfo, len(levels)+1)
	for _, l := range levels {
		color := l.Color
		if color == "" {
			color = "#DDD"
		}
		info[l.ID] = levelInfo{name: l.Name, color: color}
	}
	info[content.PracticeDeckID] = levelInfo{name: "Personalized Practice", color: "#00c896"}
	return info
}

// bucketByTheme groups records by level, deduplicating words within each
// bucket. A word mastered anywhere in a bucket never appears in that
// bucket's practice-later list, even if an unmastered record arrives in a
// different order.
func bucketByTheme(records []store.ProgressRecord, info map[string]levelInfo) []ThemeBucket {
	type bucketState struct {
		bucket      *ThemeBucket
		masteredSet map[string]bool
		practiceSet map[string]bool
	}

	var order []string
	states := make(map[string]*bucketState)

	for _, rec := range records {
		if rec.Level == content.LegacyUnthemedID || rec.Level == content.TimeAttackID {
			continue
		}

		st, ok := states[rec.Level]
		if !ok {
			meta, known := info[rec.Level]
			if !known {
				meta = levelInfo{name: rec.Level, color: "#CCC"}
			}
			st = &bucketState{
				bucket: &ThemeBucket{
					ThemeID:       rec.Level,
					ThemeName:     meta.name,
					Color:         meta.color,
					Mastered:      []string{},
					PracticeLater: []string{},
				},
				masteredSet: make(map[string]bool),
				practiceSet: make(map[string]bool),
			}
			states[rec.Level] = st
			order = append(order, rec.Level)
		}

		if rec.Mastered {
			if !st.masteredSet[rec.Word] {
				st.masteredSet[rec.Word] = true
				st.bucket.Mastered = append(st.bucket.Mastered, rec.Word)
			}
		} else if !st.practiceSet[rec.Word] {
			st.practiceSet[rec.Word] = true
			st.bucket.PracticeLater = append(st.bucket.PracticeLater, rec.Word)
		}
	}

	buckets := make([]ThemeBucket, 0, len(order))
	for _, id := range order {
		st := states[id]
		// Mastery trumps practice-later within the bucket.
		if len(st.masteredSet) > 0 && len(st.bucket.PracticeLater) > 0 {
			kept := st.bucket.PracticeLater[:0]
			for _, w := range st.bucket.PracticeLater {
				if !st.masteredSet[w] {
					kept = append(kept, w)
				}
			}
			st.bucket.PracticeLater = kept
		}
		buckets = append(buckets, *st.bucket)
	}
	return buckets
}
