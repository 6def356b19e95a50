// Package timeattack implements the competitive timed round: a fixed-length
// countdown during which the learner speaks randomly drawn words against a
// deterministically paced simulated opponent.
//
// The engine never sleeps or owns a timer — every call takes the caller's
// notion of now, so the round is fully deterministic under test and the
// transport layer decides how often to tick.
package timeattack

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/vocalis-app/vocalis/internal/content"
	"github.com/vocalis-app/vocalis/internal/scoring"
	"github.com/vocalis-app/vocalis/internal/session"
)

var (
	// ErrRoundOver is returned for submissions after the countdown expired.
	ErrRoundOver = errors.New("timeattack: round is over")

	// ErrAlreadyFinished is returned when a finished round is finished
	// again; the result of a round is emitted exactly once.
	ErrAlreadyFinished = errors.New("timeattack: result already emitted")

	// ErrEmptyPool is returned when the round has no words to draw from.
	ErrEmptyPool = errors.New("timeattack: word pool is empty")
)

// Defaults for a standard round.
const (
	DefaultDuration     = 60 * time.Second
	DefaultBasePoints   = 100
	DefaultComboBonus   = 10
	DefaultExtension    = 2 * time.Second
	DefaultOpponentRate = 15 // points per elapsed second
)

// Config parameterises a [Round].
type Config struct {
	// Duration is the initial countdown length. Default: 60s.
	Duration time.Duration

	// BasePoints is awarded for every correct answer before the combo
	// bonus. Default: 100.
	BasePoints int

	// ComboBonus is the per-combo-step bonus: a correct answer is worth
	// BasePoints + ComboBonus*newCombo. Default: 10.
	ComboBonus int

	// Extension is added to the remaining time on every correct answer.
	// Default: 2s.
	Extension time.Duration

	// OpponentRate is the simulated opponent's points per elapsed second.
	// The opponent is a fixed pacing function, never adaptive. Default: 15.
	OpponentRate int

	// Rand draws the next word. Defaults to the shared global source;
	// inject a seeded source in tests.
	Rand *rand.Rand
}

func (c *Config) applyDefaults() {
	if c.Duration <= 0 {
		c.Duration = DefaultDuration
	}
	if c.BasePoints == 0 {
		c.BasePoints = DefaultBasePoints
	}
	if c.ComboBonus == 0 {
		c.ComboBonus = DefaultComboBonus
	}
	if c.Extension == 0 {
		c.Extension = DefaultExtension
	}
	if c.OpponentRate == 0 {
		c.OpponentRate = DefaultOpponentRate
	}
}

// AttemptResult describes one answer inside a round.
type AttemptResult struct {
	Word     string `json:"word"`
	Score    int    `json:"score"`
	Correct  bool   `json:"correct"`
	Combo    int    `json:"combo"`
	Points   int    `json:"points"`
	Total    int    `json:"total"`
	Opponent int    `json:"opponent"`

	// Remaining is the countdown left after any extension.
	Remaining        time.Duration `json:"-"`
	RemainingSeconds float64       `json:"remainingSeconds"`

	// Next is the freshly drawn word to present.
	Next string `json:"next"`
}

// Result is the final state of a round, emitted exactly once.
type Result struct {
	Score    int  `json:"score"`
	MaxCombo int  `json:"maxCombo"`
	Opponent int  `json:"opponent"`
	Won      bool `json:"won"`
}

// Round is one Time-Attack run. Words are drawn independently and uniformly
// at random, with replacement, from the configured pool — the round has no
// stable level identity, so attempts are recorded under the Time-Attack
// sentinel and stay out of the themed progress view.
//
// Safe for concurrent use, though a single client drives it in practice.
type Round struct {
	mu sync.Mutex

	cfg      Config
	pool     []string
	recorder session.Recorder

	startedAt time.Time
	deadline  time.Time
	current   string
	score     int
	combo     int
	maxCombo  int
	finished  bool
}

// NewRound creates a round over the given word pool. The recorder receives
// every scored attempt (mastery persistence applies in this mode too) and
// may be nil.
func NewRound(pool []string, recorder session.Recorder, cfg Config) (*Round, error) {
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}
	cfg.applyDefaults()
	return &Round{
		cfg:      cfg,
		pool:     append([]string(nil), pool...),
		recorder: recorder,
	}, nil
}

// Start begins the countdown at now and returns the first word.
func (r *Round) Start(now time.Time) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.startedAt = now
	r.deadline = now.Add(r.cfg.Duration)
	r.current = r.draw()
	return r.current
}

// Current returns the word the learner should be speaking.
func (r *Round) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Remaining returns the countdown left at now. Never negative.
func (r *Round) Remaining(now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rem := r.deadline.Sub(now); rem > 0 {
		return rem
	}
	return 0
}

// Expired reports whether the countdown has reached zero at now.
func (r *Round) Expired(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !now.Before(r.deadline)
}

// Submit scores an answer for the current word at now. A correct answer
// (mastery threshold) grows the combo, awards combo-scaled points and
// extends the clock; an incorrect one resets the combo and changes neither
// score nor time. Either way the next word is drawn immediately — there is
// no hint escalation in this mode.
func (r *Round) Submit(ctx context.Context, transcript string, confidence float64, now time.Time) (AttemptResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finished || !now.Before(r.deadline) {
		return AttemptResult{}, ErrRoundOver
	}

	word := r.current
	score := scoring.Score(transcript, word, confidence)
	correct := score >= session.MasteryThreshold

	res := AttemptResult{
		Word:    word,
		Score:   score,
		Correct: correct,
	}

	if correct {
		r.combo++
		if r.combo > r.maxCombo {
			r.maxCombo = r.combo
		}
		res.Points = r.cfg.BasePoints + r.cfg.ComboBonus*r.combo
		r.score += res.Points
		r.deadline = r.deadline.Add(r.cfg.Extension)
	} else {
		r.combo = 0
	}

	r.current = r.draw()
	res.Combo = r.combo
	res.Total = r.score
	res.Opponent = r.opponentAt(now)
	res.Remaining = r.deadline.Sub(now)
	res.RemainingSeconds = res.Remaining.Seconds()
	res.Next = r.current

	r.recordLocked(ctx, word, score, correct)

	return res, nil
}

// Finish ends the round at now and emits the final result. Calling Finish a
// second time returns [ErrAlreadyFinished] so the score submission happens
// exactly once.
func (r *Round) Finish(now time.Time) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finished {
		return Result{}, ErrAlreadyFinished
	}
	r.finished = true

	opponent := r.opponentAt(now)
	return Result{
		Score:    r.score,
		MaxCombo: r.maxCombo,
		Opponent: opponent,
		Won:      r.score > opponent,
	}, nil
}

// Abandon marks the round over without emitting a result. Used when the
// learner navigates away mid-round; no score is submitted.
func (r *Round) Abandon() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = true
}

// opponentAt computes the simulated opponent's score after the elapsed
// whole seconds at now. The opponent keeps accruing for as long as the
// round runs, extensions included.
func (r *Round) opponentAt(now time.Time) int {
	elapsed := now.Sub(r.startedAt)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed/time.Second) * r.cfg.OpponentRate
}

// draw picks the next word uniformly at random with replacement.
func (r *Round) draw() string {
	if r.cfg.Rand != nil {
		return r.pool[r.cfg.Rand.IntN(len(r.pool))]
	}
	return r.pool[rand.IntN(len(r.pool))]
}

// recordLocked forwards the attempt under the Time-Attack sentinel level.
func (r *Round) recordLocked(ctx context.Context, word string, score int, mastered bool) {
	if r.recorder == nil {
		return
	}
	att := session.Attempt{
		Word:     word,
		Accuracy: score,
		Mastered: mastered,
		Level:    content.TimeAttackID,
	}
	if err := r.recorder.RecordAttempt(ctx, att); err != nil {
		slog.Warn("time-attack attempt not recorded, round continues",
			"word", word, "err", err)
	}
}
