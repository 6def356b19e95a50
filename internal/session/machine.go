// Package session implements the guided practice state machine that drives a
// learner through one level, one word at a time.
//
// The machine owns a single explicit state value — current word index, retry
// count, hint visibility — constructed fresh when a level is entered and
// fully replaced on every word transition. Exactly one word is in flight at
// any moment: a capture submitted while a prior one is still being evaluated
// is rejected rather than queued.
//
// Every scored attempt, pass or fail, is forwarded to the configured
// [Recorder] so mastery state is persisted even for failures. A recorder
// error never breaks the in-memory session; the learner keeps practicing and
// only that attempt goes unrecorded.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/vocalis-app/vocalis/internal/content"
	"github.com/vocalis-app/vocalis/internal/scoring"
)

// State is the machine's position in the practice flow.
type State string

const (
	// StatePresenting shows the current word and waits for a capture.
	StatePresenting State = "presenting"

	// StateListening means a capture is in flight and its result has not
	// been submitted yet.
	StateListening State = "listening"

	// StateHintOffered is Presenting with the hear-it affordance revealed
	// after repeated failures on the current word.
	StateHintOffered State = "hint_offered"

	// StateLevelComplete is terminal: every word has been passed or skipped
	// and no further scoring occurs.
	StateLevelComplete State = "level_complete"
)

var (
	// ErrEmptyLevel is returned when a level has no words. The session
	// cannot proceed and the learner must be sent back to the menu.
	ErrEmptyLevel = errors.New("session: level has no words")

	// ErrBusy is returned when a capture begins while another is in flight.
	ErrBusy = errors.New("session: a capture is already being evaluated")

	// ErrLevelComplete is returned for any scoring call after the level
	// finished.
	ErrLevelComplete = errors.New("session: level is complete")

	// ErrNoHint is returned when the hint is requested before it has been
	// earned.
	ErrNoHint = errors.New("session: hint is not available yet")
)

const (
	// MasteryThreshold is the closed score boundary for a successful
	// attempt: 80 is mastery, 79 is not.
	MasteryThreshold = 80

	// defaultHintAfterFailures reveals the hear-it hint after the second
	// consecutive failure on a word.
	defaultHintAfterFailures = 2
)

// Attempt is the per-attempt record forwarded to the progress layer.
type Attempt struct {
	Word     string
	Accuracy int
	Mastered bool
	Level    string
}

// Recorder receives every scored attempt. Implementations must tolerate
// being called once per submission, including failures.
type Recorder interface {
	RecordAttempt(ctx context.Context, att Attempt) error
}

// RecorderFunc adapts a function to the [Recorder] interface.
type RecorderFunc func(ctx context.Context, att Attempt) error

// RecordAttempt implements [Recorder].
func (f RecorderFunc) RecordAttempt(ctx context.Context, att Attempt) error { return f(ctx, att) }

// Option is a functional option for configuring a [Machine].
type Option func(*Machine)

// WithHintAfterFailures overrides how many consecutive failures on a word
// reveal the hint affordance. Default: 2.
func WithHintAfterFailures(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.hintAfter = n
		}
	}
}

// Outcome describes the result of one submitted attempt.
type Outcome struct {
	// Word is the word that was attempted.
	Word string `json:"word"`

	// Score is the final blended accuracy 0–100.
	Score int `json:"score"`

	// Stars is the rating tier: 3 on mastery, 2 above 50, 1 above 0, else 0.
	Stars int `json:"stars"`

	// Mastered reports whether the attempt met the mastery threshold.
	Mastered bool `json:"mastered"`

	// Verdict rates how near a failed attempt was; empty on mastery.
	Verdict scoring.Verdict `json:"verdict,omitempty"`

	// Feedback is the encouragement line to show the learner.
	Feedback string `json:"feedback"`

	// HintAvailable reports whether the hear-it affordance is now visible.
	HintAvailable bool `json:"hintAvailable"`

	// LevelComplete is set when this attempt finished the level.
	LevelComplete bool `json:"levelComplete"`

	// Next is the next word to present after a mastered attempt. Nil when
	// retrying the same word or when the level is complete.
	Next *content.Prompt `json:"next,omitempty"`

	// Recorded is false when persisting the attempt failed. The session
	// continues regardless.
	Recorded bool `json:"recorded"`
}

// Machine drives one level run. All exported methods are safe for concurrent
// use, though the intended caller is a single cooperative client.
type Machine struct {
	mu sync.Mutex

	level     *content.Level
	recorder  Recorder
	hintAfter int

	state      State
	index      int
	retryCount int
	hintShown  bool
}

// New creates a Machine for the given level, ready to present the first
// word. Returns [ErrEmptyLevel] when the level has no words — a fatal
// condition for the session.
func New(level *content.Level, recorder Recorder, opts ...Option) (*Machine, error) {
	if level == nil || len(level.Words) == 0 {
		return nil, ErrEmptyLevel
	}
	m := &Machine{
		level:     level,
		recorder:  recorder,
		hintAfter: defaultHintAfterFailures,
		state:     StatePresenting,
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// State returns the machine's current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns the prompt being practiced. The zero Prompt is returned
// once the level is complete.
func (m *Machine) Current() content.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateLevelComplete {
		return content.Prompt{}
	}
	return m.level.Words[m.index]
}

// Progress returns the one-based position of the current word and the level
// word count.
func (m *Machine) Progress() (position, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos := m.index + 1
	if m.state == StateLevelComplete {
		pos = len(m.level.Words)
	}
	return pos, len(m.level.Words)
}

// BeginCapture transitions to Listening. It is rejected while a prior
// capture is still in flight and after the level is complete.
func (m *Machine) BeginCapture() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateLevelComplete:
		return ErrLevelComplete
	case StateListening:
		return ErrBusy
	}
	m.state = StateListening
	return nil
}

// Submit scores a transcription result against the current word and applies
// the outcome: mastery advances to the next word (or completes the level),
// failure increments the retry count and may reveal the hint.
//
// confidence follows the [scoring.Score] contract: a value in [0, 1] or
// [scoring.NoConfidence].
func (m *Machine) Submit(ctx context.Context, transcript string, confidence float64) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateLevelComplete {
		return Outcome{}, ErrLevelComplete
	}

	word := m.level.Words[m.index]
	score := scoring.Score(transcript, word.Text, confidence)

	out := Outcome{
		Word:     word.Text,
		Score:    score,
		Mastered: score >= MasteryThreshold,
	}

	if out.Mastered {
		out.Stars = 3
		out.Feedback = "🌟 Amazing!"
		m.advanceLocked(&out)
	} else {
		out.Stars = failureStars(score)
		out.Verdict = scoring.Closeness(transcript, word.Text)
		out.Feedback = failureFeedback(out.Verdict)

		m.retryCount++
		if m.retryCount >= m.hintAfter {
			m.hintShown = true
		}
		if m.hintShown {
			m.state = StateHintOffered
		} else {
			m.state = StatePresenting
		}
		out.HintAvailable = m.hintShown
	}

	out.Recorded = m.record(ctx, Attempt{
		Word:     word.Text,
		Accuracy: score,
		Mastered: out.Mastered,
		Level:    m.level.ID,
	})

	return out, nil
}

// SubmitFailure reports that the capture could not be analysed (recogniser
// or network failure). The attempt is discarded: no score, no persisted
// record, no retry increment. The machine returns to its pre-capture state.
func (m *Machine) SubmitFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateListening {
		return
	}
	if m.hintShown {
		m.state = StateHintOffered
	} else {
		m.state = StatePresenting
	}
}

// Hint returns the text whose pronunciation should be synthesised for the
// learner. Only available once enough failures have revealed it; invoking
// the hint changes neither score nor retry state.
func (m *Machine) Hint() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateLevelComplete {
		return "", ErrLevelComplete
	}
	if !m.hintShown {
		return "", ErrNoHint
	}
	return m.level.Words[m.index].Text, nil
}

// Skip advances to the next word without scoring. Returns the new current
// prompt, or nil when the skip completed the level.
func (m *Machine) Skip() (*content.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateLevelComplete {
		return nil, ErrLevelComplete
	}
	var out Outcome
	m.advanceLocked(&out)
	return out.Next, nil
}

// NextLevel returns the linked follow-up level, if any.
func (m *Machine) NextLevel() (id, name string, ok bool) {
	return m.level.NextLevelID, m.level.NextLevelName, m.level.NextLevelID != ""
}

// advanceLocked moves to the next word, resetting all per-word state, or
// marks the level complete when the last word was just finished.
func (m *Machine) advanceLocked(out *Outcome) {
	m.retryCount = 0
	m.hintShown = false

	if m.index+1 < len(m.level.Words) {
		m.index++
		m.state = StatePresenting
		next := m.level.Words[m.index]
		out.Next = &next
		return
	}
	m.state = StateLevelComplete
	out.LevelComplete = true
	if out.Feedback != "" {
		out.Feedback = "🏆 Level Complete!"
	}
}

// record forwards the attempt and reports whether it was persisted.
func (m *Machine) record(ctx context.Context, att Attempt) bool {
	if m.recorder == nil {
		return false
	}
	if err := m.recorder.RecordAttempt(ctx, att); err != nil {
		slog.Warn("attempt not recorded, session continues",
			"word", att.Word, "level", att.Level, "err", err)
		return false
	}
	return true
}

// failureStars maps a failed score to its rating tier.
func failureStars(score int) int {
	switch {
	case score > 50:
		return 2
	case score > 0:
		return 1
	default:
		return 0
	}
}

// failureFeedback picks the encouragement line for a failed attempt.
func failureFeedback(v scoring.Verdict) string {
	switch v {
	case scoring.VerdictClose:
		return "So close! Try again!"
	case scoring.VerdictPartial:
		return "Good try! Again!"
	default:
		return "Try again!"
	}
}
