package session

import (
	"context"
	"errors"
	"testing"

	"github.com/vocalis-app/vocalis/internal/content"
	"github.com/vocalis-app/vocalis/internal/scoring"
)

func testLevel(words ...string) *content.Level {
	prompts := make([]content.Prompt, len(words))
	for i, w := range words {
		prompts[i] = content.Prompt{Text: w}
	}
	return &content.Level{ID: "ANIMALS_1", Name: "Animals", Words: prompts}
}

// recordingSpy captures every attempt the machine persists.
type recordingSpy struct {
	attempts []Attempt
	err      error
}

func (r *recordingSpy) RecordAttempt(_ context.Context, att Attempt) error {
	r.attempts = append(r.attempts, att)
	return r.err
}

func mustSubmit(t *testing.T, m *Machine, transcript string, confidence float64) Outcome {
	t.Helper()
	if err := m.BeginCapture(); err != nil {
		t.Fatalf("BeginCapture: %v", err)
	}
	out, err := m.Submit(context.Background(), transcript, confidence)
	if err != nil {
		t.Fatalf("Submit(%q): %v", transcript, err)
	}
	return out
}

func TestNew_EmptyLevel(t *testing.T) {
	if _, err := New(testLevel(), nil); !errors.Is(err, ErrEmptyLevel) {
		t.Fatalf("New with no words: err = %v, want ErrEmptyLevel", err)
	}
	if _, err := New(nil, nil); !errors.Is(err, ErrEmptyLevel) {
		t.Fatalf("New(nil): err = %v, want ErrEmptyLevel", err)
	}
}

func TestSubmit_MasteryAdvances(t *testing.T) {
	spy := &recordingSpy{}
	m, err := New(testLevel("CAT", "DOG"), spy)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out := mustSubmit(t, m, "cat", 1.0)
	if !out.Mastered || out.Score != 100 || out.Stars != 3 {
		t.Errorf("perfect attempt: mastered=%v score=%d stars=%d, want true/100/3",
			out.Mastered, out.Score, out.Stars)
	}
	if out.Next == nil || out.Next.Text != "DOG" {
		t.Errorf("Next = %+v, want DOG", out.Next)
	}
	if out.LevelComplete {
		t.Error("LevelComplete on first of two words")
	}
	if len(spy.attempts) != 1 || !spy.attempts[0].Mastered || spy.attempts[0].Level != "ANIMALS_1" {
		t.Errorf("recorded attempts = %+v", spy.attempts)
	}
}

func TestSubmit_MasteryThresholdBoundary(t *testing.T) {
	m, _ := New(testLevel("CAT"), &recordingSpy{})

	// Raw 67 blended at confidence 0.93 → round(46.5+33.5) = 80: boundary
	// score masters.
	out := mustSubmit(t, m, "car", 0.93)
	if out.Score != 80 {
		t.Fatalf("score = %d, want 80", out.Score)
	}
	if !out.Mastered {
		t.Error("score 80 must master (closed boundary)")
	}
}

func TestSubmit_FailureCountsAndHint(t *testing.T) {
	spy := &recordingSpy{}
	m, _ := New(testLevel("CAT"), spy)

	out := mustSubmit(t, m, "dog", 0.2)
	if out.Mastered {
		t.Fatal("DOG vs CAT must not master")
	}
	if out.HintAvailable {
		t.Error("hint visible after first failure")
	}
	if _, err := m.Hint(); !errors.Is(err, ErrNoHint) {
		t.Errorf("Hint before reveal: err = %v, want ErrNoHint", err)
	}

	out = mustSubmit(t, m, "dog", 0.2)
	if !out.HintAvailable {
		t.Error("hint hidden after second consecutive failure")
	}
	if m.State() != StateHintOffered {
		t.Errorf("state = %q, want %q", m.State(), StateHintOffered)
	}

	text, err := m.Hint()
	if err != nil {
		t.Fatalf("Hint: %v", err)
	}
	if text != "CAT" {
		t.Errorf("Hint = %q, want CAT", text)
	}

	// Both failed attempts were still recorded.
	if len(spy.attempts) != 2 {
		t.Errorf("recorded %d attempts, want 2", len(spy.attempts))
	}
}

func TestSubmit_MasteryResetsHintState(t *testing.T) {
	m, _ := New(testLevel("CAT", "DOG"), &recordingSpy{})

	mustSubmit(t, m, "x", scoring.NoConfidence)
	mustSubmit(t, m, "x", scoring.NoConfidence)
	out := mustSubmit(t, m, "cat", 1.0)
	if !out.Mastered {
		t.Fatal("expected mastery")
	}

	// Fresh word: hint state must be back to hidden.
	out = mustSubmit(t, m, "x", scoring.NoConfidence)
	if out.HintAvailable {
		t.Error("hint leaked into the next word")
	}
}

func TestSubmit_FailureStars(t *testing.T) {
	tests := []struct {
		transcript string
		confidence float64
		wantStars  int
	}{
		{"cat", 0.1, 2},               // raw 100 dragged down by low confidence: 55
		{"cap", 0.1, 1},               // low but nonzero
		{"", scoring.NoConfidence, 0}, // empty transcript scores zero
	}
	for _, tt := range tests {
		m, _ := New(testLevel("CAT"), &recordingSpy{})
		out := mustSubmit(t, m, tt.transcript, tt.confidence)
		if out.Mastered {
			t.Fatalf("Submit(%q, %v) mastered; want failure", tt.transcript, tt.confidence)
		}
		if out.Stars != tt.wantStars {
			t.Errorf("Submit(%q, %v) stars = %d (score %d), want %d",
				tt.transcript, tt.confidence, out.Stars, out.Score, tt.wantStars)
		}
	}
}

func TestBeginCapture_Busy(t *testing.T) {
	m, _ := New(testLevel("CAT"), &recordingSpy{})

	if err := m.BeginCapture(); err != nil {
		t.Fatalf("BeginCapture: %v", err)
	}
	if err := m.BeginCapture(); !errors.Is(err, ErrBusy) {
		t.Errorf("second BeginCapture: err = %v, want ErrBusy", err)
	}
}

func TestSubmitFailure_DiscardsAttempt(t *testing.T) {
	spy := &recordingSpy{}
	m, _ := New(testLevel("CAT"), spy)

	if err := m.BeginCapture(); err != nil {
		t.Fatalf("BeginCapture: %v", err)
	}
	m.SubmitFailure()

	if m.State() != StatePresenting {
		t.Errorf("state = %q, want %q", m.State(), StatePresenting)
	}
	if len(spy.attempts) != 0 {
		t.Errorf("recorded %d attempts, want 0", len(spy.attempts))
	}

	// The discarded attempt must not count toward the hint reveal.
	mustSubmit(t, m, "dog", 0.2)
	if m.State() == StateHintOffered {
		t.Error("hint revealed after one real failure")
	}
}

func TestLevelComplete(t *testing.T) {
	m, _ := New(testLevel("CAT"), &recordingSpy{})

	out := mustSubmit(t, m, "cat", 1.0)
	if !out.LevelComplete {
		t.Fatal("LevelComplete not set on final mastery")
	}
	if out.Next != nil {
		t.Errorf("Next = %+v after completion, want nil", out.Next)
	}
	if out.Feedback != "🏆 Level Complete!" {
		t.Errorf("Feedback = %q", out.Feedback)
	}

	if err := m.BeginCapture(); !errors.Is(err, ErrLevelComplete) {
		t.Errorf("BeginCapture after completion: err = %v, want ErrLevelComplete", err)
	}
	if _, err := m.Submit(context.Background(), "cat", 1.0); !errors.Is(err, ErrLevelComplete) {
		t.Errorf("Submit after completion: err = %v, want ErrLevelComplete", err)
	}
}

func TestSkip(t *testing.T) {
	m, _ := New(testLevel("CAT", "DOG"), &recordingSpy{})

	next, err := m.Skip()
	if err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if next == nil || next.Text != "DOG" {
		t.Errorf("Skip next = %+v, want DOG", next)
	}

	next, err = m.Skip()
	if err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if next != nil {
		t.Errorf("final Skip next = %+v, want nil", next)
	}
	if m.State() != StateLevelComplete {
		t.Errorf("state = %q, want %q", m.State(), StateLevelComplete)
	}
}

func TestRecorderFailure_SessionContinues(t *testing.T) {
	spy := &recordingSpy{err: errors.New("db down")}
	m, _ := New(testLevel("CAT", "DOG"), spy)

	out := mustSubmit(t, m, "cat", 1.0)
	if !out.Mastered {
		t.Fatal("expected mastery")
	}
	if out.Recorded {
		t.Error("Recorded = true with failing recorder")
	}
	if out.Next == nil || out.Next.Text != "DOG" {
		t.Error("session did not advance past persistence failure")
	}
}

func TestWithHintAfterFailures(t *testing.T) {
	m, _ := New(testLevel("CAT"), &recordingSpy{}, WithHintAfterFailures(1))

	out := mustSubmit(t, m, "dog", 0.2)
	if !out.HintAvailable {
		t.Error("hint hidden after first failure with threshold 1")
	}
}
