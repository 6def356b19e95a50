package scoring

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"cat", "CAT"},
		{"Cat!", "CAT"},
		{"  hello, world. ", "  HELLO WORLD "},
		{"c4t", "CT"},
		{"", ""},
		{"123!?", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScore_ExactMatch(t *testing.T) {
	if got := Score("cat", "CAT", NoConfidence); got != 100 {
		t.Errorf("exact match = %d, want 100", got)
	}
	// Punctuation and casing from the recogniser must not matter.
	if got := Score("Cat.", "CAT", NoConfidence); got != 100 {
		t.Errorf("punctuated exact match = %d, want 100", got)
	}
}

func TestScore_EmptyTranscript(t *testing.T) {
	// An empty transcript is 0 unconditionally; confidence never blends a
	// silent attempt above zero.
	if got := Score("", "CAT", NoConfidence); got != 0 {
		t.Errorf("empty transcript = %d, want 0", got)
	}
	if got := Score("", "CAT", 1.0); got != 0 {
		t.Errorf("empty transcript at full confidence = %d, want 0", got)
	}
	if got := Score("!!!", "CAT", 0.9); got != 0 {
		t.Errorf("transcript normalising to empty = %d, want 0", got)
	}
}

func TestScore_PositionalOverlap(t *testing.T) {
	// "CAR" vs "CAT": 2 of 3 positions match → 67, length diff 0 but below
	// the leniency floor.
	if got := Score("car", "CAT", NoConfidence); got != 67 {
		t.Errorf("CAR vs CAT = %d, want 67", got)
	}
}

func TestScore_LeniencyBonus(t *testing.T) {
	// "TREES" vs "TREE": 4 of 5 positions → 80, length diff 1 → +20, capped
	// workflow lands on 100.
	if got := Score("trees", "TREE", NoConfidence); got != 100 {
		t.Errorf("TREES vs TREE = %d, want 100", got)
	}
	// "FISHES" vs "FISH": 4 of 6 → 67, below the floor, no bonus.
	if got := Score("fishes", "FISH", NoConfidence); got != 67 {
		t.Errorf("FISHES vs FISH = %d, want 67", got)
	}
}

func TestScore_NoLeniencyAcrossBigLengthGap(t *testing.T) {
	// "ELEPHANTS!" vs "ELEPHANT" has diff 1 after normalising; widen it.
	if got := Score("elephantsss", "ELEPHANT", NoConfidence); got >= 90 {
		t.Errorf("length gap 3 got %d, want no leniency bonus", got)
	}
}

func TestScore_ConfidenceBlend(t *testing.T) {
	// Perfect transcript at confidence 1.0: 50 + 50 = 100.
	if got := Score("cat", "CAT", 1.0); got != 100 {
		t.Errorf("blend at confidence 1.0 = %d, want 100", got)
	}
	// Perfect transcript at confidence 0.5: 25 + 50 = 75.
	if got := Score("cat", "CAT", 0.5); got != 75 {
		t.Errorf("blend at confidence 0.5 = %d, want 75", got)
	}
	// Zero confidence halves a perfect positional score.
	if got := Score("cat", "CAT", 0); got != 50 {
		t.Errorf("blend at confidence 0 = %d, want 50", got)
	}
}

func TestScore_Deterministic(t *testing.T) {
	a := Score("doog", "DOG", 0.83)
	for i := 0; i < 10; i++ {
		if b := Score("doog", "DOG", 0.83); b != a {
			t.Fatalf("score not deterministic: %d then %d", a, b)
		}
	}
}

func TestCloseness(t *testing.T) {
	tests := []struct {
		spoken   string
		expected string
		want     Verdict
	}{
		{"cat", "CAT", VerdictClose},
		{"kat", "CAT", VerdictClose},   // same phonetics
		{"cab", "CAT", VerdictPartial}, // near miss
		{"elephant", "CAT", VerdictMiss},
		{"", "CAT", VerdictMiss},
	}
	for _, tt := range tests {
		if got := Closeness(tt.spoken, tt.expected); got != tt.want {
			t.Errorf("Closeness(%q, %q) = %q, want %q", tt.spoken, tt.expected, got, tt.want)
		}
	}
}
