// Package scoring converts a speech-recognition result into a 0–100 accuracy
// score for a target word or phrase. Scoring is a pure function of its inputs
// so that identical attempts always produce identical scores.
//
// The score is built in three steps:
//
//  1. Both strings are normalised (uppercase, A–Z and space only) and compared
//     position by position.
//  2. A leniency bonus rewards near-length matches that are already mostly
//     right, so a child dropping or adding a single sound is not punished.
//  3. When the recogniser reported a confidence value, the positional score is
//     blended with it half-and-half.
package scoring

import (
	"math"
	"strings"
)

// NoConfidence is the sentinel passed to [Score] when the speech engine did
// not report a confidence value.
const NoConfidence = -1.0

const (
	// leniencyFloor is the minimum raw score required for the bonus.
	leniencyFloor = 70
	// leniencyBonus is added when the floor is met and the spoken and
	// expected lengths differ by at most one character.
	leniencyBonus = 20
)

// Normalize uppercases s and strips every character outside A–Z and space.
// Both sides of a comparison go through this, so punctuation, digits and
// casing reported by the recogniser never affect the score.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || r == ' ' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Score returns the final 0–100 accuracy for a spoken transcript against the
// expected text. confidence is the recogniser's confidence in [0, 1], or
// [NoConfidence] when unavailable; without confidence the positional accuracy
// is returned unblended.
//
// A transcript that is empty after normalisation scores 0 outright: saying
// nothing never earns points, no matter how confident the recogniser was
// about the silence.
func Score(spoken, expected string, confidence float64) int {
	if Normalize(spoken) == "" {
		return 0
	}
	raw := rawAccuracy(spoken, expected)
	if confidence < 0 {
		return raw
	}
	return int(math.Round(confidence*50 + float64(raw)*0.5))
}

// rawAccuracy computes the positional-overlap accuracy with the leniency
// bonus applied, before any confidence blending.
func rawAccuracy(spoken, expected string) int {
	spoken = Normalize(spoken)
	expected = Normalize(expected)

	if spoken == "" {
		return 0
	}
	if spoken == expected {
		return 100
	}

	shorter, longer := len(spoken), len(expected)
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	if longer == 0 {
		return 0
	}

	match := 0
	for i := 0; i < shorter; i++ {
		if spoken[i] == expected[i] {
			match++
		}
	}
	score := int(math.Round(float64(match) / float64(longer) * 100))

	if score >= leniencyFloor && longer-shorter <= 1 {
		score += leniencyBonus
		if score > 100 {
			score = 100
		}
	}
	return score
}
