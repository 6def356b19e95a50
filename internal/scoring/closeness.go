package scoring

import (
	"github.com/antzucaro/matchr"
)

// Verdict classifies how near a failed attempt was to the expected text.
// It drives encouragement copy only — the numeric score is never derived
// from it.
type Verdict string

const (
	// VerdictClose means the attempt sounded like the target or was one
	// edit away from it.
	VerdictClose Verdict = "close"

	// VerdictPartial means the attempt shared recognisable structure with
	// the target without sounding like it.
	VerdictPartial Verdict = "partial"

	// VerdictMiss means the attempt bore no useful resemblance.
	VerdictMiss Verdict = "miss"
)

const (
	closeSimilarity   = 0.84
	partialSimilarity = 0.55
)

// Closeness rates how near spoken was to expected. A Double Metaphone code
// overlap counts as close regardless of spelling distance, so "kat" versus
// "cat" is rated close even though the strings differ. Otherwise the tiers
// fall back to Jaro-Winkler similarity on the normalised strings.
func Closeness(spoken, expected string) Verdict {
	spoken = Normalize(spoken)
	expected = Normalize(expected)
	if spoken == "" || expected == "" {
		return VerdictMiss
	}

	if phoneticOverlap(spoken, expected) {
		return VerdictClose
	}

	sim := matchr.JaroWinkler(spoken, expected, false)
	switch {
	case sim >= closeSimilarity:
		return VerdictClose
	case sim >= partialSimilarity:
		return VerdictPartial
	default:
		return VerdictMiss
	}
}

// phoneticOverlap reports whether the two strings share a Double Metaphone
// code. Empty codes (too short, no consonants) never match.
func phoneticOverlap(a, b string) bool {
	pa, sa := matchr.DoubleMetaphone(a)
	pb, sb := matchr.DoubleMetaphone(b)
	for _, x := range []string{pa, sa} {
		if x == "" {
			continue
		}
		if x == pb || (sb != "" && x == sb) {
			return true
		}
	}
	return false
}
