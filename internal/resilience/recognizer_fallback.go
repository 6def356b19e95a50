package resilience

import (
	"context"

	"github.com/vocalis-app/vocalis/pkg/speech"
)

// RecognizerFallback implements [speech.Recognizer] with automatic failover
// across multiple recognition backends. Each backend has its own circuit
// breaker, so a single configured backend still gets breaker protection
// against a provider outage.
type RecognizerFallback struct {
	group *FallbackGroup[speech.Recognizer]
}

// Compile-time interface assertion.
var _ speech.Recognizer = (*RecognizerFallback)(nil)

// NewRecognizerFallback creates a [RecognizerFallback] with primary as the
// preferred backend.
func NewRecognizerFallback(primary speech.Recognizer, primaryName string, cfg FallbackConfig) *RecognizerFallback {
	return &RecognizerFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional recognizer as a fallback.
func (f *RecognizerFallback) AddFallback(name string, recognizer speech.Recognizer) {
	f.group.AddFallback(name, recognizer)
}

// Recognize transcribes the capture against the first healthy backend. If
// the primary fails, subsequent fallbacks are tried.
func (f *RecognizerFallback) Recognize(ctx context.Context, audio []byte, mimeType string) (speech.Result, error) {
	return ExecuteWithResult(f.group, func(r speech.Recognizer) (speech.Result, error) {
		return r.Recognize(ctx, audio, mimeType)
	})
}
