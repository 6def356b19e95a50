// Package mock provides a test double for the speech package interfaces.
//
// Use Recognizer to feed controlled results and inspect which captures were
// delivered.
package mock

import (
	"context"
	"sync"

	"github.com/vocalis-app/vocalis/pkg/speech"
)

// RecognizeCall records a single invocation of Recognizer.Recognize.
type RecognizeCall struct {
	// Ctx is the context passed to Recognize.
	Ctx context.Context
	// Audio is the capture passed to Recognize.
	Audio []byte
	// MimeType is the MIME type passed to Recognize.
	MimeType string
}

// Recognizer is a mock implementation of speech.Recognizer.
type Recognizer struct {
	mu sync.Mutex

	// Results are returned in order by successive Recognize calls. Once
	// exhausted, the last result repeats.
	Results []speech.Result

	// RecognizeErr, if non-nil, is returned as the error from Recognize.
	RecognizeErr error

	// RecognizeCalls records every call to Recognize.
	RecognizeCalls []RecognizeCall
}

var _ speech.Recognizer = (*Recognizer)(nil)

// Recognize records the call and returns the next queued result.
func (r *Recognizer) Recognize(ctx context.Context, audio []byte, mimeType string) (speech.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.RecognizeCalls = append(r.RecognizeCalls, RecognizeCall{Ctx: ctx, Audio: audio, MimeType: mimeType})
	if r.RecognizeErr != nil {
		return speech.Result{}, r.RecognizeErr
	}
	if len(r.Results) == 0 {
		return speech.Result{Confidence: -1}, nil
	}
	idx := len(r.RecognizeCalls) - 1
	if idx >= len(r.Results) {
		idx = len(r.Results) - 1
	}
	return r.Results[idx], nil
}
