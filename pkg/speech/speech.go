// Package speech defines the speech-recognition boundary the practice
// engine consumes: a short fixed-duration audio capture in, a transcript
// with a confidence value out.
package speech

import "context"

// Result is one recognition outcome for a single capture.
type Result struct {
	// Transcript is the recognized text, possibly empty when nothing was
	// heard.
	Transcript string
	// Confidence is the provider's confidence in [0,1], or negative when
	// the provider reports none.
	Confidence float64
}

// Recognizer transcribes one complete audio capture. Implementations must
// be safe for concurrent use.
type Recognizer interface {
	// Recognize transcribes audio of the given MIME type. A capture in
	// which no speech was detected returns a Result with an empty
	// Transcript, not an error.
	Recognize(ctx context.Context, audio []byte, mimeType string) (Result, error)
}
