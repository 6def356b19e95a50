package httpapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/vocalis-app/vocalis/internal/content"
	"github.com/vocalis-app/vocalis/internal/scoring"
	"github.com/vocalis-app/vocalis/internal/store"
)

// maxAudioBytes caps an uploaded speech capture. Captures are ~2 seconds of
// audio, so anything past a few megabytes is malformed.
const maxAudioBytes = 8 << 20

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := s.store.Levels(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	summaries := make([]content.Summary, 0, len(levels))
	for _, l := range levels {
		summaries = append(summaries, l.Summarize())
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	level, err := s.store.Level(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "level not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, level)
}

// speechCheckResponse carries the recognizer verdict plus, when the caller
// names the expected word, the blended accuracy for it.
type speechCheckResponse struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`

	Accuracy *int            `json:"accuracy,omitempty"`
	Verdict  scoring.Verdict `json:"verdict,omitempty"`
}

// handleCheckSpeech accepts a multipart form with an "audioBlob" part,
// transcribes it and optionally scores it against the "expected" form field.
func (s *Server) handleCheckSpeech(w http.ResponseWriter, r *http.Request) {
	if s.recognizer == nil {
		writeError(w, http.StatusServiceUnavailable, "speech checking is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		writeError(w, http.StatusBadRequest, "error parsing audio file")
		return
	}
	file, header, err := r.FormFile("audioBlob")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no audio file received")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "error reading audio file")
		return
	}

	start := time.Now()
	result, err := s.recognizer.Recognize(r.Context(), audio, header.Header.Get("Content-Type"))
	s.metrics.SpeechCheckDuration.Record(r.Context(), time.Since(start).Seconds())
	if err != nil {
		writeError(w, http.StatusBadGateway, "speech recognition failed")
		return
	}

	resp := speechCheckResponse{
		Transcript: result.Transcript,
		Confidence: result.Confidence,
	}
	if expected := r.FormValue("expected"); expected != "" {
		score := scoring.Score(result.Transcript, expected, result.Confidence)
		resp.Accuracy = &score
		resp.Verdict = scoring.Closeness(result.Transcript, expected)
	}
	writeJSON(w, http.StatusOK, resp)
}
