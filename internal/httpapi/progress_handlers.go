package httpapi

import (
	"net/http"
)

func (s *Server) handleProgressOverview(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	overview, err := s.progress.Overview(r.Context(), sess.LearnerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleProgressRecord(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	var req struct {
		Word     string `json:"word"`
		Accuracy int    `json:"accuracy"`
		Mastered bool   `json:"mastered"`
		Level    string `json:"level"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Word == "" {
		writeError(w, http.StatusBadRequest, "word is required")
		return
	}

	rec, err := s.progress.Record(r.Context(), sess.LearnerID, req.Word, req.Accuracy, req.Mastered, req.Level)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	s.metrics.RecordAttempt(r.Context(), rec.Level, rec.Mastered)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleProgressClear(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	deleted, err := s.progress.Clear(r.Context(), sess.LearnerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "progress cleared successfully",
		"deleted": deleted,
	})
}

func (s *Server) handlePracticeDeck(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	words, err := s.progress.Deck(r.Context(), sess.LearnerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, words)
}
