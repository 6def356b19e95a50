package httpapi

import (
	"net/http"

	"github.com/vocalis-app/vocalis/internal/achievement"
	"github.com/vocalis-app/vocalis/internal/store"
)

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	ranked, err := s.board.Top(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}

func (s *Server) handleScoreSubmit(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	var req struct {
		Score    int `json:"score"`
		MaxCombo int `json:"maxCombo"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Score < 0 {
		writeError(w, http.StatusBadRequest, "score must not be negative")
		return
	}

	sub, err := s.board.Submit(r.Context(), sess.LearnerID, req.Score, req.MaxCombo)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	s.metrics.RecordScoreSubmission(r.Context())
	writeJSON(w, http.StatusCreated, sub)
}

// achievementsResponse pairs the static catalog with the learner's earned
// grants; the client joins them for display.
type achievementsResponse struct {
	AllAchievements    map[string]achievement.Definition `json:"allAchievements"`
	EarnedAchievements []store.AchievementGrant          `json:"earnedAchievements"`
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	grants, err := s.store.GrantsByLearner(r.Context(), sess.LearnerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if grants == nil {
		grants = []store.AchievementGrant{}
	}
	writeJSON(w, http.StatusOK, achievementsResponse{
		AllAchievements:    achievement.Catalog(),
		EarnedAchievements: grants,
	})
}
