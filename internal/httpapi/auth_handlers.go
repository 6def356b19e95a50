package httpapi

import (
	"errors"
	"net/http"

	"github.com/vocalis-app/vocalis/internal/auth"
)

// sessionUser is the learner identity returned alongside a token.
type sessionUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// authResponse is the body of successful signup and login calls.
type authResponse struct {
	Token string      `json:"token"`
	User  sessionUser `json:"user"`
}

func toAuthResponse(sess *auth.Session) authResponse {
	return authResponse{
		Token: sess.Token,
		User: sessionUser{
			ID:     sess.LearnerID,
			Name:   sess.Name,
			Avatar: sess.Avatar,
		},
	}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Avatar   string `json:"avatar"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.auth.Signup(r.Context(), req.Name, req.Email, req.Password, req.Avatar)
	if errors.Is(err, auth.ErrAlreadyExists) {
		writeError(w, http.StatusBadRequest, "user already exists")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toAuthResponse(sess))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusBadRequest, "invalid credentials")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, toAuthResponse(sess))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Logout(bearerToken(r))
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
