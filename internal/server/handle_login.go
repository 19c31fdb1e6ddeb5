package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/playperu/treasurehunt/internal/hunt"
)

// LoginRequest is the body for POST /api/login.
type LoginRequest struct {
	Keyword string `json:"keyword"`
	Email   string `json:"email"`
}

type LoginResponse struct {
	Token       string `json:"token"`
	ExpiresAt   string `json:"expiresAt"`
	PlayerID    string `json:"playerId"`
	PlayerName  string `json:"playerName"`
	TeamID      string `json:"teamId"`
	TeamName    string `json:"teamName"`
	SessionID   string `json:"sessionId"`
	SessionName string `json:"sessionName"`
}

func handlePlayerLogin(store Store, tok tokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Keyword = strings.ToUpper(strings.TrimSpace(req.Keyword))
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if req.Keyword == "" || req.Email == "" {
			writeError(w, http.StatusBadRequest, "keyword and email are required")
			return
		}

		sess, err := store.SessionByKeyword(r.Context(), req.Keyword)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid keyword or email")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if sess.Status != hunt.SessionStatusActive {
			writeError(w, http.StatusConflict, "session is not active")
			return
		}

		player, err := store.PlayerByEmail(r.Context(), sess.ID, req.Email)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid keyword or email")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		token, expires, err := tok.issue(player.ID, sess.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := LoginResponse{
			Token:       token,
			ExpiresAt:   formatTime(expires),
			PlayerID:    player.ID,
			PlayerName:  player.Name,
			TeamID:      player.TeamID,
			SessionID:   sess.ID,
			SessionName: sess.Name,
		}
		if player.TeamID != "" {
			team, err := store.GetTeam(r.Context(), sess.ID, player.TeamID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			resp.TeamName = team.Name
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
