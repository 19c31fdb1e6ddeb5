package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/treasurehunt/internal/hunt"
)

// TeamRequest is the body for creating or updating a team.
type TeamRequest struct {
	Name           string `json:"name"`
	GPSHintEnabled bool   `json:"gpsHintEnabled"`
}

type TeamResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	GPSHintEnabled bool    `json:"gpsHintEnabled"`
	Status         string  `json:"status"`
	CurrentStage   int     `json:"currentStage"`
	HintsUsed      int     `json:"hintsUsed"`
	StartedAt      *string `json:"startedAt"`
	FinishedAt     *string `json:"finishedAt"`
	PlayerCount    int     `json:"playerCount"`
	CreatedAt      string  `json:"createdAt"`
}

func newTeamResponse(t hunt.Team, players int) TeamResponse {
	resp := TeamResponse{
		ID:             t.ID,
		Name:           t.Name,
		GPSHintEnabled: t.GPSHintEnabled,
		Status:         string(t.Status()),
		CurrentStage:   t.CurrentStage,
		HintsUsed:      t.HintsUsed,
		PlayerCount:    players,
		CreatedAt:      formatTime(t.CreatedAt),
	}
	resp.StartedAt = formatTimePtr(t.StartedAt)
	resp.FinishedAt = formatTimePtr(t.FinishedAt)
	return resp
}

func (req *TeamRequest) normalize() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	return ""
}

func handleAdminListTeams(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFromURL(w, r, store)
		if !ok {
			return
		}
		teams, err := store.ListTeams(r.Context(), sess.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		players, err := store.ListPlayers(r.Context(), sess.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		counts := make(map[string]int)
		for _, p := range players {
			counts[p.TeamID]++
		}

		resp := make([]TeamResponse, len(teams))
		for i, t := range teams {
			resp[i] = newTeamResponse(t, counts[t.ID])
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleAdminCreateTeam(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFromURL(w, r, store)
		if !ok {
			return
		}

		var req TeamRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.normalize(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		team, err := store.CreateTeam(r.Context(), sess.ID, req)
		if errors.Is(err, ErrConflict) {
			writeError(w, http.StatusConflict, "team name already in use")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, newTeamResponse(team, 0))
	}
}

func handleAdminUpdateTeam(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TeamRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.normalize(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		team, err := store.UpdateTeam(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "teamID"), req)
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "team not found")
			return
		case errors.Is(err, ErrConflict):
			writeError(w, http.StatusConflict, "team name already in use")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		members, err := store.TeamMembers(r.Context(), team.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, newTeamResponse(team, len(members)))
	}
}

func handleAdminDeleteTeam(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, teamID := chi.URLParam(r, "sessionID"), chi.URLParam(r, "teamID")

		if _, err := store.GetTeam(r.Context(), sessionID, teamID); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "team not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		hasPlayers, err := store.TeamHasPlayers(r.Context(), teamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if hasPlayers {
			writeError(w, http.StatusConflict, "cannot delete team with existing players")
			return
		}

		if err := store.DeleteTeam(r.Context(), sessionID, teamID); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "team not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
	}
}
