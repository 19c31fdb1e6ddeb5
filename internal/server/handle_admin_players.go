package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/playperu/treasurehunt/internal/roster"
)

const maxRosterUpload = 10 << 20

type PlayerItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	TeamID    string `json:"teamId"`
	TeamName  string `json:"teamName"`
	CreatedAt string `json:"createdAt"`
}

// ImportResponse summarizes a roster import.
type ImportResponse struct {
	Players      int      `json:"players"`
	TeamsCreated int      `json:"teamsCreated"`
	Teams        []string `json:"teams"`
}

func handleAdminListPlayers(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFromURL(w, r, store)
		if !ok {
			return
		}
		players, err := store.ListPlayers(r.Context(), sess.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, players)
	}
}

func parseRoster(filename string, r io.Reader) ([]roster.Entry, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return roster.ParseCSV(r)
	case ".xlsx":
		return roster.ParseXLSX(r)
	}
	return nil, errors.New("file must be .csv or .xlsx")
}

func handleAdminImportPlayers(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFromURL(w, r, store)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRosterUpload)
		if err := r.ParseMultipartForm(maxRosterUpload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file is required")
			return
		}
		defer file.Close()

		teamSize := 0
		if v := r.FormValue("teamSize"); v != "" {
			teamSize, err = strconv.Atoi(v)
			if err != nil || teamSize < 1 {
				writeError(w, http.StatusBadRequest, "teamSize must be a positive number")
				return
			}
		}

		entries, err := parseRoster(header.Filename, file)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if teamSize > 0 {
			teams, err := store.ListTeams(r.Context(), sess.ID)
			if err != nil {
				logger.Error("listing teams", "session_id", sess.ID, "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			existing := make([]string, len(teams))
			for i, t := range teams {
				existing[i] = t.Name
			}
			entries = roster.Assign(entries, teamSize, existing)
		}

		resp, err := store.ImportPlayers(r.Context(), sess.ID, entries)
		if err != nil {
			logger.Error("importing roster", "session_id", sess.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		logger.Info("roster imported",
			"session_id", sess.ID,
			"admin", adminFrom(r).Email,
			"players", resp.Players,
			"teams_created", resp.TeamsCreated,
		)
		writeJSON(w, http.StatusOK, resp)
	}
}
