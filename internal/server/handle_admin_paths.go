package server

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/playperu/treasurehunt/internal/hunt"
	"github.com/playperu/treasurehunt/internal/lock"
	"github.com/playperu/treasurehunt/internal/metrics"
)

type PathStatusResponse struct {
	Ready             bool   `json:"ready"`
	Reason            string `json:"reason,omitempty"`
	StartLocationID   string `json:"startLocationId,omitempty"`
	EndLocationID     string `json:"endLocationId,omitempty"`
	IntermediateCount int    `json:"intermediateCount"`
	TeamCount         int    `json:"teamCount"`
	MaxUniquePaths    int64  `json:"maxUniquePaths"`
	CanBeUnique       bool   `json:"canBeUnique"`
	Generated         bool   `json:"generated"`
	TeamsWithPath     int    `json:"teamsWithPath"`
	UniquePaths       int    `json:"uniquePaths"`
}

type GeneratePathsRequest struct {
	Regenerate bool `json:"regenerate"`
}

type GeneratePathsResponse struct {
	Generated      int                `json:"generated"`
	UniquePaths    int                `json:"uniquePaths"`
	MaxUniquePaths int64              `json:"maxUniquePaths"`
	CanBeUnique    bool               `json:"canBeUnique"`
	Regenerated    bool               `json:"regenerated"`
	Paths          []TeamPathResponse `json:"paths"`
}

type TeamPathResponse struct {
	TeamID    string     `json:"teamId"`
	TeamName  string     `json:"teamName"`
	Signature string     `json:"signature"`
	Stops     []PathStop `json:"stops"`
}

type PathStop struct {
	StageOrder int    `json:"stageOrder"`
	LocationID string `json:"locationId"`
	Code       string `json:"code"`
	Name       string `json:"name"`
}

func newTeamPathResponse(team hunt.Team, path []hunt.Location) TeamPathResponse {
	resp := TeamPathResponse{
		TeamID:    team.ID,
		TeamName:  team.Name,
		Signature: hunt.Signature(path),
		Stops:     make([]PathStop, len(path)),
	}
	for i, l := range path {
		resp.Stops[i] = PathStop{
			StageOrder: i,
			LocationID: l.ID,
			Code:       l.Code,
			Name:       l.Name.EN,
		}
	}
	return resp
}

// distinctPaths counts the different orderings among stored paths.
func distinctPaths(paths map[string][]hunt.Location) int {
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		seen[hunt.Signature(p)] = struct{}{}
	}
	return len(seen)
}

func handleAdminPathStatus(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFromURL(w, r, store)
		if !ok {
			return
		}

		locs, err := store.ListLocations(r.Context(), sess.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		teams, err := store.ListTeams(r.Context(), sess.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		paths, err := store.ListPaths(r.Context(), sess.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := PathStatusResponse{
			TeamCount:     len(teams),
			Generated:     len(paths) > 0,
			TeamsWithPath: len(paths),
			UniquePaths:   distinctPaths(paths),
		}
		set, err := hunt.ValidateLocations(locs)
		if err != nil {
			resp.Reason = err.Error()
			writeJSON(w, http.StatusOK, resp)
			return
		}
		resp.StartLocationID = set.Start.ID
		resp.EndLocationID = set.End.ID
		resp.IntermediateCount = len(set.Intermediates)
		resp.MaxUniquePaths, resp.CanBeUnique = hunt.PathCapacity(len(set.Intermediates), len(teams))
		if len(teams) == 0 {
			resp.Reason = "no teams in session"
		} else {
			resp.Ready = true
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleAdminListPaths(store Store) http.HandlerFunc {
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
		paths, err := store.ListPaths(r.Context(), sess.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := []TeamPathResponse{}
		for _, t := range teams {
			if path, ok := paths[t.ID]; ok {
				resp = append(resp, newTeamPathResponse(t, path))
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func pathLockKey(sessionID string) string {
	return "paths:" + sessionID
}

// handleAdminGeneratePaths assigns every team of the session a path.
// Team progress is left as is when paths are regenerated.
func handleAdminGeneratePaths(logger *slog.Logger, store Store, locker lock.Locker, broker *Broker, newRand func() *rand.Rand, lockTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFromURL(w, r, store)
		if !ok {
			return
		}

		var req GeneratePathsRequest
		if err := readOptionalJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		release, err := locker.Acquire(r.Context(), pathLockKey(sess.ID), lockTTL)
		if errors.Is(err, lock.ErrLocked) {
			writeError(w, http.StatusConflict, "path generation already running for this session")
			return
		}
		if err != nil {
			logger.Error("acquiring path lock", "session_id", sess.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		defer release()

		locs, err := store.ListLocations(r.Context(), sess.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		set, err := hunt.ValidateLocations(locs)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		teams, err := store.ListTeams(r.Context(), sess.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if len(teams) == 0 {
			writeError(w, http.StatusBadRequest, "no teams in session")
			return
		}

		existing, err := store.CountPaths(r.Context(), sess.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if existing > 0 && !req.Regenerate {
			writeError(w, http.StatusConflict, "paths already generated, pass regenerate to replace them")
			return
		}
		if err := store.DeletePaths(r.Context(), sess.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		teamIDs := make([]string, len(teams))
		for i, t := range teams {
			teamIDs[i] = t.ID
		}
		generated := hunt.GeneratePaths(newRand(), set.Start, set.End, set.Intermediates, teamIDs)

		var steps []hunt.PathStep
		for _, g := range generated {
			steps = append(steps, g.Steps()...)
		}
		if err := store.CreatePaths(r.Context(), sess.ID, steps); err != nil {
			logger.Error("storing paths", "session_id", sess.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		unique := hunt.UniqueSignatures(generated)
		maxUnique, canBeUnique := hunt.PathCapacity(len(set.Intermediates), len(teams))
		metrics.PathsGenerated.Add(float64(len(generated)))
		metrics.PathUniqueness.WithLabelValues(sess.ID).Set(float64(unique) / float64(len(generated)))

		logger.Info("paths generated",
			"session_id", sess.ID,
			"admin", adminFrom(r).Email,
			"teams", len(teams),
			"intermediates", len(set.Intermediates),
			"unique", unique,
			"regenerated", existing > 0,
		)
		broker.PublishSession(sess.ID, Event{Type: eventPathsGenerated, Paths: len(generated)})

		resp := GeneratePathsResponse{
			Generated:      len(generated),
			UniquePaths:    unique,
			MaxUniquePaths: maxUnique,
			CanBeUnique:    canBeUnique,
			Regenerated:    existing > 0,
			Paths:          make([]TeamPathResponse, len(generated)),
		}
		for i, g := range generated {
			resp.Paths[i] = newTeamPathResponse(teams[i], g.Locations)
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}
