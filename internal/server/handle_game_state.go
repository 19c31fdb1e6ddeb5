package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/playperu/treasurehunt/internal/hunt"
)

type SessionInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TeamInfo struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	GPSHintEnabled bool         `json:"gpsHintEnabled"`
	Members        []PlayerInfo `json:"members"`
}

type ProgressInfo struct {
	Status         string  `json:"status"`
	CurrentStage   int     `json:"currentStage"`
	TotalStages    int     `json:"totalStages"`
	HintsUsed      int     `json:"hintsUsed"`
	HintsRemaining int     `json:"hintsRemaining"`
	NextHintAt     *string `json:"nextHintAt"`
	StartedAt      *string `json:"startedAt"`
	FinishedAt     *string `json:"finishedAt"`
	HasPath        bool    `json:"hasPath"`
}

// TargetInfo describes the stop a team is looking for. Hints holds only
// the hints revealed so far.
type TargetInfo struct {
	StageNumber int      `json:"stageNumber"`
	Riddle      string   `json:"riddle"`
	Hints       []string `json:"hints"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
}

type VisitedStop struct {
	StageOrder int    `json:"stageOrder"`
	LocationID string `json:"locationId"`
	Name       string `json:"name"`
}

type GameStateResponse struct {
	Session  SessionInfo   `json:"session"`
	Player   PlayerInfo    `json:"player"`
	Team     TeamInfo      `json:"team"`
	Progress ProgressInfo  `json:"progress"`
	Target   *TargetInfo   `json:"target"`
	Visited  []VisitedStop `json:"visited"`
}

// play is everything a game request works on.
type play struct {
	player  playerSession
	session hunt.Session
	team    hunt.Team
	path    []hunt.Location
}

// loadPlay reads the caller's session, team and path. It writes the
// error response itself and returns false when the request cannot go on.
func loadPlay(w http.ResponseWriter, r *http.Request, store Store) (play, bool) {
	p := play{player: playerFrom(r)}
	if p.player.TeamID == "" {
		writeError(w, http.StatusConflict, "no team assigned")
		return p, false
	}

	var err error
	if p.session, err = store.GetSession(r.Context(), p.player.SessionID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return p, false
	}
	p.team, err = store.GetTeam(r.Context(), p.player.SessionID, p.player.TeamID)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusConflict, "no team assigned")
		return p, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return p, false
	}
	if p.path, err = store.TeamPath(r.Context(), p.team.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return p, false
	}
	return p, true
}

func requireActive(w http.ResponseWriter, p play) bool {
	if p.session.Status != hunt.SessionStatusActive {
		writeError(w, http.StatusConflict, "session is not active")
		return false
	}
	return true
}

func targetInfo(team hunt.Team, path []hunt.Location, lang string) *TargetInfo {
	target, ok := hunt.Target(team, path)
	if !ok {
		return nil
	}
	info := &TargetInfo{
		StageNumber: team.CurrentStage + 1,
		Riddle:      target.Riddle.In(lang),
		Hints:       make([]string, 0, team.HintsUsed),
	}
	for i := 0; i < team.HintsUsed && i < hunt.HintsPerLocation; i++ {
		info.Hints = append(info.Hints, target.Hints[i].In(lang))
	}
	if lat, lng, ok := hunt.GPSFor(team, target); ok {
		info.Lat, info.Lng = lat, lng
	}
	return info
}

func buildGameState(p play, members []hunt.Player, lang string, now time.Time) GameStateResponse {
	t := p.team
	resp := GameStateResponse{
		Session: SessionInfo{
			ID:     p.session.ID,
			Name:   p.session.Name,
			Status: string(p.session.Status),
		},
		Player: PlayerInfo{ID: p.player.PlayerID, Name: p.player.Name},
		Team: TeamInfo{
			ID:             t.ID,
			Name:           t.Name,
			GPSHintEnabled: t.GPSHintEnabled,
			Members:        make([]PlayerInfo, len(members)),
		},
		Progress: ProgressInfo{
			Status:         string(t.Status()),
			CurrentStage:   t.CurrentStage,
			TotalStages:    hunt.TotalStages(p.path),
			HintsUsed:      t.HintsUsed,
			HintsRemaining: hunt.HintsRemaining(t),
			StartedAt:      formatTimePtr(t.StartedAt),
			FinishedAt:     formatTimePtr(t.FinishedAt),
			HasPath:        len(p.path) > 0,
		},
		Target:  targetInfo(t, p.path, lang),
		Visited: []VisitedStop{},
	}
	for i, m := range members {
		resp.Team.Members[i] = PlayerInfo{ID: m.ID, Name: m.Name}
	}
	if at := hunt.NextHintAt(t); at != nil && at.After(now) && t.FinishedAt == nil {
		resp.Progress.NextHintAt = formatTimePtr(at)
	}
	if t.StartedAt != nil {
		for i := 0; i <= t.CurrentStage && i < len(p.path); i++ {
			resp.Visited = append(resp.Visited, VisitedStop{
				StageOrder: i,
				LocationID: p.path[i].ID,
				Name:       p.path[i].Name.In(lang),
			})
		}
	}
	return resp
}

// writeGameState responds with the state of p's team.
func writeGameState(w http.ResponseWriter, r *http.Request, store Store, p play, now time.Time) {
	members, err := store.TeamMembers(r.Context(), p.team.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, buildGameState(p, members, r.URL.Query().Get("lang"), now))
}

func handleGameState(store Store, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadPlay(w, r, store)
		if !ok {
			return
		}
		writeGameState(w, r, store, p, now())
	}
}
