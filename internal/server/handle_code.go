package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/playperu/treasurehunt/internal/hunt"
	"github.com/playperu/treasurehunt/internal/metrics"
)

// CodeRequest is the body for POST /api/game/code.
type CodeRequest struct {
	Code string `json:"code"`
}

type CodeResponse struct {
	Correct     bool        `json:"correct"`
	StageNumber int         `json:"stageNumber"`
	TotalStages int         `json:"totalStages"`
	Completed   bool        `json:"completed"`
	Next        *TargetInfo `json:"next,omitempty"`
}

const msgNearMiss = "code is close, check for typos"

// nearMiss reports a typed code one edit away from the expected one.
func nearMiss(typed, expected string) bool {
	return typed != "" && levenshtein.ComputeDistance(typed, expected) <= 1
}

func handleSubmitCode(logger *slog.Logger, store Store, broker *Broker, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CodeRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		p, ok := loadPlay(w, r, store)
		if !ok || !requireActive(w, p) {
			return
		}

		target, hasTarget := hunt.Target(p.team, p.path)
		next, completed, err := hunt.SubmitCode(p.team, p.path, req.Code, now())
		switch {
		case errors.Is(err, hunt.ErrWrongCode):
			typed := hunt.NormalizeCode(req.Code)
			if hasTarget && nearMiss(typed, target.Code) {
				metrics.CodeSubmissions.WithLabelValues(metrics.ResultNearMiss).Inc()
				writeError(w, http.StatusUnprocessableEntity, msgNearMiss)
				return
			}
			metrics.CodeSubmissions.WithLabelValues(metrics.ResultWrong).Inc()
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		case err != nil:
			writeError(w, http.StatusConflict, err.Error())
			return
		}

		if err := store.SaveProgress(r.Context(), p.team, next); err != nil {
			if errors.Is(err, ErrConflict) {
				writeError(w, http.StatusConflict, msgStaleTeam)
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		metrics.CodeSubmissions.WithLabelValues(metrics.ResultCorrect).Inc()

		ev := Event{
			Type:        eventStageUnlocked,
			TeamName:    next.Name,
			PlayerName:  p.player.Name,
			StageNumber: next.CurrentStage,
		}
		if completed {
			ev.Type = eventTeamFinished
			metrics.TeamsFinished.Inc()
			logger.Info("team finished", "session_id", p.session.ID, "team_id", next.ID,
				"duration", next.FinishedAt.Sub(*next.StartedAt).String())
		}
		broker.PublishTeam(p.session.ID, next.ID, ev)

		writeJSON(w, http.StatusOK, CodeResponse{
			Correct:     true,
			StageNumber: next.CurrentStage,
			TotalStages: hunt.TotalStages(p.path),
			Completed:   completed,
			Next:        targetInfo(next, p.path, r.URL.Query().Get("lang")),
		})
	}
}
