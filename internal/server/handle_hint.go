package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/playperu/treasurehunt/internal/hunt"
	"github.com/playperu/treasurehunt/internal/metrics"
)

type HintResponse struct {
	HintNumber     int     `json:"hintNumber"`
	Hint           string  `json:"hint"`
	HintsUsed      int     `json:"hintsUsed"`
	HintsRemaining int     `json:"hintsRemaining"`
	NextHintAt     *string `json:"nextHintAt"`
}

// HintCooldownResponse is the 429 body sent while the hint cooldown runs.
type HintCooldownResponse struct {
	Error             string `json:"error"`
	RetryAfterSeconds int    `json:"retryAfterSeconds"`
	Wait              string `json:"wait"`
}

func handleHint(store Store, broker *Broker, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadPlay(w, r, store)
		if !ok || !requireActive(w, p) {
			return
		}

		at := now()
		next, n, err := hunt.RequestHint(p.team, at)
		var cooldown *hunt.CooldownError
		switch {
		case errors.As(err, &cooldown):
			w.Header().Set("Retry-After", strconv.Itoa(cooldown.Seconds()))
			writeJSON(w, http.StatusTooManyRequests, HintCooldownResponse{
				Error:             cooldown.Error(),
				RetryAfterSeconds: cooldown.Seconds(),
				Wait:              cooldown.Wait(),
			})
			return
		case err != nil:
			writeError(w, http.StatusConflict, err.Error())
			return
		}

		target, ok := hunt.Target(p.team, p.path)
		if !ok {
			writeError(w, http.StatusConflict, hunt.ErrNoPath.Error())
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
		metrics.HintsRevealed.Inc()

		broker.PublishTeam(p.session.ID, next.ID, Event{
			Type:        eventHintRevealed,
			TeamName:    next.Name,
			PlayerName:  p.player.Name,
			StageNumber: next.CurrentStage + 1,
			HintNumber:  n,
		})

		resp := HintResponse{
			HintNumber:     n,
			Hint:           target.Hints[n-1].In(r.URL.Query().Get("lang")),
			HintsUsed:      next.HintsUsed,
			HintsRemaining: hunt.HintsRemaining(next),
		}
		if resp.HintsRemaining > 0 {
			resp.NextHintAt = formatTimePtr(hunt.NextHintAt(next))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
