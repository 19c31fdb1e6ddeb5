package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/playperu/treasurehunt/internal/hunt"
)

const msgStaleTeam = "team state changed, reload and retry"

func handleStart(logger *slog.Logger, store Store, broker *Broker, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadPlay(w, r, store)
		if !ok || !requireActive(w, p) {
			return
		}
		if len(p.path) == 0 {
			writeError(w, http.StatusConflict, hunt.ErrNoPath.Error())
			return
		}

		next, err := hunt.Start(p.team, now())
		if err != nil {
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

		logger.Info("team started", "session_id", p.session.ID, "team_id", next.ID, "player_id", p.player.PlayerID)
		broker.PublishTeam(p.session.ID, next.ID, Event{
			Type:       eventTeamStarted,
			TeamName:   next.Name,
			PlayerName: p.player.Name,
		})

		p.team = next
		writeGameState(w, r, store, p, now())
	}
}
