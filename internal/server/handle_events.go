package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	sseRetry        = 3 * time.Second
	ssePingInterval = 30 * time.Second
)

func handleEvents(logger *slog.Logger, store Store, tok tokens, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			writeError(w, http.StatusUnauthorized, "token query parameter required")
			return
		}

		sess, err := playerFromToken(r.Context(), store, tok, token)
		if errors.Is(err, errNoSession) {
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if sess.TeamID == "" {
			writeError(w, http.StatusConflict, "no team assigned")
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		// Subscribe before the headers go out so a client that saw them
		// cannot miss the next event.
		topic := teamTopic(sess.TeamID)
		ch := broker.Subscribe(topic)
		defer broker.Unsubscribe(topic, ch)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		// Browsers reconnect after retry ms; the connected event tells the
		// client to refetch state it may have missed while away.
		fmt.Fprintf(w, "retry: %d\n", sseRetry.Milliseconds())
		fmt.Fprintf(w, "event: state\ndata: %s\n\n", broker.encode(Event{
			Type:      eventConnected,
			SessionID: sess.SessionID,
			TeamID:    sess.TeamID,
		}))
		flusher.Flush()
		logger.Debug("event stream opened", "team_id", sess.TeamID, "player_id", sess.PlayerID)

		ping := time.NewTicker(ssePingInterval)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-ch:
				fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
