package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

const liveWriteTimeout = 5 * time.Second

// handleAdminLive streams the session's events to an admin dashboard.
// The first message is always a "connected" event, sent once the feed
// is subscribed.
func handleAdminLive(logger *slog.Logger, store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFromURL(w, r, store)
		if !ok {
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		// Admins never send anything; CloseRead handles pings and
		// cancels ctx when the peer goes away.
		ctx := conn.CloseRead(r.Context())

		topic := sessionTopic(sess.ID)
		ch := broker.Subscribe(topic)
		defer broker.Unsubscribe(topic, ch)

		write := func(data []byte) error {
			wctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
			defer cancel()
			return conn.Write(wctx, websocket.MessageText, data)
		}

		if err := write(broker.encode(Event{Type: eventConnected, SessionID: sess.ID})); err != nil {
			logger.Debug("live feed write failed", "error", err)
			return
		}

		for {
			select {
			case <-ctx.Done():
				conn.Close(websocket.StatusNormalClosure, "")
				return
			case data := <-ch:
				if err := write(data); err != nil {
					logger.Debug("live feed write failed", "session_id", sess.ID, "error", err)
					return
				}
			}
		}
	}
}
