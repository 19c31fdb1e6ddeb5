package server

import (
	"context"
	"errors"
	"net/http"
)

type ctxKey int

const (
	ctxKeyAdmin ctxKey = iota
	ctxKeyPlayer
)

func adminAuthMiddleware(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(adminCookieName)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			sess, err := store.AdminFromSession(r.Context(), cookie.Value)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyAdmin, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func playerAuthMiddleware(store Store, tok tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid or missing session token")
				return
			}
			sess, err := playerFromToken(r.Context(), store, tok, raw)
			if errors.Is(err, errNoSession) {
				writeError(w, http.StatusUnauthorized, "invalid or missing session token")
				return
			}
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyPlayer, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// playerFromToken verifies raw and loads the player it names. A player
// removed from the roster, or moved to another session, loses access.
func playerFromToken(ctx context.Context, store Store, tok tokens, raw string) (playerSession, error) {
	claims, err := tok.parse(raw)
	if err != nil {
		return playerSession{}, err
	}
	p, err := store.GetPlayer(ctx, claims.Subject)
	if errors.Is(err, ErrNotFound) {
		return playerSession{}, errNoSession
	}
	if err != nil {
		return playerSession{}, err
	}
	if p.SessionID != claims.SessionID {
		return playerSession{}, errNoSession
	}
	return playerSession{
		PlayerID:  p.ID,
		SessionID: p.SessionID,
		TeamID:    p.TeamID,
		Name:      p.Name,
	}, nil
}

func adminFrom(r *http.Request) adminSession {
	return r.Context().Value(ctxKeyAdmin).(adminSession)
}

func playerFrom(r *http.Request) playerSession {
	return r.Context().Value(ctxKeyPlayer).(playerSession)
}
