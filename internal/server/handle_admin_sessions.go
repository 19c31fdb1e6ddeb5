package server

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/treasurehunt/internal/hunt"
)

// SessionRequest is the body for creating or updating a hunt session.
type SessionRequest struct {
	Name    string `json:"name"`
	Keyword string `json:"keyword"`
	Status  string `json:"status"`
}

// SessionResponse is a hunt session as the admin sees it.
type SessionResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Keyword   string `json:"keyword"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// SessionSummary is one row of the session list.
type SessionSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Keyword       string `json:"keyword"`
	Status        string `json:"status"`
	LocationCount int    `json:"locationCount"`
	TeamCount     int    `json:"teamCount"`
	PlayerCount   int    `json:"playerCount"`
	CreatedAt     string `json:"createdAt"`
}

// StatusResponse acknowledges a request without a body of its own.
type StatusResponse struct {
	Status string `json:"status"`
}

var keywordPattern = regexp.MustCompile(`^[A-Z0-9-]{3,32}$`)

// normalize trims fields, upper-cases the keyword and defaults status
// to draft. It returns a message describing the first invalid field.
func (req *SessionRequest) normalize() string {
	req.Name = strings.TrimSpace(req.Name)
	req.Keyword = strings.ToUpper(strings.TrimSpace(req.Keyword))
	req.Status = strings.TrimSpace(req.Status)
	if req.Status == "" {
		req.Status = string(hunt.SessionStatusDraft)
	}

	switch {
	case req.Name == "":
		return "name is required"
	case !keywordPattern.MatchString(req.Keyword):
		return "keyword must be 3-32 letters, digits or dashes"
	}
	switch hunt.SessionStatus(req.Status) {
	case hunt.SessionStatusDraft, hunt.SessionStatusActive, hunt.SessionStatusEnded:
		return ""
	}
	return "status must be draft, active or ended"
}

func newSessionResponse(s hunt.Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		Name:      s.Name,
		Keyword:   s.Keyword,
		Status:    string(s.Status),
		CreatedAt: formatTime(s.CreatedAt),
	}
}

func handleAdminListSessions(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := store.ListSessions(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, sessions)
	}
}

func handleAdminCreateSession(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SessionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.normalize(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		sess, err := store.CreateSession(r.Context(), req)
		if errors.Is(err, ErrConflict) {
			writeError(w, http.StatusConflict, "keyword already in use")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, newSessionResponse(sess))
	}
}

func handleAdminGetSession(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := store.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, newSessionResponse(sess))
	}
}

func handleAdminUpdateSession(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SessionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.normalize(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		sess, err := store.UpdateSession(r.Context(), chi.URLParam(r, "sessionID"), req)
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "session not found")
			return
		case errors.Is(err, ErrConflict):
			writeError(w, http.StatusConflict, "keyword already in use")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, newSessionResponse(sess))
	}
}

func handleAdminDeleteSession(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")

		sess, err := store.GetSession(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if sess.Status == hunt.SessionStatusActive {
			writeError(w, http.StatusConflict, "cannot delete an active session")
			return
		}

		if err := store.DeleteSession(r.Context(), id); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
	}
}

// sessionFromURL loads the {sessionID} route parameter, writing a 404
// when it does not exist.
func sessionFromURL(w http.ResponseWriter, r *http.Request, store Store) (hunt.Session, bool) {
	sess, err := store.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return sess, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return sess, false
	}
	return sess, true
}
