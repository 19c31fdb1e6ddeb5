package server

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/playperu/treasurehunt/internal/hunt"
)

// LocationRequest is the body for creating or updating a location.
type LocationRequest struct {
	Code       string      `json:"code"`
	Name       hunt.Text   `json:"name"`
	Riddle     hunt.Text   `json:"riddle"`
	Hints      []hunt.Text `json:"hints"`
	Lat        *float64    `json:"lat"`
	Lng        *float64    `json:"lng"`
	IsStart    bool        `json:"isStart"`
	IsEnd      bool        `json:"isEnd"`
	OrderIndex int         `json:"orderIndex"`
}

type LocationResponse struct {
	ID         string      `json:"id"`
	SessionID  string      `json:"sessionId"`
	Code       string      `json:"code"`
	Name       hunt.Text   `json:"name"`
	Riddle     hunt.Text   `json:"riddle"`
	Hints      []hunt.Text `json:"hints"`
	Lat        *float64    `json:"lat"`
	Lng        *float64    `json:"lng"`
	IsStart    bool        `json:"isStart"`
	IsEnd      bool        `json:"isEnd"`
	OrderIndex int         `json:"orderIndex"`
	CreatedAt  string      `json:"createdAt"`
}

var codePattern = regexp.MustCompile(`^[A-Z0-9]{3,16}$`)

const qrSize = 256

func generateCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
}

func (req *LocationRequest) normalize() string {
	req.Code = hunt.NormalizeCode(req.Code)
	if req.Code == "" {
		req.Code = generateCode()
	}
	req.Name.EN = strings.TrimSpace(req.Name.EN)
	req.Name.ES = strings.TrimSpace(req.Name.ES)

	switch {
	case !codePattern.MatchString(req.Code):
		return "code must be 3-16 letters or digits"
	case req.Name.EN == "":
		return "name.en is required"
	case len(req.Hints) > hunt.HintsPerLocation:
		return fmt.Sprintf("a location has at most %d hints", hunt.HintsPerLocation)
	case (req.Lat == nil) != (req.Lng == nil):
		return "lat and lng must be set together"
	case req.Lat != nil && (math.Abs(*req.Lat) > 90 || math.Abs(*req.Lng) > 180):
		return "lat or lng out of range"
	case req.IsStart && req.IsEnd:
		return "a location cannot be both start and end"
	case req.OrderIndex < 0:
		return "orderIndex must not be negative"
	}
	return ""
}

func (req LocationRequest) location(sessionID, id string) hunt.Location {
	loc := hunt.Location{
		ID:         id,
		SessionID:  sessionID,
		Code:       req.Code,
		Name:       req.Name,
		Riddle:     req.Riddle,
		Lat:        req.Lat,
		Lng:        req.Lng,
		IsStart:    req.IsStart,
		IsEnd:      req.IsEnd,
		OrderIndex: req.OrderIndex,
	}
	copy(loc.Hints[:], req.Hints)
	return loc
}

func newLocationResponse(l hunt.Location) LocationResponse {
	return LocationResponse{
		ID:         l.ID,
		SessionID:  l.SessionID,
		Code:       l.Code,
		Name:       l.Name,
		Riddle:     l.Riddle,
		Hints:      l.Hints[:],
		Lat:        l.Lat,
		Lng:        l.Lng,
		IsStart:    l.IsStart,
		IsEnd:      l.IsEnd,
		OrderIndex: l.OrderIndex,
		CreatedAt:  formatTime(l.CreatedAt),
	}
}

// locationConflict explains why loc cannot coexist with the session's
// other locations, or returns "".
func locationConflict(existing []hunt.Location, loc hunt.Location) string {
	for _, other := range existing {
		if other.ID == loc.ID {
			continue
		}
		switch {
		case other.Code == loc.Code:
			return fmt.Sprintf("code %s already in use", loc.Code)
		case loc.IsStart && other.IsStart:
			return "session already has a start location"
		case loc.IsEnd && other.IsEnd:
			return "session already has an end location"
		}
	}
	return ""
}

func handleAdminListLocations(store Store) http.HandlerFunc {
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
		resp := make([]LocationResponse, len(locs))
		for i, l := range locs {
			resp[i] = newLocationResponse(l)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleAdminGetLocation(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc, err := store.GetLocation(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "locationID"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "location not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, newLocationResponse(loc))
	}
}

func handleAdminCreateLocation(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFromURL(w, r, store)
		if !ok {
			return
		}

		var req LocationRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.normalize(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		saveLocation(w, r, store, req.location(sess.ID, ""), http.StatusCreated)
	}
}

func handleAdminUpdateLocation(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, id := chi.URLParam(r, "sessionID"), chi.URLParam(r, "locationID")
		if _, err := store.GetLocation(r.Context(), sessionID, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "location not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		var req LocationRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.normalize(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		saveLocation(w, r, store, req.location(sessionID, id), http.StatusOK)
	}
}

// saveLocation creates loc when it has no ID and updates it otherwise.
func saveLocation(w http.ResponseWriter, r *http.Request, store Store, loc hunt.Location, status int) {
	existing, err := store.ListLocations(r.Context(), loc.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if msg := locationConflict(existing, loc); msg != "" {
		writeError(w, http.StatusConflict, msg)
		return
	}

	var saved hunt.Location
	if loc.ID == "" {
		saved, err = store.CreateLocation(r.Context(), loc)
	} else {
		saved, err = store.UpdateLocation(r.Context(), loc)
	}
	switch {
	case errors.Is(err, ErrConflict):
		writeError(w, http.StatusConflict, "code, start or end already taken")
		return
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "location not found")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, status, newLocationResponse(saved))
}

func handleAdminDeleteLocation(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, id := chi.URLParam(r, "sessionID"), chi.URLParam(r, "locationID")

		paths, err := store.ListPaths(r.Context(), sessionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		for _, path := range paths {
			for _, l := range path {
				if l.ID == id {
					writeError(w, http.StatusConflict, "location is part of generated paths, regenerate after removing it")
					return
				}
			}
		}

		if err := store.DeleteLocation(r.Context(), sessionID, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "location not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
	}
}

// qrContent is what a printed location QR code encodes: a play link
// when the public URL is known, the bare code otherwise.
func qrContent(publicURL, code string) string {
	if publicURL == "" {
		return code
	}
	return strings.TrimRight(publicURL, "/") + "/play?code=" + url.QueryEscape(code)
}

func handleAdminLocationQR(store Store, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc, err := store.GetLocation(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "locationID"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "location not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		png, err := qrcode.Encode(qrContent(publicURL, loc.Code), qrcode.Medium, qrSize)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", loc.Code+".png"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	}
}
