package server

import (
	"net/http"
)

func handleAdminLogout(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(adminCookieName)
		if err == nil && cookie.Value != "" {
			store.DeleteAdminSession(r.Context(), cookie.Value)
		}

		setAdminCookie(w, "", 0)

		writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
	}
}
