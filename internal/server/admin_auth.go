package server

import (
	"net/http"
	"time"
)

type adminSession struct {
	AdminID string
	Email   string
}

const (
	adminCookieName   = "admin_session"
	// Same lifetime as the stored session, see AdminFromSession.
	adminCookieMaxAge = 7 * 24 * time.Hour
)

func setAdminCookie(w http.ResponseWriter, value string, maxAge time.Duration) {
	seconds := int(maxAge / time.Second)
	if value == "" {
		seconds = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   seconds,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
