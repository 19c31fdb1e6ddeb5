package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "treasurehunt"

var errNoSession = errors.New("no valid session")

// playerSession is what an authenticated player request carries. TeamID
// is read from the database on every request so team moves apply at
// once.
type playerSession struct {
	PlayerID  string
	SessionID string
	TeamID    string
	Name      string
}

type playerClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// tokens issues and verifies HS256 player tokens.
type tokens struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func (t tokens) issue(playerID, sessionID string) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	claims := playerClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing player token: %w", err)
	}
	return signed, expires, nil
}

func (t tokens) parse(raw string) (playerClaims, error) {
	var claims playerClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return playerClaims{}, errNoSession
	}
	if claims.Subject == "" || claims.SessionID == "" {
		return playerClaims{}, errNoSession
	}
	return claims, nil
}

func bearerToken(r *http.Request) (string, bool) {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return token, found && token != ""
}
