package server

import (
	"context"
	"errors"
	"strings"

	"github.com/playperu/treasurehunt/internal/hunt"
	"github.com/playperu/treasurehunt/internal/roster"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a unique constraint hit or a lost progress update.
	ErrConflict = errors.New("conflict")
)

type Store interface {
	AdminByEmail(ctx context.Context, email string) (id, passwordHash string, err error)
	CreateAdminSession(ctx context.Context, adminID string) (string, error)
	DeleteAdminSession(ctx context.Context, sessionID string) error
	AdminFromSession(ctx context.Context, sessionID string) (adminSession, error)

	ListSessions(ctx context.Context) ([]SessionSummary, error)
	CreateSession(ctx context.Context, req SessionRequest) (hunt.Session, error)
	GetSession(ctx context.Context, id string) (hunt.Session, error)
	SessionByKeyword(ctx context.Context, keyword string) (hunt.Session, error)
	UpdateSession(ctx context.Context, id string, req SessionRequest) (hunt.Session, error)
	DeleteSession(ctx context.Context, id string) error

	ListLocations(ctx context.Context, sessionID string) ([]hunt.Location, error)
	GetLocation(ctx context.Context, sessionID, id string) (hunt.Location, error)
	CreateLocation(ctx context.Context, loc hunt.Location) (hunt.Location, error)
	UpdateLocation(ctx context.Context, loc hunt.Location) (hunt.Location, error)
	DeleteLocation(ctx context.Context, sessionID, id string) error

	ListTeams(ctx context.Context, sessionID string) ([]hunt.Team, error)
	GetTeam(ctx context.Context, sessionID, id string) (hunt.Team, error)
	CreateTeam(ctx context.Context, sessionID string, req TeamRequest) (hunt.Team, error)
	UpdateTeam(ctx context.Context, sessionID, id string, req TeamRequest) (hunt.Team, error)
	DeleteTeam(ctx context.Context, sessionID, id string) error
	TeamHasPlayers(ctx context.Context, teamID string) (bool, error)
	// SaveProgress writes next only if the stored row still matches prev,
	// otherwise it returns ErrConflict.
	SaveProgress(ctx context.Context, prev, next hunt.Team) error

	ListPlayers(ctx context.Context, sessionID string) ([]PlayerItem, error)
	GetPlayer(ctx context.Context, id string) (hunt.Player, error)
	PlayerByEmail(ctx context.Context, sessionID, email string) (hunt.Player, error)
	TeamMembers(ctx context.Context, teamID string) ([]hunt.Player, error)
	ImportPlayers(ctx context.Context, sessionID string, entries []roster.Entry) (ImportResponse, error)

	CreatePaths(ctx context.Context, sessionID string, steps []hunt.PathStep) error
	DeletePaths(ctx context.Context, sessionID string) error
	CountPaths(ctx context.Context, sessionID string) (int, error)
	TeamPath(ctx context.Context, teamID string) ([]hunt.Location, error)
	ListPaths(ctx context.Context, sessionID string) (map[string][]hunt.Location, error)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE")
}
