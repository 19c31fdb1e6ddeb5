package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/treasurehunt/internal/hunt"
	"github.com/playperu/treasurehunt/internal/roster"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

var _ Store = (*SQLiteStore)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Admins

func (s *SQLiteStore) AdminByEmail(ctx context.Context, email string) (string, string, error) {
	var id, hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM admins WHERE email = ?
	`, email).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrNotFound
	}
	return id, hash, err
}

func (s *SQLiteStore) CreateAdminSession(ctx context.Context, adminID string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_sessions (id, admin_id) VALUES (?, ?)
	`, id, adminID)
	return id, err
}

func (s *SQLiteStore) DeleteAdminSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) AdminFromSession(ctx context.Context, sessionID string) (adminSession, error) {
	var sess adminSession
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.email
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.id = ? AND s.created_at > strftime('%Y-%m-%dT%H:%M:%fZ', 'now', '-7 days')
	`, sessionID).Scan(&sess.AdminID, &sess.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return adminSession{}, ErrNotFound
	}
	return sess, err
}

func (s *SQLiteStore) CreateAdmin(ctx context.Context, email, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admins (id, email, password_hash) VALUES (?, ?, ?)
		ON CONFLICT (email) DO NOTHING
	`, uuid.NewString(), email, passwordHash)
	return err
}

// Sessions

func scanSession(sc rowScanner) (hunt.Session, error) {
	var sess hunt.Session
	var status, createdAt string
	if err := sc.Scan(&sess.ID, &sess.Name, &sess.Keyword, &status, &createdAt); err != nil {
		return sess, err
	}
	sess.Status = hunt.SessionStatus(status)
	sess.CreatedAt = parseTime(createdAt)
	return sess, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.keyword, s.status, s.created_at,
			(SELECT COUNT(*) FROM locations l WHERE l.session_id = s.id),
			(SELECT COUNT(*) FROM teams t WHERE t.session_id = s.id),
			(SELECT COUNT(*) FROM players p WHERE p.session_id = s.id)
		FROM hunt_sessions s
		ORDER BY s.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []SessionSummary{}
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Keyword, &sum.Status, &sum.CreatedAt,
			&sum.LocationCount, &sum.TeamCount, &sum.PlayerCount); err != nil {
			return nil, err
		}
		sessions = append(sessions, sum)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) CreateSession(ctx context.Context, req SessionRequest) (hunt.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO hunt_sessions (id, name, keyword, status)
		VALUES (?, ?, ?, ?)
		RETURNING id, name, keyword, status, created_at
	`, uuid.NewString(), req.Name, req.Keyword, req.Status)
	sess, err := scanSession(row)
	if isUniqueViolation(err) {
		return hunt.Session{}, ErrConflict
	}
	return sess, err
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (hunt.Session, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx, `
		SELECT id, name, keyword, status, created_at FROM hunt_sessions WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return sess, ErrNotFound
	}
	return sess, err
}

func (s *SQLiteStore) SessionByKeyword(ctx context.Context, keyword string) (hunt.Session, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx, `
		SELECT id, name, keyword, status, created_at FROM hunt_sessions WHERE keyword = ?
	`, keyword))
	if errors.Is(err, sql.ErrNoRows) {
		return sess, ErrNotFound
	}
	return sess, err
}

func (s *SQLiteStore) UpdateSession(ctx context.Context, id string, req SessionRequest) (hunt.Session, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx, `
		UPDATE hunt_sessions SET name = ?, keyword = ?, status = ?
		WHERE id = ?
		RETURNING id, name, keyword, status, created_at
	`, req.Name, req.Keyword, req.Status, id))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return sess, ErrNotFound
	case isUniqueViolation(err):
		return sess, ErrConflict
	}
	return sess, err
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM hunt_sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Locations

func locationColumns(alias string) string {
	cols := []string{"id", "session_id", "code", "name", "riddle", "hints", "lat", "lng",
		"is_start", "is_end", "order_index", "created_at"}
	for i, c := range cols {
		cols[i] = alias + c
	}
	return strings.Join(cols, ", ")
}

func scanLocation(sc rowScanner) (hunt.Location, error) {
	var l hunt.Location
	var name, riddle, hints, createdAt string
	var lat, lng sql.NullFloat64
	err := sc.Scan(&l.ID, &l.SessionID, &l.Code, &name, &riddle, &hints, &lat, &lng,
		&l.IsStart, &l.IsEnd, &l.OrderIndex, &createdAt)
	if err != nil {
		return l, err
	}
	if err := json.Unmarshal([]byte(name), &l.Name); err != nil {
		return l, fmt.Errorf("decoding name of location %s: %w", l.ID, err)
	}
	if err := json.Unmarshal([]byte(riddle), &l.Riddle); err != nil {
		return l, fmt.Errorf("decoding riddle of location %s: %w", l.ID, err)
	}
	if err := json.Unmarshal([]byte(hints), &l.Hints); err != nil {
		return l, fmt.Errorf("decoding hints of location %s: %w", l.ID, err)
	}
	if lat.Valid && lng.Valid {
		l.Lat, l.Lng = &lat.Float64, &lng.Float64
	}
	l.CreatedAt = parseTime(createdAt)
	return l, nil
}

func locationArgs(l hunt.Location) (name, riddle, hints string, lat, lng any) {
	n, _ := json.Marshal(l.Name)
	r, _ := json.Marshal(l.Riddle)
	h, _ := json.Marshal(l.Hints)
	if l.HasGPS() {
		lat, lng = *l.Lat, *l.Lng
	}
	return string(n), string(r), string(h), lat, lng
}

func (s *SQLiteStore) ListLocations(ctx context.Context, sessionID string) ([]hunt.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+locationColumns("")+`
		FROM locations
		WHERE session_id = ?
		ORDER BY order_index, created_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locs := []hunt.Location{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locs = append(locs, l)
	}
	return locs, rows.Err()
}

func (s *SQLiteStore) GetLocation(ctx context.Context, sessionID, id string) (hunt.Location, error) {
	l, err := scanLocation(s.db.QueryRowContext(ctx, `
		SELECT `+locationColumns("")+`
		FROM locations
		WHERE id = ? AND session_id = ?
	`, id, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return l, ErrNotFound
	}
	return l, err
}

func (s *SQLiteStore) CreateLocation(ctx context.Context, loc hunt.Location) (hunt.Location, error) {
	name, riddle, hints, lat, lng := locationArgs(loc)
	created, err := scanLocation(s.db.QueryRowContext(ctx, `
		INSERT INTO locations (id, session_id, code, name, riddle, hints, lat, lng, is_start, is_end, order_index)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+locationColumns(""),
		uuid.NewString(), loc.SessionID, loc.Code, name, riddle, hints, lat, lng,
		boolInt(loc.IsStart), boolInt(loc.IsEnd), loc.OrderIndex))
	if isUniqueViolation(err) {
		return hunt.Location{}, ErrConflict
	}
	return created, err
}

func (s *SQLiteStore) UpdateLocation(ctx context.Context, loc hunt.Location) (hunt.Location, error) {
	name, riddle, hints, lat, lng := locationArgs(loc)
	updated, err := scanLocation(s.db.QueryRowContext(ctx, `
		UPDATE locations
		SET code = ?, name = ?, riddle = ?, hints = ?, lat = ?, lng = ?,
			is_start = ?, is_end = ?, order_index = ?
		WHERE id = ? AND session_id = ?
		RETURNING `+locationColumns(""),
		loc.Code, name, riddle, hints, lat, lng,
		boolInt(loc.IsStart), boolInt(loc.IsEnd), loc.OrderIndex, loc.ID, loc.SessionID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return hunt.Location{}, ErrNotFound
	case isUniqueViolation(err):
		return hunt.Location{}, ErrConflict
	}
	return updated, err
}

func (s *SQLiteStore) DeleteLocation(ctx context.Context, sessionID, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM locations WHERE id = ? AND session_id = ?
	`, id, sessionID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Teams

const teamColumns = `id, session_id, name, current_stage, hints_used, last_hint_at,
	started_at, finished_at, gps_hint_enabled, created_at`

func scanTeam(sc rowScanner) (hunt.Team, error) {
	var t hunt.Team
	var lastHint, started, finished sql.NullString
	var createdAt string
	err := sc.Scan(&t.ID, &t.SessionID, &t.Name, &t.CurrentStage, &t.HintsUsed,
		&lastHint, &started, &finished, &t.GPSHintEnabled, &createdAt)
	if err != nil {
		return t, err
	}
	t.LastHintAt = parseNullTime(lastHint)
	t.StartedAt = parseNullTime(started)
	t.FinishedAt = parseNullTime(finished)
	t.CreatedAt = parseTime(createdAt)
	return t, nil
}

func (s *SQLiteStore) ListTeams(ctx context.Context, sessionID string) ([]hunt.Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+teamColumns+`
		FROM teams
		WHERE session_id = ?
		ORDER BY created_at, name
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := []hunt.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *SQLiteStore) GetTeam(ctx context.Context, sessionID, id string) (hunt.Team, error) {
	t, err := scanTeam(s.db.QueryRowContext(ctx, `
		SELECT `+teamColumns+` FROM teams WHERE id = ? AND session_id = ?
	`, id, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

func (s *SQLiteStore) CreateTeam(ctx context.Context, sessionID string, req TeamRequest) (hunt.Team, error) {
	t, err := scanTeam(s.db.QueryRowContext(ctx, `
		INSERT INTO teams (id, session_id, name, gps_hint_enabled)
		VALUES (?, ?, ?, ?)
		RETURNING `+teamColumns,
		uuid.NewString(), sessionID, req.Name, boolInt(req.GPSHintEnabled)))
	if isUniqueViolation(err) {
		return hunt.Team{}, ErrConflict
	}
	return t, err
}

func (s *SQLiteStore) UpdateTeam(ctx context.Context, sessionID, id string, req TeamRequest) (hunt.Team, error) {
	t, err := scanTeam(s.db.QueryRowContext(ctx, `
		UPDATE teams SET name = ?, gps_hint_enabled = ?
		WHERE id = ? AND session_id = ?
		RETURNING `+teamColumns,
		req.Name, boolInt(req.GPSHintEnabled), id, sessionID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return hunt.Team{}, ErrNotFound
	case isUniqueViolation(err):
		return hunt.Team{}, ErrConflict
	}
	return t, err
}

func (s *SQLiteStore) DeleteTeam(ctx context.Context, sessionID, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM teams WHERE id = ? AND session_id = ?
	`, id, sessionID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) TeamHasPlayers(ctx context.Context, teamID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM players WHERE team_id = ?
	`, teamID).Scan(&count)
	return count > 0, err
}

func (s *SQLiteStore) SaveProgress(ctx context.Context, prev, next hunt.Team) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE teams
		SET current_stage = ?, hints_used = ?, last_hint_at = ?, started_at = ?, finished_at = ?
		WHERE id = ? AND current_stage = ? AND hints_used = ?
			AND (started_at IS NULL) = ? AND (finished_at IS NULL) = ?
	`, next.CurrentStage, next.HintsUsed, nullTime(next.LastHintAt), nullTime(next.StartedAt), nullTime(next.FinishedAt),
		prev.ID, prev.CurrentStage, prev.HintsUsed, boolInt(prev.StartedAt == nil), boolInt(prev.FinishedAt == nil))
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// Players

const playerColumns = `id, session_id, COALESCE(team_id, ''), name, email, created_at`

func scanPlayer(sc rowScanner) (hunt.Player, error) {
	var p hunt.Player
	var createdAt string
	if err := sc.Scan(&p.ID, &p.SessionID, &p.TeamID, &p.Name, &p.Email, &createdAt); err != nil {
		return p, err
	}
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}

func (s *SQLiteStore) ListPlayers(ctx context.Context, sessionID string) ([]PlayerItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.email, COALESCE(p.team_id, ''), COALESCE(t.name, ''), p.created_at
		FROM players p
		LEFT JOIN teams t ON t.id = p.team_id
		WHERE p.session_id = ?
		ORDER BY COALESCE(t.name, ''), p.name
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []PlayerItem{}
	for rows.Next() {
		var p PlayerItem
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.TeamID, &p.TeamName, &p.CreatedAt); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *SQLiteStore) GetPlayer(ctx context.Context, id string) (hunt.Player, error) {
	p, err := scanPlayer(s.db.QueryRowContext(ctx, `
		SELECT `+playerColumns+` FROM players WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

func (s *SQLiteStore) PlayerByEmail(ctx context.Context, sessionID, email string) (hunt.Player, error) {
	p, err := scanPlayer(s.db.QueryRowContext(ctx, `
		SELECT `+playerColumns+` FROM players WHERE session_id = ? AND email = ?
	`, sessionID, email))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

func (s *SQLiteStore) TeamMembers(ctx context.Context, teamID string) ([]hunt.Player, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+playerColumns+` FROM players WHERE team_id = ? ORDER BY name
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []hunt.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// ImportPlayers creates missing teams and upserts players by email in
// one transaction. A row without a team keeps the player's current team.
func (s *SQLiteStore) ImportPlayers(ctx context.Context, sessionID string, entries []roster.Entry) (ImportResponse, error) {
	resp := ImportResponse{Teams: []string{}}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return resp, err
	}
	defer tx.Rollback()

	teamIDs := make(map[string]string)
	for _, name := range roster.Teams(entries) {
		var id string
		err := tx.QueryRowContext(ctx, `
			SELECT id FROM teams WHERE session_id = ? AND name = ?
		`, sessionID, name).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			id = uuid.NewString()
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO teams (id, session_id, name) VALUES (?, ?, ?)
			`, id, sessionID, name); err != nil {
				return resp, fmt.Errorf("creating team %q: %w", name, err)
			}
			resp.TeamsCreated++
		} else if err != nil {
			return resp, err
		}
		teamIDs[name] = id
		resp.Teams = append(resp.Teams, name)
	}

	for _, e := range entries {
		var teamID any
		if e.Team != "" {
			teamID = teamIDs[e.Team]
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO players (id, session_id, team_id, name, email)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (session_id, email) DO UPDATE
			SET name = excluded.name, team_id = COALESCE(excluded.team_id, players.team_id)
		`, uuid.NewString(), sessionID, teamID, e.Name, e.Email); err != nil {
			return resp, fmt.Errorf("importing player %s: %w", e.Email, err)
		}
		resp.Players++
	}

	if err := tx.Commit(); err != nil {
		return resp, err
	}
	return resp, nil
}

// Paths

func (s *SQLiteStore) CreatePaths(ctx context.Context, sessionID string, steps []hunt.PathStep) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, st := range steps {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO team_paths (team_id, session_id, location_id, stage_order)
			VALUES (?, ?, ?, ?)
		`, st.TeamID, sessionID, st.LocationID, st.StageOrder); err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) DeletePaths(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM team_paths WHERE session_id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) CountPaths(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT team_id) FROM team_paths WHERE session_id = ?
	`, sessionID).Scan(&count)
	return count, err
}

func (s *SQLiteStore) TeamPath(ctx context.Context, teamID string) ([]hunt.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+locationColumns("l.")+`
		FROM team_paths tp
		JOIN locations l ON l.id = tp.location_id
		WHERE tp.team_id = ?
		ORDER BY tp.stage_order
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var path []hunt.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		path = append(path, l)
	}
	return path, rows.Err()
}

func (s *SQLiteStore) ListPaths(ctx context.Context, sessionID string) (map[string][]hunt.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tp.team_id, `+locationColumns("l.")+`
		FROM team_paths tp
		JOIN locations l ON l.id = tp.location_id
		WHERE tp.session_id = ?
		ORDER BY tp.team_id, tp.stage_order
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := make(map[string][]hunt.Location)
	for rows.Next() {
		var teamID string
		l, err := scanLocation(prefixScanner{rows, &teamID})
		if err != nil {
			return nil, err
		}
		paths[teamID] = append(paths[teamID], l)
	}
	return paths, rows.Err()
}

// prefixScanner scans one leading column into first before handing the
// rest to a row scanner.
type prefixScanner struct {
	rows  rowScanner
	first *string
}

func (p prefixScanner) Scan(dest ...any) error {
	return p.rows.Scan(append([]any{p.first}, dest...)...)
}
