package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/playperu/treasurehunt/internal/database"
	"github.com/playperu/treasurehunt/internal/handler/health"
	"github.com/playperu/treasurehunt/internal/hunt"
	"github.com/playperu/treasurehunt/internal/lock"
	"github.com/playperu/treasurehunt/internal/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := migrations.Run(context.Background(), db); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return db
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testApp struct {
	t      *testing.T
	router http.Handler
	store  *SQLiteStore
	locker *lock.LocalLocker
	clock  *testClock
	// demoID is the seeded "Lima Centro" session.
	demoID string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := setupTestDB(t)
	store := NewSQLiteStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := SeedDemo(context.Background(), logger, store); err != nil {
		t.Fatalf("seed: %v", err)
	}
	sess, err := store.SessionByKeyword(context.Background(), demoKeyword)
	if err != nil {
		t.Fatalf("demo session: %v", err)
	}

	app := &testApp{
		t:      t,
		store:  store,
		locker: lock.NewLocalLocker(),
		clock:  &testClock{now: time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)},
		demoID: sess.ID,
	}
	var seed uint64
	app.router = newRouter(logger, Deps{
		Store:     store,
		Locker:    app.locker,
		Checks:    map[string]health.Checker{"sqlite": health.CheckerFunc(db.PingContext)},
		TokenKey:  []byte("test-secret"),
		TokenTTL:  time.Hour,
		PublicURL: "https://hunt.example.com",
		Now:       app.clock.Now,
		NewRand: func() *rand.Rand {
			seed++
			return rand.New(rand.NewPCG(seed, seed+1))
		},
	})
	return app
}

type requestOption func(*http.Request)

func withCookies(cookies []*http.Cookie) requestOption {
	return func(r *http.Request) {
		for _, c := range cookies {
			r.AddCookie(c)
		}
	}
}

func withToken(token string) requestOption {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func (a *testApp) do(method, path string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("encoding body: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	for _, opt := range opts {
		opt(req)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) adminLogin() []*http.Cookie {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/admin/login", AdminLoginRequest{Email: "admin@playperu.com", Password: "changeme"})
	if w.Code != http.StatusOK {
		a.t.Fatalf("admin login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	return w.Result().Cookies()
}

func (a *testApp) playerLogin(email string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/login", LoginRequest{Keyword: demoKeyword, Email: email})
	if w.Code != http.StatusOK {
		a.t.Fatalf("player login %s: expected 200, got %d: %s", email, w.Code, w.Body.String())
	}
	return decode[LoginResponse](a.t, w).Token
}

// generatePaths generates paths for the demo session through the admin API.
func (a *testApp) generatePaths() GeneratePathsResponse {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/admin/sessions/"+a.demoID+"/paths",
		GeneratePathsRequest{Regenerate: true}, withCookies(a.adminLogin()))
	if w.Code != http.StatusCreated {
		a.t.Fatalf("generate paths: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return decode[GeneratePathsResponse](a.t, w)
}

// pathOf returns the stored path of the team the player belongs to.
func (a *testApp) pathOf(email string) []hunt.Location {
	a.t.Helper()
	ctx := context.Background()
	p, err := a.store.PlayerByEmail(ctx, a.demoID, email)
	if err != nil {
		a.t.Fatalf("player %s: %v", email, err)
	}
	path, err := a.store.TeamPath(ctx, p.TeamID)
	if err != nil {
		a.t.Fatalf("path of %s: %v", email, err)
	}
	return path
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding %T: %v", v, err)
	}
	return v
}

func (a *testApp) teamID(name string) string {
	a.t.Helper()
	teams, err := a.store.ListTeams(context.Background(), a.demoID)
	if err != nil {
		a.t.Fatalf("list teams: %v", err)
	}
	for _, team := range teams {
		if team.Name == name {
			return team.ID
		}
	}
	a.t.Fatalf("team %q not found", name)
	return ""
}

func textEN(s string) hunt.Text {
	return hunt.Text{EN: s}
}
