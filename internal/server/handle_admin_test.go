package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAdminLogin(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name     string
		body     AdminLoginRequest
		wantCode int
	}{
		{"valid", AdminLoginRequest{Email: "Admin@PlayPeru.com ", Password: "changeme"}, http.StatusOK},
		{"wrong password", AdminLoginRequest{Email: "admin@playperu.com", Password: "nope"}, http.StatusUnauthorized},
		{"unknown email", AdminLoginRequest{Email: "who@example.com", Password: "changeme"}, http.StatusUnauthorized},
		{"missing fields", AdminLoginRequest{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(http.MethodPost, "/api/admin/login", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			if tt.wantCode == http.StatusOK && len(w.Result().Cookies()) == 0 {
				t.Fatal("expected session cookie")
			}
		})
	}
}

func TestAdminMeAndLogout(t *testing.T) {
	app := newTestApp(t)
	cookies := app.adminLogin()

	w := app.do(http.MethodGet, "/api/admin/me", nil, withCookies(cookies))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if me := decode[AdminMeResponse](t, w); me.Email != demoAdminEmail {
		t.Errorf("expected email %s, got %s", demoAdminEmail, me.Email)
	}

	w = app.do(http.MethodPost, "/api/admin/logout", nil, withCookies(cookies))
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}

	w = app.do(http.MethodGet, "/api/admin/me", nil, withCookies(cookies))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("after logout: expected 401, got %d", w.Code)
	}
}

func TestAdminRoutesRequireLogin(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{
		"/api/admin/sessions",
		"/api/admin/sessions/" + app.demoID + "/locations",
		"/api/admin/sessions/" + app.demoID + "/paths/status",
	} {
		w := app.do(http.MethodGet, path, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, w.Code)
		}
	}
}

func TestAdminSessionCRUD(t *testing.T) {
	app := newTestApp(t)
	auth := withCookies(app.adminLogin())

	w := app.do(http.MethodPost, "/api/admin/sessions", SessionRequest{Name: " Cusco ", Keyword: "cusco-24"}, auth)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[SessionResponse](t, w)
	if created.Keyword != "CUSCO-24" || created.Status != "draft" || created.Name != "Cusco" {
		t.Errorf("unexpected session %+v", created)
	}

	w = app.do(http.MethodPost, "/api/admin/sessions", SessionRequest{Name: "Other", Keyword: "CUSCO-24"}, auth)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate keyword: expected 409, got %d", w.Code)
	}
	w = app.do(http.MethodPost, "/api/admin/sessions", SessionRequest{Name: "Other", Keyword: "OTHER", Status: "paused"}, auth)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad status: expected 400, got %d", w.Code)
	}
	w = app.do(http.MethodPost, "/api/admin/sessions", SessionRequest{Name: "Other", Keyword: "x"}, auth)
	if w.Code != http.StatusBadRequest {
		t.Errorf("short keyword: expected 400, got %d", w.Code)
	}

	w = app.do(http.MethodGet, "/api/admin/sessions", nil, auth)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	list := decode[[]SessionSummary](t, w)
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
	for _, s := range list {
		if s.ID == app.demoID && (s.LocationCount != 5 || s.TeamCount != 2 || s.PlayerCount != 4) {
			t.Errorf("demo counts = %d/%d/%d, want 5/2/4", s.LocationCount, s.TeamCount, s.PlayerCount)
		}
	}

	path := "/api/admin/sessions/" + created.ID
	w = app.do(http.MethodPut, path, SessionRequest{Name: "Cusco", Keyword: "CUSCO-24", Status: "active"}, auth)
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := decode[SessionResponse](t, w); got.Status != "active" {
		t.Errorf("expected active, got %s", got.Status)
	}

	w = app.do(http.MethodDelete, path, nil, auth)
	if w.Code != http.StatusConflict {
		t.Fatalf("delete active: expected 409, got %d", w.Code)
	}

	app.do(http.MethodPut, path, SessionRequest{Name: "Cusco", Keyword: "CUSCO-24", Status: "ended"}, auth)
	w = app.do(http.MethodDelete, path, nil, auth)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = app.do(http.MethodGet, path, nil, auth)
	if w.Code != http.StatusNotFound {
		t.Errorf("after delete: expected 404, got %d", w.Code)
	}
}

func TestAdminLocations(t *testing.T) {
	app := newTestApp(t)
	auth := withCookies(app.adminLogin())
	base := "/api/admin/sessions/" + app.demoID + "/locations"

	w := app.do(http.MethodPost, base, LocationRequest{Name: textEN("Museo de Arte"), OrderIndex: 5}, auth)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[LocationResponse](t, w)
	if !codePattern.MatchString(created.Code) {
		t.Errorf("generated code %q does not match %s", created.Code, codePattern)
	}
	if len(created.Hints) != 3 {
		t.Errorf("expected 3 hint slots, got %d", len(created.Hints))
	}

	tests := []struct {
		name     string
		req      LocationRequest
		wantCode int
		wantMsg  string
	}{
		{"second start", LocationRequest{Name: textEN("X"), IsStart: true}, http.StatusConflict, "session already has a start location"},
		{"second end", LocationRequest{Name: textEN("X"), IsEnd: true}, http.StatusConflict, "session already has an end location"},
		{"duplicate code", LocationRequest{Code: " plaza1", Name: textEN("X")}, http.StatusConflict, "code PLAZA1 already in use"},
		{"start and end", LocationRequest{Name: textEN("X"), IsStart: true, IsEnd: true}, http.StatusBadRequest, "a location cannot be both start and end"},
		{"missing name", LocationRequest{Code: "ABC123"}, http.StatusBadRequest, "name.en is required"},
		{"lat without lng", LocationRequest{Name: textEN("X"), Lat: coord(1)}, http.StatusBadRequest, "lat and lng must be set together"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(http.MethodPost, base, tt.req, auth)
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			if got := decode[ErrorResponse](t, w); got.Error != tt.wantMsg {
				t.Errorf("expected %q, got %q", tt.wantMsg, got.Error)
			}
		})
	}

	// Updating a location keeps its own start flag without clashing.
	w = app.do(http.MethodGet, base, nil, auth)
	locs := decode[[]LocationResponse](t, w)
	if len(locs) != 6 || !locs[0].IsStart {
		t.Fatalf("expected 6 locations with start first, got %d", len(locs))
	}
	start := locs[0]
	w = app.do(http.MethodPut, base+"/"+start.ID, LocationRequest{
		Code: start.Code, Name: textEN("Plaza de Armas"), Lat: start.Lat, Lng: start.Lng, IsStart: true,
	}, auth)
	if w.Code != http.StatusOK {
		t.Fatalf("update start: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = app.do(http.MethodDelete, base+"/"+created.ID, nil, auth)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = app.do(http.MethodGet, base+"/"+created.ID, nil, auth)
	if w.Code != http.StatusNotFound {
		t.Errorf("after delete: expected 404, got %d", w.Code)
	}
}

func TestAdminDeleteLocationOnPath(t *testing.T) {
	app := newTestApp(t)
	auth := withCookies(app.adminLogin())
	app.generatePaths()

	path := app.pathOf("maria@example.com")
	w := app.do(http.MethodDelete, "/api/admin/sessions/"+app.demoID+"/locations/"+path[1].ID, nil, auth)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminLocationQR(t *testing.T) {
	app := newTestApp(t)
	auth := withCookies(app.adminLogin())

	path := "/api/admin/sessions/" + app.demoID + "/locations"
	locs := decode[[]LocationResponse](t, app.do(http.MethodGet, path, nil, auth))

	w := app.do(http.MethodGet, path+"/"+locs[0].ID+"/qr.png", nil, auth)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %s", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("body is not a PNG")
	}

	if got := qrContent("https://hunt.example.com/", "PLAZA1"); got != "https://hunt.example.com/play?code=PLAZA1" {
		t.Errorf("qr content = %q", got)
	}
	if got := qrContent("", "PLAZA1"); got != "PLAZA1" {
		t.Errorf("qr content without url = %q", got)
	}
}

func TestAdminTeams(t *testing.T) {
	app := newTestApp(t)
	auth := withCookies(app.adminLogin())
	base := "/api/admin/sessions/" + app.demoID + "/teams"

	w := app.do(http.MethodGet, base, nil, auth)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	for _, team := range decode[[]TeamResponse](t, w) {
		if team.PlayerCount != 2 || team.Status != "not_started" {
			t.Errorf("team %s: players=%d status=%s", team.Name, team.PlayerCount, team.Status)
		}
	}

	w = app.do(http.MethodPost, base, TeamRequest{Name: "Los Incas"}, auth)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate: expected 409, got %d", w.Code)
	}
	w = app.do(http.MethodPost, base, TeamRequest{Name: "  "}, auth)
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank name: expected 400, got %d", w.Code)
	}

	w = app.do(http.MethodPost, base, TeamRequest{Name: "Los Pumas"}, auth)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	pumas := decode[TeamResponse](t, w)

	w = app.do(http.MethodPut, base+"/"+pumas.ID, TeamRequest{Name: "Los Pumas", GPSHintEnabled: true}, auth)
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !decode[TeamResponse](t, w).GPSHintEnabled {
		t.Error("expected gps hint enabled")
	}

	w = app.do(http.MethodDelete, base+"/"+pumas.ID, nil, auth)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	incas := app.teamID("Los Incas")
	w = app.do(http.MethodDelete, base+"/"+incas, nil, auth)
	if w.Code != http.StatusConflict {
		t.Errorf("delete with players: expected 409, got %d", w.Code)
	}
}

func (a *testApp) importRoster(cookies []*http.Cookie, csv, teamSize string) *httptest.ResponseRecorder {
	a.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "roster.csv")
	if err != nil {
		a.t.Fatal(err)
	}
	fw.Write([]byte(csv))
	if teamSize != "" {
		mw.WriteField("teamSize", teamSize)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/sessions/"+a.demoID+"/players/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestAdminImportPlayers(t *testing.T) {
	app := newTestApp(t)
	cookies := app.adminLogin()

	csv := "Name,Email,Team\n" +
		"Rosa,rosa@example.com,\n" +
		"Pedro,pedro@example.com,\n" +
		"Lucia,lucia@example.com,\n" +
		"Maria Quispe,MARIA@example.com,\n"

	w := app.importRoster(cookies, csv, "2")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[ImportResponse](t, w)
	if resp.Players != 4 || resp.TeamsCreated != 2 {
		t.Errorf("players=%d teamsCreated=%d, want 4/2", resp.Players, resp.TeamsCreated)
	}

	w = app.do(http.MethodGet, "/api/admin/sessions/"+app.demoID+"/players", nil, withCookies(cookies))
	players := decode[[]PlayerItem](t, w)
	if len(players) != 7 {
		t.Fatalf("expected 7 players, got %d", len(players))
	}
	byEmail := map[string]PlayerItem{}
	for _, p := range players {
		byEmail[p.Email] = p
	}
	if p := byEmail["maria@example.com"]; p.Name != "Maria Quispe" || p.TeamName != "Team 2" {
		t.Errorf("maria = %+v, want renamed and moved to Team 2", p)
	}
	if p := byEmail["rosa@example.com"]; p.TeamName != "Team 1" {
		t.Errorf("rosa team = %q, want Team 1", p.TeamName)
	}
}

func TestAdminImportPlayersSecondFile(t *testing.T) {
	app := newTestApp(t)
	cookies := app.adminLogin()

	first := "name,email\nRosa,rosa@example.com\nPedro,pedro@example.com\n"
	if w := app.importRoster(cookies, first, "2"); w.Code != http.StatusOK {
		t.Fatalf("first import: %d %s", w.Code, w.Body.String())
	}

	second := "name,email\nLucia,lucia@example.com\nJorge,Jorge Ramos <jorge@example.com>\n"
	w := app.importRoster(cookies, second, "2")
	if w.Code != http.StatusOK {
		t.Fatalf("second import: %d %s", w.Code, w.Body.String())
	}
	resp := decode[ImportResponse](t, w)
	if resp.TeamsCreated != 1 || len(resp.Teams) != 1 || resp.Teams[0] != "Team 2" {
		t.Errorf("second import teams = %v (created %d), want a fresh Team 2", resp.Teams, resp.TeamsCreated)
	}

	w = app.do(http.MethodGet, "/api/admin/sessions/"+app.demoID+"/players", nil, withCookies(cookies))
	perTeam := map[string]int{}
	byEmail := map[string]PlayerItem{}
	for _, p := range decode[[]PlayerItem](t, w) {
		perTeam[p.TeamName]++
		byEmail[p.Email] = p
	}
	if perTeam["Team 1"] != 2 || perTeam["Team 2"] != 2 {
		t.Errorf("team sizes = %v, want two players in each of Team 1 and Team 2", perTeam)
	}
	if p, ok := byEmail["jorge@example.com"]; !ok || p.Name != "Jorge" {
		t.Errorf("jorge stored as %+v, want bare address", p)
	}
}

func TestAdminImportRejectsBadFile(t *testing.T) {
	app := newTestApp(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "roster.txt")
	fw.Write([]byte("name,email\nA,a@example.com\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/sessions/"+app.demoID+"/players/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, c := range app.adminLogin() {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
