package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/treasurehunt/internal/handler/health"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type sessionPath struct {
	SessionID string `path:"sessionID"`
}

type locationPath struct {
	SessionID  string `path:"sessionID"`
	LocationID string `path:"locationID"`
}

type teamPath struct {
	SessionID string `path:"sessionID"`
	TeamID    string `path:"teamID"`
}

type langQuery struct {
	Lang string `query:"lang" enum:"en,es" description:"Language of riddles and hints, defaults to en."`
}

type eventsQuery struct {
	Token string `query:"token" required:"true" description:"Player token from POST /api/login."`
}

type importForm struct {
	SessionID string `path:"sessionID"`
	File      []byte `formData:"file" format:"binary" required:"true" description:"Roster as .csv or .xlsx."`
	TeamSize  int    `formData:"teamSize" description:"Group players without a team into teams of this size."`
}

type createLocationRequest struct {
	sessionPath
	LocationRequest
}

type updateLocationRequest struct {
	locationPath
	LocationRequest
}

type updateSessionRequest struct {
	sessionPath
	SessionRequest
}

type createTeamRequest struct {
	sessionPath
	TeamRequest
}

type updateTeamRequest struct {
	teamPath
	TeamRequest
}

type generatePathsRequest struct {
	sessionPath
	GeneratePathsRequest
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Treasure Hunt API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the city treasure hunt: sessions, locations, team paths and play.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(health.Response{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(health.Response{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/login")
	postLogin.SetSummary("Player login")
	postLogin.SetDescription("Exchanges the session keyword and a rostered email for a Bearer token.")
	postLogin.AddReqStructure(LoginRequest{})
	postLogin.AddRespStructure(LoginResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postLogin)

	// GET /api/game/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/game/state")
	getState.SetSummary("Get game state")
	getState.SetDescription("Returns the team's progress, current target and visited stops. Requires Bearer token.")
	getState.AddReqStructure(langQuery{})
	getState.AddRespStructure(GameStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(getState)

	// POST /api/game/start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/api/game/start")
	postStart.SetSummary("Start the hunt")
	postStart.SetDescription("Starts the clock for the player's team. Requires Bearer token.")
	postStart.AddReqStructure(langQuery{})
	postStart.AddRespStructure(GameStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postStart)

	// POST /api/game/code
	postCode, _ := r.NewOperationContext(http.MethodPost, "/api/game/code")
	postCode.SetSummary("Submit location code")
	postCode.SetDescription("Unlocks the next stop when the code matches the current target. Requires Bearer token.")
	postCode.AddReqStructure(CodeRequest{})
	postCode.AddRespStructure(CodeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postCode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postCode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postCode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postCode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	_ = r.AddOperation(postCode)

	// POST /api/game/hint
	postHint, _ := r.NewOperationContext(http.MethodPost, "/api/game/hint")
	postHint.SetSummary("Reveal a hint")
	postHint.SetDescription("Reveals the next hint for the current target, at most three per stop and one every three minutes. Requires Bearer token.")
	postHint.AddReqStructure(langQuery{})
	postHint.AddRespStructure(HintResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postHint.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postHint.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postHint.AddRespStructure(HintCooldownResponse{}, openapi.WithHTTPStatus(http.StatusTooManyRequests))
	_ = r.AddOperation(postHint)

	// GET /api/game/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/game/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of the team's progress. Pass token as query parameter.")
	getEvents.AddReqStructure(eventsQuery{})
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	getEvents.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getEvents)

	// POST /api/admin/login
	postAdminLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	postAdminLogin.SetSummary("Admin login")
	postAdminLogin.SetDescription("Authenticate with email and password. Sets admin_session cookie.")
	postAdminLogin.AddReqStructure(AdminLoginRequest{})
	postAdminLogin.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAdminLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postAdminLogin)

	// POST /api/admin/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/admin/logout")
	postLogout.SetSummary("Admin logout")
	postLogout.SetDescription("Clears admin session and cookie.")
	postLogout.AddRespStructure(StatusResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/admin/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/admin/me")
	getMe.SetSummary("Current admin")
	getMe.SetDescription("Returns the currently authenticated admin. Requires admin_session cookie.")
	getMe.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/admin/sessions
	listSessions, _ := r.NewOperationContext(http.MethodGet, "/api/admin/sessions")
	listSessions.SetSummary("List sessions")
	listSessions.SetDescription("Returns all hunt sessions with location, team and player counts. Requires admin_session cookie.")
	listSessions.AddRespStructure([]SessionSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	listSessions.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listSessions)

	// POST /api/admin/sessions
	createSession, _ := r.NewOperationContext(http.MethodPost, "/api/admin/sessions")
	createSession.SetSummary("Create session")
	createSession.SetDescription("Creates a hunt session. The keyword is upper-cased and must be unique. Requires admin_session cookie.")
	createSession.AddReqStructure(SessionRequest{})
	createSession.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	createSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(createSession)

	// GET /api/admin/sessions/{sessionID}
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/admin/sessions/{sessionID}")
	getSession.SetSummary("Get session")
	getSession.SetDescription("Returns one hunt session. Requires admin_session cookie.")
	getSession.AddReqStructure(sessionPath{})
	getSession.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getSession)

	// PUT /api/admin/sessions/{sessionID}
	updateSession, _ := r.NewOperationContext(http.MethodPut, "/api/admin/sessions/{sessionID}")
	updateSession.SetSummary("Update session")
	updateSession.SetDescription("Updates name, keyword and status. Requires admin_session cookie.")
	updateSession.AddReqStructure(updateSessionRequest{})
	updateSession.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	updateSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	updateSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	updateSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	updateSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(updateSession)

	// DELETE /api/admin/sessions/{sessionID}
	deleteSession, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/sessions/{sessionID}")
	deleteSession.SetSummary("Delete session")
	deleteSession.SetDescription("Deletes a session with everything in it. Blocked while the session is active. Requires admin_session cookie.")
	deleteSession.AddReqStructure(sessionPath{})
	deleteSession.AddRespStructure(StatusResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	deleteSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	deleteSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	deleteSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(deleteSession)

	// GET /api/admin/sessions/{sessionID}/locations
	listLocations, _ := r.NewOperationContext(http.MethodGet, "/api/admin/sessions/{sessionID}/locations")
	listLocations.SetSummary("List locations")
	listLocations.SetDescription("Returns the session's locations in display order. Requires admin_session cookie.")
	listLocations.AddReqStructure(sessionPath{})
	listLocations.AddRespStructure([]LocationResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	listLocations.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	listLocations.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listLocations)

	// POST /api/admin/sessions/{sessionID}/locations
	createLocation, _ := r.NewOperationContext(http.MethodPost, "/api/admin/sessions/{sessionID}/locations")
	createLocation.SetSummary("Create location")
	createLocation.SetDescription("Creates a location. A blank code is generated. Requires admin_session cookie.")
	createLocation.AddReqStructure(createLocationRequest{})
	createLocation.AddRespStructure(LocationResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	createLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	createLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(createLocation)

	// GET /api/admin/sessions/{sessionID}/locations/{locationID}
	getLocation, _ := r.NewOperationContext(http.MethodGet, "/api/admin/sessions/{sessionID}/locations/{locationID}")
	getLocation.SetSummary("Get location")
	getLocation.SetDescription("Returns one location with its code and hints. Requires admin_session cookie.")
	getLocation.AddReqStructure(locationPath{})
	getLocation.AddRespStructure(LocationResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getLocation)

	// PUT /api/admin/sessions/{sessionID}/locations/{locationID}
	updateLocation, _ := r.NewOperationContext(http.MethodPut, "/api/admin/sessions/{sessionID}/locations/{locationID}")
	updateLocation.SetSummary("Update location")
	updateLocation.SetDescription("Replaces a location. Requires admin_session cookie.")
	updateLocation.AddReqStructure(updateLocationRequest{})
	updateLocation.AddRespStructure(LocationResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	updateLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	updateLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	updateLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	updateLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(updateLocation)

	// DELETE /api/admin/sessions/{sessionID}/locations/{locationID}
	deleteLocation, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/sessions/{sessionID}/locations/{locationID}")
	deleteLocation.SetSummary("Delete location")
	deleteLocation.SetDescription("Deletes a location. Blocked while a generated path uses it. Requires admin_session cookie.")
	deleteLocation.AddReqStructure(locationPath{})
	deleteLocation.AddRespStructure(StatusResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	deleteLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	deleteLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	deleteLocation.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(deleteLocation)

	// GET /api/admin/sessions/{sessionID}/locations/{locationID}/qr.png
	getQR, _ := r.NewOperationContext(http.MethodGet, "/api/admin/sessions/{sessionID}/locations/{locationID}/qr.png")
	getQR.SetSummary("Location QR code")
	getQR.SetDescription("PNG QR code to print at the location. Requires admin_session cookie.")
	getQR.AddReqStructure(locationPath{})
	getQR.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK), openapi.WithContentType("image/png"))
	getQR.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getQR.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getQR)

	// GET /api/admin/sessions/{sessionID}/teams
	listTeams, _ := r.NewOperationContext(http.MethodGet, "/api/admin/sessions/{sessionID}/teams")
	listTeams.SetSummary("List teams")
	listTeams.SetDescription("Returns teams with progress and player counts. Requires admin_session cookie.")
	listTeams.AddReqStructure(sessionPath{})
	listTeams.AddRespStructure([]TeamResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	listTeams.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	listTeams.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listTeams)

	// POST /api/admin/sessions/{sessionID}/teams
	createTeam, _ := r.NewOperationContext(http.MethodPost, "/api/admin/sessions/{sessionID}/teams")
	createTeam.SetSummary("Create team")
	createTeam.SetDescription("Creates a team in a session. Requires admin_session cookie.")
	createTeam.AddReqStructure(createTeamRequest{})
	createTeam.AddRespStructure(TeamResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	createTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(createTeam)

	// PUT /api/admin/sessions/{sessionID}/teams/{teamID}
	updateTeam, _ := r.NewOperationContext(http.MethodPut, "/api/admin/sessions/{sessionID}/teams/{teamID}")
	updateTeam.SetSummary("Update team")
	updateTeam.SetDescription("Renames a team or toggles its GPS hint. Requires admin_session cookie.")
	updateTeam.AddReqStructure(updateTeamRequest{})
	updateTeam.AddRespStructure(TeamResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	updateTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	updateTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	updateTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	updateTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(updateTeam)

	// DELETE /api/admin/sessions/{sessionID}/teams/{teamID}
	deleteTeam, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/sessions/{sessionID}/teams/{teamID}")
	deleteTeam.SetSummary("Delete team")
	deleteTeam.SetDescription("Deletes a team. Blocked if players exist. Requires admin_session cookie.")
	deleteTeam.AddReqStructure(teamPath{})
	deleteTeam.AddRespStructure(StatusResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	deleteTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	deleteTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	deleteTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(deleteTeam)

	// GET /api/admin/sessions/{sessionID}/players
	listPlayers, _ := r.NewOperationContext(http.MethodGet, "/api/admin/sessions/{sessionID}/players")
	listPlayers.SetSummary("List players")
	listPlayers.SetDescription("Returns the session roster with team names. Requires admin_session cookie.")
	listPlayers.AddReqStructure(sessionPath{})
	listPlayers.AddRespStructure([]PlayerItem{}, openapi.WithHTTPStatus(http.StatusOK))
	listPlayers.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	listPlayers.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listPlayers)

	// POST /api/admin/sessions/{sessionID}/players/import
	importPlayers, _ := r.NewOperationContext(http.MethodPost, "/api/admin/sessions/{sessionID}/players/import")
	importPlayers.SetSummary("Import roster")
	importPlayers.SetDescription("Upserts players from a CSV or XLSX file and creates missing teams. Requires admin_session cookie.")
	importPlayers.AddReqStructure(importForm{})
	importPlayers.AddRespStructure(ImportResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	importPlayers.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	importPlayers.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	importPlayers.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(importPlayers)

	// GET /api/admin/sessions/{sessionID}/paths/status
	pathStatus, _ := r.NewOperationContext(http.MethodGet, "/api/admin/sessions/{sessionID}/paths/status")
	pathStatus.SetSummary("Path readiness")
	pathStatus.SetDescription("Reports whether paths can be generated and how many unique orderings exist. Requires admin_session cookie.")
	pathStatus.AddReqStructure(sessionPath{})
	pathStatus.AddRespStructure(PathStatusResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	pathStatus.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	pathStatus.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(pathStatus)

	// GET /api/admin/sessions/{sessionID}/paths
	listPaths, _ := r.NewOperationContext(http.MethodGet, "/api/admin/sessions/{sessionID}/paths")
	listPaths.SetSummary("List paths")
	listPaths.SetDescription("Returns each team's stored path. Requires admin_session cookie.")
	listPaths.AddReqStructure(sessionPath{})
	listPaths.AddRespStructure([]TeamPathResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	listPaths.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	listPaths.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listPaths)

	// POST /api/admin/sessions/{sessionID}/paths
	generatePaths, _ := r.NewOperationContext(http.MethodPost, "/api/admin/sessions/{sessionID}/paths")
	generatePaths.SetSummary("Generate paths")
	generatePaths.SetDescription("Assigns every team a path from start to end through all intermediate locations, unique while orderings last. Existing paths are replaced only with regenerate. Requires admin_session cookie.")
	generatePaths.AddReqStructure(generatePathsRequest{})
	generatePaths.AddRespStructure(GeneratePathsResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	generatePaths.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	generatePaths.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	generatePaths.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	generatePaths.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(generatePaths)

	// GET /api/admin/sessions/{sessionID}/live
	getLive, _ := r.NewOperationContext(http.MethodGet, "/api/admin/sessions/{sessionID}/live")
	getLive.SetSummary("Live session feed")
	getLive.SetDescription("Upgrades to a WebSocket that streams the session's events as JSON. Requires admin_session cookie.")
	getLive.AddReqStructure(sessionPath{})
	getLive.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("application/json"))
	getLive.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getLive.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getLive)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
