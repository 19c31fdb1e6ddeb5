package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/treasurehunt/internal/handler/health"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	store := deps.Store
	broker := NewBroker()
	broker.now = deps.Now
	tok := tokens{key: deps.TokenKey, ttl: deps.TokenTTL, now: deps.Now}

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Treasure Hunt API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, deps.Checks).Routes())
	r.Handle("/metrics", promhttp.Handler())

	// Player routes.
	r.Post("/api/login", handlePlayerLogin(store, tok))
	r.Route("/api/game", func(r chi.Router) {
		// EventSource cannot set headers, so the stream reads ?token=.
		r.Get("/events", handleEvents(logger, store, tok, broker))

		r.Group(func(r chi.Router) {
			r.Use(playerAuthMiddleware(store, tok))
			r.Get("/state", handleGameState(store, deps.Now))
			r.Post("/start", handleStart(logger, store, broker, deps.Now))
			r.Post("/code", handleSubmitCode(logger, store, broker, deps.Now))
			r.Post("/hint", handleHint(store, broker, deps.Now))
		})
	})

	// Admin auth.
	r.Post("/api/admin/login", handleAdminLogin(logger, store))
	r.Post("/api/admin/logout", handleAdminLogout(store))
	r.Get("/api/admin/me", handleAdminMe(store))

	r.Route("/api/admin/sessions", func(r chi.Router) {
		r.Use(adminAuthMiddleware(store))
		r.Get("/", handleAdminListSessions(store))
		r.Post("/", handleAdminCreateSession(store))

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", handleAdminGetSession(store))
			r.Put("/", handleAdminUpdateSession(store))
			r.Delete("/", handleAdminDeleteSession(store))

			r.Get("/locations", handleAdminListLocations(store))
			r.Post("/locations", handleAdminCreateLocation(store))
			r.Get("/locations/{locationID}", handleAdminGetLocation(store))
			r.Put("/locations/{locationID}", handleAdminUpdateLocation(store))
			r.Delete("/locations/{locationID}", handleAdminDeleteLocation(store))
			r.Get("/locations/{locationID}/qr.png", handleAdminLocationQR(store, deps.PublicURL))

			r.Get("/teams", handleAdminListTeams(store))
			r.Post("/teams", handleAdminCreateTeam(store))
			r.Put("/teams/{teamID}", handleAdminUpdateTeam(store))
			r.Delete("/teams/{teamID}", handleAdminDeleteTeam(store))

			r.Get("/players", handleAdminListPlayers(store))
			r.Post("/players/import", handleAdminImportPlayers(logger, store))

			r.Get("/paths/status", handleAdminPathStatus(store))
			r.Get("/paths", handleAdminListPaths(store))
			r.Post("/paths", handleAdminGeneratePaths(logger, store, deps.Locker, broker, deps.NewRand, deps.PathLockTTL))

			r.Get("/live", handleAdminLive(logger, store, broker))
		})
	})

	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", deps.SPADir)
			r.NotFound(handleSPA(deps.SPADir))
		}
	}
}
