package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Territorio API", "/openapi.json", "/docs"))

	r.Get("/api/config", handleConfig(deps.Settings))
	r.Post("/api/games", handleCreateGame(deps.Games))

	// Game routes; {gameID} is resolved by gameMiddleware.
	r.Route("/api/games/{gameID}", func(r chi.Router) {
		r.Use(gameMiddleware(deps.Games))
		r.Get("/state", handleGameState())
		r.Post("/reset", handleResetGame())

		r.Post("/path/points", handleAddPoint())
		r.Post("/path/close", handleClosePath())
		r.Delete("/path", handleResetPath())
		r.Post("/turn", handleSwitchTurn())

		r.Post("/edit", handleEditMode())
		r.Delete("/territories", handleClearTerritories())
		r.Delete("/territories/selected", handleDeleteSelected())
		r.Post("/territories/{id}/select", handleSelectTerritory())
		r.Put("/territories/{id}/vertices", handleMoveVertex())
		r.Delete("/territories/{id}/vertices/{ring}/{point}", handleRemoveVertex())
		r.Delete("/territories/{id}", handleDeleteTerritory())
		r.Post("/territories/{id}/owner", handleSwitchOwner())

		r.Get("/territories.geojson", handleTerritoriesGeoJSON())
		r.Get("/events", handleEvents(deps.Broker))
		r.Get("/ws", handleStateStream(logger, deps.Broker))
	})

	// Accounts and persisted territories.
	if deps.Users != nil {
		r.Post("/api/users", handleCreateUser(deps.Users))
		r.Get("/api/users", handleListUsers(deps.Users))
		r.Post("/api/users/login", handleLogin(deps.Users))
		r.Get("/api/users/{id}", handleGetUser(deps.Users))
		r.Get("/api/users/{id}/territories", handleStoredTerritories(deps.Users))
		r.Get("/api/territories", handleStoredTerritories(deps.Users))
	}

	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", deps.SPADir)
			r.NotFound(handleSPA(deps.SPADir))
		}
	}
}
