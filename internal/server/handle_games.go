package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/playperu/territorio/internal/territorio"
)

// ConfigResponse is the response for GET /api/config.
type ConfigResponse struct {
	Center         territorio.Coordinate `json:"center"`
	Zoom           float64               `json:"zoom"`
	Players        []territorio.Player   `json:"players"`
	SameOwnerHoles bool                  `json:"sameOwnerHoles"`
}

// CreateGameResponse is the response for POST /api/games.
type CreateGameResponse struct {
	ID string `json:"id"`
}

func handleConfig(settings Settings) http.HandlerFunc {
	resp := ConfigResponse{
		Center:         settings.Center,
		Zoom:           settings.Zoom,
		Players:        settings.Players,
		SameOwnerHoles: settings.SameOwnerHoles,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleCreateGame(games *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var opts GameOptions
		if err := readJSON(r, &opts); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess, err := games.Create(opts)
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, CreateGameResponse{ID: sess.ID()})
	}
}

func handleGameState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessionFrom(r).Snapshot())
	}
}

func handleResetGame() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		sess.Reset()
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}
