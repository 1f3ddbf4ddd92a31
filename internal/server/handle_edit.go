package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/territorio/internal/territorio"
)

// EditModeRequest is the request body for POST .../edit.
type EditModeRequest struct {
	Enabled bool `json:"enabled"`
}

// VertexRequest is the request body for PUT .../territories/{id}/vertices,
// sent when a vertex drag ends.
type VertexRequest struct {
	Ring  int     `json:"ringIndex"`
	Point int     `json:"pointIndex"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// OwnerRequest is the request body for POST .../territories/{id}/owner. An
// empty owner hands the territory to the next player.
type OwnerRequest struct {
	OwnerID string `json:"ownerId"`
}

func handleEditMode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EditModeRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess := sessionFrom(r)
		sess.SetEditMode(req.Enabled)
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}

func handleSelectTerritory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		if err := sess.Select(chi.URLParam(r, "id")); err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}

func handleMoveVertex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VertexRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess := sessionFrom(r)
		c := territorio.Coordinate{Lat: req.Lat, Lng: req.Lng}
		if err := sess.MoveVertex(chi.URLParam(r, "id"), req.Ring, req.Point, c); err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}

func handleRemoveVertex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ring, err := strconv.Atoi(chi.URLParam(r, "ring"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid ring index")
			return
		}
		point, err := strconv.Atoi(chi.URLParam(r, "point"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid point index")
			return
		}

		sess := sessionFrom(r)
		if err := sess.RemoveVertex(chi.URLParam(r, "id"), ring, point); err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}

func handleDeleteTerritory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		if err := sess.DeleteTerritory(chi.URLParam(r, "id")); err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}

func handleSwitchOwner() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OwnerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess := sessionFrom(r)
		if err := sess.SwitchOwner(chi.URLParam(r, "id"), req.OwnerID); err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}

func handleClearTerritories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		sess.ClearAll()
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}

func handleDeleteSelected() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		if err := sess.DeleteSelected(); err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}
