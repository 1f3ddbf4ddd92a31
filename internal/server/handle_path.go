package server

import (
	"net/http"

	"github.com/playperu/territorio/internal/game"
	"github.com/playperu/territorio/internal/territorio"
)

// PointRequest is the request body for POST .../path/points.
type PointRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ClaimResponse is the response for POST .../path/close.
type ClaimResponse struct {
	StoleArea bool          `json:"stoleArea"`
	HoleCut   bool          `json:"holeCut"`
	ClaimedID string        `json:"claimedId,omitempty"`
	Affected  []string      `json:"affected,omitempty"`
	State     game.Snapshot `json:"state"`
}

func handleAddPoint() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PointRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
			writeError(w, http.StatusBadRequest, "coordinate out of range")
			return
		}

		sess := sessionFrom(r)
		if err := sess.AddPoint(territorio.Coordinate{Lat: req.Lat, Lng: req.Lng}); err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}

func handleClosePath() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		res, err := sess.ClosePath()
		if err != nil {
			writeGameError(w, err)
			return
		}

		resp := ClaimResponse{
			StoleArea: res.StoleArea,
			HoleCut:   res.HoleCut,
			Affected:  res.Affected,
			State:     sess.Snapshot(),
		}
		if res.Claimed != nil {
			resp.ClaimedID = res.Claimed.ID
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleResetPath() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		sess.ResetPath()
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}

func handleSwitchTurn() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		sess.SwitchTurn()
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}
