package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/playperu/territorio/internal/claim"
	"github.com/playperu/territorio/internal/docstore"
	"github.com/playperu/territorio/internal/game"
	"github.com/playperu/territorio/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeGameError maps session and claim errors to HTTP statuses.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, claim.ErrInvalidGeometry),
		errors.Is(err, claim.ErrComplexIntersection),
		errors.Is(err, game.ErrTooFewVertices):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, docstore.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrEditMode),
		errors.Is(err, game.ErrNotEditing),
		errors.Is(err, game.ErrNothingSelected):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrUnknownPlayer),
		errors.Is(err, game.ErrVertexOutOfRange),
		errors.Is(err, ErrInvalidGameID):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
