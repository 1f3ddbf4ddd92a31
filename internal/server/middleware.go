package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/territorio/internal/game"
)

type ctxKey int

const ctxKeySession ctxKey = iota

// gameMiddleware resolves {gameID} to a live session.
func gameMiddleware(games *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := games.Get(chi.URLParam(r, "gameID"))
			if err != nil {
				writeGameError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFrom(r *http.Request) *game.Session {
	return r.Context().Value(ctxKeySession).(*game.Session)
}
