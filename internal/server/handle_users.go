package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/territorio/internal/docstore"
	"github.com/playperu/territorio/internal/territorio"
)

const minPasswordLen = 6

// UserStore is the account registry behind the /api/users routes.
type UserStore interface {
	CreateUser(ctx context.Context, email, name, password string) (territorio.User, error)
	GetUser(ctx context.Context, id string) (territorio.User, error)
	ListUsers(ctx context.Context) ([]territorio.User, error)
	Authenticate(ctx context.Context, email, password string) (territorio.User, error)
	ListTerritories(ctx context.Context, ownerID string) ([]territorio.Territory, error)
}

// CreateUserRequest is the request body for POST /api/users.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest is the request body for POST /api/users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func handleCreateUser(users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		req.Name = strings.TrimSpace(req.Name)
		if req.Email == "" || !strings.Contains(req.Email, "@") {
			writeError(w, http.StatusBadRequest, "a valid email is required")
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		if len(req.Password) < minPasswordLen {
			writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
			return
		}

		u, err := users.CreateUser(r.Context(), req.Email, req.Name, req.Password)
		if errors.Is(err, docstore.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

func handleListUsers(users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := users.ListUsers(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleLogin(users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		u, err := users.Authenticate(r.Context(), req.Email, req.Password)
		if errors.Is(err, docstore.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func handleGetUser(users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := users.GetUser(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

// handleStoredTerritories lists persisted territories. The owner comes from
// the {id} route parameter or the ownerId query parameter; without either,
// every stored territory is returned.
func handleStoredTerritories(users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := chi.URLParam(r, "id")
		if owner == "" {
			owner = r.URL.Query().Get("ownerId")
		}

		list, err := users.ListTerritories(r.Context(), owner)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
