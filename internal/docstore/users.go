package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/playperu/territorio/internal/territorio"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type userDoc struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"passwordHash"`
	CreatedAt    string `json:"createdAt"`
}

func (d userDoc) user() territorio.User {
	return territorio.User{ID: d.ID, Email: d.Email, Name: d.Name}
}

// CreateUser registers a player account. Emails are compared lowercased.
func (s *DocStore) CreateUser(ctx context.Context, email, name, password string) (territorio.User, error) {
	email = normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return territorio.User{}, fmt.Errorf("hashing password: %w", err)
	}

	doc := userDoc{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    nowUTC(),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return territorio.User{}, err
	}

	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email,
	).Scan(&exists)
	if err != nil {
		return territorio.User{}, err
	}
	if exists {
		return territorio.User{}, ErrEmailTaken
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, data) VALUES (?, ?, jsonb(?))`,
		doc.ID, doc.Email, string(data),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return territorio.User{}, ErrEmailTaken
		}
		return territorio.User{}, fmt.Errorf("creating user: %w", err)
	}
	return doc.user(), nil
}

func (s *DocStore) GetUser(ctx context.Context, id string) (territorio.User, error) {
	var doc userDoc
	if err := s.get(ctx, "users", id, &doc); err != nil {
		return territorio.User{}, err
	}
	return doc.user(), nil
}

func (s *DocStore) ListUsers(ctx context.Context) ([]territorio.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT json(data) FROM users ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []territorio.User{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var doc userDoc
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, err
		}
		users = append(users, doc.user())
	}
	return users, rows.Err()
}

// Authenticate checks an email and password pair. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (s *DocStore) Authenticate(ctx context.Context, email, password string) (territorio.User, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM users WHERE email = ?`, normalizeEmail(email),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return territorio.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return territorio.User{}, err
	}

	var doc userDoc
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return territorio.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(doc.PasswordHash), []byte(password)); err != nil {
		return territorio.User{}, ErrInvalidCredentials
	}
	return doc.user(), nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
