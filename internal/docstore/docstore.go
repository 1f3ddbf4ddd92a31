// Package docstore persists territories and users as JSONB documents in
// libSQL. It is the persistence gateway mirrored by game sessions.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/territorio/internal/territorio"
)

var ErrNotFound = errors.New("not found")

// Metadata carries the optional document fields of a territory.
type Metadata struct {
	GameID      string
	Name        string
	Color       string
	Area        float64
	Description string
}

type territoryDoc struct {
	ID          string                    `json:"id"`
	GameID      string                    `json:"gameId,omitempty"`
	OwnerID     string                    `json:"ownerId"`
	Coordinates [][]territorio.Coordinate `json:"coordinates"`
	Name        string                    `json:"name,omitempty"`
	Color       string                    `json:"color,omitempty"`
	Area        float64                   `json:"area"`
	Description string                    `json:"description,omitempty"`
	CreatedAt   string                    `json:"createdAt"`
	UpdatedAt   string                    `json:"updatedAt"`
}

// DocStore implements the territory gateway and user registry on per-model
// tables with JSONB data columns. Tables are created by migrations.
type DocStore struct {
	db *sql.DB
}

func New(db *sql.DB) *DocStore {
	return &DocStore{db: db}
}

// Ping reports whether the underlying database is reachable.
func (s *DocStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *DocStore) CreateTerritory(ctx context.Context, ownerID string, rings []territorio.Ring, meta Metadata) (string, error) {
	now := nowUTC()
	doc := territoryDoc{
		ID:          uuid.NewString(),
		GameID:      meta.GameID,
		OwnerID:     ownerID,
		Coordinates: toDocRings(rings),
		Name:        meta.Name,
		Color:       meta.Color,
		Area:        meta.Area,
		Description: meta.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.putTerritory(ctx, doc); err != nil {
		return "", fmt.Errorf("creating territory: %w", err)
	}
	return doc.ID, nil
}

// UpdateTerritoryCoordinates replaces the rings of a stored territory and
// recomputes nothing else.
func (s *DocStore) UpdateTerritoryCoordinates(ctx context.Context, id string, rings []territorio.Ring) error {
	var doc territoryDoc
	if err := s.get(ctx, "territories", id, &doc); err != nil {
		return err
	}
	doc.Coordinates = toDocRings(rings)
	doc.UpdatedAt = nowUTC()
	if err := s.putTerritory(ctx, doc); err != nil {
		return fmt.Errorf("updating territory %s: %w", id, err)
	}
	return nil
}

// UpdateTerritoryOwner moves a stored territory to another owner.
func (s *DocStore) UpdateTerritoryOwner(ctx context.Context, id, ownerID string) error {
	var doc territoryDoc
	if err := s.get(ctx, "territories", id, &doc); err != nil {
		return err
	}
	doc.OwnerID = ownerID
	doc.UpdatedAt = nowUTC()
	if err := s.putTerritory(ctx, doc); err != nil {
		return fmt.Errorf("updating territory %s: %w", id, err)
	}
	return nil
}

func (s *DocStore) DeleteTerritory(ctx context.Context, id string) error {
	return s.del(ctx, "territories", id)
}

// DeleteTerritories removes every listed territory in one statement. Missing
// ids are ignored.
func (s *DocStore) DeleteTerritories(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM territories WHERE id IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return fmt.Errorf("deleting %d territories: %w", len(ids), err)
	}
	return nil
}

// ListTerritories returns stored territories, all of them when ownerID is
// empty, oldest first.
func (s *DocStore) ListTerritories(ctx context.Context, ownerID string) ([]territorio.Territory, error) {
	query := `SELECT json(data) FROM territories ORDER BY rowid`
	var args []any
	if ownerID != "" {
		query = `SELECT json(data) FROM territories WHERE owner_id = ? ORDER BY rowid`
		args = append(args, ownerID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	territories := []territorio.Territory{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var doc territoryDoc
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, err
		}
		territories = append(territories, doc.territory())
	}
	return territories, rows.Err()
}

func (d territoryDoc) territory() territorio.Territory {
	rings := make([]territorio.Ring, len(d.Coordinates))
	for i, r := range d.Coordinates {
		rings[i] = territorio.Ring(r)
	}
	var ts int64
	if created, err := time.Parse(timeLayout, d.CreatedAt); err == nil {
		ts = created.UnixMilli()
	}
	return territorio.Territory{
		ID:          d.ID,
		OwnerID:     d.OwnerID,
		Coordinates: rings,
		Timestamp:   ts,
		Name:        d.Name,
		Color:       d.Color,
		Area:        d.Area,
		Description: d.Description,
	}
}

func toDocRings(rings []territorio.Ring) [][]territorio.Coordinate {
	out := make([][]territorio.Coordinate, len(rings))
	for i, r := range rings {
		out[i] = []territorio.Coordinate(r.Clone())
	}
	return out
}

// Generic helpers, keyed by table.

func (s *DocStore) get(ctx context.Context, table, id string, dest any) error {
	var data string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT json(data) FROM %s WHERE id = ?`, table), id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (s *DocStore) del(ctx context.Context, table, id string) error {
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DocStore) putTerritory(ctx context.Context, doc territoryDoc) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO territories (id, owner_id, game_id, data) VALUES (?, ?, ?, jsonb(?))
		 ON CONFLICT(id) DO UPDATE SET owner_id = excluded.owner_id, game_id = excluded.game_id, data = excluded.data`,
		doc.ID, doc.OwnerID, doc.GameID, string(data),
	)
	return err
}

const timeLayout = "2006-01-02T15:04:05.000Z"

func nowUTC() string {
	return time.Now().UTC().Format(timeLayout)
}
