// Package game runs one territory game: the active path, turn order, edit
// mode and the hand-off from claims to the store, the scores and the mirror.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/playperu/territorio/internal/claim"
	"github.com/playperu/territorio/internal/score"
	"github.com/playperu/territorio/internal/store"
	"github.com/playperu/territorio/internal/territorio"
)

var (
	ErrNoPlayers        = errors.New("game needs at least one player")
	ErrEditMode         = errors.New("not allowed in edit mode")
	ErrNotEditing       = errors.New("edit mode is off")
	ErrUnknownPlayer    = errors.New("unknown player")
	ErrVertexOutOfRange = errors.New("vertex out of range")
	ErrTooFewVertices   = errors.New("ring needs at least 3 vertices")
	ErrNothingSelected  = errors.New("no territory selected")
)

const (
	minRingVertices  = 3
	defaultFillColor = "#888888"
)

// Session is the authoritative state of one game. All mutations are
// serialized by mu, including the claim computation.
type Session struct {
	mu sync.Mutex

	id      string
	players []territorio.Player
	current int

	store  *store.Store
	engine *claim.Engine
	mirror *Mirror
	notify Notifier
	logger *slog.Logger

	center territorio.Coordinate
	zoom   float64

	path     territorio.Ring
	editing  bool
	selected string
}

// Option configures a Session.
type Option func(*Session)

func WithEngine(e *claim.Engine) Option {
	return func(s *Session) { s.engine = e }
}

// WithMirror mirrors every territory change to persistent storage.
func WithMirror(m *Mirror) Option {
	return func(s *Session) { s.mirror = m }
}

func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notify = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithMap sets the initial map view reported in snapshots.
func WithMap(center territorio.Coordinate, zoom float64) Option {
	return func(s *Session) {
		s.center = center
		s.zoom = zoom
	}
}

// WithTerritories seeds the store.
func WithTerritories(ts ...territorio.Territory) Option {
	return func(s *Session) { s.store = store.New(ts...) }
}

// NewSession creates a game for players in turn order. The first player moves
// first.
func NewSession(id string, players []territorio.Player, opts ...Option) (*Session, error) {
	if len(players) == 0 {
		return nil, ErrNoPlayers
	}
	s := &Session{
		id:      id,
		players: slices.Clone(players),
		store:   store.New(),
		engine:  claim.New(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Close drains pending persistence calls.
func (s *Session) Close() {
	if s.mirror != nil {
		s.mirror.Close()
	}
}

// AddPoint appends c to the active path of the current player.
func (s *Session) AddPoint(c territorio.Coordinate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing {
		return ErrEditMode
	}
	s.path = append(s.path, c)
	s.publish(Event{Type: EventPointAdded, OwnerID: s.currentID()})
	return nil
}

// ClosePath claims the active path for the current player. On failure the
// path and the territories are left as they were.
func (s *Session) ClosePath() (claim.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing {
		return claim.Result{}, ErrEditMode
	}

	owner := s.currentID()
	prev := s.store.List()
	res, err := s.engine.Complete(prev, s.path, owner)
	if err != nil {
		s.logger.Info("claim rejected", "game_id", s.id, "owner_id", owner, "points", len(s.path), "error", err)
		s.publish(Event{Type: EventClaimRejected, OwnerID: owner, Reason: err.Error()})
		return claim.Result{}, err
	}
	if err := s.store.ReplaceAll(res.Territories); err != nil {
		return claim.Result{}, fmt.Errorf("applying claim: %w", err)
	}
	s.path = nil
	s.sync(prev)

	switch {
	case res.HoleCut:
		s.publish(Event{Type: EventHoleCut, OwnerID: owner})
	case res.StoleArea:
		s.publish(Event{Type: EventTerritoryStolen, OwnerID: owner, TerritoryID: res.Claimed.ID, Affected: res.Affected})
	default:
		s.publish(Event{Type: EventTerritoryClaimed, OwnerID: owner, TerritoryID: res.Claimed.ID})
	}
	s.logger.Info("territory claimed",
		"game_id", s.id,
		"owner_id", owner,
		"stole_area", res.StoleArea,
		"hole_cut", res.HoleCut,
		"territories", len(res.Territories),
	)

	s.advance()
	return res, nil
}

// ResetPath discards the active path.
func (s *Session) ResetPath() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = nil
	s.publish(Event{Type: EventPathReset, OwnerID: s.currentID()})
}

// SwitchTurn passes the turn to the next player and clears the active path.
func (s *Session) SwitchTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance()
}

// SetEditMode turns edit mode on or off. Entering clears the active path and
// leaving clears the selection.
func (s *Session) SetEditMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = on
	if on {
		s.path = nil
	} else {
		s.selected = ""
	}
	s.publish(Event{Type: EventEditModeChanged})
}

// Select marks a territory for editing. An empty id clears the selection.
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editing {
		return ErrNotEditing
	}
	if id != "" {
		if _, err := s.store.Get(id); err != nil {
			return err
		}
	}
	s.selected = id
	s.publish(Event{Type: EventTerritorySelected, TerritoryID: id})
	return nil
}

// MoveVertex replaces one boundary point. The territory keeps its identity
// and no claim logic runs.
func (s *Session) MoveVertex(id string, ring, point int, c territorio.Coordinate) error {
	return s.editRing(id, ring, point, func(r territorio.Ring) (territorio.Ring, error) {
		r[point] = c
		return r, nil
	})
}

// RemoveVertex drops one boundary point. Rings never go below 3 points.
func (s *Session) RemoveVertex(id string, ring, point int) error {
	return s.editRing(id, ring, point, func(r territorio.Ring) (territorio.Ring, error) {
		if len(r) <= minRingVertices {
			return nil, ErrTooFewVertices
		}
		return slices.Delete(r, point, point+1), nil
	})
}

func (s *Session) editRing(id string, ring, point int, fn func(territorio.Ring) (territorio.Ring, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editing {
		return ErrNotEditing
	}

	t, err := s.store.Get(id)
	if err != nil {
		return err
	}
	if ring < 0 || ring >= len(t.Coordinates) || point < 0 || point >= len(t.Coordinates[ring]) {
		return ErrVertexOutOfRange
	}

	edited, err := fn(t.Coordinates[ring])
	if err != nil {
		return err
	}
	t.Coordinates[ring] = edited

	prev := s.store.List()
	if err := s.store.Update(id, t.Coordinates); err != nil {
		return err
	}
	s.sync(prev)
	s.publish(Event{Type: EventTerritoryUpdated, TerritoryID: id, OwnerID: t.OwnerID})
	return nil
}

// DeleteTerritory removes a territory outright.
func (s *Session) DeleteTerritory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteTerritory(id)
}

// DeleteSelected removes the selected territory.
func (s *Session) DeleteSelected() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing && s.selected == "" {
		return ErrNothingSelected
	}
	return s.deleteTerritory(s.selected)
}

func (s *Session) deleteTerritory(id string) error {
	if !s.editing {
		return ErrNotEditing
	}

	prev := s.store.List()
	if err := s.store.Delete(id); err != nil {
		return err
	}
	if s.selected == id {
		s.selected = ""
	}
	s.sync(prev)
	s.publish(Event{Type: EventTerritoryDeleted, TerritoryID: id})
	return nil
}

// SwitchOwner hands a territory to ownerID, or to the owner after the current
// one in turn order when ownerID is empty.
func (s *Session) SwitchOwner(id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editing {
		return ErrNotEditing
	}

	t, err := s.store.Get(id)
	if err != nil {
		return err
	}
	if ownerID == "" {
		i := s.playerIndex(t.OwnerID)
		ownerID = s.players[(i+1)%len(s.players)].ID
	} else if s.playerIndex(ownerID) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, ownerID)
	}

	prev := s.store.List()
	if err := s.store.SetOwner(id, ownerID); err != nil {
		return err
	}
	s.sync(prev)
	s.publish(Event{Type: EventOwnerChanged, TerritoryID: id, OwnerID: ownerID})
	return nil
}

// ClearAll removes every territory.
func (s *Session) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	s.publish(Event{Type: EventTerritoriesClear})
}

// Reset clears territories and the path, leaves edit mode and gives the turn
// back to the first player.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	s.path = nil
	s.editing = false
	s.current = 0
	s.publish(Event{Type: EventGameReset, CurrentPlayer: s.currentID()})
}

// Territories returns a copy of the current territory list.
func (s *Session) Territories() []territorio.Territory {
	return s.store.List()
}

// Scores returns the rounded area per player in square metres.
func (s *Session) Scores() map[string]int64 {
	return score.Rounded(score.Compute(s.store.List(), s.playerIDs()))
}

func (s *Session) clear() {
	prev := s.store.List()
	// ReplaceAll only fails on duplicate ids.
	_ = s.store.ReplaceAll(nil)
	s.selected = ""
	s.sync(prev)
}

func (s *Session) advance() {
	s.current = (s.current + 1) % len(s.players)
	s.path = nil
	s.publish(Event{Type: EventTurnChanged, CurrentPlayer: s.currentID()})
}

func (s *Session) sync(prev []territorio.Territory) {
	if s.mirror != nil {
		s.mirror.Sync(prev, s.store.List())
	}
}

func (s *Session) publish(ev Event) {
	if s.notify == nil {
		return
	}
	ev.GameID = s.id
	s.notify(ev)
}

func (s *Session) currentID() string {
	return s.players[s.current].ID
}

func (s *Session) playerIndex(id string) int {
	return slices.IndexFunc(s.players, func(p territorio.Player) bool { return p.ID == id })
}

func (s *Session) playerIDs() []string {
	ids := make([]string, len(s.players))
	for i, p := range s.players {
		ids[i] = p.ID
	}
	return ids
}
