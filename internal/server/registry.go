package server

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/territorio/internal/claim"
	"github.com/playperu/territorio/internal/game"
	"github.com/playperu/territorio/internal/territorio"
)

var ErrInvalidGameID = errors.New("invalid game id")

// Settings are the game defaults shared by every session.
type Settings struct {
	Players        []territorio.Player
	Center         territorio.Coordinate
	Zoom           float64
	SameOwnerHoles bool
	PersistTimeout time.Duration
}

// GameOptions override Settings for one game.
type GameOptions struct {
	SameOwnerHoles *bool `json:"sameOwnerHoles,omitempty"`
}

// SessionFactory builds the session for a new game id.
type SessionFactory func(id string, opts GameOptions) (*game.Session, error)

// NewSessionFactory wires sessions to the broker and, when gw is non-nil, to
// persistent storage.
func NewSessionFactory(settings Settings, gw game.Gateway, broker *Broker, logger *slog.Logger) SessionFactory {
	colors := make(map[string]string, len(settings.Players))
	for _, p := range settings.Players {
		colors[p.ID] = p.FillColor
	}

	return func(id string, opts GameOptions) (*game.Session, error) {
		mode := claim.ModeSteal
		holes := settings.SameOwnerHoles
		if opts.SameOwnerHoles != nil {
			holes = *opts.SameOwnerHoles
		}
		if holes {
			mode = claim.ModeSameOwnerHoles
		}

		sessOpts := []game.Option{
			game.WithEngine(claim.New(claim.WithMode(mode))),
			game.WithNotifier(func(ev game.Event) { broker.Publish(ev.GameID, ev) }),
			game.WithLogger(logger),
			game.WithMap(settings.Center, settings.Zoom),
		}
		if gw != nil {
			sessOpts = append(sessOpts, game.WithMirror(game.NewMirror(gw, game.MirrorConfig{
				GameID:  id,
				Timeout: settings.PersistTimeout,
				Colors:  colors,
				Logger:  logger,
				OnFailure: func(err error) {
					broker.Publish(id, game.Event{
						Type:   game.EventPersistenceFailed,
						GameID: id,
						Reason: err.Error(),
					})
				},
			})))
		}
		return game.NewSession(id, settings.Players, sessOpts...)
	}
}

// Registry holds the live game sessions, creating them on first use.
type Registry struct {
	factory SessionFactory
	mu      sync.RWMutex
	games   map[string]*game.Session
}

func NewRegistry(factory SessionFactory) *Registry {
	return &Registry{
		factory: factory,
		games:   make(map[string]*game.Session),
	}
}

// Get returns the session for id, starting a game with default options when
// none exists yet.
func (r *Registry) Get(id string) (*game.Session, error) {
	r.mu.RLock()
	s, ok := r.games[id]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}
	if !validGameID(id) {
		return nil, ErrInvalidGameID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock.
	if s, ok := r.games[id]; ok {
		return s, nil
	}

	s, err := r.factory(id, GameOptions{})
	if err != nil {
		return nil, fmt.Errorf("starting game %q: %w", id, err)
	}
	r.games[id] = s
	return s, nil
}

// Create starts a game under a fresh id.
func (r *Registry) Create(opts GameOptions) (*game.Session, error) {
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.factory(id, opts)
	if err != nil {
		return nil, fmt.Errorf("starting game %q: %w", id, err)
	}
	r.games[id] = s
	return s, nil
}

// Close stops every session and drains its pending persistence calls.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.games {
		s.Close()
		delete(r.games, id)
	}
	return nil
}

func validGameID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
