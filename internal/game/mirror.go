package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/playperu/territorio/internal/docstore"
	"github.com/playperu/territorio/internal/score"
	"github.com/playperu/territorio/internal/territorio"
)

// ErrPersistence wraps every failed gateway call. In-memory state is never
// rolled back when it occurs.
var ErrPersistence = errors.New("persistence failed")

// Gateway is the document store a Mirror writes to.
type Gateway interface {
	CreateTerritory(ctx context.Context, ownerID string, rings []territorio.Ring, meta docstore.Metadata) (string, error)
	UpdateTerritoryCoordinates(ctx context.Context, id string, rings []territorio.Ring) error
	UpdateTerritoryOwner(ctx context.Context, id, ownerID string) error
	DeleteTerritories(ctx context.Context, ids []string) error
}

// MirrorConfig configures a Mirror.
type MirrorConfig struct {
	GameID string
	// Timeout bounds every gateway call. Zero means 5s.
	Timeout time.Duration
	// Colors maps owner ids to the color stored with new documents.
	Colors map[string]string
	Logger *slog.Logger
	// OnFailure is called from the mirror goroutine for every failed call.
	OnFailure func(error)
}

type opKind int

const (
	opCreate opKind = iota
	opUpdate
	opOwner
	opDelete
)

type op struct {
	kind      opKind
	territory territorio.Territory
	ids       []string
}

// Mirror replays territory changes onto a Gateway in order, on its own
// goroutine. Callers never wait on the gateway.
type Mirror struct {
	gw  Gateway
	cfg MirrorConfig

	mu     sync.Mutex
	queue  []op
	closed bool
	wake   chan struct{}
	done   chan struct{}

	// remote maps local territory ids to document ids. Only the worker
	// goroutine touches it.
	remote map[string]string
}

func NewMirror(gw Gateway, cfg MirrorConfig) *Mirror {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	m := &Mirror{
		gw:     gw,
		cfg:    cfg,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		remote: make(map[string]string),
	}
	go m.run()
	return m
}

// Sync queues the gateway calls that turn prev into next.
func (m *Mirror) Sync(prev, next []territorio.Territory) {
	ops := diff(prev, next)
	if len(ops) == 0 {
		return
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.queue = append(m.queue, ops...)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Close stops accepting changes, drains the queue and waits for the worker.
func (m *Mirror) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		<-m.done
		return
	}
	m.closed = true
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	<-m.done
}

func (m *Mirror) run() {
	defer close(m.done)
	for {
		m.mu.Lock()
		for len(m.queue) == 0 && !m.closed {
			m.mu.Unlock()
			<-m.wake
			m.mu.Lock()
		}
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return
		}
		batch := m.queue
		m.queue = nil
		m.mu.Unlock()

		for _, o := range batch {
			if err := m.apply(o); err != nil {
				m.cfg.Logger.Warn("mirror call failed", "game_id", m.cfg.GameID, "error", err)
				if m.cfg.OnFailure != nil {
					m.cfg.OnFailure(err)
				}
			}
		}
	}
}

func (m *Mirror) apply(o op) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Timeout)
	defer cancel()

	t := o.territory
	switch o.kind {
	case opCreate:
		return m.create(ctx, t)
	case opUpdate:
		docID, ok := m.remote[t.ID]
		if !ok {
			return m.create(ctx, t)
		}
		if err := m.gw.UpdateTerritoryCoordinates(ctx, docID, t.Coordinates); err != nil {
			return fmt.Errorf("%w: updating %s: %w", ErrPersistence, t.ID, err)
		}
	case opOwner:
		docID, ok := m.remote[t.ID]
		if !ok {
			return m.create(ctx, t)
		}
		if err := m.gw.UpdateTerritoryOwner(ctx, docID, t.OwnerID); err != nil {
			return fmt.Errorf("%w: reassigning %s: %w", ErrPersistence, t.ID, err)
		}
	case opDelete:
		var docIDs []string
		for _, id := range o.ids {
			if docID, ok := m.remote[id]; ok {
				docIDs = append(docIDs, docID)
				delete(m.remote, id)
			}
		}
		if len(docIDs) == 0 {
			return nil
		}
		if err := m.gw.DeleteTerritories(ctx, docIDs); err != nil {
			return fmt.Errorf("%w: deleting %d territories: %w", ErrPersistence, len(docIDs), err)
		}
	}
	return nil
}

func (m *Mirror) create(ctx context.Context, t territorio.Territory) error {
	meta := docstore.Metadata{
		GameID:      m.cfg.GameID,
		Name:        t.Name,
		Color:       t.Color,
		Area:        score.Area(t),
		Description: t.Description,
	}
	if meta.Color == "" {
		meta.Color = m.cfg.Colors[t.OwnerID]
	}
	docID, err := m.gw.CreateTerritory(ctx, t.OwnerID, t.Coordinates, meta)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrPersistence, t.ID, err)
	}
	m.remote[t.ID] = docID
	return nil
}

// diff lists deletes first, then changes to surviving territories, then
// creations, each in list order.
func diff(prev, next []territorio.Territory) []op {
	before := make(map[string]territorio.Territory, len(prev))
	for _, t := range prev {
		before[t.ID] = t
	}
	after := make(map[string]struct{}, len(next))
	for _, t := range next {
		after[t.ID] = struct{}{}
	}

	var ops []op
	var gone []string
	for _, t := range prev {
		if _, ok := after[t.ID]; !ok {
			gone = append(gone, t.ID)
		}
	}
	if len(gone) > 0 {
		ops = append(ops, op{kind: opDelete, ids: gone})
	}

	var created []op
	for _, t := range next {
		old, ok := before[t.ID]
		if !ok {
			created = append(created, op{kind: opCreate, territory: t.Clone()})
			continue
		}
		if !territorio.RingsEqual(old.Coordinates, t.Coordinates) {
			ops = append(ops, op{kind: opUpdate, territory: t.Clone()})
		}
		if old.OwnerID != t.OwnerID {
			ops = append(ops, op{kind: opOwner, territory: t.Clone()})
		}
	}
	return append(ops, created...)
}
