// Package claim turns a closed path into a new territory and clips every
// opposing territory the path overlaps.
package claim

import (
	"fmt"
	"strconv"
	"time"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/playperu/territorio/internal/geometry"
	"github.com/playperu/territorio/internal/territorio"
)

// Mode selects how a claim treats the acting owner's own territories.
type Mode int

const (
	// ModeSteal leaves own territories untouched and always adds the claim.
	ModeSteal Mode = iota
	// ModeSameOwnerHoles cuts the claim out of any own territory that
	// contains it instead of adding a new territory.
	ModeSameOwnerHoles
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeSteal:
		return "steal"
	case ModeSameOwnerHoles:
		return "same-owner-holes"
	default:
		return "unknown"
	}
}

// Result is the next territory set produced by a claim.
type Result struct {
	Territories []territorio.Territory
	StoleArea   bool
	// Claimed is the newly added territory, nil when the claim only cut holes.
	Claimed *territorio.Territory
	HoleCut bool
	// Affected lists the ids of opposing territories that lost area.
	Affected []string
}

// Engine computes claim transitions. It holds no territory state.
type Engine struct {
	mode Mode
	now  func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMode sets the claim mode. The default is ModeSteal.
func WithMode(m Mode) Option {
	return func(e *Engine) { e.mode = m }
}

// WithClock sets the time source used for claim ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{mode: ModeSteal, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mode returns the configured mode.
func (e *Engine) Mode() Mode { return e.mode }

// Complete closes path into a territory for ownerID and returns the full
// replacement territory list. The input slice is never modified. On error no
// result is produced, so callers keep their current state.
func (e *Engine) Complete(territories []territorio.Territory, path territorio.Ring, ownerID string) (Result, error) {
	if len(path) < 3 {
		return Result{}, &ClaimError{Kind: ErrInvalidGeometry, Err: fmt.Errorf("path has %d points, need at least 3", len(path))}
	}

	candidate, err := geometry.ToPolygon([]territorio.Ring{path})
	if err != nil {
		return Result{}, &ClaimError{Kind: ErrInvalidGeometry, Err: err}
	}

	var res Result
	next := make([]territorio.Territory, 0, len(territories)+1)

	for _, t := range territories {
		if t.OwnerID == ownerID {
			if e.mode == ModeSameOwnerHoles {
				holed, contained, err := cutHole(t, candidate)
				if err != nil {
					return Result{}, &ClaimError{Kind: ErrComplexIntersection, TerritoryID: t.ID, Err: err}
				}
				if contained {
					res.HoleCut = true
					next = append(next, holed)
					continue
				}
			}
			next = append(next, t.Clone())
			continue
		}

		pieces, stolen, err := clip(t, candidate)
		if err != nil {
			return Result{}, &ClaimError{Kind: ErrComplexIntersection, TerritoryID: t.ID, Err: err}
		}
		if stolen {
			res.StoleArea = true
			res.Affected = append(res.Affected, t.ID)
		}
		next = append(next, pieces...)
	}

	if !res.HoleCut {
		ts := e.now().UnixMilli()
		claimed := territorio.Territory{
			ID:          uniqueID(next, ownerID+"-"+strconv.FormatInt(ts, 10)),
			OwnerID:     ownerID,
			Coordinates: []territorio.Ring{path.Clone()},
			Timestamp:   ts,
		}
		next = append(next, claimed)
		c := claimed.Clone()
		res.Claimed = &c
	}

	res.Territories = next
	return res, nil
}

// clip subtracts candidate from an opposing territory. A kernel panic is
// reported as an error so one bad territory cannot take the process down.
func clip(t territorio.Territory, candidate geom.Polygon) (out []territorio.Territory, stolen bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, stolen, err = nil, false, fmt.Errorf("geometry kernel panic: %v", r)
		}
	}()

	existing, err := geometry.ToPolygon(t.Coordinates)
	if err != nil {
		return nil, false, err
	}

	overlap, err := geometry.Overlaps(existing, candidate)
	if err != nil {
		return nil, false, err
	}
	if !overlap {
		return []territorio.Territory{t.Clone()}, false, nil
	}

	c, err := geometry.Subtract(existing, candidate)
	if err != nil {
		return nil, false, err
	}

	switch c.Kind {
	case geometry.ClipEmpty:
		return nil, true, nil
	case geometry.ClipSingle:
		kept := t.Clone()
		kept.Coordinates = c.Pieces[0]
		return []territorio.Territory{kept}, true, nil
	case geometry.ClipMultiple:
		out = make([]territorio.Territory, 0, len(c.Pieces))
		for i, rings := range c.Pieces {
			frag := t.Clone()
			frag.ID = fmt.Sprintf("%s-split-%d", t.ID, i)
			frag.Coordinates = rings
			out = append(out, frag)
		}
		return out, true, nil
	default:
		return nil, false, fmt.Errorf("unexpected clip kind %v", c.Kind)
	}
}

// cutHole subtracts candidate from an own territory that fully contains it.
// contained is false when the territory does not contain the candidate.
func cutHole(t territorio.Territory, candidate geom.Polygon) (holed territorio.Territory, contained bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			holed, contained, err = territorio.Territory{}, false, fmt.Errorf("geometry kernel panic: %v", r)
		}
	}()

	existing, err := geometry.ToPolygon(t.Coordinates)
	if err != nil {
		// Malformed own territories are left alone, as in steal mode.
		return t.Clone(), false, nil
	}

	ok, err := geometry.Contains(existing, candidate)
	if err != nil {
		return territorio.Territory{}, false, err
	}
	if !ok {
		return t.Clone(), false, nil
	}

	c, err := geometry.Subtract(existing, candidate)
	if err != nil {
		return territorio.Territory{}, false, err
	}

	holed = t.Clone()
	if c.Kind == geometry.ClipSingle {
		holed.Coordinates = c.Pieces[0]
	}
	return holed, true, nil
}

func uniqueID(ts []territorio.Territory, id string) string {
	taken := make(map[string]struct{}, len(ts))
	for _, t := range ts {
		taken[t.ID] = struct{}{}
	}
	if _, ok := taken[id]; !ok {
		return id
	}
	for n := 1; ; n++ {
		candidate := id + "-" + strconv.Itoa(n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}
