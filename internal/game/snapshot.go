package game

import (
	"github.com/playperu/territorio/internal/score"
	"github.com/playperu/territorio/internal/territorio"
)

// Snapshot is everything the map widget needs to repaint one game.
type Snapshot struct {
	GameID        string                 `json:"gameId"`
	Territories   []territorio.Territory `json:"territories"`
	Players       []territorio.Player    `json:"players"`
	CurrentPlayer string                 `json:"currentPlayer"`
	ActivePath    territorio.Ring        `json:"activePath"`
	CanClose      bool                   `json:"canClose"`
	EditMode      bool                   `json:"editMode"`
	Selected      string                 `json:"selectedTerritory,omitempty"`
	Center        territorio.Coordinate  `json:"center"`
	Zoom          float64                `json:"zoom"`
}

// Snapshot returns the current state. Territory colors come from their owner
// and scores are recomputed from the territory list.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	territories := s.store.List()
	scores := score.Compute(territories, s.playerIDs())
	rounded := score.Rounded(scores)

	colors := make(map[string]string, len(s.players))
	players := make([]territorio.Player, len(s.players))
	for i, p := range s.players {
		p.Score = rounded[p.ID]
		players[i] = p
		colors[p.ID] = p.FillColor
	}

	for i := range territories {
		t := &territories[i]
		if t.Color == "" {
			t.Color = colors[t.OwnerID]
		}
		if t.Color == "" {
			t.Color = defaultFillColor
		}
		t.Area = score.Area(*t)
	}

	path := s.path.Clone()
	if path == nil {
		path = territorio.Ring{}
	}

	return Snapshot{
		GameID:        s.id,
		Territories:   territories,
		Players:       players,
		CurrentPlayer: s.currentID(),
		ActivePath:    path,
		CanClose:      !s.editing && len(s.path) >= minRingVertices,
		EditMode:      s.editing,
		Selected:      s.selected,
		Center:        s.center,
		Zoom:          s.zoom,
	}
}
