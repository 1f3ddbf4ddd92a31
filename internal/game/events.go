package game

// Event types published after every session mutation.
const (
	EventPointAdded        = "point_added"
	EventPathReset         = "path_reset"
	EventTerritoryClaimed  = "territory_claimed"
	EventTerritoryStolen   = "territory_stolen"
	EventHoleCut           = "hole_cut"
	EventClaimRejected     = "claim_rejected"
	EventTurnChanged       = "turn_changed"
	EventEditModeChanged   = "edit_mode_changed"
	EventTerritorySelected = "territory_selected"
	EventTerritoryUpdated  = "territory_updated"
	EventTerritoryDeleted  = "territory_deleted"
	EventOwnerChanged      = "owner_changed"
	EventTerritoriesClear  = "territories_cleared"
	EventGameReset         = "game_reset"
	EventPersistenceFailed = "persistence_failed"
)

// Event is a notification about a change in one game. Subscribers refetch the
// snapshot when they need full state.
type Event struct {
	Type          string   `json:"type"`
	GameID        string   `json:"gameId"`
	TerritoryID   string   `json:"territoryId,omitempty"`
	OwnerID       string   `json:"ownerId,omitempty"`
	Affected      []string `json:"affected,omitempty"`
	CurrentPlayer string   `json:"currentPlayer,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

// Notifier receives session events. It is called with the session lock held
// and must not block or call back into the session.
type Notifier func(Event)
