package redis

import "time"

// RoomPhase is the lifecycle phase of a room's game.
type RoomPhase string

const (
	PhaseLobby    RoomPhase = "lobby"
	PhasePlaying  RoomPhase = "playing"
	PhaseFinished RoomPhase = "finished"
)

// DecisionType identifies what the active player is expected to do next.
// The watchdog picks its deadline based on this.
type DecisionType string

const (
	DecisionRoll     DecisionType = "roll"
	DecisionPurchase DecisionType = "purchase"
	DecisionManage   DecisionType = "manage"
)

// Player is one seat in a room. PlayerID is server-issued and stable for
// the whole game; a published snapshot must never contain a player with
// an empty PlayerID or DisplayName.
type Player struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Money       int    `json:"money"`
	Position    int    `json:"position"`
	OwnedTiles  []int  `json:"owned_tiles"`
	Bankrupt    bool   `json:"bankrupt"`
	IsAI        bool   `json:"is_ai"`
}

// TileState is the ownership/development state of one board tile.
type TileState struct {
	OwnerID string `json:"owner_id"`
	Houses  int    `json:"houses"`
}

// RoomState is the authoritative game state snapshot for one room.
// It is owned exclusively by the engine: every accepted state-changing
// intent produces a new RoomState with Version incremented by exactly 1,
// and published snapshots are never mutated in place.
type RoomState struct {
	RoomID     string       `json:"room_id"`
	CreatorID  string       `json:"creator_id"`
	MaxPlayers int          `json:"max_players"`
	Version    int          `json:"version"`
	Phase      RoomPhase    `json:"phase"`
	TurnIndex  int          `json:"turn_index"`
	Decision   DecisionType `json:"decision"`

	// PendingTile is the tile awaiting a purchase/decline decision while
	// Decision == DecisionPurchase; -1 otherwise.
	PendingTile int `json:"pending_tile"`

	Players  []Player          `json:"players"`
	Board    map[int]TileState `json:"board"`
	WinnerID string            `json:"winner_id,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// CurrentPlayer returns the player whose turn is active, or nil while
// the room is not in the playing phase.
func (s *RoomState) CurrentPlayer() *Player {
	if s.Phase != PhasePlaying || s.TurnIndex < 0 || s.TurnIndex >= len(s.Players) {
		return nil
	}
	return &s.Players[s.TurnIndex]
}

// FindPlayer returns the player with the given id, or nil.
func (s *RoomState) FindPlayer(playerID string) *Player {
	for i := range s.Players {
		if s.Players[i].PlayerID == playerID {
			return &s.Players[i]
		}
	}
	return nil
}

// HasValidPlayers reports whether the snapshot contains at least one
// player with a usable identity. Consumers must refuse to adopt a
// snapshot for which this is false while they still hold good state.
func (s *RoomState) HasValidPlayers() bool {
	for i := range s.Players {
		if s.Players[i].PlayerID != "" && s.Players[i].DisplayName != "" {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the snapshot so that the engine's working
// state can never be aliased by consumers.
func (s *RoomState) Clone() *RoomState {
	cp := *s
	cp.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		cp.Players[i] = p
		cp.Players[i].OwnedTiles = append([]int(nil), p.OwnedTiles...)
	}
	cp.Board = make(map[int]TileState, len(s.Board))
	for k, v := range s.Board {
		cp.Board[k] = v
	}
	return &cp
}
