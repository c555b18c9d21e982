package game

import (
	game_constants "Magnate/constants/game"
	redis_models "Magnate/models/redis"
	"Magnate/services/intent"
	"encoding/json"
	"fmt"
)

// DiceRoller produces one dice result (2..12). Injected so tests and
// replays stay deterministic.
type DiceRoller func() int

// Apply evaluates one validated intent against a snapshot and returns
// the successor state. It never mutates its input: the returned state is
// a deep copy, or nil when the intent was accepted without changing
// state (chat, duplicate join). Rejections are RejectionErrors from the
// closed taxonomy and leave the caller's state and version untouched.
func Apply(s *redis_models.RoomState, in *intent.Intent, roll DiceRoller) (*redis_models.RoomState, error) {
	switch in.Type {
	case intent.TypeJoinGame:
		return applyJoin(s, in)
	case intent.TypeStartGame:
		return applyStart(s, in)
	case intent.TypeChatMessage:
		// Chat never advances the game state or its version.
		return nil, nil
	}

	// Everything below is turn-bound.
	if s.Phase == redis_models.PhaseFinished {
		return nil, intent.Reject(intent.ReasonGameFinished, "game is over")
	}
	if s.Phase != redis_models.PhasePlaying {
		return nil, intent.Reject(intent.ReasonGameNotStarted, "game has not started")
	}
	current := s.CurrentPlayer()
	if current == nil || current.PlayerID != in.ActorID {
		return nil, intent.Reject(intent.ReasonNotYourTurn, "it is not your turn")
	}

	switch in.Type {
	case intent.TypeRollDice:
		return applyRoll(s, roll)
	case intent.TypePurchaseProperty:
		return applyPurchase(s, in)
	case intent.TypeDeclinePurchase:
		return applyDecline(s)
	case intent.TypeDevelopProperty:
		return applyDevelop(s, in)
	case intent.TypeEndTurn:
		return applyEndTurn(s)
	default:
		return nil, intent.Reject(intent.ReasonInvalidIntentShape, "unsupported type "+string(in.Type))
	}
}

func applyJoin(s *redis_models.RoomState, in *intent.Intent) (*redis_models.RoomState, error) {
	if s.Phase != redis_models.PhaseLobby {
		return nil, intent.Reject(intent.ReasonRoomClosed, "game already started")
	}
	if s.FindPlayer(in.ActorID) != nil {
		// Same player joining again is a no-op, not an error.
		return nil, nil
	}
	if len(s.Players) >= s.MaxPlayers {
		return nil, intent.Reject(intent.ReasonRoomFull, "room is at capacity")
	}

	var payload intent.JoinGamePayload
	if err := json.Unmarshal(in.Payload, &payload); err != nil {
		return nil, intent.Reject(intent.ReasonInvalidIntentShape, "bad JOIN_GAME payload")
	}

	next := s.Clone()
	next.Players = append(next.Players, redis_models.Player{
		PlayerID:    in.ActorID,
		DisplayName: payload.DisplayName,
		Money:       game_constants.StartingMoney,
		OwnedTiles:  []int{},
		IsAI:        payload.IsAI,
	})
	return next, nil
}

func applyStart(s *redis_models.RoomState, in *intent.Intent) (*redis_models.RoomState, error) {
	if s.Phase != redis_models.PhaseLobby {
		return nil, intent.Reject(intent.ReasonRoomClosed, "game already started")
	}
	if in.ActorID != s.CreatorID {
		return nil, intent.Reject(intent.ReasonNotYourTurn, "only the room creator can start the game")
	}
	if len(s.Players) < game_constants.MinPlayersPerRoom {
		return nil, intent.Reject(intent.ReasonGameNotStarted,
			fmt.Sprintf("need at least %d players", game_constants.MinPlayersPerRoom))
	}

	next := s.Clone()
	next.Phase = redis_models.PhasePlaying
	next.TurnIndex = 0
	next.Decision = redis_models.DecisionRoll
	next.PendingTile = -1
	return next, nil
}

func applyRoll(s *redis_models.RoomState, roll DiceRoller) (*redis_models.RoomState, error) {
	if s.Decision != redis_models.DecisionRoll {
		return nil, intent.Reject(intent.ReasonNotYourTurn, "not awaiting a roll")
	}

	next := s.Clone()
	player := next.CurrentPlayer()

	steps := roll()
	newPos := (player.Position + steps) % game_constants.BoardSize
	if newPos < player.Position {
		player.Money += game_constants.PassStartSalary
	}
	player.Position = newPos

	tileState := next.Board[newPos]
	switch {
	case tileState.OwnerID == "":
		// Unowned: the player now decides to purchase or decline.
		next.Decision = redis_models.DecisionPurchase
		next.PendingTile = newPos

	case tileState.OwnerID != player.PlayerID:
		// Owned by someone else: rent falls due immediately.
		owner := next.FindPlayer(tileState.OwnerID)
		tile, _ := TileByID(newPos)
		rent := tile.BaseRent * (1 + tileState.Houses)
		if player.Money < rent {
			// Cannot cover rent: hand over what remains and go bankrupt.
			if owner != nil {
				owner.Money += player.Money
			}
			player.Money = 0
			bankrupt(next, player)
		} else {
			player.Money -= rent
			if owner != nil {
				owner.Money += rent
			}
		}
		next.Decision = redis_models.DecisionManage
		next.PendingTile = -1

	default:
		// Landed on own property.
		next.Decision = redis_models.DecisionManage
		next.PendingTile = -1
	}

	finishIfDecided(next)
	return next, nil
}

func applyPurchase(s *redis_models.RoomState, in *intent.Intent) (*redis_models.RoomState, error) {
	var payload intent.PurchasePayload
	if err := json.Unmarshal(in.Payload, &payload); err != nil {
		return nil, intent.Reject(intent.ReasonInvalidIntentShape, "bad PURCHASE_PROPERTY payload")
	}
	if payload.ExpectedVersion != nil && *payload.ExpectedVersion != s.Version {
		return nil, intent.Reject(intent.ReasonStaleVersionConflict,
			fmt.Sprintf("decision was made against version %d, state is at %d", *payload.ExpectedVersion, s.Version))
	}
	if s.Decision != redis_models.DecisionPurchase || payload.TileID != s.PendingTile {
		return nil, intent.Reject(intent.ReasonTileUnavailable, "tile is not up for purchase")
	}
	if owner := s.Board[payload.TileID].OwnerID; owner != "" {
		return nil, intent.Reject(intent.ReasonTileUnavailable, "tile already owned")
	}

	tile, ok := TileByID(payload.TileID)
	if !ok {
		return nil, intent.Reject(intent.ReasonInvalidIntentShape, "tile off the board")
	}

	next := s.Clone()
	player := next.CurrentPlayer()
	if player.Money < tile.Price {
		return nil, intent.Reject(intent.ReasonInsufficientFunds,
			fmt.Sprintf("tile costs %d, you have %d", tile.Price, player.Money))
	}
	player.Money -= tile.Price
	player.OwnedTiles = append(player.OwnedTiles, tile.ID)
	next.Board[tile.ID] = redis_models.TileState{OwnerID: player.PlayerID}
	next.Decision = redis_models.DecisionManage
	next.PendingTile = -1
	return next, nil
}

func applyDecline(s *redis_models.RoomState) (*redis_models.RoomState, error) {
	if s.Decision != redis_models.DecisionPurchase {
		return nil, intent.Reject(intent.ReasonTileUnavailable, "no purchase pending")
	}
	next := s.Clone()
	next.Decision = redis_models.DecisionManage
	next.PendingTile = -1
	return next, nil
}

func applyDevelop(s *redis_models.RoomState, in *intent.Intent) (*redis_models.RoomState, error) {
	var payload intent.PurchasePayload
	if err := json.Unmarshal(in.Payload, &payload); err != nil {
		return nil, intent.Reject(intent.ReasonInvalidIntentShape, "bad DEVELOP_PROPERTY payload")
	}
	if payload.ExpectedVersion != nil && *payload.ExpectedVersion != s.Version {
		return nil, intent.Reject(intent.ReasonStaleVersionConflict,
			fmt.Sprintf("decision was made against version %d, state is at %d", *payload.ExpectedVersion, s.Version))
	}
	if s.Decision != redis_models.DecisionManage {
		return nil, intent.Reject(intent.ReasonNotYourTurn, "develop after rolling")
	}

	tile, ok := TileByID(payload.TileID)
	if !ok {
		return nil, intent.Reject(intent.ReasonInvalidIntentShape, "tile off the board")
	}
	tileState := s.Board[tile.ID]
	if tileState.OwnerID != in.ActorID {
		return nil, intent.Reject(intent.ReasonTileUnavailable, "you do not own this tile")
	}
	// Development requires the complete color group.
	for _, id := range GroupTiles(tile.Group) {
		if s.Board[id].OwnerID != in.ActorID {
			return nil, intent.Reject(intent.ReasonIncompleteSet, "you do not own the whole group")
		}
	}
	if tileState.Houses >= game_constants.MaxHousesPerTile {
		return nil, intent.Reject(intent.ReasonTileUnavailable, "tile fully developed")
	}

	cost := HouseCost(tile.Group)
	next := s.Clone()
	player := next.CurrentPlayer()
	if player.Money < cost {
		return nil, intent.Reject(intent.ReasonInsufficientFunds,
			fmt.Sprintf("development costs %d, you have %d", cost, player.Money))
	}
	player.Money -= cost
	ts := next.Board[tile.ID]
	ts.Houses++
	next.Board[tile.ID] = ts
	return next, nil
}

func applyEndTurn(s *redis_models.RoomState) (*redis_models.RoomState, error) {
	next := s.Clone()
	next.PendingTile = -1
	next.Decision = redis_models.DecisionRoll
	advanceTurn(next)
	finishIfDecided(next)
	return next, nil
}

// advanceTurn moves TurnIndex to the next non-bankrupt player.
func advanceTurn(s *redis_models.RoomState) {
	n := len(s.Players)
	for i := 1; i <= n; i++ {
		idx := (s.TurnIndex + i) % n
		if !s.Players[idx].Bankrupt {
			s.TurnIndex = idx
			return
		}
	}
}

// bankrupt marks a player bankrupt and releases every tile they owned.
func bankrupt(s *redis_models.RoomState, p *redis_models.Player) {
	p.Bankrupt = true
	for _, id := range p.OwnedTiles {
		delete(s.Board, id)
	}
	p.OwnedTiles = []int{}
}

// finishIfDecided transitions to the terminal phase once at most one
// solvent player remains, instead of cycling turns forever.
func finishIfDecided(s *redis_models.RoomState) {
	if s.Phase != redis_models.PhasePlaying {
		return
	}
	solvent := 0
	winner := ""
	for i := range s.Players {
		if !s.Players[i].Bankrupt {
			solvent++
			winner = s.Players[i].PlayerID
		}
	}
	if solvent <= 1 {
		s.Phase = redis_models.PhaseFinished
		s.WinnerID = winner
	}
}
