package sync

import (
	redis_service "Magnate/services/redis"
	redis_utils "Magnate/services/redis/utils"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SyncManager persists the final Redis room state down to PostgreSQL.
// During a game Redis is the only authority; Postgres only learns the
// durable outcome when a game ends or a room is torn down.
type SyncManager struct {
	redisClient *redis_service.RedisClient
	db          *sql.DB
}

// NewSyncManager creates a new instance of the synchronization manager
func NewSyncManager(redisClient *redis_service.RedisClient, db *sql.DB) *SyncManager {
	return &SyncManager{
		redisClient: redisClient,
		db:          db,
	}
}

// SyncRoomResults writes every player's final money, holdings and
// winner flag into room_players in one transaction.
func (sm *SyncManager) SyncRoomResults(roomID string) error {
	state, err := sm.redisClient.GetRoomState(roomID)
	if err != nil {
		return fmt.Errorf("error getting room state from Redis: %v", err)
	}
	if state == nil {
		// Nothing to persist; the room never produced state.
		return nil
	}

	tx, err := sm.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %v", err)
	}
	defer tx.Rollback()

	playerQuery := `
		UPDATE room_players
		SET
			money = $1,
			owned_tiles = $2,
			bankrupt = $3,
			winner = $4
		WHERE room_id = $5 AND username = $6
	`

	for _, player := range state.Players {
		tiles, err := json.Marshal(player.OwnedTiles)
		if err != nil {
			return fmt.Errorf("error encoding tiles for %s: %v", player.PlayerID, err)
		}
		_, err = tx.Exec(playerQuery,
			player.Money,
			tiles,
			player.Bankrupt,
			player.PlayerID == state.WinnerID,
			roomID,
			player.PlayerID)
		if err != nil {
			return fmt.Errorf("error updating player %s in PostgreSQL: %v", player.PlayerID, err)
		}
	}

	roomQuery := `
		UPDATE game_rooms
		SET is_open = false
		WHERE id = $1
	`
	if _, err = tx.Exec(roomQuery, roomID); err != nil {
		return fmt.Errorf("error closing room in PostgreSQL: %v", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %v", err)
	}
	return nil
}

// CleanupGameData syncs the final state and then removes the room's
// volatile Redis keys.
func (sm *SyncManager) CleanupGameData(roomID string) error {
	if err := sm.SyncRoomResults(roomID); err != nil {
		return fmt.Errorf("error syncing final room state: %v", err)
	}

	if err := sm.redisClient.DeleteRoomState(roomID); err != nil {
		return fmt.Errorf("error deleting room state: %v", err)
	}
	keys := []string{
		redis_utils.FormatChatHistoryKey(roomID),
	}
	if err := sm.redisClient.CleanupKeys(keys); err != nil {
		return fmt.Errorf("error cleaning Redis data: %v", err)
	}
	return nil
}
