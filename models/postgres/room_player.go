package postgres

import (
	"gorm.io/datatypes"
)

/*
 * 'RoomPlayer' is the persisted membership of a player in a room, plus
 * the durable end-of-game results synced down from Redis.
 */
type RoomPlayer struct {
	// NOTE: composite primary key definition
	RoomID     string         `gorm:"primaryKey;size:50;not null"`
	Username   string         `gorm:"primaryKey;size:50;not null;index"`
	Money      int            `gorm:"default:0"`
	OwnedTiles datatypes.JSON `gorm:"type:jsonb;default:'[]'"`
	Bankrupt   bool           `gorm:"default:false"`
	Winner     bool           `gorm:"default:false"`

	// Relationship with the room and the user's game profile
	GameRoom    GameRoom    `gorm:"foreignKey:RoomID"`
	GameProfile GameProfile `gorm:"foreignKey:Username"`
}
