package postgres

import (
	"gorm.io/datatypes"
)

/*
 * 'GameProfile' defines the structure for a user's game profile. It is
 * referenced in User, Friendship, GameRoom, RoomPlayer, RoomInvitation
 */
type GameProfile struct {
	Username  string         `gorm:"primaryKey;size:50;not null"`
	UserStats datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	UserIcon  int            `gorm:"default:0"`
	IsInAGame bool           `gorm:"default:false"`

	// NOTE: a User relationship here would create a circular dependency
	Friendships1    []Friendship     `gorm:"foreignKey:Username1"`
	Friendships2    []Friendship     `gorm:"foreignKey:Username2"`
	GameRooms       []GameRoom       `gorm:"foreignKey:CreatorUsername"`
	RoomPlayers     []RoomPlayer     `gorm:"foreignKey:Username"`
	RoomInvitations []RoomInvitation `gorm:"foreignKey:InvitedUsername"`
}
