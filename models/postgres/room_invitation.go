package postgres

import (
	"time"
)

/*
 * 'RoomInvitation' represents an invitation to a private room. It contains
 * a reference to GameRoom and GameProfile
 */
type RoomInvitation struct {
	RoomID          string    `gorm:"primaryKey;size:50;not null"`
	SenderUsername  string    `gorm:"primaryKey;size:50;not null"`
	InvitedUsername string    `gorm:"primaryKey;size:50;not null"`
	CreatedAt       time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationships
	GameRoom           GameRoom    `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
	SenderGameProfile  GameProfile `gorm:"foreignKey:SenderUsername;constraint:OnDelete:CASCADE"`
	InvitedGameProfile GameProfile `gorm:"foreignKey:InvitedUsername;constraint:OnDelete:CASCADE"`
}
