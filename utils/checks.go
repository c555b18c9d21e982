package utils

import (
	models "Magnate/models/postgres"
	"fmt"

	"gorm.io/gorm"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// UserByEmail resolves the account behind a validated token.
func UserByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// RoomExists checks the persistent directory for a room and notifies
// the socket client when it is missing.
func RoomExists(db *gorm.DB, roomID string, client *socket.Socket) (*models.GameRoom, error) {
	var room models.GameRoom
	if err := db.Where("id = ?", roomID).First(&room).Error; err != nil {
		fmt.Println("Room does not exist:", roomID)
		if client != nil {
			client.Emit("error", gin.H{"error": "Room does not exist"})
		}
		return nil, err
	}
	return &room, nil
}

// IsPlayerInRoom reports persistent membership.
func IsPlayerInRoom(db *gorm.DB, roomID string, username string) (bool, error) {
	var count int64
	err := db.Model(&models.RoomPlayer{}).
		Where("room_id = ? AND username = ?", roomID, username).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
