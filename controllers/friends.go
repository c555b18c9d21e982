package controllers

import (
	models "Magnate/models/postgres"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary Lists the caller's friends
// @Tags friends
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{friends=array}
// @Router /auth/friends [get]
// @Security ApiKeyAuth
func ListFriends(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := usernameFromRequest(c, db)
		if !ok {
			return
		}

		var friendships []models.Friendship
		err := db.Where("username1 = ? OR username2 = ?", username, username).
			Find(&friendships).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching friends"})
			return
		}

		friends := make([]string, 0, len(friendships))
		for _, f := range friendships {
			if f.Username1 == username {
				friends = append(friends, f.Username2)
			} else {
				friends = append(friends, f.Username1)
			}
		}
		c.JSON(http.StatusOK, gin.H{"friends": friends})
	}
}

// @Summary Adds a friend
// @Tags friends
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param friend formData string true "Username to befriend"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/friends [post]
// @Security ApiKeyAuth
func AddFriend(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := usernameFromRequest(c, db)
		if !ok {
			return
		}
		friend := strings.TrimSpace(c.PostForm("friend"))
		if friend == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Friend username is required"})
			return
		}

		var profile models.GameProfile
		if err := db.Where("username = ?", friend).First(&profile).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		friendship := models.Friendship{Username1: username, Username2: friend}
		if err := db.Create(&friendship).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not create friendship"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Friend added"})
	}
}

// @Summary Removes a friend
// @Tags friends
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param friend path string true "Username to remove"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/friends/{friend} [delete]
// @Security ApiKeyAuth
func RemoveFriend(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := usernameFromRequest(c, db)
		if !ok {
			return
		}
		friend := c.Param("friend")

		res := db.Where("(username1 = ? AND username2 = ?) OR (username1 = ? AND username2 = ?)",
			username, friend, friend, username).
			Delete(&models.Friendship{})
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error removing friend"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Friendship not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Friend removed"})
	}
}

// @Summary Invites a friend to a room
// @Tags friends
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param room_id path string true "Id of the room"
// @Param friend formData string true "Username to invite"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/rooms/{room_id}/invite [post]
// @Security ApiKeyAuth
func InviteToRoom(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := usernameFromRequest(c, db)
		if !ok {
			return
		}
		roomID := c.Param("room_id")
		friend := strings.TrimSpace(c.PostForm("friend"))
		if friend == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Friend username is required"})
			return
		}

		var room models.GameRoom
		if err := db.Where("id = ?", roomID).First(&room).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}

		invitation := models.RoomInvitation{
			RoomID:          roomID,
			SenderUsername:  username,
			InvitedUsername: friend,
		}
		if err := db.Create(&invitation).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not create invitation"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Invitation sent"})
	}
}
