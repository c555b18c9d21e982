package controllers

import (
	game_constants "Magnate/constants/game"
	"Magnate/middleware"
	models "Magnate/models/postgres"
	"Magnate/services/directory"
	"Magnate/services/game"
	"Magnate/services/intent"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// usernameFromRequest resolves the calling player from the session or,
// failing that, from the Authorization header.
func usernameFromRequest(c *gin.Context, db *gorm.DB) (string, bool) {
	var email string
	if v := sessions.Default(c).Get("Email"); v != nil {
		email, _ = v.(string)
	}
	if email == "" {
		decoded, err := middleware.JWT_decoder(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return "", false
		}
		email = decoded
	}

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found: invalid email"})
		return "", false
	}
	return user.ProfileUsername, true
}

// @Summary Creates a new game room
// @Description Creates a room, registers the creator as its first player and returns the room id
// @Tags rooms
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param max_players formData int false "Player capacity (2-6)"
// @Param visibility formData string false "public, friends, private or unlisted"
// @Success 200 {object} object{room_id=string,message=string}
// @Failure 400 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /auth/rooms [post]
// @Security ApiKeyAuth
func CreateRoom(db *gorm.DB, hub *game.Hub, dir *directory.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := usernameFromRequest(c, db)
		if !ok {
			return
		}

		maxPlayers := game_constants.DefaultMaxPlayers
		if raw := c.PostForm("max_players"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < game_constants.MinPlayersPerRoom || n > game_constants.MaxPlayersPerRoom {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_players"})
				return
			}
			maxPlayers = n
		}

		visibility := models.VisibilityPublic
		if raw := c.PostForm("visibility"); raw != "" {
			switch models.RoomVisibility(raw) {
			case models.VisibilityPublic, models.VisibilityFriends,
				models.VisibilityPrivate, models.VisibilityUnlisted:
				visibility = models.RoomVisibility(raw)
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visibility"})
				return
			}
		}

		newRoom := models.GameRoom{
			CreatorUsername: username,
			MaxPlayers:      maxPlayers,
			Visibility:      visibility,
		}
		if err := db.Create(&newRoom).Error; err != nil {
			log.Printf("[ROOM-ERROR] Failed to create room: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating room"})
			return
		}

		room := hub.EnsureRoom(game.NewRoomState(newRoom.ID, username, maxPlayers))
		payload, _ := json.Marshal(intent.JoinGamePayload{DisplayName: username})
		res, err := room.Submit(c.Request.Context(), &intent.Intent{
			IntentID: "join-" + uuid.NewString(),
			Type:     intent.TypeJoinGame,
			ActorID:  username,
			Payload:  payload,
		})
		if err != nil || !res.Accepted {
			log.Printf("[ROOM-ERROR] Creator join failed for room %s: %v (%s)", newRoom.ID, err, res.Reason)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error joining created room"})
			return
		}

		if err := db.Create(&models.RoomPlayer{RoomID: newRoom.ID, Username: username,
			Money: game_constants.StartingMoney}).Error; err != nil {
			log.Printf("[ROOM-ERROR] Failed to persist creator membership: %v", err)
		}
		dir.Touch(newRoom.ID)

		c.JSON(http.StatusOK, gin.H{"room_id": newRoom.ID, "message": "Room created successfully"})
	}
}

// @Summary Gives info of a room
// @Description Given a room id, returns its directory document and player count
// @Tags rooms
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param room_id path string true "Id of the room"
// @Success 200 {object} object{room_id=string,creator=string,current_players=integer,max_players=integer}
// @Failure 404 {object} object{error=string}
// @Router /auth/rooms/{room_id} [get]
// @Security ApiKeyAuth
func GetRoomInfo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("room_id")

		var room models.GameRoom
		if err := db.Where("id = ?", roomID).First(&room).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching room"})
			}
			return
		}

		var count int64
		if err := db.Model(&models.RoomPlayer{}).Where("room_id = ?", roomID).Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error counting players"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"room_id":         room.ID,
			"creator":         room.CreatorUsername,
			"current_players": count,
			"max_players":     room.MaxPlayers,
			"game_started":    room.GameStarted,
			"is_open":         room.IsOpen,
			"visibility":      room.Visibility,
		})
	}
}

// @Summary Lists joinable rooms
// @Description Pages through rooms the caller may join, most recently active first
// @Tags rooms
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param cursor query string false "Opaque page cursor"
// @Param page_size query int false "Rows per page, capped at 20"
// @Success 200 {object} object{rooms=array,next_cursor=string}
// @Failure 400 {object} object{error=string}
// @Router /auth/rooms [get]
// @Security ApiKeyAuth
func ListRooms(db *gorm.DB, dir *directory.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := usernameFromRequest(c, db)
		if !ok {
			return
		}

		pageSize := 0
		if raw := c.Query("page_size"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page_size"})
				return
			}
			pageSize = n
		}

		page, err := dir.ListJoinable(username, c.Query("cursor"), pageSize)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// @Summary Joins a room
// @Description Adds the caller to an open room through the game engine
// @Tags rooms
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param room_id path string true "Id of the room to join"
// @Success 200 {object} object{room_id=string,version=integer}
// @Failure 404 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Failure 410 {object} object{error=string}
// @Router /auth/rooms/{room_id}/join [post]
// @Security ApiKeyAuth
func JoinRoom(db *gorm.DB, hub *game.Hub, dir *directory.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := usernameFromRequest(c, db)
		if !ok {
			return
		}
		roomID := c.Param("room_id")

		var room models.GameRoom
		if err := db.Where("id = ?", roomID).First(&room).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		if !room.IsOpen || room.GameStarted {
			c.JSON(http.StatusGone, gin.H{"error": "Room is closed"})
			return
		}

		engineRoom := hub.EnsureRoom(game.NewRoomState(room.ID, room.CreatorUsername, room.MaxPlayers))
		payload, _ := json.Marshal(intent.JoinGamePayload{DisplayName: username})
		res, err := engineRoom.Submit(c.Request.Context(), &intent.Intent{
			IntentID: "join-" + uuid.NewString(),
			Type:     intent.TypeJoinGame,
			ActorID:  username,
			Payload:  payload,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error joining room"})
			return
		}
		if !res.Accepted {
			c.JSON(statusForReason(res.Reason), gin.H{"error": res.Notice, "reason": res.Reason})
			return
		}

		if err := db.Create(&models.RoomPlayer{RoomID: room.ID, Username: username,
			Money: game_constants.StartingMoney}).Error; err != nil {
			// Duplicate membership rows are tolerated on rejoin.
			log.Printf("[ROOM] Membership row for %s in %s: %v", username, room.ID, err)
		}
		dir.Touch(room.ID)

		c.JSON(http.StatusOK, gin.H{"room_id": room.ID, "version": res.Version})
	}
}
