package controllers

import (
	models "Magnate/models/postgres"
	"Magnate/services/game"
	"Magnate/services/intent"
	redis_service "Magnate/services/redis"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// statusForReason maps engine rejection reasons onto HTTP statuses.
func statusForReason(reason intent.Reason) int {
	switch reason {
	case intent.ReasonInvalidIntentShape:
		return http.StatusBadRequest
	case intent.ReasonUnknownActor:
		return http.StatusForbidden
	case intent.ReasonNotYourTurn, intent.ReasonStaleVersionConflict,
		intent.ReasonRoomFull, intent.ReasonGameNotStarted:
		return http.StatusConflict
	case intent.ReasonInsufficientFunds, intent.ReasonTileUnavailable,
		intent.ReasonIncompleteSet:
		return http.StatusUnprocessableEntity
	case intent.ReasonRoomClosed, intent.ReasonGameFinished:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// @Summary Submits a game intent
// @Description Runs one intent through the authoritative engine; idempotent on intent_id
// @Tags game
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param room_id path string true "Id of the room"
// @Param intent body object true "Intent document"
// @Success 200 {object} object{accepted=boolean,version=integer}
// @Failure 400 {object} object{error=string}
// @Failure 409 {object} object{error=string,reason=string}
// @Failure 422 {object} object{error=string,reason=string}
// @Router /auth/games/{room_id}/intent [post]
// @Security ApiKeyAuth
func PostIntent(db *gorm.DB, hub *game.Hub, redisClient *redis_service.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := usernameFromRequest(c, db)
		if !ok {
			return
		}
		roomID := c.Param("room_id")

		var in intent.Intent
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid intent document"})
			return
		}
		// The actor is always the authenticated caller.
		in.ActorID = username
		in.Synthesized = false

		// Replays of an already applied intent are answered from the
		// idempotency cache, even after the engine instance that first
		// applied them has been restarted.
		if redisClient != nil && in.IntentID != "" {
			if applied, err := redisClient.GetAppliedIntent(roomID, in.IntentID); err == nil && applied != nil {
				c.JSON(http.StatusOK, gin.H{"accepted": true, "version": applied.Version})
				return
			}
		}

		res, err := hub.Submit(c.Request.Context(), roomID, &in)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing intent"})
			return
		}
		if !res.Accepted {
			c.JSON(statusForReason(res.Reason), gin.H{
				"accepted": false,
				"version":  res.Version,
				"reason":   res.Reason,
				"error":    res.Notice,
			})
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// @Summary Returns the authoritative room state
// @Description Serves the live engine snapshot, falling back to the Redis copy
// @Tags game
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param room_id path string true "Id of the room"
// @Success 200 {object} object{room_id=string,version=integer}
// @Failure 404 {object} object{error=string}
// @Router /auth/games/{room_id}/state [get]
// @Security ApiKeyAuth
func GetState(db *gorm.DB, hub *game.Hub, redisClient *redis_service.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := usernameFromRequest(c, db); !ok {
			return
		}
		roomID := c.Param("room_id")

		if room, ok := hub.GetRoom(roomID); ok {
			snap, err := room.Snapshot(c.Request.Context())
			if err == nil {
				c.JSON(http.StatusOK, snap)
				return
			}
		}

		state, err := redisClient.GetRoomState(roomID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching room state"})
			return
		}
		if state == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "No state for room"})
			return
		}
		c.JSON(http.StatusOK, state)
	}
}

// @Summary Returns the applied intent log
// @Description Pages through the append-only audit log of applied intents, oldest first
// @Tags game
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param room_id path string true "Id of the room"
// @Param after query int false "Only records with version greater than this"
// @Param limit query int false "Rows per page, capped at 100"
// @Success 200 {object} object{records=array}
// @Failure 400 {object} object{error=string}
// @Router /auth/games/{room_id}/log [get]
// @Security ApiKeyAuth
func GetIntentLog(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := usernameFromRequest(c, db); !ok {
			return
		}
		roomID := c.Param("room_id")

		after := 0
		if raw := c.Query("after"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid after"})
				return
			}
			after = n
		}
		limit := 50
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 100 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
				return
			}
			limit = n
		}

		var records []models.IntentRecord
		err := db.Where("room_id = ? AND version > ?", roomID, after).
			Order("version ASC").
			Limit(limit).
			Find(&records).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching intent log"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": records})
	}
}
