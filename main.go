package main

import (
	"Magnate/config"
	"Magnate/middleware"
	redis_models "Magnate/models/redis"
	models "Magnate/models/postgres"
	"Magnate/routes"
	"Magnate/services/distributor"
	"Magnate/services/game"
	"Magnate/services/directory"
	"Magnate/services/intent"
	redis_service "Magnate/services/redis"
	"Magnate/services/socket_io"
	socketio_types "Magnate/services/socket_io/types"
	syncpkg "Magnate/services/sync"
	"Magnate/services/watchdog"
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// @title Magnate API
// @version 1.0
// @description Gin-Gonic server for the "Magnate" game API
// @BasePath /
func main() {
	godotenv.Load()
	log.Println("Setting up server...")

	if os.Getenv("PROD") == "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	gormDB, err := config.ConnectGORM()
	if err != nil {
		log.Fatalf("Error connecting to PostgreSQL: %v", err)
	}
	log.Println("GORM Connected")

	// Only migrate in development or during deployment
	if os.Getenv("MIGRATE_POSTGRES") == "true" {
		log.Println("Migrating PostgreSQL database...")
		if err := config.MigrateDatabase(gormDB); err != nil {
			log.Printf("Warning: Database migration failed: %v", err)
		} else {
			log.Println("Database migrated successfully")
		}
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("Error reading GORM PostgreSQL instance: %v", err)
	}
	defer sqlDB.Close()

	redisClient, err := config.Connect_redis()
	if err != nil {
		log.Fatalf("Error connecting to Redis: %v", err)
	}
	defer redis_service.CloseRedis(redisClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dist := distributor.NewDistributor(ctx, redisClient, redisClient)
	dir := directory.NewDirectory(gormDB)
	syncManager := syncpkg.NewSyncManager(redisClient, sqlDB)
	sio := &socket_io.MySocketServer{}

	var hub *game.Hub
	var dog *watchdog.Watchdog

	hooks := game.Hooks{
		PublishSnapshot: dist.Publish,
		TurnChanged: func(ev game.TurnEvent) {
			dog.ObserveTurn(ev)
			if ev.Terminal {
				go func() {
					if err := syncManager.SyncRoomResults(ev.RoomID); err != nil {
						log.Printf("[SYNC-ERROR] Room %s: %v", ev.RoomID, err)
					}
				}()
			}
		},
		Touch:       dir.Touch,
		MarkStarted: dir.MarkStarted,
		RecordIntent: func(roomID string, version int, in *intent.Intent) {
			record := models.IntentRecord{
				RoomID:     roomID,
				Version:    version,
				IntentID:   in.IntentID,
				IntentType: string(in.Type),
				ActorID:    in.ActorID,
				AppliedAt:  time.Now(),
			}
			if len(in.Payload) > 0 {
				record.Payload = datatypes.JSON(in.Payload)
			}
			if err := gormDB.Create(&record).Error; err != nil {
				log.Printf("[AUDIT-ERROR] Room %s v%d: %v", roomID, version, err)
			}
			applied := &redis_models.AppliedIntent{
				IntentID:  in.IntentID,
				RoomID:    roomID,
				Version:   version,
				Accepted:  true,
				AppliedAt: time.Now(),
			}
			if err := redisClient.SaveAppliedIntent(applied); err != nil {
				log.Printf("[AUDIT-ERROR] Room %s intent %s: %v", roomID, in.IntentID, err)
			}
		},
		Chat: func(roomID string, actorID string, message string) {
			msg := &redis_models.ChatMessage{
				Message:   message,
				PlayerID:  actorID,
				Timestamp: time.Now(),
			}
			if err := redisClient.AppendChatMessage(roomID, msg); err != nil {
				log.Printf("[CHAT-ERROR] Room %s: %v", roomID, err)
			}
			(*socketio_types.SocketServer)(sio).BroadcastToRoom(roomID, "chat_message", msg)
		},
	}

	hub = game.NewHub(ctx, intent.NewValidator(), game.RollTwoDice, hooks)
	dog = watchdog.NewWatchdog(ctx, hub)

	dir.OnClosed = func(roomID string) {
		hub.RemoveRoom(roomID)
		dog.DropRoom(roomID)
		dist.CloseRoom(roomID)
		if err := syncManager.CleanupGameData(roomID); err != nil {
			log.Printf("[SYNC-ERROR] Cleanup for room %s: %v", roomID, err)
		}
	}
	dir.StartSweeper(ctx)

	restoreRooms(ctx, gormDB, redisClient, hub)

	r := gin.Default()

	middleware.SetUpMiddleware(r)

	routes.SetupRoutes(r, gormDB, redisClient, hub, dir)

	sio.Start(r, gormDB, hub, dist)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// restoreRooms rebuilds engines for open rooms from their Redis state
// after a restart, so in-flight games survive a process bounce.
func restoreRooms(ctx context.Context, db *gorm.DB, redisClient *redis_service.RedisClient, hub *game.Hub) {
	var rooms []models.GameRoom
	if err := db.Where("is_open = ? OR game_started = ?", true, true).Find(&rooms).Error; err != nil {
		log.Printf("[RESTORE-ERROR] Error listing rooms: %v", err)
		return
	}
	restored := 0
	for _, room := range rooms {
		state, err := redisClient.GetRoomState(room.ID)
		if err != nil {
			log.Printf("[RESTORE-ERROR] Room %s: %v", room.ID, err)
			continue
		}
		if state == nil {
			state = game.NewRoomState(room.ID, room.CreatorUsername, room.MaxPlayers)
		}
		hub.EnsureRoom(state)
		restored++
	}
	log.Printf("[RESTORE] Restored %d rooms", restored)
}
