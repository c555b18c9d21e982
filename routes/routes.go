package routes

import (
	"Magnate/controllers"
	"Magnate/middleware"
	"Magnate/services/directory"
	"Magnate/services/game"
	redis_service "Magnate/services/redis"
	utils "Magnate/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, redisClient *redis_service.RedisClient,
	hub *game.Hub, dir *directory.Directory) {

	// utils global
	router.Use(utils.Logger())
	router.Use(utils.ErrorHandler())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes group
	api := router.Group("/")

	api.GET("/ping", controllers.Ping)

	api.POST("/login", controllers.Login(db))

	api.POST("/signup", controllers.SignUp(db))

	authentication := api.Group("/auth")
	authentication.Use(middleware.AuthRequired)
	{
		authentication.DELETE("/logout", controllers.Logout)

		authentication.POST("/rooms", controllers.CreateRoom(db, hub, dir))

		authentication.GET("/rooms", controllers.ListRooms(db, dir))

		authentication.GET("/rooms/:room_id", controllers.GetRoomInfo(db))

		authentication.POST("/rooms/:room_id/join", controllers.JoinRoom(db, hub, dir))

		authentication.POST("/rooms/:room_id/invite", controllers.InviteToRoom(db))

		authentication.POST("/games/:room_id/intent", controllers.PostIntent(db, hub, redisClient))

		authentication.GET("/games/:room_id/state", controllers.GetState(db, hub, redisClient))

		authentication.GET("/games/:room_id/log", controllers.GetIntentLog(db))

		authentication.GET("/friends", controllers.ListFriends(db))

		authentication.POST("/friends", controllers.AddFriend(db))

		authentication.DELETE("/friends/:friend", controllers.RemoveFriend(db))
	}
}
