package socketio_utils

import (
	"Magnate/middleware"
	"Magnate/utils"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
	"gorm.io/gorm"
)

// VerifyUserConnection authenticates a fresh socket from its handshake
// auth data and resolves the player's username.
func VerifyUserConnection(client *socket.Socket, db *gorm.DB) (success bool, username, email string) {
	authData, ok := client.Handshake().Auth.(map[string]interface{})
	if !ok {
		fmt.Println("No auth data provided in handshake!")
		client.Emit("error", gin.H{"error": "Authentication failed: missing auth data"})
		return false, "", ""
	}

	email, err := middleware.Socketio_JWT_decoder(authData)
	if err != nil {
		fmt.Println("Error decoding JWT:", err)
		client.Emit("error", gin.H{
			"error": "Authentication failed: invalid JWT. Remember to set it on the 'authorization' field with the 'Bearer ' prefix.",
		})
		return false, "", ""
	}

	user, err := utils.UserByEmail(db, email)
	if err != nil {
		fmt.Println("Error fetching user from database:", err)
		client.Emit("error", gin.H{"error": "Authentication failed: could not find user"})
		return false, "", email
	}

	return true, user.ProfileUsername, email
}
