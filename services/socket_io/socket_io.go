package socket_io

import (
	"Magnate/services/distributor"
	"Magnate/services/game"
	"Magnate/services/socket_io/handlers"
	socketio_types "Magnate/services/socket_io/types"
	socketio_utils "Magnate/services/socket_io/utils"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

type MySocketServer socketio_types.SocketServer

// Start wires the realtime transport: every connected client can join
// room snapshot feeds and push intents into the engine hub.
func (sio *MySocketServer) Start(router *gin.Engine, db *gorm.DB,
	hub *game.Hub, dist *distributor.Distributor) {
	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	// Higher ping interval and timeout to reduce network load and
	// tolerate slower networks.
	c.SetPingInterval(5 * time.Second)
	c.SetPingTimeout(3 * time.Second)
	c.SetMaxHttpBufferSize(1000000)
	c.SetConnectTimeout(10 * time.Second)
	c.SetTransports(types.NewSet("polling", "websocket"))
	c.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	sio.UserConnections = make(map[string]*socket.Socket)
	subs := handlers.NewSubscriptions()

	sio.Sio_server = socket.NewServer(nil, nil)
	sio.Sio_server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)

		success, username, _ := socketio_utils.VerifyUserConnection(client, db)
		if !success {
			return
		}

		(*socketio_types.SocketServer)(sio).AddConnection(username, client)
		fmt.Println("An individual just connected!: ", username)

		// Subscribe to a room's snapshot feed
		client.On("join_room", handlers.HandleJoinRoom(dist, client, db, username, subs))

		// Submit an intent to the authoritative engine
		client.On("submit_intent", handlers.HandleSubmitIntent(hub, client, username))

		// Leave a room voluntarily
		client.On("exit_room", handlers.HandleExitRoom(client, username, subs))

		// NOTE: will remove sio connection from map
		client.On("disconnecting", handlers.HandleDisconnecting(username,
			(*socketio_types.SocketServer)(sio), subs))
	})

	router.POST("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))
	router.GET("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))

	fmt.Println("Socket server started")
}
