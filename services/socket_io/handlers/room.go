package handlers

import (
	"Magnate/services/distributor"
	"Magnate/services/game"
	"Magnate/services/intent"
	socketio_types "Magnate/services/socket_io/types"
	"Magnate/utils"
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
	"gorm.io/gorm"
)

// Subscriptions tracks, per connected user, the cancel function for
// each room snapshot subscription so disconnects can tear them down.
type Subscriptions struct {
	mu      sync.Mutex
	cancels map[string]map[string]func() // username -> roomID -> cancel
}

func NewSubscriptions() *Subscriptions {
	return &Subscriptions{cancels: make(map[string]map[string]func())}
}

func (s *Subscriptions) add(username, roomID string, cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cancels[username]; !ok {
		s.cancels[username] = make(map[string]func())
	}
	if prev, ok := s.cancels[username][roomID]; ok {
		prev()
	}
	s.cancels[username][roomID] = cancel
}

func (s *Subscriptions) drop(username, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.cancels[username][roomID]; ok {
		cancel()
		delete(s.cancels[username], roomID)
	}
}

func (s *Subscriptions) dropAll(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cancel := range s.cancels[username] {
		cancel()
	}
	delete(s.cancels, username)
}

// HandleJoinRoom subscribes the socket to a room's snapshot feed. The
// latest snapshot is emitted immediately so a reconnecting client can
// render the board without waiting for the next state change.
func HandleJoinRoom(dist *distributor.Distributor, client *socket.Socket, db *gorm.DB,
	username string, subs *Subscriptions) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 1 {
			client.Emit("error", gin.H{"error": "Missing room id"})
			return
		}
		roomID, ok := args[0].(string)
		if !ok || roomID == "" {
			client.Emit("error", gin.H{"error": "Invalid room id"})
			return
		}

		if _, err := utils.RoomExists(db, roomID, client); err != nil {
			return
		}

		client.Join(socket.Room(roomID))

		ch, cancel := dist.Subscribe(roomID, username, 16)
		subs.add(username, roomID, cancel)

		go func() {
			for snap := range ch {
				client.Emit("room_snapshot", snap)
			}
		}()

		log.Printf("[ROOM-JOIN] User %s subscribed to room %s", username, roomID)
		client.Emit("joined_room", gin.H{"room_id": roomID})
	}
}

// HandleExitRoom drops the snapshot subscription and leaves the
// socket.io room.
func HandleExitRoom(client *socket.Socket, username string, subs *Subscriptions) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 1 {
			client.Emit("error", gin.H{"error": "Missing room id"})
			return
		}
		roomID, ok := args[0].(string)
		if !ok || roomID == "" {
			client.Emit("error", gin.H{"error": "Invalid room id"})
			return
		}
		subs.drop(username, roomID)
		client.Leave(socket.Room(roomID))
		log.Printf("[ROOM-EXIT] User %s left room %s", username, roomID)
		client.Emit("exited_room", gin.H{"room_id": roomID})
	}
}

// HandleSubmitIntent bridges a socket intent submission into the
// engine hub. The actor is always the authenticated user, never a
// field of the payload.
func HandleSubmitIntent(hub *game.Hub, client *socket.Socket, username string) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 2 {
			client.Emit("error", gin.H{"error": "Expected room id and intent"})
			return
		}
		roomID, ok := args[0].(string)
		if !ok || roomID == "" {
			client.Emit("error", gin.H{"error": "Invalid room id"})
			return
		}

		raw, err := json.Marshal(args[1])
		if err != nil {
			client.Emit("error", gin.H{"error": "Invalid intent document"})
			return
		}
		var in intent.Intent
		if err := json.Unmarshal(raw, &in); err != nil {
			client.Emit("error", gin.H{"error": "Invalid intent document"})
			return
		}
		in.ActorID = username
		in.Synthesized = false

		res, err := hub.Submit(context.Background(), roomID, &in)
		if err != nil {
			log.Printf("[INTENT-ERROR] User %s room %s: %v", username, roomID, err)
			client.Emit("error", gin.H{"error": "Error processing intent"})
			return
		}
		client.Emit("intent_result", res)
	}
}

// HandleDisconnecting clears the user's subscriptions and connection
// map entry. Game membership survives a disconnect: the watchdog keeps
// the table moving until the player returns.
func HandleDisconnecting(username string, sio *socketio_types.SocketServer,
	subs *Subscriptions) func(args ...interface{}) {
	return func(args ...interface{}) {
		log.Printf("[DISCONNECT] User %s disconnecting", username)
		subs.dropAll(username)
		sio.RemoveConnection(username)
	}
}
