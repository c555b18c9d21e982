package socketio_types

import (
	"sync"

	"github.com/zishang520/socket.io/v2/socket"
)

// SocketServer wraps the socket.io server plus the username -> socket
// map used to target individual players.
type SocketServer struct {
	Sio_server      *socket.Server
	UserConnections map[string]*socket.Socket
	mutex           sync.RWMutex
}

func NewSocketServer() *SocketServer {
	return &SocketServer{
		UserConnections: make(map[string]*socket.Socket),
	}
}

func (s *SocketServer) AddConnection(username string, sock *socket.Socket) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.UserConnections[username] = sock
}

func (s *SocketServer) RemoveConnection(username string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.UserConnections, username)
}

func (s *SocketServer) GetConnection(username string) (*socket.Socket, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	sock, exists := s.UserConnections[username]
	return sock, exists
}

// BroadcastToRoom emits an event to every socket joined to roomID.
func (s *SocketServer) BroadcastToRoom(roomID string, event string, payload interface{}) {
	s.Sio_server.To(socket.Room(roomID)).Emit(event, payload)
}
