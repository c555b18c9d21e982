package game

import (
	redis_models "Magnate/models/redis"
	"Magnate/services/intent"
	"context"
	"sync"
)

// Hub owns the set of live room engines in this process. Rooms run fully
// independently: there is no lock across rooms, only the per-room
// serialization inside each engine.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	validator *intent.Validator
	roll      DiceRoller
	hooks     Hooks

	ctx context.Context
}

// NewHub creates a hub whose rooms share the given validator chain,
// dice roller and side-effect hooks.
func NewHub(ctx context.Context, validator *intent.Validator, roll DiceRoller, hooks Hooks) *Hub {
	return &Hub{
		rooms:     make(map[string]*Room),
		validator: validator,
		roll:      roll,
		hooks:     hooks,
		ctx:       ctx,
	}
}

// EnsureRoom returns the engine for a room, creating it from the given
// initial state when this process has not seen the room yet.
func (h *Hub) EnsureRoom(initial *redis_models.RoomState) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[initial.RoomID]; ok {
		return room
	}
	room := NewRoom(h.ctx, initial, h.validator, h.roll, h.hooks)
	h.rooms[initial.RoomID] = room
	return room
}

// GetRoom returns the live engine for a room id, if any.
func (h *Hub) GetRoom(roomID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[roomID]
	return room, ok
}

// RemoveRoom shuts down and forgets a room engine.
func (h *Hub) RemoveRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[roomID]; ok {
		room.Shutdown()
		delete(h.rooms, roomID)
	}
}

// Submit routes one intent to the room's serialized pipeline. Intents
// for unknown rooms are rejected as RoomClosed: the room was either
// never created here or has been torn down.
func (h *Hub) Submit(ctx context.Context, roomID string, in *intent.Intent) (intent.Result, error) {
	room, ok := h.GetRoom(roomID)
	if !ok {
		return intent.Result{
			Accepted: false,
			Reason:   intent.ReasonRoomClosed,
			Notice:   "room is not active",
		}, nil
	}
	return room.Submit(ctx, in)
}
