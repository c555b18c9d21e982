package watchdog

import (
	game_constants "Magnate/constants/game"
	redis_models "Magnate/models/redis"
	"Magnate/services/game"
	"Magnate/services/intent"
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Submitter routes a synthesized fallback intent through the same
// validate/apply path player intents use.
type Submitter interface {
	Submit(ctx context.Context, roomID string, in *intent.Intent) (intent.Result, error)
}

type armState int

const (
	stateIdle armState = iota
	stateArmed
	stateFired
)

// turnKey identifies one decision window. Two events carrying the same
// key describe the same waiting player, so the running timer keeps its
// original deadline instead of being refreshed.
type turnKey struct {
	roomID    string
	turnIndex int
	decision  redis_models.DecisionType
}

type armedRoom struct {
	state      armState
	key        turnKey
	playerID   string
	generation uint64
	timer      *time.Timer
}

// Watchdog supervises the current turn of every room. It is driven by
// engine turn events, never by polling: each genuine turn change arms a
// timer for the stalled player's decision type, and at most one
// fallback intent fires per armed period.
type Watchdog struct {
	mu         sync.Mutex
	rooms      map[string]*armedRoom
	generation uint64

	submitter Submitter
	ctx       context.Context

	// deadline is swappable in tests.
	deadline func(redis_models.DecisionType) time.Duration
}

func NewWatchdog(ctx context.Context, submitter Submitter) *Watchdog {
	return &Watchdog{
		rooms:     make(map[string]*armedRoom),
		submitter: submitter,
		ctx:       ctx,
		deadline:  DeadlineFor,
	}
}

// DeadlineFor maps a decision type to its timeout budget.
func DeadlineFor(decision redis_models.DecisionType) time.Duration {
	switch decision {
	case redis_models.DecisionPurchase:
		return game_constants.PurchaseDeadline
	case redis_models.DecisionManage:
		return game_constants.ManageDeadline
	default:
		return game_constants.RollDeadline
	}
}

// ObserveTurn is wired as the engine's TurnChanged hook.
func (w *Watchdog) ObserveTurn(ev game.TurnEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	room, ok := w.rooms[ev.RoomID]

	if ev.Terminal {
		if ok {
			w.disarmLocked(room)
			delete(w.rooms, ev.RoomID)
		}
		return
	}

	key := turnKey{roomID: ev.RoomID, turnIndex: ev.TurnIndex, decision: ev.Decision}
	if ok && room.state == stateArmed && room.key == key {
		// Same waiting player, same decision window. A snapshot churn
		// (chat, develop during manage) must not refresh the deadline.
		return
	}

	if !ok {
		room = &armedRoom{}
		w.rooms[ev.RoomID] = room
	}
	w.disarmLocked(room)

	if ev.IsAI {
		// Automated players act on their own schedule.
		return
	}

	w.generation++
	gen := w.generation
	room.state = stateArmed
	room.key = key
	room.playerID = ev.PlayerID
	room.generation = gen
	room.timer = time.AfterFunc(w.deadline(ev.Decision), func() {
		w.fire(ev.RoomID, gen)
	})
}

// DropRoom forgets a room completely, e.g. when it is reaped.
func (w *Watchdog) DropRoom(roomID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if room, ok := w.rooms[roomID]; ok {
		w.disarmLocked(room)
		delete(w.rooms, roomID)
	}
}

func (w *Watchdog) disarmLocked(room *armedRoom) {
	if room.timer != nil {
		room.timer.Stop()
		room.timer = nil
	}
	room.state = stateIdle
}

func (w *Watchdog) fire(roomID string, gen uint64) {
	w.mu.Lock()
	room, ok := w.rooms[roomID]
	if !ok || room.state != stateArmed || room.generation != gen {
		// The turn already moved on; this is a stale timer firing.
		w.mu.Unlock()
		return
	}
	room.state = stateFired
	key := room.key
	playerID := room.playerID
	w.mu.Unlock()

	fallbackType := intent.TypeEndTurn
	if key.decision == redis_models.DecisionPurchase {
		fallbackType = intent.TypeDeclinePurchase
	}

	in := &intent.Intent{
		IntentID:    fmt.Sprintf("watchdog-%s-%d-%d", key.roomID, key.turnIndex, gen),
		Type:        fallbackType,
		ActorID:     playerID,
		Synthesized: true,
	}

	log.Printf("[WATCHDOG] Room %s player %s missed the %s deadline, submitting %s",
		key.roomID, playerID, key.decision, fallbackType)

	res, err := w.submitter.Submit(w.ctx, roomID, in)
	if err != nil {
		log.Printf("[WATCHDOG-ERROR] Room %s fallback submit failed: %v", roomID, err)
		return
	}
	if !res.Accepted {
		// The player acted in the race window between the timer firing
		// and the submit landing. Their intent won, which is correct.
		log.Printf("[WATCHDOG] Room %s fallback for %s rejected (%s), player acted in time",
			roomID, playerID, res.Reason)
	}
}
