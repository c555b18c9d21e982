package game

import (
	redis_models "Magnate/models/redis"
	"Magnate/services/intent"
	"context"
	"encoding/json"
	"log"
	"time"
)

// TurnEvent is emitted whenever the identity of the expected actor may
// have changed: game start, turn advance, decision change, game end.
// The watchdog subscribes to these instead of polling snapshots.
type TurnEvent struct {
	RoomID    string
	Version   int
	TurnIndex int
	PlayerID  string
	Decision  redis_models.DecisionType
	IsAI      bool
	Terminal  bool
}

// Hooks are the side effects a room engine triggers after accepting an
// intent. All of them run outside the hot path guarantees: Touch and
// RecordIntent failures are logged and never fail the intent.
type Hooks struct {
	PublishSnapshot func(snap *redis_models.RoomState)
	TurnChanged     func(ev TurnEvent)
	Touch           func(roomID string)
	MarkStarted     func(roomID string) error
	RecordIntent    func(roomID string, version int, in *intent.Intent)
	Chat            func(roomID string, actorID string, message string)
}

type submission struct {
	in    *intent.Intent
	reply chan intent.Result
}

type stateReq struct {
	reply chan *redis_models.RoomState
}

// Room is the authoritative engine for one game room. A single goroutine
// consumes its inbox, so intent application is strictly serialized: no
// interleaving of two intents' effects is ever observable, which is what
// prevents two players from both buying the same tile.
type Room struct {
	ID string

	inbox    chan submission
	stateReq chan stateReq

	state   *redis_models.RoomState
	applied map[string]intent.Result // intentId -> recorded result

	validator *intent.Validator
	roll      DiceRoller
	hooks     Hooks

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRoomState builds the version-0 lobby state for a fresh room.
func NewRoomState(roomID, creatorID string, maxPlayers int) *redis_models.RoomState {
	return &redis_models.RoomState{
		RoomID:      roomID,
		CreatorID:   creatorID,
		MaxPlayers:  maxPlayers,
		Version:     0,
		Phase:       redis_models.PhaseLobby,
		TurnIndex:   0,
		Decision:    redis_models.DecisionRoll,
		PendingTile: -1,
		Players:     []redis_models.Player{},
		Board:       map[int]redis_models.TileState{},
		Timestamp:   time.Now(),
	}
}

// NewRoom starts the engine goroutine for one room.
func NewRoom(parent context.Context, initial *redis_models.RoomState,
	validator *intent.Validator, roll DiceRoller, hooks Hooks) *Room {
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		ID:        initial.RoomID,
		inbox:     make(chan submission, 64),
		stateReq:  make(chan stateReq, 8),
		state:     initial,
		applied:   make(map[string]intent.Result),
		validator: validator,
		roll:      roll,
		hooks:     hooks,
		ctx:       ctx,
		cancel:    cancel,
	}
	go r.loop()
	return r
}

// Submit queues one intent and waits for the engine's verdict.
func (r *Room) Submit(ctx context.Context, in *intent.Intent) (intent.Result, error) {
	reply := make(chan intent.Result, 1)
	select {
	case r.inbox <- submission{in: in, reply: reply}:
	case <-ctx.Done():
		return intent.Result{}, ctx.Err()
	case <-r.ctx.Done():
		return intent.Result{}, r.ctx.Err()
	}
	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return intent.Result{}, ctx.Err()
	case <-r.ctx.Done():
		return intent.Result{}, r.ctx.Err()
	}
}

// Snapshot returns a copy of the current authoritative state.
func (r *Room) Snapshot(ctx context.Context) (*redis_models.RoomState, error) {
	reply := make(chan *redis_models.RoomState, 1)
	select {
	case r.stateReq <- stateReq{reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.ctx.Done():
		return nil, r.ctx.Err()
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown stops the engine goroutine.
func (r *Room) Shutdown() { r.cancel() }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			return
		case req := <-r.stateReq:
			req.reply <- r.state.Clone()
		case sub := <-r.inbox:
			sub.reply <- r.handle(sub.in)
		}
	}
}

func (r *Room) handle(in *intent.Intent) intent.Result {
	// Idempotency: a replayed intent id returns the recorded result
	// without reapplying side effects.
	if prev, ok := r.applied[in.IntentID]; ok {
		return prev
	}

	res := r.apply(in)
	r.applied[in.IntentID] = res
	return res
}

func (r *Room) apply(in *intent.Intent) intent.Result {
	if err := r.validator.Validate(in, r.state); err != nil {
		reason := intent.ReasonOf(err)
		log.Printf("[ENGINE] Room %s rejected intent %s (%s): %v", r.ID, in.IntentID, in.Type, err)
		return intent.Result{Accepted: false, Version: r.state.Version, Reason: reason, Notice: err.Error()}
	}

	next, err := Apply(r.state, in, r.roll)
	if err != nil {
		reason := intent.ReasonOf(err)
		log.Printf("[ENGINE] Room %s rejected intent %s (%s): %v", r.ID, in.IntentID, in.Type, err)
		return intent.Result{Accepted: false, Version: r.state.Version, Reason: reason, Notice: err.Error()}
	}

	if next == nil {
		// Accepted without a state change (chat, duplicate join).
		r.sideEffectsNoChange(in)
		return intent.Result{Accepted: true, Version: r.state.Version, AutoActed: in.Synthesized}
	}

	wasLobby := r.state.Phase == redis_models.PhaseLobby
	next.Version = r.state.Version + 1
	next.Timestamp = time.Now()
	r.state = next

	r.sideEffects(in, wasLobby)

	res := intent.Result{Accepted: true, Version: next.Version, AutoActed: in.Synthesized}
	if in.Synthesized {
		res.Notice = "auto-acted for " + in.ActorID + " after turn timeout"
		log.Printf("[ENGINE] Room %s auto-acted %s for stalled player %s", r.ID, in.Type, in.ActorID)
	}
	return res
}

func (r *Room) sideEffectsNoChange(in *intent.Intent) {
	if in.Type == intent.TypeChatMessage && r.hooks.Chat != nil {
		var payload intent.ChatPayload
		if err := json.Unmarshal(in.Payload, &payload); err == nil {
			r.hooks.Chat(r.ID, in.ActorID, payload.Message)
		}
	}
	if r.hooks.Touch != nil {
		r.hooks.Touch(r.ID)
	}
}

func (r *Room) sideEffects(in *intent.Intent, wasLobby bool) {
	snap := r.state.Clone()

	if r.hooks.RecordIntent != nil {
		r.hooks.RecordIntent(r.ID, snap.Version, in)
	}
	if r.hooks.PublishSnapshot != nil {
		r.hooks.PublishSnapshot(snap)
	}
	if r.hooks.Touch != nil {
		r.hooks.Touch(r.ID)
	}
	if wasLobby && snap.Phase == redis_models.PhasePlaying && r.hooks.MarkStarted != nil {
		if err := r.hooks.MarkStarted(r.ID); err != nil {
			log.Printf("[ENGINE-ERROR] Room %s failed to mark started: %v", r.ID, err)
		}
	}
	r.emitTurnEvent(snap)
}

func (r *Room) emitTurnEvent(snap *redis_models.RoomState) {
	if r.hooks.TurnChanged == nil {
		return
	}
	if snap.Phase == redis_models.PhaseFinished {
		r.hooks.TurnChanged(TurnEvent{
			RoomID:   r.ID,
			Version:  snap.Version,
			Terminal: true,
		})
		return
	}
	if snap.Phase != redis_models.PhasePlaying {
		return
	}
	current := snap.CurrentPlayer()
	if current == nil {
		return
	}
	r.hooks.TurnChanged(TurnEvent{
		RoomID:    r.ID,
		Version:   snap.Version,
		TurnIndex: snap.TurnIndex,
		PlayerID:  current.PlayerID,
		Decision:  snap.Decision,
		IsAI:      current.IsAI,
	})
}
