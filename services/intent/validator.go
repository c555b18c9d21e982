package intent

import (
	redis_models "Magnate/models/redis"
	"encoding/json"
	"strings"
)

// Check is one stateless validation step. Checks receive the intent and
// a read-only view of the room state and return nil or a rejection from
// the closed taxonomy. They must be side effect free.
type Check func(in *Intent, state *redis_models.RoomState) error

// Validator runs an ordered chain of checks registered once at
// construction. New concerns are appended to the chain instead of being
// patched onto call sites at runtime, so the pipeline stays inspectable.
type Validator struct {
	chain []Check
}

// NewValidator builds the default validation chain: shape, actor
// identity, then per-type payload schema.
func NewValidator(extra ...Check) *Validator {
	chain := []Check{CheckShape, CheckActor, CheckPayload}
	chain = append(chain, extra...)
	return &Validator{chain: chain}
}

// Validate runs the chain in order and returns the first rejection.
func (v *Validator) Validate(in *Intent, state *redis_models.RoomState) error {
	for _, check := range v.chain {
		if err := check(in, state); err != nil {
			return err
		}
	}
	return nil
}

// CheckShape rejects intents missing the fields every type requires.
func CheckShape(in *Intent, _ *redis_models.RoomState) error {
	if in == nil {
		return Reject(ReasonInvalidIntentShape, "missing intent")
	}
	if strings.TrimSpace(in.IntentID) == "" {
		return Reject(ReasonInvalidIntentShape, "empty intent_id")
	}
	if in.Type == "" {
		return Reject(ReasonInvalidIntentShape, "empty type")
	}
	switch in.Type {
	case TypeJoinGame, TypeStartGame, TypeRollDice, TypePurchaseProperty,
		TypeDeclinePurchase, TypeDevelopProperty, TypeEndTurn, TypeChatMessage:
	default:
		return Reject(ReasonInvalidIntentShape, "unknown type "+string(in.Type))
	}
	if strings.TrimSpace(in.ActorID) == "" {
		return Reject(ReasonInvalidIntentShape, "empty actor_id")
	}
	return nil
}

// CheckActor rejects intents whose actor is not registered in the room.
// JOIN_GAME is exempt: the actor is joining, so instead its display name
// must be non-empty.
func CheckActor(in *Intent, state *redis_models.RoomState) error {
	if in.Type == TypeJoinGame {
		var payload JoinGamePayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			return Reject(ReasonInvalidIntentShape, "bad JOIN_GAME payload")
		}
		if strings.TrimSpace(payload.DisplayName) == "" {
			return Reject(ReasonInvalidIntentShape, "empty display_name")
		}
		return nil
	}
	if state == nil || state.FindPlayer(in.ActorID) == nil {
		return Reject(ReasonUnknownActor, "actor "+in.ActorID+" not in room")
	}
	return nil
}

// CheckPayload verifies the per-type payload schema.
func CheckPayload(in *Intent, _ *redis_models.RoomState) error {
	switch in.Type {
	case TypePurchaseProperty, TypeDevelopProperty:
		var payload PurchasePayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			return Reject(ReasonInvalidIntentShape, "bad payload for "+string(in.Type))
		}
		if payload.TileID < 0 {
			return Reject(ReasonInvalidIntentShape, "negative tile_id")
		}
	case TypeChatMessage:
		var payload ChatPayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			return Reject(ReasonInvalidIntentShape, "bad CHAT_MESSAGE payload")
		}
		if strings.TrimSpace(payload.Message) == "" {
			return Reject(ReasonInvalidIntentShape, "empty chat message")
		}
	}
	return nil
}
