package intent

import (
	"encoding/json"
	"time"
)

// Type enumerates every intent a client may submit.
type Type string

const (
	TypeJoinGame         Type = "JOIN_GAME"
	TypeStartGame        Type = "START_GAME"
	TypeRollDice         Type = "ROLL_DICE"
	TypePurchaseProperty Type = "PURCHASE_PROPERTY"
	TypeDeclinePurchase  Type = "DECLINE_PURCHASE"
	TypeDevelopProperty  Type = "DEVELOP_PROPERTY"
	TypeEndTurn          Type = "END_TURN"
	TypeChatMessage      Type = "CHAT_MESSAGE"
)

// Intent is a client-submitted request to mutate authoritative game
// state. IntentID is a client-generated idempotency key: the engine
// applies a given id at most once and replays return the recorded
// result. Intents are immutable once created.
type Intent struct {
	IntentID   string          `json:"intent_id"`
	Type       Type            `json:"type"`
	ActorID    string          `json:"actor_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	ClientTime time.Time       `json:"client_time"`

	// Synthesized marks watchdog-generated fallback intents so their
	// acceptance can be surfaced as an "auto-acted" notice.
	Synthesized bool `json:"synthesized,omitempty"`
}

// JoinGamePayload accompanies JOIN_GAME.
type JoinGamePayload struct {
	DisplayName string `json:"display_name"`
	IsAI        bool   `json:"is_ai,omitempty"`
}

// PurchasePayload accompanies PURCHASE_PROPERTY and DEVELOP_PROPERTY.
// ExpectedVersion, when set, lets a client declare which snapshot the
// decision was computed against; a mismatch is rejected as
// StaleVersionConflict instead of silently applying against newer state.
type PurchasePayload struct {
	TileID          int  `json:"tile_id"`
	ExpectedVersion *int `json:"expected_version,omitempty"`
}

// ChatPayload accompanies CHAT_MESSAGE.
type ChatPayload struct {
	Message string `json:"message"`
}

// Result is the engine's answer to one submitted intent.
type Result struct {
	Accepted bool   `json:"accepted"`
	Version  int    `json:"version"` // version after application (unchanged on rejection)
	Reason   Reason `json:"reason,omitempty"`
	// AutoActed is true when the accepted intent was synthesized by the
	// turn watchdog on behalf of a stalled player.
	AutoActed bool `json:"auto_acted,omitempty"`
	// Notice carries a user-visible message for rule rejections.
	Notice string `json:"notice,omitempty"`
}
