package redis

import "time"

// AppliedIntent is the idempotency record stored for every intent the
// engine has already applied. Replays of the same intent id return the
// recorded result without touching game state again.
type AppliedIntent struct {
	IntentID  string    `json:"intent_id"`
	RoomID    string    `json:"room_id"`
	Version   int       `json:"version"` // snapshot version the intent produced
	Accepted  bool      `json:"accepted"`
	Reason    string    `json:"reason,omitempty"` // rejection reason when not accepted
	AppliedAt time.Time `json:"applied_at"`
}
