package postgres

import (
	"time"

	"gorm.io/datatypes"
)

/*
 * 'IntentRecord' is one row of the append-only audit log of accepted
 * intents. Every accepted, state-changing intent produces exactly one
 * record carrying the snapshot version it produced, so the log replays
 * in version order.
 */
type IntentRecord struct {
	RoomID     string         `gorm:"primaryKey;size:50;not null"`
	Version    int            `gorm:"primaryKey;not null"`
	IntentID   string         `gorm:"size:100;not null;index:idx_intent_records_intent"`
	IntentType string         `gorm:"size:50;not null"`
	ActorID    string         `gorm:"size:50;not null"`
	Payload    datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	AppliedAt  time.Time      `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationship with the room
	GameRoom GameRoom `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
}
