package postgres

import (
	"math/rand"
	"time"

	"gorm.io/gorm"
)

// RoomVisibility controls who can discover a room in the lobby browser.
type RoomVisibility string

const (
	VisibilityPublic   RoomVisibility = "public"
	VisibilityFriends  RoomVisibility = "friends"
	VisibilityPrivate  RoomVisibility = "private"
	VisibilityUnlisted RoomVisibility = "unlisted"
)

/*
 * 'GameRoom' is the persisted room document backing the lobby browser.
 * Invariant: IsOpen is false whenever GameStarted is true; a started
 * game is never joinable or listed.
 */
type GameRoom struct {
	ID              string         `gorm:"primaryKey;size:50;not null"`
	CreatorUsername string         `gorm:"size:50;index:idx_game_rooms_creator"`
	MaxPlayers      int            `gorm:"default:4"`
	GameStarted     bool           `gorm:"default:false;index:idx_game_rooms_active"`
	IsOpen          bool           `gorm:"default:true;index:idx_game_rooms_open"`
	Visibility      RoomVisibility `gorm:"size:20;default:'public';index:idx_game_rooms_visibility"`
	LastActivityAt  time.Time      `gorm:"index:idx_game_rooms_activity"`
	CreatedAt       time.Time      `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationships
	Creator     GameProfile   `gorm:"foreignKey:CreatorUsername"`
	RoomPlayers []*RoomPlayer `gorm:"foreignKey:RoomID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// Random room id generation
const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateRoomID(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}

// BeforeCreate assigns a short unique room id and initializes the
// activity timestamp so a fresh room is immediately listable.
func (r *GameRoom) BeforeCreate(tx *gorm.DB) (err error) {
	if r.LastActivityAt.IsZero() {
		r.LastActivityAt = time.Now()
	}
	if r.ID != "" {
		return nil
	}
	for {
		newID := generateRoomID(6)
		var existing GameRoom
		if err := tx.Where("id = ?", newID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				r.ID = newID
				return nil
			}
			return err
		}
		// Collision, loop again for a fresh id.
	}
}
