package redis

import "time"

// ChatMessage represents a message in the room chat
type ChatMessage struct {
	Message   string    `json:"message"`
	PlayerID  string    `json:"player_id"`
	Timestamp time.Time `json:"timestamp"`
}
