package redis

import (
	game_constants "Magnate/constants/game"
	redis_models "Magnate/models/redis"
	redis_utils "Magnate/services/redis/utils"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient handles Redis operations
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(Addr string, DB int) *RedisClient {
	var client *redis.Client
	if Addr != "localhost:6379" {
		log.Println("Connecting to remote Redis...")
		opt, err := redis.ParseURL(Addr)
		if err != nil {
			panic("Error parsing Redis URL")
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: Addr,
			DB:   DB,
		})
	}
	return &RedisClient{
		client: client,
		ctx:    context.Background(),
	}
}

// SaveRoomState stores the latest authoritative snapshot of a room.
// Key format: "room:{id}:state"
// TTL: 24 hours
func (rc *RedisClient) SaveRoomState(state *redis_models.RoomState) error {
	key := redis_utils.FormatRoomStateKey(state.RoomID)
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("error marshaling room state: %v", err)
	}
	return rc.client.Set(rc.ctx, key, data, 24*time.Hour).Err()
}

// GetRoomState retrieves the latest stored snapshot of a room.
// Key format: "room:{id}:state"
// Returns nil without error when no snapshot document exists; absence
// of the document is "no update", never "the game is empty".
func (rc *RedisClient) GetRoomState(roomID string) (*redis_models.RoomState, error) {
	key := redis_utils.FormatRoomStateKey(roomID)
	data, err := rc.client.Get(rc.ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting room state: %v", err)
	}

	var state redis_models.RoomState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("error unmarshaling room state: %v", err)
	}
	return &state, nil
}

// DeleteRoomState removes a room's volatile state on teardown.
func (rc *RedisClient) DeleteRoomState(roomID string) error {
	key := redis_utils.FormatRoomStateKey(roomID)
	if err := rc.client.Del(rc.ctx, key).Err(); err != nil {
		return fmt.Errorf("error deleting room state: %v", err)
	}
	return nil
}

// PublishRoomSnapshot pushes a serialized snapshot to the room's pub/sub
// channel so out-of-process subscribers receive it. Delivery to each
// subscriber is at-least-once; consumers must tolerate duplicates.
func (rc *RedisClient) PublishRoomSnapshot(roomID string, data []byte) error {
	channel := redis_utils.FormatRoomSnapshotChannel(roomID)
	if err := rc.client.Publish(rc.ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("error publishing room snapshot: %v", err)
	}
	return nil
}

// SubscribeRoomSnapshots subscribes to a room's snapshot channel.
// The caller owns the returned PubSub and must Close it.
func (rc *RedisClient) SubscribeRoomSnapshots(roomID string) *redis.PubSub {
	channel := redis_utils.FormatRoomSnapshotChannel(roomID)
	return rc.client.Subscribe(rc.ctx, channel)
}

// SaveAppliedIntent stores the idempotency record for an applied intent.
// Key format: "room:{id}:intent:{intentId}"
func (rc *RedisClient) SaveAppliedIntent(record *redis_models.AppliedIntent) error {
	key := redis_utils.FormatAppliedIntentKey(record.RoomID, record.IntentID)
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("error marshaling applied intent: %v", err)
	}
	return rc.client.Set(rc.ctx, key, data, game_constants.AppliedIntentTTL).Err()
}

// GetAppliedIntent retrieves the idempotency record for an intent id,
// returning nil when the intent has not been applied.
func (rc *RedisClient) GetAppliedIntent(roomID string, intentID string) (*redis_models.AppliedIntent, error) {
	key := redis_utils.FormatAppliedIntentKey(roomID, intentID)
	data, err := rc.client.Get(rc.ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting applied intent: %v", err)
	}

	var record redis_models.AppliedIntent
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("error unmarshaling applied intent: %v", err)
	}
	return &record, nil
}

// AppendChatMessage pushes a chat message onto the room's chat history.
func (rc *RedisClient) AppendChatMessage(roomID string, msg *redis_models.ChatMessage) error {
	key := redis_utils.FormatChatHistoryKey(roomID)
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("error marshaling chat message: %v", err)
	}
	pipe := rc.client.Pipeline()
	pipe.RPush(rc.ctx, key, data)
	pipe.Expire(rc.ctx, key, 24*time.Hour)
	if _, err := pipe.Exec(rc.ctx); err != nil {
		return fmt.Errorf("error appending chat message: %v", err)
	}
	return nil
}

// CleanupKeys removes the specified keys from Redis
func (rc *RedisClient) CleanupKeys(keys []string) error {
	for _, key := range keys {
		if err := rc.client.Del(rc.ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to cleanup Redis key %s: %v", key, err)
		}
	}
	return nil
}
