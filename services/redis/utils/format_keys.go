package utils

/**
 * This file contains utility functions to format the keys for Redis
 * (key, value) pairs. It avoids having to call "fmt.Sprintf(...)"
 * with the same format spec every time, potentially confusing the key format.
 */

import "fmt"

func FormatRoomStateKey(roomID string) string {
	return fmt.Sprintf("room:%s:state", roomID)
}

func FormatRoomSnapshotChannel(roomID string) string {
	return fmt.Sprintf("room:%s:snapshots", roomID)
}

func FormatAppliedIntentKey(roomID string, intentID string) string {
	return fmt.Sprintf("room:%s:intent:%s", roomID, intentID)
}

func FormatChatHistoryKey(roomID string) string {
	return fmt.Sprintf("room:%s:chat", roomID)
}
