package directory

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// cursor captures the keyset position after the last row of a page.
// Ordering is (last_activity_at DESC, id DESC), so the next page is
// everything strictly "after" this pair in that order.
type cursor struct {
	LastActivityAt time.Time `json:"a"`
	ID             string    `json:"i"`
}

func encodeCursor(c cursor) string {
	data, _ := json.Marshal(c)
	return base64.URLEncoding.EncodeToString(data)
}

func decodeCursor(raw string) (cursor, error) {
	var c cursor
	data, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		return c, fmt.Errorf("bad cursor encoding: %v", err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("bad cursor payload: %v", err)
	}
	if c.ID == "" {
		return c, fmt.Errorf("bad cursor: missing id")
	}
	return c, nil
}
