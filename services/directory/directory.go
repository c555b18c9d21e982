package directory

import (
	game_constants "Magnate/constants/game"
	"Magnate/models/postgres"
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// RoomListing is one row of the lobby browser.
type RoomListing struct {
	RoomID          string                  `json:"room_id"`
	CreatorUsername string                  `json:"creator_username"`
	MaxPlayers      int                     `json:"max_players"`
	CurrentPlayers  int                     `json:"current_players"`
	Visibility      postgres.RoomVisibility `json:"visibility"`
	LastActivityAt  time.Time               `json:"last_activity_at"`
}

// Page is one lobby page plus the opaque cursor for the next one.
// NextCursor is empty on the last page.
type Page struct {
	Rooms      []RoomListing `json:"rooms"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// Directory is the persistent room index: listing, activity tracking
// and the stale-room lifecycle.
type Directory struct {
	db *gorm.DB

	// OnClosed runs for every room the sweeper closes or reaps, so
	// in-memory engines and subscriptions can be torn down with it.
	OnClosed func(roomID string)
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// listingRow mirrors the listing select including the membership count.
type listingRow struct {
	postgres.GameRoom
	CurrentPlayers int
}

// ListJoinable returns lobbies the caller may join: not started, open,
// below capacity, active within the recency window, and visible to the
// caller. Private and unlisted rooms only ever show up for their
// creator. Pagination is keyset based on (last_activity_at, id) so a
// room going active between two requests never shifts rows into view
// twice.
func (d *Directory) ListJoinable(callerUsername string, rawCursor string, pageSize int) (*Page, error) {
	if pageSize <= 0 || pageSize > game_constants.ListingPageSize {
		pageSize = game_constants.ListingPageSize
	}

	countSub := d.db.Model(&postgres.RoomPlayer{}).
		Select("count(*)").
		Where("room_players.room_id = game_rooms.id")

	friendsSub := d.db.Model(&postgres.Friendship{}).
		Select("1").
		Where("(friendships.username1 = game_rooms.creator_username AND friendships.username2 = ?)"+
			" OR (friendships.username2 = game_rooms.creator_username AND friendships.username1 = ?)",
			callerUsername, callerUsername)

	q := d.db.Model(&postgres.GameRoom{}).
		Select("game_rooms.*, (?) AS current_players", countSub).
		Where("game_rooms.game_started = ?", false).
		Where("game_rooms.is_open = ?", true).
		Where("game_rooms.last_activity_at > ?", time.Now().Add(-game_constants.LobbyRecencyWindow)).
		Where("(?) < game_rooms.max_players", countSub).
		Where(
			d.db.Where("game_rooms.visibility = ?", postgres.VisibilityPublic).
				Or("game_rooms.creator_username = ?", callerUsername).
				Or("game_rooms.visibility = ? AND EXISTS (?)", postgres.VisibilityFriends, friendsSub),
		)

	if rawCursor != "" {
		c, err := decodeCursor(rawCursor)
		if err != nil {
			return nil, err
		}
		q = q.Where(
			"(game_rooms.last_activity_at < ?) OR (game_rooms.last_activity_at = ? AND game_rooms.id < ?)",
			c.LastActivityAt, c.LastActivityAt, c.ID,
		)
	}

	var rows []listingRow
	err := q.Order("game_rooms.last_activity_at DESC, game_rooms.id DESC").
		Limit(pageSize + 1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error listing joinable rooms: %v", err)
	}

	page := &Page{Rooms: make([]RoomListing, 0, len(rows))}
	hasMore := len(rows) > pageSize
	if hasMore {
		rows = rows[:pageSize]
	}
	for _, row := range rows {
		page.Rooms = append(page.Rooms, RoomListing{
			RoomID:          row.ID,
			CreatorUsername: row.CreatorUsername,
			MaxPlayers:      row.MaxPlayers,
			CurrentPlayers:  row.CurrentPlayers,
			Visibility:      row.Visibility,
			LastActivityAt:  row.LastActivityAt,
		})
	}
	if hasMore {
		last := rows[len(rows)-1]
		page.NextCursor = encodeCursor(cursor{LastActivityAt: last.LastActivityAt, ID: last.ID})
	}
	return page, nil
}

// Touch refreshes a room's activity timestamp. Failures are logged and
// swallowed: losing one touch must never fail the game action that
// triggered it.
func (d *Directory) Touch(roomID string) {
	err := d.db.Model(&postgres.GameRoom{}).
		Where("id = ?", roomID).
		Update("last_activity_at", time.Now()).Error
	if err != nil {
		log.Printf("[DIRECTORY-ERROR] Error touching room %s: %v", roomID, err)
	}
}

// MarkStarted flips a room to started and unlisted in one statement.
// The RowsAffected check makes a double start observable to the caller.
func (d *Directory) MarkStarted(roomID string) error {
	res := d.db.Model(&postgres.GameRoom{}).
		Where("id = ? AND game_started = ?", roomID, false).
		Updates(map[string]interface{}{"game_started": true, "is_open": false})
	if res.Error != nil {
		return fmt.Errorf("error marking room %s started: %v", roomID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("room %s not found or already started", roomID)
	}
	return nil
}

// Close marks a room unjoinable without deleting its history.
func (d *Directory) Close(roomID string) error {
	err := d.db.Model(&postgres.GameRoom{}).
		Where("id = ?", roomID).
		Update("is_open", false).Error
	if err != nil {
		return fmt.Errorf("error closing room %s: %v", roomID, err)
	}
	return nil
}

// SweepStale runs the two-phase room lifecycle. Phase one closes rooms
// with no activity inside the stale window. Phase two deletes closed
// rooms past the retention age, memberships included via the cascade.
func (d *Directory) SweepStale() error {
	now := time.Now()

	var stale []postgres.GameRoom
	err := d.db.Where("is_open = ? AND last_activity_at < ?", true, now.Add(-game_constants.StaleCloseAge)).
		Find(&stale).Error
	if err != nil {
		return fmt.Errorf("error finding stale rooms: %v", err)
	}
	for _, room := range stale {
		if err := d.Close(room.ID); err != nil {
			log.Printf("[DIRECTORY-ERROR] %v", err)
			continue
		}
		log.Printf("[DIRECTORY] Closed stale room %s (idle since %s)", room.ID, room.LastActivityAt)
		if d.OnClosed != nil {
			d.OnClosed(room.ID)
		}
	}

	var expired []postgres.GameRoom
	err = d.db.Where("is_open = ? AND last_activity_at < ?", false, now.Add(-game_constants.RetentionAge)).
		Find(&expired).Error
	if err != nil {
		return fmt.Errorf("error finding expired rooms: %v", err)
	}
	for _, room := range expired {
		if err := d.db.Delete(&postgres.GameRoom{}, "id = ?", room.ID).Error; err != nil {
			log.Printf("[DIRECTORY-ERROR] Error reaping room %s: %v", room.ID, err)
			continue
		}
		log.Printf("[DIRECTORY] Reaped room %s past retention", room.ID)
		if d.OnClosed != nil {
			d.OnClosed(room.ID)
		}
	}
	return nil
}

// StartSweeper runs SweepStale on a ticker until ctx is cancelled.
func (d *Directory) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(game_constants.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := d.SweepStale(); err != nil {
					log.Printf("[DIRECTORY-ERROR] Sweep failed: %v", err)
				}
			}
		}
	}()
}
