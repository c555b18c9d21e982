package directory

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func mockDirectory(t *testing.T) (*Directory, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(pgdriver.New(pgdriver.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return NewDirectory(gdb), mock
}

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)
	raw := encodeCursor(cursor{LastActivityAt: at, ID: "abc123"})

	got, err := decodeCursor(raw)
	assert.NoError(t, err)
	assert.Equal(t, "abc123", got.ID)
	assert.True(t, got.LastActivityAt.Equal(at))
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := decodeCursor("not base64!!!")
	assert.Error(t, err)

	_, err = decodeCursor("") // empty id after decode
	assert.Error(t, err)
}

func listingColumns() []string {
	return []string{"id", "creator_username", "max_players", "game_started",
		"is_open", "visibility", "last_activity_at", "created_at", "current_players"}
}

func TestListJoinable_ReturnsPageAndCursor(t *testing.T) {
	d, mock := mockDirectory(t)
	now := time.Now()

	// Three rows back for a page size of two means there is a next page.
	rows := sqlmock.NewRows(listingColumns()).
		AddRow("room-a", "ana", 4, false, true, "public", now, now, 2).
		AddRow("room-b", "bruno", 4, false, true, "public", now.Add(-time.Minute), now, 1).
		AddRow("room-c", "carla", 6, false, true, "friends", now.Add(-2*time.Minute), now, 3)

	mock.ExpectQuery(`SELECT game_rooms\..*max_players.*FROM "game_rooms"`).
		WillReturnRows(rows)

	page, err := d.ListJoinable("dario", "", 2)
	assert.NoError(t, err)
	assert.Len(t, page.Rooms, 2)
	assert.Equal(t, "room-a", page.Rooms[0].RoomID)
	assert.Equal(t, 2, page.Rooms[0].CurrentPlayers)
	assert.NotEmpty(t, page.NextCursor)

	// The cursor points at the last returned row.
	c, err := decodeCursor(page.NextCursor)
	assert.NoError(t, err)
	assert.Equal(t, "room-b", c.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListJoinable_LastPageHasNoCursor(t *testing.T) {
	d, mock := mockDirectory(t)
	now := time.Now()

	rows := sqlmock.NewRows(listingColumns()).
		AddRow("room-a", "ana", 4, false, true, "public", now, now, 1)

	mock.ExpectQuery(`SELECT game_rooms\..*FROM "game_rooms"`).
		WillReturnRows(rows)

	page, err := d.ListJoinable("dario", "", 20)
	assert.NoError(t, err)
	assert.Len(t, page.Rooms, 1)
	assert.Empty(t, page.NextCursor)
}

func TestListJoinable_RejectsBadCursor(t *testing.T) {
	d, _ := mockDirectory(t)
	_, err := d.ListJoinable("dario", "###", 10)
	assert.Error(t, err)
}

func TestMarkStarted(t *testing.T) {
	d, mock := mockDirectory(t)

	mock.ExpectExec(`UPDATE "game_rooms" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, d.MarkStarted("room-a"))

	// Second start matches no rows and must surface as an error.
	mock.ExpectExec(`UPDATE "game_rooms" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.Error(t, d.MarkStarted("room-a"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTouch_SwallowsFailure(t *testing.T) {
	d, mock := mockDirectory(t)

	mock.ExpectExec(`UPDATE "game_rooms" SET "last_activity_at"`).
		WillReturnError(assert.AnError)

	// Must not panic or propagate; the caller's game action goes on.
	d.Touch("room-a")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepStale_ClosesThenReaps(t *testing.T) {
	d, mock := mockDirectory(t)
	now := time.Now()

	var closed []string
	d.OnClosed = func(roomID string) { closed = append(closed, roomID) }

	// Phase one: one idle open room gets closed.
	mock.ExpectQuery(`SELECT .* FROM "game_rooms" WHERE is_open = \$1 AND last_activity_at < \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "creator_username", "last_activity_at"}).
			AddRow("stale-1", "ana", now.Add(-2*time.Hour)))
	mock.ExpectExec(`UPDATE "game_rooms" SET "is_open"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Phase two: one closed room past retention gets deleted.
	mock.ExpectQuery(`SELECT .* FROM "game_rooms" WHERE is_open = \$1 AND last_activity_at < \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "creator_username", "last_activity_at"}).
			AddRow("old-1", "bruno", now.Add(-48*time.Hour)))
	mock.ExpectExec(`DELETE FROM "game_rooms"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, d.SweepStale())
	assert.Equal(t, []string{"stale-1", "old-1"}, closed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
