package controllers

import (
	"Magnate/middleware"
	redis_models "Magnate/models/redis"
	"Magnate/services/game"
	"Magnate/services/intent"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func gamePlayer(id string) redis_models.Player {
	return redis_models.Player{
		PlayerID:    id,
		DisplayName: id,
		Money:       500,
		OwnedTiles:  []int{},
	}
}

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
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
	return gdb, mock
}

func TestGetRoomInfo(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gdb, mock := mockDB(t)

	router := gin.New()
	router.GET("/rooms/:room_id", GetRoomInfo(gdb))

	mock.ExpectQuery(`SELECT \* FROM "game_rooms" WHERE id = \$1`).
		WithArgs("abc123", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "creator_username", "max_players", "game_started", "is_open", "visibility"}).
			AddRow("abc123", "ana", 4, false, true, "public"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "room_players" WHERE room_id = \$1`).
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	req, _ := http.NewRequest("GET", "/rooms/abc123", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "abc123", body["room_id"])
	assert.Equal(t, "ana", body["creator"])
	assert.Equal(t, float64(2), body["current_players"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRoomInfo_NotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gdb, mock := mockDB(t)

	router := gin.New()
	router.GET("/rooms/:room_id", GetRoomInfo(gdb))

	mock.ExpectQuery(`SELECT \* FROM "game_rooms" WHERE id = \$1`).
		WithArgs("missing", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req, _ := http.NewRequest("GET", "/rooms/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func expectUserLookup(mock sqlmock.Sqlmock, email, username string) {
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WithArgs(email, 1).
		WillReturnRows(sqlmock.NewRows([]string{"email", "profile_username", "password_hash"}).
			AddRow(email, username, "x"))
}

func TestPostIntent_RejectionCarriesReasonAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	gdb, mock := mockDB(t)

	hub := game.NewHub(context.Background(), intent.NewValidator(),
		func() int { return 4 }, game.Hooks{})
	state := game.NewRoomState("abc123", "ana", 4)
	state.Players = append(state.Players,
		gamePlayer("ana"), gamePlayer("bruno"))
	state.Phase = redis_models.PhasePlaying
	hub.EnsureRoom(state)

	router := gin.New()
	router.POST("/games/:room_id/intent", PostIntent(gdb, hub, nil))

	expectUserLookup(mock, "bruno@example.com", "bruno")

	token, _ := middleware.GenerateJWT("bruno@example.com")
	body := `{"intent_id":"i1","type":"ROLL_DICE"}`
	req, _ := http.NewRequest("POST", "/games/abc123/intent", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Bruno is not the current player, so the engine rejects the roll.
	assert.Equal(t, http.StatusConflict, w.Code)
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NotYourTurn", resp["reason"])
	assert.Equal(t, false, resp["accepted"])
}

func TestPostIntent_AcceptedReturnsNewVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	gdb, mock := mockDB(t)

	hub := game.NewHub(context.Background(), intent.NewValidator(),
		func() int { return 4 }, game.Hooks{})
	state := game.NewRoomState("abc123", "ana", 4)
	state.Players = append(state.Players,
		gamePlayer("ana"), gamePlayer("bruno"))
	state.Phase = redis_models.PhasePlaying
	hub.EnsureRoom(state)

	router := gin.New()
	router.POST("/games/:room_id/intent", PostIntent(gdb, hub, nil))

	expectUserLookup(mock, "ana@example.com", "ana")

	token, _ := middleware.GenerateJWT("ana@example.com")
	body := `{"intent_id":"i1","type":"ROLL_DICE"}`
	req, _ := http.NewRequest("POST", "/games/abc123/intent", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["accepted"])
	assert.Equal(t, float64(1), resp["version"])
}

func TestStatusForReason(t *testing.T) {
	cases := []struct {
		reason intent.Reason
		status int
	}{
		{intent.ReasonInvalidIntentShape, http.StatusBadRequest},
		{intent.ReasonUnknownActor, http.StatusForbidden},
		{intent.ReasonNotYourTurn, http.StatusConflict},
		{intent.ReasonStaleVersionConflict, http.StatusConflict},
		{intent.ReasonInsufficientFunds, http.StatusUnprocessableEntity},
		{intent.ReasonTileUnavailable, http.StatusUnprocessableEntity},
		{intent.ReasonIncompleteSet, http.StatusUnprocessableEntity},
		{intent.ReasonRoomFull, http.StatusConflict},
		{intent.ReasonRoomClosed, http.StatusGone},
		{intent.ReasonGameFinished, http.StatusGone},
		{intent.ReasonGameNotStarted, http.StatusConflict},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, statusForReason(tc.reason), string(tc.reason))
	}
}
