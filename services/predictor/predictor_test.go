package predictor

import (
	redis_models "Magnate/models/redis"
	"Magnate/services/game"
	"Magnate/services/intent"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func confirmedState(version int) *redis_models.RoomState {
	return &redis_models.RoomState{
		RoomID:      "room1",
		Version:     version,
		Phase:       redis_models.PhasePlaying,
		Decision:    redis_models.DecisionPurchase,
		PendingTile: 3,
		Players: []redis_models.Player{
			{PlayerID: "ana", DisplayName: "Ana", Money: 500, OwnedTiles: []int{}},
			{PlayerID: "bruno", DisplayName: "Bruno", Money: 500, OwnedTiles: []int{}},
		},
		Board: map[int]redis_models.TileState{},
	}
}

func purchaseIntent(id string, tileID int) *intent.Intent {
	payload, _ := json.Marshal(intent.PurchasePayload{TileID: tileID})
	return &intent.Intent{
		IntentID: id,
		Type:     intent.TypePurchaseProperty,
		ActorID:  "ana",
		Payload:  payload,
	}
}

func TestPredictor_PurchaseShowsTentativeEffect(t *testing.T) {
	p := NewPredictor(confirmedState(4))
	p.Track(purchaseIntent("i1", 3))

	tile, _ := game.TileByID(3)
	view := p.View()
	assert.Equal(t, 500-tile.Price, view.Players[0].Money)
	assert.Equal(t, "ana", view.Board[3].OwnerID)
	assert.Equal(t, redis_models.DecisionManage, view.Decision)

	// The confirmed state itself is untouched.
	assert.Equal(t, 1, p.Pending())
}

func TestPredictor_MarkFailedRollsBack(t *testing.T) {
	p := NewPredictor(confirmedState(4))
	p.Track(purchaseIntent("i1", 3))
	p.MarkFailed("i1", intent.ReasonInsufficientFunds)

	view := p.View()
	assert.Equal(t, 500, view.Players[0].Money)
	assert.Empty(t, view.Board)
	assert.Equal(t, 0, p.Pending())
}

func TestPredictor_ReconcileRetiresSettledIntents(t *testing.T) {
	p := NewPredictor(confirmedState(4))
	p.Track(purchaseIntent("i1", 3))
	p.MarkSubmitted("i1")

	// Authoritative outcome: the purchase went through at version 5.
	snap := confirmedState(5)
	snap.Decision = redis_models.DecisionManage
	snap.PendingTile = -1
	tile, _ := game.TileByID(3)
	snap.Players[0].Money = 500 - tile.Price
	snap.Players[0].OwnedTiles = []int{3}
	snap.Board[3] = redis_models.TileState{OwnerID: "ana"}

	assert.NoError(t, p.Reconcile(snap))
	assert.Equal(t, 0, p.Pending())
	assert.Equal(t, 500-tile.Price, p.View().Players[0].Money)
}

func TestPredictor_ReconcileKeepsPendingNewerThanSnapshot(t *testing.T) {
	p := NewPredictor(confirmedState(7))
	p.Track(purchaseIntent("i1", 3)) // submitted against version 7

	// A snapshot at the same version cannot have settled it yet.
	assert.NoError(t, p.Reconcile(confirmedState(7)))
	assert.Equal(t, 1, p.Pending())

	assert.NoError(t, p.Reconcile(confirmedState(8)))
	assert.Equal(t, 0, p.Pending())
}

func TestPredictor_RejectsCorruptedSnapshot(t *testing.T) {
	p := NewPredictor(confirmedState(4))

	corrupt := &redis_models.RoomState{
		RoomID:  "room1",
		Version: 5,
		Phase:   redis_models.PhasePlaying,
		Players: []redis_models.Player{{PlayerID: "", DisplayName: ""}},
		Board:   map[int]redis_models.TileState{},
	}

	err := p.Reconcile(corrupt)
	assert.Error(t, err)
	// Last known good state stays in place.
	assert.Equal(t, 4, p.View().Version)
	assert.Len(t, p.View().Players, 2)
}

func TestPredictor_RejectsForeignRoomSnapshot(t *testing.T) {
	p := NewPredictor(confirmedState(4))
	other := confirmedState(9)
	other.RoomID = "room2"

	assert.Error(t, p.Reconcile(other))
	assert.Equal(t, 4, p.View().Version)
}

func TestPredictor_SweepRetiresTimedOutIntents(t *testing.T) {
	p := NewPredictor(confirmedState(4))
	p.now = func() time.Time { return time.Now().Add(-time.Minute) }
	p.Track(purchaseIntent("i1", 3))

	p.now = time.Now
	p.Sweep()
	assert.Equal(t, 0, p.Pending())
}

func TestPredict_UnpredictedTypesLeaveStateAlone(t *testing.T) {
	s := confirmedState(4)
	out := Predict(s, &intent.Intent{IntentID: "i1", Type: intent.TypeRollDice, ActorID: "ana"})
	assert.Equal(t, s, out)
}

func TestPredict_EndTurnSkipsBankrupt(t *testing.T) {
	s := confirmedState(4)
	s.Decision = redis_models.DecisionManage
	s.Players[1].Bankrupt = true
	s.Players = append(s.Players, redis_models.Player{PlayerID: "carla", Money: 300, OwnedTiles: []int{}})

	out := Predict(s, &intent.Intent{IntentID: "i1", Type: intent.TypeEndTurn, ActorID: "ana"})
	assert.Equal(t, 2, out.TurnIndex)
	assert.Equal(t, redis_models.DecisionRoll, out.Decision)
}
