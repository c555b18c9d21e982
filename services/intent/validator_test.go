package intent

import (
	redis_models "Magnate/models/redis"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func roomWith(players ...string) *redis_models.RoomState {
	s := &redis_models.RoomState{RoomID: "room1"}
	for _, id := range players {
		s.Players = append(s.Players, redis_models.Player{
			PlayerID: id, DisplayName: id, OwnedTiles: []int{},
		})
	}
	return s
}

func rawPayload(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func TestValidate_AcceptsWellFormedIntent(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&Intent{
		IntentID: "i1", Type: TypeRollDice, ActorID: "ana",
	}, roomWith("ana"))

	assert.NoError(t, err)
}

func TestValidate_ShapeRejections(t *testing.T) {
	v := NewValidator()
	state := roomWith("ana")

	cases := []struct {
		name string
		in   *Intent
	}{
		{"nil intent", nil},
		{"empty intent id", &Intent{Type: TypeRollDice, ActorID: "ana"}},
		{"blank intent id", &Intent{IntentID: "   ", Type: TypeRollDice, ActorID: "ana"}},
		{"empty type", &Intent{IntentID: "i1", ActorID: "ana"}},
		{"unknown type", &Intent{IntentID: "i1", Type: "TELEPORT", ActorID: "ana"}},
		{"empty actor", &Intent{IntentID: "i1", Type: TypeRollDice}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.in, state)
			rej, ok := err.(*RejectionError)
			assert.True(t, ok)
			assert.Equal(t, ReasonInvalidIntentShape, rej.Reason)
		})
	}
}

func TestValidate_UnknownActorRejected(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&Intent{
		IntentID: "i1", Type: TypeRollDice, ActorID: "intruder",
	}, roomWith("ana", "bruno"))

	rej, ok := err.(*RejectionError)
	assert.True(t, ok)
	assert.Equal(t, ReasonUnknownActor, rej.Reason)
}

func TestValidate_JoinGameExemptFromActorCheck(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&Intent{
		IntentID: "i1", Type: TypeJoinGame, ActorID: "carla",
		Payload: rawPayload(t, JoinGamePayload{DisplayName: "Carla"}),
	}, roomWith("ana"))

	assert.NoError(t, err)
}

func TestValidate_JoinGameRequiresDisplayName(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&Intent{
		IntentID: "i1", Type: TypeJoinGame, ActorID: "carla",
		Payload: rawPayload(t, JoinGamePayload{DisplayName: "  "}),
	}, roomWith("ana"))

	rej, ok := err.(*RejectionError)
	assert.True(t, ok)
	assert.Equal(t, ReasonInvalidIntentShape, rej.Reason)
}

func TestValidate_PayloadSchema(t *testing.T) {
	v := NewValidator()
	state := roomWith("ana")

	err := v.Validate(&Intent{
		IntentID: "i1", Type: TypePurchaseProperty, ActorID: "ana",
		Payload: json.RawMessage(`{"tile_id": -3}`),
	}, state)
	rej, ok := err.(*RejectionError)
	assert.True(t, ok)
	assert.Equal(t, ReasonInvalidIntentShape, rej.Reason)

	err = v.Validate(&Intent{
		IntentID: "i2", Type: TypePurchaseProperty, ActorID: "ana",
		Payload: json.RawMessage(`not json`),
	}, state)
	assert.Error(t, err)

	err = v.Validate(&Intent{
		IntentID: "i3", Type: TypeChatMessage, ActorID: "ana",
		Payload: rawPayload(t, ChatPayload{Message: ""}),
	}, state)
	assert.Error(t, err)
}

func TestValidate_ExtraChecksRunAfterDefaults(t *testing.T) {
	called := false
	v := NewValidator(func(in *Intent, _ *redis_models.RoomState) error {
		called = true
		return Reject(ReasonGameNotStarted, "lobby only")
	})

	err := v.Validate(&Intent{
		IntentID: "i1", Type: TypeRollDice, ActorID: "ana",
	}, roomWith("ana"))

	assert.True(t, called)
	rej, ok := err.(*RejectionError)
	assert.True(t, ok)
	assert.Equal(t, ReasonGameNotStarted, rej.Reason)
}
