package distributor

import (
	"context"
	redis_models "Magnate/models/redis"
	"testing"

	"github.com/stretchr/testify/assert"
)

func snap(roomID string, version int) *redis_models.RoomState {
	return &redis_models.RoomState{
		RoomID:  roomID,
		Version: version,
		Phase:   redis_models.PhasePlaying,
	}
}

func TestDistributor_LateSubscriberGetsLatestSnapshot(t *testing.T) {
	d := NewDistributor(context.Background(), nil, nil)
	d.Publish(snap("room1", 3))

	ch, cancel := d.Subscribe("room1", "alice", 4)
	defer cancel()

	got := <-ch
	assert.Equal(t, 3, got.Version)
}

func TestDistributor_FanOutReachesAllSubscribers(t *testing.T) {
	d := NewDistributor(context.Background(), nil, nil)

	chA, cancelA := d.Subscribe("room1", "alice", 4)
	defer cancelA()
	chB, cancelB := d.Subscribe("room1", "bob", 4)
	defer cancelB()

	d.Publish(snap("room1", 1))

	assert.Equal(t, 1, (<-chA).Version)
	assert.Equal(t, 1, (<-chB).Version)
}

func TestDistributor_VersionsNeverGoBackwards(t *testing.T) {
	d := NewDistributor(context.Background(), nil, nil)
	ch, cancel := d.Subscribe("room1", "alice", 8)
	defer cancel()

	d.Publish(snap("room1", 5))
	d.Publish(snap("room1", 3)) // out of order, must not reach the subscriber
	d.Publish(snap("room1", 6))

	last := -1
	for i := 0; i < 2; i++ {
		got := <-ch
		assert.GreaterOrEqual(t, got.Version, last)
		last = got.Version
	}
	assert.Equal(t, 6, last)
	assert.Empty(t, ch)
}

func TestDistributor_SlowSubscriberIsDropped(t *testing.T) {
	d := NewDistributor(context.Background(), nil, nil)
	ch, cancel := d.Subscribe("room1", "alice", 1)
	defer cancel()

	d.Publish(snap("room1", 1)) // fills the buffer
	d.Publish(snap("room1", 2)) // drops alice

	got, open := <-ch
	assert.True(t, open)
	assert.Equal(t, 1, got.Version)
	_, open = <-ch
	assert.False(t, open, "channel should be closed after the drop")

	// A fresh subscription still works and sees the latest state.
	ch2, cancel2 := d.Subscribe("room1", "alice", 4)
	defer cancel2()
	assert.Equal(t, 2, (<-ch2).Version)
}

func TestDistributor_CloseRoomClosesChannels(t *testing.T) {
	d := NewDistributor(context.Background(), nil, nil)
	ch, cancel := d.Subscribe("room1", "alice", 4)
	defer cancel()

	d.Publish(snap("room1", 1))
	d.CloseRoom("room1")

	<-ch // drains the delivered snapshot
	_, open := <-ch
	assert.False(t, open)
	assert.Nil(t, d.Latest("room1"))
}

type recordingStore struct {
	saved     []*redis_models.RoomState
	published []string
}

func (s *recordingStore) SaveRoomState(state *redis_models.RoomState) error {
	s.saved = append(s.saved, state)
	return nil
}

func (s *recordingStore) PublishRoomSnapshot(roomID string, data []byte) error {
	s.published = append(s.published, roomID)
	return nil
}

func TestDistributor_PersistsAndPublishesThroughStore(t *testing.T) {
	store := &recordingStore{}
	d := NewDistributor(context.Background(), store, nil)

	d.Publish(snap("room1", 1))

	assert.Len(t, store.saved, 1)
	assert.Equal(t, []string{"room1"}, store.published)
}
