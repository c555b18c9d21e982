package distributor

import (
	redis_models "Magnate/models/redis"
	redis_service "Magnate/services/redis"
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store is the slice of the redis service the distributor needs. It is
// an interface so tests can run without a redis instance.
type Store interface {
	SaveRoomState(state *redis_models.RoomState) error
	PublishRoomSnapshot(roomID string, data []byte) error
}

// Feed is the cross-process snapshot source. Another process publishing
// a snapshot for a room reaches this one through its pub/sub channel.
type Feed interface {
	SubscribeRoomSnapshots(roomID string) *redis.PubSub
}

var (
	_ Store = (*redis_service.RedisClient)(nil)
	_ Feed  = (*redis_service.RedisClient)(nil)
)

type subscriber struct {
	id          string
	ch          chan *redis_models.RoomState
	lastVersion int
}

type roomFeed struct {
	latest *redis_models.RoomState
	subs   map[string]*subscriber
}

// Distributor fans authoritative snapshots out to late-joining and
// long-lived subscribers. Delivery is at-least-once per subscriber and
// versions never go backwards on any subscriber's channel; stale
// snapshots are simply not forwarded to subscribers that already saw a
// newer one.
type Distributor struct {
	mu    sync.Mutex
	rooms map[string]*roomFeed
	store Store
	feed  Feed
	ctx   context.Context

	relays map[string]func() // roomID -> relay stop
}

// NewDistributor builds a distributor. store and feed may be nil, in
// which case snapshots are only fanned out in-process.
func NewDistributor(ctx context.Context, store Store, feed Feed) *Distributor {
	return &Distributor{
		rooms:  make(map[string]*roomFeed),
		store:  store,
		feed:   feed,
		ctx:    ctx,
		relays: make(map[string]func()),
	}
}

// Subscribe registers subID on roomID and returns the delivery channel
// plus a cancel function. If a snapshot for the room is already known
// it is delivered immediately, so late joiners never wait for the next
// state change to render the board.
func (d *Distributor) Subscribe(roomID, subID string, buffer int) (<-chan *redis_models.RoomState, func()) {
	if buffer < 1 {
		buffer = 8
	}
	sub := &subscriber{
		id:          subID,
		ch:          make(chan *redis_models.RoomState, buffer),
		lastVersion: -1,
	}

	d.mu.Lock()
	feed, ok := d.rooms[roomID]
	if !ok {
		feed = &roomFeed{subs: make(map[string]*subscriber)}
		d.rooms[roomID] = feed
	}
	if prev, ok := feed.subs[subID]; ok {
		close(prev.ch)
	}
	feed.subs[subID] = sub
	if feed.latest != nil {
		sub.ch <- feed.latest
		sub.lastVersion = feed.latest.Version
	}
	d.startRelayLocked(roomID)
	d.mu.Unlock()

	cancel := func() { d.unsubscribe(roomID, subID, sub) }
	return sub.ch, cancel
}

func (d *Distributor) unsubscribe(roomID, subID string, sub *subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	feed, ok := d.rooms[roomID]
	if !ok {
		return
	}
	if current, ok := feed.subs[subID]; ok && current == sub {
		delete(feed.subs, subID)
		close(sub.ch)
	}
}

// Publish records snap as the room's latest snapshot and fans it out.
// Redis persistence and pub/sub are best effort: a write failure is
// logged and never blocks local delivery.
func (d *Distributor) Publish(snap *redis_models.RoomState) {
	if d.store != nil {
		if err := d.store.SaveRoomState(snap); err != nil {
			log.Printf("[DISTRIBUTOR-ERROR] Error saving state for room %s: %v", snap.RoomID, err)
		}
		if data, err := json.Marshal(snap); err != nil {
			log.Printf("[DISTRIBUTOR-ERROR] Error encoding snapshot for room %s: %v", snap.RoomID, err)
		} else if err := d.store.PublishRoomSnapshot(snap.RoomID, data); err != nil {
			log.Printf("[DISTRIBUTOR-ERROR] Error publishing snapshot for room %s: %v", snap.RoomID, err)
		}
	}

	d.Ingest(snap)
}

// Ingest fans a snapshot out to local subscribers without writing it
// back to the store. Relays use it so a snapshot from another process
// is never re-published.
func (d *Distributor) Ingest(snap *redis_models.RoomState) {
	d.mu.Lock()
	defer d.mu.Unlock()

	feed, ok := d.rooms[snap.RoomID]
	if !ok {
		feed = &roomFeed{subs: make(map[string]*subscriber)}
		d.rooms[snap.RoomID] = feed
	}
	if feed.latest != nil && snap.Version < feed.latest.Version {
		// An out-of-order publish; the newer snapshot already went out.
		return
	}
	feed.latest = snap

	for id, sub := range feed.subs {
		if snap.Version < sub.lastVersion {
			continue
		}
		select {
		case sub.ch <- snap:
			sub.lastVersion = snap.Version
		default:
			// Subscriber is not draining; drop it rather than stall
			// every other client in the room.
			log.Printf("[DISTRIBUTOR] Dropping slow subscriber %s on room %s", id, snap.RoomID)
			delete(feed.subs, id)
			close(sub.ch)
		}
	}
}

// Latest returns the most recent snapshot seen for roomID, or nil.
func (d *Distributor) Latest(roomID string) *redis_models.RoomState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if feed, ok := d.rooms[roomID]; ok {
		return feed.latest
	}
	return nil
}

// CloseRoom drops every subscriber of roomID, stops its relay and
// forgets its snapshot.
func (d *Distributor) CloseRoom(roomID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if stop, ok := d.relays[roomID]; ok {
		stop()
		delete(d.relays, roomID)
	}
	feed, ok := d.rooms[roomID]
	if !ok {
		return
	}
	for _, sub := range feed.subs {
		close(sub.ch)
	}
	delete(d.rooms, roomID)
}

// startRelayLocked consumes the room's cross-process snapshot channel
// so snapshots published by other processes reach local subscribers.
// Started once per room, on its first local subscriber.
func (d *Distributor) startRelayLocked(roomID string) {
	if d.feed == nil {
		return
	}
	if _, ok := d.relays[roomID]; ok {
		return
	}

	pubsub := d.feed.SubscribeRoomSnapshots(roomID)
	ctx, cancel := context.WithCancel(d.ctx)
	d.relays[roomID] = cancel

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var snap redis_models.RoomState
				if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
					log.Printf("[DISTRIBUTOR-ERROR] Bad snapshot on channel for room %s: %v", roomID, err)
					continue
				}
				d.Ingest(&snap)
			}
		}
	}()
}
