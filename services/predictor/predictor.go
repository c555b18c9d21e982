package predictor

import (
	game_constants "Magnate/constants/game"
	redis_models "Magnate/models/redis"
	"Magnate/services/game"
	"Magnate/services/intent"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"
)

// PendingStatus tracks an optimistic intent through its lifecycle.
type PendingStatus string

const (
	StatusPending   PendingStatus = "pending"
	StatusSubmitted PendingStatus = "submitted"
	StatusFailed    PendingStatus = "failed"
)

// PendingIntent is an intent the local client has acted on before the
// server confirmed it.
type PendingIntent struct {
	Intent              *intent.Intent
	Status              PendingStatus
	VersionAtSubmission int
	CreatedAt           time.Time
}

// Predictor keeps a client-local shadow of a room's state. Optimistic
// effects are recomputed from the last confirmed snapshot on every
// read, so discarding a failed prediction is just dropping it from the
// pending set.
type Predictor struct {
	mu        sync.Mutex
	roomID    string
	confirmed *redis_models.RoomState
	pending   map[string]*PendingIntent
	order     []string

	now func() time.Time
}

func NewPredictor(initial *redis_models.RoomState) *Predictor {
	return &Predictor{
		roomID:    initial.RoomID,
		confirmed: initial.Clone(),
		pending:   make(map[string]*PendingIntent),
		now:       time.Now,
	}
}

// Track records an intent as optimistically applied. The confirmed
// version at this moment decides later whether a snapshot settles it.
func (p *Predictor) Track(in *intent.Intent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[in.IntentID]; ok {
		return
	}
	p.pending[in.IntentID] = &PendingIntent{
		Intent:              in,
		Status:              StatusPending,
		VersionAtSubmission: p.confirmed.Version,
		CreatedAt:           p.now(),
	}
	p.order = append(p.order, in.IntentID)
}

// MarkSubmitted flips a pending intent once the transport accepted it.
func (p *Predictor) MarkSubmitted(intentID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pi, ok := p.pending[intentID]; ok && pi.Status == StatusPending {
		pi.Status = StatusSubmitted
	}
}

// MarkFailed drops a rejected intent; the next View no longer shows its
// optimistic effect.
func (p *Predictor) MarkFailed(intentID string, reason intent.Reason) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[intentID]; !ok {
		return
	}
	log.Printf("[PREDICTOR] Room %s intent %s rejected (%s), rolling back prediction", p.roomID, intentID, reason)
	p.retire(intentID)
}

// View returns the confirmed state with every pending prediction
// replayed on top.
func (p *Predictor) View() *redis_models.RoomState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked()
}

func (p *Predictor) viewLocked() *redis_models.RoomState {
	view := p.confirmed.Clone()
	for _, id := range p.order {
		pi, ok := p.pending[id]
		if !ok {
			continue
		}
		view = Predict(view, pi.Intent)
	}
	return view
}

// Reconcile adopts an authoritative snapshot. Pending intents whose
// submission predates the snapshot are settled either way by it, so
// they are retired. A snapshot that lost every usable player while we
// still hold some is treated as corrupt and ignored; the last good
// state stays on screen.
func (p *Predictor) Reconcile(snap *redis_models.RoomState) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if snap == nil || snap.RoomID != p.roomID {
		return fmt.Errorf("snapshot does not belong to room %s", p.roomID)
	}
	if !snap.HasValidPlayers() && p.confirmed.HasValidPlayers() {
		log.Printf("[PREDICTOR] Room %s received snapshot v%d with no usable players, keeping v%d",
			p.roomID, snap.Version, p.confirmed.Version)
		return fmt.Errorf("corrupted snapshot for room %s: no usable players", p.roomID)
	}
	if snap.Version < p.confirmed.Version {
		// Older than what we already confirmed; nothing to do.
		return nil
	}

	p.confirmed = snap.Clone()
	for _, id := range append([]string(nil), p.order...) {
		pi, ok := p.pending[id]
		if !ok {
			continue
		}
		if snap.Version > pi.VersionAtSubmission {
			p.retire(id)
		}
	}
	return nil
}

// Sweep retires predictions that outlived their confirmation window.
// They may have been lost in transit; the authoritative state wins.
func (p *Predictor) Sweep() {
	p.mu.Lock()
	defer p.mu.Unlock()
	cutoff := p.now().Add(-game_constants.PendingIntentTimeout)
	for _, id := range append([]string(nil), p.order...) {
		pi, ok := p.pending[id]
		if !ok {
			continue
		}
		if pi.CreatedAt.Before(cutoff) {
			log.Printf("[PREDICTOR] Room %s intent %s unconfirmed after %s, possibly lost",
				p.roomID, id, game_constants.PendingIntentTimeout)
			p.retire(id)
		}
	}
}

// Pending reports how many predictions are still awaiting confirmation.
func (p *Predictor) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Predictor) retire(intentID string) {
	delete(p.pending, intentID)
	for i, id := range p.order {
		if id == intentID {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// Predict applies the optimistic effect of an intent to a state copy.
// Only purchases and turn ends are predicted; everything else depends
// on server-side outcomes (dice, rent) and renders no tentative change.
func Predict(s *redis_models.RoomState, in *intent.Intent) *redis_models.RoomState {
	switch in.Type {
	case intent.TypePurchaseProperty:
		var payload intent.PurchasePayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			return s
		}
		player := s.FindPlayer(in.ActorID)
		tile, ok := game.TileByID(payload.TileID)
		if player == nil || !ok {
			return s
		}
		if owned, exists := s.Board[payload.TileID]; exists && owned.OwnerID != "" {
			return s
		}
		if player.Money < tile.Price {
			return s
		}
		player.Money -= tile.Price
		player.OwnedTiles = append(player.OwnedTiles, payload.TileID)
		s.Board[payload.TileID] = redis_models.TileState{OwnerID: in.ActorID}
		s.PendingTile = -1
		s.Decision = redis_models.DecisionManage
		return s

	case intent.TypeEndTurn:
		if s.Phase != redis_models.PhasePlaying || len(s.Players) == 0 {
			return s
		}
		current := s.CurrentPlayer()
		if current == nil || current.PlayerID != in.ActorID {
			return s
		}
		for i := 1; i <= len(s.Players); i++ {
			next := (s.TurnIndex + i) % len(s.Players)
			if !s.Players[next].Bankrupt {
				s.TurnIndex = next
				break
			}
		}
		s.Decision = redis_models.DecisionRoll
		s.PendingTile = -1
		return s

	default:
		return s
	}
}
